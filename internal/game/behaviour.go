package game

import "radio-survival/internal/geom"

// behaviour is the per-role capability set. Every object dispatches through
// the table entry for its role.
type behaviour struct {
	init    func(s *Sim, o *Object)
	move    func(s *Sim, o *Object)
	respond func(s *Sim, o *Object, norm geom.Vec2, d float64, other *Object)
	deathFX func(s *Sim, o *Object)
}

var behaviours [roleCount]behaviour

// The table refers to functions that reach back into the Manager, so it is
// filled in init rather than by a package-level initializer.
func init() {
	behaviours = [roleCount]behaviour{
		RoleInert: {
			move:    moveBody,
			respond: defaultRespond,
		},
		RolePlayer: {
			init:    initPlayer,
			move:    movePlayer,
			respond: respondPlayer,
			deathFX: burstFX(Tint{1, 0.27, 0}),
		},
		RoleZombie: {
			init:    initZombie,
			move:    moveZombie,
			respond: respondZombie,
			deathFX: burstFX(Tint{1, 0.65, 0}),
		},
		RoleTurret: {
			init:    initTurret,
			move:    moveTurret,
			respond: respondTurret,
			deathFX: burstFX(Tint{1, 0.65, 0}),
		},
		RoleBullet: {
			init:    initBullet,
			move:    moveBullet,
			respond: respondBullet,
			deathFX: bulletFX,
		},
		RoleActivity: {
			init:    initActivity,
			move:    noMove,
			respond: noRespond,
		},
		RoleProp: {
			init:    initProp,
			move:    noMove,
			respond: noRespond,
		},
		RoleCollectible: {
			init:    initProp,
			move:    noMove,
			respond: noRespond,
		},
	}
}

func noMove(*Sim, *Object) {}

func noRespond(*Sim, *Object, geom.Vec2, float64, *Object) {}

func defaultRespond(_ *Sim, o *Object, norm geom.Vec2, d float64, other *Object) {
	defaultResponse(o, norm, d, other)
}

// moveBody integrates velocity for dynamic objects.
func moveBody(s *Sim, o *Object) {
	if o.static {
		return
	}
	o.pos = o.pos.Add(o.vel.Scale(s.dt))
}

func initProp(_ *Sim, o *Object) {
	o.static = true
	o.target = false
}

func initActivity(_ *Sim, o *Object) {
	o.static = false
	o.target = false
}

// burstFX is the death effect shared by the player and enemies: a large
// smoke puff and a tinted spark.
func burstFX(spark Tint) func(s *Sim, o *Object) {
	return func(s *Sim, o *Object) {
		s.effects.EmitParticle(ParticleDesc{
			Kind:     ParticleSmoke,
			Pos:      o.pos,
			Life:     2,
			MaxScale: 4,
			Tint:     White,
		})
		s.effects.EmitParticle(ParticleDesc{
			Kind:     ParticleSpark,
			Pos:      o.pos,
			Life:     0.5,
			MaxScale: 1.5,
			Tint:     spark,
		})
	}
}

// kill marks o dead and fires its death effect. Calling it on a dead
// object does nothing.
func (s *Sim) kill(o *Object) {
	if o.dead {
		return
	}
	o.dead = true
	if fx := behaviours[o.role].deathFX; fx != nil {
		fx(s, o)
	}
	s.emit(EventTypeDeath, o.kind.String(), DeathPayload{
		ObjectID: o.handle.ID(),
		Kind:     o.kind.String(),
		X:        o.pos.X,
		Y:        o.pos.Y,
	})
}
