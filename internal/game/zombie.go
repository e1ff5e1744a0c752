package game

import (
	"math"

	"radio-survival/internal/geom"
)

// ZombieState is the pursuit state of an enemy.
type ZombieState uint8

const (
	Wandering ZombieState = iota
	Pursuing
	Dead
)

func (s ZombieState) String() string {
	switch s {
	case Wandering:
		return "wandering"
	case Pursuing:
		return "pursuing"
	case Dead:
		return "dead"
	default:
		return "unknown"
	}
}

// ZombieEvent drives ZombieState transitions.
type ZombieEvent uint8

const (
	TouchedMarker ZombieEvent = iota
	Shot
	Killed
)

// zombieTransitions lists every allowed transition. Anything missing leaves
// the state unchanged; nothing leads back to Wandering.
var zombieTransitions = map[ZombieState]map[ZombieEvent]ZombieState{
	Wandering: {
		TouchedMarker: Pursuing,
		Shot:          Pursuing,
		Killed:        Dead,
	},
	Pursuing: {
		Killed: Dead,
	},
}

// Next returns the state after ev.
func (s ZombieState) Next(ev ZombieEvent) ZombieState {
	if next, ok := zombieTransitions[s][ev]; ok {
		return next
	}
	return s
}

var initialWander = geom.V(-300, 900).Normalize()

func initZombie(s *Sim, o *Object) {
	o.static = false
	o.target = true
	o.maxHealth = s.cfg.ZombieMaxHealth
	o.health = o.maxHealth
	o.state = Wandering
	o.wander = initialWander
}

// moveZombie walks toward the player once the zombie has noticed it and can
// see it, and along its wander heading otherwise.
func moveZombie(s *Sim, o *Object) {
	o.applyKnockback(s.cfg.KnockbackFraction)

	goal := o.pos.Add(o.wander)
	if p, ok := s.objects.Get(s.player); ok && !p.dead && o.state == Pursuing &&
		s.world.Visible(o.pos, p.pos, p.radius) {
		goal = p.pos
	}

	rotateTowards(s, o, goal.Sub(o.pos))
	moveTowards(o, goal, s.cfg.ZombieStep)
	o.integrateRoll(s.dt)
}

// moveTowards steps a fixed distance toward goal. An object already at the
// goal stays put.
func moveTowards(o *Object, goal geom.Vec2, step float64) {
	v := goal.Sub(o.pos)
	if v.Len() > 0 {
		o.pos = o.pos.Add(v.Normalize().Scale(step))
	}
}

// rotateTowards sets the rotation speed that turns the object toward v,
// stopping inside the deadband.
func rotateTowards(s *Sim, o *Object, v geom.Vec2) {
	diff := headingError(o, v)
	switch {
	case diff > s.cfg.TrackDeadband:
		o.rotSpeed = -s.cfg.TrackSpeed
	case diff < -s.cfg.TrackDeadband:
		o.rotSpeed = s.cfg.TrackSpeed
	default:
		o.rotSpeed = 0
	}
}

// headingError is the signed angle from v's direction to the object's roll.
func headingError(o *Object, v geom.Vec2) float64 {
	return geom.NormalizeAngle(o.roll - math.Atan2(v.Y, v.X))
}

func respondZombie(s *Sim, o *Object, norm geom.Vec2, d float64, other *Object) {
	if o.dead {
		return
	}
	o.wander = geom.FromAngle(s.rng.Float64() * 2 * math.Pi)

	if other != nil && other.IsActivity() {
		o.state = o.state.Next(TouchedMarker)
		return
	}

	o.pos = o.pos.Add(norm.Scale(d))

	if other != nil && other.kind == KindBullet {
		o.knockback = norm.Scale(s.cfg.ZombieKnockback)
		o.state = o.state.Next(Shot)
		damageEnemy(s, o)
	}
}

// damageEnemy takes one health from a zombie or turret hit by a player
// bullet.
func damageEnemy(s *Sim, o *Object) {
	o.health--
	if o.health <= 0 {
		o.health = 0
		o.state = o.state.Next(Killed)
		s.effects.PlaySound(SoundBoom)
		s.kills++
		s.kill(o)
		return
	}
	s.effects.PlaySound(SoundClang)
	o.tint = damageTint(o.health, o.maxHealth)
}
