package game

import "radio-survival/internal/geom"

// Bullets travel in a straight line. They die on walls, on anything that is
// a target, or when their lifetime runs out, and pass through props, the
// activity marker and radio parts.

func initBullet(s *Sim, o *Object) {
	o.static = false
	o.target = false
	o.ttl = s.cfg.BulletLifetime
}

func moveBullet(s *Sim, o *Object) {
	o.pos = o.pos.Add(o.vel.Scale(s.dt))
	o.ttl -= s.dt
	if o.ttl <= 0 {
		o.dead = true
	}
}

func respondBullet(s *Sim, o *Object, _ geom.Vec2, _ float64, other *Object) {
	if o.dead {
		return
	}
	switch {
	case other == nil:
		s.effects.PlaySound(SoundRicochet)
		s.kill(o)
	case other.target:
		// The death effect belongs to whatever was hit.
		o.dead = true
	}
}

func bulletFX(s *Sim, o *Object) {
	s.effects.EmitParticle(ParticleDesc{
		Kind:     ParticleSmoke,
		Pos:      o.pos,
		Life:     0.5,
		MaxScale: 0.75,
		Tint:     White,
	})
}
