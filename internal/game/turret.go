package game

import (
	"math"
	"time"

	"radio-survival/internal/geom"

	"golang.org/x/time/rate"
)

// turretIdleSpin is the rotation speed of a turret with no target.
const turretIdleSpin = 0.4

func initTurret(s *Sim, o *Object) {
	o.static = true
	o.target = true
	o.maxHealth = s.cfg.TurretMaxHealth
	o.health = o.maxHealth
	o.state = Wandering
	every := time.Duration(s.cfg.TurretCooldown * float64(time.Second))
	o.gun = rate.NewLimiter(rate.Every(every), 1)
}

// moveTurret sweeps until the player is in sight, then tracks it and fires
// whenever it is lined up and the gun has cooled down.
func moveTurret(s *Sim, o *Object) {
	p, ok := s.objects.Get(s.player)
	if !ok || p.dead || !s.world.Visible(o.pos, p.pos, p.radius) {
		o.rotSpeed = turretIdleSpin
		o.integrateRoll(s.dt)
		return
	}

	v := p.pos.Sub(o.pos)
	diff := headingError(o, v)
	switch {
	case diff > s.cfg.TrackDeadband:
		o.rotSpeed = -s.cfg.TurretTrack
	case diff < -s.cfg.TrackDeadband:
		o.rotSpeed = s.cfg.TurretTrack
	default:
		o.rotSpeed = 0
	}
	o.integrateRoll(s.dt)

	if math.Abs(diff) <= s.cfg.TrackDeadband && o.gun.AllowN(s.Clock(), 1) {
		s.objects.FireGun(o.handle, KindBullet2)
	}
}

func respondTurret(s *Sim, o *Object, norm geom.Vec2, d float64, other *Object) {
	if o.dead {
		return
	}
	if other != nil && other.kind == KindBullet {
		o.state = o.state.Next(Shot)
		damageEnemy(s, o)
		return
	}
	defaultResponse(o, norm, d, other)
}
