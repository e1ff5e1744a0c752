package game

import (
	"math"

	"radio-survival/internal/geom"
)

func initPlayer(s *Sim, o *Object) {
	o.static = false
	o.target = true
	o.maxHealth = s.cfg.PlayerMaxHealth
	o.health = o.maxHealth
}

// movePlayer applies forward speed along world y, decays knockback, then
// strafes along world x. The walk-cycle sprite swaps every SpriteToggle
// steps while the player is moving.
func movePlayer(s *Sim, o *Object) {
	dt := s.dt

	o.pos.Y += o.speed * dt
	o.applyKnockback(s.cfg.KnockbackFraction)

	strafe := s.cfg.StrafeSpeed
	if o.walking {
		strafe *= 0.5
	}
	delta := strafe * dt
	if o.strafeRight {
		o.pos.X += delta
	} else if o.strafeLeft {
		o.pos.X -= delta
	}

	if o.rotSpeed != 0 {
		o.integrateRoll(dt)
	}

	o.frame++
	moving := o.speed != 0 || o.strafeLeft || o.strafeRight
	if moving && s.cfg.SpriteToggle > 0 && o.frame%s.cfg.SpriteToggle == 0 {
		o.altSprite = !o.altSprite
		if o.altSprite {
			o.sprite = KindPlayer2
		} else {
			o.sprite = KindPlayer
		}
	}

	o.strafeLeft, o.strafeRight = false, false
	o.walking = false
}

func respondPlayer(s *Sim, o *Object, norm geom.Vec2, d float64, other *Object) {
	if o.dead {
		return
	}

	if other != nil {
		switch {
		case other.kind == KindBullet2:
			// Turret fire hurts without the overlap pushback.
			hurtPlayer(s, o, norm)
			return

		case other.IsBullet(), other.IsActivity():
			return

		case other.IsTurret():
			hurtPlayer(s, o, norm)

		case other.IsRadio():
			s.collect(other)
		}
	}

	defaultResponse(o, norm, d, other)
}

// hurtPlayer applies one enemy hit. Health at or below the damage drops to
// zero and kills the player.
func hurtPlayer(s *Sim, o *Object, norm geom.Vec2) {
	if o.health > s.cfg.EnemyDamage {
		o.health -= s.cfg.EnemyDamage
		s.effects.PlaySound(SoundGrunt)
	} else {
		o.health = 0
	}
	o.tint = damageTint(o.health, o.maxHealth)
	o.knockback = norm.Scale(s.cfg.PlayerKnockback)

	if o.health == 0 {
		s.killPlayer(o)
	}
}

// killPlayer runs the player's death path and clears the player reference.
func (s *Sim) killPlayer(o *Object) {
	if o.dead {
		return
	}
	o.health = 0
	s.effects.PlaySound(SoundBoom)
	s.kill(o)
	if s.player == o.handle {
		s.player = Handle{}
	}
}

// Player is a view over the current player object. Every method treats an
// absent player as dead: reads return zero values and writes are ignored.
type Player struct {
	sim *Sim
}

// Player returns the controls for the current player.
func (s *Sim) Player() Player {
	return Player{sim: s}
}

func (p Player) object() *Object {
	o, ok := p.sim.objects.Get(p.sim.player)
	if !ok || o.dead {
		return nil
	}
	return o
}

// Alive reports whether a player exists.
func (p Player) Alive() bool {
	return p.object() != nil
}

// Handle returns the player's handle, or the zero handle when absent.
func (p Player) Handle() Handle {
	if o := p.object(); o != nil {
		return o.handle
	}
	return Handle{}
}

// Pos returns the player's position.
func (p Player) Pos() geom.Vec2 {
	if o := p.object(); o != nil {
		return o.pos
	}
	return geom.Vec2{}
}

// Radius returns the player's collision radius.
func (p Player) Radius() float64 {
	if o := p.object(); o != nil {
		return o.radius
	}
	return 0
}

// Health returns the player's health, 0 when there is no player.
func (p Player) Health() int {
	if o := p.object(); o != nil {
		return o.health
	}
	return 0
}

// SetHealth sets the player's health, clamped to the maximum. Zero or less
// kills the player.
func (p Player) SetHealth(health int) {
	o := p.object()
	if o == nil {
		return
	}
	if health <= 0 {
		p.sim.killPlayer(o)
		return
	}
	if health > o.maxHealth {
		health = o.maxHealth
	}
	o.health = health
	o.tint = damageTint(o.health, o.maxHealth)
}

// MaxHealth returns the player's maximum health.
func (p Player) MaxHealth() int {
	if o := p.object(); o != nil {
		return o.maxHealth
	}
	return 0
}

// HungerCount returns the stored food count, 0 when there is no player.
func (p Player) HungerCount() int {
	if o := p.object(); o != nil {
		return o.hunger
	}
	return 0
}

// SetHungerCount stores the food count clamped to [0, MaxHunger].
func (p Player) SetHungerCount(count int) {
	o := p.object()
	if o == nil {
		return
	}
	if count < 0 {
		count = 0
	} else if count > p.sim.cfg.MaxHunger {
		count = p.sim.cfg.MaxHunger
	}
	o.hunger = count
}

// SetSpeed sets forward speed; positive moves up.
func (p Player) SetSpeed(speed float64) {
	if o := p.object(); o != nil {
		o.speed = p.sim.cfg.SpeedMultiplier * speed
	}
}

// SetRotSpeed sets rotational speed in revolutions per second.
func (p Player) SetRotSpeed(speed float64) {
	if o := p.object(); o != nil {
		o.rotSpeed = p.sim.cfg.RotMultiplier * speed
	}
}

// SetRotation points the player at the given angle in degrees.
func (p Player) SetRotation(degrees float64) {
	if o := p.object(); o != nil {
		o.roll = degrees * math.Pi / 180
	}
}

// Rotation returns the player's heading in degrees.
func (p Player) Rotation() float64 {
	if o := p.object(); o != nil {
		return o.roll * 180 / math.Pi
	}
	return 0
}

// StrafeLeft requests a strafe to the left on the next move.
func (p Player) StrafeLeft() {
	if o := p.object(); o != nil {
		o.strafeLeft = true
	}
}

// StrafeRight requests a strafe to the right on the next move.
func (p Player) StrafeRight() {
	if o := p.object(); o != nil {
		o.strafeRight = true
	}
}

// SetWalking halves the strafe speed for the next move.
func (p Player) SetWalking(walking bool) {
	if o := p.object(); o != nil {
		o.walking = walking
	}
}
