package game

import (
	"math"

	"radio-survival/internal/geom"

	"golang.org/x/time/rate"
)

// Tint is an RGB multiplier applied to an object's sprite.
type Tint struct {
	R float64 `json:"r" msgpack:"r"`
	G float64 `json:"g" msgpack:"g"`
	B float64 `json:"b" msgpack:"b"`
}

// White leaves a sprite unchanged.
var White = Tint{1, 1, 1}

// damageTint reddens a sprite as health drops: full health is white, no
// health is (1, 0.5, 0.5).
func damageTint(health, maxHealth int) Tint {
	f := 0.5
	if maxHealth > 0 {
		f = 0.5 + 0.5*float64(health)/float64(maxHealth)
	}
	return Tint{1, f, f}
}

// Object is one simulated entity. All state is private to the package; the
// Manager owns every Object and the rest of the program refers to them by
// Handle.
type Object struct {
	handle Handle
	kind   Kind
	sprite Kind
	role   Role

	pos       geom.Vec2
	vel       geom.Vec2
	knockback geom.Vec2
	radius    float64
	width     float64
	roll      float64 // Radians, view vector is FromAngle(roll)
	rotSpeed  float64
	speed     float64

	static bool
	target bool
	dead   bool

	health    int
	maxHealth int
	tint      Tint

	// Player controls, reset after every move.
	strafeLeft  bool
	strafeRight bool
	walking     bool
	frame       int
	altSprite   bool
	hunger      int

	// Zombie state.
	state  ZombieState
	wander geom.Vec2

	// Bullet lifetime in seconds.
	ttl float64

	// Turret gun timer, driven by simulation time.
	gun *rate.Limiter
}

func (o *Object) Handle() Handle     { return o.handle }
func (o *Object) Kind() Kind         { return o.kind }
func (o *Object) Sprite() Kind       { return o.sprite }
func (o *Object) Role() Role         { return o.role }
func (o *Object) Pos() geom.Vec2     { return o.pos }
func (o *Object) Vel() geom.Vec2     { return o.vel }
func (o *Object) Radius() float64    { return o.radius }
func (o *Object) Roll() float64      { return o.roll }
func (o *Object) Health() int        { return o.health }
func (o *Object) Tint() Tint         { return o.tint }
func (o *Object) Dead() bool         { return o.dead }
func (o *Object) Static() bool       { return o.static }
func (o *Object) IsTarget() bool     { return o.target }
func (o *Object) State() ZombieState { return o.state }

// View returns the unit vector the object faces.
func (o *Object) View() geom.Vec2 { return geom.FromAngle(o.roll) }

// IsBullet reports whether the object is a projectile.
func (o *Object) IsBullet() bool { return o.role == RoleBullet }

// IsTurret reports whether the object is an enemy. Zombies count.
func (o *Object) IsTurret() bool { return o.role == RoleZombie || o.role == RoleTurret }

// IsActivity reports whether the object is the player's proximity marker.
func (o *Object) IsActivity() bool { return o.role == RoleActivity }

// IsRadio reports whether the object is a collectible radio part.
func (o *Object) IsRadio() bool { return o.role == RoleCollectible }

func (o *Object) IsHouse() bool { return o.kind == KindHouse }
func (o *Object) IsShop() bool  { return o.kind == KindShop }
func (o *Object) IsTree() bool  { return o.kind == KindTree }

func (o *Object) circle() geom.Circle {
	return geom.Circle{Center: o.pos, Radius: o.radius}
}

// applyKnockback moves by a fraction of the pending impulse and decays it.
func (o *Object) applyKnockback(fraction float64) {
	o.pos = o.pos.Add(o.knockback.Scale(fraction))
	o.knockback = o.knockback.Scale(1 - fraction)
}

// integrateRoll advances orientation from the rotational speed.
func (o *Object) integrateRoll(dt float64) {
	o.roll = geom.NormalizeAngle(o.roll + 0.2*o.rotSpeed*2*math.Pi*dt)
}

// defaultResponse backs the object off along norm. Two dynamic objects
// share the overlap; a dynamic object against a static one or a wall takes
// all of it.
func defaultResponse(o *Object, norm geom.Vec2, d float64, other *Object) {
	if o.dead || o.static {
		return
	}
	otherStatic := other == nil || other.static
	if otherStatic {
		o.pos = o.pos.Add(norm.Scale(d))
	} else {
		o.pos = o.pos.Add(norm.Scale(d / 2))
	}
}
