package game

// gun describes how a projectile kind looks when fired.
type gun struct {
	tint       Tint // Bullet sprite tint
	flash      Tint // Muzzle spark tint
	flashLife  float64
	flashScale float64
}

// guns is indexed by projectile kind.
var guns = map[Kind]gun{
	KindBullet: {
		tint:       White,
		flash:      Tint{1, 1, 0}, // Yellow
		flashLife:  0.25,
		flashScale: 0.5,
	},
	KindBullet2: {
		tint:       Tint{1, 0.4, 0.4},
		flash:      Tint{1, 0.27, 0}, // OrangeRed
		flashLife:  0.25,
		flashScale: 0.5,
	},
}

// gunFor returns the gun for a projectile kind, the player's gun if the
// kind has none.
func gunFor(k Kind) gun {
	if g, ok := guns[k]; ok {
		return g
	}
	return guns[KindBullet]
}
