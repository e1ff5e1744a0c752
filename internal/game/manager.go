package game

import (
	"radio-survival/internal/config"
	"radio-survival/internal/game/spatial"
	"radio-survival/internal/geom"
)

// Handle refers to an object owned by a Manager. A handle goes stale when
// its object is culled; Get then reports it as missing. The zero Handle is
// never valid.
type Handle struct {
	index uint32
	gen   uint32
}

// Valid reports whether h was ever issued.
func (h Handle) Valid() bool { return h.gen != 0 }

// ID packs the handle into one integer for logs and snapshots.
func (h Handle) ID() uint64 { return uint64(h.gen)<<32 | uint64(h.index) }

type slot struct {
	obj *Object
	gen uint32
}

// Manager owns every object in a simulation. Objects live in a slot arena:
// a culled object's slot is reused with a bumped generation, so stale
// handles never alias a new object.
type Manager struct {
	sim *Sim

	slots   []slot
	free    []uint32
	live    []uint32 // slot indices in creation order
	pending []uint32 // created during Step, joined after the cull

	stepping  bool
	grid      *spatial.SpatialGrid
	maxRadius float64
}

func newManager(s *Sim, worldW, worldH, cellSize float64, capacity int) *Manager {
	return &Manager{
		sim:   s,
		slots: make([]slot, 0, capacity),
		live:  make([]uint32, 0, capacity),
		grid:  spatial.NewSpatialGrid(worldW, worldH, cellSize, capacity),
	}
}

// spriteWidth returns the configured sprite width for a kind.
func spriteWidth(k Kind, sprites config.SpriteConfig) float64 {
	switch k {
	case KindPlayer, KindPlayer2:
		return sprites.Player
	case KindZombie:
		return sprites.Zombie
	case KindTurret:
		return sprites.Turret
	case KindBullet, KindBullet2:
		return sprites.Bullet
	case KindActivity:
		return sprites.Activity
	case KindHouse:
		return sprites.House
	case KindShop:
		return sprites.Shop
	case KindTree:
		return sprites.Tree
	case KindRadioTower:
		return sprites.RadioTower
	case KindBattery, KindAntenna, KindLogicBoard:
		return sprites.Part
	default:
		return sprites.Default
	}
}

// Create adds an object of the given kind at pos and returns its handle.
// Objects created while a Step is running join the live set after it.
func (m *Manager) Create(kind Kind, pos geom.Vec2) Handle {
	width := spriteWidth(kind, m.sim.sprites)
	o := &Object{
		kind:   kind,
		sprite: kind,
		role:   roleOf(kind),
		pos:    pos,
		width:  width,
		radius: width / 2,
		static: true,
		target: true,
		tint:   White,
	}

	var idx uint32
	if n := len(m.free); n > 0 {
		idx = m.free[n-1]
		m.free = m.free[:n-1]
	} else {
		idx = uint32(len(m.slots))
		m.slots = append(m.slots, slot{})
	}
	s := &m.slots[idx]
	s.gen++
	if s.gen == 0 {
		s.gen = 1
	}
	s.obj = o
	o.handle = Handle{index: idx, gen: s.gen}

	if init := behaviours[o.role].init; init != nil {
		init(m.sim, o)
	}
	if o.radius > m.maxRadius {
		m.maxRadius = o.radius
	}

	if m.stepping {
		m.pending = append(m.pending, idx)
	} else {
		m.live = append(m.live, idx)
	}

	switch o.role {
	case RolePlayer:
		m.sim.player = o.handle
	case RoleActivity:
		m.sim.marker = o.handle
	}

	m.sim.emit(EventTypeSpawn, kind.String(), SpawnPayload{
		ObjectID: o.handle.ID(),
		Kind:     kind.String(),
		X:        pos.X,
		Y:        pos.Y,
	})

	return o.handle
}

// Get resolves a handle. Culled objects are reported missing; objects that
// are dead but not yet culled are still returned.
func (m *Manager) Get(h Handle) (*Object, bool) {
	if !h.Valid() || int(h.index) >= len(m.slots) {
		return nil, false
	}
	s := m.slots[h.index]
	if s.gen != h.gen || s.obj == nil {
		return nil, false
	}
	return s.obj, true
}

// Step runs one frame: every live object moves, collisions are resolved,
// then dead objects are culled and objects created during the frame join
// the live set.
func (m *Manager) Step() {
	m.stepping = true

	for _, idx := range m.live {
		o := m.slots[idx].obj
		if o.dead {
			continue
		}
		behaviours[o.role].move(m.sim, o)
	}

	m.BroadPhase()
	m.stepping = false

	m.cull()

	m.live = append(m.live, m.pending...)
	m.pending = m.pending[:0]
}

// cull removes dead objects in place and frees their slots.
func (m *Manager) cull() {
	n := 0
	for _, idx := range m.live {
		s := &m.slots[idx]
		if s.obj.dead {
			s.obj = nil
			m.free = append(m.free, idx)
			continue
		}
		m.live[n] = idx
		n++
	}
	m.live = m.live[:n]
}

// wallPasses is how many times each object is pushed out of walls per
// frame. One pass can leave an object inside a second box it was pushed
// into.
const wallPasses = 2

// BroadPhase finds overlapping pairs through the spatial grid and resolves
// each with NarrowPhase, then pushes every object out of the walls.
func (m *Manager) BroadPhase() {
	m.grid.Clear()
	for i, idx := range m.live {
		o := m.slots[idx].obj
		if !o.dead {
			m.grid.Insert(uint32(i), o.pos)
		}
	}

	for i, idx := range m.live {
		a := m.slots[idx].obj
		if a.dead {
			continue
		}
		for _, j := range m.grid.QueryRadius(a.pos, a.radius+m.maxRadius) {
			if int(j) <= i {
				continue
			}
			b := m.slots[m.live[j]].obj
			if b.dead || (a.static && b.static) {
				continue
			}
			m.narrowPhase(a, b)
			if a.dead {
				break
			}
		}
	}

	walls := m.sim.world
	for pass := 0; pass < wallPasses; pass++ {
		for _, idx := range m.live {
			o := m.slots[idx].obj
			if o.dead {
				continue
			}
			if hit, norm, d := walls.CollideWithWall(o.circle()); hit {
				m.respond(o, norm, d, nil)
			}
		}
	}
}

// NarrowPhase tests two objects for overlap and, if they overlap, gives
// each its collision response with opposite normals.
func (m *Manager) NarrowPhase(h0, h1 Handle) bool {
	a, ok := m.Get(h0)
	if !ok || a.dead {
		return false
	}
	b, ok := m.Get(h1)
	if !ok || b.dead {
		return false
	}
	return m.narrowPhase(a, b)
}

func (m *Manager) narrowPhase(a, b *Object) bool {
	sep := a.pos.Sub(b.pos)
	d := a.radius + b.radius - sep.Len()
	if d <= 0 {
		return false
	}
	norm := sep.Normalize()
	m.respond(a, norm, d, b)
	m.respond(b, norm.Neg(), d, a)
	return true
}

func (m *Manager) respond(o *Object, norm geom.Vec2, d float64, other *Object) {
	behaviours[o.role].respond(m.sim, o, norm, d, other)
}

// FireGun spawns a projectile in front of the firer travelling along its
// view with a small random deflection. It returns the zero Handle when the
// firer is gone.
func (m *Manager) FireGun(firer Handle, projectile Kind) Handle {
	f, ok := m.Get(firer)
	if !ok || f.dead {
		return Handle{}
	}
	gun := gunFor(projectile)
	s := m.sim

	s.effects.PlaySound(SoundGun)

	view := f.View()
	bulletWidth := spriteWidth(projectile, s.sprites)
	pos := f.pos.Add(view.Scale(0.5*f.width + bulletWidth))

	spread := 2*s.rng.Float64() - 1
	deflection := view.Perp().Scale(s.cfg.BulletSpread * spread)

	h := m.Create(projectile, pos)
	b, _ := m.Get(h)
	b.vel = f.vel.Add(view.Add(deflection).Scale(s.cfg.BulletSpeed))
	b.roll = f.roll
	b.tint = gun.tint

	s.effects.EmitParticle(ParticleDesc{
		Kind:     ParticleSpark,
		Pos:      pos,
		Vel:      view.Scale(f.speed),
		Life:     gun.flashLife,
		MaxScale: gun.flashScale,
		Tint:     gun.flash,
	})

	s.emit(EventTypeFire, f.kind.String(), FirePayload{
		ShooterID:   firer.ID(),
		ShooterKind: f.kind.String(),
		BulletID:    h.ID(),
		X:           pos.X,
		Y:           pos.Y,
		Angle:       f.roll,
	})

	return h
}

// ClearRadios removes every collectible radio part from the world.
func (m *Manager) ClearRadios() {
	m.eachLive(func(o *Object) {
		if o.IsRadio() {
			o.dead = true
		}
	})
}

// NumTurrets counts live enemies, zombies included.
func (m *Manager) NumTurrets() int {
	n := 0
	m.eachLive(func(o *Object) {
		if o.IsTurret() {
			n++
		}
	})
	return n
}

// Count returns the number of live objects.
func (m *Manager) Count() int {
	n := 0
	m.eachLive(func(*Object) { n++ })
	return n
}

// Each calls fn for every live object in creation order.
func (m *Manager) Each(fn func(o *Object)) {
	m.eachLive(fn)
}

func (m *Manager) eachLive(fn func(o *Object)) {
	for _, idx := range m.live {
		if o := m.slots[idx].obj; !o.dead {
			fn(o)
		}
	}
	for _, idx := range m.pending {
		if o := m.slots[idx].obj; !o.dead {
			fn(o)
		}
	}
}

// Clear removes every object and invalidates all handles.
func (m *Manager) Clear() {
	m.free = m.free[:0]
	for i := range m.slots {
		m.slots[i].obj = nil
		m.free = append(m.free, uint32(i))
	}
	m.live = m.live[:0]
	m.pending = m.pending[:0]
	m.maxRadius = 0
	m.sim.player = Handle{}
	m.sim.marker = Handle{}
}

// GridStats exposes broad-phase occupancy from the last frame.
func (m *Manager) GridStats() spatial.GridStats {
	return m.grid.Stats()
}
