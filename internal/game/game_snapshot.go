package game

import (
	"sync/atomic"
	"time"

	"radio-survival/internal/config"
	"radio-survival/internal/geom"
)

// ObjectSnapshot is an immutable copy of object state for rendering
type ObjectSnapshot struct {
	ID     uint64    `json:"id" msgpack:"id"`
	Kind   string    `json:"kind" msgpack:"kind"`
	Sprite string    `json:"sprite" msgpack:"sprite"`
	Role   string    `json:"role" msgpack:"role"`
	Pos    geom.Vec2 `json:"pos" msgpack:"pos"`
	Radius float64   `json:"radius" msgpack:"radius"`
	Roll   float64   `json:"roll" msgpack:"roll"`
	Health int       `json:"health" msgpack:"health"`
	Tint   Tint      `json:"tint" msgpack:"tint"`
	State  string    `json:"state,omitempty" msgpack:"state,omitempty"` // Enemies only
}

// ParticleSnapshot is an immutable particle for rendering
type ParticleSnapshot struct {
	Kind  string    `json:"kind" msgpack:"kind"`
	Pos   geom.Vec2 `json:"pos" msgpack:"pos"`
	Scale float64   `json:"scale" msgpack:"scale"`
	Alpha float64   `json:"alpha" msgpack:"alpha"`
	Tint  Tint      `json:"tint" msgpack:"tint"`
}

// HUDSnapshot is the player-facing status line.
type HUDSnapshot struct {
	Health        int     `json:"health" msgpack:"health"`
	MaxHealth     int     `json:"maxHealth" msgpack:"maxHealth"`
	Hunger        int     `json:"hunger" msgpack:"hunger"`
	Parts         Parts   `json:"parts" msgpack:"parts"`
	RadioOn       bool    `json:"radioOn" msgpack:"radioOn"`
	CanLeave      bool    `json:"canLeave" msgpack:"canLeave"`
	Day           int     `json:"day" msgpack:"day"`
	Minutes       int     `json:"minutes" msgpack:"minutes"`
	Clock         string  `json:"clock" msgpack:"clock"`
	Night         bool    `json:"night" msgpack:"night"`
	TintFactor    float64 `json:"tintFactor" msgpack:"tintFactor"`
	FarmProgress  float64 `json:"farmProgress" msgpack:"farmProgress"`
	BuildProgress float64 `json:"buildProgress" msgpack:"buildProgress"`
}

// GameSnapshot is a complete immutable game state for rendering
// All slices are pre-allocated and capped to prevent memory attacks
type GameSnapshot struct {
	Sequence   uint64    `json:"sequence" msgpack:"sequence"`
	Timestamp  time.Time `json:"timestamp" msgpack:"timestamp"`
	TickNumber uint64    `json:"tickNumber" msgpack:"tickNumber"`
	RNGSeed    int64     `json:"rngSeed" msgpack:"rngSeed"`
	RunID      uint64    `json:"runId" msgpack:"runId"`

	State     string      `json:"state" msgpack:"state"`
	Camera    geom.Vec2   `json:"camera" msgpack:"camera"`
	WorldTint Tint        `json:"worldTint" msgpack:"worldTint"`
	HUD       HUDSnapshot `json:"hud" msgpack:"hud"`

	// Pre-allocated capped slices (never grows beyond limits)
	Objects   []ObjectSnapshot   `json:"objects" msgpack:"objects"`
	Particles []ParticleSnapshot `json:"particles" msgpack:"particles"`

	// Aggregate stats
	ObjectCount int `json:"objectCount" msgpack:"objectCount"`
	EnemyCount  int `json:"enemyCount" msgpack:"enemyCount"`
	Kills       int `json:"kills" msgpack:"kills"`
}

// Clone returns a deep copy that stays valid after the pool reuses the
// original.
func (g *GameSnapshot) Clone() GameSnapshot {
	c := *g
	c.Objects = append([]ObjectSnapshot(nil), g.Objects...)
	c.Particles = append([]ParticleSnapshot(nil), g.Particles...)
	return c
}

// SnapshotPool pre-allocates snapshots to avoid GC pressure
// Uses triple buffering for lock-free producer/consumer
type SnapshotPool struct {
	snapshots [3]GameSnapshot // Triple buffer
	limits    config.ResourceLimits
	writeIdx  uint32 // atomic - producer index
	readIdx   uint32 // atomic - consumer index
	sequence  uint64 // atomic - monotonic sequence
}

// NewSnapshotPool creates a pool with pre-allocated slices
func NewSnapshotPool(limits config.ResourceLimits) *SnapshotPool {
	pool := &SnapshotPool{limits: limits}

	for i := 0; i < 3; i++ {
		pool.snapshots[i] = GameSnapshot{
			Objects:   make([]ObjectSnapshot, 0, limits.MaxObjects),
			Particles: make([]ParticleSnapshot, 0, limits.MaxParticles),
		}
	}

	return pool
}

// AcquireWrite gets the next write slot (producer only, called from game tick)
// Returns a snapshot with reset slices but preserved capacity
func (p *SnapshotPool) AcquireWrite() *GameSnapshot {
	idx := atomic.AddUint32(&p.writeIdx, 1) % 3
	snap := &p.snapshots[idx]

	snap.Objects = snap.Objects[:0]
	snap.Particles = snap.Particles[:0]
	snap.HUD = HUDSnapshot{}

	snap.Sequence = atomic.AddUint64(&p.sequence, 1)
	snap.Timestamp = time.Now()

	return snap
}

// PublishWrite marks write complete and advances read pointer
// Called after snapshot is fully populated
func (p *SnapshotPool) PublishWrite() {
	atomic.StoreUint32(&p.readIdx, atomic.LoadUint32(&p.writeIdx))
}

// AcquireRead gets the latest complete snapshot (consumer only)
func (p *SnapshotPool) AcquireRead() *GameSnapshot {
	idx := atomic.LoadUint32(&p.readIdx) % 3
	return &p.snapshots[idx]
}

// GetLimits returns the resource limits
func (p *SnapshotPool) GetLimits() config.ResourceLimits {
	return p.limits
}

// fillSnapshot copies the simulation's visible state into snap, capped by
// limits.
func (s *Sim) fillSnapshot(snap *GameSnapshot, limits config.ResourceLimits) {
	snap.RNGSeed = s.seed
	snap.RunID = s.runID
	snap.State = s.state.String()
	snap.Camera = s.camera
	snap.WorldTint = s.WorldTint()
	snap.Kills = s.kills

	p := s.Player()
	snap.HUD = HUDSnapshot{
		Health:        p.Health(),
		MaxHealth:     p.MaxHealth(),
		Hunger:        p.HungerCount(),
		Parts:         s.parts,
		RadioOn:       s.radioOn,
		CanLeave:      s.CanLeave(),
		Day:           s.clock.day,
		Minutes:       s.clock.minutes,
		Clock:         formatClock(s.clock.minutes),
		Night:         !s.IsDay(),
		TintFactor:    s.TintFactor(),
		FarmProgress:  s.FarmProgress(),
		BuildProgress: s.BuildProgress(),
	}

	total, enemies := 0, 0
	s.objects.Each(func(o *Object) {
		total++
		if o.IsTurret() {
			enemies++
		}
		if len(snap.Objects) >= limits.MaxObjects {
			return
		}
		obj := ObjectSnapshot{
			ID:     o.handle.ID(),
			Kind:   o.kind.String(),
			Sprite: o.sprite.String(),
			Role:   o.role.String(),
			Pos:    o.pos,
			Radius: o.radius,
			Roll:   o.roll,
			Health: o.health,
			Tint:   o.tint,
		}
		if o.IsTurret() {
			obj.State = o.state.String()
		}
		snap.Objects = append(snap.Objects, obj)
	})
	snap.ObjectCount = total
	snap.EnemyCount = enemies

	if src, ok := s.effects.(particleSource); ok {
		for _, pt := range src.Particles() {
			if len(snap.Particles) >= limits.MaxParticles {
				break
			}
			snap.Particles = append(snap.Particles, ParticleSnapshot{
				Kind:  pt.Kind.String(),
				Pos:   pt.Pos,
				Scale: pt.Scale(),
				Alpha: pt.Alpha(),
				Tint:  pt.Tint,
			})
		}
	}
}
