package game

import (
	"sync/atomic"

	"radio-survival/internal/geom"
)

// Sound identifies a one-shot sound effect.
type Sound uint8

const (
	SoundStart Sound = iota
	SoundBoom
	SoundClang
	SoundGrunt
	SoundGun
	SoundRicochet
	soundCount
)

var soundNames = [soundCount]string{"start", "boom", "clang", "grunt", "gun", "ricochet"}

func (s Sound) String() string {
	if s < soundCount {
		return soundNames[s]
	}
	return "unknown"
}

// ParticleKind selects a particle sprite.
type ParticleKind uint8

const (
	ParticleSpark ParticleKind = iota
	ParticleSmoke
)

func (k ParticleKind) String() string {
	if k == ParticleSmoke {
		return "smoke"
	}
	return "spark"
}

// ParticleDesc describes a particle to emit. Life is in seconds; the
// particle grows to MaxScale over its life.
type ParticleDesc struct {
	Kind     ParticleKind
	Pos      geom.Vec2
	Vel      geom.Vec2
	Life     float64
	MaxScale float64
	Tint     Tint
}

// EffectSink receives the simulation's audio and particle output. Sound
// playback and particle rendering live outside the simulation.
type EffectSink interface {
	PlaySound(Sound)
	EmitParticle(ParticleDesc)
}

// effectStepper is implemented by sinks that age their own particles.
type effectStepper interface {
	Step(dt float64)
}

// Particle is a live particle.
type Particle struct {
	ParticleDesc
	Age float64
}

// Scale returns the particle's current size factor.
func (p Particle) Scale() float64 {
	if p.Life <= 0 {
		return p.MaxScale
	}
	return p.MaxScale * p.Age / p.Life
}

// Alpha fades from 1 to 0 over the particle's life.
func (p Particle) Alpha() float64 {
	if p.Life <= 0 {
		return 0
	}
	a := 1 - p.Age/p.Life
	if a < 0 {
		return 0
	}
	return a
}

// ParticleField is the headless EffectSink: it keeps a bounded list of live
// particles for snapshots and counts sounds. It is only touched from the
// simulation goroutine, except for the sound counters.
type ParticleField struct {
	particles []Particle
	limit     int
	sounds    [soundCount]atomic.Uint64
}

// NewParticleField creates a field holding at most limit particles.
func NewParticleField(limit int) *ParticleField {
	if limit <= 0 {
		limit = 200
	}
	return &ParticleField{
		particles: make([]Particle, 0, limit),
		limit:     limit,
	}
}

// PlaySound counts the sound.
func (f *ParticleField) PlaySound(s Sound) {
	if s < soundCount {
		f.sounds[s].Add(1)
	}
}

// EmitParticle adds a particle, dropping the oldest when full.
func (f *ParticleField) EmitParticle(d ParticleDesc) {
	if len(f.particles) >= f.limit {
		copy(f.particles, f.particles[1:])
		f.particles = f.particles[:len(f.particles)-1]
	}
	f.particles = append(f.particles, Particle{ParticleDesc: d})
}

// Step ages particles and removes expired ones.
func (f *ParticleField) Step(dt float64) {
	n := 0
	for i := range f.particles {
		p := &f.particles[i]
		p.Age += dt
		if p.Age >= p.Life {
			continue
		}
		p.Pos = p.Pos.Add(p.Vel.Scale(dt))
		f.particles[n] = *p
		n++
	}
	f.particles = f.particles[:n]
}

// Particles returns the live particles. The slice is reused by Step.
func (f *ParticleField) Particles() []Particle {
	return f.particles
}

// Clear drops all particles.
func (f *ParticleField) Clear() {
	f.particles = f.particles[:0]
}

// SoundCounts returns how many times each sound has played.
func (f *ParticleField) SoundCounts() map[string]uint64 {
	out := make(map[string]uint64, soundCount)
	for i := range f.sounds {
		out[Sound(i).String()] = f.sounds[i].Load()
	}
	return out
}

// particleSource is implemented by sinks whose particles can be
// snapshotted.
type particleSource interface {
	Particles() []Particle
}
