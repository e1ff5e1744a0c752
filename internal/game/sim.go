package game

import (
	"math/rand"
	"time"

	"radio-survival/internal/config"
	"radio-survival/internal/geom"
	"radio-survival/internal/world"

	"golang.org/x/time/rate"
)

// GameState is the level's top-level state.
type GameState uint8

const (
	StatePlaying GameState = iota
	StateWaiting           // Player dead, waiting to restart
	StateVictory           // Help called, waiting to restart
)

func (s GameState) String() string {
	switch s {
	case StatePlaying:
		return "playing"
	case StateWaiting:
		return "waiting"
	case StateVictory:
		return "victory"
	default:
		return "unknown"
	}
}

// Parts tracks which radio parts the player has collected.
type Parts struct {
	Battery    bool `json:"battery" msgpack:"battery"`
	Antenna    bool `json:"antenna" msgpack:"antenna"`
	LogicBoard bool `json:"logicBoard" msgpack:"logicBoard"`
}

// All reports whether every part is collected.
func (p Parts) All() bool { return p.Battery && p.Antenna && p.LogicBoard }

// Count returns how many parts are collected.
func (p Parts) Count() int {
	n := 0
	for _, b := range []bool{p.Battery, p.Antenna, p.LogicBoard} {
		if b {
			n++
		}
	}
	return n
}

// RunRecord summarizes a finished run.
type RunRecord struct {
	RunID    uint64    `json:"runId"`
	Outcome  string    `json:"outcome"` // "death" or "victory"
	Days     int       `json:"days"`
	Kills    int       `json:"kills"`
	Parts    int       `json:"parts"`
	Duration float64   `json:"duration"` // Seconds of simulation time
	EndedAt  time.Time `json:"endedAt"`
}

// SimOptions configures a Sim.
type SimOptions struct {
	Sim     config.SimConfig
	Sprites config.SpriteConfig
	Window  config.WindowConfig
	Layout  Layout
	Effects EffectSink // Defaults to a ParticleField
	Seed    int64      // 0 uses Sim.Seed, then the clock

	// RunIDBase numbers runs from RunIDBase+1, so IDs stay unique across
	// restarts of a process that records runs.
	RunIDBase uint64
}

// Sim is the simulation context: the map, the objects, the effects sink,
// the random source and every piece of per-run state. It is not safe for
// concurrent use; Engine serializes access.
type Sim struct {
	cfg     config.SimConfig
	sprites config.SpriteConfig
	window  config.WindowConfig
	layout  Layout

	world   *world.Map
	objects *Manager
	effects EffectSink
	rng     *rand.Rand
	seed    int64

	dt    float64
	now   float64 // Seconds since NewSim
	epoch time.Time

	player Handle
	marker Handle

	clock   clockState
	parts   Parts
	radioOn bool
	help    bool

	farmTimer  float64
	buildTimer float64
	shot       *rate.Limiter
	eat        *rate.Limiter

	camera     geom.Vec2
	state      GameState
	stateTimer float64

	runID    uint64
	runStart float64
	kills    int

	onEvent  func(t EventType, source string, payload interface{})
	onRunEnd func(RunRecord)
}

// NewSim creates a simulation over m and starts the first run.
func NewSim(m *world.Map, opts SimOptions) *Sim {
	seed := opts.Seed
	if seed == 0 {
		seed = opts.Sim.Seed
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	effects := opts.Effects
	if effects == nil {
		effects = NewParticleField(opts.Sim.ParticleLimit)
	}

	s := &Sim{
		cfg:     opts.Sim,
		sprites: opts.Sprites,
		window:  opts.Window,
		layout:  opts.Layout,
		world:   m,
		effects: effects,
		rng:     rand.New(rand.NewSource(seed)),
		seed:    seed,
		epoch:   time.Unix(0, 0),
		runID:   opts.RunIDBase,
	}

	size := m.WorldSize()
	cell := 2 * opts.Sprites.Turret
	s.objects = newManager(s, size.X, size.Y, cell, 256)

	s.BeginGame()
	return s
}

// Clock returns the simulation time as a wall-clock instant, for rate
// limiters that gate on simulated seconds.
func (s *Sim) Clock() time.Time {
	return s.epoch.Add(time.Duration(s.now * float64(time.Second)))
}

// Step advances the simulation by dt seconds under the given input.
func (s *Sim) Step(dt float64, in Input) {
	s.dt = dt
	s.now += dt

	if s.state == StatePlaying {
		s.applyInput(in)
	}

	s.objects.Step()
	s.followCamera()

	if st, ok := s.effects.(effectStepper); ok {
		st.Step(dt)
	}

	if s.state == StatePlaying {
		s.advanceClock(dt)
		s.updateZones(dt, in)
	}

	s.updateState(dt)
}

// BeginGame clears the level and starts a new run.
func (s *Sim) BeginGame() {
	s.objects.Clear()
	if c, ok := s.effects.(interface{ Clear() }); ok {
		c.Clear()
	}

	s.clock = newClockState(s.cfg)
	s.parts = Parts{}
	s.radioOn = false
	s.help = false
	s.farmTimer = 0
	s.buildTimer = 0
	s.kills = 0
	s.shot = rate.NewLimiter(rate.Every(seconds(s.cfg.ShotCooldown)), 1)
	s.eat = rate.NewLimiter(rate.Every(seconds(s.cfg.EatCooldown)), 1)

	sp := s.world.Objects()
	s.objects.Create(KindPlayer, sp.Player)
	s.objects.Create(KindActivity, sp.Activity)
	s.objects.Create(KindHouse, sp.House)
	s.objects.Create(KindShop, sp.Shop)
	s.objects.Create(KindRadioTower, sp.RadioTower)
	for _, p := range sp.Trees {
		s.objects.Create(KindTree, p)
	}

	s.runID++
	s.runStart = s.now
	s.setState(StatePlaying)
	s.effects.PlaySound(SoundStart)
	s.followCamera()
}

func seconds(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}

// applyInput maps a command onto the player, the marker and the gun.
func (s *Sim) applyInput(in Input) {
	p := s.Player()
	if !p.Alive() {
		return
	}

	if in.Aim != nil {
		p.SetRotation(*in.Aim)
	}

	switch in.Move {
	case 1, -1:
		speed := s.cfg.MoveSpeed
		if in.Walk {
			speed *= 0.5
		}
		p.SetSpeed(float64(in.Move) * speed)
		s.UpdateActivity()
	default:
		p.SetSpeed(0)
		s.HideActivity()
	}

	if in.StrafeLeft || in.StrafeRight {
		p.SetWalking(in.Walk)
		if in.StrafeRight {
			p.StrafeRight()
		} else {
			p.StrafeLeft()
		}
		s.UpdateActivity()
	}

	if in.Fire && s.shot.AllowN(s.Clock(), 1) {
		s.objects.FireGun(s.player, KindBullet)
		s.UpdateActivity()
	}
}

// UpdateActivity moves the proximity marker onto the player.
func (s *Sim) UpdateActivity() {
	m, ok := s.objects.Get(s.marker)
	if !ok {
		return
	}
	if p, ok := s.objects.Get(s.player); ok {
		m.pos = p.pos
	}
}

// hiddenActivity is where the marker waits while the player is still.
var hiddenActivity = geom.V(-1000, -1000)

// HideActivity moves the proximity marker out of the world.
func (s *Sim) HideActivity() {
	if m, ok := s.objects.Get(s.marker); ok {
		m.pos = hiddenActivity
	}
}

// followCamera centres the camera on the player, keeping the window inside
// the world. On an axis where the world is smaller than the window the
// camera stays at the world's centre.
func (s *Sim) followCamera() {
	p, ok := s.objects.Get(s.player)
	if !ok || p.dead {
		return
	}
	size := s.world.WorldSize()
	s.camera = geom.V(
		cameraAxis(p.pos.X, size.X, s.window.Width),
		cameraAxis(p.pos.Y, size.Y, s.window.Height),
	)
}

func cameraAxis(target, world, window float64) float64 {
	if world <= window {
		return world / 2
	}
	lo, hi := window/2, world-window/2
	if target < lo {
		return lo
	}
	if target > hi {
		return hi
	}
	return target
}

// collect records a radio part picked up by the player and removes every
// part from the world.
func (s *Sim) collect(part *Object) {
	switch part.kind {
	case KindBattery:
		s.parts.Battery = true
	case KindAntenna:
		s.parts.Antenna = true
	case KindLogicBoard:
		s.parts.LogicBoard = true
	}
	s.objects.ClearRadios()
	s.emit(EventTypePickup, part.kind.String(), PickupPayload{
		Part:      part.kind.String(),
		Collected: s.parts.Count(),
	})
}

func (s *Sim) emit(t EventType, source string, payload interface{}) {
	if s.onEvent != nil {
		s.onEvent(t, source, payload)
	}
}

func (s *Sim) setState(next GameState) {
	prev := s.state
	s.state = next
	s.stateTimer = 0
	s.emit(EventTypeStateChange, "", StateChangePayload{From: prev.String(), To: next.String()})
}

// updateState ends the run when the player dies or calls for help, and
// restarts the level after the configured delay.
func (s *Sim) updateState(dt float64) {
	switch s.state {
	case StatePlaying:
		switch {
		case s.help:
			s.endRun("victory")
			s.setState(StateVictory)
		case !s.Player().Alive():
			s.endRun("death")
			s.parts = Parts{}
			s.radioOn = false
			s.setState(StateWaiting)
		}

	case StateWaiting, StateVictory:
		s.stateTimer += dt
		if s.stateTimer >= s.cfg.RestartDelay {
			s.BeginGame()
		}
	}
}

func (s *Sim) endRun(outcome string) {
	rec := RunRecord{
		RunID:    s.runID,
		Outcome:  outcome,
		Days:     s.clock.day,
		Kills:    s.kills,
		Parts:    s.parts.Count(),
		Duration: s.now - s.runStart,
		EndedAt:  time.Now(),
	}
	s.emit(EventTypeRunEnd, "", RunEndPayload{
		RunID:   rec.RunID,
		Outcome: rec.Outcome,
		Days:    rec.Days,
		Kills:   rec.Kills,
	})
	if s.onRunEnd != nil {
		s.onRunEnd(rec)
	}
}

// SetEventHook installs a callback for simulation events.
func (s *Sim) SetEventHook(fn func(t EventType, source string, payload interface{})) {
	s.onEvent = fn
}

// SetRunEndHook installs a callback for finished runs.
func (s *Sim) SetRunEndHook(fn func(RunRecord)) {
	s.onRunEnd = fn
}

func (s *Sim) Objects() *Manager    { return s.objects }
func (s *Sim) Map() *world.Map       { return s.world }
func (s *Sim) Effects() EffectSink   { return s.effects }
func (s *Sim) State() GameState      { return s.state }
func (s *Sim) Parts() Parts          { return s.parts }
func (s *Sim) RadioOn() bool         { return s.radioOn }
func (s *Sim) Camera() geom.Vec2     { return s.camera }
func (s *Sim) RunID() uint64         { return s.runID }
func (s *Sim) Kills() int            { return s.kills }
func (s *Sim) Seed() int64           { return s.seed }
func (s *Sim) Marker() Handle        { return s.marker }
func (s *Sim) Layout() Layout        { return s.layout }
func (s *Sim) Day() int              { return s.clock.day }
func (s *Sim) Minutes() int          { return s.clock.minutes }
func (s *Sim) ZombieCount() int      { return s.clock.zombieCount }
func (s *Sim) FarmProgress() float64 { return progress(s.farmTimer, s.cfg.FarmTime) }
func (s *Sim) BuildProgress() float64 {
	return progress(s.buildTimer, s.cfg.BuildTime)
}

func progress(t, total float64) float64 {
	if total <= 0 {
		return 0
	}
	if t >= total {
		return 1
	}
	return t / total
}
