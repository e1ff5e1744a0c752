package game

import (
	"log"
	"sync"
	"time"

	"radio-survival/internal/config"
	"radio-survival/internal/world"
)

// EngineConfig wires an Engine. Zero-valued configs fall back to the
// defaults in package config.
type EngineConfig struct {
	Map     *world.Map
	Sim     config.SimConfig
	Sprites config.SpriteConfig
	Window  config.WindowConfig
	Limits  config.ResourceLimits
	Layout  Layout
	Effects EffectSink // Defaults to a ParticleField

	RunIDBase uint64 // Last run ID already recorded
}

// Engine runs the simulation on a fixed-rate ticker. API handlers feed it
// input through a bounded queue and read immutable snapshots back.
type Engine struct {
	mu  sync.RWMutex
	sim *Sim

	input *InputQueue
	held  Input // Controls carried between ticks

	tickRate int
	running  bool
	ticker   *time.Ticker
	stopChan chan struct{}
	done     chan struct{}

	tickCount uint64
	runsEnded uint64

	limits       config.ResourceLimits
	snapshotPool *SnapshotPool
	eventLog     *EventLog

	onRunEnd func(RunRecord)
	onTick   func(elapsed time.Duration, objects int)
}

// NewEngine creates an engine and starts the first run. It does not start
// ticking; call Start.
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.Sim.TickRate <= 0 {
		cfg.Sim = config.DefaultSim()
	}
	if cfg.Sprites == (config.SpriteConfig{}) {
		cfg.Sprites = config.DefaultSprites()
	}
	if cfg.Window == (config.WindowConfig{}) {
		cfg.Window = config.DefaultWindow()
	}
	if cfg.Limits == (config.ResourceLimits{}) {
		cfg.Limits = config.DefaultLimits()
	}
	if cfg.Layout.PartSpawns == nil {
		cfg.Layout = DefaultLayout()
	}

	e := &Engine{
		input:        NewInputQueue(cfg.Limits.InputQueue),
		tickRate:     cfg.Sim.TickRate,
		limits:       cfg.Limits,
		snapshotPool: NewSnapshotPool(cfg.Limits),
		eventLog:     NewEventLog(),
	}

	e.sim = NewSim(cfg.Map, SimOptions{
		Sim:       cfg.Sim,
		Sprites:   cfg.Sprites,
		Window:    cfg.Window,
		Layout:    cfg.Layout,
		Effects:   cfg.Effects,
		RunIDBase: cfg.RunIDBase,
	})
	e.sim.SetEventHook(func(t EventType, source string, payload interface{}) {
		e.eventLog.EmitSimple(t, e.tickCount, source, payload)
	})
	e.sim.SetRunEndHook(e.runEnded)

	e.produceSnapshot()
	return e
}

// Start begins the game loop
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.stopChan = make(chan struct{})
	e.done = make(chan struct{})
	e.ticker = time.NewTicker(time.Second / time.Duration(e.tickRate))
	ticker, stop, done := e.ticker, e.stopChan, e.done
	e.mu.Unlock()

	go func() {
		defer close(done)
		for {
			select {
			case <-ticker.C:
				e.tick()
			case <-stop:
				return
			}
		}
	}()

	log.Printf("🎮 Game engine started at %d TPS", e.tickRate)
}

// Stop stops the game loop and waits for the current tick to finish. It is
// safe to call more than once.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	e.ticker.Stop()
	close(e.stopChan)
	done := e.done
	e.mu.Unlock()

	<-done
	log.Println("🛑 Game engine stopped")
}

// Running reports whether the game loop is active.
func (e *Engine) Running() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.running
}

// tick is called at tickRate times per second
func (e *Engine) tick() {
	start := time.Now()

	e.mu.Lock()
	e.tickCount++
	dt := 1.0 / float64(e.tickRate)

	e.eventLog.EmitSimple(EventTypeTick, e.tickCount, "",
		TickPayload{
			RNGSeed:     e.sim.seed,
			ObjectCount: len(e.sim.objects.live),
			DeltaTimeNs: int64(dt * 1e9),
		})

	e.input.DrainInto(&e.held)
	e.sim.Step(dt, e.held)
	e.held.ClearTriggers()

	e.produceSnapshot()
	objects := e.sim.objects.Count()
	onTick := e.onTick
	e.mu.Unlock()

	if onTick != nil {
		onTick(time.Since(start), objects)
	}
}

// produceSnapshot publishes the current state. Callers hold e.mu.
func (e *Engine) produceSnapshot() {
	snap := e.snapshotPool.AcquireWrite()
	snap.TickNumber = e.tickCount
	e.sim.fillSnapshot(snap, e.limits)
	e.snapshotPool.PublishWrite()
}

// runEnded is called from inside a tick. Listeners run on their own
// goroutine so storage never stalls the loop.
func (e *Engine) runEnded(rec RunRecord) {
	e.runsEnded++
	log.Printf("👋 Run %d ended: %s after %d days, %d kills", rec.RunID, rec.Outcome, rec.Days, rec.Kills)
	if fn := e.onRunEnd; fn != nil {
		go fn(rec)
	}
}

// PushInput queues a player command for the next tick. It returns false if
// the queue is full.
func (e *Engine) PushInput(in Input) bool {
	return e.input.Push(in)
}

// Restart abandons the current run and starts a new one.
func (e *Engine) Restart() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.held = Input{}
	e.sim.BeginGame()
	e.produceSnapshot()
	log.Printf("🎮 Run %d started", e.sim.runID)
}

// GetSnapshot returns a copy of the latest published snapshot.
func (e *Engine) GetSnapshot() GameSnapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshotPool.AcquireRead().Clone()
}

// GetStats returns engine counters for the stats endpoint.
func (e *Engine) GetStats() map[string]interface{} {
	e.mu.RLock()
	defer e.mu.RUnlock()

	s := e.sim
	stats := map[string]interface{}{
		"running":      e.running,
		"tickRate":     e.tickRate,
		"tickCount":    e.tickCount,
		"runId":        s.runID,
		"runsEnded":    e.runsEnded,
		"state":        s.state.String(),
		"day":          s.clock.day,
		"clock":        formatClock(s.clock.minutes),
		"zombieCount":  s.clock.zombieCount,
		"objects":      s.objects.Count(),
		"enemies":      s.objects.NumTurrets(),
		"kills":        s.kills,
		"inputQueued":  e.input.Len(),
		"inputDropped": e.input.Dropped(),
		"grid":         s.objects.GridStats(),
	}
	if f, ok := s.effects.(*ParticleField); ok {
		stats["sounds"] = f.SoundCounts()
		stats["particles"] = len(f.Particles())
	}
	return stats
}

// Map returns the level the engine runs on. The map is read-only.
func (e *Engine) Map() *world.Map {
	return e.sim.world
}

// Layout returns the level's zones.
func (e *Engine) Layout() Layout {
	return e.sim.layout
}

// SetRunEndHandler installs a listener for finished runs.
func (e *Engine) SetRunEndHandler(fn func(RunRecord)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onRunEnd = fn
}

// SetTickObserver installs a callback run after every tick with the tick's
// duration and the live object count.
func (e *Engine) SetTickObserver(fn func(elapsed time.Duration, objects int)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onTick = fn
}

// StartEventLog starts the event log, appending JSONL to filePath.
func (e *Engine) StartEventLog(filePath string) error {
	return e.eventLog.Start(filePath)
}

// StopEventLog gracefully stops the event logging system
func (e *Engine) StopEventLog() {
	e.eventLog.Stop()
}

// GetEventLogStats returns event log statistics for monitoring
func (e *Engine) GetEventLogStats() map[string]interface{} {
	return e.eventLog.GetStats()
}

// EventLogCounts returns the event log's accepted and dropped totals.
func (e *Engine) EventLogCounts() (total, dropped uint64) {
	return e.eventLog.GetTotalCount(), e.eventLog.GetDroppedCount()
}

// InputDropped returns how many commands the full input queue refused.
func (e *Engine) InputDropped() uint64 {
	return e.input.Dropped()
}

// GetLimits returns the current resource limits
func (e *Engine) GetLimits() config.ResourceLimits {
	return e.limits
}
