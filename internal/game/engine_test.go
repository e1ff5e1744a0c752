package game

import (
	"strings"
	"sync"
	"testing"
	"time"

	"radio-survival/internal/config"
	"radio-survival/internal/world"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	m, err := world.Parse(strings.NewReader(spawnRoom), testTile)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	cfg := config.DefaultSim()
	cfg.Seed = 42
	return NewEngine(EngineConfig{Map: m, Sim: cfg, Layout: testLayout()})
}

// TestNewEngineDefaults verifies zero configs fall back to the defaults
func TestNewEngineDefaults(t *testing.T) {
	e := newTestEngine(t)

	if e.tickRate != 60 {
		t.Errorf("Expected 60 TPS, got %d", e.tickRate)
	}
	if e.GetLimits() != config.DefaultLimits() {
		t.Errorf("Expected default limits, got %+v", e.GetLimits())
	}
	snap := e.GetSnapshot()
	if snap.RunID != 1 || snap.State != "playing" {
		t.Errorf("Expected run 1 playing, got %d %s", snap.RunID, snap.State)
	}
	if snap.RNGSeed != 42 {
		t.Errorf("Expected seed 42, got %d", snap.RNGSeed)
	}
}

// TestEngineStartStop verifies the loop can start, stop and start again
func TestEngineStartStop(t *testing.T) {
	e := newTestEngine(t)

	e.Start()
	e.Start()
	if !e.Running() {
		t.Fatal("Expected running engine")
	}
	time.Sleep(50 * time.Millisecond)
	e.Stop()
	e.Stop()
	if e.Running() {
		t.Fatal("Expected stopped engine")
	}

	ticks := e.GetSnapshot().TickNumber
	if ticks == 0 {
		t.Error("Expected ticks while running")
	}

	e.Start()
	time.Sleep(50 * time.Millisecond)
	e.Stop()
	if e.GetSnapshot().TickNumber <= ticks {
		t.Error("Expected more ticks after restart")
	}
}

// TestEngineInputReachesPlayer verifies queued input is applied on tick
func TestEngineInputReachesPlayer(t *testing.T) {
	e := newTestEngine(t)
	before := e.sim.Player().Pos()

	if !e.PushInput(Input{Move: 1}) {
		t.Fatal("PushInput rejected")
	}
	e.tick()
	e.tick()

	if after := e.sim.Player().Pos(); after.Y <= before.Y {
		t.Errorf("Expected the player to move up, got %+v -> %+v", before, after)
	}
	// Move is a held control and survives the tick.
	if e.held.Move != 1 {
		t.Errorf("Expected held move, got %d", e.held.Move)
	}
}

// TestEngineTriggersLastOneTick verifies fire is cleared after use
func TestEngineTriggersLastOneTick(t *testing.T) {
	e := newTestEngine(t)

	e.PushInput(Input{Fire: true})
	e.tick()
	if e.held.Fire {
		t.Error("Fire trigger survived the tick")
	}
	if n := countKind(e.sim, KindBullet); n != 1 {
		t.Errorf("Expected one bullet, got %d", n)
	}
}

// TestEngineRestart verifies a new run replaces the current one
func TestEngineRestart(t *testing.T) {
	e := newTestEngine(t)
	e.PushInput(Input{Move: 1})
	e.tick()

	e.Restart()

	snap := e.GetSnapshot()
	if snap.RunID != 2 {
		t.Errorf("Expected run 2, got %d", snap.RunID)
	}
	if e.held.Move != 0 {
		t.Error("Restart kept held input")
	}
}

// TestEngineRunIDBase verifies numbering continues after recorded runs
func TestEngineRunIDBase(t *testing.T) {
	m, err := world.Parse(strings.NewReader(spawnRoom), testTile)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	e := NewEngine(EngineConfig{Map: m, Layout: testLayout(), RunIDBase: 40})

	if id := e.GetSnapshot().RunID; id != 41 {
		t.Errorf("Expected run 41, got %d", id)
	}
	e.Restart()
	if id := e.GetSnapshot().RunID; id != 42 {
		t.Errorf("Expected run 42 after restart, got %d", id)
	}
}

// TestEngineRunEndHandler verifies finished runs reach the listener
func TestEngineRunEndHandler(t *testing.T) {
	e := newTestEngine(t)

	var wg sync.WaitGroup
	wg.Add(1)
	var got RunRecord
	e.SetRunEndHandler(func(r RunRecord) {
		got = r
		wg.Done()
	})

	e.mu.Lock()
	e.sim.Player().SetHealth(0)
	e.mu.Unlock()
	e.tick()
	wg.Wait()

	if got.RunID != 1 || got.Outcome != "death" {
		t.Errorf("Expected run 1 death, got %+v", got)
	}
	if e.GetStats()["runsEnded"] != uint64(1) {
		t.Errorf("Expected one ended run, got %v", e.GetStats()["runsEnded"])
	}
}

// TestEngineTickObserver verifies the per-tick callback
func TestEngineTickObserver(t *testing.T) {
	e := newTestEngine(t)
	var calls, objects int
	e.SetTickObserver(func(_ time.Duration, n int) {
		calls++
		objects = n
	})

	e.tick()

	if calls != 1 || objects == 0 {
		t.Errorf("Expected one call with objects, got %d calls %d objects", calls, objects)
	}
}

// TestEngineSnapshotIsCopy verifies callers cannot corrupt later snapshots
func TestEngineSnapshotIsCopy(t *testing.T) {
	e := newTestEngine(t)
	snap := e.GetSnapshot()
	if len(snap.Objects) == 0 {
		t.Fatal("Expected objects in the snapshot")
	}
	snap.Objects[0].Kind = "corrupted"

	if e.GetSnapshot().Objects[0].Kind == "corrupted" {
		t.Error("Snapshot shares memory with the pool")
	}
}

// TestEngineStats verifies the stats endpoint keys
func TestEngineStats(t *testing.T) {
	e := newTestEngine(t)
	e.tick()

	stats := e.GetStats()
	for _, key := range []string{"running", "tickCount", "runId", "state", "day", "clock", "objects", "grid", "sounds"} {
		if _, ok := stats[key]; !ok {
			t.Errorf("Missing stats key %q", key)
		}
	}
	if stats["clock"] != "12:00 PM" {
		t.Errorf("Expected 12:00 PM, got %v", stats["clock"])
	}
}

// TestSnapshotLimits verifies snapshot slices are capped while counts are not
func TestSnapshotLimits(t *testing.T) {
	s := newTestSim(t, spawnRoom)
	s.advanceClock(12)

	limits := config.ResourceLimits{MaxObjects: 3, MaxParticles: 1}
	pool := NewSnapshotPool(limits)
	snap := pool.AcquireWrite()
	s.fillSnapshot(snap, limits)
	pool.PublishWrite()

	got := pool.AcquireRead()
	if len(got.Objects) != 3 {
		t.Errorf("Expected 3 objects, got %d", len(got.Objects))
	}
	if got.ObjectCount <= 3 {
		t.Errorf("Expected the full object count, got %d", got.ObjectCount)
	}
	if got.EnemyCount != 5 {
		t.Errorf("Expected 5 enemies, got %d", got.EnemyCount)
	}
	if !got.HUD.Night || got.HUD.Clock != "6:00 PM" {
		t.Errorf("Expected night at 6:00 PM, got night=%v %s", got.HUD.Night, got.HUD.Clock)
	}
}

// TestSnapshotPoolSequence verifies each write gets a new sequence
func TestSnapshotPoolSequence(t *testing.T) {
	pool := NewSnapshotPool(config.DefaultLimits())
	a := pool.AcquireWrite().Sequence
	pool.PublishWrite()
	b := pool.AcquireWrite().Sequence
	pool.PublishWrite()

	if b != a+1 || pool.AcquireRead().Sequence != b {
		t.Errorf("Expected sequences %d then %d, read %d", a, b, pool.AcquireRead().Sequence)
	}
}
