package game

import (
	"math"
	"testing"

	"radio-survival/internal/geom"
)

// TestZombieStateTransitions covers the whole transition table
func TestZombieStateTransitions(t *testing.T) {
	tests := []struct {
		from ZombieState
		ev   ZombieEvent
		want ZombieState
	}{
		{Wandering, TouchedMarker, Pursuing},
		{Wandering, Shot, Pursuing},
		{Wandering, Killed, Dead},
		{Pursuing, TouchedMarker, Pursuing},
		{Pursuing, Shot, Pursuing},
		{Pursuing, Killed, Dead},
		{Dead, TouchedMarker, Dead},
		{Dead, Shot, Dead},
		{Dead, Killed, Dead},
	}

	for _, tt := range tests {
		if got := tt.from.Next(tt.ev); got != tt.want {
			t.Errorf("%s after event %d = %s, want %s", tt.from, tt.ev, got, tt.want)
		}
	}
}

// TestZombieDiesAfterFourHits verifies health, sounds and the kill count
func TestZombieDiesAfterFourHits(t *testing.T) {
	s := newTestSim(t, openRoom)
	z := mustGet(t, s, s.objects.Create(KindZombie, geom.V(480, 160)))
	b := mustGet(t, s, s.objects.Create(KindBullet, geom.V(480, 170)))
	respond := behaviours[RoleZombie].respond

	for hit := 1; hit <= 3; hit++ {
		respond(s, z, geom.V(0, -1), 0, b)
		if z.health != 4-hit || z.dead {
			t.Fatalf("After hit %d: health %d dead %v", hit, z.health, z.dead)
		}
		if z.state != Pursuing {
			t.Errorf("Expected pursuing after being shot, got %s", z.state)
		}
	}
	if z.tint == White {
		t.Error("Expected damage tint on a hurt zombie")
	}

	respond(s, z, geom.V(0, -1), 0, b)
	if !z.dead || z.state != Dead {
		t.Fatalf("Expected dead zombie, got dead=%v state=%s", z.dead, z.state)
	}
	if s.Kills() != 1 {
		t.Errorf("Expected 1 kill, got %d", s.Kills())
	}

	f := s.effects.(*ParticleField)
	sounds := f.SoundCounts()
	if sounds["clang"] != 3 || sounds["boom"] != 1 {
		t.Errorf("Expected 3 clangs and 1 boom, got %v", sounds)
	}
	if len(f.Particles()) != 2 {
		t.Errorf("Expected smoke and spark on death, got %d particles", len(f.Particles()))
	}
}

// TestZombieIgnoresTurretFire verifies enemy bullets do no damage
func TestZombieIgnoresTurretFire(t *testing.T) {
	s := newTestSim(t, openRoom)
	z := mustGet(t, s, s.objects.Create(KindZombie, geom.V(480, 160)))
	b := mustGet(t, s, s.objects.Create(KindBullet2, geom.V(480, 170)))

	behaviours[RoleZombie].respond(s, z, geom.V(0, -1), 2, b)

	if z.health != 4 || z.state != Wandering {
		t.Errorf("Expected untouched zombie, got health %d state %s", z.health, z.state)
	}
	if z.pos != geom.V(480, 158) {
		t.Errorf("Expected overlap pushback to (480, 158), got %+v", z.pos)
	}
}

// TestZombieNoticesMarker verifies the marker starts a pursuit without a push
func TestZombieNoticesMarker(t *testing.T) {
	s := newTestSim(t, openRoom)
	z := mustGet(t, s, s.objects.Create(KindZombie, geom.V(480, 160)))
	marker := mustGet(t, s, s.Marker())

	behaviours[RoleZombie].respond(s, z, geom.V(1, 0), 50, marker)

	if z.state != Pursuing {
		t.Errorf("Expected pursuing, got %s", z.state)
	}
	if z.pos != geom.V(480, 160) {
		t.Errorf("Marker contact moved the zombie to %+v", z.pos)
	}
}

// TestZombiePursuesVisiblePlayer verifies one step toward the player
func TestZombiePursuesVisiblePlayer(t *testing.T) {
	s := newTestSim(t, openRoom)
	s.dt = 1.0 / 60
	z := mustGet(t, s, s.objects.Create(KindZombie, roomPlayer.Add(geom.V(100, 0))))
	z.state = Pursuing

	moveZombie(s, z)

	want := roomPlayer.Add(geom.V(100-s.cfg.ZombieStep, 0))
	if z.pos.Sub(want).Len() > 1e-9 {
		t.Errorf("Expected %+v, got %+v", want, z.pos)
	}
	if z.rotSpeed == 0 {
		t.Error("Expected the zombie to turn toward the player")
	}
}

// TestZombieWanders verifies an unalerted zombie follows its wander heading
func TestZombieWanders(t *testing.T) {
	s := newTestSim(t, openRoom)
	s.dt = 1.0 / 60
	start := geom.V(480, 160)
	z := mustGet(t, s, s.objects.Create(KindZombie, start))

	moveZombie(s, z)

	moved := z.pos.Sub(start)
	if math.Abs(moved.Len()-s.cfg.ZombieStep) > 1e-9 {
		t.Errorf("Expected a step of %v, got %v", s.cfg.ZombieStep, moved.Len())
	}
	if moved.X >= 0 || moved.Y <= 0 {
		t.Errorf("Expected up and to the left, got %+v", moved)
	}
}

// TestTurretFiresWhenLinedUp verifies the cooldown gates turret fire
func TestTurretFiresWhenLinedUp(t *testing.T) {
	s := newTestSim(t, openRoom)
	s.dt = 1.0 / 60
	turret := mustGet(t, s, s.objects.Create(KindTurret, roomPlayer.Add(geom.V(160, 0))))
	turret.roll = math.Pi

	moveTurret(s, turret)
	if n := countKind(s, KindBullet2); n != 1 {
		t.Fatalf("Expected one shot, got %d", n)
	}

	moveTurret(s, turret)
	if n := countKind(s, KindBullet2); n != 1 {
		t.Errorf("Fired during cooldown, %d shots", n)
	}

	s.now += s.cfg.TurretCooldown
	moveTurret(s, turret)
	if n := countKind(s, KindBullet2); n != 2 {
		t.Errorf("Expected second shot after cooldown, got %d", n)
	}
}

// TestTurretSpinsWithoutTarget verifies the idle sweep
func TestTurretSpinsWithoutTarget(t *testing.T) {
	s := newTestSim(t, openRoom)
	s.dt = 1.0 / 60
	turret := mustGet(t, s, s.objects.Create(KindTurret, geom.V(480, 160)))
	s.Player().SetHealth(0)

	moveTurret(s, turret)

	if turret.rotSpeed != turretIdleSpin || turret.roll == 0 {
		t.Errorf("Expected idle spin, got rotSpeed %v roll %v", turret.rotSpeed, turret.roll)
	}
	if countKind(s, KindBullet2) != 0 {
		t.Error("Turret fired with no target")
	}
}

// TestTurretDamage verifies only player bullets hurt turrets
func TestTurretDamage(t *testing.T) {
	tests := []struct {
		name   string
		bullet Kind
		want   int
	}{
		{"player bullet", KindBullet, 3},
		{"turret bullet", KindBullet2, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSim(t, openRoom)
			turret := mustGet(t, s, s.objects.Create(KindTurret, geom.V(480, 160)))
			b := mustGet(t, s, s.objects.Create(tt.bullet, geom.V(480, 170)))

			behaviours[RoleTurret].respond(s, turret, geom.V(0, -1), 2, b)

			if turret.health != tt.want {
				t.Errorf("Expected health %d, got %d", tt.want, turret.health)
			}
			if turret.pos != geom.V(480, 160) {
				t.Errorf("Static turret moved to %+v", turret.pos)
			}
		})
	}
}
