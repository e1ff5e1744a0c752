package game

import (
	"fmt"
	"math"

	"radio-survival/internal/config"
	"radio-survival/internal/geom"
)

// Layout places the level's interaction zones and radio part drops. The
// defaults match level1.
type Layout struct {
	FarmZone   geom.AABB   `json:"farmZone"`
	BuildZone  geom.AABB   `json:"buildZone"`
	LeaveZone  geom.AABB   `json:"leaveZone"`
	PartSpawns []geom.Vec2 `json:"partSpawns"`
}

// DefaultLayout returns the zones of the bundled level.
func DefaultLayout() Layout {
	return Layout{
		FarmZone:  geom.AABB{Min: geom.V(2119, 330), Max: geom.V(2333, 570)},
		BuildZone: geom.AABB{Min: geom.V(1396, 359), Max: geom.V(1496, 504)},
		LeaveZone: geom.AABB{Min: geom.V(962, 1172), Max: geom.V(1047, 1191)},
		PartSpawns: []geom.Vec2{
			{X: 782, Y: 774},
			{X: 242, Y: 1014},
			{X: 2645, Y: 281},
			{X: 2719, Y: 986},
			{X: 1935, Y: 1189},
			{X: 2762, Y: 1202},
			{X: 200, Y: 200},
		},
	}
}

const (
	minutesPerDay = 24 * 60
	startMinutes  = 12 * 60 // Runs start at noon
	dayStart      = 6*60 + 1
	dayEnd        = 17*60 + 59
	clearMinute   = 5 * 60 // Uncollected parts vanish at 5:00 AM
)

// clockState is the in-game clock and the spawn bookkeeping tied to it.
type clockState struct {
	elapsed      float64 // Seconds since the run started
	minutes      int     // Minutes since midnight
	day          int
	zombieCount  int
	nightSpawned bool
}

func newClockState(cfg config.SimConfig) clockState {
	return clockState{
		minutes:     startMinutes,
		zombieCount: cfg.StartZombies,
	}
}

// gameMinutes converts run time into minutes since midnight.
func gameMinutes(elapsed, speed float64) int {
	return (int(elapsed*speed) + startMinutes) % minutesPerDay
}

// isDay reports whether minutes falls in the 6:01 AM to 5:59 PM window.
func isDay(minutes int) bool {
	return minutes >= dayStart && minutes <= dayEnd
}

// IsDay reports whether it is currently daytime.
func (s *Sim) IsDay() bool { return isDay(s.clock.minutes) }

// advanceClock moves the clock forward and runs the rules tied to each
// minute crossed: midnight advances the day and drops the next radio part,
// 5:00 AM clears uncollected parts, and the first night minute spawns the
// enemies.
func (s *Sim) advanceClock(dt float64) {
	c := &s.clock
	c.elapsed += dt
	next := gameMinutes(c.elapsed, s.cfg.ClockSpeed)

	crossed := (next - c.minutes + minutesPerDay) % minutesPerDay
	for i := 1; i <= crossed; i++ {
		m := (c.minutes + i) % minutesPerDay
		switch m {
		case 0:
			c.day++
			c.zombieCount += s.cfg.ZombiesPerDay
			if c.zombieCount > s.cfg.MaxZombies {
				c.zombieCount = s.cfg.MaxZombies
			}
			s.spawnPart()
		case clearMinute:
			s.objects.ClearRadios()
		}
	}
	c.minutes = next

	if isDay(c.minutes) {
		c.nightSpawned = false
	} else if !c.nightSpawned {
		c.nightSpawned = true
		s.spawnNight()
	}
}

// spawnPart drops the next radio part in sequence: battery, then antenna,
// then logic board.
func (s *Sim) spawnPart() {
	var kind Kind
	switch {
	case !s.parts.Battery:
		kind = KindBattery
	case !s.parts.Antenna:
		kind = KindAntenna
	case !s.parts.LogicBoard:
		kind = KindLogicBoard
	default:
		return
	}
	if s.radioOn || len(s.layout.PartSpawns) == 0 {
		return
	}
	at := s.layout.PartSpawns[s.rng.Intn(len(s.layout.PartSpawns))]
	s.objects.Create(kind, at)
}

// spawnNight places zombieCount zombies and as many turrets at shuffled
// map spawn points.
func (s *Sim) spawnNight() {
	sp := s.world.Objects()
	s.spawnAt(KindZombie, sp.Zombies)
	s.spawnAt(KindTurret, sp.Turrets)
}

func (s *Sim) spawnAt(kind Kind, points []geom.Vec2) {
	s.rng.Shuffle(len(points), func(i, j int) {
		points[i], points[j] = points[j], points[i]
	})
	n := s.clock.zombieCount
	if n > len(points) {
		n = len(points)
	}
	for _, p := range points[:n] {
		s.objects.Create(kind, p)
	}
}

// updateZones runs the held and triggered zone actions: farming food,
// eating, building the radio and calling for help.
func (s *Sim) updateZones(dt float64, in Input) {
	p := s.Player()
	if !p.Alive() {
		s.farmTimer, s.buildTimer = 0, 0
		return
	}
	pos := p.Pos()

	if in.Farm && s.IsDay() && s.layout.FarmZone.ContainsPoint(pos) {
		s.farmTimer += dt
		if s.farmTimer >= s.cfg.FarmTime {
			s.farmTimer = 0
			p.SetHungerCount(p.HungerCount() + 1)
		}
	} else {
		s.farmTimer = 0
	}

	if in.Eat && p.Health() < p.MaxHealth() && p.HungerCount() > 0 &&
		s.eat.AllowN(s.Clock(), 1) {
		p.SetHealth(p.Health() + s.cfg.EatHeal)
		p.SetHungerCount(p.HungerCount() - 1)
	}

	if in.Build && s.parts.All() && !s.radioOn && s.layout.BuildZone.ContainsPoint(pos) {
		s.buildTimer += dt
		if s.buildTimer >= s.cfg.BuildTime {
			s.buildTimer = 0
			s.radioOn = true
			s.parts = Parts{}
			s.emit(EventTypeRadioBuilt, KindPlayer.String(), RadioBuiltPayload{
				Day:     s.clock.day,
				Minutes: s.clock.minutes,
			})
		}
	} else {
		s.buildTimer = 0
	}

	if in.Leave && s.CanLeave() {
		s.help = true
	}
}

// CanLeave reports whether the radio is on and the player stands in the
// leave zone.
func (s *Sim) CanLeave() bool {
	p := s.Player()
	return s.radioOn && p.Alive() && s.layout.LeaveZone.ContainsPoint(p.Pos())
}

// DarkCyan is the night colour the world is tinted toward.
var DarkCyan = Tint{0, 0.545, 0.545}

// TintFactor is 0 during the day, 1 at night and 0.5 during the 5 AM and
// 5 PM hours.
func (s *Sim) TintFactor() float64 {
	return tintFactor(s.clock.minutes)
}

func tintFactor(minutes int) float64 {
	hour := minutes / 60
	switch {
	case hour == 17 || hour == 5:
		return 0.5
	case isDay(minutes):
		return 0
	default:
		return 1
	}
}

// WorldTint lerps white toward dark cyan by the current tint factor.
func (s *Sim) WorldTint() Tint {
	return lerpTint(White, DarkCyan, s.TintFactor())
}

func lerpTint(a, b Tint, t float64) Tint {
	t = math.Max(0, math.Min(1, t))
	return Tint{
		R: a.R + (b.R-a.R)*t,
		G: a.G + (b.G-a.G)*t,
		B: a.B + (b.B-a.B)*t,
	}
}

// ClockString formats the current game time, e.g. "6:05 PM".
func (s *Sim) ClockString() string {
	return formatClock(s.clock.minutes)
}

func formatClock(minutes int) string {
	h := minutes / 60
	m := minutes % 60
	suffix := "AM"
	if h >= 12 {
		suffix = "PM"
	}
	h %= 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%d:%02d %s", h, m, suffix)
}
