// Package config provides centralized configuration management.
// All tunables for the world, the simulation rules, the server and storage
// live here; other packages receive them as plain structs.
package config

import (
	"os"
	"strconv"
	"strings"
)

// =============================================================================
// WORLD CONFIGURATION
// =============================================================================

// WorldConfig describes the level file and tile geometry.
type WorldConfig struct {
	MapPath  string
	TileSize float64 // World units per tile
}

// DefaultWorld returns the default world configuration.
func DefaultWorld() WorldConfig {
	return WorldConfig{
		MapPath:  "assets/levels/level1.txt",
		TileSize: 64,
	}
}

// WorldFromEnv returns world configuration with environment variable overrides.
func WorldFromEnv() WorldConfig {
	cfg := DefaultWorld()

	if p := os.Getenv("MAP_PATH"); p != "" {
		cfg.MapPath = p
	}
	if ts := getEnvFloat("TILE_SIZE", 0); ts > 0 {
		cfg.TileSize = ts
	}

	return cfg
}

// =============================================================================
// SPRITE SIZES
// =============================================================================

// SpriteConfig holds sprite widths in world units. An object's collision
// radius is half its sprite width.
type SpriteConfig struct {
	Player     float64
	Zombie     float64
	Turret     float64
	Bullet     float64
	House      float64
	Shop       float64
	Tree       float64
	RadioTower float64
	Part       float64 // Battery, antenna and logic board
	Activity   float64 // Proximity marker that follows the player
	Default    float64
}

// DefaultSprites returns the default sprite sizes.
func DefaultSprites() SpriteConfig {
	return SpriteConfig{
		Player:     48,
		Zombie:     48,
		Turret:     56,
		Bullet:     8,
		House:      192,
		Shop:       160,
		Tree:       96,
		RadioTower: 128,
		Part:       32,
		Activity:   640,
		Default:    32,
	}
}

// =============================================================================
// SIMULATION RULES
// =============================================================================

// SimConfig holds the gameplay constants of the simulation.
type SimConfig struct {
	TickRate int   // Simulation steps per second
	Seed     int64 // RNG seed, 0 picks one from the clock

	// Player
	PlayerMaxHealth   int
	EnemyDamage       int     // Health lost per enemy contact
	PlayerKnockback   float64 // Impulse applied on enemy contact
	KnockbackFraction float64 // Fraction of knockback applied and removed per step
	MoveSpeed         float64 // Base forward speed before the speed multiplier
	SpeedMultiplier   float64
	RotMultiplier     float64
	StrafeSpeed       float64 // Units per second, halved when walking
	SpriteToggle      int     // Steps between walk-cycle sprite swaps
	MaxHunger         int

	// Zombie
	ZombieMaxHealth int
	ZombieKnockback float64
	ZombieStep      float64 // Units moved toward the target per step
	TrackDeadband   float64 // Radians
	TrackSpeed      float64

	// Turret
	TurretMaxHealth int
	TurretTrack     float64

	// Weapons
	BulletSpeed    float64
	BulletSpread   float64
	BulletLifetime float64 // Seconds
	ShotCooldown   float64 // Player, seconds
	TurretCooldown float64 // Seconds

	// Day cycle and survival
	ClockSpeed    float64 // Game minutes per real second
	StartZombies  int
	ZombiesPerDay int
	MaxZombies    int
	FarmTime      float64 // Seconds held in the farm zone per food
	BuildTime     float64 // Seconds held in the build zone
	EatCooldown   float64
	EatHeal       int
	RestartDelay  float64 // Seconds before a new run after death or victory
	ParticleLimit int
}

// DefaultSim returns the default simulation rules.
func DefaultSim() SimConfig {
	return SimConfig{
		TickRate: 60,

		PlayerMaxHealth:   12,
		EnemyDamage:       3,
		PlayerKnockback:   50,
		KnockbackFraction: 0.1,
		MoveSpeed:         35,
		SpeedMultiplier:   10,
		RotMultiplier:     5,
		StrafeSpeed:       360,
		SpriteToggle:      25,
		MaxHunger:         3,

		ZombieMaxHealth: 4,
		ZombieKnockback: 25,
		ZombieStep:      1.0,
		TrackDeadband:   0.05,
		TrackSpeed:      2,

		TurretMaxHealth: 4,
		TurretTrack:     1,

		BulletSpeed:    450,
		BulletSpread:   0.01,
		BulletLifetime: 3,
		ShotCooldown:   0.35,
		TurretCooldown: 1,

		ClockSpeed:    30,
		StartZombies:  6,
		ZombiesPerDay: 10,
		MaxZombies:    70,
		FarmTime:      5,
		BuildTime:     5,
		EatCooldown:   0.5,
		EatHeal:       3,
		RestartDelay:  3,
		ParticleLimit: 200,
	}
}

// SimFromEnv returns simulation configuration with environment variable overrides.
func SimFromEnv() SimConfig {
	cfg := DefaultSim()

	if tr := getEnvInt("TICK_RATE", 0); tr > 0 {
		cfg.TickRate = tr
	}
	if s := getEnvInt("SIM_SEED", 0); s != 0 {
		cfg.Seed = int64(s)
	}
	if cs := getEnvFloat("CLOCK_SPEED", 0); cs > 0 {
		cfg.ClockSpeed = cs
	}
	if mz := getEnvInt("MAX_ZOMBIES", 0); mz > 0 {
		cfg.MaxZombies = mz
	}

	return cfg
}

// =============================================================================
// WINDOW CONFIGURATION
// =============================================================================

// WindowConfig is the viewport the camera keeps inside the world.
type WindowConfig struct {
	Width  float64
	Height float64
}

// DefaultWindow returns the default viewport size.
func DefaultWindow() WindowConfig {
	return WindowConfig{Width: 1920, Height: 1080}
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         int
	CORSOrigins  []string
	RequestsPerS float64
	Burst        int
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:         3000,
		RequestsPerS: 10,
		Burst:        20,
	}
}

// ServerFromEnv returns server configuration with environment variable overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if o := os.Getenv("CORS_ORIGINS"); o != "" {
		cfg.CORSOrigins = strings.Split(o, ",")
	}
	if rps := getEnvFloat("RATE_LIMIT_RPS", 0); rps > 0 {
		cfg.RequestsPerS = rps
	}
	if b := getEnvInt("RATE_LIMIT_BURST", 0); b > 0 {
		cfg.Burst = b
	}

	return cfg
}

// =============================================================================
// RESOURCE LIMITS
// =============================================================================

// ResourceLimits caps what a snapshot carries and how much input is queued.
type ResourceLimits struct {
	MaxObjects   int // Objects copied into a snapshot
	MaxParticles int // Particles copied into a snapshot
	InputQueue   int // Pending input commands
	MaxWSClients int
}

// DefaultLimits returns the default resource limits.
func DefaultLimits() ResourceLimits {
	return ResourceLimits{
		MaxObjects:   512,
		MaxParticles: 200,
		InputQueue:   256,
		MaxWSClients: 64,
	}
}

// =============================================================================
// STORAGE CONFIGURATION
// =============================================================================

// StorageConfig selects where finished runs are recorded. A non-empty
// DatabaseURL selects PostgreSQL; otherwise runs go to a JSON file.
type StorageConfig struct {
	DatabaseURL string
	JSONPath    string
}

// DefaultStorage returns the default storage configuration.
func DefaultStorage() StorageConfig {
	return StorageConfig{
		JSONPath: "data/runs.json",
	}
}

// StorageFromEnv returns storage configuration with environment variable overrides.
func StorageFromEnv() StorageConfig {
	cfg := DefaultStorage()

	if u := os.Getenv("DATABASE_URL"); u != "" {
		cfg.DatabaseURL = u
	}
	if p := os.Getenv("RUNS_PATH"); p != "" {
		cfg.JSONPath = p
	}

	return cfg
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	World   WorldConfig
	Sprites SpriteConfig
	Sim     SimConfig
	Window  WindowConfig
	Server  ServerConfig
	Limits  ResourceLimits
	Storage StorageConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		World:   WorldFromEnv(),
		Sprites: DefaultSprites(),
		Sim:     SimFromEnv(),
		Window:  DefaultWindow(),
		Server:  ServerFromEnv(),
		Limits:  DefaultLimits(),
		Storage: StorageFromEnv(),
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
