package main

import (
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"radio-survival/internal/api"
	"radio-survival/internal/config"
	"radio-survival/internal/game"
	"radio-survival/internal/persistence"
	"radio-survival/internal/render"
	"radio-survival/internal/world"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("💡 No .env file found, using environment variables only")
	} else {
		log.Println("✅ Loaded environment from .env")
	}

	log.Println("📻 ================================")
	log.Println("📻  RADIO SURVIVAL - GO ENGINE")
	log.Println("📻  Find the parts. Call for help.")
	log.Println("📻 ================================")

	appConfig := config.Load()

	level, err := world.Load(appConfig.World.MapPath, appConfig.World.TileSize)
	if err != nil {
		log.Fatalf("❌ Failed to load level: %v", err)
	}
	log.Printf("🗺️ Level %s: %dx%d tiles, %d wall boxes",
		appConfig.World.MapPath, level.Width(), level.Height(), len(level.Walls()))

	store, err := persistence.Open(appConfig.Storage)
	if err != nil {
		log.Fatalf("❌ Failed to open run storage: %v", err)
	}
	lastRun, err := store.LastRunID()
	if err != nil {
		log.Printf("⚠️ Could not read last run id, numbering from 1: %v", err)
		lastRun = 0
	}

	engine := game.NewEngine(game.EngineConfig{
		Map:       level,
		Sim:       appConfig.Sim,
		Sprites:   appConfig.Sprites,
		Window:    appConfig.Window,
		Limits:    appConfig.Limits,
		RunIDBase: lastRun,
	})
	limits := engine.GetLimits()
	log.Printf("🛡️ Resource limits: %d objects, %d particles, %d queued inputs",
		limits.MaxObjects, limits.MaxParticles, limits.InputQueue)

	engine.SetRunEndHandler(func(rec game.RunRecord) {
		api.RecordRunEnd(rec.Outcome, rec.Days)
		if err := store.SaveRun(rec); err != nil {
			log.Printf("⚠️ Failed to record run %d: %v", rec.RunID, err)
		}
	})
	engine.SetTickObserver(api.RecordTick)

	eventLogPath := getEnvWithDefault("EVENT_LOG_PATH", "events.jsonl")
	if err := engine.StartEventLog(eventLogPath); err != nil {
		log.Printf("⚠️ Event log disabled: %v", err)
	} else {
		log.Printf("📝 Event log: %s", eventLogPath)
	}

	api.StartDebugServer(api.ObservabilityFromEnv())

	renderer := render.New(level, render.Options{
		Scale:    getEnvFloat("RENDER_SCALE", 0.25),
		Walls:    os.Getenv("RENDER_WALLS") == "true",
		HUD:      true,
		FontPath: os.Getenv("RENDER_FONT"),
	})

	server := api.NewServer(engine, store, renderer, appConfig.Server)

	engine.Start()

	go func() {
		addr := ":" + strconv.Itoa(appConfig.Server.Port)
		log.Printf("🌐 API server on http://localhost%s", addr)
		log.Printf("🖼️ Live frame: http://localhost%s/api/render.png", addr)

		if err := server.Start(addr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("✅ Server ready! Press Ctrl+C to stop.")
	<-quit

	log.Println("🛑 Shutting down...")
	server.Stop(5 * time.Second)
	engine.Stop()
	engine.StopEventLog()
	if err := store.Close(); err != nil {
		log.Printf("⚠️ Failed to close run storage: %v", err)
	}
	log.Println("👋 Goodbye!")
}

func getEnvWithDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
