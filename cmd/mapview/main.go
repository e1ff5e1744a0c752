// Command mapview renders a level file to PNG, optionally with the objects
// a fresh run spawns.
package main

import (
	"flag"
	"log"

	"radio-survival/internal/config"
	"radio-survival/internal/game"
	"radio-survival/internal/render"
	"radio-survival/internal/world"
)

func main() {
	def := config.DefaultWorld()

	mapPath := flag.String("map", def.MapPath, "level file to render")
	tileSize := flag.Float64("tile", def.TileSize, "world units per tile")
	out := flag.String("out", "level.png", "output PNG path")
	scale := flag.Float64("scale", 0.25, "image pixels per world unit")
	walls := flag.Bool("walls", true, "outline merged wall boxes")
	spawns := flag.Bool("spawns", false, "draw the objects a new run starts with")
	flag.Parse()

	level, err := world.Load(*mapPath, *tileSize)
	if err != nil {
		log.Fatalf("❌ Failed to load level: %v", err)
	}

	r := render.New(level, render.Options{Scale: *scale, Walls: *walls})

	var snap *game.GameSnapshot
	if *spawns {
		engine := game.NewEngine(game.EngineConfig{Map: level})
		s := engine.GetSnapshot()
		snap = &s
	}

	if err := r.SavePNG(*out, snap); err != nil {
		log.Fatalf("❌ %v", err)
	}

	w, h := r.Size()
	log.Printf("🖼️ Wrote %s (%dx%d, %d wall boxes)", *out, w, h, len(level.Walls()))
}
