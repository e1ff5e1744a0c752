// Package render draws the level and game snapshots to raster images with
// gg. World coordinates are y-up; images are y-down, so every draw call goes
// through the renderer's flip.
package render

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"log"
	"math"

	"radio-survival/internal/game"
	"radio-survival/internal/geom"
	"radio-survival/internal/world"

	"github.com/fogleman/gg"
)

// Tile frame codes used by the tile sheet.
const (
	FrameFloor  = 0
	FrameWall   = 1
	FrameError  = 2
	FrameObject = 3 // Floor under a placed object
	FrameRoad   = 4
	FrameAlt    = 5
)

// FrameFor maps a tile character to its frame. Unknown characters report
// false and use FrameError.
func FrameFor(tile byte) (int, bool) {
	switch tile {
	case 'F':
		return FrameFloor, true
	case 'W':
		return FrameWall, true
	case 'T', 'G', 'E', 'Z', 'S', 'H':
		return FrameObject, true
	case 'R':
		return FrameRoad, true
	case 'A':
		return FrameAlt, true
	default:
		return FrameError, false
	}
}

var framePalette = [...]color.RGBA{
	FrameFloor:  {86, 125, 70, 255},
	FrameWall:   {70, 70, 78, 255},
	FrameError:  {255, 0, 255, 255},
	FrameObject: {96, 134, 78, 255},
	FrameRoad:   {128, 116, 96, 255},
	FrameAlt:    {110, 140, 90, 255},
}

var kindColors = map[string]color.RGBA{
	"player":      {240, 240, 240, 255},
	"player2":     {240, 240, 240, 255},
	"zombie":      {90, 160, 80, 255},
	"turret":      {150, 150, 160, 255},
	"bullet":      {255, 230, 90, 255},
	"bullet2":     {255, 110, 60, 255},
	"activity":    {255, 255, 255, 20},
	"house":       {150, 90, 60, 255},
	"shop":        {70, 110, 170, 255},
	"tree":        {40, 100, 40, 255},
	"radio_tower": {190, 190, 200, 255},
	"battery":     {230, 200, 40, 255},
	"antenna":     {200, 80, 200, 255},
	"logic_board": {40, 200, 120, 255},
}

// Options tunes what the renderer draws.
type Options struct {
	Scale    float64 // Image pixels per world unit, default 0.25
	Walls    bool    // Outline merged wall boxes
	HUD      bool    // Health, hunger and clock overlay
	FontPath string  // TTF for HUD text; text is skipped when empty
}

// Renderer draws one map. The tile layer is rendered once at construction;
// Draw is safe for concurrent use.
type Renderer struct {
	m      *world.Map
	opts   Options
	width  int
	height int
	tiles  image.Image
}

// New prepares a renderer for m. Unknown tile characters are logged once
// with their coordinates.
func New(m *world.Map, opts Options) *Renderer {
	if opts.Scale <= 0 {
		opts.Scale = 0.25
	}
	size := m.WorldSize()
	r := &Renderer{
		m:      m,
		opts:   opts,
		width:  int(math.Ceil(size.X * opts.Scale)),
		height: int(math.Ceil(size.Y * opts.Scale)),
	}
	if r.width < 1 {
		r.width = 1
	}
	if r.height < 1 {
		r.height = 1
	}
	r.tiles = r.drawTiles()
	return r
}

// Size returns the output image size in pixels.
func (r *Renderer) Size() (width, height int) {
	return r.width, r.height
}

// toImage converts a world point to image pixels.
func (r *Renderer) toImage(p geom.Vec2) (float64, float64) {
	return p.X * r.opts.Scale, (r.m.WorldSize().Y - p.Y) * r.opts.Scale
}

func (r *Renderer) drawTiles() image.Image {
	dc := gg.NewContext(r.width, r.height)
	t := r.m.TileSize() * r.opts.Scale

	for row, line := range r.m.Rows() {
		for col := 0; col < len(line); col++ {
			frame, ok := FrameFor(line[col])
			if !ok {
				log.Printf("⚠️ Unknown tile %q at row %d, col %d", line[col], row, col)
			}
			dc.SetColor(framePalette[frame])
			dc.DrawRectangle(float64(col)*t, float64(row)*t, t+0.5, t+0.5)
			dc.Fill()
		}
	}
	return dc.Image()
}

// Draw renders the map with snap on top. A nil snapshot draws the bare map.
func (r *Renderer) Draw(snap *game.GameSnapshot) image.Image {
	return r.context(snap).Image()
}

// EncodePNG writes the rendered frame to w.
func (r *Renderer) EncodePNG(w io.Writer, snap *game.GameSnapshot) error {
	if err := r.context(snap).EncodePNG(w); err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	return nil
}

// SavePNG writes the rendered frame to path.
func (r *Renderer) SavePNG(path string, snap *game.GameSnapshot) error {
	if err := r.context(snap).SavePNG(path); err != nil {
		return fmt.Errorf("failed to save frame %s: %w", path, err)
	}
	return nil
}

func (r *Renderer) context(snap *game.GameSnapshot) *gg.Context {
	dc := gg.NewContext(r.width, r.height)
	dc.DrawImage(r.tiles, 0, 0)

	if r.opts.Walls {
		r.drawWalls(dc)
	}
	if snap == nil {
		return dc
	}

	r.drawObjects(dc, snap.Objects)
	r.drawParticles(dc, snap.Particles)
	r.drawNight(dc, snap.HUD.TintFactor)
	if r.opts.HUD {
		r.drawHUD(dc, snap)
	}
	return dc
}

func (r *Renderer) drawWalls(dc *gg.Context) {
	dc.SetColor(color.RGBA{255, 60, 60, 255})
	dc.SetLineWidth(1)
	for _, b := range r.m.Walls() {
		x0, y0 := r.toImage(geom.V(b.Min.X, b.Max.Y))
		x1, y1 := r.toImage(geom.V(b.Max.X, b.Min.Y))
		dc.DrawRectangle(x0, y0, x1-x0, y1-y0)
		dc.Stroke()
	}
}

func tinted(c color.RGBA, t game.Tint) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * clamp01(t.R)),
		G: uint8(float64(c.G) * clamp01(t.G)),
		B: uint8(float64(c.B) * clamp01(t.B)),
		A: c.A,
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func (r *Renderer) drawObjects(dc *gg.Context, objects []game.ObjectSnapshot) {
	for _, o := range objects {
		base, ok := kindColors[o.Kind]
		if !ok {
			base = framePalette[FrameError]
		}
		x, y := r.toImage(o.Pos)
		radius := o.Radius * r.opts.Scale
		if radius < 1 {
			radius = 1
		}

		dc.SetColor(tinted(base, o.Tint))
		dc.DrawCircle(x, y, radius)
		dc.Fill()

		if o.Role == "activity" || o.Role == "prop" || o.Role == "collectible" {
			continue
		}

		// Heading tick; image y is flipped
		hx := x + math.Cos(o.Roll)*radius*1.4
		hy := y - math.Sin(o.Roll)*radius*1.4
		dc.SetColor(color.Black)
		dc.SetLineWidth(1.5)
		dc.DrawLine(x, y, hx, hy)
		dc.Stroke()
	}
}

func (r *Renderer) drawParticles(dc *gg.Context, particles []game.ParticleSnapshot) {
	for _, p := range particles {
		c := color.RGBA{
			R: uint8(255 * clamp01(p.Tint.R)),
			G: uint8(255 * clamp01(p.Tint.G)),
			B: uint8(255 * clamp01(p.Tint.B)),
			A: uint8(255 * clamp01(p.Alpha)),
		}
		if p.Kind == "smoke" {
			c = color.RGBA{200, 200, 200, c.A}
		}
		x, y := r.toImage(p.Pos)
		dc.SetColor(c)
		dc.DrawCircle(x, y, math.Max(1, 16*p.Scale*r.opts.Scale))
		dc.Fill()
	}
}

// drawNight washes the frame toward dark cyan by factor.
func (r *Renderer) drawNight(dc *gg.Context, factor float64) {
	if factor <= 0 {
		return
	}
	dc.SetColor(color.RGBA{0, 139, 139, uint8(160 * clamp01(factor))})
	dc.DrawRectangle(0, 0, float64(r.width), float64(r.height))
	dc.Fill()
}

func (r *Renderer) drawHUD(dc *gg.Context, snap *game.GameSnapshot) {
	hud := snap.HUD
	x, y := 8.0, 8.0
	barW, barH := 120.0, 10.0

	dc.SetColor(color.RGBA{51, 51, 51, 255})
	dc.DrawRectangle(x, y, barW, barH)
	dc.Fill()
	if hud.MaxHealth > 0 {
		pct := float64(hud.Health) / float64(hud.MaxHealth)
		if pct > 0.5 {
			dc.SetColor(color.RGBA{83, 255, 69, 255})
		} else if pct > 0.25 {
			dc.SetColor(color.RGBA{255, 149, 0, 255})
		} else {
			dc.SetColor(color.RGBA{255, 62, 62, 255})
		}
		dc.DrawRectangle(x, y, barW*pct, barH)
		dc.Fill()
	}

	// One pip per stored food
	dc.SetColor(color.RGBA{230, 180, 60, 255})
	for i := 0; i < hud.Hunger; i++ {
		dc.DrawCircle(x+6+float64(i)*14, y+barH+10, 5)
		dc.Fill()
	}

	if r.opts.FontPath == "" {
		return
	}
	if err := dc.LoadFontFace(r.opts.FontPath, 14); err != nil {
		return
	}
	dc.SetColor(color.White)
	dc.DrawString(fmt.Sprintf("Day %d  %s  parts %d/3", hud.Day, hud.Clock, hud.Parts.Count()), x, y+barH+34)
}
