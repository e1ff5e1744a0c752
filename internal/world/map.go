// Package world owns the static level: the tile grid parsed from a map
// file, the merged wall boxes derived from it, and the spawn positions the
// map declares. It answers the two spatial queries the simulation needs,
// wall collision and line of sight.
package world

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"radio-survival/internal/geom"
)

// Tile codes understood by the parser.
const (
	TileWall       = 'W'
	TileFloor      = 'F'
	TileTurret     = 'T'
	TileZombie     = 'Z'
	TileTree       = 'E'
	TileHouse      = 'H'
	TileShop       = 'S'
	TileRadioTower = 'D'
	TilePlayer     = 'P'
)

var (
	// ErrRaggedRow is returned when a row's length differs from the previous row.
	ErrRaggedRow = errors.New("row length differs from previous row")
	// ErrEmptyMap is returned when the map has no rows.
	ErrEmptyMap = errors.New("map has no rows")
)

// Spawns holds the positions recorded from marker tiles.
type Spawns struct {
	Player     geom.Vec2   `json:"player"`
	Activity   geom.Vec2   `json:"activity"`
	House      geom.Vec2   `json:"house"`
	Shop       geom.Vec2   `json:"shop"`
	RadioTower geom.Vec2   `json:"radioTower"`
	Turrets    []geom.Vec2 `json:"turrets"`
	Zombies    []geom.Vec2 `json:"zombies"`
	Trees      []geom.Vec2 `json:"trees"`
}

func (s Spawns) clone() Spawns {
	s.Turrets = append([]geom.Vec2(nil), s.Turrets...)
	s.Zombies = append([]geom.Vec2(nil), s.Zombies...)
	s.Trees = append([]geom.Vec2(nil), s.Trees...)
	return s
}

// Map is a parsed level. It is read-only after construction.
type Map struct {
	tiles    [][]byte
	width    int
	height   int
	tileSize float64
	walls    []geom.AABB
	spawns   Spawns
}

// Load reads and parses the map file at path.
func Load(path string, tileSize float64) (*Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open map file %s: %w", path, err)
	}
	defer f.Close()

	m, err := Parse(f, tileSize)
	if err != nil {
		return nil, fmt.Errorf("failed to parse map file %s: %w", path, err)
	}
	return m, nil
}

// Parse reads a map from r. Each line is one row of tile codes; all rows
// must have the same length. Marker tiles record their world position and
// are rewritten to floor.
func Parse(r io.Reader, tileSize float64) (*Map, error) {
	rows, err := readRows(r)
	if err != nil {
		return nil, err
	}

	m := &Map{
		tiles:    rows,
		width:    len(rows[0]),
		height:   len(rows),
		tileSize: tileSize,
	}

	for i, row := range m.tiles {
		for j, c := range row {
			pos := m.TileCenter(i, j)
			switch c {
			case TileTurret:
				m.spawns.Turrets = append(m.spawns.Turrets, pos)
			case TileZombie:
				m.spawns.Zombies = append(m.spawns.Zombies, pos)
			case TileTree:
				m.spawns.Trees = append(m.spawns.Trees, pos)
			case TileHouse:
				m.spawns.House = pos
			case TileShop:
				m.spawns.Shop = pos
			case TileRadioTower:
				m.spawns.RadioTower = pos
			case TilePlayer:
				m.spawns.Player = pos
				m.spawns.Activity = pos
			default:
				continue
			}
			row[j] = TileFloor
		}
	}

	m.walls = MakeBoundingBoxes(m.tiles, tileSize)
	return m, nil
}

// readRows splits the input into rows, dropping line terminators. A final
// row without a newline is accepted; trailing blank lines are ignored.
func readRows(r io.Reader) ([][]byte, error) {
	br := bufio.NewReader(r)
	var rows [][]byte
	for {
		line, err := br.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("failed to read map: %w", err)
		}
		line = strings.TrimRight(line, "\r\n")
		if line != "" || err == nil {
			rows = append(rows, []byte(line))
		}
		if err == io.EOF {
			break
		}
	}

	for len(rows) > 0 && len(rows[len(rows)-1]) == 0 {
		rows = rows[:len(rows)-1]
	}
	if len(rows) == 0 {
		return nil, ErrEmptyMap
	}

	for i := 1; i < len(rows); i++ {
		if len(rows[i]) != len(rows[i-1]) {
			return nil, fmt.Errorf("line %d of map: %w", i, ErrRaggedRow)
		}
	}
	if len(rows[0]) == 0 {
		return nil, fmt.Errorf("line 0 of map: %w", ErrRaggedRow)
	}
	return rows, nil
}

// TileCenter returns the world position of the tile at (row, col).
// Row 0 is the top of the map; world y grows upward.
func (m *Map) TileCenter(row, col int) geom.Vec2 {
	return geom.V(
		m.tileSize*(float64(col)+0.5),
		m.tileSize*(float64(m.height-row)-0.5),
	)
}

// TileAt returns the tile code at (row, col), or 0 when out of range.
func (m *Map) TileAt(row, col int) byte {
	if row < 0 || row >= m.height || col < 0 || col >= m.width {
		return 0
	}
	return m.tiles[row][col]
}

// Rows returns a copy of the tile grid as strings, top row first.
func (m *Map) Rows() []string {
	out := make([]string, m.height)
	for i, row := range m.tiles {
		out[i] = string(row)
	}
	return out
}

func (m *Map) Width() int         { return m.width }
func (m *Map) Height() int        { return m.height }
func (m *Map) TileSize() float64  { return m.tileSize }
func (m *Map) Walls() []geom.AABB { return m.walls }

// WorldSize returns the map extent in world units.
func (m *Map) WorldSize() geom.Vec2 {
	return geom.V(float64(m.width)*m.tileSize, float64(m.height)*m.tileSize)
}

// Objects returns a copy of the spawn positions recorded at parse time.
func (m *Map) Objects() Spawns {
	return m.spawns.clone()
}
