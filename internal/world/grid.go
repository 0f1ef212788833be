package world

import (
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Point is a position in world units.
type Point struct {
	X float64
	Y float64
}

// Cell addresses a grid square by column and row.
type Cell struct {
	Col int
	Row int
}

// Grid is the shared walkable/blocked matrix. It is built once at startup
// and never mutated, so rooms read it without locking.
type Grid struct {
	cellSize int
	rows     int
	cols     int
	blocked  [][]bool
}

type mapFile struct {
	CellSize int      `yaml:"cellSize"`
	Rows     []string `yaml:"rows"`
}

// LoadGridFile reads a YAML map definition. Each row is a string of '0'
// (walkable) and '1' (blocked) runes; all rows must share one length.
func LoadGridFile(path string) (*Grid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read map file: %w", err)
	}

	var mf mapFile
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("failed to parse map file: %w", err)
	}
	return NewGrid(mf.CellSize, mf.Rows)
}

// NewGrid builds a grid from row strings of '0'/'1' runes.
func NewGrid(cellSize int, rows []string) (*Grid, error) {
	if cellSize <= 0 {
		return nil, fmt.Errorf("cell size must be positive, got %d", cellSize)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("map has no rows")
	}

	cols := len(rows[0])
	if cols == 0 {
		return nil, fmt.Errorf("map rows are empty")
	}

	blocked := make([][]bool, len(rows))
	for r, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("row %d has length %d, expected %d", r, len(row), cols)
		}
		blocked[r] = make([]bool, cols)
		for c, ch := range row {
			switch ch {
			case '0':
			case '1':
				blocked[r][c] = true
			default:
				return nil, fmt.Errorf("row %d col %d: unexpected cell %q", r, c, ch)
			}
		}
	}

	return &Grid{
		cellSize: cellSize,
		rows:     len(rows),
		cols:     cols,
		blocked:  blocked,
	}, nil
}

func (g *Grid) CellSize() int { return g.cellSize }
func (g *Grid) Rows() int     { return g.rows }
func (g *Grid) Cols() int     { return g.cols }

// Width and Height are the playable area in world units.
func (g *Grid) Width() float64  { return float64(g.cols * g.cellSize) }
func (g *Grid) Height() float64 { return float64(g.rows * g.cellSize) }

func (g *Grid) InBounds(cell Cell) bool {
	return cell.Row >= 0 && cell.Row < g.rows && cell.Col >= 0 && cell.Col < g.cols
}

// Walkable reports whether a cell is inside the grid and not blocked.
func (g *Grid) Walkable(cell Cell) bool {
	return g.InBounds(cell) && !g.blocked[cell.Row][cell.Col]
}

// WorldToCell floors a world coordinate into its containing cell. The
// result may be out of bounds; callers check Walkable.
func (g *Grid) WorldToCell(p Point) Cell {
	size := float64(g.cellSize)
	return Cell{
		Col: int(math.Floor(p.X / size)),
		Row: int(math.Floor(p.Y / size)),
	}
}

// CellToWorld maps a cell to its center point in world units.
func (g *Grid) CellToWorld(cell Cell) Point {
	size := float64(g.cellSize)
	return Point{
		X: float64(cell.Col)*size + size/2,
		Y: float64(cell.Row)*size + size/2,
	}
}

// RowStrings renders the matrix back to '0'/'1' rows for wire snapshots.
func (g *Grid) RowStrings() []string {
	rows := make([]string, g.rows)
	for r := 0; r < g.rows; r++ {
		var b strings.Builder
		b.Grow(g.cols)
		for c := 0; c < g.cols; c++ {
			if g.blocked[r][c] {
				b.WriteByte('1')
			} else {
				b.WriteByte('0')
			}
		}
		rows[r] = b.String()
	}
	return rows
}
