package physics

import (
	"math"
	"sort"
)

// DefaultCellSize is about twice the largest static collider.
const DefaultCellSize = 128.0

// Grid is a fixed-size uniform grid used as a broad phase. It covers a
// rectangle centred on the origin; anything outside is clamped into the
// border cells, so queries stay exact for far away entities.
type Grid struct {
	cellSize   float64
	cols, rows int
	minX, minY float64
	cells      [][]int
	seen       map[int]struct{}
}

// NewGrid creates a grid covering area with the given cell size.
func NewGrid(area Vec2, cellSize float64) *Grid {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	cols := int(math.Ceil(area.X/cellSize)) + 1
	rows := int(math.Ceil(area.Y/cellSize)) + 1
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	return &Grid{
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		minX:     -area.X / 2,
		minY:     -area.Y / 2,
		cells:    make([][]int, cols*rows),
		seen:     make(map[int]struct{}),
	}
}

// Clear resets all cells (keeps allocated capacity)
func (g *Grid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

func (g *Grid) cellRange(pos, size Vec2) (minCX, maxCX, minCY, maxCY int) {
	minCX = g.clampCol(int(math.Floor((pos.X - size.X/2 - g.minX) / g.cellSize)))
	maxCX = g.clampCol(int(math.Floor((pos.X + size.X/2 - g.minX) / g.cellSize)))
	minCY = g.clampRow(int(math.Floor((pos.Y - size.Y/2 - g.minY) / g.cellSize)))
	maxCY = g.clampRow(int(math.Floor((pos.Y + size.Y/2 - g.minY) / g.cellSize)))
	return
}

func (g *Grid) clampCol(c int) int {
	if c < 0 {
		return 0
	} else if c >= g.cols {
		return g.cols - 1
	}
	return c
}

func (g *Grid) clampRow(r int) int {
	if r < 0 {
		return 0
	} else if r >= g.rows {
		return g.rows - 1
	}
	return r
}

// InsertBox adds idx to all cells overlapping the box
func (g *Grid) InsertBox(pos, size Vec2, idx int) {
	minCX, maxCX, minCY, maxCY := g.cellRange(pos, size)
	for cy := minCY; cy <= maxCY; cy++ {
		for cx := minCX; cx <= maxCX; cx++ {
			i := cy*g.cols + cx
			g.cells[i] = append(g.cells[i], idx)
		}
	}
}

// QueryBox appends to buf every index whose cells overlap the box, once
// each and in ascending order.
func (g *Grid) QueryBox(pos, size Vec2, buf []int) []int {
	minCX, maxCX, minCY, maxCY := g.cellRange(pos, size)
	clear(g.seen)
	start := len(buf)
	for cy := minCY; cy <= maxCY; cy++ {
		for cx := minCX; cx <= maxCX; cx++ {
			for _, idx := range g.cells[cy*g.cols+cx] {
				if _, dup := g.seen[idx]; dup {
					continue
				}
				g.seen[idx] = struct{}{}
				buf = append(buf, idx)
			}
		}
	}
	sort.Ints(buf[start:])
	return buf
}
