package world

import (
	"math"

	"github.com/udisondev/seed/internal/geom"
)

// Cell ids pack two signed 16-bit cell coordinates.
const (
	cellBits   = 16
	cellOffset = 1 << (cellBits - 1)
	cellMask   = 1<<cellBits - 1
)

// Grid splits the XY plane into square visibility regions.
type Grid struct {
	size float64
}

// NewGrid creates a grid of regions with the given edge length.
func NewGrid(size float64) Grid {
	if size <= 0 {
		size = 2048
	}
	return Grid{size: size}
}

// Size returns the region edge length.
func (g Grid) Size() float64 { return g.size }

// Cell returns the region coordinates of a world point.
func (g Grid) Cell(x, y float64) (cx, cy int32) {
	return int32(math.Floor(x / g.size)), int32(math.Floor(y / g.size))
}

// CellID packs region coordinates into one area id.
func CellID(cx, cy int32) int {
	return (int(cx)+cellOffset)&cellMask<<cellBits | (int(cy)+cellOffset)&cellMask
}

// CellFromID reverses CellID.
func CellFromID(id int) (cx, cy int32) {
	return int32(id>>cellBits&cellMask) - cellOffset, int32(id&cellMask) - cellOffset
}

// IDAt returns the area id of a world point.
func (g Grid) IDAt(p geom.Vec3) int {
	return CellID(g.Cell(p.X, p.Y))
}

// Cells returns the area ids of every region b touches, row by row.
func (g Grid) Cells(b geom.Bounds) []int {
	x0, y0 := g.Cell(b.Min.X, b.Min.Y)
	x1, y1 := g.Cell(b.Max.X, b.Max.Y)
	out := make([]int, 0, int(x1-x0+1)*int(y1-y0+1))
	for cx := x0; cx <= x1; cx++ {
		for cy := y0; cy <= y1; cy++ {
			out = append(out, CellID(cx, cy))
		}
	}
	return out
}

// Surrounding returns the 3x3 window of area ids around a cell.
func Surrounding(cx, cy int32) []int {
	out := make([]int, 0, 9)
	for dx := int32(-1); dx <= 1; dx++ {
		for dy := int32(-1); dy <= 1; dy++ {
			out = append(out, CellID(cx+dx, cy+dy))
		}
	}
	return out
}
