// Package hex provides the arena grid: odd-row offset coordinates on a fixed
// 23×21 map, with cube conversion for distance.
package hex

import "fmt"

// Map dimensions. Columns run 0..Width-1, rows 0..Height-1.
const (
	Width  = 23
	Height = 21
)

// Center is the middle cell of the map.
var Center = Coord{Col: Width / 2, Row: Height / 2}

// Coord is a cell on the "odd-r" offset layout: odd rows are shoved half a
// cell to the right.
type Coord struct {
	Col int `json:"col" msgpack:"col"`
	Row int `json:"row" msgpack:"row"`
}

// Cube is the equivalent cube coordinate. X + Y + Z is always 0.
type Cube struct {
	X, Y, Z int
}

// Neighbor deltas indexed by direction, for even and odd rows.
// Direction 0 points toward increasing column, then counter-clockwise.
var (
	evenRowDeltas = [6]Coord{
		{Col: 1, Row: 0},
		{Col: 0, Row: -1},
		{Col: -1, Row: -1},
		{Col: -1, Row: 0},
		{Col: -1, Row: 1},
		{Col: 0, Row: 1},
	}
	oddRowDeltas = [6]Coord{
		{Col: 1, Row: 0},
		{Col: 1, Row: -1},
		{Col: 0, Row: -1},
		{Col: -1, Row: 0},
		{Col: 0, Row: 1},
		{Col: 1, Row: 1},
	}
)

// Directions is the number of hex directions.
const Directions = 6

// Neighbor returns the adjacent cell in the given direction (0..5).
// The result may lie outside the map.
func (c Coord) Neighbor(dir int) Coord {
	if dir < 0 || dir >= Directions {
		panic(fmt.Sprintf("hex: direction %d out of range", dir))
	}
	d := evenRowDeltas[dir]
	if c.Row%2 == 1 {
		d = oddRowDeltas[dir]
	}
	return Coord{Col: c.Col + d.Col, Row: c.Row + d.Row}
}

// Opposite returns the direction pointing the other way.
func Opposite(dir int) int {
	return (dir + 3) % Directions
}

// InsideMap reports whether the cell lies on the map.
func (c Coord) InsideMap() bool {
	return c.Col >= 0 && c.Col < Width && c.Row >= 0 && c.Row < Height
}

// Cube converts the offset coordinate to cube form.
func (c Coord) Cube() Cube {
	x := c.Col - (c.Row-(c.Row&1))/2
	z := c.Row
	return Cube{X: x, Y: -x - z, Z: z}
}

// Distance returns the number of hex steps between two cells.
func (c Coord) Distance(o Coord) int {
	a, b := c.Cube(), o.Cube()
	return (abs(a.X-b.X) + abs(a.Y-b.Y) + abs(a.Z-b.Z)) / 2
}

// Ring returns every in-bounds cell exactly radius steps from center,
// scanning the bounding box row by row.
func Ring(center Coord, radius int) []Coord {
	var out []Coord
	for dRow := -radius; dRow <= radius; dRow++ {
		for dCol := -radius; dCol <= radius; dCol++ {
			c := Coord{Col: center.Col + dCol, Row: center.Row + dRow}
			if c.InsideMap() && c.Distance(center) == radius {
				out = append(out, c)
			}
		}
	}
	return out
}

// String formats the coordinate as "(col,row)".
func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.Col, c.Row)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
