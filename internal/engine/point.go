package engine

import (
	"fmt"
	"strconv"
)

// Point is a square on the board. X is the file (0 = "a"), Y is the rank
// (0 = rank 1). The default board is 10x10 so ranks can be two digits.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Point) Add(o Point) Point { return Point{X: p.X + o.X, Y: p.Y + o.Y} }

func (p Point) Scale(n int) Point { return Point{X: p.X * n, Y: p.Y * n} }

// String renders algebraic notation, e.g. "a1", "j10".
func (p Point) String() string {
	return string(rune('a'+p.X)) + strconv.Itoa(p.Y+1)
}

// ParsePoint is the inverse of String. Round-trips for any in-bounds square.
func ParsePoint(s string) (Point, error) {
	if len(s) < 2 {
		return Point{}, fmt.Errorf("invalid square %q", s)
	}
	file := s[0]
	if file < 'a' || file > 'z' {
		return Point{}, fmt.Errorf("invalid file in square %q", s)
	}
	rank, err := strconv.Atoi(s[1:])
	if err != nil || rank < 1 {
		return Point{}, fmt.Errorf("invalid rank in square %q", s)
	}
	return Point{X: int(file - 'a'), Y: rank - 1}, nil
}

var (
	orthogonalDirs = []Point{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	diagonalDirs   = []Point{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	allDirs        = append(append([]Point{}, orthogonalDirs...), diagonalDirs...)
	knightOffsets  = []Point{
		{1, 2}, {2, 1}, {2, -1}, {1, -2},
		{-1, -2}, {-2, -1}, {-2, 1}, {-1, 2},
	}
)
