package game

import "fmt"

// Board geometry: a shared circular track of 52 squares, a home area
// represented by position -1, and a private 6-square finish lane per color
// represented by positions 100-105.
const (
	TrackSize  = 52
	PosHome    = -1
	FinishBase = 100
	FinishEnd  = 105
)

type Color int

const (
	Red Color = iota
	Green
	Yellow
	Blue
)

var colorNames = [...]string{"RED", "GREEN", "YELLOW", "BLUE"}

func (c Color) String() string {
	if c < Red || c > Blue {
		return fmt.Sprintf("Color(%d)", int(c))
	}
	return colorNames[c]
}

func (c Color) Valid() bool {
	return c >= Red && c <= Blue
}

func ParseColor(name string) (Color, error) {
	for i, n := range colorNames {
		if n == name {
			return Color(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown color %q", ErrInvalidColor, name)
}

// StartSquare is the square a piece enters the track on when leaving home.
// The four starting squares are spaced 13 apart around the ring.
func (c Color) StartSquare() int {
	return int(c) * 13
}

// FinishEntrance is the last shared square before the color's finish lane,
// two squares behind its starting square.
func (c Color) FinishEntrance() int {
	return (c.StartSquare() + TrackSize - 2) % TrackSize
}

// Advance moves a piece `steps` squares forward from `current`. A piece on
// the shared track that passes its color's finish entrance is remapped into
// the finish lane; the first lane square is FinishBase. Positions outside
// the track (finish lane pieces) fall through to the raw modular arithmetic,
// matching the historical rule set.
func Advance(current, steps int, c Color) int {
	raw := (current + steps) % TrackSize
	if current >= 0 && current < TrackSize {
		toEntrance := (c.FinishEntrance() - current + TrackSize) % TrackSize
		if steps > toEntrance {
			return FinishBase + steps - toEntrance - 1
		}
	}
	return raw
}

func IsHome(pos int) bool {
	return pos == PosHome
}

func IsOnTrack(pos int) bool {
	return pos >= 0 && pos < TrackSize
}

func IsFinished(pos int) bool {
	return pos >= FinishBase && pos <= FinishEnd
}

// HasWon reports whether every piece of the vector is in the finish lane.
func HasWon(positions [4]int) bool {
	for _, pos := range positions {
		if !IsFinished(pos) {
			return false
		}
	}
	return true
}
