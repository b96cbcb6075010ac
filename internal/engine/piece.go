package engine

import "fmt"

type Color uint8

const (
	White Color = iota
	Black
)

func (c Color) Opposite() Color {
	if c == White {
		return Black
	}
	return White
}

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

func ParseColor(s string) (Color, error) {
	switch s {
	case "white", "w":
		return White, nil
	case "black", "b":
		return Black, nil
	}
	return White, fmt.Errorf("invalid color %q", s)
}

type PieceType uint8

const (
	Pawn PieceType = iota
	Horsey
	Bishop
	Rook
	Queen
	King
	Knook
)

// Letter returns the uppercase notation letter. The knook uses the community
// convention "Ñ" to keep it distinct from the horsey's "N".
func (p PieceType) Letter() rune {
	switch p {
	case Pawn:
		return 'P'
	case Horsey:
		return 'N'
	case Bishop:
		return 'B'
	case Rook:
		return 'R'
	case Queen:
		return 'Q'
	case King:
		return 'K'
	case Knook:
		return 'Ñ'
	default:
		return '?'
	}
}

func (p PieceType) String() string { return string(p.Letter()) }

// PieceTypeFromLetter inverts Letter, accepting either case.
func PieceTypeFromLetter(r rune) (PieceType, bool) {
	switch r {
	case 'P', 'p':
		return Pawn, true
	case 'N', 'n':
		return Horsey, true
	case 'B', 'b':
		return Bishop, true
	case 'R', 'r':
		return Rook, true
	case 'Q', 'q':
		return Queen, true
	case 'K', 'k':
		return King, true
	case 'Ñ', 'ñ':
		return Knook, true
	}
	return Pawn, false
}

func isLowerRune(r rune) bool {
	switch r {
	case 'p', 'n', 'b', 'r', 'q', 'k', 'ñ':
		return true
	}
	return false
}

func isPieceLetter(r rune) bool {
	_, ok := PieceTypeFromLetter(r)
	return ok
}

// fenLetter renders a colored piece letter: uppercase white, lowercase black.
func fenLetter(t PieceType, c Color) rune {
	r := t.Letter()
	if c == Black {
		switch r {
		case 'Ñ':
			return 'ñ'
		default:
			return r + ('a' - 'A')
		}
	}
	return r
}

func colorOfLetter(r rune) Color {
	if isLowerRune(r) {
		return Black
	}
	return White
}

// Piece is a single piece on the board. TimesMoved is incremented only by
// successful move application and gates castling and the pawn double step.
type Piece struct {
	Type       PieceType `json:"type"`
	Color      Color     `json:"color"`
	TimesMoved int       `json:"times_moved"`
}

func NewPiece(t PieceType, c Color) *Piece {
	return &Piece{Type: t, Color: c}
}
