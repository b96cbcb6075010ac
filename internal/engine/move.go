package engine

// SpecialMoveType tags moves that need dedicated notation or rule handling.
type SpecialMoveType uint8

const (
	SpecialNone SpecialMoveType = iota
	SpecialCastleKingside
	SpecialCastleQueenside
	SpecialCastleVertical
	SpecialDoubleStep
	SpecialEnPassant
	SpecialIlVaticano
	SpecialKnocklear
	SpecialBetaDecay
)

func (s SpecialMoveType) String() string {
	switch s {
	case SpecialCastleKingside:
		return "castle_kingside"
	case SpecialCastleQueenside:
		return "castle_queenside"
	case SpecialCastleVertical:
		return "castle_vertical"
	case SpecialDoubleStep:
		return "double_step"
	case SpecialEnPassant:
		return "en_passant"
	case SpecialIlVaticano:
		return "il_vaticano"
	case SpecialKnocklear:
		return "knocklear"
	case SpecialBetaDecay:
		return "beta_decay"
	default:
		return "none"
	}
}

// Capture is one piece explicitly removed by a move. The square is not
// necessarily the landing square (side captures, explosions).
type Capture struct {
	Piece  Piece
	Square Point
}

// Spawn is a piece created as a side effect of a move.
type Spawn struct {
	Type   PieceType
	Color  Color
	Square Point
}

// Move is an immutable description of a candidate move. Side effects are
// owned sub-moves applied atomically with the parent.
type Move struct {
	From    Point
	To      Point
	Through []Point // ordered path traversed, empty for leapers

	// TriggerSquares gate availability (e.g. castling path) without
	// necessarily being touched by the piece.
	TriggerSquares []Point

	Captures    []Capture
	SideEffects []*Move
	PieceSpawns []Spawn

	Special        SpecialMoveType
	PromotesTo     *PieceType
	ForcedPriority bool
}

// Key identifies a move by its endpoints. The session's legal-move cache is
// keyed on this.
func (m *Move) Key() string {
	return m.From.String() + m.To.String()
}

// IsCapture reports whether the move removes at least one piece that is not
// the mover itself.
func (m *Move) IsCapture() bool {
	for _, c := range m.Captures {
		if c.Square != m.From {
			return true
		}
	}
	return false
}

func (m *Move) capturesSquare(sq Point) bool {
	for _, c := range m.Captures {
		if c.Square == sq {
			return true
		}
	}
	return false
}

func promoteTo(t PieceType) *PieceType { return &t }
