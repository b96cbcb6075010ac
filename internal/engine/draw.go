package engine

import "github.com/holychess/anarchess/pkg/gamedto"

// AutoDrawState accumulates the per-game counters behind automatic draw and
// termination detection. Created once at the starting position and mutated
// after every move; never reset mid-game.
type AutoDrawState struct {
	FenOccurrences map[string]int `json:"fen_occurrences"`
	HalfMoveClock  int            `json:"half_move_clock"`
}

func NewAutoDrawState() *AutoDrawState {
	return &AutoDrawState{FenOccurrences: make(map[string]int)}
}

// RegisterInitialPosition seeds the repetition table with the starting
// fingerprint at count 1.
func (s *AutoDrawState) RegisterInitialPosition(fen string) {
	s.FenOccurrences[fen] = 1
}

const (
	repetitionLimit   = 3
	halfMoveDrawLimit = 100 // 50 full moves
)

// TryEvaluateDraw checks termination conditions in fixed order after a move:
// threefold repetition, then the fifty-move rule, then the variant's
// king-adjacency rule. The first match wins and later checks are skipped;
// downstream finalization depends on which reason fired.
func TryEvaluateDraw(mv *Move, resultingFen string, b *Board, s *AutoDrawState) (bool, string) {
	s.FenOccurrences[resultingFen]++
	if s.FenOccurrences[resultingFen] >= repetitionLimit {
		return true, gamedto.MethodRepetition
	}

	movedPawn := false
	if pc := b.PieceAt(mv.To); pc != nil && pc.Type == Pawn {
		movedPawn = true
	}
	// The board is post-move, so a promoted pawn no longer sits at To as a
	// pawn; the tags and promotion field still identify pawn-like movement.
	if mv.Special == SpecialEnPassant || mv.Special == SpecialDoubleStep || mv.PromotesTo != nil {
		movedPawn = true
	}
	if movedPawn || len(mv.Captures) > 0 {
		s.HalfMoveClock = 0
	} else {
		s.HalfMoveClock++
		if s.HalfMoveClock >= halfMoveDrawLimit {
			return true, gamedto.MethodFiftyMove
		}
	}

	if pc := b.PieceAt(mv.To); pc != nil && pc.Type == King {
		for _, dir := range allDirs {
			sq := mv.To.Add(dir)
			if !b.InBounds(sq) {
				continue
			}
			if n := b.PieceAt(sq); n != nil && n.Type == King && n.Color != pc.Color {
				return true, gamedto.MethodKingAdjacency
			}
		}
	}

	return false, ""
}
