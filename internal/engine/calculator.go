package engine

import (
	"go.uber.org/zap"

	"github.com/holychess/anarchess/internal/obslog"
)

// CheckDetector decides whether applying a move would leave the mover's own
// king(s) capturable. Injected so the calculator stays independent of the
// exact variant policy.
type CheckDetector interface {
	LeavesKingExposed(b *Board, mv *Move, mover Color) bool
}

// Calculator composes per-piece-type rule lists and produces legal moves.
type Calculator struct {
	rules map[PieceType][]MovementRule
	check CheckDetector
}

// NewCalculator builds a calculator with the default variant ruleset.
func NewCalculator(check CheckDetector) *Calculator {
	c := &Calculator{rules: defaultRuleset(), check: check}
	if c.check == nil {
		c.check = &SimulatingCheckDetector{calc: c}
	}
	return c
}

// defaultRuleset is the variant's per-piece composition table.
func defaultRuleset() map[PieceType][]MovementRule {
	return map[PieceType][]MovementRule{
		Pawn: {
			PawnAdvanceRule{},
			PawnCaptureRule{},
		},
		Horsey: {
			KnocklearFusionRule{
				Inner:     LeapRule{Offsets: knightOffsets},
				FuseWith:  Rook,
				FusedType: Knook,
			},
		},
		Bishop: {
			SlideRule{Directions: diagonalDirs},
			IlVaticanoRule{Offset: Point{X: 1}},
			IlVaticanoRule{Offset: Point{X: -1}},
			IlVaticanoRule{Offset: Point{Y: 1}},
			IlVaticanoRule{Offset: Point{Y: -1}},
		},
		Rook: {
			SlideRule{Directions: orthogonalDirs},
		},
		Queen: {
			SlideRule{Directions: allDirs},
		},
		King: {
			SlideRule{Directions: allDirs, MaxSteps: 1},
			CastleRule{},
		},
		Knook: {
			SlideRule{Directions: orthogonalDirs},
			LeapRule{Offsets: knightOffsets},
			RadioactiveBetaDecayRule{Spawns: map[Point]PieceType{
				{X: -1}: Horsey,
				{X: 1}:  Rook,
			}},
		},
	}
}

// CalculateAllLegalMoves yields legal moves for both colors.
func (c *Calculator) CalculateAllLegalMoves(b *Board) []*Move {
	out := c.legalMovesFor(b, White)
	return append(out, c.legalMovesFor(b, Black)...)
}

// LegalMovesByColor partitions the full legal-move set by color, the shape
// the session caches.
func (c *Calculator) LegalMovesByColor(b *Board) map[Color][]*Move {
	return map[Color][]*Move{
		White: c.legalMovesFor(b, White),
		Black: c.legalMovesFor(b, Black),
	}
}

// CalculateLegalMoves yields legal moves for the piece on origin, or nothing
// when the square is empty or holds the wrong color.
func (c *Calculator) CalculateLegalMoves(b *Board, origin Point, color Color) []*Move {
	pc := b.PieceAt(origin)
	if pc == nil || pc.Color != color {
		return nil
	}
	moves := c.rawMovesForPiece(b, origin, pc)
	moves = c.filterExposed(b, moves, color)
	return dedupeMoves(moves)
}

func (c *Calculator) legalMovesFor(b *Board, color Color) []*Move {
	moves := c.rawMoves(b, color)
	moves = c.filterExposed(b, moves, color)
	moves = dedupeMoves(moves)
	return filterForced(moves)
}

// rawMoves concatenates rule outputs with no check filtering. Used both for
// move generation and by the default check detector.
func (c *Calculator) rawMoves(b *Board, color Color) []*Move {
	var out []*Move
	for sq, pc := range b.PiecesOf(color) {
		out = append(out, c.rawMovesForPiece(b, sq, pc)...)
	}
	return out
}

func (c *Calculator) rawMovesForPiece(b *Board, origin Point, pc *Piece) []*Move {
	var out []*Move
	for _, rule := range c.rules[pc.Type] {
		out = append(out, rule.Evaluate(b, origin, pc)...)
	}
	return out
}

func (c *Calculator) filterExposed(b *Board, moves []*Move, mover Color) []*Move {
	if c.check == nil {
		return moves
	}
	out := moves[:0]
	for _, mv := range moves {
		if !c.check.LeavesKingExposed(b, mv, mover) {
			out = append(out, mv)
		}
	}
	return out
}

// dedupeMoves keeps the first move per (from,to) key. A duplicate means two
// rules produced an equivalent move; not fatal but worth a diagnostic.
func dedupeMoves(moves []*Move) []*Move {
	seen := make(map[string]bool, len(moves))
	out := make([]*Move, 0, len(moves))
	for _, mv := range moves {
		key := mv.Key()
		if seen[key] {
			obslog.L().Warn("duplicate_move_key",
				zap.String("key", key),
				zap.String("special", mv.Special.String()),
			)
			continue
		}
		seen[key] = true
		out = append(out, mv)
	}
	return out
}

// filterForced reduces the set to forced-priority moves when any exist.
func filterForced(moves []*Move) []*Move {
	var forced []*Move
	for _, mv := range moves {
		if mv.ForcedPriority {
			forced = append(forced, mv)
		}
	}
	if len(forced) > 0 {
		return forced
	}
	return moves
}

// HasForcedMoves reports whether the set contains a forced-priority move.
func HasForcedMoves(moves []*Move) bool {
	for _, mv := range moves {
		if mv.ForcedPriority {
			return true
		}
	}
	return false
}

// SimulatingCheckDetector applies the candidate on a clone and scans the
// opponent's raw replies for a capture targeting any of the mover's kings.
type SimulatingCheckDetector struct {
	calc *Calculator
}

func NewSimulatingCheckDetector(calc *Calculator) *SimulatingCheckDetector {
	return &SimulatingCheckDetector{calc: calc}
}

func (d *SimulatingCheckDetector) LeavesKingExposed(b *Board, mv *Move, mover Color) bool {
	sim := b.Clone()
	sim.ApplyMove(mv)
	kings := sim.FindKings(mover)
	if len(kings) == 0 {
		// King captured or decayed away; the position is lost outright,
		// which the termination paths handle, not the move filter.
		return false
	}
	kingSquares := make(map[Point]bool, len(kings))
	for _, sq := range kings {
		kingSquares[sq] = true
	}
	for _, reply := range d.calc.rawMoves(sim, mover.Opposite()) {
		for _, cap := range reply.Captures {
			if kingSquares[cap.Square] {
				return true
			}
		}
	}
	return false
}
