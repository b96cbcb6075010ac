package engine

// MovementRule produces zero or more candidate moves for a piece standing on
// origin. Rules are pure: they read the board and never mutate it. A piece's
// full pre-check move set is the union of its assigned rules' outputs.
type MovementRule interface {
	Evaluate(b *Board, origin Point, pc *Piece) []*Move
}

// SlideRule walks each direction until blocked: friendly piece stops the walk
// excluded, enemy piece stops it included as a capture. MaxSteps of 1 gives
// king-style stepping, 0 means unbounded.
type SlideRule struct {
	Directions []Point
	MaxSteps   int
}

func (r SlideRule) Evaluate(b *Board, origin Point, pc *Piece) []*Move {
	var out []*Move
	for _, dir := range r.Directions {
		var through []Point
		for step := 1; ; step++ {
			if r.MaxSteps > 0 && step > r.MaxSteps {
				break
			}
			to := origin.Add(dir.Scale(step))
			if !b.InBounds(to) {
				break
			}
			target := b.PieceAt(to)
			if target == nil {
				out = append(out, &Move{From: origin, To: to, Through: append([]Point{}, through...)})
				through = append(through, to)
				continue
			}
			if target.Color != pc.Color {
				out = append(out, &Move{
					From:     origin,
					To:       to,
					Through:  append([]Point{}, through...),
					Captures: []Capture{{Piece: *target, Square: to}},
				})
			}
			break
		}
	}
	return out
}

// LeapRule jumps directly to each offset square, ignoring anything between.
type LeapRule struct {
	Offsets []Point
}

func (r LeapRule) Evaluate(b *Board, origin Point, pc *Piece) []*Move {
	var out []*Move
	for _, off := range r.Offsets {
		to := origin.Add(off)
		if !b.InBounds(to) {
			continue
		}
		target := b.PieceAt(to)
		if target == nil {
			out = append(out, &Move{From: origin, To: to})
			continue
		}
		if target.Color != pc.Color {
			out = append(out, &Move{
				From:     origin,
				To:       to,
				Captures: []Capture{{Piece: *target, Square: to}},
			})
		}
	}
	return out
}

// NoCaptureRule filters another rule's output down to quiet moves.
type NoCaptureRule struct {
	Inner MovementRule
}

func (r NoCaptureRule) Evaluate(b *Board, origin Point, pc *Piece) []*Move {
	var out []*Move
	for _, mv := range r.Inner.Evaluate(b, origin, pc) {
		if len(mv.Captures) == 0 {
			out = append(out, mv)
		}
	}
	return out
}

// MoveToSelfRule always yields the trivial move from the origin to itself.
type MoveToSelfRule struct{}

func (MoveToSelfRule) Evaluate(b *Board, origin Point, pc *Piece) []*Move {
	return []*Move{{From: origin, To: origin}}
}

// PawnAdvanceRule produces the quiet forward step, the double step for an
// unmoved pawn, and promotion on the last rank.
type PawnAdvanceRule struct{}

func (PawnAdvanceRule) Evaluate(b *Board, origin Point, pc *Piece) []*Move {
	dir := pawnDir(pc.Color)
	var out []*Move

	one := origin.Add(Point{Y: dir})
	if !b.InBounds(one) || b.PieceAt(one) != nil {
		return nil
	}
	mv := &Move{From: origin, To: one}
	decoratePromotion(b, mv, pc.Color)
	out = append(out, mv)

	if pc.TimesMoved == 0 {
		two := origin.Add(Point{Y: 2 * dir})
		if b.InBounds(two) && b.PieceAt(two) == nil {
			out = append(out, &Move{
				From:    origin,
				To:      two,
				Through: []Point{one},
				Special: SpecialDoubleStep,
			})
		}
	}
	return out
}

// PawnCaptureRule produces diagonal captures and the en-passant capture. En
// passant is forced: when available it is the only legal move this turn.
type PawnCaptureRule struct{}

func (PawnCaptureRule) Evaluate(b *Board, origin Point, pc *Piece) []*Move {
	dir := pawnDir(pc.Color)
	var out []*Move
	for _, dx := range []int{-1, 1} {
		to := origin.Add(Point{X: dx, Y: dir})
		if !b.InBounds(to) {
			continue
		}
		if target := b.PieceAt(to); target != nil {
			if target.Color != pc.Color {
				mv := &Move{
					From:     origin,
					To:       to,
					Captures: []Capture{{Piece: *target, Square: to}},
				}
				decoratePromotion(b, mv, pc.Color)
				out = append(out, mv)
			}
			continue
		}
		if b.EnPassantTarget != nil && *b.EnPassantTarget == to {
			victimSq := Point{X: to.X, Y: origin.Y}
			victim := b.PieceAt(victimSq)
			if victim != nil && victim.Color != pc.Color && victim.Type == Pawn {
				out = append(out, &Move{
					From:           origin,
					To:             to,
					Captures:       []Capture{{Piece: *victim, Square: victimSq}},
					Special:        SpecialEnPassant,
					ForcedPriority: true,
				})
			}
		}
	}
	return out
}

func pawnDir(c Color) int {
	if c == White {
		return 1
	}
	return -1
}

func decoratePromotion(b *Board, mv *Move, c Color) {
	lastRank := b.Height - 1
	if c == Black {
		lastRank = 0
	}
	if mv.To.Y == lastRank {
		mv.PromotesTo = promoteTo(Queen)
	}
}
