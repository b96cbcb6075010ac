package engine

import "sort"

// CastleRule evaluates castling for an unmoved king: both horizontal
// directions plus the vertical variant along the king's file, toward an
// unmoved rook at the board edge. Squares strictly between must be empty,
// with one exception: a same-color bishop standing exactly on the king's
// landing square is captured as part of the move.
type CastleRule struct{}

func (CastleRule) Evaluate(b *Board, origin Point, pc *Piece) []*Move {
	if pc.Type != King || pc.TimesMoved != 0 {
		return nil
	}
	var out []*Move
	for _, dir := range orthogonalDirs {
		if mv := castleToward(b, origin, pc, dir); mv != nil {
			out = append(out, mv)
		}
	}
	return out
}

func castleToward(b *Board, origin Point, pc *Piece, dir Point) *Move {
	edge := origin
	for {
		next := edge.Add(dir)
		if !b.InBounds(next) {
			break
		}
		edge = next
	}
	dist := abs(edge.X-origin.X) + abs(edge.Y-origin.Y)
	if dist < 3 {
		return nil
	}

	rook := b.PieceAt(edge)
	if rook == nil || rook.Type != Rook || rook.Color != pc.Color || rook.TimesMoved != 0 {
		return nil
	}

	landing := origin.Add(dir.Scale(2))
	rookTo := origin.Add(dir)

	var captures []Capture
	var between []Point
	for step := 1; step < dist; step++ {
		sq := origin.Add(dir.Scale(step))
		between = append(between, sq)
		occ := b.PieceAt(sq)
		if occ == nil {
			continue
		}
		if sq == landing && occ.Type == Bishop && occ.Color == pc.Color {
			captures = append(captures, Capture{Piece: *occ, Square: sq})
			continue
		}
		return nil
	}

	special := SpecialCastleVertical
	switch {
	case dir.X > 0:
		special = SpecialCastleKingside
	case dir.X < 0:
		special = SpecialCastleQueenside
	}

	return &Move{
		From:           origin,
		To:             landing,
		Through:        []Point{rookTo},
		TriggerSquares: between,
		Captures:       captures,
		SideEffects:    []*Move{{From: edge, To: rookTo}},
		Special:        special,
	}
}

// IlVaticanoRule: along a fixed offset, two consecutive enemy pieces followed
// by a friendly bishop yield one move capturing both enemies; the partner
// bishop teleports to the origin and the mover lands on the partner's square.
type IlVaticanoRule struct {
	Offset Point
}

func (r IlVaticanoRule) Evaluate(b *Board, origin Point, pc *Piece) []*Move {
	first := origin.Add(r.Offset)
	second := origin.Add(r.Offset.Scale(2))
	partnerSq := origin.Add(r.Offset.Scale(3))
	if !b.InBounds(first) || !b.InBounds(second) || !b.InBounds(partnerSq) {
		return nil
	}

	v1 := b.PieceAt(first)
	v2 := b.PieceAt(second)
	partner := b.PieceAt(partnerSq)
	if v1 == nil || v1.Color == pc.Color {
		return nil
	}
	if v2 == nil || v2.Color == pc.Color {
		return nil
	}
	if partner == nil || partner.Type != Bishop || partner.Color != pc.Color {
		return nil
	}

	return []*Move{{
		From:        origin,
		To:          partnerSq,
		Through:     []Point{first, second},
		Captures:    []Capture{{Piece: *v1, Square: first}, {Piece: *v2, Square: second}},
		SideEffects: []*Move{{From: partnerSq, To: origin}},
		Special:     SpecialIlVaticano,
	}}
}

// KnocklearFusionRule decorates another rule: a capture of the fuse-with
// piece type detonates, capturing everything in the 3x3 neighborhood around
// the capture square (in bounds, excluding the mover's origin), and the
// mover fuses into the configured type.
type KnocklearFusionRule struct {
	Inner     MovementRule
	FuseWith  PieceType
	FusedType PieceType
}

func (r KnocklearFusionRule) Evaluate(b *Board, origin Point, pc *Piece) []*Move {
	moves := r.Inner.Evaluate(b, origin, pc)
	for _, mv := range moves {
		var fuseSq *Point
		for _, c := range mv.Captures {
			if c.Piece.Type == r.FuseWith && c.Piece.Color == pc.Color.Opposite() {
				sq := c.Square
				fuseSq = &sq
				break
			}
		}
		if fuseSq == nil {
			continue
		}
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				sq := fuseSq.Add(Point{X: dx, Y: dy})
				if !b.InBounds(sq) || sq == origin || mv.capturesSquare(sq) {
					continue
				}
				if occ := b.PieceAt(sq); occ != nil {
					mv.Captures = append(mv.Captures, Capture{Piece: *occ, Square: sq})
				}
			}
		}
		mv.PromotesTo = promoteTo(r.FusedType)
		mv.Special = SpecialKnocklear
	}
	return moves
}

// RadioactiveBetaDecayRule destroys the mover and spawns the configured
// pieces at the offset squares, which must all be in bounds and empty.
type RadioactiveBetaDecayRule struct {
	Spawns map[Point]PieceType
}

func (r RadioactiveBetaDecayRule) Evaluate(b *Board, origin Point, pc *Piece) []*Move {
	offsets := make([]Point, 0, len(r.Spawns))
	for off := range r.Spawns {
		offsets = append(offsets, off)
	}
	sort.Slice(offsets, func(i, j int) bool {
		if offsets[i].X != offsets[j].X {
			return offsets[i].X < offsets[j].X
		}
		return offsets[i].Y < offsets[j].Y
	})

	spawns := make([]Spawn, 0, len(offsets))
	for _, off := range offsets {
		sq := origin.Add(off)
		if !b.InBounds(sq) || b.PieceAt(sq) != nil {
			return nil
		}
		spawns = append(spawns, Spawn{Type: r.Spawns[off], Color: pc.Color, Square: sq})
	}

	return []*Move{{
		From:        origin,
		To:          origin,
		Captures:    []Capture{{Piece: *pc, Square: origin}},
		PieceSpawns: spawns,
		Special:     SpecialBetaDecay,
	}}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
