package engine

import "testing"

func mustPoint(t *testing.T, s string) Point {
	t.Helper()
	pt, err := ParsePoint(s)
	if err != nil {
		t.Fatalf("ParsePoint(%q): %v", s, err)
	}
	return pt
}

func findMove(moves []*Move, from, to Point) *Move {
	for _, mv := range moves {
		if mv.From == from && mv.To == to {
			return mv
		}
	}
	return nil
}

func TestCastleKingside(t *testing.T) {
	b := NewBoard(10, 10)
	king := mustPoint(t, "f1")
	rook := mustPoint(t, "j1")
	b.SetPiece(king, NewPiece(King, White))
	b.SetPiece(rook, NewPiece(Rook, White))

	moves := CastleRule{}.Evaluate(b, king, b.PieceAt(king))
	mv := findMove(moves, king, mustPoint(t, "h1"))
	if mv == nil {
		t.Fatal("kingside castle not generated")
	}
	if mv.Special != SpecialCastleKingside {
		t.Errorf("special = %v, want kingside", mv.Special)
	}
	if len(mv.SideEffects) != 1 || mv.SideEffects[0].From != rook || mv.SideEffects[0].To != mustPoint(t, "g1") {
		t.Errorf("rook relocation wrong: %+v", mv.SideEffects)
	}

	b.ApplyMove(mv)
	if pc := b.PieceAt(mustPoint(t, "h1")); pc == nil || pc.Type != King {
		t.Error("king did not land on h1")
	}
	if pc := b.PieceAt(mustPoint(t, "g1")); pc == nil || pc.Type != Rook {
		t.Error("rook did not land on g1")
	}
	if b.PieceAt(rook) != nil {
		t.Error("rook still on j1")
	}
}

func TestCastleBothDirections(t *testing.T) {
	b := NewBoard(10, 10)
	king := mustPoint(t, "f1")
	b.SetPiece(king, NewPiece(King, White))
	b.SetPiece(mustPoint(t, "a1"), NewPiece(Rook, White))
	b.SetPiece(mustPoint(t, "j1"), NewPiece(Rook, White))

	moves := CastleRule{}.Evaluate(b, king, b.PieceAt(king))
	if len(moves) != 2 {
		t.Fatalf("got %d castle moves, want kingside and queenside", len(moves))
	}

	queenside := findMove(moves, king, mustPoint(t, "d1"))
	if queenside == nil || queenside.Special != SpecialCastleQueenside {
		t.Fatalf("queenside castle missing: %+v", queenside)
	}
	// Every square strictly between king and rook gates the move.
	wantGates := []Point{mustPoint(t, "e1"), mustPoint(t, "d1"), mustPoint(t, "c1"), mustPoint(t, "b1")}
	if len(queenside.TriggerSquares) != len(wantGates) {
		t.Fatalf("trigger squares = %v, want %v", queenside.TriggerSquares, wantGates)
	}
	for i, sq := range wantGates {
		if queenside.TriggerSquares[i] != sq {
			t.Errorf("trigger square %d = %v, want %v", i, queenside.TriggerSquares[i], sq)
		}
	}
}

func TestCastleBlockedByMovedPieces(t *testing.T) {
	b := NewBoard(10, 10)
	king := mustPoint(t, "f1")
	rook := mustPoint(t, "j1")
	b.SetPiece(king, &Piece{Type: King, Color: White, TimesMoved: 1})
	b.SetPiece(rook, NewPiece(Rook, White))
	if moves := (CastleRule{}).Evaluate(b, king, b.PieceAt(king)); len(moves) != 0 {
		t.Errorf("moved king castled: %d moves", len(moves))
	}

	b.SetPiece(king, NewPiece(King, White))
	b.SetPiece(rook, &Piece{Type: Rook, Color: White, TimesMoved: 2})
	if mv := findMove(CastleRule{}.Evaluate(b, king, b.PieceAt(king)), king, mustPoint(t, "h1")); mv != nil {
		t.Error("castled toward a moved rook")
	}
}

func TestCastleCapturesBishopOnLanding(t *testing.T) {
	b := NewBoard(10, 10)
	king := mustPoint(t, "f1")
	landing := mustPoint(t, "h1")
	b.SetPiece(king, NewPiece(King, White))
	b.SetPiece(mustPoint(t, "j1"), NewPiece(Rook, White))
	b.SetPiece(landing, NewPiece(Bishop, White))

	mv := findMove(CastleRule{}.Evaluate(b, king, b.PieceAt(king)), king, landing)
	if mv == nil {
		t.Fatal("castle over own bishop on landing square not generated")
	}
	if len(mv.Captures) != 1 || mv.Captures[0].Square != landing || mv.Captures[0].Piece.Type != Bishop {
		t.Fatalf("captures = %+v, want own bishop on h1", mv.Captures)
	}

	// Any other blocker kills the castle.
	b.SetPiece(landing, NewPiece(Horsey, White))
	if mv := findMove(CastleRule{}.Evaluate(b, king, b.PieceAt(king)), king, landing); mv != nil {
		t.Error("castled over a non-bishop blocker")
	}
}

func TestCastleVertical(t *testing.T) {
	b := NewBoard(10, 10)
	king := mustPoint(t, "f1")
	rook := mustPoint(t, "f10")
	b.SetPiece(king, NewPiece(King, White))
	b.SetPiece(rook, NewPiece(Rook, White))

	mv := findMove(CastleRule{}.Evaluate(b, king, b.PieceAt(king)), king, mustPoint(t, "f3"))
	if mv == nil {
		t.Fatal("vertical castle not generated")
	}
	if mv.Special != SpecialCastleVertical {
		t.Errorf("special = %v, want vertical", mv.Special)
	}
	if len(mv.SideEffects) != 1 || mv.SideEffects[0].To != mustPoint(t, "f2") {
		t.Errorf("rook relocation wrong: %+v", mv.SideEffects)
	}
}

func TestIlVaticano(t *testing.T) {
	b := NewBoard(10, 10)
	mover := mustPoint(t, "d4")
	partner := mustPoint(t, "g4")
	b.SetPiece(mover, NewPiece(Bishop, White))
	b.SetPiece(partner, NewPiece(Bishop, White))
	b.SetPiece(mustPoint(t, "e4"), NewPiece(Pawn, Black))
	b.SetPiece(mustPoint(t, "f4"), NewPiece(Pawn, Black))

	moves := IlVaticanoRule{Offset: Point{X: 1}}.Evaluate(b, mover, b.PieceAt(mover))
	if len(moves) != 1 {
		t.Fatalf("got %d moves, want 1", len(moves))
	}
	mv := moves[0]
	if mv.Special != SpecialIlVaticano || len(mv.Captures) != 2 {
		t.Fatalf("move = %+v", mv)
	}

	b.ApplyMove(mv)
	if b.PieceAt(mustPoint(t, "e4")) != nil || b.PieceAt(mustPoint(t, "f4")) != nil {
		t.Error("captured pawns survived")
	}
	if pc := b.PieceAt(partner); pc == nil || pc.Type != Bishop {
		t.Error("mover did not land on partner square")
	}
	if pc := b.PieceAt(mover); pc == nil || pc.Type != Bishop {
		t.Error("partner did not swap back to the origin")
	}
}

func TestIlVaticanoRequiresTwoVictims(t *testing.T) {
	b := NewBoard(10, 10)
	mover := mustPoint(t, "d4")
	b.SetPiece(mover, NewPiece(Bishop, White))
	b.SetPiece(mustPoint(t, "g4"), NewPiece(Bishop, White))
	b.SetPiece(mustPoint(t, "e4"), NewPiece(Pawn, Black))

	if moves := (IlVaticanoRule{Offset: Point{X: 1}}).Evaluate(b, mover, b.PieceAt(mover)); len(moves) != 0 {
		t.Errorf("generated %d moves with only one victim", len(moves))
	}
}

func TestKnocklearFusionExplosion(t *testing.T) {
	b := NewBoard(10, 10)
	origin := mustPoint(t, "b1")
	fuse := mustPoint(t, "c3")
	b.SetPiece(origin, NewPiece(Horsey, White))
	b.SetPiece(fuse, NewPiece(Rook, Black))
	b.SetPiece(mustPoint(t, "d4"), NewPiece(Pawn, Black))
	b.SetPiece(mustPoint(t, "b2"), NewPiece(Pawn, White)) // friendly, still destroyed

	rule := KnocklearFusionRule{Inner: LeapRule{Offsets: knightOffsets}, FuseWith: Rook, FusedType: Knook}
	mv := findMove(rule.Evaluate(b, origin, b.PieceAt(origin)), origin, fuse)
	if mv == nil {
		t.Fatal("fusion capture not generated")
	}
	if mv.Special != SpecialKnocklear {
		t.Errorf("special = %v, want knocklear", mv.Special)
	}
	if len(mv.Captures) != 3 {
		t.Fatalf("captures = %+v, want rook plus both neighbors", mv.Captures)
	}

	b.ApplyMove(mv)
	if pc := b.PieceAt(fuse); pc == nil || pc.Type != Knook || pc.Color != White {
		t.Fatalf("mover did not fuse into a knook: %+v", pc)
	}
	if b.PieceAt(mustPoint(t, "d4")) != nil || b.PieceAt(mustPoint(t, "b2")) != nil {
		t.Error("explosion neighbors survived")
	}
}

func TestKnocklearPlainCaptureDoesNotExplode(t *testing.T) {
	b := NewBoard(10, 10)
	origin := mustPoint(t, "b1")
	target := mustPoint(t, "c3")
	b.SetPiece(origin, NewPiece(Horsey, White))
	b.SetPiece(target, NewPiece(Pawn, Black))
	b.SetPiece(mustPoint(t, "d4"), NewPiece(Pawn, Black))

	rule := KnocklearFusionRule{Inner: LeapRule{Offsets: knightOffsets}, FuseWith: Rook, FusedType: Knook}
	mv := findMove(rule.Evaluate(b, origin, b.PieceAt(origin)), origin, target)
	if mv == nil {
		t.Fatal("plain capture not generated")
	}
	if mv.Special != SpecialNone || len(mv.Captures) != 1 || mv.PromotesTo != nil {
		t.Fatalf("plain pawn capture got fusion treatment: %+v", mv)
	}
}

func TestRadioactiveBetaDecay(t *testing.T) {
	b := NewBoard(10, 10)
	origin := mustPoint(t, "f4")
	b.SetPiece(origin, NewPiece(Knook, White))

	rule := RadioactiveBetaDecayRule{Spawns: map[Point]PieceType{
		{X: -1}: Horsey,
		{X: 1}:  Rook,
	}}
	moves := rule.Evaluate(b, origin, b.PieceAt(origin))
	if len(moves) != 1 {
		t.Fatalf("got %d moves, want 1", len(moves))
	}
	mv := moves[0]
	if mv.From != origin || mv.To != origin || mv.Special != SpecialBetaDecay {
		t.Fatalf("decay move = %+v", mv)
	}
	if mv.IsCapture() {
		t.Error("self-removal counted as a capture")
	}

	b.ApplyMove(mv)
	if b.PieceAt(origin) != nil {
		t.Error("knook survived its own decay")
	}
	if pc := b.PieceAt(mustPoint(t, "e4")); pc == nil || pc.Type != Horsey || pc.Color != White {
		t.Errorf("horsey spawn missing: %+v", pc)
	}
	if pc := b.PieceAt(mustPoint(t, "g4")); pc == nil || pc.Type != Rook || pc.Color != White {
		t.Errorf("rook spawn missing: %+v", pc)
	}
}

func TestBetaDecayNeedsEmptySpawnSquares(t *testing.T) {
	b := NewBoard(10, 10)
	origin := mustPoint(t, "f4")
	b.SetPiece(origin, NewPiece(Knook, White))
	b.SetPiece(mustPoint(t, "g4"), NewPiece(Pawn, Black))

	rule := RadioactiveBetaDecayRule{Spawns: map[Point]PieceType{{X: -1}: Horsey, {X: 1}: Rook}}
	if moves := rule.Evaluate(b, origin, b.PieceAt(origin)); len(moves) != 0 {
		t.Errorf("decay generated with occupied spawn square: %d moves", len(moves))
	}

	// Edge of the board blocks decay too.
	edge := mustPoint(t, "a5")
	b.SetPiece(edge, NewPiece(Knook, White))
	if moves := rule.Evaluate(b, edge, b.PieceAt(edge)); len(moves) != 0 {
		t.Errorf("decay generated off the board edge: %d moves", len(moves))
	}
}

func TestPawnDoubleStepOnlyWhenUnmoved(t *testing.T) {
	b := NewBoard(10, 10)
	origin := mustPoint(t, "e2")
	b.SetPiece(origin, NewPiece(Pawn, White))

	moves := PawnAdvanceRule{}.Evaluate(b, origin, b.PieceAt(origin))
	if findMove(moves, origin, mustPoint(t, "e4")) == nil {
		t.Error("double step missing for unmoved pawn")
	}

	b.PieceAt(origin).TimesMoved = 1
	moves = PawnAdvanceRule{}.Evaluate(b, origin, b.PieceAt(origin))
	if findMove(moves, origin, mustPoint(t, "e4")) != nil {
		t.Error("double step generated for moved pawn")
	}
	if findMove(moves, origin, mustPoint(t, "e3")) == nil {
		t.Error("single step missing")
	}
}

func TestEnPassantIsForced(t *testing.T) {
	b := NewBoard(10, 10)
	b.SetPiece(mustPoint(t, "a1"), NewPiece(King, White))
	b.SetPiece(mustPoint(t, "j10"), NewPiece(King, Black))
	b.SetPiece(mustPoint(t, "e5"), NewPiece(Pawn, White))
	b.SetPiece(mustPoint(t, "d7"), NewPiece(Pawn, Black))

	// Black double-steps past the white pawn.
	calc := NewCalculator(nil)
	double := findMove(calc.LegalMovesByColor(b)[Black], mustPoint(t, "d7"), mustPoint(t, "d5"))
	if double == nil {
		t.Fatal("black double step not generated")
	}
	b.ApplyMove(double)

	white := calc.LegalMovesByColor(b)[White]
	if len(white) != 1 {
		keys := make([]string, 0, len(white))
		for _, mv := range white {
			keys = append(keys, mv.Key())
		}
		t.Fatalf("white has %d legal moves %v, want only the en passant capture", len(white), keys)
	}
	mv := white[0]
	if mv.Special != SpecialEnPassant || !mv.ForcedPriority {
		t.Fatalf("forced move = %+v", mv)
	}
	if mv.To != mustPoint(t, "d6") {
		t.Errorf("en passant lands on %v, want d6", mv.To)
	}
	if len(mv.Captures) != 1 || mv.Captures[0].Square != mustPoint(t, "d5") {
		t.Errorf("en passant victim = %+v, want pawn on d5", mv.Captures)
	}
	if !HasForcedMoves(white) {
		t.Error("forced flag not reported for the restricted set")
	}
}
