package engine

import "testing"

func TestNewStandardBoard(t *testing.T) {
	b := NewStandardBoard()
	if b.Width != 10 || b.Height != 10 {
		t.Fatalf("board is %dx%d, want 10x10", b.Width, b.Height)
	}

	checks := []struct {
		sq    string
		typ   PieceType
		color Color
	}{
		{"a1", Knook, White},
		{"j1", Knook, White},
		{"f1", King, White},
		{"e1", Queen, White},
		{"a2", Pawn, White},
		{"j2", Pawn, White},
		{"a10", Knook, Black},
		{"f10", King, Black},
		{"e9", Pawn, Black},
	}
	for _, c := range checks {
		pt, _ := ParsePoint(c.sq)
		pc := b.PieceAt(pt)
		if pc == nil {
			t.Fatalf("no piece at %s", c.sq)
		}
		if pc.Type != c.typ || pc.Color != c.color {
			t.Errorf("%s holds %v/%v, want %v/%v", c.sq, pc.Type, pc.Color, c.typ, c.color)
		}
	}

	if got := b.Fingerprint(White); got != StartingFEN {
		t.Errorf("Fingerprint = %q, want %q", got, StartingFEN)
	}
}

func TestBoardFromFENRejectsRaggedRows(t *testing.T) {
	if _, err := BoardFromFEN("ñrnbqkbnrñ/ppppppppp/10 w"); err == nil {
		t.Fatal("ragged FEN accepted")
	}
	if _, err := BoardFromFEN("zz/zz w"); err == nil {
		t.Fatal("invalid piece letters accepted")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	b := NewStandardBoard()
	cl := b.Clone()

	e2, _ := ParsePoint("e2")
	cl.RemovePiece(e2)
	cl.PieceAt(Point{X: 0, Y: 0}).TimesMoved = 7

	if b.PieceAt(e2) == nil {
		t.Error("removal on clone leaked into original")
	}
	if b.PieceAt(Point{X: 0, Y: 0}).TimesMoved != 0 {
		t.Error("mutation of cloned piece leaked into original")
	}
}

func TestApplyMoveDoubleStepSetsEnPassantTarget(t *testing.T) {
	b := NewStandardBoard()
	from, _ := ParsePoint("e2")
	mid, _ := ParsePoint("e3")
	to, _ := ParsePoint("e4")

	b.ApplyMove(&Move{From: from, To: to, Through: []Point{mid}, Special: SpecialDoubleStep})

	if b.EnPassantTarget == nil || *b.EnPassantTarget != mid {
		t.Fatalf("EnPassantTarget = %v, want %v", b.EnPassantTarget, mid)
	}
	if pc := b.PieceAt(to); pc == nil || pc.Type != Pawn || pc.TimesMoved != 1 {
		t.Fatalf("pawn not moved to %v with TimesMoved 1: %+v", to, b.PieceAt(to))
	}

	// Any following move clears the target.
	f9, _ := ParsePoint("f9")
	f8, _ := ParsePoint("f8")
	b.ApplyMove(&Move{From: f9, To: f8})
	if b.EnPassantTarget != nil {
		t.Fatalf("EnPassantTarget survived the next move: %v", b.EnPassantTarget)
	}
}

func TestApplyMovePromotion(t *testing.T) {
	b := NewBoard(10, 10)
	from := Point{X: 2, Y: 8}
	to := Point{X: 2, Y: 9}
	b.SetPiece(from, NewPiece(Pawn, White))

	b.ApplyMove(&Move{From: from, To: to, PromotesTo: promoteTo(Queen)})

	pc := b.PieceAt(to)
	if pc == nil || pc.Type != Queen || pc.Color != White {
		t.Fatalf("promotion result at %v: %+v", to, pc)
	}
}
