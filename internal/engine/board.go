package engine

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	DefaultWidth  = 10
	DefaultHeight = 10
)

// Board is a mutable grid of squares to pieces. Movement rules never mutate
// it; only ApplyMove does.
type Board struct {
	Width  int
	Height int

	squares map[Point]*Piece

	// EnPassantTarget is the square passed over by the last double step,
	// cleared by the next applied move.
	EnPassantTarget *Point
}

func NewBoard(width, height int) *Board {
	return &Board{
		Width:   width,
		Height:  height,
		squares: make(map[Point]*Piece),
	}
}

// StartingFEN is the default 10x10 setup: knooks on the corner files,
// otherwise a widened classical back rank.
const StartingFEN = "ñrnbqkbnrñ/pppppppppp/10/10/10/10/10/10/PPPPPPPPPP/ÑRNBQKBNRÑ w"

// NewStandardBoard seeds the default starting position.
func NewStandardBoard() *Board {
	b, err := BoardFromFEN(StartingFEN)
	if err != nil {
		panic(fmt.Sprintf("bad starting position: %v", err))
	}
	return b
}

func (b *Board) InBounds(p Point) bool {
	return p.X >= 0 && p.X < b.Width && p.Y >= 0 && p.Y < b.Height
}

// PieceAt returns the piece on the square or nil.
func (b *Board) PieceAt(p Point) *Piece {
	return b.squares[p]
}

func (b *Board) SetPiece(p Point, pc *Piece) {
	if pc == nil {
		delete(b.squares, p)
		return
	}
	b.squares[p] = pc
}

func (b *Board) RemovePiece(p Point) { delete(b.squares, p) }

// PiecesOf yields every square/piece pair of one color.
func (b *Board) PiecesOf(c Color) map[Point]*Piece {
	out := make(map[Point]*Piece)
	for sq, pc := range b.squares {
		if pc.Color == c {
			out[sq] = pc
		}
	}
	return out
}

// FindKings returns the squares of all kings of a color. Variant setups may
// field more than one.
func (b *Board) FindKings(c Color) []Point {
	var out []Point
	for sq, pc := range b.squares {
		if pc.Type == King && pc.Color == c {
			out = append(out, sq)
		}
	}
	return out
}

// Clone returns a deep copy sharing nothing with the receiver.
func (b *Board) Clone() *Board {
	nb := NewBoard(b.Width, b.Height)
	for sq, pc := range b.squares {
		cp := *pc
		nb.squares[sq] = &cp
	}
	if b.EnPassantTarget != nil {
		t := *b.EnPassantTarget
		nb.EnPassantTarget = &t
	}
	return nb
}

// ApplyMove mutates the board: captures removed first, then the mover and all
// side-effect movers are lifted together and placed, then promotion and
// spawns. Lifting everything before placing lets side effects land on the
// vacated origin (il vaticano partner swap).
func (b *Board) ApplyMove(mv *Move) {
	for _, c := range mv.Captures {
		b.RemovePiece(c.Square)
	}

	type relocation struct {
		pc *Piece
		to Point
	}
	var relocs []relocation

	lift := func(m *Move) {
		if pc := b.PieceAt(m.From); pc != nil {
			b.RemovePiece(m.From)
			relocs = append(relocs, relocation{pc: pc, to: m.To})
		}
	}
	for _, se := range mv.SideEffects {
		lift(se)
	}
	lift(mv)

	for _, r := range relocs {
		r.pc.TimesMoved++
		b.SetPiece(r.to, r.pc)
	}

	if mv.PromotesTo != nil {
		if pc := b.PieceAt(mv.To); pc != nil {
			pc.Type = *mv.PromotesTo
		}
	}
	for _, sp := range mv.PieceSpawns {
		b.SetPiece(sp.Square, NewPiece(sp.Type, sp.Color))
	}

	b.EnPassantTarget = doubleStepTarget(b, mv)
}

// doubleStepTarget recognizes a pawn double step by shape rather than by the
// special tag, so that moves replayed from wire notation (which drops the
// tag) still arm en passant.
func doubleStepTarget(b *Board, mv *Move) *Point {
	pc := b.PieceAt(mv.To)
	if pc == nil || pc.Type != Pawn {
		return nil
	}
	if mv.From.X != mv.To.X || len(mv.Captures) != 0 {
		return nil
	}
	dy := mv.To.Y - mv.From.Y
	if dy != 2 && dy != -2 {
		return nil
	}
	return &Point{X: mv.From.X, Y: (mv.From.Y + mv.To.Y) / 2}
}

// Fingerprint is the position identity used for repetition detection:
// FEN-style placement plus the side to move.
func (b *Board) Fingerprint(sideToMove Color) string {
	var sb strings.Builder
	for y := b.Height - 1; y >= 0; y-- {
		if y < b.Height-1 {
			sb.WriteByte('/')
		}
		empty := 0
		for x := 0; x < b.Width; x++ {
			pc := b.PieceAt(Point{X: x, Y: y})
			if pc == nil {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			sb.WriteRune(fenLetter(pc.Type, pc.Color))
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
	}
	sb.WriteByte(' ')
	if sideToMove == White {
		sb.WriteByte('w')
	} else {
		sb.WriteByte('b')
	}
	return sb.String()
}

// BoardFromFEN parses a placement string produced by Fingerprint. The side
// to move field is accepted and ignored; turn order is owned by the session.
func BoardFromFEN(fen string) (*Board, error) {
	fields := strings.Fields(strings.TrimSpace(fen))
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty FEN")
	}
	rows := strings.Split(fields[0], "/")
	height := len(rows)
	if height == 0 {
		return nil, fmt.Errorf("empty placement in FEN %q", fen)
	}

	width := 0
	for i, row := range rows {
		w, err := rowWidth(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		if width == 0 {
			width = w
		} else if w != width {
			return nil, fmt.Errorf("ragged FEN row %d: width %d != %d", i, w, width)
		}
	}

	b := NewBoard(width, height)
	for i, row := range rows {
		y := height - 1 - i
		x := 0
		digits := ""
		flush := func() {
			if digits != "" {
				n, _ := strconv.Atoi(digits)
				x += n
				digits = ""
			}
		}
		for _, r := range row {
			if r >= '0' && r <= '9' {
				digits += string(r)
				continue
			}
			flush()
			t, ok := PieceTypeFromLetter(r)
			if !ok {
				return nil, fmt.Errorf("invalid piece letter %q in FEN", string(r))
			}
			b.SetPiece(Point{X: x, Y: y}, NewPiece(t, colorOfLetter(r)))
			x++
		}
		flush()
	}
	return b, nil
}

func rowWidth(row string) (int, error) {
	w := 0
	digits := ""
	for _, r := range row {
		if r >= '0' && r <= '9' {
			digits += string(r)
			continue
		}
		if digits != "" {
			n, err := strconv.Atoi(digits)
			if err != nil {
				return 0, err
			}
			w += n
			digits = ""
		}
		if !isPieceLetter(r) {
			return 0, fmt.Errorf("invalid rune %q", string(r))
		}
		w++
	}
	if digits != "" {
		n, err := strconv.Atoi(digits)
		if err != nil {
			return 0, err
		}
		w += n
	}
	return w, nil
}
