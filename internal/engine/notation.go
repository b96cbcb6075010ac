package engine

import (
	"fmt"
	"strings"
)

// Machine notation is built recursively: the traversed path as concatenated
// squares, then "x"-prefixed captures (colored letter + square), then
// "*"-prefixed spawns, then an optional "=" promotion, then each side effect
// after a "|" separator. DecodeMove is the exact inverse.

// EncodeMove renders the compact machine notation for a move.
func EncodeMove(mv *Move) string {
	var sb strings.Builder
	sb.WriteString(mv.From.String())
	for _, p := range mv.Through {
		sb.WriteString(p.String())
	}
	sb.WriteString(mv.To.String())
	for _, c := range mv.Captures {
		sb.WriteByte('x')
		sb.WriteRune(fenLetter(c.Piece.Type, c.Piece.Color))
		sb.WriteString(c.Square.String())
	}
	for _, sp := range mv.PieceSpawns {
		sb.WriteByte('*')
		sb.WriteRune(fenLetter(sp.Type, sp.Color))
		sb.WriteString(sp.Square.String())
	}
	if mv.PromotesTo != nil {
		sb.WriteByte('=')
		sb.WriteRune(mv.PromotesTo.Letter())
	}
	for _, se := range mv.SideEffects {
		sb.WriteByte('|')
		sb.WriteString(EncodeMove(se))
	}
	return sb.String()
}

// DecodeMove parses machine notation back into a move. Piece identity inside
// captures and spawns is recovered from the colored letter; TimesMoved and
// trigger squares are not part of the wire form.
func DecodeMove(s string) (*Move, error) {
	mv, rest, err := decodeMove([]rune(s))
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("trailing input %q in move %q", string(rest), s)
	}
	return mv, nil
}

func decodeMove(in []rune) (*Move, []rune, error) {
	// Files run a-j on the 10-wide board, so the markers ('x', '*', '=',
	// '|') never collide with a path square's file letter.
	var squares []Point
	for len(in) > 0 && in[0] >= 'a' && in[0] <= 'j' {
		sq, rest, err := decodeSquare(in)
		if err != nil {
			return nil, nil, err
		}
		squares = append(squares, sq)
		in = rest
	}
	if len(squares) < 2 {
		return nil, nil, fmt.Errorf("move path needs at least two squares")
	}
	mv := &Move{
		From: squares[0],
		To:   squares[len(squares)-1],
	}
	if len(squares) > 2 {
		mv.Through = squares[1 : len(squares)-1]
	}

	for len(in) > 0 {
		switch in[0] {
		case 'x':
			pc, sq, rest, err := decodePieceSquare(in[1:])
			if err != nil {
				return nil, nil, fmt.Errorf("capture: %w", err)
			}
			mv.Captures = append(mv.Captures, Capture{Piece: pc, Square: sq})
			in = rest
		case '*':
			pc, sq, rest, err := decodePieceSquare(in[1:])
			if err != nil {
				return nil, nil, fmt.Errorf("spawn: %w", err)
			}
			mv.PieceSpawns = append(mv.PieceSpawns, Spawn{Type: pc.Type, Color: pc.Color, Square: sq})
			in = rest
		case '=':
			if len(in) < 2 {
				return nil, nil, fmt.Errorf("dangling promotion marker")
			}
			t, ok := PieceTypeFromLetter(in[1])
			if !ok {
				return nil, nil, fmt.Errorf("invalid promotion letter %q", string(in[1]))
			}
			mv.PromotesTo = promoteTo(t)
			in = in[2:]
		case '|':
			se, rest, err := decodeMove(in[1:])
			if err != nil {
				return nil, nil, err
			}
			mv.SideEffects = append(mv.SideEffects, se)
			in = rest
		default:
			return mv, in, nil
		}
	}
	return mv, in, nil
}

func decodeSquare(in []rune) (Point, []rune, error) {
	if len(in) < 2 {
		return Point{}, nil, fmt.Errorf("truncated square %q", string(in))
	}
	file := in[0]
	if file < 'a' || file > 'z' {
		return Point{}, nil, fmt.Errorf("invalid file %q", string(file))
	}
	i := 1
	for i < len(in) && in[i] >= '0' && in[i] <= '9' {
		i++
	}
	if i == 1 {
		return Point{}, nil, fmt.Errorf("square %q missing rank", string(in))
	}
	pt, err := ParsePoint(string(in[:i]))
	if err != nil {
		return Point{}, nil, err
	}
	return pt, in[i:], nil
}

func decodePieceSquare(in []rune) (Piece, Point, []rune, error) {
	if len(in) < 3 {
		return Piece{}, Point{}, nil, fmt.Errorf("truncated piece reference %q", string(in))
	}
	t, ok := PieceTypeFromLetter(in[0])
	if !ok {
		return Piece{}, Point{}, nil, fmt.Errorf("invalid piece letter %q", string(in[0]))
	}
	color := colorOfLetter(in[0])
	sq, rest, err := decodeSquare(in[1:])
	if err != nil {
		return Piece{}, Point{}, nil, err
	}
	return Piece{Type: t, Color: color}, sq, rest, nil
}

// EncodeSAN renders human-readable algebraic notation. The board is the
// position before the move; legal is the full legal-move set of the mover's
// color, used for disambiguation.
func EncodeSAN(b *Board, mv *Move, legal []*Move) string {
	switch mv.Special {
	case SpecialCastleKingside:
		return "O-O"
	case SpecialCastleQueenside:
		return "O-O-O"
	case SpecialCastleVertical:
		return "O-O-O-O"
	}

	pc := b.PieceAt(mv.From)
	if pc == nil {
		return EncodeMove(mv)
	}

	if mv.Special == SpecialBetaDecay {
		var sb strings.Builder
		sb.WriteRune(pc.Type.Letter())
		sb.WriteString(mv.From.String())
		sb.WriteByte('*')
		for _, sp := range mv.PieceSpawns {
			sb.WriteRune(sp.Type.Letter())
		}
		return sb.String()
	}

	var sb strings.Builder
	captureOnLanding := mv.capturesSquare(mv.To)

	if pc.Type == Pawn {
		if mv.IsCapture() {
			sb.WriteByte(byte('a' + mv.From.X))
		}
	} else {
		sb.WriteRune(pc.Type.Letter())
		sb.WriteString(disambiguation(b, mv, pc, legal))
	}
	if captureOnLanding {
		sb.WriteByte('x')
	}
	sb.WriteString(mv.To.String())

	for _, c := range mv.Captures {
		if c.Square == mv.To || c.Square == mv.From {
			continue
		}
		sb.WriteByte('x')
		sb.WriteString(c.Square.String())
	}

	if mv.PromotesTo != nil {
		sb.WriteByte('=')
		sb.WriteRune(mv.PromotesTo.Letter())
	}
	return sb.String()
}

// disambiguation compares candidates sharing the destination and piece type:
// file is added when ranks collide, rank when files collide.
func disambiguation(b *Board, mv *Move, pc *Piece, legal []*Move) string {
	var needFile, needRank, any bool
	for _, cand := range legal {
		if cand.To != mv.To || cand.From == mv.From {
			continue
		}
		other := b.PieceAt(cand.From)
		if other == nil || other.Type != pc.Type || other.Color != pc.Color {
			continue
		}
		any = true
		if cand.From.Y == mv.From.Y {
			needFile = true
		}
		if cand.From.X == mv.From.X {
			needRank = true
		}
	}
	if !any {
		return ""
	}
	if !needFile && !needRank {
		needFile = true
	}
	var sb strings.Builder
	if needFile {
		sb.WriteByte(byte('a' + mv.From.X))
	}
	if needRank {
		sb.WriteString(fmt.Sprintf("%d", mv.From.Y+1))
	}
	return sb.String()
}
