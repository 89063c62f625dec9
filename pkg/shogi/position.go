package shogi

import (
	"errors"
	"fmt"
	"strings"
)

type Color int

const (
	Black Color = iota
	White
)

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

// Opponent returns the other side.
func (c Color) Opponent() Color {
	if c == Black {
		return White
	}
	return Black
}

type Square struct {
	File int
	Rank int
}

func (s Square) valid() bool {
	return s.File >= 1 && s.File <= 9 && s.Rank >= 1 && s.Rank <= 9
}

// String formats the square in USI notation ("7g").
func (s Square) String() string {
	return fmt.Sprintf("%d%c", s.File, rankToLetter(s.Rank))
}

type Piece struct {
	Kind     string
	Color    Color
	Promoted bool
}

// Position is a board, both hands and the side to move. It does not
// check legality beyond what is needed to apply a move.
type Position struct {
	board  [9][9]*Piece
	hands  map[Color]map[string]int
	turn   Color
	lastTo *Square
}

const StandardSFEN = "lnsgkgsnl/1r5b1/ppppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSNL b - 1"

func NewPosition() Position {
	return Position{
		hands: map[Color]map[string]int{
			Black: {},
			White: {},
		},
	}
}

// ParseSFEN builds a position from an SFEN string. The move number
// field is accepted but not retained.
func ParseSFEN(sfen string) (Position, error) {
	fields := strings.Fields(sfen)
	if len(fields) < 3 {
		return Position{}, fmt.Errorf("invalid sfen: %s", sfen)
	}
	pos := NewPosition()
	switch fields[1] {
	case "b":
		pos.turn = Black
	case "w":
		pos.turn = White
	default:
		return Position{}, fmt.Errorf("invalid side to move %q", fields[1])
	}
	if err := parseBoardSFEN(fields[0], &pos); err != nil {
		return Position{}, err
	}
	if err := parseHandsSFEN(fields[2], &pos); err != nil {
		return Position{}, err
	}
	return pos, nil
}

func parseBoardSFEN(board string, pos *Position) error {
	ranks := strings.Split(board, "/")
	if len(ranks) != 9 {
		return fmt.Errorf("invalid board ranks: %d", len(ranks))
	}
	for rankIndex, rankText := range ranks {
		file := 9
		for i := 0; i < len(rankText); i++ {
			c := rankText[i]
			if c >= '1' && c <= '9' {
				file -= int(c - '0')
				continue
			}
			promoted := false
			if c == '+' {
				promoted = true
				i++
				if i >= len(rankText) {
					return errors.New("dangling promotion marker")
				}
				c = rankText[i]
			}
			color := Black
			if c >= 'a' && c <= 'z' {
				color = White
				c -= 'a' - 'A'
			}
			if !isPieceLetter(c) {
				return fmt.Errorf("unknown sfen piece %c", c)
			}
			if file < 1 {
				return errors.New("too many files in rank")
			}
			pos.board[rankIndex][file-1] = &Piece{Kind: string(c), Color: color, Promoted: promoted}
			file--
		}
		if file != 0 {
			return fmt.Errorf("rank %d does not have 9 files", rankIndex+1)
		}
	}
	return nil
}

func isPieceLetter(c byte) bool {
	return strings.IndexByte("PLNSGBRK", c) >= 0
}

func parseHandsSFEN(hand string, pos *Position) error {
	if hand == "-" {
		return nil
	}
	count := 0
	for i := 0; i < len(hand); i++ {
		c := hand[i]
		if c >= '0' && c <= '9' {
			count = count*10 + int(c-'0')
			continue
		}
		if count == 0 {
			count = 1
		}
		color := Black
		if c >= 'a' && c <= 'z' {
			color = White
			c -= 'a' - 'A'
		}
		if !isPieceLetter(c) || c == 'K' {
			return fmt.Errorf("unknown hand piece %c", c)
		}
		pos.hands[color][string(c)] += count
		count = 0
	}
	if count != 0 {
		return errors.New("trailing hand count")
	}
	return nil
}

func (p Position) Clone() Position {
	clone := NewPosition()
	clone.turn = p.turn
	if p.lastTo != nil {
		last := *p.lastTo
		clone.lastTo = &last
	}
	for r := 0; r < 9; r++ {
		for f := 0; f < 9; f++ {
			if p.board[r][f] == nil {
				continue
			}
			piece := *p.board[r][f]
			clone.board[r][f] = &piece
		}
	}
	for color, hand := range p.hands {
		for key, val := range hand {
			clone.hands[color][key] = val
		}
	}
	return clone
}

func (p *Position) SideToMove() Color {
	return p.turn
}

func (p *Position) SetTurn(c Color) {
	p.turn = c
}

// SetPiece places a piece on file/rank (1-based).
func (p *Position) SetPiece(file, rank int, kind string, color Color, promoted bool) {
	p.setPiece(Square{File: file, Rank: rank}, &Piece{Kind: kind, Color: color, Promoted: promoted})
}

func (p *Position) PieceAt(s Square) *Piece {
	if !s.valid() {
		return nil
	}
	return p.board[s.Rank-1][s.File-1]
}

// LastDestination is the destination square of the most recently
// applied move, or nil before the first move.
func (p *Position) LastDestination() *Square {
	return p.lastTo
}

// SFEN serializes the position; moveNumber is the SFEN move counter.
func (p *Position) SFEN(moveNumber int) string {
	rows := make([]string, 0, 9)
	for rank := 1; rank <= 9; rank++ {
		rows = append(rows, p.rankToSFEN(rank))
	}
	turn := "b"
	if p.turn == White {
		turn = "w"
	}
	hand := buildHands(p.hands[Black], p.hands[White])
	if hand == "" {
		hand = "-"
	}
	return fmt.Sprintf("%s %s %s %d", strings.Join(rows, "/"), turn, hand, moveNumber)
}

func (p *Position) rankToSFEN(rank int) string {
	var b strings.Builder
	empty := 0
	for file := 9; file >= 1; file-- {
		piece := p.board[rank-1][file-1]
		if piece == nil {
			empty++
			continue
		}
		if empty > 0 {
			fmt.Fprintf(&b, "%d", empty)
			empty = 0
		}
		text := piece.Kind
		if piece.Promoted {
			text = "+" + text
		}
		if piece.Color == White {
			text = strings.ToLower(text)
		}
		b.WriteString(text)
	}
	if empty > 0 {
		fmt.Fprintf(&b, "%d", empty)
	}
	return b.String()
}

var handOrder = []string{"R", "B", "G", "S", "N", "L", "P"}

func buildHands(black, white map[string]int) string {
	var b strings.Builder
	for _, piece := range handOrder {
		if count := black[piece]; count > 0 {
			if count > 1 {
				fmt.Fprintf(&b, "%d", count)
			}
			b.WriteString(piece)
		}
	}
	for _, piece := range handOrder {
		if count := white[piece]; count > 0 {
			if count > 1 {
				fmt.Fprintf(&b, "%d", count)
			}
			b.WriteString(strings.ToLower(piece))
		}
	}
	return b.String()
}

// Apply plays a move for the side to move. Only the minimum needed to
// keep the board consistent is checked: a piece of the right color on
// the source square, a piece in hand for drops, no self-capture.
func (p *Position) Apply(m Move) error {
	usi, err := m.Parsed()
	if err != nil {
		return err
	}
	if usi.Drop {
		err = p.applyDrop(usi)
	} else {
		err = p.applyBoardMove(usi)
	}
	if err != nil {
		return err
	}
	to := usi.To
	p.lastTo = &to
	p.turn = p.turn.Opponent()
	return nil
}

func (p *Position) applyDrop(move USIMove) error {
	hand := p.hands[p.turn]
	if hand[move.Piece] == 0 {
		return fmt.Errorf("no %s in hand", move.Piece)
	}
	if p.PieceAt(move.To) != nil {
		return errors.New("drop destination occupied")
	}
	hand[move.Piece]--
	if hand[move.Piece] == 0 {
		delete(hand, move.Piece)
	}
	p.setPiece(move.To, &Piece{Kind: move.Piece, Color: p.turn})
	return nil
}

func (p *Position) applyBoardMove(move USIMove) error {
	piece := p.PieceAt(move.From)
	if piece == nil {
		return fmt.Errorf("no piece at %s", move.From)
	}
	if piece.Color != p.turn {
		return errors.New("moving opponent piece")
	}
	moved := *piece
	if move.Promote {
		if moved.Kind == "K" || moved.Kind == "G" {
			return errors.New("cannot promote king or gold")
		}
		moved.Promoted = true
	}
	if captured := p.PieceAt(move.To); captured != nil {
		if captured.Color == p.turn {
			return errors.New("capturing own piece")
		}
		p.hands[p.turn][captured.Kind]++
	}
	p.setPiece(move.From, nil)
	p.setPiece(move.To, &moved)
	return nil
}

func (p *Position) setPiece(s Square, piece *Piece) {
	if !s.valid() {
		return
	}
	if piece == nil {
		p.board[s.Rank-1][s.File-1] = nil
		return
	}
	cp := *piece
	p.board[s.Rank-1][s.File-1] = &cp
}

func rankToLetter(rank int) byte {
	return byte('a' + rank - 1)
}
