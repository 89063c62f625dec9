package shogi

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnrecognizedMove is returned when a Move carries neither a
// structured move nor USI notation.
var ErrUnrecognizedMove = errors.New("unrecognized move representation")

type MoveKind int

const (
	moveUnset MoveKind = iota
	MoveStructured
	MoveNotation
)

// USIMove is the structured form of a move.
type USIMove struct {
	From    Square
	To      Square
	Drop    bool
	Piece   string // dropped piece letter, drops only
	Promote bool
}

// String renders the move in USI notation.
func (m USIMove) String() string {
	if m.Drop {
		return fmt.Sprintf("%s*%s", m.Piece, m.To)
	}
	s := m.From.String() + m.To.String()
	if m.Promote {
		s += "+"
	}
	return s
}

// Move is either a structured move or a USI notation string, as handed
// out by a move-list reader.
type Move struct {
	kind       MoveKind
	structured USIMove
	notation   string
}

func StructuredMove(m USIMove) Move {
	return Move{kind: MoveStructured, structured: m}
}

func NotationMove(usi string) Move {
	return Move{kind: MoveNotation, notation: usi}
}

func (m Move) Kind() MoveKind {
	return m.kind
}

// USI normalizes either representation to USI notation.
func (m Move) USI() (string, error) {
	switch m.kind {
	case MoveStructured:
		return m.structured.String(), nil
	case MoveNotation:
		if _, err := ParseUSI(m.notation); err != nil {
			return "", err
		}
		return m.notation, nil
	default:
		return "", ErrUnrecognizedMove
	}
}

// Parsed returns the structured form, parsing notation when needed.
func (m Move) Parsed() (USIMove, error) {
	switch m.kind {
	case MoveStructured:
		return m.structured, nil
	case MoveNotation:
		return ParseUSI(m.notation)
	default:
		return USIMove{}, ErrUnrecognizedMove
	}
}

func ParseUSI(move string) (USIMove, error) {
	if strings.Contains(move, "*") {
		parts := strings.SplitN(move, "*", 2)
		if len(parts) != 2 || len(parts[0]) != 1 {
			return USIMove{}, fmt.Errorf("invalid drop move: %s", move)
		}
		piece := strings.ToUpper(parts[0])
		if !isPieceLetter(piece[0]) || piece == "K" {
			return USIMove{}, fmt.Errorf("invalid drop piece: %s", move)
		}
		to, err := parseUSISquare(parts[1])
		if err != nil {
			return USIMove{}, err
		}
		return USIMove{Drop: true, Piece: piece, To: to}, nil
	}
	if len(move) != 4 && len(move) != 5 {
		return USIMove{}, fmt.Errorf("invalid move: %s", move)
	}
	from, err := parseUSISquare(move[0:2])
	if err != nil {
		return USIMove{}, err
	}
	to, err := parseUSISquare(move[2:4])
	if err != nil {
		return USIMove{}, err
	}
	promote := false
	if len(move) == 5 {
		if move[4] != '+' {
			return USIMove{}, fmt.Errorf("invalid promotion marker: %s", move)
		}
		promote = true
	}
	return USIMove{From: from, To: to, Promote: promote}, nil
}

func parseUSISquare(text string) (Square, error) {
	if len(text) != 2 {
		return Square{}, fmt.Errorf("invalid square: %s", text)
	}
	s := Square{File: int(text[0] - '0'), Rank: int(text[1]-'a') + 1}
	if !s.valid() {
		return Square{}, fmt.Errorf("invalid square: %s", text)
	}
	return s, nil
}

// LastMove describes a played move for display: where it came from,
// where it went, and whether it was a drop or a promotion.
type LastMove struct {
	Notation    string  `json:"notation"`
	Source      *string `json:"source_square"`
	Destination string  `json:"destination_square"`
	IsDrop      bool    `json:"is_drop"`
	IsPromotion bool    `json:"is_promotion"`
}

func DescribeMove(m Move) (LastMove, error) {
	usi, err := m.Parsed()
	if err != nil {
		return LastMove{}, err
	}
	desc := LastMove{
		Notation:    usi.String(),
		Destination: usi.To.String(),
		IsDrop:      usi.Drop,
		IsPromotion: usi.Promote,
	}
	if !usi.Drop {
		from := usi.From.String()
		desc.Source = &from
	}
	return desc, nil
}
