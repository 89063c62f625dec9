package problem

import (
	"strconv"
	"strings"

	"akushu/pkg/shogi"
)

// Problem is one emitted artifact. Field order is the on-disk key order.
type Problem struct {
	ID          int             `json:"id"`
	Date        string          `json:"date"`
	SFEN        string          `json:"sfen"`
	LastMove    *shogi.LastMove `json:"last_move"`
	AnswerHand  []string        `json:"answer_hand"`
	RealHand    string          `json:"real_hand"`
	AfterHands  [][]string      `json:"after_hands"`
	CurrentEval int             `json:"current_eval"`
	AfterEval   int             `json:"after_eval"`
	BlackPlayer string          `json:"black_player"`
	WhitePlayer string          `json:"white_player"`
}

// NewProblem builds the record for a flagged candidate. The id is
// assigned when the problem is written.
func NewProblem(c Candidate, meta Metadata, last *shogi.LastMove) Problem {
	line := make([]string, len(c.PV))
	copy(line, c.PV)
	return Problem{
		Date:        meta.Date,
		SFEN:        c.SFEN,
		LastMove:    last,
		AnswerHand:  []string{c.PV[0]},
		RealHand:    c.RealHand,
		AfterHands:  [][]string{line},
		CurrentEval: c.CurrentEval,
		AfterEval:   c.AfterEval,
		BlackPlayer: meta.BlackPlayer,
		WhitePlayer: meta.WhitePlayer,
	}
}

// Mover is the side to move in the problem position.
func (p Problem) Mover() shogi.Color {
	fields := strings.Fields(p.SFEN)
	if len(fields) >= 2 && fields[1] == "w" {
		return shogi.White
	}
	return shogi.Black
}

// Ply is the number of the move that was played from the position.
func (p Problem) Ply() int {
	fields := strings.Fields(p.SFEN)
	if len(fields) < 4 {
		return 0
	}
	n, err := strconv.Atoi(fields[3])
	if err != nil {
		return 0
	}
	return n
}

// Swing recomputes the corrected evaluation drop.
func (p Problem) Swing() int {
	return Swing(p.CurrentEval, p.AfterEval, p.Mover())
}
