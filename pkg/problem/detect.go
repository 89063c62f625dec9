package problem

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"akushu/pkg/shogi"
)

// Threshold is the smallest swing reported as a problem.
const Threshold = 200

// BlunderThreshold separates 悪手 from 疑問手.
const BlunderThreshold = 500

var ErrEmptyPV = errors.New("empty principal variation")

// Swing is the evaluation lost by the side to move between the position
// before its move (current) and the position after it (after).
//
// Evaluations in the record are from Black's point of view, so the raw
// delta already means "Black lost ground" and is negated when White is
// the mover.
func Swing(current, after int, mover shogi.Color) int {
	diff := current - after
	if mover == shogi.White {
		diff = -diff
	}
	return diff
}

func IsProblem(swing int) bool {
	return swing >= Threshold
}

// Severity labels a swing: 悪手 (blunder) or 疑問手 (dubious move).
func Severity(swing int) string {
	if swing >= BlunderThreshold {
		return "悪手"
	}
	return "疑問手"
}

// Comment is the one-line description used by exports.
func Comment(ply, swing int) string {
	return fmt.Sprintf("%d手目は評価値が%d低下する%s", ply, swing, Severity(swing))
}

// SplitPV splits a principal variation on runs of spaces. The first
// token is the engine's best move.
func SplitPV(pv string) ([]string, error) {
	tokens := strings.FieldsFunc(pv, func(r rune) bool {
		return r == ' ' || r == '　' || r == '\t'
	})
	if len(tokens) == 0 {
		return nil, ErrEmptyPV
	}
	return tokens, nil
}

// Candidate is one flagged (ply, analysis entry) pair.
type Candidate struct {
	Ply         int
	SFEN        string
	Mover       shogi.Color
	RealHand    string
	CurrentEval int
	AfterEval   int
	Swing       int
	PV          []string
}

// Detect compares every entry recorded for a ply against the first entry
// of the following ply and returns the pairs that clear the threshold.
// ok is false when the next ply has no analysis.
func Detect(ply int, sfen string, mover shogi.Color, display string, at, next []AnalysisEntry) ([]Candidate, bool) {
	if len(at) == 0 || len(next) == 0 {
		return nil, false
	}
	after := next[0].Eval
	var out []Candidate
	for _, entry := range at {
		swing := Swing(entry.Eval, after, mover)
		if !IsProblem(swing) {
			continue
		}
		pv, err := SplitPV(entry.PV)
		if err != nil {
			continue
		}
		out = append(out, Candidate{
			Ply:         ply,
			SFEN:        sfen,
			Mover:       mover,
			RealHand:    markerOf(pv[0]) + display,
			CurrentEval: entry.Eval,
			AfterEval:   after,
			Swing:       swing,
			PV:          pv,
		})
	}
	return out, true
}

// markerOf returns the first character of a move, the ▲/△ side marker in
// analysis output.
func markerOf(move string) string {
	r, size := utf8.DecodeRuneInString(move)
	if r == utf8.RuneError {
		return ""
	}
	return move[:size]
}
