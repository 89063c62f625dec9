package problem

import (
	"regexp"
	"strconv"
	"strings"

	"akushu/pkg/shogi"
)

// CommentaryPrefix marks an engine analysis line in the record.
const CommentaryPrefix = "**解析"

// Grammar holds the line patterns of an annotated record. Build it once
// with DefaultGrammar and pass it to the scanner.
type Grammar struct {
	Date       *regexp.Regexp
	Player     *regexp.Regexp
	Analysis   *regexp.Regexp
	MoveNumber *regexp.Regexp
	Prefix     string
	// side marker → side; 下手/上手 are the handicap names.
	Sides map[string]shogi.Color
}

func DefaultGrammar() *Grammar {
	return &Grammar{
		Date:       regexp.MustCompile(`\d{4}/\d{2}/\d{2}`),
		Player:     regexp.MustCompile(`^(先手|後手|下手|上手)：(.*)$`),
		Analysis:   regexp.MustCompile(`評価値\s*([+-]?\d+)\s+読み筋\s+(.+)$`),
		MoveNumber: regexp.MustCompile(`^\s*(\d+)`),
		Prefix:     CommentaryPrefix,
		Sides: map[string]shogi.Color{
			"先手": shogi.Black,
			"下手": shogi.Black,
			"後手": shogi.White,
			"上手": shogi.White,
		},
	}
}

type AnalysisEntry struct {
	Eval int
	PV   string
}

type Metadata struct {
	Date        string
	BlackPlayer string
	WhitePlayer string
}

type LineKind int

const (
	LineOther LineKind = iota
	LineMetadata
	LineCommentary
	LineMove
)

type PlayerDecl struct {
	Side shogi.Color
	Name string
}

// Line is one classified input line.
type Line struct {
	Kind   LineKind
	Text   string
	Date   string
	Player *PlayerDecl
	Entry  *AnalysisEntry // commentary whose analysis pattern matched
	Ply    int            // move lines only
}

// NormalizeLine trims the line ending and turns full-width spaces into
// ASCII spaces.
func NormalizeLine(raw string) string {
	return strings.ReplaceAll(strings.TrimRight(raw, "\r"), "　", " ")
}

// Classify inspects one normalized line. Date and player checks always
// run, so a commentary line can still update metadata.
func (g *Grammar) Classify(text string) Line {
	line := Line{Kind: LineOther, Text: text}
	metadata := false
	if date := g.Date.FindString(text); date != "" {
		line.Date = date
		metadata = true
	}
	if m := g.Player.FindStringSubmatch(text); m != nil {
		if side, ok := g.Sides[m[1]]; ok {
			line.Player = &PlayerDecl{Side: side, Name: strings.TrimRight(m[2], "\r")}
			metadata = true
		}
	}
	switch {
	case strings.HasPrefix(text, g.Prefix):
		line.Kind = LineCommentary
		if m := g.Analysis.FindStringSubmatch(text); m != nil {
			if eval, err := strconv.Atoi(m[1]); err == nil {
				line.Entry = &AnalysisEntry{Eval: eval, PV: m[2]}
			}
		}
	case g.MoveNumber.MatchString(text):
		ply, err := strconv.Atoi(g.MoveNumber.FindStringSubmatch(text)[1])
		if err == nil {
			line.Kind = LineMove
			line.Ply = ply
		}
	case metadata:
		line.Kind = LineMetadata
	}
	return line
}

// IsCommentary reports whether the line is dropped from the replay stream.
func (g *Grammar) IsCommentary(text string) bool {
	return strings.HasPrefix(text, g.Prefix)
}

// Apply folds a classified line into the metadata. Later lines win.
func (m *Metadata) Apply(line Line) {
	if line.Date != "" {
		m.Date = line.Date
	}
	if p := line.Player; p != nil {
		if p.Side == shogi.Black {
			m.BlackPlayer = p.Name
		} else {
			m.WhitePlayer = p.Name
		}
	}
}
