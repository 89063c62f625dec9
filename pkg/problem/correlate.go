package problem

import "akushu/pkg/shogi"

// Assignment attaches one analysis entry to the ply it describes.
type Assignment struct {
	Ply   int
	Entry AnalysisEntry
}

// Correlate is the pending-queue state machine. Commentary appends to
// the queue; a move-number line hands every pending entry to that ply
// and empties the queue. Other lines leave the state untouched.
func Correlate(pending []AnalysisEntry, line Line) ([]AnalysisEntry, []Assignment) {
	switch line.Kind {
	case LineCommentary:
		if line.Entry == nil {
			return pending, nil
		}
		next := make([]AnalysisEntry, len(pending), len(pending)+1)
		copy(next, pending)
		return append(next, *line.Entry), nil
	case LineMove:
		if len(pending) == 0 {
			return pending, nil
		}
		out := make([]Assignment, 0, len(pending))
		for _, entry := range pending {
			out = append(out, Assignment{Ply: line.Ply, Entry: entry})
		}
		return nil, out
	default:
		return pending, nil
	}
}

// Scan is the result of one pass over the record.
type Scan struct {
	Analysis map[int][]AnalysisEntry
	Metadata Metadata
	// Replay holds every non-commentary line, for the move-list reader.
	Replay []string
	// Dropped counts trailing entries with no move line after them.
	Dropped int
}

// ScanLines classifies every line of the main line once, correlates
// analysis with plies and collects metadata. Scanning stops at the first
// variation block.
func (g *Grammar) ScanLines(raw []string) Scan {
	scan := Scan{Analysis: make(map[int][]AnalysisEntry)}
	var pending []AnalysisEntry
	for _, r := range raw {
		text := NormalizeLine(r)
		if shogi.IsVariationStart(text) {
			break
		}
		line := g.Classify(text)
		scan.Metadata.Apply(line)
		var assigned []Assignment
		pending, assigned = Correlate(pending, line)
		for _, a := range assigned {
			scan.Analysis[a.Ply] = append(scan.Analysis[a.Ply], a.Entry)
		}
		if !g.IsCommentary(text) {
			scan.Replay = append(scan.Replay, text)
		}
	}
	scan.Dropped = len(pending)
	return scan
}
