package problem_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"akushu/pkg/problem"
	"akushu/pkg/shogi"
)

func TestNormalizeLine(t *testing.T) {
	assert.Equal(t, "   8 同 歩(23)", problem.NormalizeLine("   8 同　歩(23)\r"))
	assert.Equal(t, "", problem.NormalizeLine("\r"))
}

func TestClassify(t *testing.T) {
	g := problem.DefaultGrammar()

	tests := []struct {
		name string
		text string
		want problem.Line
	}{
		{
			name: "date header",
			text: "開始日時：2024/03/09 10:00:00",
			want: problem.Line{Kind: problem.LineMetadata, Text: "開始日時：2024/03/09 10:00:00", Date: "2024/03/09"},
		},
		{
			name: "black player",
			text: "先手：先手太郎",
			want: problem.Line{Kind: problem.LineMetadata, Text: "先手：先手太郎", Player: &problem.PlayerDecl{Side: shogi.Black, Name: "先手太郎"}},
		},
		{
			name: "handicap upper player",
			text: "上手：上手次郎",
			want: problem.Line{Kind: problem.LineMetadata, Text: "上手：上手次郎", Player: &problem.PlayerDecl{Side: shogi.White, Name: "上手次郎"}},
		},
		{
			name: "analysis",
			text: "**解析 0 ○ 候補1 時間 00:01.0 深さ 18/30 評価値 -120 読み筋 △３四歩(33) ▲７六歩(77)",
			want: problem.Line{
				Kind:  problem.LineCommentary,
				Text:  "**解析 0 ○ 候補1 時間 00:01.0 深さ 18/30 評価値 -120 読み筋 △３四歩(33) ▲７六歩(77)",
				Entry: &problem.AnalysisEntry{Eval: -120, PV: "△３四歩(33) ▲７六歩(77)"},
			},
		},
		{
			name: "commentary without analysis",
			text: "**解析 0 ○ 詰み",
			want: problem.Line{Kind: problem.LineCommentary, Text: "**解析 0 ○ 詰み"},
		},
		{
			name: "move line",
			text: "  12 ２二飛成(24)   ( 0:01/00:00:06)",
			want: problem.Line{Kind: problem.LineMove, Text: "  12 ２二飛成(24)   ( 0:01/00:00:06)", Ply: 12},
		},
		{
			name: "other",
			text: "手合割：平手",
			want: problem.Line{Kind: problem.LineOther, Text: "手合割：平手"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := g.Classify(tt.text)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Classify() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMetadataLaterLinesWin(t *testing.T) {
	g := problem.DefaultGrammar()
	var meta problem.Metadata
	for _, text := range []string{
		"開始日時：2024/03/09 10:00:00",
		"先手：最初の名前",
		"後手：後手花子",
		"先手：先手太郎",
		"終了日時：2024/03/10 11:00:00",
	} {
		meta.Apply(g.Classify(text))
	}
	assert.Equal(t, problem.Metadata{Date: "2024/03/10", BlackPlayer: "先手太郎", WhitePlayer: "後手花子"}, meta)
}

func TestCorrelate(t *testing.T) {
	g := problem.DefaultGrammar()
	a := g.Classify("**解析 0 評価値 10 読み筋 ▲７六歩(77)")
	b := g.Classify("**解析 0 評価値 20 読み筋 ▲２六歩(27)")
	move := g.Classify("   5 ７六歩(77)   ( 0:01/00:00:01)")

	pending, assigned := problem.Correlate(nil, move)
	assert.Empty(t, pending)
	assert.Empty(t, assigned)

	pending, assigned = problem.Correlate(nil, a)
	require.Len(t, pending, 1)
	assert.Empty(t, assigned)

	first := pending
	pending, _ = problem.Correlate(pending, b)
	require.Len(t, pending, 2)
	assert.Len(t, first, 1, "correlate must not mutate the previous queue")

	pending, _ = problem.Correlate(pending, g.Classify("手合割：平手"))
	require.Len(t, pending, 2)

	pending, assigned = problem.Correlate(pending, move)
	assert.Empty(t, pending)
	assert.Equal(t, []problem.Assignment{
		{Ply: 5, Entry: problem.AnalysisEntry{Eval: 10, PV: "▲７六歩(77)"}},
		{Ply: 5, Entry: problem.AnalysisEntry{Eval: 20, PV: "▲２六歩(27)"}},
	}, assigned)
}

func TestScanLines(t *testing.T) {
	lines, err := shogi.ReadLines("testdata/aigakari_analysis.kif")
	require.NoError(t, err)

	scan := problem.DefaultGrammar().ScanLines(lines)

	assert.Equal(t, problem.Metadata{Date: "2024/03/09", BlackPlayer: "先手太郎", WhitePlayer: "後手花子"}, scan.Metadata)
	assert.Equal(t, 1, scan.Dropped)
	assert.Len(t, scan.Analysis[7], 2)
	assert.Equal(t, -300, scan.Analysis[8][0].Eval)
	assert.Empty(t, scan.Analysis[6])
	assert.Equal(t, "▲６八玉(59)  △３四歩(33) ▲７六歩(77)", scan.Analysis[7][1].PV)
	for _, text := range scan.Replay {
		assert.NotContains(t, text, problem.CommentaryPrefix)
	}
}
