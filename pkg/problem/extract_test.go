package problem_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"akushu/pkg/problem"
	"akushu/pkg/shogi"
)

func readFixture(t *testing.T, name string) []string {
	t.Helper()
	lines, err := shogi.ReadLines(filepath.Join("testdata", name))
	require.NoError(t, err)
	return lines
}

func newExtractor(t *testing.T) *problem.Extractor {
	t.Helper()
	return problem.NewExtractor(nil, shogi.Reader{}, zaptest.NewLogger(t))
}

func ptr(s string) *string { return &s }

func TestRunHandicapBlunder(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "output")
	res, err := newExtractor(t).Run(readFixture(t, "kyo_ochi_blunder.kif"), dir)
	require.NoError(t, err)

	assert.Equal(t, 13, res.Plies)
	assert.Equal(t, 1, res.Unfollowed)
	require.Equal(t, []string{"problem_0000.json"}, res.Files)

	got, err := problem.Load(filepath.Join(dir, "problem_0000.json"))
	require.NoError(t, err)
	want := problem.Problem{
		ID:   0,
		Date: "2024/05/01",
		SFEN: "lnsg2sn1/1r3kgb1/2ppppp1p/p6R1/1p7/9/PPPPPPP1P/1BG6/LNS1KGSNL b Pp 12",
		LastMove: &shogi.LastMove{
			Notation:    "9c9d",
			Source:      ptr("9c"),
			Destination: "9d",
		},
		AnswerHand:  []string{"▲７六歩(77)"},
		RealHand:    "▲２二飛成(24)",
		AfterHands:  [][]string{{"▲７六歩(77)", "△３四歩(33)", "▲６六歩(67)"}},
		CurrentEval: 500,
		AfterEval:   250,
		BlackPlayer: "下手一郎",
		WhitePlayer: "上手次郎",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("problem mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 250, got.Swing())
	assert.Equal(t, 12, got.Ply())

	raw, err := os.ReadFile(filepath.Join(dir, "problem_0000.json"))
	require.NoError(t, err)
	text := string(raw)
	assert.Contains(t, text, `"real_hand": "▲２二飛成(24)"`)
	assert.True(t, strings.HasSuffix(text, "\n"))
	keys := []string{`"id"`, `"date"`, `"sfen"`, `"last_move"`, `"answer_hand"`, `"real_hand"`,
		`"after_hands"`, `"current_eval"`, `"after_eval"`, `"black_player"`, `"white_player"`}
	prev := -1
	for _, key := range keys {
		at := strings.Index(text, key)
		require.Greater(t, at, prev, "key %s out of order", key)
		prev = at
	}

	m := readManifest(t, dir)
	assert.EqualValues(t, 1, m["next_id"])
	assert.Equal(t, []any{"problem_0000.json"}, m["problems"])
}

func TestRunEvenGameWithMultipleEntries(t *testing.T) {
	dir := t.TempDir()
	res, err := newExtractor(t).Run(readFixture(t, "aigakari_analysis.kif"), dir)
	require.NoError(t, err)

	assert.Equal(t, 12, res.Plies)
	assert.Equal(t, 2, res.Unfollowed)
	assert.Equal(t, 1, res.Dropped)
	require.Len(t, res.Problems, 4)

	type summary struct {
		ID, Ply, Current, After, Swing int
		Real, Last                     string
	}
	var got []summary
	for _, p := range res.Problems {
		got = append(got, summary{p.ID, p.Ply(), p.CurrentEval, p.AfterEval, p.Swing(), p.RealHand, p.LastMove.Notation})
	}
	want := []summary{
		{0, 2, 50, 300, 250, "△８四歩(83)", "2g2f"},
		{1, 3, 300, 100, 200, "▲２五歩(26)", "8c8d"},
		{2, 7, 0, -300, 300, "▲２四歩(25)", "4a3b"},
		{3, 7, 150, -300, 450, "▲２四歩(25)", "4a3b"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("problems mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, "lnsgkgsnl/1r5b1/ppppppppp/9/9/7P1/PPPPPPP1P/1B5R1/LNSGKGSNL w - 2", res.Problems[0].SFEN)
	assert.Equal(t, []string{"▲６八玉(59)", "△３四歩(33)", "▲７六歩(77)"}, res.Problems[3].AfterHands[0])
	assert.Equal(t, []string{"▲６八玉(59)"}, res.Problems[3].AnswerHand)

	_, names, err := problem.ScanArtifacts(dir)
	require.NoError(t, err)
	assert.Equal(t, res.Files, names)
}

func TestRunAppendsAcrossRuns(t *testing.T) {
	dir := t.TempDir()
	lines := readFixture(t, "kyo_ochi_blunder.kif")
	x := newExtractor(t)

	_, err := x.Run(lines, dir)
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(dir, "problem_0000.json")))

	res, err := x.Run(lines, dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"problem_0001.json"}, res.Files)

	m := readManifest(t, dir)
	assert.EqualValues(t, 2, m["next_id"])
	assert.Equal(t, []any{"problem_0000.json", "problem_0001.json"}, m["problems"])
}

func TestRunWithoutAnalysisEmitsNothing(t *testing.T) {
	dir := t.TempDir()
	lines, err := shogi.ReadLines("../shogi/testdata/basic_aigakari.kif")
	require.NoError(t, err)

	res, err := newExtractor(t).Run(lines, dir)
	require.NoError(t, err)
	assert.Equal(t, 12, res.Plies)
	assert.Empty(t, res.Files)

	m := readManifest(t, dir)
	assert.EqualValues(t, 0, m["next_id"])
	assert.Equal(t, []any{}, m["problems"])
}

func TestRunIgnoresVariations(t *testing.T) {
	lines := readFixture(t, "variation.kif")
	scan := problem.DefaultGrammar().ScanLines(lines)
	assert.Equal(t, []problem.AnalysisEntry{{Eval: 60, PV: "▲２五歩(26) △８五歩(84)"}}, scan.Analysis[3])
	assert.Equal(t, 0, scan.Dropped)

	dir := t.TempDir()
	res, err := newExtractor(t).Run(lines, dir)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Plies)
	assert.Empty(t, res.Files)

	_, names, err := problem.ScanArtifacts(dir)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestRunWithoutGameWritesNothing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "output")
	lines := []string{
		"開始日時：2024/03/09 10:00:00",
		"手合割：平手",
		"**解析 0 評価値 40 読み筋 ▲２六歩(27)",
	}
	_, err := newExtractor(t).Run(lines, dir)
	require.ErrorIs(t, err, shogi.ErrNoGame)
	assert.NoDirExists(t, dir)
}

type fixedReader struct {
	game *shogi.Game
}

func (r fixedReader) ReadGame([]string) (*shogi.Game, error) {
	return r.game, nil
}

func TestRunRejectsUnrecognizedMove(t *testing.T) {
	start, err := shogi.ParseSFEN(shogi.StandardSFEN)
	require.NoError(t, err)
	game := &shogi.Game{
		Start: start,
		Plies: []shogi.Ply{
			{Number: 1, Move: shogi.NotationMove("7g7f")},
			{Number: 2, Move: shogi.Move{}},
		},
	}
	x := problem.NewExtractor(nil, fixedReader{game: game}, zaptest.NewLogger(t))
	res, err := x.Run([]string{"   1 ７六歩(77)"}, t.TempDir())
	require.ErrorIs(t, err, shogi.ErrUnrecognizedMove)
	assert.Equal(t, 1, res.Plies)
}
