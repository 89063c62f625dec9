package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = "../../pkg/problem/testdata/kyo_ochi_blunder.kif"

// resetFlags puts every flag back to its default so one Execute does not
// leak values into the next.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("AKUSHU_INPUT", "")
	t.Setenv("AKUSHU_OUTPUT", "")
	t.Setenv("AKUSHU_LOG_LEVEL", "")
	resetFlags(rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestRootRunsExtract(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "output")
	out, err := execute(t, "--input", fixture, "--output", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "1 problems written to "+dir+" (13 plies)")
	assert.FileExists(t, filepath.Join(dir, "problem_0000.json"))
	assert.FileExists(t, filepath.Join(dir, "index.json"))
}

func TestExtractThenIndex(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "extract", "--input", fixture, "--output", dir)
	require.NoError(t, err)
	_, err = execute(t, "extract", "--input", fixture, "--output", dir)
	require.NoError(t, err)

	out, err := execute(t, "index", "--output", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "next_id: 2\n")
	assert.Contains(t, out, "problems: 2\n")
	assert.Contains(t, out, "problem_0001.json\n")
}

func TestExtractMissingInput(t *testing.T) {
	_, err := execute(t, "extract", "--input", filepath.Join(t.TempDir(), "none.kif"), "--output", t.TempDir())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestExtractUsesConfigFile(t *testing.T) {
	dir := t.TempDir()
	abs, err := filepath.Abs(fixture)
	require.NoError(t, err)
	cfgFile := filepath.Join(dir, "akushu.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("input_path: "+abs+"\noutput_dir: problems\n"), 0o644))

	_, err = execute(t, "extract", "--config", cfgFile)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "problems", "problem_0000.json"))
}

func TestIndexMissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "typo")
	_, err := execute(t, "index", "--output", dir)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.NoDirExists(t, dir)
}

func TestExportFormatFromExtension(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "extract", "--input", fixture, "--output", dir)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "bank.db")
	_, err = execute(t, "export", "--output", dir, "--out", path)
	require.NoError(t, err)

	out, err := execute(t, "stats", "--output", dir, "--in", path)
	require.NoError(t, err)
	assert.Contains(t, out, "problems: 1\n")
}

func TestExportAndStats(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "extract", "--input", fixture, "--output", dir)
	require.NoError(t, err)

	for _, tt := range []struct{ format, file string }{
		{"parquet", "bank.parquet"},
		{"sqlite", "bank.db"},
	} {
		t.Run(tt.format, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			out, err := execute(t, "export", "--output", dir, "--format", tt.format, "--out", path)
			require.NoError(t, err)
			assert.Contains(t, out, "exported 1 problems to "+path)

			out, err = execute(t, "stats", "--output", dir, "--in", path)
			require.NoError(t, err)
			assert.Contains(t, out, "problems: 1\n")
			assert.Contains(t, out, "疑問手: 1\n")
			assert.Contains(t, out, "下手一郎,1,0,250,250.0\n")
		})
	}
}

func TestStatsFromOutputDirectory(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "extract", "--input", fixture, "--output", dir)
	require.NoError(t, err)

	out, err := execute(t, "stats", "--output", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "problems: 1\n")
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "extract", "--input", fixture, "--output", dir)
	require.NoError(t, err)

	_, err = execute(t, "export", "--output", dir, "--format", "csv", "--out", filepath.Join(t.TempDir(), "bank.csv"))
	assert.ErrorContains(t, err, `unknown format "csv"`)
}

func TestFormatOf(t *testing.T) {
	assert.Equal(t, "sqlite", formatOf("bank.db"))
	assert.Equal(t, "sqlite", formatOf("bank.SQLite"))
	assert.Equal(t, "parquet", formatOf("bank.parquet"))
}
