package bank

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"akushu/pkg/problem"
	"akushu/pkg/shogi"
)

// Entry is one problem loaded back from an output directory.
type Entry struct {
	File    string
	Problem problem.Problem
}

// Row is the flat export record of a problem.
type Row struct {
	ID          int32  `parquet:"name=id, type=INT32"`
	File        string `parquet:"name=file, type=BYTE_ARRAY, convertedtype=UTF8"`
	Date        string `parquet:"name=date, type=BYTE_ARRAY, convertedtype=UTF8"`
	Ply         int32  `parquet:"name=ply, type=INT32"`
	Mover       string `parquet:"name=mover, type=BYTE_ARRAY, convertedtype=UTF8"`
	SFEN        string `parquet:"name=sfen, type=BYTE_ARRAY, convertedtype=UTF8"`
	LastMove    string `parquet:"name=last_move, type=BYTE_ARRAY, convertedtype=UTF8"`
	AnswerHand  string `parquet:"name=answer_hand, type=BYTE_ARRAY, convertedtype=UTF8"`
	RealHand    string `parquet:"name=real_hand, type=BYTE_ARRAY, convertedtype=UTF8"`
	AfterHands  string `parquet:"name=after_hands, type=BYTE_ARRAY, convertedtype=UTF8"`
	CurrentEval int32  `parquet:"name=current_eval, type=INT32"`
	AfterEval   int32  `parquet:"name=after_eval, type=INT32"`
	Swing       int32  `parquet:"name=swing, type=INT32"`
	Severity    string `parquet:"name=severity, type=BYTE_ARRAY, convertedtype=UTF8"`
	Comment     string `parquet:"name=comment, type=BYTE_ARRAY, convertedtype=UTF8"`
	BlackPlayer string `parquet:"name=black_player, type=BYTE_ARRAY, convertedtype=UTF8"`
	WhitePlayer string `parquet:"name=white_player, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// Player is the name of the side that made the move.
func (r Row) Player() string {
	if r.Mover == shogi.White.String() {
		return r.WhitePlayer
	}
	return r.BlackPlayer
}

func NewRow(e Entry) Row {
	p := e.Problem
	swing := p.Swing()
	ply := p.Ply()
	row := Row{
		ID:          int32(p.ID),
		File:        e.File,
		Date:        p.Date,
		Ply:         int32(ply),
		Mover:       p.Mover().String(),
		SFEN:        p.SFEN,
		AnswerHand:  strings.Join(p.AnswerHand, " "),
		RealHand:    p.RealHand,
		CurrentEval: int32(p.CurrentEval),
		AfterEval:   int32(p.AfterEval),
		Swing:       int32(swing),
		Severity:    problem.Severity(swing),
		Comment:     problem.Comment(ply, swing),
		BlackPlayer: p.BlackPlayer,
		WhitePlayer: p.WhitePlayer,
	}
	if p.LastMove != nil {
		row.LastMove = p.LastMove.Notation
	}
	if len(p.AfterHands) > 0 {
		row.AfterHands = strings.Join(p.AfterHands[0], " ")
	}
	return row
}

func Rows(entries []Entry) []Row {
	rows := make([]Row, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, NewRow(e))
	}
	return rows
}

// Load reads every problem listed in the manifest of dir, plus any
// artifact on disk the manifest missed. Listed files that no longer exist
// are skipped. parallel bounds the number of files read at once.
func Load(ctx context.Context, dir string, parallel int, log *zap.Logger) ([]Entry, error) {
	if log == nil {
		log = zap.NewNop()
	}
	idx, err := problem.ReadIndex(dir, log)
	if err != nil {
		return nil, err
	}
	_, onDisk, err := problem.ScanArtifacts(dir)
	if err != nil {
		return nil, err
	}
	names := mergeNames(idx.Files(), onDisk)

	if parallel <= 0 {
		parallel = 1
	}
	loaded := make([]*Entry, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i, name := range names {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p, err := problem.Load(filepath.Join(dir, name))
			if errors.Is(err, os.ErrNotExist) {
				log.Debug("listed problem missing on disk", zap.String("file", name))
				return nil
			}
			if err != nil {
				return err
			}
			loaded[i] = &Entry{File: name, Problem: p}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(loaded))
	for _, e := range loaded {
		if e != nil {
			entries = append(entries, *e)
		}
	}
	return entries, nil
}

// mergeNames returns the union of both lists ordered by identifier.
func mergeNames(listed, onDisk []string) []string {
	seen := make(map[string]struct{}, len(listed)+len(onDisk))
	var out []string
	for _, list := range [][]string{listed, onDisk} {
		for _, name := range list {
			if _, ok := seen[name]; ok {
				continue
			}
			if _, ok := problem.ParseArtifactName(name); !ok {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, _ := problem.ParseArtifactName(out[i])
		b, _ := problem.ParseArtifactName(out[j])
		return a < b
	})
	return out
}
