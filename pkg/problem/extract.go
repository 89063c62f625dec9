package problem

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"akushu/pkg/shogi"
)

// GameReader turns the replay stream into a starting position and a
// move list.
type GameReader interface {
	ReadGame(lines []string) (*shogi.Game, error)
}

// EmitFunc persists one problem and returns its artifact name.
type EmitFunc func(p *Problem) (string, error)

type Result struct {
	Plies    int
	Problems []Problem
	Files    []string
	// Unfollowed counts plies with analysis whose next ply has none.
	Unfollowed int
	// Dropped counts trailing analysis entries with no move after them.
	Dropped int
}

type Extractor struct {
	grammar *Grammar
	reader  GameReader
	log     *zap.Logger
}

func NewExtractor(grammar *Grammar, reader GameReader, log *zap.Logger) *Extractor {
	if grammar == nil {
		grammar = DefaultGrammar()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Extractor{grammar: grammar, reader: reader, log: log}
}

// Prepare scans the record and reads the game. Nothing is written, so a
// record without a game fails here before any output exists.
func (x *Extractor) Prepare(lines []string) (Scan, *shogi.Game, error) {
	scan := x.grammar.ScanLines(lines)
	game, err := x.reader.ReadGame(scan.Replay)
	if err != nil {
		return scan, nil, err
	}
	if game == nil || len(game.Plies) == 0 {
		return scan, nil, shogi.ErrNoGame
	}
	if scan.Dropped > 0 {
		x.log.Debug("trailing analysis without a move line dropped", zap.Int("entries", scan.Dropped))
	}
	return scan, game, nil
}

// Replay walks the game ply by ply. For each ply the position before
// the move is serialized, analysed and only then advanced.
func (x *Extractor) Replay(scan Scan, game *shogi.Game, emit EmitFunc) (Result, error) {
	res := Result{Dropped: scan.Dropped}
	pos := game.Start.Clone()
	var last *shogi.LastMove
	for i, ply := range game.Plies {
		n := i + 1
		if _, err := ply.Move.USI(); err != nil {
			return res, fmt.Errorf("ply %d: %w", n, err)
		}
		sfen := pos.SFEN(n)

		if at := scan.Analysis[n]; len(at) > 0 {
			display, err := pos.DisplayMove(ply.Move)
			if err != nil {
				return res, fmt.Errorf("ply %d: %w", n, err)
			}
			candidates, followed := Detect(n, sfen, pos.SideToMove(), display, at, scan.Analysis[n+1])
			if !followed {
				res.Unfollowed++
				x.log.Debug("no analysis for the following ply", zap.Int("ply", n))
			}
			for _, c := range candidates {
				p := NewProblem(c, scan.Metadata, last)
				name, err := emit(&p)
				if err != nil {
					return res, fmt.Errorf("ply %d: %w", n, err)
				}
				res.Problems = append(res.Problems, p)
				res.Files = append(res.Files, name)
				x.log.Info("problem emitted",
					zap.String("file", name),
					zap.Int("ply", n),
					zap.Int("swing", c.Swing),
					zap.String("severity", Severity(c.Swing)),
				)
			}
		}

		desc, err := shogi.DescribeMove(ply.Move)
		if err != nil {
			return res, fmt.Errorf("ply %d: %w", n, err)
		}
		last = &desc
		if err := pos.Apply(ply.Move); err != nil {
			return res, fmt.Errorf("ply %d: %w", n, err)
		}
		res.Plies++
	}
	return res, nil
}

// Run is one full extraction of a record into dir.
func (x *Extractor) Run(lines []string, dir string) (Result, error) {
	scan, game, err := x.Prepare(lines)
	if err != nil {
		return Result{}, err
	}
	index, err := OpenIndex(dir, x.log)
	if err != nil {
		return Result{}, err
	}
	x.log.Debug("index opened", zap.String("dir", dir), zap.Int("next_id", index.NextID()))
	res, err := x.Replay(scan, game, NewEmitter(index).Emit)
	if closeErr := index.Close(); closeErr != nil {
		err = errors.Join(err, closeErr)
	}
	return res, err
}
