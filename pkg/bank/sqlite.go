package bank

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "modernc.org/sqlite" // SQLite driver
)

const createProblems = `
	CREATE TABLE IF NOT EXISTS problems (
		id INTEGER PRIMARY KEY,
		file TEXT NOT NULL,
		date TEXT NOT NULL,
		ply INTEGER NOT NULL,
		mover TEXT NOT NULL,
		sfen TEXT NOT NULL,
		last_move TEXT,
		answer_hand TEXT NOT NULL,
		real_hand TEXT NOT NULL,
		after_hands TEXT NOT NULL,
		current_eval INTEGER NOT NULL,
		after_eval INTEGER NOT NULL,
		swing INTEGER NOT NULL,
		severity TEXT NOT NULL,
		comment TEXT NOT NULL,
		black_player TEXT NOT NULL,
		white_player TEXT NOT NULL
	)
`

const insertProblem = `
	INSERT OR REPLACE INTO problems (
		id, file, date, ply, mover, sfen, last_move, answer_hand, real_hand, after_hands,
		current_eval, after_eval, swing, severity, comment, black_player, white_player
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// WriteSQLite replaces path with a database holding one problems row per
// export row.
func WriteSQLite(ctx context.Context, path string, rows []Row) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing old database: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, createProblems); err != nil {
		return fmt.Errorf("creating problems table: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertProblem)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		var lastMove any
		if r.LastMove != "" {
			lastMove = r.LastMove
		}
		if _, err := stmt.ExecContext(ctx,
			r.ID, r.File, r.Date, r.Ply, r.Mover, r.SFEN, lastMove, r.AnswerHand, r.RealHand, r.AfterHands,
			r.CurrentEval, r.AfterEval, r.Swing, r.Severity, r.Comment, r.BlackPlayer, r.WhitePlayer,
		); err != nil {
			return fmt.Errorf("inserting problem %d: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

// ReadSQLite loads rows back from a database written by WriteSQLite.
func ReadSQLite(ctx context.Context, path string) ([]Row, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	rs, err := db.QueryContext(ctx, `
		SELECT id, file, date, ply, mover, sfen, COALESCE(last_move, ''), answer_hand, real_hand, after_hands,
			current_eval, after_eval, swing, severity, comment, black_player, white_player
		FROM problems ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rs.Close()

	var rows []Row
	for rs.Next() {
		var r Row
		if err := rs.Scan(&r.ID, &r.File, &r.Date, &r.Ply, &r.Mover, &r.SFEN, &r.LastMove, &r.AnswerHand,
			&r.RealHand, &r.AfterHands, &r.CurrentEval, &r.AfterEval, &r.Swing, &r.Severity, &r.Comment,
			&r.BlackPlayer, &r.WhitePlayer); err != nil {
			return nil, err
		}
		rows = append(rows, r)
	}
	return rows, rs.Err()
}
