package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Session is one ledger row.
type Session struct {
	Seq         int64  `json:"seq"`
	ID          string `json:"id"`
	Target      string `json:"target"`
	Module      string `json:"module"`
	InputPath   string `json:"input_path,omitempty"`
	InputHash   string `json:"input_hash"`
	OptionsHash string `json:"options_hash"`
	OutputPath  string `json:"output_path"`
	OutputHash  string `json:"output_hash"`
	Lines       int    `json:"lines"`
	Bytes       int64  `json:"bytes"`
	ToolVersion string `json:"tool_version"`
}

// RecordSession appends a session and returns its seq.
// Uses ON CONFLICT(id) DO NOTHING for idempotency: recording the same
// session ID twice returns the seq of the first row.
func (s *Store) RecordSession(ctx context.Context, sess Session) (int64, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions
		(id, target, module, input_path, input_hash, options_hash, output_path, output_hash, lines, bytes, tool_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		sess.ID,
		sess.Target,
		sess.Module,
		sess.InputPath,
		sess.InputHash,
		sess.OptionsHash,
		sess.OutputPath,
		sess.OutputHash,
		sess.Lines,
		sess.Bytes,
		sess.ToolVersion,
	)
	if err != nil {
		return 0, fmt.Errorf("record session: %w", err)
	}

	var seq int64
	if err := s.db.QueryRowContext(ctx, `SELECT seq FROM sessions WHERE id = ?`, sess.ID).Scan(&seq); err != nil {
		return 0, fmt.Errorf("record session: read seq: %w", err)
	}
	return seq, nil
}

// ListSessions returns the most recent sessions, newest first.
// A limit <= 0 returns every session.
//
// Returns an empty slice (not nil) if the ledger is empty.
func (s *Store) ListSessions(ctx context.Context, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, id, target, module, input_path, input_hash, options_hash, output_path, output_hash, lines, bytes, tool_version
		FROM sessions
		ORDER BY seq DESC, id COLLATE BINARY ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		var sess Session
		if err := rows.Scan(
			&sess.Seq,
			&sess.ID,
			&sess.Target,
			&sess.Module,
			&sess.InputPath,
			&sess.InputHash,
			&sess.OptionsHash,
			&sess.OutputPath,
			&sess.OutputHash,
			&sess.Lines,
			&sess.Bytes,
			&sess.ToolVersion,
		); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	return sessions, nil
}

// LastOutputHash returns the output hash of the newest session that rendered
// inputHash for target with the options hashed as optionsHash. found is
// false when there is no such session.
func (s *Store) LastOutputHash(ctx context.Context, target, inputHash, optionsHash string) (hash string, found bool, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT output_hash
		FROM sessions
		WHERE target = ? AND input_hash = ? AND options_hash = ?
		ORDER BY seq DESC
		LIMIT 1
	`, target, inputHash, optionsHash).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query last output hash: %w", err)
	}
	return hash, true, nil
}
