package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Positions stores the last reached word index per user and passage.
type Positions struct {
	db *sql.DB
}

// Get returns the stored word index, or ok=false when none exists.
func (p *Positions) Get(ctx context.Context, userID, passageID int64) (int, bool, error) {
	var idx int
	err := p.db.QueryRowContext(ctx,
		`SELECT word_index FROM positions WHERE user_id = ? AND passage_id = ?`,
		userID, passageID).Scan(&idx)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("position for passage %d: %w", passageID, err)
	}
	return idx, true, nil
}

// Set overwrites the stored word index.
func (p *Positions) Set(ctx context.Context, userID, passageID int64, wordIndex int) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO positions (user_id, passage_id, word_index, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id, passage_id) DO UPDATE SET word_index = excluded.word_index, updated_at = excluded.updated_at`,
		userID, passageID, wordIndex, time.Now().UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("save position for passage %d: %w", passageID, err)
	}
	return nil
}
