package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/verte-zerg/speedtype/internal/model"
)

const resultColumns = `r.id, r.user_id, u.name, r.passage_id, p.title, r.date, r.wpm, r.accuracy,
	r.error_count, r.elapsed_seconds, r.chars_typed, r.word_index, r.window_words, r.is_partial`

const resultJoins = `FROM results r
	JOIN users u ON u.id = r.user_id
	JOIN passages p ON p.id = r.passage_id`

// Record stores a result and raises the passage's personal best when the
// recording user owns the passage and beat it.
func (s *Store) Record(ctx context.Context, userID, passageID int64, res model.TestResult) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO results (user_id, passage_id, date, wpm, accuracy, error_count, elapsed_seconds, chars_typed, word_index, window_words, is_partial)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		userID, passageID, time.Now().UTC().Format(timeLayout),
		res.WPM, res.AccuracyPercent, res.ErrorCount, res.ElapsedSeconds,
		res.CharactersTypedCount, res.WordIndexReached, res.TotalWordsInWindow, boolInt(res.IsPartial),
	); err != nil {
		return fmt.Errorf("record result for passage %d: %w", passageID, err)
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE passages SET personal_best = ? WHERE id = ? AND user_id = ? AND personal_best < ?`,
		res.WPM, passageID, userID, res.WPM,
	); err != nil {
		return fmt.Errorf("update personal best for passage %d: %w", passageID, err)
	}
	return tx.Commit()
}

// ListResults returns results matching cfg in chronological order. When
// cfg.Last is positive only the most recent Last results are returned.
func (s *Store) ListResults(ctx context.Context, cfg model.StatsConfig) ([]model.StoredResult, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.UserID != 0 {
		clauses = append(clauses, "r.user_id = ?")
		args = append(args, cfg.UserID)
	}
	if cfg.PassageID != 0 {
		clauses = append(clauses, "r.passage_id = ?")
		args = append(args, cfg.PassageID)
	}
	if cfg.Since != nil {
		clauses = append(clauses, "r.date >= ?")
		args = append(args, cfg.Since.UTC().Format(timeLayout))
	}
	limit := -1
	if cfg.Last > 0 {
		limit = cfg.Last
	}
	args = append(args, limit)
	query := fmt.Sprintf(`SELECT * FROM (
		SELECT %s %s
		WHERE %s
		ORDER BY r.date DESC, r.id DESC
		LIMIT ?
	) ORDER BY date ASC, id ASC`, resultColumns, resultJoins, strings.Join(clauses, " AND "))
	return s.queryResults(ctx, query, args...)
}

// RecentResults returns the n most recent results of a user, newest first.
func (s *Store) RecentResults(ctx context.Context, userID int64, n int) ([]model.StoredResult, error) {
	if n <= 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT %s %s WHERE r.user_id = ? ORDER BY r.date DESC, r.id DESC LIMIT ?`,
		resultColumns, resultJoins)
	return s.queryResults(ctx, query, userID, n)
}

// BestResult returns the highest-WPM result of a user on a passage.
func (s *Store) BestResult(ctx context.Context, userID, passageID int64) (model.StoredResult, bool, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE r.user_id = ? AND r.passage_id = ?
		ORDER BY r.wpm DESC, r.accuracy DESC, r.id ASC LIMIT 1`, resultColumns, resultJoins)
	results, err := s.queryResults(ctx, query, userID, passageID)
	if err != nil {
		return model.StoredResult{}, false, err
	}
	if len(results) == 0 {
		return model.StoredResult{}, false, nil
	}
	return results[0], true, nil
}

// TopResults returns the n fastest results across all users.
func (s *Store) TopResults(ctx context.Context, n int) ([]model.StoredResult, error) {
	if n <= 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT %s %s ORDER BY r.wpm DESC, r.accuracy DESC, r.id ASC LIMIT ?`,
		resultColumns, resultJoins)
	return s.queryResults(ctx, query, n)
}

func (s *Store) queryResults(ctx context.Context, query string, args ...any) ([]model.StoredResult, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)
	return scanResults(rows)
}

func scanResults(rows *sql.Rows) ([]model.StoredResult, error) {
	var result []model.StoredResult
	for rows.Next() {
		var r model.StoredResult
		var date string
		var partial int
		if err := rows.Scan(&r.ID, &r.UserID, &r.UserName, &r.PassageID, &r.Title, &date,
			&r.WPM, &r.AccuracyPercent, &r.ErrorCount, &r.ElapsedSeconds, &r.CharactersTypedCount,
			&r.WordIndexReached, &r.TotalWordsInWindow, &partial); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(timeLayout, date)
		if err != nil {
			return nil, err
		}
		r.Date = parsed
		r.IsPartial = partial != 0
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
