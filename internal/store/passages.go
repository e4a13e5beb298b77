package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/verte-zerg/speedtype/internal/model"
	"github.com/verte-zerg/speedtype/internal/session"
	"github.com/verte-zerg/speedtype/internal/words"
)

const summaryColumns = `id, title, author, description, is_public, user_id, personal_best, added_at,
	length(content), word_count`

// Upload stores a new passage. Content with no words is rejected.
func (s *Store) Upload(ctx context.Context, content string, meta model.PassageMeta) (model.Passage, error) {
	n := words.Count(content)
	if n == 0 {
		return model.Passage{}, fmt.Errorf("upload: %w", session.ErrEmptyPassage)
	}
	title := strings.TrimSpace(meta.Title)
	if title == "" {
		title = "Untitled"
	}
	p := model.Passage{
		Title:       title,
		Author:      strings.TrimSpace(meta.Author),
		Description: strings.TrimSpace(meta.Description),
		Content:     content,
		IsPublic:    meta.IsPublic,
		UserID:      meta.UserID,
		AddedAt:     time.Now().UTC(),
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO passages (title, author, description, content, word_count, is_public, user_id, personal_best, added_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		p.Title, p.Author, p.Description, p.Content, n, boolInt(p.IsPublic), p.UserID,
		p.AddedAt.Format(timeLayout),
	)
	if err != nil {
		return model.Passage{}, fmt.Errorf("upload %q: %w", title, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Passage{}, err
	}
	p.ID = id
	return p, nil
}

// Get returns a passage with its content.
func (s *Store) Get(ctx context.Context, id int64) (model.Passage, error) {
	var p model.Passage
	var isPublic int
	var addedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, author, description, content, is_public, user_id, personal_best, added_at
		 FROM passages WHERE id = ?`, id).
		Scan(&p.ID, &p.Title, &p.Author, &p.Description, &p.Content, &isPublic, &p.UserID, &p.PersonalBest, &addedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Passage{}, fmt.Errorf("passage %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Passage{}, fmt.Errorf("passage %d: %w", id, err)
	}
	p.IsPublic = isPublic != 0
	if p.AddedAt, err = time.Parse(timeLayout, addedAt); err != nil {
		return model.Passage{}, err
	}
	return p, nil
}

// ListPublic returns public passages ordered by title.
func (s *Store) ListPublic(ctx context.Context) ([]model.PassageSummary, error) {
	return s.listSummaries(ctx, `is_public = 1`)
}

// ListByUser returns passages uploaded by userID.
func (s *Store) ListByUser(ctx context.Context, userID int64) ([]model.PassageSummary, error) {
	return s.listSummaries(ctx, `user_id = ?`, userID)
}

// ListAccessible returns public passages plus those owned by userID.
func (s *Store) ListAccessible(ctx context.Context, userID int64) ([]model.PassageSummary, error) {
	return s.listSummaries(ctx, `(is_public = 1 OR user_id = ?)`, userID)
}

// Search returns passages visible to userID whose title or author contains
// query, case-insensitively.
func (s *Store) Search(ctx context.Context, userID int64, query string) ([]model.PassageSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.ListAccessible(ctx, userID)
	}
	like := "%" + strings.ToLower(query) + "%"
	return s.listSummaries(ctx,
		`(is_public = 1 OR user_id = ?) AND (lower(title) LIKE ? OR lower(author) LIKE ?)`,
		userID, like, like)
}

// CanAccess reports whether userID may practice passageID.
func (s *Store) CanAccess(ctx context.Context, userID, passageID int64) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM passages WHERE id = ? AND (is_public = 1 OR user_id = ?)`,
		passageID, userID).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) listSummaries(ctx context.Context, where string, args ...any) ([]model.PassageSummary, error) {
	query := fmt.Sprintf(`SELECT %s FROM passages WHERE %s ORDER BY title COLLATE NOCASE ASC, id ASC`,
		summaryColumns, where)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var result []model.PassageSummary
	for rows.Next() {
		var ps model.PassageSummary
		var isPublic int
		var addedAt string
		if err := rows.Scan(&ps.ID, &ps.Title, &ps.Author, &ps.Description, &isPublic, &ps.UserID,
			&ps.PersonalBest, &addedAt, &ps.ContentLength, &ps.WordCount); err != nil {
			return nil, err
		}
		ps.IsPublic = isPublic != 0
		parsed, err := time.Parse(timeLayout, addedAt)
		if err != nil {
			return nil, err
		}
		ps.AddedAt = parsed
		result = append(result, ps)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
