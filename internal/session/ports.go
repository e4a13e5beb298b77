package session

import (
	"context"

	"github.com/verte-zerg/speedtype/internal/model"
)

// TextSource supplies passages.
type TextSource interface {
	ListPublic(ctx context.Context) ([]model.PassageSummary, error)
	ListByUser(ctx context.Context, userID int64) ([]model.PassageSummary, error)
	Get(ctx context.Context, id int64) (model.Passage, error)
	Upload(ctx context.Context, content string, meta model.PassageMeta) (model.Passage, error)
}

// ResultSink durably records finished and partial results.
type ResultSink interface {
	Record(ctx context.Context, userID, passageID int64, res model.TestResult) error
}

// PositionStore keeps the last reached word index per user and passage.
type PositionStore interface {
	// Get returns ok=false when no marker exists.
	Get(ctx context.Context, userID, passageID int64) (wordIndex int, ok bool, err error)
	Set(ctx context.Context, userID, passageID int64, wordIndex int) error
}
