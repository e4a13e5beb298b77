// Package generator picks passages for random tests.
package generator

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/verte-zerg/speedtype/internal/model"
)

// ErrNoPassages is returned when there is nothing to pick from.
var ErrNoPassages = errors.New("no public passages available")

// Source lists the candidate passages.
type Source interface {
	ListPublic(ctx context.Context) ([]model.PassageSummary, error)
	Get(ctx context.Context, id int64) (model.Passage, error)
}

// Picker selects a random public passage.
type Picker struct {
	src Source
	rnd *rand.Rand
}

// New returns a Picker seeded with the current time.
func New(src Source) *Picker {
	return NewWithSeed(src, time.Now().UnixNano())
}

// NewWithSeed returns a Picker with a fixed seed.
func NewWithSeed(src Source, seed int64) *Picker {
	return &Picker{src: src, rnd: rand.New(rand.NewSource(seed))}
}

// Pick loads a uniformly chosen public passage with content. The excluded
// passage is skipped unless it is the only candidate.
func (p *Picker) Pick(ctx context.Context, exclude int64) (model.Passage, error) {
	all, err := p.src.ListPublic(ctx)
	if err != nil {
		return model.Passage{}, err
	}
	candidates := make([]model.PassageSummary, 0, len(all))
	for _, s := range all {
		if s.WordCount > 0 && s.ID != exclude {
			candidates = append(candidates, s)
		}
	}
	if len(candidates) == 0 {
		for _, s := range all {
			if s.WordCount > 0 {
				candidates = append(candidates, s)
			}
		}
	}
	if len(candidates) == 0 {
		return model.Passage{}, ErrNoPassages
	}
	chosen := candidates[p.rnd.Intn(len(candidates))]
	return p.src.Get(ctx, chosen.ID)
}
