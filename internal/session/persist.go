package session

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/speedtype/internal/model"
)

// persist writes the result and the resume marker concurrently and reports
// the joined outcome on the returned channel. It is called exactly once per
// terminal transition and never blocks the caller. Writes start only after
// the previous transition's writes have finished, so the newest marker is
// always the one left in the store.
func (s *Session) persist(passageID int64, res model.TestResult, marker *model.ResumeMarker) <-chan error {
	done := make(chan error, 1)
	flushed := make(chan struct{})
	prev := s.flushed
	s.flushed = flushed

	userID := s.cfg.UserID
	results := s.results
	positions := s.positions
	log := s.log

	go func() {
		defer close(flushed)
		defer close(done)
		if prev != nil {
			<-prev
		}
		ctx := context.Background()

		var g errgroup.Group
		var recordErr, markerErr error
		g.Go(func() error {
			if err := results.Record(ctx, userID, passageID, res); err != nil {
				recordErr = &PersistenceError{Op: "record result", Err: err}
			}
			return nil
		})
		if marker != nil {
			g.Go(func() error {
				if err := positions.Set(ctx, marker.UserID, marker.PassageID, marker.WordIndex); err != nil {
					markerErr = &PersistenceError{Op: "save resume position", Err: err}
				}
				return nil
			})
		}
		// Workers report through recordErr and markerErr.
		_ = g.Wait()

		err := errors.Join(recordErr, markerErr)
		if err != nil {
			log.Warn("persisting test failed", "passage_id", passageID, "error", err)
		}
		s.persistMu.Lock()
		s.persistErr = err
		s.persistMu.Unlock()
		done <- err
	}()
	return done
}

// Flushed is closed once the writes of the most recent terminal transition,
// and of every transition before it, have finished. It is nil before any
// test has completed.
func (s *Session) Flushed() <-chan struct{} {
	return s.flushed
}

// PersistErr returns the outcome of the most recently finished writes. Unlike
// Persisted it can be read any number of times.
func (s *Session) PersistErr() error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	return s.persistErr
}
