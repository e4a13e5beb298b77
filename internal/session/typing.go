package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/speedtype/internal/model"
	"github.com/verte-zerg/speedtype/internal/window"
	"github.com/verte-zerg/speedtype/internal/words"
)

// attempt is the mutable state of one test run. It is created by
// ApplyConfiguration and never reused once completed.
type attempt struct {
	id     string
	window window.Window
	target []rune
	typed  []rune

	startedAt time.Time
	now       time.Time
	elapsed   int

	errorCount      int
	charactersTyped int
	wpm             int
	accuracy        float64
	manual          bool
	result          *model.TestResult
}

func newAttempt(w window.Window) *attempt {
	return &attempt{
		id:       uuid.New().String(),
		window:   w,
		target:   []rune(w.Text()),
		accuracy: 100,
	}
}

// Type handles one forward keystroke. The first keystroke after
// ApplyConfiguration starts the test and its tick.
func (s *Session) Type(now time.Time, r rune) error {
	switch s.phase {
	case PhaseConfiguring:
		if s.attempt == nil {
			return ErrNotConfigured
		}
		s.begin(now)
	case PhaseActive:
	default:
		return ErrNotActive
	}

	a := s.attempt
	expected := a.target[len(a.typed)]
	if r != expected {
		a.errorCount++
	}
	a.charactersTyped++
	a.typed = append(a.typed, r)
	a.accuracy = Accuracy(a.charactersTyped, a.errorCount)

	if len(a.typed) == len(a.target) {
		s.finish(now, false)
	}
	return nil
}

// Backspace removes the last typed character. Error and keystroke counters
// keep their values.
func (s *Session) Backspace(now time.Time) error {
	if s.phase != PhaseActive {
		return ErrNotActive
	}
	a := s.attempt
	if len(a.typed) > 0 {
		a.typed = a.typed[:len(a.typed)-1]
	}
	a.accuracy = Accuracy(a.charactersTyped, a.errorCount)
	return nil
}

// Tick refreshes elapsed time and the live WPM estimate. It is ignored
// outside the Active phase, and a panic inside it is logged and swallowed.
func (s *Session) Tick(now time.Time) {
	defer func() {
		if rec := recover(); rec != nil {
			s.log.Error("tick failed", "panic", fmt.Sprint(rec))
		}
	}()
	if s.phase != PhaseActive {
		return
	}
	a := s.attempt
	a.now = now
	a.elapsed = elapsedSeconds(a.startedAt, now)
	a.wpm = WPM(words.Count(string(a.typed)), a.elapsed)
}

// Stop ends the running test early. The result is marked partial.
func (s *Session) Stop(now time.Time) error {
	if s.phase != PhaseActive {
		return ErrNotActive
	}
	s.finish(now, true)
	return nil
}

// Ticks is the running test's tick channel, or nil when no test runs. The
// caller feeds received values to Tick.
func (s *Session) Ticks() <-chan time.Time {
	if s.ticker == nil {
		return nil
	}
	return s.ticker.C()
}

// TicksDone is closed when the current tick source is released.
func (s *Session) TicksDone() <-chan struct{} {
	if s.ticker == nil {
		return nil
	}
	return s.ticker.Done()
}

// Result returns the most recent completed attempt's result.
func (s *Session) Result() (model.TestResult, bool) {
	if s.last == nil {
		return model.TestResult{}, false
	}
	return *s.last, true
}

// Persisted delivers the outcome of the last terminal transition's writes:
// nil on success, or an error wrapping *PersistenceError. It is nil before
// any test has completed.
func (s *Session) Persisted() <-chan error {
	return s.persisted
}

func (s *Session) begin(now time.Time) {
	a := s.attempt
	a.startedAt = now
	a.now = now
	s.phase = PhaseActive
	s.ticker = s.cfg.Clock.NewTicker(s.cfg.TickInterval)
	s.log.Debug("test started", "attempt_id", a.id, "passage_id", s.passage.ID)
}

func (s *Session) stopTicker() {
	if s.ticker == nil {
		return
	}
	s.ticker.Stop()
	s.ticker = nil
}

func (s *Session) finish(now time.Time, manual bool) {
	s.stopTicker()
	a := s.attempt
	s.phase = PhaseCompleted

	a.now = now
	a.elapsed = elapsedSeconds(a.startedAt, now)
	a.manual = manual
	a.wpm = WPM(words.Count(strings.TrimSpace(string(a.typed))), a.elapsed)
	a.accuracy = Accuracy(a.charactersTyped, a.errorCount)

	reached := a.window.StartIndex + a.window.Len()
	if manual {
		reached = a.window.StartIndex + words.Count(string(a.typed))
	}
	res := model.TestResult{
		WPM:                  a.wpm,
		AccuracyPercent:      a.accuracy,
		ErrorCount:           a.errorCount,
		ElapsedSeconds:       a.elapsed,
		CharactersTypedCount: a.charactersTyped,
		WordIndexReached:     reached,
		TotalWordsInWindow:   a.window.Len(),
		IsPartial:            manual && len(a.typed) < len(a.target),
	}
	a.result = &res
	s.last = &res

	var marker *model.ResumeMarker
	if len(a.typed) > 0 {
		marker = &model.ResumeMarker{
			UserID:    s.cfg.UserID,
			PassageID: s.passage.ID,
			WordIndex: reached,
		}
		s.resumeOffset = reached
		s.resumeOK = reached > 0
	}

	s.log.Info("test completed", "attempt_id", a.id, "passage_id", s.passage.ID,
		"wpm", res.WPM, "accuracy", res.AccuracyPercent, "partial", res.IsPartial, "stopped", manual)
	s.persisted = s.persist(s.passage.ID, res, marker)
}
