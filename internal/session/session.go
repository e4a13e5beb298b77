// Package session implements the typing-test state machine: passage
// selection, window configuration, keystroke handling, and result/resume
// persistence.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/verte-zerg/speedtype/internal/clock"
	"github.com/verte-zerg/speedtype/internal/logging"
	"github.com/verte-zerg/speedtype/internal/model"
	"github.com/verte-zerg/speedtype/internal/window"
	"github.com/verte-zerg/speedtype/internal/words"
)

// DefaultTickInterval is the live statistics refresh period.
const DefaultTickInterval = 100 * time.Millisecond

// Config holds per-session settings. Zero values fall back to defaults.
type Config struct {
	UserID       int64
	DefaultCount int
	PreviewSize  int
	PreviewStep  int
	TickInterval time.Duration
	Clock        clock.Clock
	Logger       *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.DefaultCount < 1 {
		c.DefaultCount = window.DefaultCount
	}
	if c.PreviewSize < 1 {
		c.PreviewSize = window.DefaultPreviewSize
	}
	if c.PreviewStep < 1 {
		c.PreviewStep = window.DefaultPreviewStep
	}
	if c.TickInterval <= 0 {
		c.TickInterval = DefaultTickInterval
	}
	if c.Clock == nil {
		c.Clock = clock.Real()
	}
	if c.Logger == nil {
		c.Logger = logging.Logger
	}
	return c
}

// Session is one user's typing-test surface. It is not safe for concurrent
// use: keystrokes, ticks, stop requests and configuration calls must be
// serialized by the caller.
type Session struct {
	cfg       Config
	positions PositionStore
	results   ResultSink
	log       *slog.Logger

	phase   Phase
	passage model.Passage
	all     []string

	count         int
	start         int
	previewOffset int
	resumeOffset  int
	resumeOK      bool

	win       window.Window
	attempt   *attempt
	last      *model.TestResult
	ticker    clock.Ticker
	persisted <-chan error
	flushed   <-chan struct{}

	persistMu  sync.Mutex
	persistErr error
}

// New returns a session in the Selecting phase.
func New(cfg Config, positions PositionStore, results ResultSink) *Session {
	cfg = cfg.withDefaults()
	return &Session{
		cfg:       cfg,
		positions: positions,
		results:   results,
		log:       cfg.Logger.With("user_id", cfg.UserID),
		phase:     PhaseSelecting,
		count:     cfg.DefaultCount,
	}
}

// Phase returns the current lifecycle phase.
func (s *Session) Phase() Phase {
	return s.phase
}

// Passage returns the selected passage. It is the zero value while Selecting.
func (s *Session) Passage() model.Passage {
	return s.passage
}

// Window returns the current word window.
func (s *Session) Window() window.Window {
	return s.win
}

// SelectPassage moves from Selecting to Configuring with a default window and
// looks up a resume marker. A failed lookup still selects the passage and is
// reported as a *PersistenceError.
func (s *Session) SelectPassage(ctx context.Context, p model.Passage) error {
	if s.phase != PhaseSelecting {
		return ErrWrongPhase
	}
	if p.Content == "" {
		return ErrEmptyPassage
	}

	s.passage = p
	s.all = words.Split(p.Content)
	s.count = s.cfg.DefaultCount
	s.start = 0
	s.previewOffset = 0
	s.win = window.New(s.all, s.start, s.count)
	s.attempt = nil
	s.resumeOffset = 0
	s.resumeOK = false
	s.phase = PhaseConfiguring
	s.log.Debug("passage selected", "passage_id", p.ID, "total_words", len(s.all))

	idx, ok, err := s.positions.Get(ctx, s.cfg.UserID, p.ID)
	if err != nil {
		s.log.Warn("resume lookup failed", "passage_id", p.ID, "error", err)
		return &PersistenceError{Op: "load resume position", Err: err}
	}
	if ok && idx > 0 {
		s.resumeOffset = idx
		s.resumeOK = true
	}
	return nil
}

// Resume reports the stored resume offset, if one is available.
func (s *Session) Resume() (offset int, ok bool) {
	return s.resumeOffset, s.resumeOK
}

// SetCount changes the requested window size. It takes effect on the next
// ApplyConfiguration.
func (s *Session) SetCount(n int) error {
	if s.phase != PhaseConfiguring {
		return ErrWrongPhase
	}
	s.count = n
	s.attempt = nil
	return nil
}

// SetStartIndex changes the requested window start. It takes effect on the
// next ApplyConfiguration.
func (s *Session) SetStartIndex(i int) error {
	if s.phase != PhaseConfiguring {
		return ErrWrongPhase
	}
	s.start = i
	s.attempt = nil
	return nil
}

// Settings returns the requested count and start index as last set.
func (s *Session) Settings() (count, start int) {
	return s.count, s.start
}

// ResumeFromMarker starts the window at the stored resume offset.
func (s *Session) ResumeFromMarker() error {
	if s.phase != PhaseConfiguring {
		return ErrWrongPhase
	}
	if !s.resumeOK {
		return ErrNoResume
	}
	s.start = s.resumeOffset
	return s.ApplyConfiguration()
}

// ScrollPreviewForward moves the preview one step toward the passage end.
func (s *Session) ScrollPreviewForward() {
	if s.phase != PhaseConfiguring {
		return
	}
	s.previewOffset = window.ScrollForward(s.previewOffset, len(s.all), s.cfg.PreviewSize, s.cfg.PreviewStep)
}

// ScrollPreviewBackward moves the preview one step toward the passage start.
func (s *Session) ScrollPreviewBackward() {
	if s.phase != PhaseConfiguring {
		return
	}
	s.previewOffset = window.ScrollBackward(s.previewOffset, s.cfg.PreviewStep)
}

// ResetPreview returns the preview and the start index to the beginning.
func (s *Session) ResetPreview() {
	if s.phase != PhaseConfiguring {
		return
	}
	s.previewOffset = 0
	s.start = 0
	s.attempt = nil
}

// SetStartFromPreviewClick sets the start index to a word picked in the
// visible preview page.
func (s *Session) SetStartFromPreviewClick(relative int) error {
	if s.phase != PhaseConfiguring {
		return ErrWrongPhase
	}
	s.start = window.StartFromClick(s.previewOffset, relative, len(s.all), s.count)
	s.attempt = nil
	return nil
}

// PreviewOffset returns the absolute index of the first preview word.
func (s *Session) PreviewOffset() int {
	return s.previewOffset
}

// PreviewWords returns the visible preview page.
func (s *Session) PreviewWords() []string {
	return window.Slice(s.all, s.previewOffset, s.cfg.PreviewSize)
}

// ApplyConfiguration clamps the requested settings, derives the window and
// prepares a fresh attempt. The attempt becomes Active on the first keystroke.
// An empty window is rejected with ErrConfiguration and changes nothing.
func (s *Session) ApplyConfiguration() error {
	if s.phase != PhaseConfiguring {
		return ErrWrongPhase
	}
	w := window.New(s.all, s.start, s.count)
	if w.Len() == 0 {
		return fmt.Errorf("%w: passage %d has no words", ErrConfiguration, s.passage.ID)
	}
	s.count = w.Count
	s.start = w.StartIndex
	s.win = w
	s.attempt = newAttempt(w)
	s.log.Debug("configuration applied", "attempt_id", s.attempt.id,
		"start_index", w.StartIndex, "count", w.Count, "window_words", w.Len())
	return nil
}

// Ready reports whether an applied configuration is waiting for input.
func (s *Session) Ready() bool {
	return s.phase == PhaseConfiguring && s.attempt != nil
}

// Reconfigure leaves Completed for Configuring, keeping the passage and
// settings. The finished attempt is kept only as the last result.
func (s *Session) Reconfigure() error {
	if s.phase != PhaseCompleted {
		return ErrWrongPhase
	}
	s.attempt = nil
	s.phase = PhaseConfiguring
	return nil
}

// RestartSelection discards the passage and any attempt, stopping the tick
// if a test is running. It is allowed in every phase.
func (s *Session) RestartSelection() {
	s.stopTicker()
	if s.phase == PhaseActive {
		s.log.Debug("active attempt abandoned", "attempt_id", s.attempt.id)
	}
	s.phase = PhaseSelecting
	s.passage = model.Passage{}
	s.all = nil
	s.count = s.cfg.DefaultCount
	s.start = 0
	s.previewOffset = 0
	s.resumeOffset = 0
	s.resumeOK = false
	s.win = window.Window{}
	s.attempt = nil
}

// Close tears the session down. The tick is released and no result is
// recorded for an unfinished attempt.
func (s *Session) Close() {
	s.RestartSelection()
}
