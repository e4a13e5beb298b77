package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/speedtype/internal/clock"
	"github.com/verte-zerg/speedtype/internal/model"
)

type posKey struct {
	user, passage int64
}

type fakePositions struct {
	mu     sync.Mutex
	marks  map[posKey]int
	getErr error
	setErr error
	sets   int
	// slow delays Set for the given word indexes.
	slow map[int]time.Duration
}

func newFakePositions() *fakePositions {
	return &fakePositions{marks: map[posKey]int{}}
}

func (f *fakePositions) Get(_ context.Context, userID, passageID int64) (int, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return 0, false, f.getErr
	}
	idx, ok := f.marks[posKey{userID, passageID}]
	return idx, ok, nil
}

func (f *fakePositions) Set(_ context.Context, userID, passageID int64, wordIndex int) error {
	if d := f.slow[wordIndex]; d > 0 {
		time.Sleep(d)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets++
	if f.setErr != nil {
		return f.setErr
	}
	f.marks[posKey{userID, passageID}] = wordIndex
	return nil
}

type recorded struct {
	userID, passageID int64
	res               model.TestResult
}

type fakeResults struct {
	mu   sync.Mutex
	recs []recorded
	err  error
}

func (f *fakeResults) Record(_ context.Context, userID, passageID int64, res model.TestResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.recs = append(f.recs, recorded{userID, passageID, res})
	return nil
}

func (f *fakeResults) all() []recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recorded(nil), f.recs...)
}

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type harness struct {
	s         *Session
	clk       *clockwork.FakeClock
	positions *fakePositions
	results   *fakeResults
}

func newHarness(t *testing.T, userID int64) harness {
	t.Helper()
	clk := clockwork.NewFakeClockAt(t0)
	pos := newFakePositions()
	res := &fakeResults{}
	s := New(Config{
		UserID: userID,
		Clock:  clock.New(clk),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, pos, res)
	return harness{s: s, clk: clk, positions: pos, results: res}
}

func (h harness) ready(t *testing.T, p model.Passage) {
	t.Helper()
	require.NoError(t, h.s.SelectPassage(context.Background(), p))
	require.NoError(t, h.s.ApplyConfiguration())
}

func typeString(t *testing.T, s *Session, at time.Time, text string) {
	t.Helper()
	for _, r := range text {
		require.NoError(t, s.Type(at, r))
	}
}

func waitPersisted(t *testing.T, s *Session) error {
	t.Helper()
	ch := s.Persisted()
	require.NotNil(t, ch)
	select {
	case err := <-ch:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("persistence did not finish")
		return nil
	}
}

func TestCompleteWithoutErrors(t *testing.T) {
	h := newHarness(t, 1)
	h.ready(t, model.Passage{ID: 9, Content: "the quick fox"})

	typeString(t, h.s, t0, "the quick fo")
	require.Equal(t, PhaseActive, h.s.Phase())
	require.NoError(t, h.s.Type(t0.Add(30*time.Second), 'x'))

	assert.Equal(t, PhaseCompleted, h.s.Phase())
	res, ok := h.s.Result()
	require.True(t, ok)
	assert.Equal(t, 6, res.WPM)
	assert.Equal(t, 100.0, res.AccuracyPercent)
	assert.Equal(t, 30, res.ElapsedSeconds)
	assert.Equal(t, 3, res.WordIndexReached)
	assert.Equal(t, 3, res.TotalWordsInWindow)
	assert.False(t, res.IsPartial)
	assert.False(t, h.s.Snapshot().StoppedManually)

	require.NoError(t, waitPersisted(t, h.s))
	recs := h.results.all()
	require.Len(t, recs, 1)
	assert.Equal(t, int64(1), recs[0].userID)
	assert.Equal(t, int64(9), recs[0].passageID)
	assert.Equal(t, res, recs[0].res)
	idx, ok, err := h.positions.Get(context.Background(), 1, 9)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3, idx)
}

func TestMismatchCountsError(t *testing.T) {
	h := newHarness(t, 1)
	h.ready(t, model.Passage{ID: 1, Content: "abc"})

	typeString(t, h.s, t0, "axc")

	snap := h.s.Snapshot()
	assert.Equal(t, 1, snap.ErrorCount)
	assert.Equal(t, 3, snap.CharactersTyped)
	assert.InDelta(t, 66.67, snap.Accuracy, 0.01)
	assert.Equal(t, PhaseCompleted, snap.Phase)
}

func TestManualStopIsPartial(t *testing.T) {
	h := newHarness(t, 1)
	p := model.Passage{ID: 4, Content: "zero one two three hello world again"}
	require.NoError(t, h.s.SelectPassage(context.Background(), p))
	require.NoError(t, h.s.SetStartIndex(4))
	require.NoError(t, h.s.ApplyConfiguration())

	typeString(t, h.s, t0, "hello wor")
	require.NoError(t, h.s.Stop(t0.Add(12*time.Second)))

	assert.Equal(t, PhaseCompleted, h.s.Phase())
	snap := h.s.Snapshot()
	assert.True(t, snap.StoppedManually)
	res, ok := h.s.Result()
	require.True(t, ok)
	assert.True(t, res.IsPartial)
	assert.Equal(t, 6, res.WordIndexReached)
	assert.Equal(t, 10, res.WPM)

	require.NoError(t, waitPersisted(t, h.s))
	idx, ok, err := h.positions.Get(context.Background(), 1, 4)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 6, idx)
}

func TestSelectEmptyPassage(t *testing.T) {
	h := newHarness(t, 1)
	err := h.s.SelectPassage(context.Background(), model.Passage{ID: 2})
	assert.ErrorIs(t, err, ErrEmptyPassage)
	assert.Equal(t, PhaseSelecting, h.s.Phase())
}

func TestResumeMarkerSurfacedNotApplied(t *testing.T) {
	h := newHarness(t, 7)
	h.positions.marks[posKey{7, 3}] = 120
	content := strings.Repeat("word ", 300)

	require.NoError(t, h.s.SelectPassage(context.Background(), model.Passage{ID: 3, Content: content}))
	offset, ok := h.s.Resume()
	assert.True(t, ok)
	assert.Equal(t, 120, offset)
	assert.Equal(t, 0, h.s.Window().StartIndex)

	require.NoError(t, h.s.ResumeFromMarker())
	w := h.s.Window()
	assert.Equal(t, 120, w.StartIndex)
	assert.Equal(t, 50, w.Len())
	assert.True(t, h.s.Ready())
}

func TestResumeMarkerZeroIgnored(t *testing.T) {
	h := newHarness(t, 7)
	h.positions.marks[posKey{7, 3}] = 0
	require.NoError(t, h.s.SelectPassage(context.Background(), model.Passage{ID: 3, Content: "a b c"}))
	_, ok := h.s.Resume()
	assert.False(t, ok)
	assert.ErrorIs(t, h.s.ResumeFromMarker(), ErrNoResume)
}

func TestResumeLookupFailureStillSelects(t *testing.T) {
	h := newHarness(t, 1)
	h.positions.getErr = errors.New("disk gone")

	err := h.s.SelectPassage(context.Background(), model.Passage{ID: 3, Content: "a b c"})
	require.Error(t, err)
	assert.True(t, IsPersistence(err))
	assert.Equal(t, PhaseConfiguring, h.s.Phase())
}

func TestCountersAreSticky(t *testing.T) {
	h := newHarness(t, 1)
	h.ready(t, model.Passage{ID: 1, Content: "abcdef"})

	prevChars, prevErrs := 0, 0
	steps := []rune{'a', 'x', 0, 'b', 'c', 'z', 0, 'd'}
	for _, r := range steps {
		if r == 0 {
			require.NoError(t, h.s.Backspace(t0))
		} else {
			require.NoError(t, h.s.Type(t0, r))
		}
		snap := h.s.Snapshot()
		assert.GreaterOrEqual(t, snap.CharactersTyped, prevChars)
		assert.GreaterOrEqual(t, snap.ErrorCount, prevErrs)
		assert.LessOrEqual(t, snap.ErrorCount, snap.CharactersTyped)
		assert.GreaterOrEqual(t, snap.Accuracy, 0.0)
		assert.LessOrEqual(t, snap.Accuracy, 100.0)
		prevChars, prevErrs = snap.CharactersTyped, snap.ErrorCount
	}
	snap := h.s.Snapshot()
	assert.Equal(t, "abcd", snap.Typed)
	assert.Equal(t, 6, snap.CharactersTyped)
	assert.Equal(t, 2, snap.ErrorCount)
}

func TestBackspaceOnEmptyBuffer(t *testing.T) {
	h := newHarness(t, 1)
	h.ready(t, model.Passage{ID: 1, Content: "ab"})
	require.NoError(t, h.s.Type(t0, 'a'))
	require.NoError(t, h.s.Backspace(t0))
	require.NoError(t, h.s.Backspace(t0))

	snap := h.s.Snapshot()
	assert.Equal(t, "", snap.Typed)
	assert.Equal(t, 1, snap.CharactersTyped)
	assert.Equal(t, PhaseActive, snap.Phase)
}

func TestInputRejectedOutsideActive(t *testing.T) {
	h := newHarness(t, 1)
	assert.ErrorIs(t, h.s.Type(t0, 'a'), ErrNotActive)
	assert.ErrorIs(t, h.s.Stop(t0), ErrNotActive)

	require.NoError(t, h.s.SelectPassage(context.Background(), model.Passage{ID: 1, Content: "a"}))
	assert.ErrorIs(t, h.s.Type(t0, 'a'), ErrNotConfigured)
	assert.ErrorIs(t, h.s.Backspace(t0), ErrNotActive)

	require.NoError(t, h.s.ApplyConfiguration())
	require.NoError(t, h.s.Type(t0, 'a'))
	require.Equal(t, PhaseCompleted, h.s.Phase())
	assert.ErrorIs(t, h.s.Type(t0, 'b'), ErrNotActive)
	assert.ErrorIs(t, h.s.Backspace(t0), ErrNotActive)
}

func TestApplyConfigurationIdempotent(t *testing.T) {
	h := newHarness(t, 1)
	require.NoError(t, h.s.SelectPassage(context.Background(), model.Passage{ID: 1, Content: strings.Repeat("w ", 80)}))
	require.NoError(t, h.s.SetCount(-4))
	require.NoError(t, h.s.SetStartIndex(500))

	require.NoError(t, h.s.ApplyConfiguration())
	first := h.s.Window()
	require.NoError(t, h.s.ApplyConfiguration())
	second := h.s.Window()

	assert.True(t, first.Equal(second))
	assert.Equal(t, 1, first.Count)
	assert.Equal(t, 79, first.StartIndex)
	assert.Equal(t, 1, first.Len())
}

func TestWhitespaceOnlyPassageRefusesConfiguration(t *testing.T) {
	h := newHarness(t, 1)
	require.NoError(t, h.s.SelectPassage(context.Background(), model.Passage{ID: 1, Content: " \n\t "}))

	err := h.s.ApplyConfiguration()
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Equal(t, PhaseConfiguring, h.s.Phase())
	assert.False(t, h.s.Ready())
	assert.ErrorIs(t, h.s.Type(t0, 'a'), ErrNotConfigured)
}

func TestPreviewScrollRoundTrip(t *testing.T) {
	h := newHarness(t, 1)
	require.NoError(t, h.s.SelectPassage(context.Background(), model.Passage{ID: 1, Content: strings.Repeat("w ", 400)}))

	h.s.ScrollPreviewForward()
	assert.Equal(t, 50, h.s.PreviewOffset())
	h.s.ScrollPreviewBackward()
	assert.Equal(t, 0, h.s.PreviewOffset())

	for i := 0; i < 20; i++ {
		h.s.ScrollPreviewForward()
	}
	assert.Equal(t, 250, h.s.PreviewOffset())
	assert.Len(t, h.s.PreviewWords(), 150)

	require.NoError(t, h.s.SetStartFromPreviewClick(149))
	_, start := h.s.Settings()
	assert.Equal(t, 350, start)

	h.s.ResetPreview()
	_, start = h.s.Settings()
	assert.Equal(t, 0, h.s.PreviewOffset())
	assert.Equal(t, 0, start)
}

func TestTickUpdatesLiveStats(t *testing.T) {
	h := newHarness(t, 1)
	h.ready(t, model.Passage{ID: 1, Content: "one two three four"})
	assert.Nil(t, h.s.Ticks())

	typeString(t, h.s, t0, "one two ")
	require.NotNil(t, h.s.Ticks())

	h.clk.Advance(DefaultTickInterval)
	now := h.clk.Now()
	select {
	case at := <-h.s.Ticks():
		h.s.Tick(at)
	default:
		t.Fatal("expected a tick")
	}
	assert.Equal(t, 0, h.s.Snapshot().ElapsedSeconds)
	assert.Equal(t, 0, h.s.Snapshot().WPM)

	h.s.Tick(now.Add(30 * time.Second))
	snap := h.s.Snapshot()
	assert.Equal(t, 30, snap.ElapsedSeconds)
	assert.Equal(t, 4, snap.WPM)
}

func TestTickIgnoredOutsideActive(t *testing.T) {
	h := newHarness(t, 1)
	h.s.Tick(t0)
	h.ready(t, model.Passage{ID: 1, Content: "a b"})
	h.s.Tick(t0.Add(time.Minute))
	assert.Equal(t, 0, h.s.Snapshot().ElapsedSeconds)
}

func TestTickerReleasedOnCompletion(t *testing.T) {
	h := newHarness(t, 1)
	h.ready(t, model.Passage{ID: 1, Content: "ab"})
	require.NoError(t, h.s.Type(t0, 'a'))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, h.clk.BlockUntilContext(ctx, 1))
	done := h.s.TicksDone()
	require.NotNil(t, done)

	require.NoError(t, h.s.Type(t0, 'b'))
	assert.Nil(t, h.s.Ticks())
	select {
	case <-done:
	default:
		t.Fatal("ticker not stopped")
	}
}

func TestTickerReleasedOnTeardown(t *testing.T) {
	h := newHarness(t, 1)
	h.ready(t, model.Passage{ID: 1, Content: "abc"})
	require.NoError(t, h.s.Type(t0, 'a'))
	done := h.s.TicksDone()
	require.NotNil(t, done)

	h.s.Close()

	assert.Equal(t, PhaseSelecting, h.s.Phase())
	select {
	case <-done:
	default:
		t.Fatal("ticker not stopped")
	}
	_, ok := h.s.Result()
	assert.False(t, ok)
	assert.Nil(t, h.s.Persisted())
	assert.Empty(t, h.results.all())
}

func TestPersistenceFailureIsNonFatal(t *testing.T) {
	h := newHarness(t, 1)
	h.results.err = errors.New("db locked")
	h.positions.setErr = errors.New("readonly")
	h.ready(t, model.Passage{ID: 1, Content: "ab"})
	typeString(t, h.s, t0, "ab")

	err := waitPersisted(t, h.s)
	require.Error(t, err)
	assert.True(t, IsPersistence(err))
	assert.Contains(t, err.Error(), "record result")
	assert.Contains(t, err.Error(), "save resume position")
	assert.Equal(t, PhaseCompleted, h.s.Phase())
	_, ok := h.s.Result()
	assert.True(t, ok)
}

func TestEmptyStopSkipsMarker(t *testing.T) {
	h := newHarness(t, 1)
	h.ready(t, model.Passage{ID: 1, Content: "ab"})
	require.NoError(t, h.s.Type(t0, 'a'))
	require.NoError(t, h.s.Backspace(t0))
	require.NoError(t, h.s.Stop(t0))

	require.NoError(t, waitPersisted(t, h.s))
	assert.Len(t, h.results.all(), 1)
	assert.Equal(t, 0, h.positions.sets)
}

func TestMarkerLastAttemptWins(t *testing.T) {
	h := newHarness(t, 1)
	p := model.Passage{ID: 5, Content: "a b c d e f"}
	h.ready(t, p)
	typeString(t, h.s, t0, "a b c ")
	require.NoError(t, h.s.Stop(t0))
	require.NoError(t, waitPersisted(t, h.s))

	require.NoError(t, h.s.Reconfigure())
	require.NoError(t, h.s.ApplyConfiguration())
	typeString(t, h.s, t0, "a")
	require.NoError(t, h.s.Stop(t0))
	require.NoError(t, waitPersisted(t, h.s))

	idx, _, err := h.positions.Get(context.Background(), 1, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	assert.Len(t, h.results.all(), 2)
}

func TestMarkerLastAttemptWinsOverSlowWrite(t *testing.T) {
	h := newHarness(t, 1)
	h.positions.slow = map[int]time.Duration{4: 200 * time.Millisecond}
	p := model.Passage{ID: 5, Content: "a b c d e f"}
	h.ready(t, p)
	typeString(t, h.s, t0, "a b c d")
	require.NoError(t, h.s.Stop(t0))
	first := h.s.Persisted()

	require.NoError(t, h.s.Reconfigure())
	require.NoError(t, h.s.ApplyConfiguration())
	typeString(t, h.s, t0, "a")
	require.NoError(t, h.s.Stop(t0))

	require.NoError(t, waitPersisted(t, h.s))
	select {
	case err := <-first:
		require.NoError(t, err)
	default:
		t.Fatal("earlier attempt still writing after the later one finished")
	}

	idx, _, err := h.positions.Get(context.Background(), 1, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	assert.Len(t, h.results.all(), 2)
}

func TestPersistErrOutlivesChannelRead(t *testing.T) {
	h := newHarness(t, 1)
	assert.Nil(t, h.s.Flushed())
	h.results.err = errors.New("db locked")
	h.ready(t, model.Passage{ID: 1, Content: "ab"})
	typeString(t, h.s, t0, "ab")

	require.Error(t, waitPersisted(t, h.s))
	select {
	case <-h.s.Flushed():
	case <-time.After(2 * time.Second):
		t.Fatal("writes not flushed")
	}
	err := h.s.PersistErr()
	require.Error(t, err)
	assert.True(t, IsPersistence(err))
	assert.Contains(t, err.Error(), "record result")
}

func TestTickPanicIsLoggedAndSkipped(t *testing.T) {
	var logs strings.Builder
	pos := newFakePositions()
	s := New(Config{
		UserID: 1,
		Clock:  clock.New(clockwork.NewFakeClockAt(t0)),
		Logger: slog.New(slog.NewTextHandler(&logs, nil)),
	}, pos, &fakeResults{})
	require.NoError(t, s.SelectPassage(context.Background(), model.Passage{ID: 1, Content: "one two"}))
	require.NoError(t, s.ApplyConfiguration())
	require.NoError(t, s.Type(t0, 'o'))

	a := s.attempt
	s.attempt = nil
	assert.NotPanics(t, func() { s.Tick(t0.Add(time.Second)) })
	s.attempt = a

	assert.Contains(t, logs.String(), "tick failed")
	assert.Equal(t, PhaseActive, s.Phase())

	s.Tick(t0.Add(2 * time.Second))
	assert.Equal(t, 2, s.Snapshot().ElapsedSeconds)
	require.NoError(t, s.Stop(t0.Add(2*time.Second)))
}

func TestReconfigureStartsFreshAttempt(t *testing.T) {
	h := newHarness(t, 1)
	h.ready(t, model.Passage{ID: 1, Content: "ab"})
	typeString(t, h.s, t0, "xb")
	require.NoError(t, h.s.Reconfigure())
	assert.Equal(t, PhaseConfiguring, h.s.Phase())
	assert.False(t, h.s.Ready())

	require.NoError(t, h.s.ApplyConfiguration())
	snap := h.s.Snapshot()
	assert.Equal(t, 0, snap.ErrorCount)
	assert.Equal(t, 0, snap.CharactersTyped)
	assert.Equal(t, "", snap.Typed)
}

func TestConfigureOutsidePhase(t *testing.T) {
	h := newHarness(t, 1)
	assert.ErrorIs(t, h.s.SetCount(3), ErrWrongPhase)
	assert.ErrorIs(t, h.s.ApplyConfiguration(), ErrWrongPhase)
	assert.ErrorIs(t, h.s.Reconfigure(), ErrWrongPhase)

	h.ready(t, model.Passage{ID: 1, Content: "a b"})
	assert.ErrorIs(t, h.s.SelectPassage(context.Background(), model.Passage{ID: 2, Content: "c"}), ErrWrongPhase)
	h.s.RestartSelection()
	assert.NoError(t, h.s.SelectPassage(context.Background(), model.Passage{ID: 2, Content: "c"}))
}

func TestMetrics(t *testing.T) {
	assert.Equal(t, 0, WPM(10, 0))
	assert.Equal(t, 6, WPM(3, 30))
	assert.Equal(t, 100.0, Accuracy(0, 0))
	assert.Equal(t, 50.0, Accuracy(4, 2))
	assert.Equal(t, 1, elapsedSeconds(t0, t0.Add(1999*time.Millisecond)))
	assert.Equal(t, 0, elapsedSeconds(t0, t0.Add(-time.Second)))
}
