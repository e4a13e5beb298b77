package session

import (
	"time"

	"github.com/verte-zerg/speedtype/internal/words"
)

// Snapshot is a read-only view of the session for rendering.
type Snapshot struct {
	Phase           Phase
	PassageID       int64
	Target          string
	Typed           string
	StartedAt       time.Time
	Now             time.Time
	ElapsedSeconds  int
	ErrorCount      int
	CharactersTyped int
	WPM             int
	Accuracy        float64
	StoppedManually bool
	StartIndex      int
	WindowWords     int
	WordsTyped      int
	TotalWords      int
}

// Snapshot copies the current state. Counters are zero until a
// configuration has been applied.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		Phase:       s.phase,
		PassageID:   s.passage.ID,
		StartIndex:  s.win.StartIndex,
		WindowWords: s.win.Len(),
		TotalWords:  len(s.all),
		Accuracy:    100,
	}
	a := s.attempt
	if a == nil {
		return snap
	}
	snap.Target = string(a.target)
	snap.Typed = string(a.typed)
	snap.StartedAt = a.startedAt
	snap.Now = a.now
	snap.ElapsedSeconds = a.elapsed
	snap.ErrorCount = a.errorCount
	snap.CharactersTyped = a.charactersTyped
	snap.WPM = a.wpm
	snap.Accuracy = a.accuracy
	snap.StoppedManually = a.manual
	snap.WordsTyped = words.Count(snap.Typed)
	return snap
}
