// Package model defines shared data structures.
package model

import "time"

// Config defines practice settings.
type Config struct {
	User         string
	Words        int
	PreviewSize  int
	PreviewStep  int
	TickInterval time.Duration
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	UserID      int64
	PassageID   int64
	Since       *time.Time
	Last        int
	CurveWindow int
}

// User is a practice account. SSH and CLI user names map onto it.
type User struct {
	ID   int64
	Name string
}

// Passage is a text a session is typed against.
type Passage struct {
	ID           int64
	Title        string
	Author       string
	Description  string
	Content      string
	IsPublic     bool
	UserID       int64
	PersonalBest int
	AddedAt      time.Time
}

// PassageSummary is the list view of a passage. Content is omitted.
type PassageSummary struct {
	ID            int64
	Title         string
	Author        string
	Description   string
	IsPublic      bool
	UserID        int64
	PersonalBest  int
	AddedAt       time.Time
	ContentLength int
	WordCount     int
}

// PassageMeta carries the metadata supplied with an upload.
type PassageMeta struct {
	Title       string
	Author      string
	Description string
	IsPublic    bool
	UserID      int64
}

// TestResult is the immutable outcome of one attempt.
type TestResult struct {
	WPM                  int
	AccuracyPercent      float64
	ErrorCount           int
	ElapsedSeconds       int
	CharactersTypedCount int
	WordIndexReached     int
	TotalWordsInWindow   int
	IsPartial            bool
}

// StoredResult is a TestResult as persisted by a result sink.
type StoredResult struct {
	ID        int64
	UserID    int64
	UserName  string
	PassageID int64
	Title     string
	Date      time.Time
	TestResult
}

// ResumeMarker is the last reached word offset for a user and passage.
type ResumeMarker struct {
	UserID    int64
	PassageID int64
	WordIndex int
}

// UserStats summarizes a sequence of results.
type UserStats struct {
	Tests           int
	BestWPM         int
	AverageWPM      float64
	AverageAccuracy float64
}

// LeaderboardEntry ranks one user.
type LeaderboardEntry struct {
	Rank            int
	UserID          int64
	UserName        string
	BestWPM         int
	BestAccuracy    float64
	TestCount       int
	AverageWPM      float64
	AverageAccuracy float64
}
