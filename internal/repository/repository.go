package repository

import (
	"context"
	"encoding/json"
	"time"
)

type CreateSessionInput struct {
	ID             string
	UserID         string
	JobTitle       string
	Difficulty     Difficulty
	ResumeFeedback string
	QuestionsLimit int
	AskedCount     int
	CreatedAt      time.Time
	Turns          []Turn
}

// RecordTurnInput is one atomic step of a session: the turns are appended,
// Counter (when set) is incremented and Complete (when set) ends the session.
type RecordTurnInput struct {
	SessionID string
	Turns     []Turn
	Counter   Counter
	Complete  *SessionCompletion
}

type RecordTurnResult struct {
	// Count is the incremented counter value, or zero when no counter was set.
	Count int
	// Completed is true when this call flipped the session to ended.
	Completed bool
	// AlreadyEnded is true when the session had ended before the call; nothing
	// was written.
	AlreadyEnded bool
}

type Counter string

const (
	CounterAskedCount      Counter = "asked_count"
	CounterInvalidAttempts Counter = "invalid_attempts"
)

type SessionCompletion struct {
	EndedAt           time.Time
	ReadinessScore    *int
	ReadinessFeedback string
	EndReason         EndReason
}

type CreateResumeInput struct {
	ID        string
	UserID    string
	Filename  string
	MimeType  string
	ObjectKey string
	JobTitle  string
	Feedback  json.RawMessage
	Keywords  []string
	CreatedAt time.Time
}

type SessionRepository interface {
	CreateSession(ctx context.Context, input CreateSessionInput) (*Session, error)
	// GetSession returns nil without error when the session does not exist.
	GetSession(ctx context.Context, sessionID string) (*Session, error)
	ListSessionsByUser(ctx context.Context, userID string) ([]Session, error)
	// RecordTurn applies the whole step in one transaction or not at all. A
	// stored outcome is never overwritten.
	RecordTurn(ctx context.Context, input RecordTurnInput) (*RecordTurnResult, error)
}

type TranscriptRepository interface {
	ListTurns(ctx context.Context, sessionID string) ([]Turn, error)
}

type ResumeRepository interface {
	CreateResume(ctx context.Context, input CreateResumeInput) (*Resume, error)
	// LatestResume returns nil without error when the user has none.
	LatestResume(ctx context.Context, userID string) (*Resume, error)
	ListResumesByUser(ctx context.Context, userID string) ([]Resume, error)
}

type Repository interface {
	SessionRepository
	TranscriptRepository
	ResumeRepository
}
