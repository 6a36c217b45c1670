package events

import (
	"context"
	"time"
)

type SessionStatus string

const (
	SessionStatusInProgress SessionStatus = "in_progress"
	SessionStatusCompleted  SessionStatus = "completed"
)

type SessionUpdate struct {
	SessionID      string        `json:"session_id"`
	Status         SessionStatus `json:"status"`
	Message        string        `json:"message"`
	AskedCount     int           `json:"asked_count"`
	QuestionsLimit int           `json:"questions_limit"`
	Timestamp      time.Time     `json:"timestamp"`
}

type Publisher interface {
	PublishSessionUpdate(ctx context.Context, update SessionUpdate) error
}
