package repository

import (
	"encoding/json"
	"time"
)

type Difficulty string

const (
	DifficultyBeginner     Difficulty = "Beginner"
	DifficultyIntermediate Difficulty = "Intermediate"
	DifficultyAdvanced     Difficulty = "Advanced"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type EndReason string

const (
	EndReasonCompleted      EndReason = "completed"
	EndReasonUserEnded      EndReason = "user_ended"
	EndReasonInvalidAnswers EndReason = "invalid_answers"
)

type Session struct {
	ID                string
	UserID            string
	JobTitle          string
	Difficulty        Difficulty
	ResumeFeedback    string
	QuestionsLimit    int
	AskedCount        int
	InvalidAttempts   int
	Transcript        []Turn
	CreatedAt         time.Time
	EndedAt           *time.Time
	ReadinessScore    *int
	ReadinessFeedback *string
	EndReason         *EndReason
}

func (s *Session) Ended() bool {
	return s.EndedAt != nil
}

type Turn struct {
	Index int
	Role  Role
	Text  string
	At    time.Time
}

type Resume struct {
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
