package webhook

import "context"

const InterviewResultSchemaVersion = "2026-10-01"

type InterviewResultTurn struct {
	Index int    `json:"index"`
	Role  string `json:"role"`
	Text  string `json:"text"`
	At    string `json:"at"`
}

type InterviewResultPayload struct {
	SchemaVersion     string                `json:"schema_version"`
	SessionID         string                `json:"session_id"`
	UserID            string                `json:"user_id"`
	JobTitle          string                `json:"job_title"`
	Difficulty        string                `json:"difficulty"`
	QuestionsLimit    int                   `json:"questions_limit"`
	AskedCount        int                   `json:"asked_count"`
	InvalidAttempts   int                   `json:"invalid_attempts"`
	ReadinessScore    *int                  `json:"readiness_score"`
	ReadinessFeedback string                `json:"readiness_feedback"`
	EndReason         string                `json:"end_reason"`
	StartAt           string                `json:"start_at"`
	EndAt             string                `json:"end_at"`
	Timezone          string                `json:"timezone"`
	DurationSeconds   int64                 `json:"duration_seconds"`
	TurnCount         int                   `json:"turn_count"`
	Turns             []InterviewResultTurn `json:"turns"`
	Transcript        string                `json:"transcript"`
}

type Sender interface {
	SendInterviewResult(ctx context.Context, payload InterviewResultPayload) error
}
