package httpserver

import (
	"time"

	"github.com/foxseedlab/mensetsu/internal/repository"
	"github.com/foxseedlab/mensetsu/internal/resume"
	"github.com/foxseedlab/mensetsu/internal/session"
)

type startResponse struct {
	SessionID      string `json:"session_id"`
	Message        string `json:"message"`
	AskedCount     int    `json:"asked_count"`
	QuestionsLimit int    `json:"questions_limit"`
}

type replyResponse struct {
	Message        string `json:"message"`
	Ended          bool   `json:"ended"`
	AlreadyEnded   bool   `json:"already_ended,omitempty"`
	AskedCount     int    `json:"asked_count"`
	QuestionsLimit int    `json:"questions_limit"`
	ReadinessScore *int   `json:"readiness_score"`
	Transcript     string `json:"transcript,omitempty"`
}

type endResponse struct {
	Ended        bool   `json:"ended"`
	AlreadyEnded bool   `json:"already_ended"`
	Message      string `json:"message,omitempty"`
}

type interviewLimitsResponse struct {
	InterviewsRemaining int `json:"interviews_remaining"`
	InterviewLimit      int `json:"interview_limit"`
	QuestionsRemaining  int `json:"questions_remaining"`
	QuestionLimit       int `json:"question_limit"`
}

type turnResponse struct {
	Role string    `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

type sessionResponse struct {
	SessionID         string         `json:"session_id"`
	JobTitle          string         `json:"job_title"`
	Difficulty        string         `json:"difficulty"`
	QuestionsLimit    int            `json:"questions_limit"`
	AskedCount        int            `json:"asked_count"`
	InvalidAttempts   int            `json:"invalid_attempts"`
	CreatedAt         time.Time      `json:"created_at"`
	EndedAt           *time.Time     `json:"ended_at"`
	ReadinessScore    *int           `json:"readiness_score"`
	ReadinessFeedback *string        `json:"readiness_feedback"`
	EndReason         *string        `json:"end_reason"`
	Transcript        []turnResponse `json:"transcript,omitempty"`
}

type resumeUploadResponse struct {
	ID       string          `json:"id"`
	Feedback resume.Feedback `json:"feedback"`
	JobTitle string          `json:"job_title"`
	Stored   bool            `json:"stored"`
}

type resumeRecordResponse struct {
	ID        string          `json:"id"`
	Filename  string          `json:"filename"`
	MimeType  string          `json:"mime_type"`
	JobTitle  string          `json:"job_title"`
	Feedback  resume.Feedback `json:"feedback"`
	Keywords  []string        `json:"tags"`
	Stored    bool            `json:"stored"`
	CreatedAt time.Time       `json:"created_at"`
}

type resumeLimitsResponse struct {
	Remaining int `json:"remaining"`
	Limit     int `json:"limit"`
}

func toReplyResponse(r *session.ReplyResult) replyResponse {
	return replyResponse{
		Message:        r.Message,
		Ended:          r.Ended,
		AlreadyEnded:   r.AlreadyEnded,
		AskedCount:     r.AskedCount,
		QuestionsLimit: r.QuestionsLimit,
		ReadinessScore: r.ReadinessScore,
		Transcript:     r.Transcript,
	}
}

func toSessionResponse(s *repository.Session, withTranscript bool) sessionResponse {
	out := sessionResponse{
		SessionID:         s.ID,
		JobTitle:          s.JobTitle,
		Difficulty:        string(s.Difficulty),
		QuestionsLimit:    s.QuestionsLimit,
		AskedCount:        s.AskedCount,
		InvalidAttempts:   s.InvalidAttempts,
		CreatedAt:         s.CreatedAt,
		EndedAt:           s.EndedAt,
		ReadinessScore:    s.ReadinessScore,
		ReadinessFeedback: s.ReadinessFeedback,
	}
	if s.EndReason != nil {
		reason := string(*s.EndReason)
		out.EndReason = &reason
	}
	if withTranscript {
		out.Transcript = make([]turnResponse, 0, len(s.Transcript))
		for _, t := range s.Transcript {
			out.Transcript = append(out.Transcript, turnResponse{Role: string(t.Role), Text: t.Text, At: t.At})
		}
	}
	return out
}

func toResumeRecordResponse(r resume.Record) resumeRecordResponse {
	keywords := r.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	return resumeRecordResponse{
		ID:        r.ID,
		Filename:  r.Filename,
		MimeType:  r.MimeType,
		JobTitle:  r.JobTitle,
		Feedback:  r.Feedback,
		Keywords:  keywords,
		Stored:    r.Stored,
		CreatedAt: r.CreatedAt,
	}
}
