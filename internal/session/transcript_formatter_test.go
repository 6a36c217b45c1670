package session

import (
	"strings"
	"testing"
	"time"

	"github.com/foxseedlab/mensetsu/internal/repository"
	"github.com/foxseedlab/mensetsu/internal/webhook"
)

func endedSessionFixture(t *testing.T) (*repository.Session, *time.Location) {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kuala_Lumpur")
	if err != nil {
		t.Fatalf("failed to load location: %v", err)
	}
	createdAt := time.Date(2026, 2, 28, 12, 0, 0, 0, time.UTC)
	endedAt := createdAt.Add(2 * time.Minute)
	score := 78
	feedback := "Solid fundamentals."
	reason := repository.EndReasonCompleted
	return &repository.Session{
		ID:                "0b7d3c1e-8f3a-4c55-9a57-0d7f1b2c3d4e",
		UserID:            "user-1",
		JobTitle:          "Backend Engineer",
		Difficulty:        repository.DifficultyIntermediate,
		QuestionsLimit:    10,
		AskedCount:        11,
		CreatedAt:         createdAt,
		EndedAt:           &endedAt,
		ReadinessScore:    &score,
		ReadinessFeedback: &feedback,
		EndReason:         &reason,
		Transcript: []repository.Turn{
			{Index: 0, Role: repository.RoleAssistant, Text: "Tell me about yourself?", At: createdAt},
			{Index: 1, Role: repository.RoleUser, Text: "I build APIs in Go.", At: createdAt.Add(75 * time.Second)},
		},
	}, loc
}

func TestBuildTranscriptText(t *testing.T) {
	sess, loc := endedSessionFixture(t)

	body := string(buildTranscriptText(sess, "Asia/Kuala_Lumpur", loc, time.Now()))

	for _, want := range []string{
		"Job title: Backend Engineer",
		"Difficulty: Intermediate",
		"Interview period: 2026-02-28 20:00:00 ~ 2026-02-28 20:02:00 (Asia/Kuala_Lumpur)",
		"Questions asked: 10/10",
		"Interview Readiness Score: 78/100",
		"00:00:00 Interviewer: Tell me about yourself?",
		"00:01:15 Candidate: I build APIs in Go.",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("%q not found in body: %s", want, body)
		}
	}
}

func TestBuildTranscriptText_RunningSessionWithoutScore(t *testing.T) {
	sess, loc := endedSessionFixture(t)
	sess.EndedAt = nil
	sess.ReadinessScore = nil
	now := sess.CreatedAt.Add(time.Minute)

	body := string(buildTranscriptText(sess, "Asia/Kuala_Lumpur", loc, now))
	if !strings.Contains(body, "~ 2026-02-28 20:01:00") {
		t.Fatalf("running session should end at now: %s", body)
	}
	if !strings.Contains(body, "Interview Readiness Score: N/A") {
		t.Fatalf("missing N/A score: %s", body)
	}
}

func TestBuildInterviewResultPayload(t *testing.T) {
	sess, loc := endedSessionFixture(t)

	payload := buildInterviewResultPayload(sess, "Asia/Kuala_Lumpur", loc)

	if payload.SchemaVersion != webhook.InterviewResultSchemaVersion {
		t.Fatalf("unexpected schema version: %s", payload.SchemaVersion)
	}
	if payload.StartAt != "2026-02-28T20:00:00+08:00" || payload.EndAt != "2026-02-28T20:02:00+08:00" {
		t.Fatalf("unexpected period: %s ~ %s", payload.StartAt, payload.EndAt)
	}
	if payload.DurationSeconds != 120 {
		t.Fatalf("unexpected duration: %d", payload.DurationSeconds)
	}
	if payload.ReadinessScore == nil || *payload.ReadinessScore != 78 {
		t.Fatalf("unexpected score: %v", payload.ReadinessScore)
	}
	if payload.ReadinessFeedback != "Solid fundamentals." || payload.EndReason != "completed" {
		t.Fatalf("unexpected outcome: %q %q", payload.ReadinessFeedback, payload.EndReason)
	}
	if payload.TurnCount != 2 || len(payload.Turns) != 2 {
		t.Fatalf("unexpected turns: %d %d", payload.TurnCount, len(payload.Turns))
	}
	if payload.Turns[1].Role != "user" || payload.Turns[1].At != "2026-02-28T20:01:15+08:00" {
		t.Fatalf("unexpected second turn: %+v", payload.Turns[1])
	}
	if !strings.Contains(payload.Transcript, "Candidate: I build APIs in Go.") {
		t.Fatalf("unexpected transcript: %s", payload.Transcript)
	}
}

func TestFormatElapsedHMS(t *testing.T) {
	if got := formatElapsedHMS(3*time.Hour + 4*time.Minute + 5*time.Second); got != "03:04:05" {
		t.Fatalf("unexpected elapsed: %s", got)
	}
}
