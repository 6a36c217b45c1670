package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/foxseedlab/mensetsu/internal/repository"
	"github.com/foxseedlab/mensetsu/internal/webhook"
)

// time.DateTime is deliberately not used so the layout can change on its own.
const transcriptTimeLayout = "2006-01-02 15:04:05"

const scoreNotAvailable = "N/A"

// buildTranscriptText renders the plain-text export. now stands in for the
// end time of a session that is still running.
func buildTranscriptText(sess *repository.Session, timezone string, loc *time.Location, now time.Time) []byte {
	loc = safeLocation(loc)
	endedAt := now
	if sess.EndedAt != nil {
		endedAt = *sess.EndedAt
	}

	lines := []string{
		fmt.Sprintf("Job title: %s", sess.JobTitle),
		fmt.Sprintf("Difficulty: %s", sess.Difficulty),
		fmt.Sprintf("Interview period: %s ~ %s (%s)", sess.CreatedAt.In(loc).Format(transcriptTimeLayout), endedAt.In(loc).Format(transcriptTimeLayout), timezone),
		fmt.Sprintf("Questions asked: %d/%d", min(sess.AskedCount, sess.QuestionsLimit), sess.QuestionsLimit),
		fmt.Sprintf("Interview Readiness Score: %s", formatScore(sess.ReadinessScore)),
		"",
	}
	for _, turn := range sess.Transcript {
		elapsed := max(turn.At.Sub(sess.CreatedAt), 0)
		lines = append(lines, fmt.Sprintf("%s %s: %s", formatElapsedHMS(elapsed), speakerLabel(turn.Role), turn.Text))
	}
	return []byte(strings.Join(lines, "\n"))
}

func buildInterviewResultPayload(sess *repository.Session, timezone string, loc *time.Location) webhook.InterviewResultPayload {
	loc = safeLocation(loc)
	endedAt := sess.CreatedAt
	if sess.EndedAt != nil {
		endedAt = *sess.EndedAt
	}
	durationSeconds := max(int64(endedAt.Sub(sess.CreatedAt).Seconds()), 0)

	var feedback, reason string
	if sess.ReadinessFeedback != nil {
		feedback = *sess.ReadinessFeedback
	}
	if sess.EndReason != nil {
		reason = string(*sess.EndReason)
	}

	return webhook.InterviewResultPayload{
		SchemaVersion:     webhook.InterviewResultSchemaVersion,
		SessionID:         sess.ID,
		UserID:            sess.UserID,
		JobTitle:          sess.JobTitle,
		Difficulty:        string(sess.Difficulty),
		QuestionsLimit:    sess.QuestionsLimit,
		AskedCount:        sess.AskedCount,
		InvalidAttempts:   sess.InvalidAttempts,
		ReadinessScore:    sess.ReadinessScore,
		ReadinessFeedback: feedback,
		EndReason:         reason,
		StartAt:           sess.CreatedAt.In(loc).Format(time.RFC3339),
		EndAt:             endedAt.In(loc).Format(time.RFC3339),
		Timezone:          timezone,
		DurationSeconds:   durationSeconds,
		TurnCount:         len(sess.Transcript),
		Turns:             buildInterviewResultTurns(sess.Transcript, loc),
		Transcript:        string(buildTranscriptText(sess, timezone, loc, endedAt)),
	}
}

func buildInterviewResultTurns(turns []repository.Turn, loc *time.Location) []webhook.InterviewResultTurn {
	out := make([]webhook.InterviewResultTurn, 0, len(turns))
	for _, t := range turns {
		out = append(out, webhook.InterviewResultTurn{
			Index: t.Index,
			Role:  string(t.Role),
			Text:  t.Text,
			At:    t.At.In(loc).Format(time.RFC3339),
		})
	}
	return out
}

func speakerLabel(role repository.Role) string {
	if role == repository.RoleAssistant {
		return "Interviewer"
	}
	return "Candidate"
}

func formatScore(score *int) string {
	if score == nil {
		return scoreNotAvailable
	}
	return fmt.Sprintf("%d/100", *score)
}

func formatElapsedHMS(d time.Duration) string {
	total := int64(d / time.Second)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func safeLocation(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}
