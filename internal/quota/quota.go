package quota

import (
	"context"
	"time"
)

const (
	DailyQuestionCount  = "daily_question_count"
	DailyInterviewCount = "daily_interview_count"
	DailyResumeCount    = "daily_resume_count"
)

// Limiter tracks per-user daily counters. A day starts at 00:00 in the
// limiter's configured timezone.
type Limiter interface {
	Remaining(ctx context.Context, userID, name string, dailyMax int) (int, error)
	TryConsume(ctx context.Context, userID, name string, dailyMax int) (allowed bool, remaining int, err error)
}

func Day(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

func Remaining(used, dailyMax int) int {
	if used >= dailyMax {
		return 0
	}
	return dailyMax - used
}
