package session

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const TerminalMarker = "[FINISH]"

const (
	minReadinessScore = 0
	maxReadinessScore = 100
)

var (
	scoreLinePattern     = regexp.MustCompile(`(?i)Interview Readiness Score:\s*(\d+)\s*/\s*100`)
	scoreLineToEOL       = regexp.MustCompile(`(?i)Interview Readiness Score:[^\n]*`)
	feedbackHeadingToEnd = regexp.MustCompile(`(?is)(Performance Feedback|Summary of Performance|Overall Feedback):.*`)
)

type Outcome struct {
	Score    *int
	Feedback string
}

func FormatScoreLine(score int) string {
	return fmt.Sprintf("Interview Readiness Score: %d/100", score)
}

func HasTerminalMarker(text string) bool {
	return strings.Contains(text, TerminalMarker)
}

func StripTerminalMarker(text string) string {
	return strings.TrimSpace(strings.ReplaceAll(text, TerminalMarker, ""))
}

func stripScoreLines(text string) string {
	return strings.TrimSpace(scoreLineToEOL.ReplaceAllString(text, ""))
}

func stripFeedbackSections(text string) string {
	return strings.TrimSpace(feedbackHeadingToEnd.ReplaceAllString(text, ""))
}

// ExtractOutcome pulls the readiness score out of a closing message. A score
// outside 0..100 counts as missing. The returned feedback never contains the
// score line or the terminal marker.
func ExtractOutcome(message string) Outcome {
	cleaned := StripTerminalMarker(message)
	loc := scoreLinePattern.FindStringSubmatchIndex(cleaned)
	if loc == nil {
		return Outcome{Feedback: stripScoreLines(cleaned)}
	}

	var score *int
	if n, err := strconv.Atoi(cleaned[loc[2]:loc[3]]); err == nil && n >= minReadinessScore && n <= maxReadinessScore {
		score = &n
	}
	feedback := strings.TrimSpace(cleaned[:loc[0]] + cleaned[loc[1]:])
	return Outcome{Score: score, Feedback: stripScoreLines(feedback)}
}
