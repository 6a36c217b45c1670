package resume

import (
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"
)

const (
	fallbackScore      = 50
	overrideFloorScore = 40
	minOverrideRunes   = 300
	minSectionKeywords = 2
)

var (
	codeFence = regexp.MustCompile("```(?:json)?")

	resumeSectionKeywords = []string{"experience", "education", "skills", "projects", "achievement", "summary", "contact"}

	genericJobTitles = map[string]struct{}{
		"software": {}, "engineer": {}, "intern": {}, "manager": {},
	}
)

// Feedback is the reviewer's structured verdict. Field names match the JSON
// contract the model is asked to produce.
type Feedback struct {
	IsResume         bool     `json:"IsResume"`
	Score            int      `json:"Score"`
	Advantages       []string `json:"Advantages"`
	Disadvantages    []string `json:"Disadvantages"`
	Suggestions      []string `json:"Suggestions"`
	Keywords         []string `json:"Keywords"`
	Location         string   `json:"Location"`
	DetectedJobTitle string   `json:"DetectedJobTitle"`
}

type rawFeedback struct {
	IsResume         *bool    `json:"IsResume"`
	Score            *int     `json:"Score"`
	Advantages       []string `json:"Advantages"`
	Disadvantages    []string `json:"Disadvantages"`
	Suggestions      []string `json:"Suggestions"`
	Keywords         []string `json:"Keywords"`
	Location         string   `json:"Location"`
	DetectedJobTitle string   `json:"DetectedJobTitle"`
}

// parseFeedback never fails; malformed output yields a neutral verdict.
func parseFeedback(output string) Feedback {
	clean := strings.TrimSpace(codeFence.ReplaceAllString(output, ""))
	if start, end := strings.Index(clean, "{"), strings.LastIndex(clean, "}"); start >= 0 && end > start {
		clean = clean[start : end+1]
	}

	var raw rawFeedback
	if err := json.Unmarshal([]byte(clean), &raw); err != nil {
		slog.Warn("resume feedback is not valid JSON, using fallback", "error", err)
		return fallbackFeedback()
	}

	fb := Feedback{
		IsResume:         true,
		Advantages:       nonNil(raw.Advantages),
		Disadvantages:    nonNil(raw.Disadvantages),
		Suggestions:      nonNil(raw.Suggestions),
		Keywords:         nonNil(raw.Keywords),
		Location:         strings.TrimSpace(raw.Location),
		DetectedJobTitle: strings.TrimSpace(raw.DetectedJobTitle),
	}
	if raw.IsResume != nil {
		fb.IsResume = *raw.IsResume
	}
	if raw.Score != nil {
		fb.Score = min(max(*raw.Score, 0), 100)
	}
	return fb
}

func fallbackFeedback() Feedback {
	return Feedback{
		IsResume:      true,
		Score:         fallbackScore,
		Advantages:    []string{"Could not parse detailed advantages."},
		Disadvantages: []string{"Could not parse detailed disadvantages."},
		Suggestions:   []string{"Please try again."},
		Keywords:      []string{},
	}
}

// overrideFalseNegative accepts a rejected document that clearly has resume
// structure. It reports whether the document counts as a resume.
func overrideFalseNegative(fb *Feedback, text string) bool {
	if fb.IsResume {
		return true
	}
	if len([]rune(text)) <= minOverrideRunes || countSectionKeywords(text) < minSectionKeywords {
		return false
	}
	fb.IsResume = true
	if fb.Score == 0 {
		fb.Score = overrideFloorScore
	}
	return true
}

func countSectionKeywords(text string) int {
	lower := strings.ToLower(text)
	n := 0
	for _, kw := range resumeSectionKeywords {
		if strings.Contains(lower, kw) {
			n++
		}
	}
	return n
}

func finalJobTitle(given, detected string) string {
	given = strings.TrimSpace(given)
	if detected == "" {
		return given
	}
	if _, generic := genericJobTitles[strings.ToLower(given)]; generic || len([]rune(given)) < 3 {
		return detected
	}
	return given
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
