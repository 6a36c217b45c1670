package completion

import (
	"context"
	"strings"

	"github.com/foxseedlab/mensetsu/internal/completion"
)

var offlineQuestions = []string{
	"Thanks for sharing. Could you walk me through a recent project you are proud of and your role in it?",
	"Good. How do you usually break down a large task into smaller pieces of work?",
	"Interesting. Can you describe a time you had to debug a difficult problem and how you approached it?",
	"Thanks. How do you keep your technical skills current?",
	"Understood. How would you handle a disagreement with a teammate about a technical decision?",
	"Good answer. What trade-offs do you consider when choosing between two possible solutions?",
}

// OfflineCompleter returns canned interviewer lines so the service can run
// without a model provider. It reads the requested turn shape from the
// instruction text.
type OfflineCompleter struct{}

func NewOfflineCompleter() *OfflineCompleter {
	return &OfflineCompleter{}
}

func (c *OfflineCompleter) Complete(_ context.Context, systemPrompt string, turns []completion.Turn) (string, error) {
	switch {
	case strings.Contains(systemPrompt, "Return ONLY a JSON object"):
		return offlineResumeAnalysis, nil
	case strings.Contains(systemPrompt, "The candidate ended the interview early"):
		return "Thank you for your time today. The session is now closed and, because the interview was not completed, the Interview Readiness Score is N/A. Keep practising and you will see steady progress. [FINISH]", nil
	case strings.Contains(systemPrompt, "questions have been answered"):
		return "Thank you for completing this practice interview.\n\n" +
			"You stayed engaged throughout. Give more concrete examples and measurable results to make your answers stronger.\n" +
			"Interview Readiness Score: 60/100\n[FINISH]", nil
	}

	answered := 0
	for _, t := range turns {
		if t.Role == completion.RoleUser {
			answered++
		}
	}
	if answered == 0 {
		return "Hello and welcome to your practice interview. To start, could you briefly introduce yourself and tell me why you are interested in this role?", nil
	}
	return offlineQuestions[(answered-1)%len(offlineQuestions)], nil
}

func (c *OfflineCompleter) Embed(context.Context, []string) ([][]float32, error) {
	return nil, completion.ErrEmbeddingsUnsupported
}

const offlineResumeAnalysis = `{"IsResume": true, "Score": 50, "Advantages": ["Clear structure"], "Disadvantages": ["Few measurable achievements"], "Suggestions": ["Quantify the impact of your work"], "Keywords": [], "Location": "", "DetectedJobTitle": ""}`
