package resume

import (
	"strings"

	"github.com/foxseedlab/mensetsu/internal/completion"
)

const (
	guidelineChunks     = 5
	guidelineQueryRunes = 1000
)

const reviewerInstructions = `You are a professional resume reviewer. Analyse the resume provided by the user and reply with structured feedback.
Return ONLY a JSON object. Do not wrap it in markdown code fences and do not add any text before or after it.`

const feedbackContract = `The JSON object must have exactly these keys:
- "IsResume": boolean. Be lenient: true when the text contains professional experience, education, skills or contact details. False only when the text is clearly unrelated, such as a story, a recipe or random characters.
- "Score": integer from 0 to 100 for the overall quality of the resume.
- "Advantages": list of strings with the strong points.
- "Disadvantages": list of strings with the weak points.
- "Suggestions": list of strings with concrete improvements.
- "Keywords": list of 10 to 15 skills and industry keywords taken from the resume text.
- "Location": the candidate's city or state of residence from the contact section, not a company location. Empty string when absent.
- "DetectedJobTitle": the most likely target job title based on experience and skills. Empty string when unclear.

When "IsResume" is false, set "Score" to 0 and every list to empty, and still return valid JSON.`

func reviewPrompt(guidelines []string) string {
	var b strings.Builder
	b.WriteString(reviewerInstructions)
	b.WriteString("\n\n")
	if len(guidelines) > 0 {
		b.WriteString("EVALUATION GUIDELINES:\nUse these guidelines when judging the resume.\n")
		b.WriteString(strings.Join(guidelines, "\n---\n"))
		b.WriteString("\n\n")
	}
	b.WriteString(feedbackContract)
	return b.String()
}

func reviewTurns(text string) []completion.Turn {
	return []completion.Turn{{Role: completion.RoleUser, Content: "Resume text:\n" + text}}
}

func guidelineQuery(text string) string {
	r := []rune(text)
	if len(r) > guidelineQueryRunes {
		r = r[:guidelineQueryRunes]
	}
	return string(r)
}
