package session

import (
	"fmt"
	"strings"

	"github.com/foxseedlab/mensetsu/internal/repository"
)

type PolicyKind int

const (
	PolicyOpenOnly PolicyKind = iota + 1
	PolicyAskNth
	PolicyCloseOut
	PolicyForceClose
)

func (k PolicyKind) String() string {
	switch k {
	case PolicyOpenOnly:
		return "open_only"
	case PolicyAskNth:
		return "ask_nth"
	case PolicyCloseOut:
		return "close_out"
	case PolicyForceClose:
		return "force_close"
	default:
		return "unknown"
	}
}

// Policy is the turn instruction for the next model call. Question is the
// 1-based number of the question being asked and is only set for AskNth.
type Policy struct {
	Kind     PolicyKind
	Question int
}

func PolicyFor(asked, limit int, forceEnd bool) Policy {
	switch {
	case forceEnd:
		return Policy{Kind: PolicyForceClose}
	case asked == 0:
		return Policy{Kind: PolicyOpenOnly}
	case asked < limit:
		return Policy{Kind: PolicyAskNth, Question: asked + 1}
	default:
		return Policy{Kind: PolicyCloseOut}
	}
}

func (p Policy) asksQuestion() bool {
	return p.Kind == PolicyOpenOnly || p.Kind == PolicyAskNth
}

// Clean post-processes raw model output for this policy. Question turns lose
// any premature score, marker or feedback section; forced closes lose any
// score line. Close-out output is left for ExtractOutcome.
func (p Policy) Clean(raw string) string {
	switch p.Kind {
	case PolicyCloseOut:
		return strings.TrimSpace(raw)
	case PolicyForceClose:
		return stripScoreLines(raw)
	default:
		return stripFeedbackSections(StripTerminalMarker(stripScoreLines(raw)))
	}
}

// NeedsCorrection reports whether cleaned output for a question turn failed
// to ask a question or tried to wrap up.
func (p Policy) NeedsCorrection(cleaned string) bool {
	if !p.asksQuestion() {
		return false
	}
	if strings.TrimSpace(cleaned) == "" || !strings.Contains(cleaned, "?") {
		return true
	}
	lower := strings.ToLower(cleaned)
	return strings.Contains(lower, "thank you") || strings.Contains(lower, "goodbye")
}

type interviewContext struct {
	JobTitle       string
	Difficulty     repository.Difficulty
	ResumeFeedback string
	QuestionsLimit int
	AskedCount     int
}

func contextFor(sess *repository.Session) interviewContext {
	return interviewContext{
		JobTitle:       sess.JobTitle,
		Difficulty:     sess.Difficulty,
		ResumeFeedback: sess.ResumeFeedback,
		QuestionsLimit: sess.QuestionsLimit,
		AskedCount:     sess.AskedCount,
	}
}

const interviewerPersona = `You are a professional interviewer running a mock job interview.
Write plain text only. Do not use markdown, bold text, bullet symbols or emojis.
Keep a natural and polite tone. Briefly acknowledge each answer before moving on and vary your phrasing.
Ask exactly one question per message, then stop and wait for the candidate.
If an answer is very short or lacks depth, acknowledge it, remind the candidate that detailed answers with concrete examples raise their readiness score, and move on.
Keep about 80% of the questions technical and specific to the target role, and refer to the role by name.
Never count questions yourself. Rely only on the PROGRESS section.`

var difficultyStyles = map[repository.Difficulty]string{
	repository.DifficultyBeginner:     "Foundational questions. Mix behavioural and HR topics with the basic technical fundamentals of the role.",
	repository.DifficultyIntermediate: "Scenario-based questions. Ask how the candidate would apply role-specific skills in realistic situations.",
	repository.DifficultyAdvanced:     "Deep-dive questions. Focus on system design, complex problem solving, trade-offs and optimisation.",
}

const scoringCriteria = `Score the whole interview from 0 to 100:
- 0 to 40 when answers were mostly one word, irrelevant or missing.
- 41 to 70 when answers were relevant but shallow or lacked examples.
- 71 to 100 only when answers were detailed, technical and backed by concrete examples.`

// systemPrompt renders the full instruction for one model call under p.
func (p Policy) systemPrompt(ic interviewContext) string {
	var b strings.Builder
	b.WriteString(interviewerPersona)
	b.WriteString("\n\nCANDIDATE\n")
	fmt.Fprintf(&b, "Target role: %s\n", ic.JobTitle)
	fmt.Fprintf(&b, "Difficulty: %s. %s\n", ic.Difficulty, difficultyStyles[ic.Difficulty])
	if fb := strings.TrimSpace(ic.ResumeFeedback); fb != "" {
		fmt.Fprintf(&b, "Resume analysis: %s\n", fb)
	}

	b.WriteString("\nPROGRESS\n")
	fmt.Fprintf(&b, "Questions asked so far: %d\n", ic.AskedCount)
	fmt.Fprintf(&b, "Questions in this interview: %d\n", ic.QuestionsLimit)
	fmt.Fprintf(&b, "Questions remaining: %d\n", max(ic.QuestionsLimit-ic.AskedCount, 0))

	b.WriteString("\n")
	b.WriteString(p.rule(ic))
	return b.String()
}

func (p Policy) rule(ic interviewContext) string {
	switch p.Kind {
	case PolicyOpenOnly:
		return fmt.Sprintf("RULE: This is the start of the interview. Greet the candidate and ask only the first question: a short introduction that confirms their interest in the %s role. Do not give feedback, a score or closing remarks.", ic.JobTitle)
	case PolicyAskNth:
		return fmt.Sprintf("RULE: Ask interview question number %d of %d now. Do not end the interview, do not give a score, do not say goodbye and never write %s.", p.Question, ic.QuestionsLimit, TerminalMarker)
	case PolicyCloseOut:
		return fmt.Sprintf(`RULE: All %d questions have been answered. Do not ask anything else. Reply in exactly this layout:
1. One paragraph thanking the candidate.
2. A blank line.
3. One paragraph of constructive feedback that does not mention any number.
4. A line of the form "%s" where NN is an integer.
5. The token %s at the very end.

%s`, ic.QuestionsLimit, strings.Replace(FormatScoreLine(0), "0/100", "NN/100", 1), TerminalMarker, scoringCriteria)
	default:
		return fmt.Sprintf("RULE: The candidate ended the interview early. Write a short and polite closing message saying the session is closed and that no readiness score can be produced because the interview was not completed. Do not write a score line. End with %s.", TerminalMarker)
	}
}

func correctionPrompt(ic interviewContext) string {
	return fmt.Sprintf("[SYSTEM CORRECTION]: You tried to end the interview or did not ask a question. Only %d of %d questions have been asked. Continue the interview now with one %s-level question about the %s role. Do not say goodbye.",
		ic.AskedCount, ic.QuestionsLimit, ic.Difficulty, ic.JobTitle)
}
