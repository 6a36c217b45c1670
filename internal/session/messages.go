package session

import "fmt"

const (
	messageInvalidAnswer = "I didn't quite catch that. Please answer in clear words. Please try answering the previous question again in your own words."

	messageInvalidAnswersClosed = "We received multiple responses that looked like random characters or non-words. " +
		"To keep the interview productive, this session is now closed. " +
		"Because the interview was not completed with valid answers, the Interview Readiness Score is N/A."

	messageSessionEnded = "This interview session has already ended."

	messageEndedEarlyFallback = "The interview session is now closed. Because the interview was not completed, the Interview Readiness Score is N/A. Thank you for practising with us."

	messageQuestionQuotaReached  = "daily question quota reached, resets at 00:00 in the quota timezone"
	messageInterviewQuotaReached = "daily interview session limit reached, resets at 00:00 in the quota timezone"

	messageNoJobTitle = "analyze a resume or provide a job title to start an interview"

	// Sent to the model only; never stored in the transcript.
	noticeEndedEarly = "[SYSTEM MESSAGE]: The candidate has ended the interview early. Tell them the session is now closed and that, because the interview was not completed, no readiness score can be generated and it will be shown as N/A. Add a few brief and encouraging words about their progress so far."
)

func fallbackQuestion(jobTitle string) string {
	return fmt.Sprintf("Let's keep going. Could you describe a recent piece of work that shows your strengths for the %s role?", jobTitle)
}

func alertInvalidAnswersClosed(sessionID, userID string) string {
	return fmt.Sprintf(":warning: Interview session %s for user %s was closed after repeated invalid answers.", sessionID, userID)
}
