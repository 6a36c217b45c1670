package httpserver

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/foxseedlab/mensetsu/internal/session"
	"github.com/labstack/echo/v4"
)

func (s *Server) handleInterviewLimits(c echo.Context) error {
	limits, err := s.interviews.Limits(c.Request().Context(), userID(c))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, interviewLimitsResponse{
		InterviewsRemaining: limits.InterviewsRemaining,
		InterviewLimit:      limits.InterviewLimit,
		QuestionsRemaining:  limits.QuestionsRemaining,
		QuestionLimit:       limits.QuestionLimit,
	})
}

func (s *Server) handleInterviewStart(c echo.Context) error {
	questionsLimit := 0
	if raw := strings.TrimSpace(c.FormValue("questions_limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return badRequest(c, "questions_limit must be an integer")
		}
		questionsLimit = n
	}

	res, err := s.interviews.Start(c.Request().Context(), session.StartInput{
		UserID:         userID(c),
		JobTitle:       c.FormValue("job_title"),
		Difficulty:     c.FormValue("difficulty"),
		QuestionsLimit: questionsLimit,
		ResumeFeedback: c.FormValue("resume_feedback"),
	})
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, startResponse{
		SessionID:      res.SessionID,
		Message:        res.Message,
		AskedCount:     res.AskedCount,
		QuestionsLimit: res.QuestionsLimit,
	})
}

func (s *Server) handleInterviewReply(c echo.Context) error {
	res, err := s.interviews.Reply(c.Request().Context(), session.ReplyInput{
		SessionID: c.Param("id"),
		UserID:    userID(c),
		Text:      c.FormValue("user_text"),
	})
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, toReplyResponse(res))
}

func (s *Server) handleInterviewReplyAudio(c echo.Context) error {
	fh, err := c.FormFile("audio")
	if err != nil {
		return badRequest(c, "audio file is required")
	}
	audio, err := readFormFile(fh)
	if err != nil {
		return badRequest(c, "could not read audio file")
	}

	res, err := s.interviews.ReplyAudio(c.Request().Context(), session.ReplyAudioInput{
		SessionID: c.Param("id"),
		UserID:    userID(c),
		Audio:     audio,
		Language:  c.FormValue("language"),
	})
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, toReplyResponse(res))
}

func (s *Server) handleInterviewEnd(c echo.Context) error {
	res, err := s.interviews.End(c.Request().Context(), c.Param("id"), userID(c))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, endResponse{
		Ended:        res.Ended,
		AlreadyEnded: res.AlreadyEnded,
		Message:      res.Message,
	})
}

func (s *Server) handleInterviewHistory(c echo.Context) error {
	sessions, err := s.interviews.History(c.Request().Context(), userID(c))
	if err != nil {
		return s.fail(c, err)
	}
	out := make([]sessionResponse, 0, len(sessions))
	for i := range sessions {
		out = append(out, toSessionResponse(&sessions[i], false))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleInterviewGet(c echo.Context) error {
	sess, err := s.interviews.Get(c.Request().Context(), c.Param("id"), userID(c))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, toSessionResponse(sess, true))
}

func (s *Server) handleInterviewTranscript(c echo.Context) error {
	text, err := s.interviews.TranscriptText(c.Request().Context(), c.Param("id"), userID(c))
	if err != nil {
		return s.fail(c, err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="interview-`+c.Param("id")+`.txt"`)
	return c.Blob(http.StatusOK, echo.MIMETextPlainCharsetUTF8, text)
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
