package httpserver

import (
	"net/http"
	"strconv"

	"github.com/foxseedlab/mensetsu/internal/resume"
	"github.com/labstack/echo/v4"
)

func (s *Server) handleResumeLimits(c echo.Context) error {
	limits, err := s.resumes.Limits(c.Request().Context(), userID(c))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, resumeLimitsResponse{Remaining: limits.Remaining, Limit: limits.Limit})
}

func (s *Server) handleResumeUpload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "file is required")
	}
	data, err := readFormFile(fh)
	if err != nil {
		return badRequest(c, "could not read uploaded file")
	}
	consent, _ := strconv.ParseBool(c.FormValue("consent"))

	res, err := s.resumes.Analyze(c.Request().Context(), resume.AnalyzeInput{
		UserID:   userID(c),
		JobTitle: c.FormValue("job_title"),
		Filename: fh.Filename,
		MimeType: fh.Header.Get(echo.HeaderContentType),
		Data:     data,
		Consent:  consent,
	})
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, resumeUploadResponse{
		ID:       res.ID,
		Feedback: res.Feedback,
		JobTitle: res.JobTitle,
		Stored:   res.Stored,
	})
}

func (s *Server) handleResumeList(c echo.Context) error {
	records, err := s.resumes.List(c.Request().Context(), userID(c))
	if err != nil {
		return s.fail(c, err)
	}
	out := make([]resumeRecordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, toResumeRecordResponse(r))
	}
	return c.JSON(http.StatusOK, out)
}
