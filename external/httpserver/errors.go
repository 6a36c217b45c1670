package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/foxseedlab/mensetsu/internal/resume"
	"github.com/foxseedlab/mensetsu/internal/session"
	"github.com/labstack/echo/v4"
)

type errorResponse struct {
	Error string `json:"error"`
}

type errorMapping struct {
	target error
	status int
	// detail exposes the wrapped message; otherwise only the sentinel text
	// is returned so provider errors stay in the logs.
	detail bool
}

var errorMappings = []errorMapping{
	{target: session.ErrQuotaExceeded, status: http.StatusTooManyRequests, detail: true},
	{target: resume.ErrQuotaExceeded, status: http.StatusTooManyRequests, detail: true},
	{target: session.ErrRateLimited, status: http.StatusTooManyRequests},
	{target: resume.ErrRateLimited, status: http.StatusTooManyRequests},
	{target: session.ErrUnavailable, status: http.StatusBadGateway},
	{target: resume.ErrUnavailable, status: http.StatusBadGateway},
	{target: session.ErrInvalidInput, status: http.StatusBadRequest, detail: true},
	{target: resume.ErrInvalidInput, status: http.StatusBadRequest, detail: true},
	{target: resume.ErrUnsupportedFile, status: http.StatusBadRequest},
	{target: resume.ErrUnreadableFile, status: http.StatusBadRequest, detail: true},
	{target: resume.ErrNotAResume, status: http.StatusBadRequest},
	{target: session.ErrNotFound, status: http.StatusNotFound},
}

func (s *Server) fail(c echo.Context, err error) error {
	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		msg := m.target.Error()
		if m.detail {
			msg = err.Error()
		}
		if m.status >= http.StatusInternalServerError {
			slog.Error("upstream failure", "error", err, "path", c.Path(), "user_id", userID(c))
		}
		return c.JSON(m.status, errorResponse{Error: msg})
	}
	slog.Error("unhandled error", "error", err, "path", c.Path(), "user_id", userID(c))
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal server error"})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}
