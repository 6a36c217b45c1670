package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/foxseedlab/mensetsu/internal/config"
	"github.com/foxseedlab/mensetsu/internal/repository"
	"github.com/foxseedlab/mensetsu/internal/resume"
	"github.com/foxseedlab/mensetsu/internal/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const maxRequestBody = "10M"

type InterviewService interface {
	Start(ctx context.Context, in session.StartInput) (*session.StartResult, error)
	Reply(ctx context.Context, in session.ReplyInput) (*session.ReplyResult, error)
	ReplyAudio(ctx context.Context, in session.ReplyAudioInput) (*session.ReplyResult, error)
	End(ctx context.Context, sessionID, userID string) (*session.EndResult, error)
	Get(ctx context.Context, sessionID, userID string) (*repository.Session, error)
	History(ctx context.Context, userID string) ([]repository.Session, error)
	Limits(ctx context.Context, userID string) (*session.Limits, error)
	TranscriptText(ctx context.Context, sessionID, userID string) ([]byte, error)
}

type ResumeService interface {
	Analyze(ctx context.Context, in resume.AnalyzeInput) (*resume.AnalyzeResult, error)
	List(ctx context.Context, userID string) ([]resume.Record, error)
	Limits(ctx context.Context, userID string) (*resume.Limits, error)
}

type Server struct {
	cfg        *config.Config
	echo       *echo.Echo
	interviews InterviewService
	resumes    ResumeService
	limiter    *ipRateLimiter
}

func NewServer(cfg *config.Config, interviews InterviewService, resumes ResumeService) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		cfg:        cfg,
		echo:       e,
		interviews: interviews,
		resumes:    resumes,
		limiter:    newIPRateLimiter(cfg.RateLimitPerMinute),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.echo.Use(middleware.Recover())
	s.echo.Use(requestLogger())

	s.echo.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api := s.echo.Group("/api",
		middleware.BodyLimit(maxRequestBody),
		s.limiter.middleware(),
		jwtAuth([]byte(s.cfg.JWTSecret)),
	)

	interview := api.Group("/interview")
	interview.GET("/limits", s.handleInterviewLimits)
	interview.GET("/history", s.handleInterviewHistory)
	interview.POST("/start", s.handleInterviewStart)
	interview.POST("/:id/reply", s.handleInterviewReply)
	interview.POST("/:id/reply-audio", s.handleInterviewReplyAudio)
	interview.POST("/:id/end", s.handleInterviewEnd)
	interview.GET("/:id/transcript", s.handleInterviewTranscript)
	interview.GET("/:id", s.handleInterviewGet)

	r := api.Group("/resume")
	r.GET("/limits", s.handleResumeLimits)
	r.POST("/upload", s.handleResumeUpload)
	r.GET("/my", s.handleResumeList)
}

func (s *Server) Start(addr string) error {
	slog.Info("http server listening", "addr", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
				"remote_ip", v.RemoteIP,
			}
			if v.Error != nil {
				slog.Error("request failed", append(attrs, "error", v.Error)...)
				return nil
			}
			slog.Debug("request handled", attrs...)
			return nil
		},
	})
}
