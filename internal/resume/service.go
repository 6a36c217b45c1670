package resume

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/foxseedlab/mensetsu/internal/completion"
	"github.com/foxseedlab/mensetsu/internal/config"
	"github.com/foxseedlab/mensetsu/internal/discord"
	"github.com/foxseedlab/mensetsu/internal/quota"
	"github.com/foxseedlab/mensetsu/internal/repository"
	"github.com/foxseedlab/mensetsu/internal/session"
	"github.com/foxseedlab/mensetsu/internal/storage"
	"github.com/foxseedlab/mensetsu/internal/textextract"
	"github.com/google/uuid"
)

// Retriever returns guideline passages relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) []string
}

type Service struct {
	cfg        *config.Config
	repo       repository.ResumeRepository
	quota      quota.Limiter
	extractor  textextract.Extractor
	completer  completion.Completer
	guidelines Retriever
	storage    storage.ObjectStorage
	alerts     discord.Alerter
	now        func() time.Time
	newID      func() string
}

func NewService(
	cfg *config.Config,
	repo repository.ResumeRepository,
	limiter quota.Limiter,
	extractor textextract.Extractor,
	completer completion.Completer,
	guidelines Retriever,
	objects storage.ObjectStorage,
	alerts discord.Alerter,
) *Service {
	return &Service{
		cfg:        cfg,
		repo:       repo,
		quota:      limiter,
		extractor:  extractor,
		completer:  completer,
		guidelines: guidelines,
		storage:    objects,
		alerts:     alerts,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

type AnalyzeInput struct {
	UserID   string
	JobTitle string
	Filename string
	MimeType string
	Data     []byte
	Consent  bool
}

type AnalyzeResult struct {
	ID       string
	Feedback Feedback
	JobTitle string
	Stored   bool
}

type Record struct {
	ID        string
	Filename  string
	MimeType  string
	JobTitle  string
	Feedback  Feedback
	Keywords  []string
	Stored    bool
	CreatedAt time.Time
}

type Limits struct {
	Remaining int
	Limit     int
}

func (s *Service) Analyze(ctx context.Context, in AnalyzeInput) (*AnalyzeResult, error) {
	remaining, err := s.quota.Remaining(ctx, in.UserID, quota.DailyResumeCount, s.cfg.DailyResumeLimit)
	if err != nil {
		return nil, fmt.Errorf("read resume quota: %w", err)
	}
	if remaining <= 0 {
		return nil, fmt.Errorf("%w: resets at 00:00 %s", ErrQuotaExceeded, s.cfg.QuotaTimezone)
	}
	if session.IsGibberish(in.JobTitle) {
		return nil, fmt.Errorf("%w: please provide a clear job title", ErrInvalidInput)
	}

	text, mime, err := s.extractor.Extract(in.Filename, in.MimeType, in.Data)
	if err != nil {
		if errors.Is(err, textextract.ErrUnsupportedType) {
			return nil, fmt.Errorf("%w: %w", ErrUnsupportedFile, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrUnreadableFile, err)
	}

	guidance := s.guidelines.Retrieve(ctx, guidelineQuery(text), guidelineChunks)
	output, err := s.review(ctx, reviewPrompt(guidance), reviewTurns(text))
	if err != nil {
		return nil, err
	}

	fb := parseFeedback(output)
	if !overrideFalseNegative(&fb, text) {
		return nil, ErrNotAResume
	}
	jobTitle := finalJobTitle(in.JobTitle, fb.DetectedJobTitle)

	s.consumeQuota(ctx, in.UserID)

	id := s.newID()
	objectKey := ""
	if in.Consent {
		objectKey = s.storeOriginal(ctx, in, id, mime)
	}

	raw, err := json.Marshal(fb)
	if err != nil {
		return nil, fmt.Errorf("encode feedback: %w", err)
	}
	rec, err := s.repo.CreateResume(ctx, repository.CreateResumeInput{
		ID:        id,
		UserID:    in.UserID,
		Filename:  in.Filename,
		MimeType:  mime,
		ObjectKey: objectKey,
		JobTitle:  jobTitle,
		Feedback:  raw,
		Keywords:  fb.Keywords,
		CreatedAt: s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("save resume: %w", err)
	}

	slog.Info("resume analysed", "resume_id", rec.ID, "user_id", in.UserID, "score", fb.Score, "stored", objectKey != "")
	s.alert(ctx, fmt.Sprintf("Resume analysed: resume %s by user %s for %q scored %d/100.", rec.ID, in.UserID, jobTitle, fb.Score))

	return &AnalyzeResult{
		ID:       rec.ID,
		Feedback: fb,
		JobTitle: jobTitle,
		Stored:   objectKey != "",
	}, nil
}

// Latest returns nil when the user has no analysed resume.
func (s *Service) Latest(ctx context.Context, userID string) (*Record, error) {
	r, err := s.repo.LatestResume(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load latest resume: %w", err)
	}
	if r == nil {
		return nil, nil
	}
	rec := toRecord(*r)
	return &rec, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]Record, error) {
	rows, err := s.repo.ListResumesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list resumes: %w", err)
	}
	out := make([]Record, 0, len(rows))
	for _, r := range rows {
		out = append(out, toRecord(r))
	}
	return out, nil
}

func (s *Service) Limits(ctx context.Context, userID string) (*Limits, error) {
	remaining, err := s.quota.Remaining(ctx, userID, quota.DailyResumeCount, s.cfg.DailyResumeLimit)
	if err != nil {
		return nil, fmt.Errorf("read resume quota: %w", err)
	}
	return &Limits{Remaining: remaining, Limit: s.cfg.DailyResumeLimit}, nil
}

func (s *Service) review(ctx context.Context, system string, turns []completion.Turn) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CompletionTimeout)
	defer cancel()

	out, err := s.completer.Complete(callCtx, system, turns)
	if err == nil {
		return out, nil
	}
	if errors.Is(err, completion.ErrRateLimited) {
		return "", fmt.Errorf("%w: %w", ErrRateLimited, err)
	}
	return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
}

// storeOriginal returns the object key, or "" when the file was not kept.
func (s *Service) storeOriginal(ctx context.Context, in AnalyzeInput, id, mime string) string {
	key := objectKey(in.UserID, id, in.Filename)
	err := s.storage.PutObject(ctx, storage.PutObjectInput{
		Key:         key,
		ContentType: mime,
		Body:        in.Data,
	})
	switch {
	case errors.Is(err, storage.ErrNotConfigured):
		slog.Debug("object storage not configured, resume file not kept", "user_id", in.UserID)
		return ""
	case err != nil:
		slog.Error("failed to store resume file", "error", err, "user_id", in.UserID, "key", key)
		return ""
	}
	return key
}

func (s *Service) consumeQuota(ctx context.Context, userID string) {
	allowed, remaining, err := s.quota.TryConsume(ctx, userID, quota.DailyResumeCount, s.cfg.DailyResumeLimit)
	if err != nil {
		slog.Error("failed to consume quota", "error", err, "user_id", userID, "quota", quota.DailyResumeCount)
		return
	}
	if !allowed {
		slog.Warn("quota exhausted while consuming", "user_id", userID, "quota", quota.DailyResumeCount)
		return
	}
	slog.Debug("quota consumed", "user_id", userID, "quota", quota.DailyResumeCount, "remaining", remaining)
}

func (s *Service) alert(ctx context.Context, content string) {
	if err := s.alerts.SendAlert(ctx, content); err != nil {
		slog.Error("failed to send staff alert", "error", err)
	}
}

func objectKey(userID, resumeID, filename string) string {
	return fmt.Sprintf("resumes/%s/%s%s", userID, resumeID, strings.ToLower(filepath.Ext(filename)))
}

func toRecord(r repository.Resume) Record {
	var fb Feedback
	if len(r.Feedback) > 0 {
		if err := json.Unmarshal(r.Feedback, &fb); err != nil {
			slog.Warn("stored resume feedback is not valid JSON", "error", err, "resume_id", r.ID)
		}
	}
	return Record{
		ID:        r.ID,
		Filename:  r.Filename,
		MimeType:  r.MimeType,
		JobTitle:  r.JobTitle,
		Feedback:  fb,
		Keywords:  r.Keywords,
		Stored:    r.ObjectKey != "",
		CreatedAt: r.CreatedAt,
	}
}
