package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/foxseedlab/mensetsu/internal/completion"
	"github.com/foxseedlab/mensetsu/internal/config"
	"github.com/foxseedlab/mensetsu/internal/repository"
	"github.com/foxseedlab/mensetsu/internal/resume"
	"github.com/foxseedlab/mensetsu/internal/session"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type fakeInterviews struct {
	startIn  session.StartInput
	replyIn  session.ReplyInput
	audioIn  session.ReplyAudioInput
	startErr error
	replyErr error
	getErr   error
	sessions []repository.Session
}

func (f *fakeInterviews) Start(_ context.Context, in session.StartInput) (*session.StartResult, error) {
	f.startIn = in
	if f.startErr != nil {
		return nil, f.startErr
	}
	return &session.StartResult{SessionID: "s-1", Message: "Welcome!", AskedCount: 1, QuestionsLimit: 10}, nil
}

func (f *fakeInterviews) Reply(_ context.Context, in session.ReplyInput) (*session.ReplyResult, error) {
	f.replyIn = in
	if f.replyErr != nil {
		return nil, f.replyErr
	}
	score := 78
	return &session.ReplyResult{Message: "Thank you.", Ended: true, AskedCount: 11, QuestionsLimit: 10, ReadinessScore: &score}, nil
}

func (f *fakeInterviews) ReplyAudio(_ context.Context, in session.ReplyAudioInput) (*session.ReplyResult, error) {
	f.audioIn = in
	return &session.ReplyResult{Message: "Next question?", AskedCount: 3, QuestionsLimit: 10, Transcript: "I led the migration"}, nil
}

func (f *fakeInterviews) End(_ context.Context, _, _ string) (*session.EndResult, error) {
	return &session.EndResult{Ended: true, AlreadyEnded: true}, nil
}

func (f *fakeInterviews) Get(_ context.Context, sessionID, userID string) (*repository.Session, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &repository.Session{
		ID:             sessionID,
		UserID:         userID,
		JobTitle:       "Backend Engineer",
		Difficulty:     repository.DifficultyBeginner,
		QuestionsLimit: 10,
		AskedCount:     2,
		Transcript: []repository.Turn{
			{Index: 0, Role: repository.RoleAssistant, Text: "Welcome!"},
			{Index: 1, Role: repository.RoleUser, Text: "Hello"},
		},
	}, nil
}

func (f *fakeInterviews) History(context.Context, string) ([]repository.Session, error) {
	return f.sessions, nil
}

func (f *fakeInterviews) Limits(context.Context, string) (*session.Limits, error) {
	return &session.Limits{InterviewsRemaining: 2, InterviewLimit: 3, QuestionsRemaining: 50, QuestionLimit: 60}, nil
}

func (f *fakeInterviews) TranscriptText(context.Context, string, string) ([]byte, error) {
	return []byte("Job title: Backend Engineer\n"), nil
}

type fakeResumes struct {
	in  resume.AnalyzeInput
	err error
}

func (f *fakeResumes) Analyze(_ context.Context, in resume.AnalyzeInput) (*resume.AnalyzeResult, error) {
	f.in = in
	if f.err != nil {
		return nil, f.err
	}
	return &resume.AnalyzeResult{ID: "r-1", JobTitle: in.JobTitle, Feedback: resume.Feedback{IsResume: true, Score: 70}}, nil
}

func (f *fakeResumes) List(context.Context, string) ([]resume.Record, error) {
	return []resume.Record{{ID: "r-1", Filename: "cv.pdf"}}, nil
}

func (f *fakeResumes) Limits(context.Context, string) (*resume.Limits, error) {
	return &resume.Limits{Remaining: 4, Limit: 5}, nil
}

func newTestServer(t *testing.T) (*Server, *fakeInterviews, *fakeResumes) {
	t.Helper()
	cfg := &config.Config{JWTSecret: testSecret, RateLimitPerMinute: 100}
	interviews := &fakeInterviews{}
	resumes := &fakeResumes{}
	return NewServer(cfg, interviews, resumes), interviews, resumes
}

func signToken(t *testing.T, secret, subject string, expiresIn time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func serve(t *testing.T, s *Server, req *http.Request, token string) *httptest.ResponseRecorder {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func formRequest(method, target string, form url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func multipartRequest(t *testing.T, target, field, filename string, content []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	part, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealthz(t *testing.T) {
	s, _, _ := newTestServer(t)
	rec := serve(t, s, httptest.NewRequest(http.MethodGet, "/healthz", nil), "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuth(t *testing.T) {
	s, _, _ := newTestServer(t)
	cases := []struct {
		name  string
		token string
	}{
		{name: "missing", token: ""},
		{name: "wrong secret", token: signToken(t, "other-secret", "user-1", time.Hour)},
		{name: "expired", token: signToken(t, testSecret, "user-1", -time.Hour)},
		{name: "no subject", token: signToken(t, testSecret, "", time.Hour)},
		{name: "garbage", token: "not-a-jwt"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec := serve(t, s, httptest.NewRequest(http.MethodGet, "/api/interview/limits", nil), c.token)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestInterviewStart(t *testing.T) {
	s, interviews, _ := newTestServer(t)
	token := signToken(t, testSecret, "user-1", time.Hour)

	rec := serve(t, s, formRequest(http.MethodPost, "/api/interview/start", url.Values{
		"job_title":       {"Backend Engineer"},
		"difficulty":      {"advanced"},
		"questions_limit": {"15"},
	}), token)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[startResponse](t, rec)
	assert.Equal(t, "s-1", body.SessionID)
	assert.Equal(t, 1, body.AskedCount)
	assert.Equal(t, "user-1", interviews.startIn.UserID)
	assert.Equal(t, "advanced", interviews.startIn.Difficulty)
	assert.Equal(t, 15, interviews.startIn.QuestionsLimit)
}

func TestInterviewStart_InvalidQuestionsLimit(t *testing.T) {
	s, _, _ := newTestServer(t)
	token := signToken(t, testSecret, "user-1", time.Hour)

	rec := serve(t, s, formRequest(http.MethodPost, "/api/interview/start", url.Values{
		"job_title":       {"Backend Engineer"},
		"questions_limit": {"ten"},
	}), token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInterviewReply(t *testing.T) {
	s, interviews, _ := newTestServer(t)
	token := signToken(t, testSecret, "user-1", time.Hour)

	rec := serve(t, s, formRequest(http.MethodPost, "/api/interview/s-1/reply", url.Values{
		"user_text": {"I would shard the table by tenant."},
	}), token)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[map[string]any](t, rec)
	assert.Equal(t, true, body["ended"])
	assert.Equal(t, float64(78), body["readiness_score"])
	assert.Equal(t, "s-1", interviews.replyIn.SessionID)
	assert.Equal(t, "I would shard the table by tenant.", interviews.replyIn.Text)
}

func TestInterviewReply_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{name: "rate limited", err: fmt.Errorf("%w: %w", session.ErrRateLimited, completion.ErrRateLimited), status: http.StatusTooManyRequests, body: session.ErrRateLimited.Error()},
		{name: "unavailable hides provider error", err: fmt.Errorf("%w: %w", session.ErrUnavailable, errors.New("dial tcp: secret host")), status: http.StatusBadGateway, body: session.ErrUnavailable.Error()},
		{name: "invalid input", err: fmt.Errorf("%w: malformed session id", session.ErrInvalidInput), status: http.StatusBadRequest, body: "malformed session id"},
		{name: "not found", err: session.ErrNotFound, status: http.StatusNotFound, body: session.ErrNotFound.Error()},
		{name: "quota", err: fmt.Errorf("%w: daily question limit reached", session.ErrQuotaExceeded), status: http.StatusTooManyRequests, body: "daily question limit reached"},
		{name: "unknown", err: errors.New("db down"), status: http.StatusInternalServerError, body: "internal server error"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s, interviews, _ := newTestServer(t)
			interviews.replyErr = c.err
			token := signToken(t, testSecret, "user-1", time.Hour)

			rec := serve(t, s, formRequest(http.MethodPost, "/api/interview/s-1/reply", url.Values{"user_text": {"hi there"}}), token)
			assert.Equal(t, c.status, rec.Code)
			body := decode[errorResponse](t, rec)
			assert.Contains(t, body.Error, c.body)
			assert.NotContains(t, body.Error, "secret host")
		})
	}
}

func TestInterviewReplyAudio(t *testing.T) {
	s, interviews, _ := newTestServer(t)
	token := signToken(t, testSecret, "user-1", time.Hour)

	req := multipartRequest(t, "/api/interview/s-1/reply-audio", "audio", "answer.webm", []byte("webm-bytes"), map[string]string{"language": "en-GB"})
	rec := serve(t, s, req, token)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[replyResponse](t, rec)
	assert.Equal(t, "I led the migration", body.Transcript)
	assert.Equal(t, []byte("webm-bytes"), interviews.audioIn.Audio)
	assert.Equal(t, "en-GB", interviews.audioIn.Language)
}

func TestInterviewReplyAudio_MissingFile(t *testing.T) {
	s, _, _ := newTestServer(t)
	token := signToken(t, testSecret, "user-1", time.Hour)

	rec := serve(t, s, formRequest(http.MethodPost, "/api/interview/s-1/reply-audio", url.Values{}), token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInterviewEnd(t *testing.T) {
	s, _, _ := newTestServer(t)
	token := signToken(t, testSecret, "user-1", time.Hour)

	rec := serve(t, s, httptest.NewRequest(http.MethodPost, "/api/interview/s-1/end", nil), token)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[endResponse](t, rec)
	assert.True(t, body.Ended)
	assert.True(t, body.AlreadyEnded)
}

func TestInterviewReads(t *testing.T) {
	s, interviews, _ := newTestServer(t)
	interviews.sessions = []repository.Session{{ID: "s-1", JobTitle: "Backend Engineer"}, {ID: "s-2", JobTitle: "Data Analyst"}}
	token := signToken(t, testSecret, "user-1", time.Hour)

	rec := serve(t, s, httptest.NewRequest(http.MethodGet, "/api/interview/limits", nil), token)
	require.Equal(t, http.StatusOK, rec.Code)
	limits := decode[interviewLimitsResponse](t, rec)
	assert.Equal(t, 2, limits.InterviewsRemaining)
	assert.Equal(t, 60, limits.QuestionLimit)

	rec = serve(t, s, httptest.NewRequest(http.MethodGet, "/api/interview/history", nil), token)
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[[]sessionResponse](t, rec)
	require.Len(t, history, 2)
	assert.Empty(t, history[0].Transcript)

	rec = serve(t, s, httptest.NewRequest(http.MethodGet, "/api/interview/s-9", nil), token)
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decode[sessionResponse](t, rec)
	assert.Equal(t, "s-9", detail.SessionID)
	assert.Len(t, detail.Transcript, 2)

	rec = serve(t, s, httptest.NewRequest(http.MethodGet, "/api/interview/s-9/transcript", nil), token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "interview-s-9.txt")
	assert.Equal(t, "Job title: Backend Engineer\n", rec.Body.String())
}

func TestInterviewGet_NotFound(t *testing.T) {
	s, interviews, _ := newTestServer(t)
	interviews.getErr = session.ErrNotFound
	token := signToken(t, testSecret, "user-2", time.Hour)

	rec := serve(t, s, httptest.NewRequest(http.MethodGet, "/api/interview/s-1", nil), token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResumeUpload(t *testing.T) {
	s, _, resumes := newTestServer(t)
	token := signToken(t, testSecret, "user-1", time.Hour)

	req := multipartRequest(t, "/api/resume/upload", "file", "cv.pdf", []byte("%PDF-1.4"), map[string]string{
		"job_title": "Backend Engineer",
		"consent":   "true",
	})
	rec := serve(t, s, req, token)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[resumeUploadResponse](t, rec)
	assert.Equal(t, "r-1", body.ID)
	assert.Equal(t, 70, body.Feedback.Score)
	assert.Equal(t, "user-1", resumes.in.UserID)
	assert.Equal(t, "cv.pdf", resumes.in.Filename)
	assert.True(t, resumes.in.Consent)
	assert.Equal(t, []byte("%PDF-1.4"), resumes.in.Data)
}

func TestResumeUpload_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{name: "not a resume", err: resume.ErrNotAResume, status: http.StatusBadRequest},
		{name: "unsupported", err: fmt.Errorf("%w: .doc", resume.ErrUnsupportedFile), status: http.StatusBadRequest},
		{name: "quota", err: fmt.Errorf("%w: resets at 00:00", resume.ErrQuotaExceeded), status: http.StatusTooManyRequests},
		{name: "unavailable", err: resume.ErrUnavailable, status: http.StatusBadGateway},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s, _, resumes := newTestServer(t)
			resumes.err = c.err
			token := signToken(t, testSecret, "user-1", time.Hour)

			req := multipartRequest(t, "/api/resume/upload", "file", "cv.doc", []byte("data"), map[string]string{"job_title": "Engineer"})
			rec := serve(t, s, req, token)
			assert.Equal(t, c.status, rec.Code)
		})
	}
}

func TestResumeReads(t *testing.T) {
	s, _, _ := newTestServer(t)
	token := signToken(t, testSecret, "user-1", time.Hour)

	rec := serve(t, s, httptest.NewRequest(http.MethodGet, "/api/resume/limits", nil), token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, resumeLimitsResponse{Remaining: 4, Limit: 5}, decode[resumeLimitsResponse](t, rec))

	rec = serve(t, s, httptest.NewRequest(http.MethodGet, "/api/resume/my", nil), token)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]resumeRecordResponse](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "cv.pdf", list[0].Filename)
	assert.NotNil(t, list[0].Keywords)
}

func TestRateLimitPerIP(t *testing.T) {
	cfg := &config.Config{JWTSecret: testSecret, RateLimitPerMinute: 2}
	s := NewServer(cfg, &fakeInterviews{}, &fakeResumes{})
	token := signToken(t, testSecret, "user-1", time.Hour)

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/interview/limits", nil)
		req.RemoteAddr = ip + ":1234"
		return serve(t, s, req, token).Code
	}
	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1"))
	assert.Equal(t, http.StatusOK, send("10.0.0.2"))
}

func TestIPRateLimiter_DropsIdleBuckets(t *testing.T) {
	rl := newIPRateLimiter(1)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.allow("a"))
	assert.False(t, rl.allow("a"))

	now = now.Add(limiterIdleTTL + time.Minute)
	assert.True(t, rl.allow("b"))
	_, kept := rl.limits["a"]
	assert.False(t, kept)
}

func TestBearerToken(t *testing.T) {
	tok, ok := bearerToken("bearer abc.def")
	assert.True(t, ok)
	assert.Equal(t, "abc.def", tok)

	_, ok = bearerToken("Basic abc")
	assert.False(t, ok)
	_, ok = bearerToken("Bearer ")
	assert.False(t, ok)
}
