package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/foxseedlab/mensetsu/internal/completion"
	"github.com/foxseedlab/mensetsu/internal/config"
	"github.com/foxseedlab/mensetsu/internal/discord"
	"github.com/foxseedlab/mensetsu/internal/events"
	"github.com/foxseedlab/mensetsu/internal/quota"
	"github.com/foxseedlab/mensetsu/internal/repository"
	"github.com/foxseedlab/mensetsu/internal/transcriber"
	"github.com/foxseedlab/mensetsu/internal/webhook"
	"github.com/google/uuid"
)

const (
	MinQuestions       = 10
	MaxQuestions       = 100
	maxInvalidAttempts = 3
)

type Manager struct {
	cfg         *config.Config
	repo        repository.Repository
	quota       quota.Limiter
	completer   completion.Completer
	transcriber transcriber.Transcriber
	webhook     webhook.Sender
	events      events.Publisher
	alerts      discord.Alerter

	now   func() time.Time
	newID func() string
	locks *sessionLocks
}

func NewManager(
	cfg *config.Config,
	repo repository.Repository,
	limiter quota.Limiter,
	completer completion.Completer,
	stt transcriber.Transcriber,
	wh webhook.Sender,
	pub events.Publisher,
	alerts discord.Alerter,
) *Manager {
	return &Manager{
		cfg:         cfg,
		repo:        repo,
		quota:       limiter,
		completer:   completer,
		transcriber: stt,
		webhook:     wh,
		events:      pub,
		alerts:      alerts,
		now:         time.Now,
		newID:       uuid.NewString,
		locks:       newSessionLocks(),
	}
}

type StartInput struct {
	UserID         string
	JobTitle       string
	Difficulty     string
	QuestionsLimit int
	ResumeFeedback string
}

type StartResult struct {
	SessionID      string
	Message        string
	AskedCount     int
	QuestionsLimit int
}

type ReplyInput struct {
	SessionID string
	UserID    string
	Text      string
}

type ReplyAudioInput struct {
	SessionID string
	UserID    string
	Audio     []byte
	Language  string
}

type ReplyResult struct {
	Message        string
	Ended          bool
	AlreadyEnded   bool
	AskedCount     int
	QuestionsLimit int
	ReadinessScore *int
	// Transcript is the recognised text of a spoken answer.
	Transcript string
}

type EndResult struct {
	Ended        bool
	AlreadyEnded bool
	Message      string
}

type Limits struct {
	InterviewsRemaining int
	InterviewLimit      int
	QuestionsRemaining  int
	QuestionLimit       int
}

func (m *Manager) Start(ctx context.Context, in StartInput) (*StartResult, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return nil, fmt.Errorf("%w: missing user", ErrInvalidInput)
	}
	difficulty := normalizeDifficulty(in.Difficulty)
	limit := normalizeQuestionsLimit(in.QuestionsLimit, m.cfg.InterviewDefaultQuestions)

	jobTitle, feedback, err := m.resolveCandidateContext(ctx, in)
	if err != nil {
		return nil, err
	}
	if jobTitle == "" {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, messageNoJobTitle)
	}

	if err := m.ensureQuota(ctx, in.UserID, quota.DailyQuestionCount, m.cfg.DailyQuestionLimit, messageQuestionQuotaReached); err != nil {
		return nil, err
	}
	if err := m.ensureQuota(ctx, in.UserID, quota.DailyInterviewCount, m.cfg.DailyInterviewLimit, messageInterviewQuotaReached); err != nil {
		return nil, err
	}

	ic := interviewContext{
		JobTitle:       jobTitle,
		Difficulty:     difficulty,
		ResumeFeedback: feedback,
		QuestionsLimit: limit,
	}
	reply, err := m.converse(ctx, PolicyFor(0, limit, false), ic, nil)
	if err != nil {
		slog.Error("failed to generate opening question", "error", err, "user_id", in.UserID)
		return nil, err
	}

	now := m.now()
	sess, err := m.repo.CreateSession(ctx, repository.CreateSessionInput{
		ID:             m.newID(),
		UserID:         in.UserID,
		JobTitle:       jobTitle,
		Difficulty:     difficulty,
		ResumeFeedback: feedback,
		QuestionsLimit: limit,
		AskedCount:     1,
		CreatedAt:      now,
		Turns: []repository.Turn{
			{Role: repository.RoleAssistant, Text: reply.message, At: now},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	slog.Info("interview session started", "session_id", sess.ID, "user_id", in.UserID, "job_title", jobTitle, "difficulty", difficulty, "questions_limit", limit)

	m.consumeQuota(ctx, in.UserID, quota.DailyQuestionCount, m.cfg.DailyQuestionLimit)
	m.publish(ctx, events.SessionUpdate{
		SessionID:      sess.ID,
		Status:         events.SessionStatusInProgress,
		Message:        reply.message,
		AskedCount:     1,
		QuestionsLimit: limit,
	})

	return &StartResult{
		SessionID:      sess.ID,
		Message:        reply.message,
		AskedCount:     1,
		QuestionsLimit: limit,
	}, nil
}

func (m *Manager) Reply(ctx context.Context, in ReplyInput) (*ReplyResult, error) {
	unlock := m.locks.lock(in.SessionID)
	defer unlock()

	sess, err := m.loadOwned(ctx, in.SessionID, in.UserID)
	if err != nil {
		return nil, err
	}
	if sess.Ended() {
		return alreadyEndedReply(sess), nil
	}
	return m.reply(ctx, sess, in.Text)
}

// ReplyAudio holds the session lock while transcribing so a concurrent End
// cannot close the session under a paid recognition call.
func (m *Manager) ReplyAudio(ctx context.Context, in ReplyAudioInput) (*ReplyResult, error) {
	unlock := m.locks.lock(in.SessionID)
	defer unlock()

	sess, err := m.loadOwned(ctx, in.SessionID, in.UserID)
	if err != nil {
		return nil, err
	}
	if sess.Ended() {
		return alreadyEndedReply(sess), nil
	}
	if len(in.Audio) == 0 {
		return nil, fmt.Errorf("%w: empty audio", ErrInvalidInput)
	}

	language := in.Language
	if language == "" {
		language = m.cfg.SpeechLanguage
	}
	text, err := m.transcriber.Transcribe(ctx, in.Audio, language)
	if err != nil {
		slog.Error("failed to transcribe spoken answer", "error", err, "session_id", sess.ID)
		return nil, fmt.Errorf("%w: transcribe answer: %w", ErrUnavailable, err)
	}
	slog.Debug("spoken answer transcribed", "session_id", sess.ID, "chars", len(text))

	result, err := m.reply(ctx, sess, text)
	if err != nil {
		return nil, err
	}
	result.Transcript = text
	return result, nil
}

// reply handles one answer for an open session. The caller holds the
// session lock.
func (m *Manager) reply(ctx context.Context, sess *repository.Session, text string) (*ReplyResult, error) {
	if sess.AskedCount > sess.QuestionsLimit {
		return m.closeOverrun(ctx, sess)
	}
	if IsGibberish(text) {
		return m.handleInvalidAnswer(ctx, sess, text)
	}
	if err := m.ensureQuota(ctx, sess.UserID, quota.DailyQuestionCount, m.cfg.DailyQuestionLimit, messageQuestionQuotaReached); err != nil {
		return nil, err
	}

	answeredAt := m.now()
	history := append(conversationFrom(sess.Transcript), completion.Turn{Role: completion.RoleUser, Content: text})
	policy := PolicyFor(sess.AskedCount, sess.QuestionsLimit, false)
	reply, err := m.converse(ctx, policy, contextFor(sess), history)
	if err != nil {
		slog.Error("failed to generate interviewer reply", "error", err, "session_id", sess.ID, "policy", policy.Kind.String())
		return nil, err
	}

	asked := sess.AskedCount + 1
	ended := asked > sess.QuestionsLimit || (asked >= sess.QuestionsLimit && HasTerminalMarker(reply.raw))
	message := StripTerminalMarker(reply.message)

	step := repository.RecordTurnInput{
		SessionID: sess.ID,
		Turns: []repository.Turn{
			{Role: repository.RoleUser, Text: text, At: answeredAt},
			{Role: repository.RoleAssistant, Text: message, At: m.now()},
		},
		Counter: repository.CounterAskedCount,
	}
	var outcome Outcome
	if ended {
		outcome = ExtractOutcome(message)
		if outcome.Score == nil {
			slog.Warn("closing message carried no valid readiness score", "session_id", sess.ID, "asked_count", asked)
		}
		step.Complete = m.completion(outcome, repository.EndReasonCompleted)
	}
	rec, err := m.repo.RecordTurn(ctx, step)
	if err != nil {
		return nil, fmt.Errorf("record reply: %w", err)
	}
	if rec.AlreadyEnded {
		return alreadyEndedReply(sess), nil
	}
	asked = rec.Count
	m.consumeQuota(ctx, sess.UserID, quota.DailyQuestionCount, m.cfg.DailyQuestionLimit)

	result := &ReplyResult{
		Message:        message,
		AskedCount:     asked,
		QuestionsLimit: sess.QuestionsLimit,
	}
	if !ended {
		m.publish(ctx, events.SessionUpdate{
			SessionID:      sess.ID,
			Status:         events.SessionStatusInProgress,
			Message:        message,
			AskedCount:     asked,
			QuestionsLimit: sess.QuestionsLimit,
		})
		return result, nil
	}

	if rec.Completed {
		m.afterCompletion(ctx, sess, outcome, repository.EndReasonCompleted, message)
	}
	result.Ended = true
	result.ReadinessScore = outcome.Score
	return result, nil
}

// closeOverrun ends a session whose closing reply is already stored but which
// was never marked ended. The stored closing message is reused and the model
// is not called again.
func (m *Manager) closeOverrun(ctx context.Context, sess *repository.Session) (*ReplyResult, error) {
	slog.Warn("session past its question limit is still open; completing it", "session_id", sess.ID, "asked_count", sess.AskedCount)
	message := lastInterviewerText(sess.Transcript)
	outcome := ExtractOutcome(message)
	rec, err := m.repo.RecordTurn(ctx, repository.RecordTurnInput{
		SessionID: sess.ID,
		Complete:  m.completion(outcome, repository.EndReasonCompleted),
	})
	if err != nil {
		return nil, fmt.Errorf("record completion: %w", err)
	}
	if rec.AlreadyEnded {
		return alreadyEndedReply(sess), nil
	}
	if rec.Completed {
		m.afterCompletion(ctx, sess, outcome, repository.EndReasonCompleted, message)
	}
	return &ReplyResult{
		Message:        message,
		Ended:          true,
		AskedCount:     sess.AskedCount,
		QuestionsLimit: sess.QuestionsLimit,
		ReadinessScore: outcome.Score,
	}, nil
}

func (m *Manager) End(ctx context.Context, sessionID, userID string) (*EndResult, error) {
	unlock := m.locks.lock(sessionID)
	defer unlock()

	sess, err := m.loadOwned(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if sess.Ended() {
		return &EndResult{Ended: true, AlreadyEnded: true, Message: messageSessionEnded}, nil
	}

	history := append(conversationFrom(sess.Transcript), completion.Turn{Role: completion.RoleUser, Content: noticeEndedEarly})
	reply, err := m.converse(ctx, PolicyFor(sess.AskedCount, sess.QuestionsLimit, true), contextFor(sess), history)
	if err != nil {
		slog.Error("failed to generate closing message", "error", err, "session_id", sess.ID)
		return nil, err
	}
	message := StripTerminalMarker(reply.message)
	if message == "" {
		message = messageEndedEarlyFallback
	}

	outcome := Outcome{Feedback: message}
	rec, err := m.repo.RecordTurn(ctx, repository.RecordTurnInput{
		SessionID: sess.ID,
		Turns:     []repository.Turn{{Role: repository.RoleAssistant, Text: message, At: m.now()}},
		Complete:  m.completion(outcome, repository.EndReasonUserEnded),
	})
	if err != nil {
		return nil, fmt.Errorf("record end: %w", err)
	}
	if rec.AlreadyEnded {
		return &EndResult{Ended: true, AlreadyEnded: true, Message: messageSessionEnded}, nil
	}
	if rec.Completed {
		m.afterCompletion(ctx, sess, outcome, repository.EndReasonUserEnded, message)
	}
	return &EndResult{Ended: true, Message: message}, nil
}

func (m *Manager) Get(ctx context.Context, sessionID, userID string) (*repository.Session, error) {
	return m.loadOwned(ctx, sessionID, userID)
}

func (m *Manager) History(ctx context.Context, userID string) ([]repository.Session, error) {
	sessions, err := m.repo.ListSessionsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

func (m *Manager) Limits(ctx context.Context, userID string) (*Limits, error) {
	interviews, err := m.quota.Remaining(ctx, userID, quota.DailyInterviewCount, m.cfg.DailyInterviewLimit)
	if err != nil {
		return nil, fmt.Errorf("read interview quota: %w", err)
	}
	questions, err := m.quota.Remaining(ctx, userID, quota.DailyQuestionCount, m.cfg.DailyQuestionLimit)
	if err != nil {
		return nil, fmt.Errorf("read question quota: %w", err)
	}
	return &Limits{
		InterviewsRemaining: interviews,
		InterviewLimit:      m.cfg.DailyInterviewLimit,
		QuestionsRemaining:  questions,
		QuestionLimit:       m.cfg.DailyQuestionLimit,
	}, nil
}

func (m *Manager) TranscriptText(ctx context.Context, sessionID, userID string) ([]byte, error) {
	sess, err := m.loadOwned(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	return buildTranscriptText(sess, m.cfg.QuotaTimezone, m.cfg.Location(), m.now()), nil
}

func (m *Manager) handleInvalidAnswer(ctx context.Context, sess *repository.Session, text string) (*ReplyResult, error) {
	slog.Info("answer classified as gibberish", "session_id", sess.ID, "invalid_attempts", sess.InvalidAttempts)
	now := m.now()
	closing := sess.InvalidAttempts+1 >= maxInvalidAttempts

	step := repository.RecordTurnInput{
		SessionID: sess.ID,
		Turns: []repository.Turn{
			{Role: repository.RoleUser, Text: text, At: now},
			{Role: repository.RoleAssistant, Text: messageInvalidAnswer, At: now},
		},
		Counter: repository.CounterInvalidAttempts,
	}
	outcome := Outcome{Feedback: messageInvalidAnswersClosed}
	if closing {
		step.Turns = append(step.Turns, repository.Turn{Role: repository.RoleAssistant, Text: messageInvalidAnswersClosed, At: now})
		step.Complete = m.completion(outcome, repository.EndReasonInvalidAnswers)
	}
	rec, err := m.repo.RecordTurn(ctx, step)
	if err != nil {
		return nil, fmt.Errorf("record invalid answer: %w", err)
	}
	if rec.AlreadyEnded {
		return alreadyEndedReply(sess), nil
	}

	if !closing {
		m.publish(ctx, events.SessionUpdate{
			SessionID:      sess.ID,
			Status:         events.SessionStatusInProgress,
			Message:        messageInvalidAnswer,
			AskedCount:     sess.AskedCount,
			QuestionsLimit: sess.QuestionsLimit,
		})
		return &ReplyResult{
			Message:        messageInvalidAnswer,
			AskedCount:     sess.AskedCount,
			QuestionsLimit: sess.QuestionsLimit,
		}, nil
	}

	if rec.Completed {
		m.afterCompletion(ctx, sess, outcome, repository.EndReasonInvalidAnswers, messageInvalidAnswersClosed)
		m.alert(ctx, alertInvalidAnswersClosed(sess.ID, sess.UserID))
	}
	return &ReplyResult{
		Message:        messageInvalidAnswersClosed,
		Ended:          true,
		AskedCount:     sess.AskedCount,
		QuestionsLimit: sess.QuestionsLimit,
	}, nil
}

func (m *Manager) completion(outcome Outcome, reason repository.EndReason) *repository.SessionCompletion {
	return &repository.SessionCompletion{
		EndedAt:           m.now(),
		ReadinessScore:    outcome.Score,
		ReadinessFeedback: outcome.Feedback,
		EndReason:         reason,
	}
}

// afterCompletion runs the side effects of ending a session. It is called
// only by the step that actually flipped the session to ended.
func (m *Manager) afterCompletion(ctx context.Context, sess *repository.Session, outcome Outcome, reason repository.EndReason, message string) {
	slog.Info("interview session ended", "session_id", sess.ID, "user_id", sess.UserID, "end_reason", reason, "readiness_score", outcome.Score)

	m.consumeQuota(ctx, sess.UserID, quota.DailyInterviewCount, m.cfg.DailyInterviewLimit)

	final, err := m.repo.GetSession(ctx, sess.ID)
	if err != nil || final == nil {
		slog.Error("failed to reload completed session", "error", err, "session_id", sess.ID)
	} else {
		payload := buildInterviewResultPayload(final, m.cfg.QuotaTimezone, m.cfg.Location())
		if err := m.webhook.SendInterviewResult(ctx, payload); err != nil {
			slog.Error("failed to send interview result webhook", "error", err, "session_id", sess.ID)
		}
	}

	asked := sess.AskedCount
	if final != nil {
		asked = final.AskedCount
	}
	m.publish(ctx, events.SessionUpdate{
		SessionID:      sess.ID,
		Status:         events.SessionStatusCompleted,
		Message:        message,
		AskedCount:     asked,
		QuestionsLimit: sess.QuestionsLimit,
	})
}

type modelReply struct {
	message string
	raw     string
}

// converse makes the policy's model call and, for question turns whose output
// has the wrong shape, exactly one corrective call.
func (m *Manager) converse(ctx context.Context, policy Policy, ic interviewContext, history []completion.Turn) (modelReply, error) {
	system := policy.systemPrompt(ic)
	raw, err := m.complete(ctx, system, history)
	if err != nil {
		return modelReply{}, err
	}
	cleaned := policy.Clean(raw)
	if !policy.NeedsCorrection(cleaned) {
		return modelReply{message: cleaned, raw: raw}, nil
	}

	slog.Warn("model output did not follow the turn policy; requesting correction", "policy", policy.Kind.String(), "asked_count", ic.AskedCount)
	retry := append(slices.Clone(history),
		completion.Turn{Role: completion.RoleAssistant, Content: cleaned},
		completion.Turn{Role: completion.RoleUser, Content: correctionPrompt(ic)},
	)
	raw, err = m.complete(ctx, system, retry)
	if err != nil {
		return modelReply{}, err
	}
	cleaned = policy.Clean(raw)
	if strings.TrimSpace(cleaned) == "" {
		slog.Warn("corrected model output was empty; using fallback question", "policy", policy.Kind.String())
		cleaned = fallbackQuestion(ic.JobTitle)
	}
	return modelReply{message: cleaned, raw: raw}, nil
}

func (m *Manager) complete(ctx context.Context, system string, turns []completion.Turn) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, m.cfg.CompletionTimeout)
	defer cancel()

	out, err := m.completer.Complete(callCtx, system, turns)
	if err == nil {
		return out, nil
	}
	if errors.Is(err, completion.ErrRateLimited) {
		return "", fmt.Errorf("%w: %w", ErrRateLimited, err)
	}
	return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
}

func (m *Manager) resolveCandidateContext(ctx context.Context, in StartInput) (string, string, error) {
	jobTitle := strings.TrimSpace(in.JobTitle)
	feedback := strings.TrimSpace(in.ResumeFeedback)
	if jobTitle != "" && feedback != "" {
		return jobTitle, feedback, nil
	}

	latest, err := m.repo.LatestResume(ctx, in.UserID)
	if err != nil {
		return "", "", fmt.Errorf("load latest resume: %w", err)
	}
	if latest == nil {
		return jobTitle, feedback, nil
	}
	if jobTitle == "" {
		jobTitle = strings.TrimSpace(latest.JobTitle)
	}
	if feedback == "" && len(latest.Feedback) > 0 {
		feedback = string(latest.Feedback)
	}
	return jobTitle, feedback, nil
}

func (m *Manager) loadOwned(ctx context.Context, sessionID, userID string) (*repository.Session, error) {
	if err := uuid.Validate(sessionID); err != nil {
		return nil, fmt.Errorf("%w: malformed session id", ErrInvalidInput)
	}
	sess, err := m.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if sess == nil || sess.UserID != userID {
		return nil, ErrNotFound
	}
	return sess, nil
}

func (m *Manager) ensureQuota(ctx context.Context, userID, name string, dailyMax int, message string) error {
	remaining, err := m.quota.Remaining(ctx, userID, name, dailyMax)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if remaining <= 0 {
		return fmt.Errorf("%w: %s", ErrQuotaExceeded, message)
	}
	return nil
}

func (m *Manager) consumeQuota(ctx context.Context, userID, name string, dailyMax int) {
	allowed, remaining, err := m.quota.TryConsume(ctx, userID, name, dailyMax)
	if err != nil {
		slog.Error("failed to consume quota", "error", err, "user_id", userID, "quota", name)
		return
	}
	if !allowed {
		slog.Warn("quota exhausted while consuming", "user_id", userID, "quota", name)
		return
	}
	slog.Debug("quota consumed", "user_id", userID, "quota", name, "remaining", remaining)
}

func (m *Manager) publish(ctx context.Context, update events.SessionUpdate) {
	update.Timestamp = m.now()
	if err := m.events.PublishSessionUpdate(ctx, update); err != nil {
		slog.Error("failed to publish session update", "error", err, "session_id", update.SessionID)
	}
}

func (m *Manager) alert(ctx context.Context, content string) {
	if err := m.alerts.SendAlert(ctx, content); err != nil {
		slog.Error("failed to send staff alert", "error", err)
	}
}

func alreadyEndedReply(sess *repository.Session) *ReplyResult {
	return &ReplyResult{
		Message:        messageSessionEnded,
		Ended:          true,
		AlreadyEnded:   true,
		AskedCount:     sess.AskedCount,
		QuestionsLimit: sess.QuestionsLimit,
		ReadinessScore: sess.ReadinessScore,
	}
}

func lastInterviewerText(transcript []repository.Turn) string {
	for i := len(transcript) - 1; i >= 0; i-- {
		if transcript[i].Role == repository.RoleAssistant {
			return transcript[i].Text
		}
	}
	return ""
}

func conversationFrom(transcript []repository.Turn) []completion.Turn {
	turns := make([]completion.Turn, 0, len(transcript)+1)
	for _, t := range transcript {
		role := completion.RoleUser
		if t.Role == repository.RoleAssistant {
			role = completion.RoleAssistant
		}
		turns = append(turns, completion.Turn{Role: role, Content: t.Text})
	}
	return turns
}

func normalizeDifficulty(s string) repository.Difficulty {
	for _, d := range []repository.Difficulty{repository.DifficultyBeginner, repository.DifficultyIntermediate, repository.DifficultyAdvanced} {
		if strings.EqualFold(strings.TrimSpace(s), string(d)) {
			return d
		}
	}
	return repository.DifficultyBeginner
}

func normalizeQuestionsLimit(requested, fallback int) int {
	if requested < MinQuestions {
		requested = fallback
	}
	return min(max(requested, MinQuestions), MaxQuestions)
}
