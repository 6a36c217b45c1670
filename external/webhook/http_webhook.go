package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/foxseedlab/mensetsu/internal/webhook"
)

const (
	headerSchemaVersion = "X-Webhook-Schema-Version"
	headerDelivery      = "X-Webhook-Delivery"
	headerSignature     = "X-Webhook-Signature"

	defaultBaseDelay = 500 * time.Millisecond
)

// Config describes where interview results are delivered. Secret enables an
// HMAC-SHA256 signature of the request body.
type Config struct {
	URL         string
	Secret      string
	Timeout     time.Duration
	MaxAttempts int
	BaseDelay   time.Duration
}

type HTTPSender struct {
	cfg    Config
	client *http.Client
	sleep  func(ctx context.Context, d time.Duration) error
}

func NewHTTPSender(cfg Config) *HTTPSender {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = defaultBaseDelay
	}
	return &HTTPSender{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		sleep:  sleepContext,
	}
}

// SendInterviewResult posts the payload, retrying transport failures, 429 and
// 5xx responses with exponential backoff. Other statuses fail immediately.
func (s *HTTPSender) SendInterviewResult(ctx context.Context, payload webhook.InterviewResultPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode interview result: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		lastErr = s.post(ctx, payload, body)
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) || attempt == s.cfg.MaxAttempts {
			break
		}
		delay := s.cfg.BaseDelay << (attempt - 1)
		slog.Warn("interview result webhook failed; retrying", "error", lastErr, "session_id", payload.SessionID, "attempt", attempt, "delay", delay)
		if err := s.sleep(ctx, delay); err != nil {
			return err
		}
	}
	return lastErr
}

func (s *HTTPSender) post(ctx context.Context, payload webhook.InterviewResultPayload, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(headerSchemaVersion, payload.SchemaVersion)
	req.Header.Set(headerDelivery, payload.SessionID)
	if s.cfg.Secret != "" {
		req.Header.Set(headerSignature, sign(s.cfg.Secret, body))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &statusError{code: resp.StatusCode}
	}
	return nil
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("webhook returned status %d", e.code)
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	return true
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// DisabledSender drops results when no webhook URL is configured.
type DisabledSender struct{}

func (DisabledSender) SendInterviewResult(context.Context, webhook.InterviewResultPayload) error {
	return nil
}
