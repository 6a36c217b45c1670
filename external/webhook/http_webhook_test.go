package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/foxseedlab/mensetsu/internal/webhook"
)

func newTestSender(url string, attempts int) (*HTTPSender, *[]time.Duration) {
	var delays []time.Duration
	s := NewHTTPSender(Config{URL: url, Secret: "shh", Timeout: time.Second, MaxAttempts: attempts, BaseDelay: 10 * time.Millisecond})
	s.sleep = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}
	return s, &delays
}

func TestDisabledSender(t *testing.T) {
	if err := (DisabledSender{}).SendInterviewResult(context.Background(), webhook.InterviewResultPayload{}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestSendInterviewResult_Success(t *testing.T) {
	var got map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type: %s", ct)
		}
		if v := r.Header.Get(headerSchemaVersion); v != webhook.InterviewResultSchemaVersion {
			t.Errorf("unexpected schema header: %s", v)
		}
		if v := r.Header.Get(headerDelivery); v != "s-1" {
			t.Errorf("unexpected delivery header: %s", v)
		}
		body, _ := io.ReadAll(r.Body)
		mac := hmac.New(sha256.New, []byte("shh"))
		mac.Write(body)
		if want := "sha256=" + hex.EncodeToString(mac.Sum(nil)); r.Header.Get(headerSignature) != want {
			t.Errorf("unexpected signature: %s", r.Header.Get(headerSignature))
		}
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("failed to decode body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	sender, _ := newTestSender(server.URL, 3)
	err := sender.SendInterviewResult(context.Background(), webhook.InterviewResultPayload{
		SchemaVersion:  webhook.InterviewResultSchemaVersion,
		SessionID:      "s-1",
		ReadinessScore: nil,
		EndReason:      "user_ended",
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if got["session_id"] != "s-1" || got["end_reason"] != "user_ended" {
		t.Fatalf("unexpected payload: %v", got)
	}
	if v, ok := got["readiness_score"]; !ok || v != nil {
		t.Fatalf("readiness_score should be present and null: %v", got)
	}
}

func TestSendInterviewResult_NoSignatureWithoutSecret(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if v := r.Header.Get(headerSignature); v != "" {
			t.Errorf("unexpected signature: %s", v)
		}
	}))
	defer server.Close()

	sender := NewHTTPSender(Config{URL: server.URL, Timeout: time.Second})
	if err := sender.SendInterviewResult(context.Background(), webhook.InterviewResultPayload{SessionID: "s-1"}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestSendInterviewResult_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sender, delays := newTestSender(server.URL, 3)
	if err := sender.SendInterviewResult(context.Background(), webhook.InterviewResultPayload{SessionID: "s-1"}); err != nil {
		t.Fatalf("expected success on third attempt, got %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 calls, got %d", calls.Load())
	}
	if len(*delays) != 2 || (*delays)[0] != 10*time.Millisecond || (*delays)[1] != 20*time.Millisecond {
		t.Fatalf("unexpected backoff: %v", *delays)
	}
}

func TestSendInterviewResult_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	sender, _ := newTestSender(server.URL, 2)
	if err := sender.SendInterviewResult(context.Background(), webhook.InterviewResultPayload{}); err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 calls, got %d", calls.Load())
	}
}

func TestSendInterviewResult_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	sender, _ := newTestSender(server.URL, 3)
	if err := sender.SendInterviewResult(context.Background(), webhook.InterviewResultPayload{}); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
	if calls.Load() != 1 {
		t.Fatalf("4xx must not be retried, got %d calls", calls.Load())
	}
}
