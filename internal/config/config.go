package config

import (
	"fmt"
	"time"
)

const (
	CompletionProviderOpenAI  = "openai"
	CompletionProviderGemini  = "gemini"
	CompletionProviderOffline = "offline"
)

type Config struct {
	Env      string
	HTTPAddr string

	DatabaseURL string
	JWTSecret   string

	QuotaTimezone             string
	InterviewDefaultQuestions int
	DailyQuestionLimit        int
	DailyInterviewLimit       int
	DailyResumeLimit          int
	RateLimitPerMinute        int

	CompletionProvider    string
	CompletionTimeout     time.Duration
	CompletionTemperature float32
	OpenAIAPIKey          string
	OpenAIBaseURL         string
	OpenAIChatModel       string
	OpenAIEmbeddingModel  string
	GeminiAPIKey          string
	GeminiModel           string

	GoogleCloudProjectID       string
	GoogleCloudCredentialsJSON string
	GoogleCloudSpeechLocation  string
	GoogleCloudSpeechModel     string
	SpeechLanguage             string

	R2AccountID string
	R2Bucket    string
	R2AccessKey string
	R2SecretKey string

	RabbitMQURL           string
	SessionEventsExchange string

	DiscordToken          string
	DiscordAlertChannelID string

	ResultWebhookURL         string
	ResultWebhookSecret      string
	ResultWebhookTimeout     time.Duration
	ResultWebhookMaxAttempts int
}

func (c *Config) Validate() error {
	for _, req := range c.requiredFieldChecks() {
		if req.value == "" {
			return fmt.Errorf("%s is required", req.name)
		}
	}
	if err := c.validateLimits(); err != nil {
		return err
	}
	if _, err := time.LoadLocation(c.QuotaTimezone); err != nil {
		return fmt.Errorf("QUOTA_TIMEZONE is invalid: %w", err)
	}
	switch c.CompletionProvider {
	case CompletionProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when COMPLETION_PROVIDER=%s", CompletionProviderOpenAI)
		}
	case CompletionProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required when COMPLETION_PROVIDER=%s", CompletionProviderGemini)
		}
	case CompletionProviderOffline:
	default:
		return fmt.Errorf("COMPLETION_PROVIDER must be one of openai, gemini, offline, got %q", c.CompletionProvider)
	}
	if c.CompletionTimeout <= 0 {
		return fmt.Errorf("COMPLETION_TIMEOUT must be positive, got %s", c.CompletionTimeout)
	}
	if c.ResultWebhookEnabled() && (c.ResultWebhookTimeout <= 0 || c.ResultWebhookMaxAttempts <= 0) {
		return fmt.Errorf("RESULT_WEBHOOK_TIMEOUT and RESULT_WEBHOOK_MAX_ATTEMPTS must be positive when RESULT_WEBHOOK_URL is set")
	}
	if c.SpeechEnabled() && c.GoogleCloudCredentialsJSON == "" {
		return fmt.Errorf("GOOGLE_CLOUD_CREDENTIALS_JSON is required when GOOGLE_CLOUD_PROJECT_ID is set")
	}
	return nil
}

func (c *Config) validateLimits() error {
	checks := []struct {
		name  string
		value int
	}{
		{name: "INTERVIEW_DEFAULT_QUESTIONS", value: c.InterviewDefaultQuestions},
		{name: "DAILY_QUESTION_LIMIT", value: c.DailyQuestionLimit},
		{name: "DAILY_INTERVIEW_LIMIT", value: c.DailyInterviewLimit},
		{name: "DAILY_RESUME_LIMIT", value: c.DailyResumeLimit},
		{name: "RATE_LIMIT_PER_MINUTE", value: c.RateLimitPerMinute},
	}
	for _, check := range checks {
		if check.value <= 0 {
			return fmt.Errorf("%s must be positive, got %d", check.name, check.value)
		}
	}
	return nil
}

type requiredEnvField struct {
	name  string
	value string
}

func (c *Config) requiredFieldChecks() []requiredEnvField {
	return []requiredEnvField{
		{name: "HTTP_ADDR", value: c.HTTPAddr},
		{name: "DATABASE_URL", value: c.DatabaseURL},
		{name: "JWT_SECRET", value: c.JWTSecret},
		{name: "QUOTA_TIMEZONE", value: c.QuotaTimezone},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) SpeechEnabled() bool {
	return c.GoogleCloudProjectID != ""
}

func (c *Config) ObjectStorageEnabled() bool {
	return c.R2AccountID != "" && c.R2Bucket != "" && c.R2AccessKey != "" && c.R2SecretKey != ""
}

func (c *Config) ResultWebhookEnabled() bool {
	return c.ResultWebhookURL != ""
}

func (c *Config) DiscordAlertsEnabled() bool {
	return c.DiscordToken != "" && c.DiscordAlertChannelID != ""
}

// Location falls back to UTC so callers never handle a nil location; Validate
// has already rejected unknown zones at startup.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.QuotaTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
