package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	internalconfig "github.com/foxseedlab/mensetsu/internal/config"
	"github.com/joho/godotenv"
)

type envConfig struct {
	Env      string `env:"ENV" envDefault:"production"`
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	DatabaseURL string `env:"DATABASE_URL,required"`
	JWTSecret   string `env:"JWT_SECRET,required"`

	QuotaTimezone             string `env:"QUOTA_TIMEZONE" envDefault:"Asia/Kuala_Lumpur"`
	InterviewDefaultQuestions int    `env:"INTERVIEW_DEFAULT_QUESTIONS" envDefault:"10"`
	DailyQuestionLimit        int    `env:"DAILY_QUESTION_LIMIT" envDefault:"60"`
	DailyInterviewLimit       int    `env:"DAILY_INTERVIEW_LIMIT" envDefault:"3"`
	DailyResumeLimit          int    `env:"DAILY_RESUME_LIMIT" envDefault:"5"`
	RateLimitPerMinute        int    `env:"RATE_LIMIT_PER_MINUTE" envDefault:"30"`

	CompletionProvider    string        `env:"COMPLETION_PROVIDER" envDefault:"openai"`
	CompletionTimeout     time.Duration `env:"COMPLETION_TIMEOUT" envDefault:"60s"`
	CompletionTemperature float32       `env:"COMPLETION_TEMPERATURE" envDefault:"0.3"`
	OpenAIAPIKey          string        `env:"OPENAI_API_KEY"`
	OpenAIBaseURL         string        `env:"OPENAI_BASE_URL" envDefault:"https://api.mistral.ai/v1"`
	OpenAIChatModel       string        `env:"OPENAI_CHAT_MODEL" envDefault:"mistral-small-latest"`
	OpenAIEmbeddingModel  string        `env:"OPENAI_EMBEDDING_MODEL" envDefault:"mistral-embed"`
	GeminiAPIKey          string        `env:"GEMINI_API_KEY"`
	GeminiModel           string        `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`

	GoogleCloudProjectID       string `env:"GOOGLE_CLOUD_PROJECT_ID"`
	GoogleCloudCredentialsJSON string `env:"GOOGLE_CLOUD_CREDENTIALS_JSON"`
	GoogleCloudSpeechLocation  string `env:"GOOGLE_CLOUD_SPEECH_LOCATION" envDefault:"global"`
	GoogleCloudSpeechModel     string `env:"GOOGLE_CLOUD_SPEECH_MODEL" envDefault:"long"`
	SpeechLanguage             string `env:"SPEECH_LANGUAGE" envDefault:"en-US"`

	R2AccountID string `env:"R2_ACCOUNT_ID"`
	R2Bucket    string `env:"R2_BUCKET"`
	R2AccessKey string `env:"R2_ACCESS_KEY"`
	R2SecretKey string `env:"R2_SECRET_KEY"`

	RabbitMQURL           string `env:"RABBITMQ_URL"`
	SessionEventsExchange string `env:"SESSION_EVENTS_EXCHANGE" envDefault:"session_updates"`

	DiscordToken          string `env:"DISCORD_TOKEN"`
	DiscordAlertChannelID string `env:"DISCORD_ALERT_CHANNEL_ID"`

	ResultWebhookURL         string        `env:"RESULT_WEBHOOK_URL"`
	ResultWebhookSecret      string        `env:"RESULT_WEBHOOK_SECRET"`
	ResultWebhookTimeout     time.Duration `env:"RESULT_WEBHOOK_TIMEOUT" envDefault:"10s"`
	ResultWebhookMaxAttempts int           `env:"RESULT_WEBHOOK_MAX_ATTEMPTS" envDefault:"3"`
}

func Load() (*internalconfig.Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}

	cfg := &internalconfig.Config{
		Env:                        raw.Env,
		HTTPAddr:                   raw.HTTPAddr,
		DatabaseURL:                raw.DatabaseURL,
		JWTSecret:                  raw.JWTSecret,
		QuotaTimezone:              raw.QuotaTimezone,
		InterviewDefaultQuestions:  raw.InterviewDefaultQuestions,
		DailyQuestionLimit:         raw.DailyQuestionLimit,
		DailyInterviewLimit:        raw.DailyInterviewLimit,
		DailyResumeLimit:           raw.DailyResumeLimit,
		RateLimitPerMinute:         raw.RateLimitPerMinute,
		CompletionProvider:         raw.CompletionProvider,
		CompletionTimeout:          raw.CompletionTimeout,
		CompletionTemperature:      raw.CompletionTemperature,
		OpenAIAPIKey:               raw.OpenAIAPIKey,
		OpenAIBaseURL:              raw.OpenAIBaseURL,
		OpenAIChatModel:            raw.OpenAIChatModel,
		OpenAIEmbeddingModel:       raw.OpenAIEmbeddingModel,
		GeminiAPIKey:               raw.GeminiAPIKey,
		GeminiModel:                raw.GeminiModel,
		GoogleCloudProjectID:       raw.GoogleCloudProjectID,
		GoogleCloudCredentialsJSON: raw.GoogleCloudCredentialsJSON,
		GoogleCloudSpeechLocation:  raw.GoogleCloudSpeechLocation,
		GoogleCloudSpeechModel:     raw.GoogleCloudSpeechModel,
		SpeechLanguage:             raw.SpeechLanguage,
		R2AccountID:                raw.R2AccountID,
		R2Bucket:                   raw.R2Bucket,
		R2AccessKey:                raw.R2AccessKey,
		R2SecretKey:                raw.R2SecretKey,
		RabbitMQURL:                raw.RabbitMQURL,
		SessionEventsExchange:      raw.SessionEventsExchange,
		DiscordToken:               raw.DiscordToken,
		DiscordAlertChannelID:      raw.DiscordAlertChannelID,
		ResultWebhookURL:           raw.ResultWebhookURL,
		ResultWebhookSecret:        raw.ResultWebhookSecret,
		ResultWebhookTimeout:       raw.ResultWebhookTimeout,
		ResultWebhookMaxAttempts:   raw.ResultWebhookMaxAttempts,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
