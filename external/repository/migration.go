package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

var migrationStatements = []string{
	`CREATE TABLE IF NOT EXISTS interview_sessions (
		id UUID PRIMARY KEY,
		user_id TEXT NOT NULL,
		job_title TEXT NOT NULL,
		difficulty TEXT NOT NULL,
		resume_feedback TEXT NOT NULL DEFAULT '',
		questions_limit INTEGER NOT NULL CHECK (questions_limit BETWEEN 10 AND 100),
		asked_count INTEGER NOT NULL DEFAULT 0,
		invalid_attempts INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL,
		ended_at TIMESTAMPTZ,
		readiness_score INTEGER CHECK (readiness_score BETWEEN 0 AND 100),
		readiness_feedback TEXT,
		end_reason TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_interview_sessions_user ON interview_sessions (user_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS interview_turns (
		session_id UUID NOT NULL REFERENCES interview_sessions(id) ON DELETE CASCADE,
		turn_index INTEGER NOT NULL,
		role TEXT NOT NULL,
		text TEXT NOT NULL,
		at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (session_id, turn_index)
	)`,
	`CREATE TABLE IF NOT EXISTS resumes (
		id UUID PRIMARY KEY,
		user_id TEXT NOT NULL,
		filename TEXT NOT NULL,
		mime_type TEXT NOT NULL,
		object_key TEXT,
		job_title TEXT NOT NULL,
		feedback JSONB NOT NULL,
		keywords TEXT[] NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_resumes_user ON resumes (user_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS daily_quotas (
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		day DATE NOT NULL,
		used INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (user_id, name, day)
	)`,
}

func RunMigration(ctx context.Context, pool *pgxpool.Pool) error {
	for i, s := range migrationStatements {
		stmt := strings.TrimSpace(s)
		if stmt == "" {
			continue
		}
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration statement %d: %w", i, err)
		}
	}
	return nil
}
