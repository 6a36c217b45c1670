package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/foxseedlab/mensetsu/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const sessionColumns = `id, user_id, job_title, difficulty, resume_feedback, questions_limit,
	asked_count, invalid_attempts, created_at, ended_at, readiness_score, readiness_feedback, end_reason`

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) repository.Repository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) CreateSession(ctx context.Context, input repository.CreateSessionInput) (*repository.Session, error) {
	var created *repository.Session
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`INSERT INTO interview_sessions (id, user_id, job_title, difficulty, resume_feedback, questions_limit, asked_count, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 RETURNING `+sessionColumns,
			input.ID, input.UserID, input.JobTitle, string(input.Difficulty), input.ResumeFeedback,
			input.QuestionsLimit, input.AskedCount, input.CreatedAt)
		s, err := scanSession(row)
		if err != nil {
			return err
		}
		turns, err := insertTurns(ctx, tx, s.ID, 0, input.Turns)
		if err != nil {
			return err
		}
		s.Transcript = turns
		created = s
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return created, nil
}

func (r *PostgresRepository) GetSession(ctx context.Context, sessionID string) (*repository.Session, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM interview_sessions WHERE id = $1`, sessionID)
	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	turns, err := r.ListTurns(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	s.Transcript = turns
	return s, nil
}

func (r *PostgresRepository) ListSessionsByUser(ctx context.Context, userID string) ([]repository.Session, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM interview_sessions WHERE user_id = $1 ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []repository.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *s)
	}
	return list, rows.Err()
}

func (r *PostgresRepository) RecordTurn(ctx context.Context, input repository.RecordTurnInput) (*repository.RecordTurnResult, error) {
	var result repository.RecordTurnResult
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		// Row lock keeps turn indexes gap-free and serialises steps across processes.
		var (
			next  int
			ended bool
		)
		err := tx.QueryRow(ctx,
			`SELECT COALESCE((SELECT MAX(turn_index) + 1 FROM interview_turns WHERE session_id = s.id), 0),
			        s.ended_at IS NOT NULL
			 FROM interview_sessions s WHERE s.id = $1 FOR UPDATE`,
			input.SessionID).Scan(&next, &ended)
		if err != nil {
			return err
		}
		if ended {
			result.AlreadyEnded = true
			return nil
		}

		if _, err := insertTurns(ctx, tx, input.SessionID, next, input.Turns); err != nil {
			return err
		}
		if input.Counter != "" {
			if result.Count, err = incrementCounter(ctx, tx, input.SessionID, input.Counter); err != nil {
				return err
			}
		}
		if input.Complete != nil {
			c := input.Complete
			if _, err := tx.Exec(ctx,
				`UPDATE interview_sessions
				 SET ended_at = $2, readiness_score = $3, readiness_feedback = $4, end_reason = $5
				 WHERE id = $1`,
				input.SessionID, c.EndedAt, c.ReadinessScore, c.ReadinessFeedback, string(c.EndReason)); err != nil {
				return err
			}
			result.Completed = true
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("record turn: %w", err)
	}
	return &result, nil
}

func incrementCounter(ctx context.Context, tx pgx.Tx, sessionID string, counter repository.Counter) (int, error) {
	var stmt string
	switch counter {
	case repository.CounterAskedCount:
		stmt = `UPDATE interview_sessions SET asked_count = asked_count + 1 WHERE id = $1 RETURNING asked_count`
	case repository.CounterInvalidAttempts:
		stmt = `UPDATE interview_sessions SET invalid_attempts = invalid_attempts + 1 WHERE id = $1 RETURNING invalid_attempts`
	default:
		return 0, fmt.Errorf("unknown session counter %q", counter)
	}
	var value int
	if err := tx.QueryRow(ctx, stmt, sessionID).Scan(&value); err != nil {
		return 0, err
	}
	return value, nil
}

func (r *PostgresRepository) ListTurns(ctx context.Context, sessionID string) ([]repository.Turn, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT turn_index, role, text, at FROM interview_turns WHERE session_id = $1 ORDER BY turn_index ASC`,
		sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []repository.Turn
	for rows.Next() {
		var t repository.Turn
		var role string
		if err := rows.Scan(&t.Index, &role, &t.Text, &t.At); err != nil {
			return nil, err
		}
		t.Role = repository.Role(role)
		list = append(list, t)
	}
	return list, rows.Err()
}

func insertTurns(ctx context.Context, tx pgx.Tx, sessionID string, first int, turns []repository.Turn) ([]repository.Turn, error) {
	out := make([]repository.Turn, 0, len(turns))
	for i, t := range turns {
		t.Index = first + i
		if _, err := tx.Exec(ctx,
			`INSERT INTO interview_turns (session_id, turn_index, role, text, at) VALUES ($1, $2, $3, $4, $5)`,
			sessionID, t.Index, string(t.Role), t.Text, t.At); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func scanSession(row pgx.Row) (*repository.Session, error) {
	var (
		s          repository.Session
		difficulty string
		endedAt    *time.Time
		score      *int
		feedback   *string
		reason     *string
	)
	err := row.Scan(&s.ID, &s.UserID, &s.JobTitle, &difficulty, &s.ResumeFeedback, &s.QuestionsLimit,
		&s.AskedCount, &s.InvalidAttempts, &s.CreatedAt, &endedAt, &score, &feedback, &reason)
	if err != nil {
		return nil, err
	}
	s.Difficulty = repository.Difficulty(difficulty)
	s.EndedAt = endedAt
	s.ReadinessScore = score
	s.ReadinessFeedback = feedback
	if reason != nil {
		r := repository.EndReason(*reason)
		s.EndReason = &r
	}
	return &s, nil
}
