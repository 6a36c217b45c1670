package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/foxseedlab/mensetsu/internal/repository"
	"github.com/jackc/pgx/v5"
)

const resumeColumns = `id, user_id, filename, mime_type, object_key, job_title, feedback, keywords, created_at`

func (r *PostgresRepository) CreateResume(ctx context.Context, input repository.CreateResumeInput) (*repository.Resume, error) {
	keywords := input.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	row := r.pool.QueryRow(ctx,
		`INSERT INTO resumes (id, user_id, filename, mime_type, object_key, job_title, feedback, keywords, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING `+resumeColumns,
		input.ID, input.UserID, input.Filename, input.MimeType, nullIfEmpty(input.ObjectKey), input.JobTitle,
		string(input.Feedback), keywords, input.CreatedAt)
	res, err := scanResume(row)
	if err != nil {
		return nil, fmt.Errorf("create resume: %w", err)
	}
	return res, nil
}

func (r *PostgresRepository) LatestResume(ctx context.Context, userID string) (*repository.Resume, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+resumeColumns+` FROM resumes WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1`,
		userID)
	res, err := scanResume(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return res, nil
}

func (r *PostgresRepository) ListResumesByUser(ctx context.Context, userID string) ([]repository.Resume, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+resumeColumns+` FROM resumes WHERE user_id = $1 ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []repository.Resume
	for rows.Next() {
		res, err := scanResume(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *res)
	}
	return list, rows.Err()
}

func scanResume(row pgx.Row) (*repository.Resume, error) {
	var (
		res       repository.Resume
		objectKey *string
		feedback  []byte
	)
	if err := row.Scan(&res.ID, &res.UserID, &res.Filename, &res.MimeType, &objectKey, &res.JobTitle,
		&feedback, &res.Keywords, &res.CreatedAt); err != nil {
		return nil, err
	}
	if objectKey != nil {
		res.ObjectKey = *objectKey
	}
	res.Feedback = feedback
	return &res, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
