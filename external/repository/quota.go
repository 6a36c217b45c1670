package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/foxseedlab/mensetsu/internal/quota"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresQuotaLimiter struct {
	pool *pgxpool.Pool
	loc  *time.Location
	now  func() time.Time
}

func NewPostgresQuotaLimiter(pool *pgxpool.Pool, loc *time.Location) quota.Limiter {
	return &PostgresQuotaLimiter{pool: pool, loc: loc, now: time.Now}
}

func (l *PostgresQuotaLimiter) Remaining(ctx context.Context, userID, name string, dailyMax int) (int, error) {
	var used int
	err := l.pool.QueryRow(ctx,
		`SELECT used FROM daily_quotas WHERE user_id = $1 AND name = $2 AND day = $3`,
		userID, name, quota.Day(l.now(), l.loc)).Scan(&used)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("read quota %s: %w", name, err)
	}
	return quota.Remaining(used, dailyMax), nil
}

// TryConsume increments the counter only while it is below dailyMax, so
// concurrent callers can never push it past the limit.
func (l *PostgresQuotaLimiter) TryConsume(ctx context.Context, userID, name string, dailyMax int) (bool, int, error) {
	if dailyMax <= 0 {
		return false, 0, nil
	}
	var used int
	err := l.pool.QueryRow(ctx,
		`INSERT INTO daily_quotas (user_id, name, day, used) VALUES ($1, $2, $3, 1)
		 ON CONFLICT (user_id, name, day) DO UPDATE SET used = daily_quotas.used + 1
		 WHERE daily_quotas.used < $4
		 RETURNING used`,
		userID, name, quota.Day(l.now(), l.loc), dailyMax).Scan(&used)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, 0, nil
	}
	if err != nil {
		return false, 0, fmt.Errorf("consume quota %s: %w", name, err)
	}
	return true, quota.Remaining(used, dailyMax), nil
}
