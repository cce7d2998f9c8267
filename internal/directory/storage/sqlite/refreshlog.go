package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/rolodex/internal/directory/storage"
)

// RecordRefreshAttempt persists one refresh run outcome.
func (s *Store) RecordRefreshAttempt(ctx context.Context, attempt storage.RefreshAttempt) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	attempt.RunID = strings.TrimSpace(attempt.RunID)
	attempt.Trigger = strings.TrimSpace(attempt.Trigger)
	attempt.Outcome = strings.TrimSpace(attempt.Outcome)
	attempt.LastError = strings.TrimSpace(attempt.LastError)
	if attempt.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if attempt.Trigger == "" {
		return fmt.Errorf("trigger is required")
	}
	if attempt.Outcome == "" {
		return fmt.Errorf("outcome is required")
	}
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = time.Now().UTC()
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO refresh_attempts (
	run_id,
	trigger_kind,
	outcome,
	agent_count,
	last_error,
	created_at
) VALUES (?, ?, ?, ?, ?, ?)
`,
		attempt.RunID,
		attempt.Trigger,
		attempt.Outcome,
		attempt.AgentCount,
		attempt.LastError,
		toMillis(attempt.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("record refresh attempt: %w", err)
	}
	return nil
}

// ListRefreshAttempts lists newest-first refresh attempt records.
func (s *Store) ListRefreshAttempts(ctx context.Context, limit int) ([]storage.RefreshAttempt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT
	run_id,
	trigger_kind,
	outcome,
	agent_count,
	last_error,
	created_at
FROM refresh_attempts
ORDER BY created_at DESC, id DESC
LIMIT ?
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list refresh attempts: %w", err)
	}
	defer rows.Close()

	attempts := make([]storage.RefreshAttempt, 0, limit)
	for rows.Next() {
		var attempt storage.RefreshAttempt
		var createdAt int64
		if err := rows.Scan(
			&attempt.RunID,
			&attempt.Trigger,
			&attempt.Outcome,
			&attempt.AgentCount,
			&attempt.LastError,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan refresh attempt: %w", err)
		}
		attempt.CreatedAt = fromMillis(createdAt)
		attempts = append(attempts, attempt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate refresh attempts: %w", err)
	}
	return attempts, nil
}
