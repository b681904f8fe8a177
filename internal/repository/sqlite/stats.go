package sqlite

import (
	"context"
	"fmt"

	"github.com/skillswap/swapd/internal/models"
)

// PlatformStats aggregates the admin dashboard counters in one statement.
// Closed swaps count as completed.
func (r *SQLiteRepo) PlatformStats(ctx context.Context) (*models.PlatformStats, error) {
	var s models.PlatformStats
	err := r.conn.QueryRow(ctx, `SELECT
		(SELECT COUNT(*) FROM users),
		(SELECT COUNT(*) FROM skills),
		(SELECT COUNT(*) FROM swap_requests),
		(SELECT COUNT(*) FROM swap_requests WHERE status IN ('completed', 'closed')),
		(SELECT COUNT(*) FROM swap_requests WHERE status = 'pending'),
		(SELECT COALESCE(AVG(score), 0.0) FROM feedback)`).Scan(
		&s.TotalUsers, &s.TotalSkills, &s.TotalSwaps, &s.CompletedSwaps, &s.PendingSwaps, &s.AverageRating)
	if err != nil {
		return nil, fmt.Errorf("platform stats: %w", err)
	}

	return &s, nil
}
