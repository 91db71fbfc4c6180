package auth

import (
	"context"
	"log/slog"
	"time"
)

// RunCleanup periodically deletes expired refresh sessions and action tokens
// until ctx is cancelled. Expired rows are already unusable (every read path
// checks expiry), so this is pure housekeeping and a failed pass only logs.
func RunCleanup(ctx context.Context, repo Repository, log *slog.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := repo.DeleteExpiredRefreshSessions(ctx); err != nil {
				log.Error("cleanup of expired refresh sessions failed", "error", err)
			}
			if err := repo.DeleteExpiredActionTokens(ctx); err != nil {
				log.Error("cleanup of expired action tokens failed", "error", err)
			}
		}
	}
}
