// forum-backend/workers/unban.go
package workers

import (
	"context"
	"log/slog"
	"time"

	"github.com/Desi451/forum-backend/database"
)

// UnbanWorker periodically lifts bans whose expiry has passed. Each sweep
// runs inside its own transaction; a failed sweep is logged and retried on
// the next tick.
type UnbanWorker struct {
	db       *database.DatabaseService
	logger   *slog.Logger
	interval time.Duration
}

func NewUnbanWorker(db *database.DatabaseService, logger *slog.Logger, interval time.Duration) *UnbanWorker {
	return &UnbanWorker{db: db, logger: logger, interval: interval}
}

// Run blocks until ctx is cancelled. An initial sweep happens immediately
// so bans that expired while the server was down are lifted on startup.
func (w *UnbanWorker) Run(ctx context.Context) {
	w.logger.Info("Unban worker started", "interval", w.interval.String())
	w.sweep()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Unban worker stopped")
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *UnbanWorker) sweep() {
	unbanned, err := w.db.UnbanExpired(time.Now().UTC())
	if err != nil {
		w.logger.Error("Unban sweep failed", "error", err)
		return
	}
	for _, u := range unbanned {
		w.logger.Info("User has been unbanned", "user_id", u.UserID, "nickname", u.Nickname)
	}
}
