package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"estatecast/pkg/domain"
)

// DefaultSchedulerInterval is how often the due-post sweep runs.
const DefaultSchedulerInterval = time.Minute

// scheduleBatchSize caps how many due posts one sweep claims.
const scheduleBatchSize = 50

// RunScheduler sweeps for due posts on a ticker until ctx is cancelled.
func (a *App) RunScheduler(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSchedulerInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	slog.Info("scheduler started", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler stopped")
			return
		case <-ticker.C:
			if err := a.DispatchDuePosts(ctx); err != nil {
				slog.Error("scheduler sweep failed", "error", err)
			}
		}
	}
}

// DispatchDuePosts claims approved posts whose scheduled time has passed and
// enqueues a publish job for each. Claiming flips the post to scheduled so
// concurrent sweeps cannot double-enqueue it.
func (a *App) DispatchDuePosts(ctx context.Context) error {
	due, err := a.store.ListDuePosts(time.Now().UTC(), scheduleBatchSize)
	if err != nil {
		return fmt.Errorf("list due posts: %w", err)
	}
	if len(due) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.publishLimit)
	for _, post := range due {
		p := post
		g.Go(func() error {
			claimed, err := a.store.MarkScheduled(p.ID)
			if err != nil {
				return fmt.Errorf("claim post %s: %w", p.ID, err)
			}
			if !claimed {
				return nil
			}
			if _, err := a.queue.Enqueue(gctx, p.ID); err != nil {
				// Release the claim so the next sweep retries the post.
				p.Status = domain.PostApproved
				p.UpdatedAt = time.Now().UTC()
				_ = a.store.SavePost(p)
				return fmt.Errorf("enqueue post %s: %w", p.ID, err)
			}
			slog.Info("post enqueued for publishing", "postId", p.ID, "scheduledAt", p.ScheduledAt)
			return nil
		})
	}
	return g.Wait()
}
