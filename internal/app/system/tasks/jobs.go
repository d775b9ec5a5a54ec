// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// StateSweeper removes expired OAuth state tokens. oauthstate.Store
// satisfies it.
type StateSweeper interface {
	CleanupExpired(ctx context.Context, now time.Time) (int64, error)
}

// RolePruner drops stale cached roles. rolelookup.Watcher satisfies it.
type RolePruner interface {
	Prune() int
}

// OAuthStateCleanupJob creates a job that removes expired OAuth state tokens.
// This is a backup for when MongoDB's TTL index cleanup is delayed.
func OAuthStateCleanupJob(states StateSweeper, logger *zap.Logger) Job {
	return Job{
		Name:     "oauth-state-cleanup",
		Interval: 1 * time.Hour,
		Run: func(ctx context.Context) error {
			count, err := states.CleanupExpired(ctx, time.Now().UTC())
			if err != nil {
				return err
			}
			if count > 0 {
				logger.Debug("cleaned up expired OAuth states", zap.Int64("count", count))
			}
			return nil
		},
	}
}

// RoleCachePruneJob creates a job that forgets roles nobody has asked for
// within the cache's max age, so the cache does not grow with every
// identity that ever signed in.
func RoleCachePruneJob(roles RolePruner, interval time.Duration, logger *zap.Logger) Job {
	return Job{
		Name:     "role-cache-prune",
		Interval: interval,
		Run: func(context.Context) error {
			if n := roles.Prune(); n > 0 {
				logger.Debug("pruned cached roles", zap.Int("count", n))
			}
			return nil
		},
	}
}
