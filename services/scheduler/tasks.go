package scheduler

import (
	"context"
	"time"

	"geekhub/internal/logging"
)

// InvitationCleaner removes stale invitations.
type InvitationCleaner interface {
	CleanupExpired(ctx context.Context, olderThan time.Duration) (int, error)
}

// InvitationCleanupTask drops invitations that expired or were used more
// than grace ago. Runs hourly.
func InvitationCleanupTask(cleaner InvitationCleaner, grace time.Duration, onRemoved func(int)) Task {
	return Task{
		Name: "invitation-cleanup",
		Spec: "@hourly",
		Run: func(ctx context.Context) error {
			removed, err := cleaner.CleanupExpired(ctx, grace)
			if err != nil {
				return err
			}
			if onRemoved != nil {
				onRemoved(removed)
			}
			return nil
		},
	}
}

// CachePruner drops expired provider cache files.
type CachePruner interface {
	PruneCache() (int, error)
}

// CachePruneTask removes expired catalog cache entries once a day.
func CachePruneTask(pruner CachePruner) Task {
	return Task{
		Name: "catalog-cache-prune",
		Spec: "@daily",
		Run: func(context.Context) error {
			removed, err := pruner.PruneCache()
			if removed > 0 {
				logging.With("task", "catalog-cache-prune").Info("pruned catalog cache", "removed", removed)
			}
			return err
		},
	}
}
