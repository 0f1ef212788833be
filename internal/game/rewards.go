package game

import (
	"context"

	"world-server/pkg/logger"
)

// RewardSink receives qualifying gameplay events. Achievement and currency
// bookkeeping live behind this callback; the engine invokes it best-effort
// and never blocks room state on it.
type RewardSink interface {
	ItemPlaced(ctx context.Context, userID, catalogItemID int) error
}

type logRewardSink struct{}

// NewLogRewardSink returns a sink that only records the event. Deployments
// with an achievement service swap in their own implementation.
func NewLogRewardSink() RewardSink {
	return logRewardSink{}
}

func (logRewardSink) ItemPlaced(_ context.Context, userID, catalogItemID int) error {
	logger.Debug("Reward event: user %d placed catalog item %d", userID, catalogItemID)
	return nil
}
