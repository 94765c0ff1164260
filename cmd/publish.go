package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/shelfbridge/internal/bridge"
	"github.com/desertthunder/shelfbridge/internal/models"
	"github.com/desertthunder/shelfbridge/internal/shared"
	"github.com/urfave/cli/v3"
)

// Publish sends a single progress value to MediaTracker.
func (r *Runner) Publish(ctx context.Context, cmd *cli.Command) error {
	asin := strings.TrimSpace(cmd.String("asin"))
	progress := cmd.Float("progress")

	if asin == "" {
		return fmt.Errorf("%w: --asin", shared.ErrMissingArgument)
	}
	if progress < 0 || progress > 1 {
		return fmt.Errorf("%w: progress must be between 0 and 1, got %v", shared.ErrInvalidArgument, progress)
	}
	if r.config.Destination.Token == "" {
		return fmt.Errorf("%w: missing destination.token", shared.ErrConfig)
	}

	publisher := bridge.NewPublisher(r.destination(), r.logger)
	result := publisher.Publish(ctx, &models.ResolvedUpdate{
		ExternalID:       asin,
		ProgressFraction: progress,
		ObservedAt:       time.Now().UnixMilli(),
	})
	if !result.OK {
		return result.Err
	}

	return r.writePlain("✓ %s → %.1f%%\n", result.ExternalID, result.Progress*100)
}
