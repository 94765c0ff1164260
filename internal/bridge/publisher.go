package bridge

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/shelfbridge/internal/models"
	"github.com/desertthunder/shelfbridge/internal/services"
	"github.com/desertthunder/shelfbridge/internal/shared"
)

// ProgressWriter upserts progress on the destination server. [*services.MediaTracker] implements it.
type ProgressWriter interface {
	PutProgress(ctx context.Context, req services.ProgressRequest) error
}

// PublishResult is the outcome of one publish. Err is a [*PublishError] when OK is false.
type PublishResult struct {
	OK         bool
	ExternalID string
	Progress   float64
	Err        error
}

// Publisher sends resolved updates to MediaTracker.
//
// Each call is a single last-write-wins upsert keyed by ASIN, so republishing the same update is harmless.
// Failures are logged and returned, never retried.
type Publisher struct {
	writer ProgressWriter
	logger *log.Logger
}

func NewPublisher(writer ProgressWriter, logger *log.Logger) *Publisher {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Publisher{writer: writer, logger: logger}
}

func (p *Publisher) Publish(ctx context.Context, u *models.ResolvedUpdate) PublishResult {
	if u == nil || u.ExternalID == "" {
		err := &PublishError{Err: errors.New("update has no external id")}
		p.logger.Error("refusing to publish", "error", err)
		return PublishResult{Err: err}
	}

	req := services.ProgressRequest{
		Progress:  u.ProgressFraction,
		ID:        services.ExternalIDs{AudibleID: u.ExternalID},
		MediaType: models.MediaTypeAudiobook,
		Timestamp: u.ObservedAt,
	}
	if err := p.writer.PutProgress(ctx, req); err != nil {
		perr := &PublishError{ExternalID: u.ExternalID, Err: err}
		p.logger.Error("failed to update progress", "asin", u.ExternalID, "item", u.SourceItemID, "error", err)
		return PublishResult{ExternalID: u.ExternalID, Progress: u.ProgressFraction, Err: perr}
	}

	p.logger.Info("updated progress", "asin", u.ExternalID, "item", u.SourceItemID, "progress", u.ProgressFraction)
	return PublishResult{OK: true, ExternalID: u.ExternalID, Progress: u.ProgressFraction}
}
