package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/shelfbridge/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := NewRunner(RunnerOpts{Logger: logger})

	app := &cli.Command{
		Name:     "shelfbridge",
		Usage:    "Forward Audiobookshelf listening progress to MediaTracker",
		Version:  "0.1.0",
		Flags:    globalFlags(),
		Before:   runner.Before,
		Commands: runner.register(),
	}

	if err := app.Run(ctx, os.Args); err != nil {
		stop()
		if errors.Is(err, shared.ErrConfig) {
			runner.logger.Error("invalid configuration", "error", err)
			os.Exit(2)
		}
		runner.logger.Fatalf("application error: %v", err)
	}
}
