package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/desertthunder/shelfbridge/internal/services"
	"github.com/desertthunder/shelfbridge/internal/shared"
	"github.com/urfave/cli/v3"
)

// apiService builds a raw client for the selected server, authorized with its credential.
func (r *Runner) apiService(ctx context.Context, service string) (*services.APIService, error) {
	switch strings.ToLower(service) {
	case "", "source", "abs", "audiobookshelf":
		db, err := r.openDatabase()
		if err != nil {
			r.logger.Warn("cache database unavailable", "error", err)
		}
		if db != nil {
			defer db.Close()
		}
		return r.sourceAPI(ctx, db)
	case "destination", "mt", "mediatracker":
		return services.NewAPIService(r.config.Destination.URL, r.config.Destination.Token, r.client()), nil
	default:
		return nil, fmt.Errorf("%w: unknown service %q (want source or destination)", shared.ErrInvalidArgument, service)
	}
}

func (r *Runner) sourceAPI(ctx context.Context, db *sql.DB) (*services.APIService, error) {
	abs := r.source()
	token, err := r.sourceToken(ctx, abs, db)
	if err != nil {
		return nil, err
	}
	return services.NewAPIService(abs.BaseURL(), token.AccessToken, r.client()), nil
}

// APIGet makes a direct GET request and prints the response
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}

	api, err := r.apiService(ctx, cmd.String("service"))
	if err != nil {
		return err
	}

	r.logger.Info("GET request", "service", cmd.String("service"), "path", path)

	resp, err := api.Get(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}

	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, !cmd.Bool("json"))
	}

	r.output.Write(resp.Body)
	r.output.Write([]byte("\n"))
	return nil
}

// APIPost makes a direct POST request with a JSON body
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	data := cmd.String("data")

	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}
	if data == "" {
		return fmt.Errorf("%w: --data flag is required", shared.ErrMissingArgument)
	}

	var jsonTest any
	if err := json.Unmarshal([]byte(data), &jsonTest); err != nil {
		return fmt.Errorf("%w: data is not valid JSON: %v", shared.ErrInvalidInput, err)
	}

	api, err := r.apiService(ctx, cmd.String("service"))
	if err != nil {
		return err
	}

	r.logger.Info("POST request", "service", cmd.String("service"), "path", path)

	resp, err := api.Post(ctx, path, []byte(data))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}

	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, true)
	}

	r.output.Write(resp.Body)
	r.output.Write([]byte("\n"))
	return nil
}
