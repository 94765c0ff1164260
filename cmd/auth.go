package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/desertthunder/shelfbridge/internal/repositories"
	"github.com/desertthunder/shelfbridge/internal/services"
	"github.com/desertthunder/shelfbridge/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin performs the username/password exchange and stores the token in the credential cache.
//
// Missing values are prompted for; the password is read without echo on a terminal.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if r.config.Source.URL == "" {
		return fmt.Errorf("%w: missing source.url", shared.ErrConfig)
	}

	username := cmd.String("username")
	if username == "" {
		username = r.config.Source.Username
	}
	if username == "" {
		var err error
		if username, err = r.prompt("Username", false); err != nil {
			return err
		}
	}

	password := r.config.Source.Password
	if password == "" || username != r.config.Source.Username {
		var err error
		if password, err = r.prompt("Password", true); err != nil {
			return err
		}
	}

	if username == "" || password == "" {
		return fmt.Errorf("%w: username and password are required", shared.ErrMissingArgument)
	}

	abs := r.source()
	r.logger.Info("logging in", "server", abs.BaseURL(), "username", username)

	token, err := abs.Login(ctx, username, password)
	if err != nil {
		return err
	}

	r.writePlain("✓ Logged in as %s\n", username)
	r.writePlain("Token: %s\n", shared.MaskToken(token))

	db, err := r.openDatabase()
	if err != nil {
		return fmt.Errorf("failed to open credential cache: %w", err)
	}
	if db == nil {
		r.logger.Warn("database disabled, token not cached")
		return nil
	}
	defer db.Close()

	repo := repositories.NewCredentialRepository(db)
	if err := repo.Save(abs.BaseURL(), username, token); err != nil {
		return err
	}
	return r.writePlain("Token cached for %s\n", abs.BaseURL())
}

// AuthLogout removes the cached credential for the configured user.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return fmt.Errorf("failed to open credential cache: %w", err)
	}
	if db == nil {
		return fmt.Errorf("%w: database disabled", shared.ErrInvalidInput)
	}
	defer db.Close()

	abs := r.source()
	if err := r.credentialCache(db, abs).Clear(); err != nil {
		return err
	}
	return r.writePlain("✓ Cached credential removed for %s\n", abs.BaseURL())
}

// AuthStatus checks a running bridge by calling its /health endpoint.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	addr := cmd.String("addr")
	if addr == "" {
		if r.config.Server.Port <= 0 {
			return fmt.Errorf("%w: health server disabled; set [server] port or pass --addr", shared.ErrMissingArgument)
		}
		addr = r.config.Server.Address()
	}

	r.logger.Info("checking bridge status", "addr", addr)

	api := services.NewAPIService("http://"+addr, "", r.client())
	resp, err := api.Get(ctx, "/health")
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}

	health, ok := resp.JSONData.(map[string]any)
	if !resp.IsJSON || !ok {
		return fmt.Errorf("%w: status %d", shared.ErrServiceUnavailable, resp.StatusCode)
	}

	state, _ := health["state"].(string)
	subscribed, _ := health["subscribed"].(bool)

	r.writePlainHeader("shelfbridge status")
	r.writePlain("State: %s\n", state)
	if subscribed {
		r.writePlain("Subscription: ✓ Subscribed\n")
	} else {
		r.writePlain("Subscription: ✗ Not subscribed\n")
	}
	for _, key := range []string{"received", "published", "dropped"} {
		if n, ok := health[key].(float64); ok {
			r.writePlain("%s: %.0f\n", key, n)
		}
	}

	if resp.StatusCode != http.StatusOK {
		return errors.Join(shared.ErrNotAuthenticated, fmt.Errorf("bridge state is %s", state))
	}
	return nil
}
