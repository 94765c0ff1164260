package main

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/shelfbridge/internal/bridge"
	"github.com/desertthunder/shelfbridge/internal/repositories"
	"github.com/desertthunder/shelfbridge/internal/services"
	"github.com/desertthunder/shelfbridge/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
	"golang.org/x/term"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	input      io.Reader
	reader     *bufio.Reader
	lookupEnv  func(string) (string, bool)
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
	LookupEnv  func(string) (string, bool)
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.LookupEnv == nil {
		opts.LookupEnv = os.LookupEnv
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      opts.Input,
		reader:     bufio.NewReader(opts.Input),
		lookupEnv:  opts.LookupEnv,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		runCommand, authCommand, lookupCommand, publishCommand, cacheCommand, apiCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger used by subsequent commands.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// Before loads the configuration file (when present), applies environment overrides and the log level.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}

	if err := r.loadConfig(); err != nil {
		return ctx, err
	}

	level := r.config.Log.Level
	if flag := cmd.String("log-level"); flag != "" {
		level = flag
	}
	shared.SetLogLevel(r.logger, shared.ParseLogLevel(level))
	return ctx, nil
}

// loadConfig reads r.configPath. A missing file falls back to defaults plus the environment.
func (r *Runner) loadConfig() error {
	if r.configPath != "" {
		if _, err := os.Stat(r.configPath); err == nil {
			config, err := shared.LoadConfig(r.configPath)
			if err != nil {
				return fmt.Errorf("%w: %v", shared.ErrConfig, err)
			}
			r.config = config
		} else {
			r.logger.Debug("config file not found, using defaults", "path", r.configPath)
		}
	}

	r.config.ApplyEnv(r.lookupEnv)
	return nil
}

// client returns the HTTP client shared by both servers, bounded by the request timeout.
func (r *Runner) client() *http.Client {
	if r.httpClient != nil {
		return r.httpClient
	}
	return &http.Client{Timeout: r.config.Bridge.RequestTimeout()}
}

func (r *Runner) source() *services.Audiobookshelf {
	return services.NewAudiobookshelf(r.config.Source.URL, r.client())
}

func (r *Runner) destination() *services.MediaTracker {
	return services.NewMediaTracker(r.config.Destination.URL, r.config.Destination.Token, r.client())
}

// openDatabase opens and migrates the cache database. It returns nil when the cache is disabled.
func (r *Runner) openDatabase() (*sql.DB, error) {
	if !r.config.Database.Enabled || r.config.Database.Path == "" {
		return nil, nil
	}
	return shared.OpenDatabase(r.config.Database)
}

// credentialCache returns the cache for the configured source user, or nil without a database.
func (r *Runner) credentialCache(db *sql.DB, abs *services.Audiobookshelf) *repositories.CredentialCacheAdapter {
	if db == nil {
		return nil
	}
	return repositories.NewCredentialCacheAdapter(repositories.NewCredentialRepository(db), abs.BaseURL(), r.config.Source.Username)
}

// sourceToken obtains a source credential for one-shot commands: static token, then cache, then login.
func (r *Runner) sourceToken(ctx context.Context, abs *services.Audiobookshelf, db *sql.DB) (*oauth2.Token, error) {
	resolver := bridge.NewResolver(r.config.Source, abs)
	cache := r.credentialCache(db, abs)

	if !resolver.Static() && cache != nil {
		if token, err := cache.Load(); err == nil && token != "" {
			r.logger.Debug("using cached credential", "token", shared.MaskToken(token))
			return services.BearerToken(token), nil
		}
	}

	token, err := resolver.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	if !resolver.Static() && cache != nil {
		if err := cache.Save(token.AccessToken); err != nil {
			r.logger.Warn("failed to cache credential", "error", err)
		}
	}
	return token, nil
}

// forgetCredential clears a cached login token the server no longer accepts. Static tokens are left alone.
func (r *Runner) forgetCredential(abs *services.Audiobookshelf, db *sql.DB) {
	cache := r.credentialCache(db, abs)
	if cache == nil || bridge.NewResolver(r.config.Source, abs).Static() {
		return
	}
	if err := cache.Clear(); err != nil {
		r.logger.Warn("failed to clear rejected credential", "error", err)
		return
	}
	r.logger.Warn("cached credential was rejected and has been cleared")
}

// prompt reads one line from the input. Secret values are read without echo when the input is a terminal.
func (r *Runner) prompt(label string, secret bool) (string, error) {
	r.writePlain("%s: ", label)

	if f, ok := r.input.(*os.File); ok && secret && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		r.writePlain("\n")
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", label, err)
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := r.reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read %s: %w", label, err)
	}
	return strings.TrimSpace(line), nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
