package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/pinmap/internal/repositories"
	"github.com/desertthunder/pinmap/internal/services"
	"github.com/desertthunder/pinmap/internal/shared"
	"github.com/desertthunder/pinmap/internal/store"
	"github.com/desertthunder/pinmap/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The database, store and pipeline are opened lazily by [Runner.init] so that commands such as
// "setup config" work without a database.
type Runner struct {
	config     *shared.Config
	configPath string
	db         *sql.DB
	ownsDB     bool
	settings   *repositories.SettingsRepository
	placeCache *repositories.PlaceCacheRepository
	redis      *services.RedisPlaceCache
	places     *services.PlacesService
	store      *store.MarkerStore
	pipeline   *tasks.Pipeline
	httpClient *http.Client
	logger     *log.Logger
	input      io.Reader
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	DB         *sql.DB // used instead of opening the configured database path
	HTTPClient *http.Client
	Logger     *log.Logger
	Input      io.Reader
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		db:         opts.DB,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		input:      opts.Input,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, askCommand, extractCommand, searchCommand, markersCommand,
		listsCommand, viewportCommand, cacheCommand, serveCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger used by the runner and everything it builds afterwards.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// Before loads the configuration and applies the global log level flags.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	switch {
	case cmd.Bool("verbose"):
		shared.SetLogLevel(r.logger, log.DebugLevel)
	case cmd.Bool("quiet"):
		shared.SetLogLevel(r.logger, log.WarnLevel)
	}

	if path := cmd.String("config"); path != "" && r.configPath == "" {
		r.configPath = path
	}

	if r.config == nil {
		config, err := shared.LoadOrDefault(r.configPath)
		if err != nil {
			return ctx, err
		}
		r.config = config
	}
	shared.ApplyEnv(r.config)
	return ctx, nil
}

// After releases the database and cache connections.
func (r *Runner) After(ctx context.Context, cmd *cli.Command) error {
	return r.Close()
}

// Close releases everything opened by [Runner.init].
func (r *Runner) Close() error {
	if r.redis != nil {
		if err := r.redis.Close(); err != nil {
			r.logger.Warn("failed to close redis client", "error", err)
		}
		r.redis = nil
	}
	if r.db != nil && r.ownsDB {
		err := r.db.Close()
		r.db = nil
		return err
	}
	return nil
}

// openDatabase opens the configured database, or migrates the injected one.
func (r *Runner) openDatabase() error {
	if r.config == nil {
		r.config = shared.DefaultConfig()
	}

	if r.db == nil {
		db, err := shared.OpenDatabase(r.config.Database)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		r.db = db
		r.ownsDB = true
	} else if err := shared.RunMigrations(r.db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.settings = repositories.NewSettingsRepository(r.db)
	return nil
}

// init wires the store and the resolution pipeline.
//
// Credentials resolve in order: config file, then the settings table, then the environment.
func (r *Runner) init(ctx context.Context) error {
	if r.pipeline != nil {
		return nil
	}
	if err := r.openDatabase(); err != nil {
		return err
	}

	if err := r.settings.ApplyCredentials(r.config); err != nil {
		return fmt.Errorf("failed to read stored credentials: %w", err)
	}
	shared.ApplyEnv(r.config)

	st, err := store.Open(repositories.NewBackend(r.db))
	if err != nil {
		return err
	}
	r.store = st

	r.places = services.NewPlacesServiceFromConfig(r.config, r.httpClient, r.logger)
	resolver := services.NewResolver(r.places, r.placeLookupCache(ctx), r.logger)

	var interpreter tasks.QuestionInterpreter
	var extractor tasks.TextExtractor
	completer, err := services.NewCompleter(r.config, r.logger)
	if err != nil {
		return err
	}
	if completer.Ready() {
		interpreter = services.NewInterpreter(completer, r.config.LLM.QuestionMaxTokens, r.logger)
		extractor = services.NewExtractor(completer, r.config.LLM.ExtractMaxTokens, r.config.LLM.FallbackCity, r.logger)
	} else {
		r.logger.Debug("no language model credential configured", "provider", completer.Name())
	}

	r.pipeline = tasks.NewPipeline(resolver, r.store, interpreter, extractor, r.logger)
	return nil
}

// placeLookupCache returns the cache selected by cache.driver, or nil when caching is off.
func (r *Runner) placeLookupCache(ctx context.Context) services.PlaceCache {
	switch r.config.Cache.Driver {
	case "sqlite", "":
		r.placeCache = repositories.NewPlaceCacheRepository(r.db, r.config.Cache.TTLDuration())
		return r.placeCache
	case "redis":
		cache := services.NewRedisPlaceCacheFromConfig(r.config.Cache)
		if err := cache.Ping(ctx); err != nil {
			r.logger.Warn("redis unavailable, place cache disabled", "addr", r.config.Cache.RedisAddr, "error", err)
			cache.Close()
			return nil
		}
		r.redis = cache
		return cache
	case "none":
		return nil
	default:
		r.logger.Warn("unknown cache driver, place cache disabled", "driver", r.config.Cache.Driver)
		return nil
	}
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
