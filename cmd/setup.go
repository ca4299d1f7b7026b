package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/pinmap/internal/repositories"
	"github.com/desertthunder/pinmap/internal/shared"
	"github.com/urfave/cli/v3"
)

func (r *Runner) configFile() string {
	if r.configPath == "" {
		return "config.toml"
	}
	return r.configPath
}

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("initializing database", "path", r.config.Database.Path)

	if err := r.openDatabase(); err != nil {
		return err
	}

	applied, err := shared.AppliedVersions(r.db)
	if err != nil {
		return fmt.Errorf("failed to read migration state: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	r.writePlain("✓ Database ready at %s (%d migrations applied)\n", r.config.Database.Path, len(applied))
	return nil
}

// SetupConfig writes the default configuration file.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := r.configFile()

	if cmd.Bool("force") {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to replace config file: %w", err)
		}
	}

	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", path)
	r.writePlain("✓ Configuration written to %s\n", path)
	return nil
}

// SetupCredential stores an API key in the settings table.
//
// Stored keys override the config file; environment variables still win.
func (r *Runner) SetupCredential(ctx context.Context, cmd *cli.Command) error {
	provider := strings.ToLower(strings.TrimSpace(cmd.StringArg("provider")))
	value := strings.TrimSpace(cmd.StringArg("key"))

	if provider == "" || value == "" {
		return fmt.Errorf("%w: usage: pinmap setup credential <openai|gemini|places> <key>", shared.ErrMissingArgument)
	}

	key, err := repositories.CredentialKey(provider)
	if err != nil {
		return err
	}

	if err := r.openDatabase(); err != nil {
		return err
	}
	if err := r.settings.Set(key, value); err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}

	r.logger.Info("credential stored", "provider", provider)
	r.writePlain("✓ %s key stored (%s)\n", provider, mask(value))
	return nil
}

// SetupStatus reports which credentials resolve after merging config, database and environment.
func (r *Runner) SetupStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.openDatabase(); err != nil {
		return err
	}
	if err := r.settings.ApplyCredentials(r.config); err != nil {
		return err
	}
	shared.ApplyEnv(r.config)

	creds := r.config.Credentials
	r.writePlainHeader("Credentials")
	r.writePlain("openai:  %s\n", mask(creds.OpenAI.APIKey))
	r.writePlain("gemini:  %s\n", mask(creds.Gemini.APIKey))
	r.writePlain("places:  %s\n", mask(creds.Places.APIKey))
	r.writePlain("llm provider: %s\n", r.config.LLM.Provider)
	r.writePlain("cache driver: %s\n", r.config.Cache.Driver)
	return nil
}

// mask hides all but the last four characters of a secret.
func mask(secret string) string {
	switch {
	case secret == "":
		return "not set"
	case len(secret) <= 4:
		return strings.Repeat("*", len(secret))
	default:
		return strings.Repeat("*", 8) + secret[len(secret)-4:]
	}
}
