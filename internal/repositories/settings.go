package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/pinmap/internal/shared"
)

// Setting keys for credentials stored locally.
const (
	SettingOpenAIKey = "credentials.openai"
	SettingGeminiKey = "credentials.gemini"
	SettingPlacesKey = "credentials.places"
)

// SettingsRepository is a flat string key/value store.
type SettingsRepository struct {
	db *sql.DB
}

// NewSettingsRepository creates a new SettingsRepository with the given database connection
func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the value stored under key, or [shared.ErrNotFound].
func (r *SettingsRepository) Get(key string) (string, error) {
	var value string
	err := r.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: setting %q", shared.ErrNotFound, key)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get setting: %w", err)
	}
	return value, nil
}

// Set stores value under key, replacing any previous value.
func (r *SettingsRepository) Set(key, value string) error {
	_, err := r.db.Exec(`
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to set setting: %w", err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (r *SettingsRepository) Delete(key string) error {
	if _, err := r.db.Exec("DELETE FROM settings WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete setting: %w", err)
	}
	return nil
}

// All returns every stored setting.
func (r *SettingsRepository) All() (map[string]string, error) {
	rows, err := r.db.Query("SELECT key, value FROM settings ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		settings[k] = v
	}
	return settings, rows.Err()
}

// ApplyCredentials overrides config credentials with the values stored in the settings table.
//
// Call it before [shared.ApplyEnv] so the environment still takes precedence.
func (r *SettingsRepository) ApplyCredentials(config *shared.Config) error {
	stored, err := r.All()
	if err != nil {
		return err
	}

	fill := func(dst *string, key string) {
		if v := stored[key]; v != "" {
			*dst = v
		}
	}
	fill(&config.Credentials.OpenAI.APIKey, SettingOpenAIKey)
	fill(&config.Credentials.Gemini.APIKey, SettingGeminiKey)
	fill(&config.Credentials.Places.APIKey, SettingPlacesKey)
	return nil
}

// CredentialKey maps a provider name ("openai", "gemini", "places") to its setting key.
func CredentialKey(provider string) (string, error) {
	switch provider {
	case "openai":
		return SettingOpenAIKey, nil
	case "gemini":
		return SettingGeminiKey, nil
	case "places", "google":
		return SettingPlacesKey, nil
	default:
		return "", fmt.Errorf("%w: unknown credential %q (want openai, gemini or places)", shared.ErrInvalidArgument, provider)
	}
}
