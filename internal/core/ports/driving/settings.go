package driving

import "github.com/custodia-labs/sercha-engine/internal/core/domain"

// SettingsService reads and writes engine configuration.
type SettingsService interface {
	// Get returns the current settings, with defaults for unset or invalid keys.
	Get() (*domain.Settings, error)

	// Save validates and persists settings.
	Save(settings *domain.Settings) error

	// GetDefaults returns the default settings.
	GetDefaults() domain.Settings
}
