package services

import (
	"fmt"
	"sort"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
	"github.com/custodia-labs/sercha-engine/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-engine/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-engine/internal/logger"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keyDatabasePath    = "database.path"
	keyDatabaseBackend = "database.backend"
	keyPageSize        = "search.page_size"
	keyCheckAtLeast    = "search.check_at_least"
	keyLanguage        = "search.language"
	keyStemStrategy    = "search.stem_strategy"
	keyStopwords       = "search.stopwords"
	keyPrefixes        = "search.prefixes"
	keyBooleanPrefixes = "search.boolean_prefixes"
	keyRanges          = "search.ranges"
	keyLogVerbose      = "log.verbose"
)

// SettingsService manages engine settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current settings. Unset keys and invalid values fall back
// to the defaults.
func (s *SettingsService) Get() (*domain.Settings, error) {
	defaults := domain.DefaultSettings()

	settings := &domain.Settings{
		Database: domain.DatabaseSettings{
			Path:    s.getString(keyDatabasePath, defaults.Database.Path),
			Backend: s.getBackend(defaults.Database.Backend),
		},
		Search: domain.SearchSettings{
			PageSize:        s.getPositiveInt(keyPageSize, defaults.Search.PageSize),
			CheckAtLeast:    s.getPositiveInt(keyCheckAtLeast, defaults.Search.CheckAtLeast),
			Language:        s.getString(keyLanguage, defaults.Search.Language),
			StemStrategy:    s.getStemStrategy(defaults.Search.StemStrategy),
			Stopwords:       defaults.Search.Stopwords,
			Prefixes:        s.getStringMap(keyPrefixes, defaults.Search.Prefixes),
			BooleanPrefixes: s.getStringMap(keyBooleanPrefixes, defaults.Search.BooleanPrefixes),
			Ranges:          s.getRanges(),
		},
		Log: domain.LogSettings{
			Verbose: s.configStore.GetBool(keyLogVerbose),
		},
	}

	// An explicit empty list disables stopwords.
	if _, ok := s.configStore.Get(keyStopwords); ok {
		settings.Search.Stopwords = s.configStore.GetStringSlice(keyStopwords)
	}

	return settings, nil
}

// Save persists settings.
func (s *SettingsService) Save(settings *domain.Settings) error {
	if settings == nil {
		return fmt.Errorf("%w: nil settings", domain.ErrInvalidInput)
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	values := []struct {
		key   string
		value any
	}{
		{keyDatabasePath, settings.Database.Path},
		{keyDatabaseBackend, settings.Database.Backend.String()},
		{keyPageSize, settings.Search.PageSize},
		{keyCheckAtLeast, settings.Search.CheckAtLeast},
		{keyLanguage, settings.Search.Language},
		{keyStemStrategy, settings.Search.StemStrategy.String()},
		{keyStopwords, settings.Search.Stopwords},
		{keyPrefixes, settings.Search.Prefixes},
		{keyBooleanPrefixes, settings.Search.BooleanPrefixes},
		{keyRanges, rangeTables(settings.Search.Ranges)},
		{keyLogVerbose, settings.Log.Verbose},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	logger.Debug("Saved settings to %s", s.configStore.Path())
	return nil
}

// GetDefaults returns the default settings.
func (s *SettingsService) GetDefaults() domain.Settings {
	return domain.DefaultSettings()
}

func (s *SettingsService) getString(key, defaultVal string) string {
	if val := s.configStore.GetString(key); val != "" {
		return val
	}
	return defaultVal
}

func (s *SettingsService) getPositiveInt(key string, defaultVal int) int {
	if val := s.configStore.GetInt(key); val > 0 {
		return val
	}
	return defaultVal
}

func (s *SettingsService) getBackend(defaultVal domain.Backend) domain.Backend {
	backend := domain.Backend(s.configStore.GetString(keyDatabaseBackend))
	if backend.IsValid() {
		return backend
	}
	return defaultVal
}

func (s *SettingsService) getStemStrategy(defaultVal domain.StemStrategy) domain.StemStrategy {
	strategy := domain.StemStrategy(s.configStore.GetString(keyStemStrategy))
	if strategy.IsValid() {
		return strategy
	}
	return defaultVal
}

func (s *SettingsService) getStringMap(key string, defaultVal map[string]string) map[string]string {
	if val := s.configStore.GetStringMap(key); len(val) > 0 {
		return val
	}
	return defaultVal
}

// getRanges reads the range processor tables, skipping invalid entries.
func (s *SettingsService) getRanges() []domain.RangeSpec {
	var ranges []domain.RangeSpec
	for i, table := range s.configStore.GetTables(keyRanges) {
		spec := domain.RangeSpec{
			Slot:      domain.BadSlot,
			Kind:      domain.RangeKind(stringField(table, "kind")),
			Marker:    stringField(table, "marker"),
			Suffix:    boolField(table, "suffix"),
			Repeated:  boolField(table, "repeated"),
			PreferMDY: boolField(table, "prefer_mdy"),
		}
		if slot, ok := intField(table, "slot"); ok && slot >= 0 {
			spec.Slot = domain.Slot(slot)
		}
		if err := spec.Validate(); err != nil {
			logger.Warn("Ignoring %s[%d]: %v", keyRanges, i, err)
			continue
		}
		ranges = append(ranges, spec)
	}
	return ranges
}

func rangeTables(ranges []domain.RangeSpec) []map[string]any {
	tables := make([]map[string]any, 0, len(ranges))
	for _, r := range ranges {
		tables = append(tables, map[string]any{
			"slot":       int64(r.Slot),
			"marker":     r.Marker,
			"kind":       r.Kind.String(),
			"suffix":     r.Suffix,
			"repeated":   r.Repeated,
			"prefer_mdy": r.PreferMDY,
		})
	}
	return tables
}

func stringField(table map[string]any, key string) string {
	s, _ := table[key].(string)
	return s
}

func boolField(table map[string]any, key string) bool {
	b, _ := table[key].(bool)
	return b
}

func intField(table map[string]any, key string) (int64, bool) {
	switch v := table[key].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}

// sortedKeys returns map keys in a stable order for deterministic registration.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
