package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-engine/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-engine/internal/core/domain"
)

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore())

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, service.GetDefaults(), *settings)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("database.path", "/var/lib/index")
	_ = store.Set("database.backend", "inmemory")
	_ = store.Set("search.page_size", 25)
	_ = store.Set("search.stem_strategy", "all")
	_ = store.Set("search.language", "french")
	_ = store.Set("search.prefixes", map[string]string{"title": "T"})
	_ = store.Set("log.verbose", true)
	_ = store.Set("search.ranges", []any{
		map[string]any{"slot": int64(1), "marker": "$", "kind": "number"},
		map[string]any{"slot": int64(2), "kind": "date", "prefer_mdy": true},
	})

	settings, err := NewSettingsService(store).Get()

	require.NoError(t, err)
	assert.Equal(t, "/var/lib/index", settings.Database.Path)
	assert.Equal(t, domain.BackendInMemory, settings.Database.Backend)
	assert.Equal(t, 25, settings.Search.PageSize)
	assert.Equal(t, domain.StemAll, settings.Search.StemStrategy)
	assert.Equal(t, "french", settings.Search.Language)
	assert.Equal(t, map[string]string{"title": "T"}, settings.Search.Prefixes)
	assert.True(t, settings.Log.Verbose)
	assert.Equal(t, []domain.RangeSpec{
		{Slot: 1, Marker: "$", Kind: domain.RangeNumber},
		{Slot: 2, Kind: domain.RangeDate, PreferMDY: true},
	}, settings.Search.Ranges)
}

func TestSettingsService_Get_InvalidValuesReturnDefaults(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("database.backend", "postgres")
	_ = store.Set("search.stem_strategy", "aggressive")
	_ = store.Set("search.page_size", -3)
	_ = store.Set("search.ranges", []any{
		map[string]any{"slot": int64(1), "kind": "colour"},
		map[string]any{"kind": "number"},
	})

	settings, err := NewSettingsService(store).Get()

	require.NoError(t, err)
	defaults := domain.DefaultSettings()
	assert.Equal(t, defaults.Database.Backend, settings.Database.Backend)
	assert.Equal(t, defaults.Search.StemStrategy, settings.Search.StemStrategy)
	assert.Equal(t, defaults.Search.PageSize, settings.Search.PageSize)
	assert.Empty(t, settings.Search.Ranges)
}

func TestSettingsService_Get_EmptyStopwordsDisablesList(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("search.stopwords", []string{})

	settings, err := NewSettingsService(store).Get()

	require.NoError(t, err)
	assert.Empty(t, settings.Search.Stopwords)
}

func TestSettingsService_SaveRoundTrip(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore())
	settings := domain.DefaultSettings()
	settings.Database.Backend = domain.BackendInMemory
	settings.Search.Stopwords = []string{"the"}
	settings.Search.Ranges = []domain.RangeSpec{
		{Slot: 3, Marker: "kg", Kind: domain.RangeNumber, Suffix: true},
		{Slot: 4, Kind: domain.RangeDateTime},
	}
	settings.Log.Verbose = true

	require.NoError(t, service.Save(&settings))

	got, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, settings, *got)
}

func TestSettingsService_SaveRejectsInvalid(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore())

	t.Run("nil", func(t *testing.T) {
		assert.ErrorIs(t, service.Save(nil), domain.ErrInvalidInput)
	})

	t.Run("bad backend", func(t *testing.T) {
		settings := domain.DefaultSettings()
		settings.Database.Backend = "postgres"
		assert.ErrorIs(t, service.Save(&settings), domain.ErrInvalidInput)
	})
}
