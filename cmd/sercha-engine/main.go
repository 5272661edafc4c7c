// Command sercha-engine indexes and searches a local full-text index.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/sercha-engine/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-engine/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-engine/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sercha-engine/internal/adapters/driving/cli"
	"github.com/custodia-labs/sercha-engine/internal/bridge"
	"github.com/custodia-labs/sercha-engine/internal/core/domain"
	"github.com/custodia-labs/sercha-engine/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-engine/internal/core/services"
	"github.com/custodia-labs/sercha-engine/internal/engine"
	"github.com/custodia-labs/sercha-engine/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	configStore, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore)
	settings, err := settingsService.Get()
	if err != nil {
		return err
	}
	if settings.Log.Verbose {
		logger.SetVerbose(true)
	}

	store, err := openStore(settings.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	w, err := engine.OpenWritable(ctx, store, engine.DBCreateOrOpen, 0)
	if err != nil {
		return err
	}
	defer func() {
		if err := w.Close(); err != nil {
			logger.Error("Closing index: %v", err)
		}
	}()

	// A store-backed reader can be reopened when another process commits;
	// an in-memory index is only visible through a view of the writer.
	var reader *engine.Database
	var watcher driven.ChangeWatcher
	if settings.Database.Backend == domain.BackendInMemory {
		if reader, err = bridge.WritableAsReadOnly(w); err != nil {
			return err
		}
	} else {
		if reader, err = engine.Open(ctx, store); err != nil {
			return err
		}
		sw, err := sqlite.NewWatcher(store.Path(), 0)
		if err != nil {
			logger.Warn("Index changes will not be picked up: %v", err)
		} else {
			defer sw.Close()
			watcher = sw
		}
	}
	defer reader.Close()

	indexService, err := services.NewIndexService(w, *settings, store.Path())
	if err != nil {
		return err
	}
	searchService, err := services.NewSearchService(reader, settings.Search)
	if err != nil {
		return err
	}

	cli.SetServices(searchService, indexService, settingsService)
	cli.SetVersion(version)
	if watcher != nil {
		cli.SetWatch(func(ctx context.Context) error {
			return searchService.Watch(ctx, watcher)
		})
	}
	return cli.Execute(ctx)
}

func openStore(settings domain.DatabaseSettings) (driven.IndexStore, error) {
	switch settings.Backend {
	case domain.BackendInMemory:
		return memory.NewIndexStore(), nil
	default:
		store, err := sqlite.NewStore(settings.Path)
		if err != nil {
			return nil, fmt.Errorf("opening index store: %w", err)
		}
		return store, nil
	}
}
