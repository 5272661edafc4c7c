// Package cli provides the command-line interface for the engine.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-engine/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-engine/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services used by commands. Set by main via SetServices.
var (
	searchService   driving.SearchService
	indexService    driving.IndexService
	settingsService driving.SettingsService

	// watchIndex keeps the search service current while a long-running
	// command serves requests. Optional.
	watchIndex func(ctx context.Context) error
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "sercha-engine",
	Short: "Full-text search engine",
	Long: `sercha-engine indexes text and files into a local full-text index and
answers ranked queries with boolean operators, phrases, field prefixes,
value ranges and relevance-feedback query expansion.`,
	SilenceUsage: true,
	// The flag only raises verbosity; log.verbose may already have set it.
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if verbose {
			logger.SetVerbose(true)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// SetServices injects the services the commands run against.
func SetServices(search driving.SearchService, index driving.IndexService, settings driving.SettingsService) {
	searchService = search
	indexService = index
	settingsService = settings
}

// SetWatch registers a function that refreshes the search service on
// index changes. It runs alongside the MCP server.
func SetWatch(fn func(ctx context.Context) error) {
	watchIndex = fn
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
