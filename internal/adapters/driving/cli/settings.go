package cli

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show engine settings",
	Long: `Shows the settings read from ~/.sercha-engine/config.toml.
Unset or invalid keys fall back to their defaults.`,
	RunE: runSettingsShow,
}

var settingsDefaultsCmd = &cobra.Command{
	Use:   "defaults",
	Short: "Write the default settings to the config file",
	RunE:  runSettingsDefaults,
}

func init() {
	settingsCmd.AddCommand(settingsDefaultsCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	printSettings(cmd, settings)
	return nil
}

func runSettingsDefaults(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	defaults := settingsService.GetDefaults()
	if err := settingsService.Save(&defaults); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	cmd.Println("Default settings saved.")
	return nil
}

func printSettings(cmd *cobra.Command, s *domain.Settings) {
	path := s.Database.Path
	if path == "" {
		path = "(default)"
	}
	cmd.Println("Database:")
	cmd.Printf("  Path:           %s\n", path)
	cmd.Printf("  Backend:        %s\n", s.Database.Backend.Description())
	cmd.Println("Search:")
	cmd.Printf("  Page size:      %d\n", s.Search.PageSize)
	cmd.Printf("  Check at least: %d\n", s.Search.CheckAtLeast)
	cmd.Printf("  Language:       %s\n", s.Search.Language)
	cmd.Printf("  Stemming:       %s\n", s.Search.StemStrategy.Description())
	cmd.Printf("  Stopwords:      %d\n", len(s.Search.Stopwords))
	printPrefixes(cmd, "Prefixes", s.Search.Prefixes)
	printPrefixes(cmd, "Filters", s.Search.BooleanPrefixes)
	for _, r := range s.Search.Ranges {
		cmd.Printf("  Range:          slot %d, %s, marker %q\n", r.Slot, r.Kind, r.Marker)
	}
}

func printPrefixes(cmd *cobra.Command, label string, prefixes map[string]string) {
	fields := make([]string, 0, len(prefixes))
	for f := range prefixes {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		cmd.Printf("  %-15s %s -> %s\n", label+":", f, prefixes[f])
	}
}
