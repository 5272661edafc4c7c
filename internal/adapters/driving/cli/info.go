package cli

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var infoJSON bool

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show index statistics",
	RunE:  runInfo,
}

func init() {
	infoCmd.Flags().BoolVar(&infoJSON, "json", false, "output statistics as JSON")
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, _ []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}

	stats, err := indexService.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("reading stats: %w", err)
	}
	if infoJSON {
		return outputJSON(cmd, stats)
	}

	cmd.Printf("Index:       %s\n", stats.Path)
	cmd.Printf("Backend:     %s\n", stats.Backend.Description())
	cmd.Printf("UUID:        %s\n", stats.UUID)
	cmd.Printf("Documents:   %s\n", humanize.Comma(int64(stats.DocCount)))
	cmd.Printf("Last doc id: %d\n", stats.LastDocID)
	cmd.Printf("Terms:       %s\n", humanize.Comma(int64(stats.TermCount)))
	cmd.Printf("Avg length:  %s\n", humanize.FormatFloat("#,###.##", stats.AvgLength))
	cmd.Printf("Revision:    %d\n", stats.Revision)
	return nil
}
