package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
)

var (
	indexUniqueID string
	indexData     string
	indexFields   map[string]string
	indexFilters  map[string]string
	indexValues   map[string]string
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Add and remove documents",
}

var indexTextCmd = &cobra.Command{
	Use:   "text [text]",
	Short: "Index a text document",
	Long: `Indexes one document and commits it.

Examples:
  sercha-engine index text "the quick brown fox" --field title="Foxes" --filter type=note
  sercha-engine index text "updated body" --id note-42
  sercha-engine index text "widget" --value 1=19.99`,
	Args: cobra.ExactArgs(1),
	RunE: runIndexText,
}

var indexFilesCmd = &cobra.Command{
	Use:   "files [paths...]",
	Short: "Index files, one document per file",
	Long:  `Indexes each file keyed by its absolute path, so re-indexing a file replaces it.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runIndexFiles,
}

var indexDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a document by id",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndexDelete,
}

func init() {
	indexTextCmd.Flags().StringVar(&indexUniqueID, "id", "", "unique id; replaces a document indexed under the same id")
	indexTextCmd.Flags().StringVar(&indexData, "data", "", "data stored with the document (default: the text)")
	indexTextCmd.Flags().StringToStringVar(&indexFields, "field", nil, "field=text indexed under the field's prefix")
	indexTextCmd.Flags().StringToStringVar(&indexFilters, "filter", nil, "field=value added as a boolean filter term")
	indexTextCmd.Flags().StringToStringVar(&indexValues, "value", nil, "slot=value stored in a value slot")
	indexCmd.AddCommand(indexTextCmd)
	indexCmd.AddCommand(indexFilesCmd)
	indexCmd.AddCommand(indexDeleteCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexText(cmd *cobra.Command, args []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}

	values := make(map[domain.Slot]string, len(indexValues))
	for k, v := range indexValues {
		slot, err := strconv.ParseUint(k, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid slot %q: %w", k, err)
		}
		values[domain.Slot(slot)] = v
	}

	id, err := indexService.IndexText(cmd.Context(), domain.IndexRequest{
		UniqueID: indexUniqueID,
		Data:     indexData,
		Text:     args[0],
		Fields:   indexFields,
		Filters:  indexFilters,
		Values:   values,
	})
	if err != nil {
		return fmt.Errorf("index failed: %w", err)
	}
	cmd.Printf("Indexed document #%d\n", id)
	return nil
}

func runIndexFiles(cmd *cobra.Command, args []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}

	n, err := indexService.IndexFiles(cmd.Context(), args)
	if err != nil {
		return fmt.Errorf("index failed: %w", err)
	}
	cmd.Printf("Indexed %s files\n", humanize.Comma(int64(n)))
	return nil
}

func runIndexDelete(cmd *cobra.Command, args []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}

	id, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil || id == 0 {
		return fmt.Errorf("invalid document id %q", args[0])
	}
	if err := indexService.Delete(cmd.Context(), domain.DocID(id)); err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	cmd.Printf("Deleted document #%d\n", id)
	return nil
}
