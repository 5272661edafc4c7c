package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
)

// dataPreviewLength bounds the data line shown per hit.
const dataPreviewLength = 80

var (
	searchLimit        int
	searchOffset       int
	searchCheckAtLeast int
	searchExclude      []uint
	searchRelevant     []uint
	searchFacets       []uint
	searchSnippets     bool
	searchJSON         bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed documents",
	Long: `Runs a ranked BM25 query against the index.

Query syntax:
  fox AND dog, fox OR dog, fox NOT dog   boolean operators
  +required -excluded                    love/hate terms
  "quick brown fox"                      phrases
  title:fox type:pdf                     field and filter prefixes
  $10..20                                value ranges, as configured
  qui*                                   wildcards`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results (0 = configured page size)")
	searchCmd.Flags().IntVar(&searchOffset, "offset", 0, "number of ranked results to skip")
	searchCmd.Flags().IntVar(&searchCheckAtLeast, "check-at-least", 0, "matches to confirm before estimating the total")
	searchCmd.Flags().UintSliceVar(&searchExclude, "exclude", nil, "document ids to leave out")
	searchCmd.Flags().UintSliceVar(&searchRelevant, "relevant", nil, "document ids to use as relevance feedback")
	searchCmd.Flags().UintSliceVar(&searchFacets, "facet", nil, "value slots to count across matches")
	searchCmd.Flags().BoolVar(&searchSnippets, "snippets", false, "show highlighted extracts")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if searchService == nil {
		return errors.New("search service not configured")
	}

	opts := domain.SearchOptions{
		Offset:       searchOffset,
		Limit:        searchLimit,
		CheckAtLeast: searchCheckAtLeast,
		ExcludeIDs:   toDocIDs(searchExclude),
		RelevantIDs:  toDocIDs(searchRelevant),
		FacetSlots:   toSlots(searchFacets),
		Snippets:     searchSnippets,
	}

	page, err := searchService.Search(cmd.Context(), query, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputJSON(cmd, page)
	}
	return outputSearchTable(cmd, page)
}

func outputJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, page *domain.SearchPage) error {
	if len(page.Hits) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Printf("Results %d-%d of %s\n\n",
		page.Offset+1, page.Offset+len(page.Hits), matchCount(page))
	for _, hit := range page.Hits {
		cmd.Printf("  [%d] #%d %d%% (%.3f) %s\n",
			hit.Rank+1, hit.DocID, hit.Percent, hit.Weight, preview(hit.Data))
		if hit.Snippet != "" {
			cmd.Printf("      %s\n", hit.Snippet)
		}
	}

	for _, facet := range page.Facets {
		cmd.Printf("\nSlot %d (%s values):\n", facet.Slot, humanize.Comma(int64(facet.Total)))
		values := make([]string, 0, len(facet.Counts))
		for v := range facet.Counts {
			values = append(values, v)
		}
		sort.Slice(values, func(i, j int) bool {
			ci, cj := facet.Counts[values[i]], facet.Counts[values[j]]
			if ci != cj {
				return ci > cj
			}
			return values[i] < values[j]
		})
		for _, v := range values {
			cmd.Printf("  %-20s %s\n", v, humanize.Comma(int64(facet.Counts[v])))
		}
	}
	return nil
}

// matchCount renders the match bounds, e.g. "1,234 matches" or
// "about 1,200 matches (1,000-1,500)".
func matchCount(page *domain.SearchPage) string {
	if page.Exact {
		return humanize.Comma(int64(page.MatchesEstimated)) + " matches"
	}
	return fmt.Sprintf("about %s matches (%s-%s)",
		humanize.Comma(int64(page.MatchesEstimated)),
		humanize.Comma(int64(page.MatchesLower)),
		humanize.Comma(int64(page.MatchesUpper)))
}

// preview returns the first line of data, truncated.
func preview(data string) string {
	line, _, _ := strings.Cut(data, "\n")
	if r := []rune(line); len(r) > dataPreviewLength {
		return string(r[:dataPreviewLength]) + "..."
	}
	return line
}

func toDocIDs(ids []uint) []domain.DocID {
	if len(ids) == 0 {
		return nil
	}
	out := make([]domain.DocID, len(ids))
	for i, id := range ids {
		out[i] = domain.DocID(id)
	}
	return out
}

func toSlots(slots []uint) []domain.Slot {
	if len(slots) == 0 {
		return nil
	}
	out := make([]domain.Slot, len(slots))
	for i, s := range slots {
		out[i] = domain.Slot(s)
	}
	return out
}
