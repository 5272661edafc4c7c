package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
)

var (
	expandMax               int
	expandRelevant          []uint
	expandFromTop           int
	expandMinWeight         float64
	expandExcludePrefixes   []string
	expandIncludeQueryTerms bool
	expandJSON              bool
)

var expandCmd = &cobra.Command{
	Use:   "expand [query]",
	Short: "Suggest terms to broaden a query",
	Long: `Suggests expansion terms using relevance feedback. The relevant
documents are the ones given with --relevant, or else the query's
top-ranked matches.`,
	Args: cobra.ExactArgs(1),
	RunE: runExpand,
}

func init() {
	expandCmd.Flags().IntVarP(&expandMax, "max", "n", 10, "maximum number of terms")
	expandCmd.Flags().UintSliceVar(&expandRelevant, "relevant", nil, "document ids known to be relevant")
	expandCmd.Flags().IntVar(&expandFromTop, "from-top", 5, "top matches treated as relevant when --relevant is not set")
	expandCmd.Flags().Float64Var(&expandMinWeight, "min-weight", 0, "drop terms at or below this weight")
	expandCmd.Flags().StringSliceVar(&expandExcludePrefixes, "exclude-prefix", nil, "drop terms starting with these prefixes")
	expandCmd.Flags().BoolVar(&expandIncludeQueryTerms, "include-query-terms", false, "keep terms already in the query")
	expandCmd.Flags().BoolVar(&expandJSON, "json", false, "output terms as JSON")
	rootCmd.AddCommand(expandCmd)
}

func runExpand(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	terms, err := searchService.Expand(cmd.Context(), args[0], domain.ExpandOptions{
		MaxTerms:          expandMax,
		RelevantIDs:       toDocIDs(expandRelevant),
		FromTop:           expandFromTop,
		MinWeight:         expandMinWeight,
		ExcludePrefixes:   expandExcludePrefixes,
		IncludeQueryTerms: expandIncludeQueryTerms,
	})
	if err != nil {
		return fmt.Errorf("expand failed: %w", err)
	}

	if expandJSON {
		return outputJSON(cmd, terms)
	}
	if len(terms) == 0 {
		cmd.Println("No suggestions.")
		return nil
	}
	for _, t := range terms {
		cmd.Printf("  %-24s %.4f\n", t.Term, t.Weight)
	}
	return nil
}
