package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/legallink/lexindex/internal/core/domain"
)

// reportPrecision rounds durations in human-facing output.
const reportPrecision = time.Millisecond

var (
	searchTopK      int
	searchThreshold float64
	searchJSON      bool
)

// searchDefaults holds the configured k and threshold, applied when
// the flags are left unset. initApp replaces them from config.
var searchDefaults = domain.SearchOptions{
	TopK:      domain.DefaultTopK,
	Threshold: domain.DefaultThreshold,
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed documents",
	Long: `Embeds the query and returns the most similar passages from the
index. Scores are similarity in [0,1]; passages below the threshold
are filtered out.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", domain.DefaultTopK, "number of passages to fetch (1-20)")
	searchCmd.Flags().Float64Var(&searchThreshold, "threshold", domain.DefaultThreshold, "minimum similarity score (0-1)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := initApp(); err != nil {
		return err
	}
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}
	if err := loadPersistedIndex(cmd.Context()); err != nil {
		return err
	}

	opts := searchDefaults
	if cmd.Flags().Changed("top-k") {
		opts.TopK = searchTopK
	}
	if cmd.Flags().Changed("threshold") {
		opts.Threshold = searchThreshold
	}
	response, err := retrievalService.Search(cmd.Context(), args[0], opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, response)
	}
	return outputSearchText(cmd, response)
}

// jsonResponse is the machine-readable search output shape.
type jsonResponse struct {
	TotalCandidates int                   `json:"total_candidates"`
	FilteredCount   int                   `json:"filtered_count"`
	Results         []domain.SearchResult `json:"results"`
}

func outputSearchJSON(cmd *cobra.Command, response *domain.SearchResponse) error {
	data, err := json.MarshalIndent(jsonResponse{
		TotalCandidates: response.TotalCandidates,
		FilteredCount:   response.FilteredCount(),
		Results:         response.Results,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchText(cmd *cobra.Command, response *domain.SearchResponse) error {
	if response.FilteredCount() == 0 {
		cmd.Printf("No results above threshold (%d candidates examined).\n", response.TotalCandidates)
		return nil
	}

	cmd.Printf("Results (%d of %d candidates):\n\n", response.FilteredCount(), response.TotalCandidates)
	for i, result := range response.Results {
		cmd.Printf("  [%d] %s (%.3f)\n", i+1, result.Source, result.Score)
		cmd.Printf("      %s\n\n", snippet(result.Content))
	}
	return nil
}

// snippet trims passage content to a single readable line.
func snippet(content string) string {
	const maxLen = 160
	out := make([]rune, 0, maxLen)
	for _, r := range content {
		if r == '\n' || r == '\t' {
			r = ' '
		}
		out = append(out, r)
		if len(out) >= maxLen {
			return string(out) + "..."
		}
	}
	return string(out)
}
