package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/legallink/lexindex/internal/core/domain"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Rebuild the document index",
	Long: `Scans the configured documents folder, chunks and embeds every
document, and writes a fresh index. The previous index keeps serving
searches until the new one is persisted.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	if err := initApp(); err != nil {
		return err
	}
	if indexBuilder == nil {
		return errors.New("index builder not configured")
	}

	report, err := indexBuilder.Rebuild(cmd.Context())
	if err != nil {
		if errors.Is(err, domain.ErrBuildInProgress) {
			return fmt.Errorf("another rebuild is already running")
		}
		return fmt.Errorf("rebuild failed: %w", err)
	}

	printReport(cmd, report)
	return nil
}

func printReport(cmd *cobra.Command, report *domain.BuildReport) {
	cmd.Printf("Indexed %d documents (%d passages) in %s\n",
		report.DocumentsProcessed, report.PassagesIndexed, report.Duration.Round(reportPrecision))

	if len(report.Skipped) == 0 {
		return
	}
	cmd.Printf("Skipped %d:\n", len(report.Skipped))
	for _, skip := range report.Skipped {
		cmd.Printf("  %s: %s\n", skip.URI, skip.Reason)
	}
}
