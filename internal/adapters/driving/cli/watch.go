package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/legallink/lexindex/internal/core/domain"
	"github.com/legallink/lexindex/internal/logger"
)

// watchDebounce coalesces change bursts (editor save, folder copy)
// into one rebuild.
var watchDebounce = 2 * time.Second

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuild the index whenever the documents folder changes",
	Long: `Builds the index, then keeps watching the documents folder and
rebuilds after each change. Changes arriving while a rebuild is running
trigger another rebuild once it finishes.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if err := initApp(); err != nil {
		return err
	}
	if indexBuilder == nil || docsConnector == nil {
		return errors.New("index builder not configured")
	}

	ctx := cmd.Context()

	report, err := indexBuilder.Rebuild(ctx)
	if err != nil {
		return fmt.Errorf("initial build failed: %w", err)
	}
	printReport(cmd, report)

	changes, err := docsConnector.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watching documents: %w", err)
	}
	cmd.Println("Watching for changes. Press Ctrl-C to stop.")

	timer := time.NewTimer(watchDebounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	dirty := false
	for {
		select {
		case <-ctx.Done():
			return nil

		case _, ok := <-changes:
			if !ok {
				return nil
			}
			dirty = true
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(watchDebounce)

		case <-timer.C:
			if !dirty {
				continue
			}
			dirty = false
			logger.Info("Change detected, rebuilding")

			report, err := indexBuilder.Rebuild(ctx)
			switch {
			case errors.Is(err, domain.ErrBuildInProgress):
				// Try again after the running build finishes.
				dirty = true
				timer.Reset(watchDebounce)
			case err != nil:
				if ctx.Err() != nil {
					return nil
				}
				logger.Error("Rebuild failed: %v", err)
			default:
				printReport(cmd, report)
			}
		}
	}
}
