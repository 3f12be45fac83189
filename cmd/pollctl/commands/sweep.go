package commands

import (
	"errors"
	"time"

	"github.com/spf13/cobra"
	"github.com/vncsmyrnk/featurepoll/internal/core/domain"
	"github.com/vncsmyrnk/featurepoll/internal/printer"
)

var nextInternal bool

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Close expired polls and retry pending decisions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := app.Sweeper.Sweep(cmd.Context(), time.Now())
		printer.Sweep(report)
		if err != nil {
			return printer.Error("Some polls could not be swept", err.Error())
		}
		return nil
	},
}

var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "Show the oldest approved suggestion",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		suggestion, err := app.Suggestions.NextApproved(cmd.Context(), nextInternal)
		if err != nil {
			if errors.Is(err, domain.ErrNoApprovedSuggestion) {
				printer.Warning("No approved suggestion yet")
				return nil
			}
			return printer.Error("Failed to pick a suggestion", err.Error())
		}
		printer.Info("%s - %s (by %s)", suggestion.ArtistName, suggestion.AlbumName, suggestion.Username)
		printer.Info("%s", suggestion.Links)
		return nil
	},
}

func init() {
	nextCmd.Flags().BoolVar(&nextInternal, "internal", false, "Pick from internal suggestions")

	rootCmd.AddCommand(sweepCmd, nextCmd)
}
