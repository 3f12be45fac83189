package commands

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/vncsmyrnk/featurepoll/internal/core/domain"
	"github.com/vncsmyrnk/featurepoll/internal/core/ports"
	"github.com/vncsmyrnk/featurepoll/internal/printer"
)

var (
	cancelReason string
	cancelActor  string
)

func parsePollID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, printer.Error("Invalid poll id", fmt.Sprintf("%q is not a UUID.", raw))
	}
	return id, nil
}

func failure(action string, err error) error {
	switch {
	case errors.Is(err, domain.ErrPollNotFound):
		return printer.Error("Poll not found", err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		return printer.Error(fmt.Sprintf("Cannot %s this poll", action), err.Error())
	case errors.Is(err, domain.ErrDecisionPersistFailure):
		return printer.Error("Decision not saved",
			err.Error()+"\nThe poll stays closing. Run 'pollctl close' or 'pollctl sweep' again once the store is healthy.")
	}
	return printer.Error(fmt.Sprintf("Failed to %s poll", action), err.Error())
}

var showCmd = &cobra.Command{
	Use:   "show <poll-id>",
	Short: "Show a poll, its suggestion and the current tally",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parsePollID(args[0])
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		poll, err := app.Lifecycle.GetPoll(ctx, id)
		if err != nil {
			return failure("show", err)
		}
		suggestion, err := app.Suggestions.GetByPollID(ctx, id)
		if err != nil && !errors.Is(err, domain.ErrSuggestionNotFound) {
			return failure("show", err)
		}
		outcome, err := app.Lifecycle.Preview(ctx, id)
		if err != nil {
			return failure("show", err)
		}

		printer.Poll(poll, suggestion, outcome)
		return nil
	},
}

var tallyCmd = &cobra.Command{
	Use:   "tally <poll-id>",
	Short: "Preview the outcome if the poll closed now",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parsePollID(args[0])
		if err != nil {
			return err
		}
		outcome, err := app.Lifecycle.Preview(cmd.Context(), id)
		if err != nil {
			return failure("tally", err)
		}
		printer.Outcome(outcome)
		return nil
	},
}

var closeCmd = &cobra.Command{
	Use:   "close <poll-id>",
	Short: "Close voting and record the decision",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parsePollID(args[0])
		if err != nil {
			return err
		}
		res, err := app.Lifecycle.Close(cmd.Context(), id)
		if err != nil {
			return failure("close", err)
		}
		printer.Success("Poll %s decided", id)
		printer.Outcome(res.Outcome)
		return nil
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel <poll-id>",
	Short: "Cancel a pending poll (vetoed or revoked)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parsePollID(args[0])
		if err != nil {
			return err
		}
		reason, err := domain.ParseCancelReason(cancelReason)
		if err != nil {
			return printer.Error("Invalid reason", "Use --reason vetoed or --reason revoked.")
		}

		poll, err := app.Lifecycle.Cancel(cmd.Context(), ports.CancelInput{PollID: id, ActorID: cancelActor, Reason: reason})
		if err != nil {
			if errors.Is(err, domain.ErrNotPollAuthor) {
				return printer.Error("Not the poll author", "Only the author can revoke. Pass --actor with the author id or use --reason vetoed.")
			}
			return failure("cancel", err)
		}
		if poll.Status != domain.PollStatusCancelled {
			printer.Warning("Poll %s is already %s, nothing changed", id, poll.Status)
			return nil
		}
		printer.Success("Poll %s cancelled (%s)", id, reason)
		return nil
	},
}

var archiveCmd = &cobra.Command{
	Use:   "archive <poll-id>",
	Short: "Archive a decided poll",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parsePollID(args[0])
		if err != nil {
			return err
		}
		if _, err := app.Lifecycle.Archive(cmd.Context(), id); err != nil {
			return failure("archive", err)
		}
		printer.Success("Poll %s archived", id)
		return nil
	},
}

func init() {
	cancelCmd.Flags().StringVar(&cancelReason, "reason", string(domain.CancelReasonVetoed), "vetoed or revoked")
	cancelCmd.Flags().StringVar(&cancelActor, "actor", "", "Id of the user cancelling (required to revoke)")

	rootCmd.AddCommand(showCmd, tallyCmd, closeCmd, cancelCmd, archiveCmd)
}
