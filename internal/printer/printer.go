package printer

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/vncsmyrnk/featurepoll/internal/core/domain"
	"github.com/vncsmyrnk/featurepoll/internal/core/ports"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
	bold   = color.New(color.Bold)
)

// Out and ErrOut are swapped in tests.
var (
	Out    io.Writer = os.Stdout
	ErrOut io.Writer = os.Stderr
)

func Success(format string, a ...any) {
	green.Fprintf(Out, "✓ %s\n", fmt.Sprintf(format, a...))
}

func Info(format string, a ...any) {
	fmt.Fprintf(Out, format+"\n", a...)
}

func Warning(format string, a ...any) {
	yellow.Fprintf(Out, "⚠️  %s\n", fmt.Sprintf(format, a...))
}

// Error prints a title and explanation to ErrOut and returns a short error for Cobra.
func Error(title string, explanation string) error {
	red.Fprintf(ErrOut, "%s\n", title)
	if explanation != "" {
		fmt.Fprintf(ErrOut, "\n%s\n", explanation)
	}
	return fmt.Errorf("%s", title)
}

func statusColor(s domain.PollStatus) *color.Color {
	switch s {
	case domain.PollStatusOpen:
		return cyan
	case domain.PollStatusClosing:
		return yellow
	case domain.PollStatusDecided, domain.PollStatusArchived:
		return green
	}
	return red
}

// Poll prints a poll with its suggestion and, when given, its tally.
func Poll(poll *domain.Poll, suggestion *domain.Suggestion, outcome *domain.Outcome) {
	bold.Fprintf(Out, "Poll %s\n", poll.ID)
	fmt.Fprintf(Out, "  status:     %s\n", statusColor(poll.Status).Sprint(poll.Status))
	if poll.CancelReason != "" {
		fmt.Fprintf(Out, "  reason:     %s\n", poll.CancelReason)
	}
	audience := "public"
	if poll.Internal {
		audience = "internal"
	}
	fmt.Fprintf(Out, "  audience:   %s\n", audience)
	fmt.Fprintf(Out, "  author:     %s\n", poll.AuthorID)

	if suggestion != nil {
		fmt.Fprintf(Out, "  suggestion: %s - %s\n", suggestion.ArtistName, suggestion.AlbumName)
		fmt.Fprintf(Out, "  approved:   %t\n", suggestion.Approved)
	}

	voters := make([]string, 0, len(poll.Votes))
	for voter := range poll.Votes {
		voters = append(voters, voter)
	}
	sort.Strings(voters)
	fmt.Fprintf(Out, "  votes:      %d\n", len(voters))
	for _, voter := range voters {
		fmt.Fprintf(Out, "    %-20s %s\n", voter, poll.Votes[voter])
	}

	if outcome != nil {
		Outcome(outcome)
	}
}

func Outcome(o *domain.Outcome) {
	verdict := red.Sprint(o.Verdict)
	if o.Approved {
		verdict = green.Sprint(o.Verdict)
	}
	fmt.Fprintf(Out, "  verdict:    %s (%d for, %d against, quorum %d)\n", verdict, o.ForCount, o.AgainstCount, o.Quorum)
	if o.Tie {
		fmt.Fprintf(Out, "  %s\n", yellow.Sprint("tie"))
	}
}

func Sweep(report ports.SweepReport) {
	parts := []string{
		fmt.Sprintf("%d closed", report.Closed),
		fmt.Sprintf("%d repaired", report.Repaired),
	}
	if report.Failed > 0 {
		parts = append(parts, red.Sprintf("%d failed", report.Failed))
	}
	Info("Sweep finished: %s", strings.Join(parts, ", "))
}
