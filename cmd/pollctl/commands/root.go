package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/vncsmyrnk/featurepoll/internal/bootstrap"
	"github.com/vncsmyrnk/featurepoll/internal/config"
	"github.com/vncsmyrnk/featurepoll/internal/printer"
)

var (
	storageFlag string
	rulesFlag   string
	verboseFlag bool

	app *bootstrap.App
)

// newApp is replaced in tests.
var newApp = func(ctx context.Context) (*bootstrap.App, error) {
	if err := config.LoadEnv(); err != nil {
		return nil, err
	}
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	if storageFlag != "" {
		cfg.Storage = storageFlag
	}
	if rulesFlag != "" {
		cfg.RulesFile = rulesFlag
	}

	rules, err := config.LoadRules(cfg.RulesFile)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if verboseFlag {
		logger = slog.Default()
	}
	return bootstrap.New(ctx, cfg, rules, logger)
}

var rootCmd = &cobra.Command{
	Use:   "pollctl",
	Short: "pollctl - operate suggestion polls",
	Long: `pollctl inspects and drives suggestion polls directly against the
configured store. It reads the same environment as the server
(POSTGRES_*, REDIS_ADDR, RULES_FILE, VOTING_WINDOW).`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd == cmd.Root() || app != nil {
			return nil
		}
		a, err := newApp(cmd.Context())
		if err != nil {
			return printer.Error("Failed to connect", err.Error())
		}
		app = a
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if app != nil {
			app.Close()
			app = nil
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.ExecuteContext(context.Background())
}

func SetVersionInfo(v, c, d string) {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&storageFlag, "storage", "", "Storage backend override (postgres or memory)")
	rootCmd.PersistentFlags().StringVar(&rulesFlag, "rules", "", "Decision rules file override")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Log service events")
}
