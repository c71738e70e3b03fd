package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/chainguard-dev/clog"
	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/cobra"

	"ticket-review-gate/services"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "ticket-review-gate",
	Short: "Check that pull requests reference a JIRA ticket",
	Long: `ticket-review-gate checks the title and branch name of a pull request for a
JIRA ticket reference, optionally verifies the ticket in JIRA, and keeps a
single "request changes" review from the bot in sync with the result.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute は main から呼ばれるエントリーポイント
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		cancel()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.AddCommand(checkCmd, serveCmd)
}

func newLogger() *clog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return clog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// setup はロガー付きの context と設定を用意する
func setup(cmd *cobra.Command) (context.Context, *clog.Logger, *services.Config, error) {
	logger := newLogger()
	ctx := clog.WithLogger(cmd.Context(), logger)

	cfg, err := services.LoadConfig(ctx, envconfig.OsLookuper())
	if err != nil {
		return nil, nil, nil, err
	}
	return ctx, logger, cfg, nil
}
