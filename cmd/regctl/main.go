// Command regctl is the operator CLI: it seeds the competition catalog,
// runs a one-off payment reconciliation pass and mints admin tokens.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"coffeereg/internal/app"
	"coffeereg/internal/platform/config"
	"coffeereg/internal/platform/logger"
)

var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "regctl",
		Short:         "Operator tools for the coffee championship registration service",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")

	root.AddCommand(seedCmd())
	root.AddCommand(reconcileCmd())
	root.AddCommand(tokenCmd())
	return root
}

// openApp loads configuration and connects the backends the same way the
// server does. Metrics go to a private registry since nothing scrapes the CLI.
func openApp(ctx context.Context, cmd *cobra.Command) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	level, _ := cmd.Flags().GetString("log-level")
	log := logger.NewWithWriter(cmd.ErrOrStderr(), level)
	return app.New(ctx, cfg, log, app.WithRegisterer(prometheus.NewRegistry()))
}
