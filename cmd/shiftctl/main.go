// Command shiftctl is the operator CLI: schema migrations, seeding the
// database from the default dataset, and ranking a listing from the shell.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/shiftboard/internal/fixtures"
	"github.com/example/shiftboard/internal/logging"
)

var (
	dsn          string
	fixturesPath string
	logLevel     string
	timeout      time.Duration
)

var rootCmd = &cobra.Command{
	Use:           "shiftctl",
	Short:         "Operate a shiftboard deployment",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dsn, "dsn", os.Getenv("PG_DSN"), "Postgres DSN (default $PG_DSN)")
	rootCmd.PersistentFlags().StringVar(&fixturesPath, "fixtures", os.Getenv("FIXTURES_PATH"), "Dataset YAML file (default: embedded dataset)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", time.Minute, "Operation timeout")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(rankCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}

func dataset() (fixtures.Provider, error) {
	if fixturesPath == "" {
		return fixtures.Default(), nil
	}
	return fixtures.Load(fixturesPath)
}

func requireDSN() error {
	if dsn == "" {
		return fmt.Errorf("--dsn or PG_DSN is required")
	}
	return nil
}

func logger() *slog.Logger { return logging.NewLogger(logLevel, "text") }
