package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/shiftboard/internal/storage"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	if err := requireDSN(); err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	pg, err := storage.NewPostgresStore(ctx, dsn)
	if err != nil {
		return err
	}
	defer pg.Close()
	if err := storage.Migrate(ctx, pg.DB(), logger()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
	return nil
}
