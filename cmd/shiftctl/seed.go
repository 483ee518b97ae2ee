package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/shiftboard/internal/storage"
)

var seedMigrate bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the dataset into Postgres with shifts relative to today",
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().BoolVar(&seedMigrate, "migrate", true, "Apply migrations before seeding")
}

func runSeed(cmd *cobra.Command, _ []string) error {
	if err := requireDSN(); err != nil {
		return err
	}
	ds, err := dataset()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	pg, err := storage.NewPostgresStore(ctx, dsn)
	if err != nil {
		return err
	}
	defer pg.Close()
	if seedMigrate {
		if err := storage.Migrate(ctx, pg.DB(), logger()); err != nil {
			return err
		}
	}
	now := time.Now()
	snap := ds.Snapshot(now)
	if err := pg.Seed(ctx, snap, now); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "seeded %d people, %d shops, %d shifts, %d recommendations\n",
		len(snap.People), len(snap.Shops), len(snap.Shifts), len(snap.Recommendations))
	return nil
}
