package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ajharbinger/msa-market-engine/internal/database"
)

var skipInit = map[string]string{"skipInit": "true"}

func newMigrateCommand() *cobra.Command {
	var (
		databaseURL string
		down        int
		showVersion bool
	)
	cmd := &cobra.Command{
		Use:         "migrate",
		Short:       "Apply or roll back database migrations",
		Annotations: skipInit,
		Example: `  marketctl migrate --database-url postgres://localhost/market?sslmode=disable
  marketctl migrate --down 1
  marketctl migrate --version`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if databaseURL == "" {
				return fmt.Errorf("--database-url or DATABASE_URL is required")
			}
			out := cmd.OutOrStdout()

			switch {
			case showVersion:
			case down > 0:
				if err := database.RollbackMigrations(databaseURL, down); err != nil {
					return err
				}
				fmt.Fprintf(out, "Rolled back %d migration(s)\n", down)
			case down < 0:
				return fmt.Errorf("--down must be positive, got %d", down)
			default:
				if err := database.RunMigrations(databaseURL); err != nil {
					return err
				}
				fmt.Fprintln(out, "Migrations applied")
			}

			version, dirty, err := database.MigrationVersion(databaseURL)
			if err != nil {
				return err
			}
			state := "clean"
			if dirty {
				state = "dirty"
			}
			fmt.Fprintf(out, "Schema version %d (%s)\n", version, state)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "Postgres connection URL")
	f.IntVar(&down, "down", 0, "roll back this many migrations instead of applying")
	f.BoolVar(&showVersion, "version", false, "only print the current schema version")
	return cmd
}
