package cli

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/pkordes/dockgate/migrations"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE:  runMigrateUp,
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			Args:  cobra.NoArgs,
			RunE:  runMigrateDown,
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show applied and pending migrations",
			Args:  cobra.NoArgs,
			RunE:  runMigrateStatus,
		},
	)

	return cmd
}

// withProvider opens database/sql over the pgx driver, since goose does not
// speak pgxpool, and hands fn a provider over the embedded migrations.
func withProvider(fn func(*goose.Provider) error) error {
	dsn := flagDatabaseURL
	if dsn == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		dsn = cfg.DatabaseURL
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	provider, err := migrations.NewProvider(db)
	if err != nil {
		return fmt.Errorf("creating goose provider: %w", err)
	}
	return fn(provider)
}

func runMigrateUp(cmd *cobra.Command, args []string) error {
	return withProvider(func(p *goose.Provider) error {
		results, err := p.Up(cmd.Context())
		if err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
		if isJSON() {
			out := make([]migrationRow, 0, len(results))
			for _, r := range results {
				out = append(out, migrationRow{Version: r.Source.Version, Path: r.Source.Path, State: "applied"})
			}
			return printJSON(cmd.OutOrStdout(), out)
		}
		if len(results) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date.")
			return nil
		}
		for _, r := range results {
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %s (%s)\n", r.Source.Path, r.Duration.Round(time.Millisecond))
		}
		return nil
	})
}

func runMigrateDown(cmd *cobra.Command, args []string) error {
	return withProvider(func(p *goose.Provider) error {
		r, err := p.Down(cmd.Context())
		if err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}
		if isJSON() {
			return printJSON(cmd.OutOrStdout(), migrationRow{Version: r.Source.Version, Path: r.Source.Path, State: "rolled_back"})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Rolled back %s\n", r.Source.Path)
		return nil
	})
}

func runMigrateStatus(cmd *cobra.Command, args []string) error {
	return withProvider(func(p *goose.Provider) error {
		statuses, err := p.Status(cmd.Context())
		if err != nil {
			return fmt.Errorf("migrate status: %w", err)
		}
		rows := make([]migrationRow, 0, len(statuses))
		for _, s := range statuses {
			row := migrationRow{Version: s.Source.Version, Path: s.Source.Path, State: string(s.State)}
			if !s.AppliedAt.IsZero() {
				at := s.AppliedAt
				row.AppliedAt = &at
			}
			rows = append(rows, row)
		}
		if isJSON() {
			return printJSON(cmd.OutOrStdout(), rows)
		}
		return printMigrationTable(cmd.OutOrStdout(), rows)
	})
}
