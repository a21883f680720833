// Package cli defines the cobra command tree for gatectl, the operator's
// admin tool for schema migrations, dock configuration and visit lookups.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/pkordes/dockgate/internal/config"
)

var (
	flagFormat      string
	flagDatabaseURL string
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "gatectl",
		Short:         "Administer the dock gate engine",
		Long:          "Apply database migrations, configure docks and inspect visits without going through the HTTP API.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch flagFormat {
			case "text", "json":
				return nil
			}
			return fmt.Errorf("invalid --format %q: want text or json", flagFormat)
		},
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagDatabaseURL, "database-url", "", "Postgres connection string (default: $DATABASE_URL)")

	root.AddCommand(
		newMigrateCmd(),
		newGatesCmd(),
		newVisitsCmd(),
	)

	return root
}

// loadConfig reads the shared environment configuration. --database-url wins
// over DATABASE_URL.
func loadConfig() (config.Config, error) {
	if flagDatabaseURL != "" {
		if err := os.Setenv("DATABASE_URL", flagDatabaseURL); err != nil {
			return config.Config{}, fmt.Errorf("setting DATABASE_URL: %w", err)
		}
	}
	return config.Load()
}

// openPool connects to Postgres and verifies the connection.
func openPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return pool, nil
}

// quietLogger discards engine logs so command output stays readable.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}

// printJSON marshals v as indented JSON and writes it to w.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
