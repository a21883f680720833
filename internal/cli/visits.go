package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pkordes/dockgate/internal/domain"
)

func newVisitsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "visits",
		Aliases: []string{"visit"},
		Short:   "Inspect truck visits",
	}
	cmd.AddCommand(newVisitsListCmd(), newVisitsOverstayCmd())
	return cmd
}

func newVisitsListCmd() *cobra.Command {
	var (
		statuses []string
		search   string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List visits, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := domain.VisitFilter{Search: search}
			for _, s := range statuses {
				f.Statuses = append(f.Statuses, domain.Status(strings.ToUpper(strings.TrimSpace(s))))
			}
			f, err := f.Normalize()
			if err != nil {
				return err
			}

			e, err := openEnv(cmd.Context(), 0)
			if err != nil {
				return err
			}
			defer e.close()

			visits, total, err := e.visits.List(cmd.Context(), f, domain.NewPaginationParams(nil, &limit))
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), map[string]any{"data": visits, "total": total})
			}
			return printVisitTable(cmd.OutOrStdout(), visits, e.cfg.Engine.Location)
		},
	}

	cmd.Flags().StringSliceVar(&statuses, "status", nil, "only these statuses (repeatable or comma-separated)")
	cmd.Flags().StringVar(&search, "search", "", "match booking code, plate, driver, company or PO number")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum rows to show")

	return cmd
}

func newVisitsOverstayCmd() *cobra.Command {
	var threshold time.Duration

	cmd := &cobra.Command{
		Use:   "overstay",
		Short: "List trucks inside the facility past the overstay threshold",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if threshold < 0 {
				return fmt.Errorf("%w: --threshold must not be negative", domain.ErrValidation)
			}
			e, err := openEnv(cmd.Context(), threshold)
			if err != nil {
				return err
			}
			defer e.close()

			over, err := e.visits.Overstays(cmd.Context())
			if err != nil {
				return err
			}
			rows := overstayRows(over)
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), rows)
			}
			return printOverstayTable(cmd.OutOrStdout(), rows)
		},
	}

	cmd.Flags().DurationVar(&threshold, "threshold", 0, "override OVERSTAY_THRESHOLD, e.g. 90m")

	return cmd
}
