package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pkordes/dockgate/internal/domain"
)

func newGatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "gates",
		Aliases: []string{"gate"},
		Short:   "Configure loading docks",
	}
	cmd.AddCommand(newGatesListCmd(), newGatesAddCmd(), newGatesRemoveCmd())
	return cmd
}

func newGatesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List docks with their current occupant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), 0)
			if err != nil {
				return err
			}
			defer e.close()

			occ, err := e.gates.List(cmd.Context())
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), occ)
			}
			return printGateTable(cmd.OutOrStdout(), occ)
		},
	}
}

func newGatesAddCmd() *cobra.Command {
	var name, gateType, status string

	cmd := &cobra.Command{
		Use:   "add <id>",
		Short: "Create or update a dock",
		Long:  "Create a dock, or update the name, type and status of an existing one. Capacity is always one truck.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := domain.GateConfig{
				ID:     args[0],
				Name:   name,
				Type:   domain.GateType(strings.ToUpper(gateType)),
				Status: domain.GateStatus(strings.ToUpper(status)),
			}.Normalize()
			if err != nil {
				return err
			}

			e, err := openEnv(cmd.Context(), 0)
			if err != nil {
				return err
			}
			defer e.close()

			saved, err := e.gates.Save(cmd.Context(), g, actorName())
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), saved)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Gate %s (%s) saved as %s.\n", saved.ID, saved.Name, saved.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name (default: the id)")
	cmd.Flags().StringVar(&gateType, "type", string(domain.GateDock), "gate type (DOCK|GENERAL)")
	cmd.Flags().StringVar(&status, "status", string(domain.GateOpen), "gate status (OPEN|MAINTENANCE|CLOSED)")

	return cmd
}

func newGatesRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Delete a dock that no truck is using",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), 0)
			if err != nil {
				return err
			}
			defer e.close()

			if err := e.gates.Remove(cmd.Context(), args[0], actorName()); err != nil {
				return err
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), map[string]any{"id": args[0], "removed": true})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Gate %s removed.\n", args[0])
			return nil
		},
	}
}
