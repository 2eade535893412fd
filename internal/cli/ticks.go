package cli

import (
	"encoding/json"
	"fmt"

	"github.com/me/agentpool/pkg/model"
	"github.com/spf13/cobra"
)

func newTicksCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "ticks",
		Short: "List recent reconciliation ticks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Get(fmt.Sprintf("/api/v1/ticks?limit=%d", limit))
			if err != nil {
				return fmt.Errorf("list ticks: %w", err)
			}

			var ticks []model.TickRecord
			if err := json.Unmarshal(resp.Data, &ticks); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			if len(ticks) == 0 {
				fmt.Println("No ticks recorded.")
				return nil
			}

			fmt.Printf("%-20s  %-12s  %7s  %6s  %5s  %7s  %s\n",
				"AT", "DECISION", "BACKLOG", "AGENTS", "ALIVE", "PENDING", "ERROR")
			for _, t := range ticks {
				fmt.Printf("%-20s  %-12s  %7d  %6d  %5d  %7d  %s\n",
					t.At.Format("2006-01-02 15:04:05"), t.Decision,
					t.Backlog, t.Agents, t.Alive, t.Pending, t.Error)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum ticks to list")
	return cmd
}
