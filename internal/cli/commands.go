package cli

import (
	"encoding/json"
	"fmt"

	"github.com/me/agentpool/pkg/model"
	"github.com/spf13/cobra"
)

func newCommandsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "commands",
		Short: "List recently issued start/stop commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Get(fmt.Sprintf("/api/v1/commands?limit=%d", limit))
			if err != nil {
				return fmt.Errorf("list commands: %w", err)
			}

			var cmds []model.Command
			if err := json.Unmarshal(resp.Data, &cmds); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			if len(cmds) == 0 {
				fmt.Println("No commands issued.")
				return nil
			}

			fmt.Printf("%-20s  %-6s  %-40s  %s\n", "ISSUED", "ACTION", "NODE", "REASON")
			for _, c := range cmds {
				fmt.Printf("%-20s  %-6s  %-40s  %s\n",
					c.IssuedAt.Format("2006-01-02 15:04:05"), c.Action, c.Node, c.Reason)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum commands to list")
	return cmd
}
