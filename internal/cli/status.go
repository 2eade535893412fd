package cli

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/me/agentpool/pkg/model"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current world view",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Get("/api/v1/status")
			if err != nil {
				return fmt.Errorf("get status: %w", err)
			}

			var report model.StatusReport
			if err := json.Unmarshal(resp.Data, &report); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			v := report.View
			fmt.Printf("Backlog:  %d\n", v.Backlog)
			fmt.Printf("Agents:   %d\n", v.Agents)
			fmt.Printf("Managed:  %d nodes\n", len(v.Managed))
			fmt.Printf("Observed: %s\n", v.Time.Format("2006-01-02 15:04:05 MST"))
			if report.Paused {
				fmt.Println("Decisions: PAUSED")
			}

			if len(v.Alive) > 0 {
				fmt.Printf("\n%-40s  %s\n", "ALIVE", "STARTED")
				for _, node := range sortedNodes(v.Alive) {
					fmt.Printf("%-40s  %s\n", node, v.Alive[node].Format("2006-01-02 15:04:05"))
				}
			}
			if len(v.Pending) > 0 {
				fmt.Printf("\n%-40s  %s\n", "PENDING", "ISSUED")
				for _, node := range sortedNodes(v.Pending) {
					fmt.Printf("%-40s  %s\n", node, v.Pending[node].Format("2006-01-02 15:04:05"))
				}
			}
			return nil
		},
	}
}

func sortedNodes[V any](m map[model.Node]V) []model.Node {
	nodes := make([]model.Node, 0, len(m))
	for n := range m {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })
	return nodes
}
