package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPauseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pause",
		Short: "Suspend decision-making (observation continues)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := client.Post("/api/v1/pause"); err != nil {
				return fmt.Errorf("pause: %w", err)
			}
			fmt.Println("Decisions paused.")
			return nil
		},
	}
}

func newResumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Resume decision-making",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := client.Post("/api/v1/resume"); err != nil {
				return fmt.Errorf("resume: %w", err)
			}
			fmt.Println("Decisions resumed.")
			return nil
		},
	}
}
