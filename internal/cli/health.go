package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show server health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Get(commandContext(cmd), "/api/v1/health")
			if err != nil {
				return fmt.Errorf("health: %w", err)
			}

			var data struct {
				Status       string `json:"status"`
				Version      string `json:"version"`
				Uptime       string `json:"uptime"`
				MountedViews int    `json:"mounted_views"`
				Directory    string `json:"directory"`
			}
			if err := json.Unmarshal(resp.Data, &data); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Status:        %s\n", data.Status)
			fmt.Fprintf(out, "Version:       %s\n", data.Version)
			fmt.Fprintf(out, "Uptime:        %s\n", data.Uptime)
			fmt.Fprintf(out, "Mounted views: %d\n", data.MountedViews)
			fmt.Fprintf(out, "Directory:     %s\n", data.Directory)
			return nil
		},
	}
}
