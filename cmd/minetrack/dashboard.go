package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"minetrack/internal/dashboard"
)

var dashboardOut string

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Render Grafana dashboards for the exported player count table",
	Long:  "dashboard renders Grafana dashboard JSON querying the GreptimeDB export table. The datasource is taken from GREPTIMEDB_DATASOURCE_UID.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := dashboard.Render(dashboardOut, cfg.Export.Table); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "dashboards written to %s\n", dashboardOut)
		return nil
	},
}

func init() {
	dashboardCmd.Flags().StringVar(&dashboardOut, "out", "build", "Directory for rendered dashboards")
}
