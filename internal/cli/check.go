package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pipewise/exportd/internal/config"
)

func checkCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate a config file",
		Long: `Validate an exportd config file and list the destinations it defines.

Examples:
  exportd check --config exportd.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if configFile == "" {
				return fmt.Errorf("--config is required")
			}

			cfg, err := config.Load(configFile)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Config validation FAILED: %v\n", err)
				return err
			}

			cmd.Println("Config validation: OK")
			cmd.Printf("  Intake:    %s\n", cfg.Intake.Source)
			cmd.Printf("  Metrics:   enabled=%v listen=%s\n", cfg.Metrics.Enabled, cfg.Metrics.Listen)
			cmd.Printf("  Exporters: %d\n", len(cfg.Exporters))
			for _, e := range cfg.Exporters {
				cmd.Printf("    %-20s %-5s %s\n", e.Name, e.Transport, e.Path())
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "config file path")

	return cmd
}
