package main

import (
	"fmt"

	"geosite/internal/config"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func configCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Prints the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(cfg); err != nil {
				return fmt.Errorf("could not encode config: %w", err)
			}

			return enc.Close()
		},
	}
}
