package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"menulens/internal/config"
	"menulens/internal/observability"
)

// effectiveConfig is the printable shape of a loaded runtime.
type effectiveConfig struct {
	config.Config `yaml:",inline"`
	Observability observability.Config `yaml:"observability"`
}

func newConfigCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect menulens configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration after every layer is applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.load(cmd, nil)
			if err != nil {
				return err
			}
			source := rt.meta.ConfigFile
			if source == "" {
				source = "(defaults and environment only)"
			}
			fmt.Fprintf(opts.stdout, "# config file: %s\n", source)

			encoder := yaml.NewEncoder(opts.stdout)
			encoder.SetIndent(2)
			if err := encoder.Encode(effectiveConfig{Config: rt.cfg, Observability: rt.obs}); err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			if err := encoder.Close(); err != nil {
				return err
			}
			if err := rt.cfg.Validate(); err != nil {
				fmt.Fprintf(opts.stdout, "# warning: %v\n", err)
			}
			return nil
		},
	})
	return cmd
}
