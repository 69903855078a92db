package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"menulens/internal/config"
	"menulens/internal/logging"
	"menulens/internal/observability"
)

type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string
	stdout     io.Writer
	stderr     io.Writer
}

// appRuntime is what every subcommand gets after loading configuration.
type appRuntime struct {
	cfg    config.Config
	meta   config.Metadata
	obs    observability.Config
	logger logging.Logger
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{stdout: stdout, stderr: stderr}

	rootCmd := &cobra.Command{
		Use:           "menulens",
		Short:         "Turn restaurant menu photos into translated dish lists",
		Long:          "menulens validates menu photos, relays them to the recognition webhook and normalizes the reply.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file (default ./menulens.yaml or ~/.menulens/menulens.yaml)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "Log format: json or text")

	rootCmd.AddCommand(newServeCommand(opts))
	rootCmd.AddCommand(newScanCommand(opts))
	rootCmd.AddCommand(newConfigCommand(opts))
	rootCmd.AddCommand(newVersionCommand(opts))

	return rootCmd
}

// load reads .env, the layered config and the observability section, then
// installs the process logger. bindings maps config keys to cmd flag names.
func (o *rootOptions) load(cmd *cobra.Command, bindings map[string]string) (*appRuntime, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}

	loadOpts := []config.Option{config.WithConfigPath(o.configPath)}
	if len(bindings) > 0 {
		loadOpts = append(loadOpts, config.WithFlags(cmd.Flags(), bindings))
	}
	cfg, meta, err := config.Load(loadOpts...)
	if err != nil {
		return nil, err
	}

	obsCfg, err := observability.LoadConfig(meta.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("load observability config: %w", err)
	}
	if o.logLevel != "" {
		obsCfg.Logging.Level = o.logLevel
	}
	if o.logFormat != "" {
		obsCfg.Logging.Format = o.logFormat
	}

	logging.SetBase(observability.NewLogger(observability.LogConfig{
		Level:  obsCfg.Logging.Level,
		Format: obsCfg.Logging.Format,
		Output: o.stderr,
	}))

	return &appRuntime{
		cfg:    cfg,
		meta:   meta,
		obs:    obsCfg,
		logger: logging.NewComponentLogger("cli"),
	}, nil
}

func newVersionCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the menulens version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(opts.stdout, appVersion())
			return err
		},
	}
}
