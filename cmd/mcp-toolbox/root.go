package main

import (
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/mcp-toolbox/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string
	fileRoot   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "mcp-toolbox",
		Short:        "Serve tools and resources over the Model Context Protocol",
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&opts.logFormat, "log-format", "", "log format: text or json")
	flags.StringVar(&opts.fileRoot, "file-root", "", "directory served by read_file and file://")

	cmd.AddCommand(
		newServeCmd(opts),
		newListCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// load reads the configuration and applies the flags the user set.
func (o *rootOptions) load(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = o.logFormat
	}
	if flags.Changed("file-root") {
		cfg.FileRoot = o.fileRoot
	}
	return cfg, nil
}
