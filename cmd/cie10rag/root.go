package main

import (
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/cie10rag/internal/config"
	"github.com/kailas-cloud/cie10rag/internal/version"
)

// globalOptions are flags shared by every command.
type globalOptions struct {
	env        string
	configPath string // overrides env-based lookup
}

func (o *globalOptions) load() (config.Config, error) {
	if o.configPath != "" {
		return config.LoadFile(o.configPath) //nolint:wrapcheck // already descriptive
	}
	return config.Load(o.env) //nolint:wrapcheck // already descriptive
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "cie10rag",
		Short: "ICD-10-ES code retrieval and coding service",
		Long: `cie10rag indexes the ICD-10-ES diagnosis and procedure catalogs and
serves similarity search and model-assisted code proposals over HTTP.

Running without a subcommand starts the HTTP server.`,
		Version:      version.Version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	cmd.SetVersionTemplate(version.Get().String() + "\n")

	cmd.PersistentFlags().StringVarP(&opts.env, "env", "e", config.GetEnv(),
		"Config environment: selects config/<env>.yaml and the log format")
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "",
		"Path to a config file (overrides --env lookup)")

	cmd.AddCommand(
		newServeCmd(opts),
		newSearchCmd(opts),
		newVersionCmd(),
	)
	return cmd
}
