package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrlokans/mediamanager/internal/config"
	"github.com/mrlokans/mediamanager/internal/entrypoint"
)

func newServeCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Long:  "Run the HTTP server. Settings are read from the environment and MEDIA_CONFIG_FILE.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return entrypoint.Run(config.NewConfig(), version)
		},
	}
}
