package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrlokans/mediamanager/internal/config"
	"github.com/mrlokans/mediamanager/internal/database"
	mediarepo "github.com/mrlokans/mediamanager/internal/database/media"
	"github.com/mrlokans/mediamanager/internal/entrypoint"
)

func newSweepCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Delete responsive variants whose source image is gone",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.NewConfig()

			db, err := database.NewDatabase(cfg.Database.Path)
			if err != nil {
				return err
			}
			defer db.Close()

			svc, err := entrypoint.NewMediaService(cfg, mediarepo.NewRepository(db.DB), nil, nil)
			if err != nil {
				return err
			}

			removed, err := svc.Sweep(cmd.Context())
			if err != nil {
				return err
			}
			for _, r := range removed {
				fmt.Fprintln(cmd.OutOrStdout(), r)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d orphaned variants\n", len(removed))
			return nil
		},
	}
}
