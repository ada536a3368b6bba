package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrlokans/mediamanager/internal/auth"
)

func newHashKeyCommand() *cobra.Command {
	var cost int
	cmd := &cobra.Command{
		Use:   "hash-key [key]",
		Short: "Hash a manage key for AUTH_MANAGE_KEY_HASH",
		Long:  "Hash a manage key for AUTH_MANAGE_KEY_HASH. Without an argument a random key is generated and printed.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var key string
			if len(args) == 1 {
				key = args[0]
			} else {
				generated, err := auth.GenerateKey()
				if err != nil {
					return err
				}
				key = generated
				fmt.Fprintf(cmd.OutOrStdout(), "key:  %s\n", key)
			}

			hash, err := auth.HashKey(key, cost)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "hash: %s\n", hash)
			return nil
		},
	}
	cmd.Flags().IntVar(&cost, "cost", 0, "bcrypt cost, 0 uses the library default")
	return cmd
}
