package networks

import (
	"github.com/compose-network/boxctl/configs"
	"github.com/spf13/cobra"
)

func NewCommand(cfg *configs.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "networks",
		Short: "Print the resolved network configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Print(cmd.OutOrStdout(), *cfg)
		},
	}
}
