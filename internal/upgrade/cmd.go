package upgrade

import (
	"github.com/compose-network/boxctl/configs"
	"github.com/spf13/cobra"
)

func NewCommand(cfg *configs.Config) *cobra.Command {
	var opts Options

	cmd := &cobra.Command{
		Use:   "upgrade",
		Short: "Upgrade a deployed Box proxy to a new implementation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Execute(cmd.Context(), *cfg, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar((*string)(&opts.Network), "network", string(DefaultNetwork), "Network to connect to")
	cmd.Flags().StringVar(&opts.Proxy, "proxy", DefaultProxy, "Address of the proxy to upgrade")
	cmd.Flags().StringVar(&opts.Factory, "factory", DefaultFactory, "Name of the new implementation artifact")

	return cmd
}
