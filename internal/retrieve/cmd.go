package retrieve

import (
	"github.com/compose-network/boxctl/configs"
	"github.com/spf13/cobra"
)

// NewCommand builds the retrieve command. cfg is read when the command runs,
// after the root command has resolved it.
func NewCommand(cfg *configs.Config) *cobra.Command {
	var opts Options

	cmd := &cobra.Command{
		Use:   "retrieve",
		Short: "Print the value stored in a deployed Box contract",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Execute(cmd.Context(), *cfg, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar((*string)(&opts.Network), "network", string(DefaultNetwork), "Network to connect to")
	cmd.Flags().StringVar(&opts.Address, "address", DefaultAddress, "Address of the deployed contract")
	cmd.Flags().StringVar(&opts.Contract, "contract", DefaultContract, "Name of the compiled contract artifact")

	return cmd
}
