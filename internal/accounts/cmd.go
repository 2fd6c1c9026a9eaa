package accounts

import (
	"github.com/compose-network/boxctl/configs"
	"github.com/compose-network/boxctl/internal/wallet"
	"github.com/spf13/cobra"
)

func NewCommand(cfg *configs.Config) *cobra.Command {
	var opts Options

	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Print the accounts available on a network",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Execute(cmd.Context(), *cfg, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar((*string)(&opts.Network), "network", "", "Network to list (defaults to the configured default network)")
	cmd.Flags().Uint32Var(&opts.Count, "count", wallet.DefaultAccountCount, "Number of accounts to derive from a mnemonic")
	cmd.Flags().BoolVar(&opts.Balances, "balances", false, "Also print the balance of each account")

	return cmd
}
