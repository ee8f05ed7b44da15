package cmd

import (
	"github.com/spf13/cobra"

	"github.com/tranvictor/carebook/config"
)

// AddCommonFlagsToSessionCmds adds the flags of every command that connects
// an account.
func AddCommonFlagsToSessionCmds(c *cobra.Command) {
	c.PersistentFlags().
		StringVarP(&config.From, "from", "f", "", "Account to connect. It can be an address or words of its description, see `carebook wallet list`. Defaults to every account of the book, the first one active.")
}

// AddCommonFlagsToTransactionalCmds adds the flags of commands that send
// transactions.
func AddCommonFlagsToTransactionalCmds(c *cobra.Command) {
	AddCommonFlagsToSessionCmds(c)
	c.PersistentFlags().
		Uint64VarP(&config.GasLimit, "gas", "g", config.DEFAULT_GAS_LIMIT, "Gas limit of addRecord txs and upper bound of authorizeProvider gas estimation.")
	c.PersistentFlags().
		Float64VarP(&config.GasPrice, "gasprice", "p", 0, "Gas price (fee cap for dynamic fee txs) in gwei. 0 asks the node.")
	c.PersistentFlags().
		Float64VarP(&config.TipGas, "tipgas", "s", 0, "Tip in gwei for dynamic fee txs. 0 asks the node.")
	c.PersistentFlags().
		DurationVar(&config.PollInterval, "poll", config.DEFAULT_POLL_INTERVAL, "How often to poll the nodes while waiting for a tx.")
	c.PersistentFlags().
		DurationVar(&config.LostTxTimeout, "lost-timeout", config.LostTxTimeout, "Give up on a tx no node knows about after this long. 0 waits forever.")
}
