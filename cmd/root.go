// Copyright © 2018 Victor Tran
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cbcommon "github.com/tranvictor/carebook/common"
	"github.com/tranvictor/carebook/config"
	"github.com/tranvictor/carebook/networks"
	"github.com/tranvictor/carebook/ui"
)

var appUI ui.UI = ui.NewTerminalUI()

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "carebook",
	Short: "Read and write healthcare records kept on an EVM contract",
	Long: fmt.Sprintf(`carebook is a command line client of a healthcare records contract.

It lets you:

	1. connect one of your accounts (keystores or private key files
	registered with "carebook wallet add") and see whether it owns the
	contract,

	2. read every record of a patient,

	3. add records and authorize providers, following each transaction
	until it is mined.

By default carebook talks to the contract at %s on %s. Nodes of a network
can be set with its env var (e.g. SEPOLIA_NODE, LOCALHOST_NODE) or with
--node. Accounts, keystores, custom networks and the provider directory
live in ~/.carebook (or $%s).

Run "carebook console" for an interactive session.`,
		config.DEFAULT_CONTRACT,
		config.DEFAULT_NETWORK,
		config.HomeDirEnv,
	),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cbcommon.SetupLogger()
		if _, err := networks.GetNetwork(config.Network); err != nil {
			return fmt.Errorf("unsupported network %q: %w", config.Network, err)
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.PersistentFlags().StringVarP(&config.Network, "network", "k", config.DEFAULT_NETWORK, "network to use. See `carebook network list` for the supported ones.")
	rootCmd.PersistentFlags().StringVar(&config.NodeURL, "node", "", "json-rpc node url, overrides the network's nodes")
	rootCmd.PersistentFlags().StringVar(&config.ContractAddress, "contract", config.DEFAULT_CONTRACT, "address of the healthcare records contract")
	rootCmd.PersistentFlags().BoolVar(&config.Debug, "debug", false, "print debug logs")

	if err := rootCmd.Execute(); err != nil {
		var shown reportedError
		if !errors.As(err, &shown) {
			appUI.Error("%s", err)
		}
		os.Exit(1)
	}
}
