package cmd

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/tranvictor/carebook/config"
	"github.com/tranvictor/carebook/util"
	"github.com/tranvictor/carebook/util/addrbook"
)

var providerCmd = &cobra.Command{
	Use:   "provider",
	Short: "Manage the provider directory used to name providers",
	Long:  ``,
}

var addProviderCmd = &cobra.Command{
	Use:   "add <address> <name>",
	Short: "Add a provider to the directory",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !common.IsHexAddress(args[0]) {
			return fmt.Errorf("%q is not an address", args[0])
		}
		book, err := addrbook.LoadDefault()
		if err != nil {
			return err
		}
		defer book.Close()
		name := strings.Join(args[1:], " ")
		if err := book.Add(common.HexToAddress(args[0]), name); err != nil {
			return err
		}
		if err := book.Save(); err != nil {
			return err
		}
		appUI.Success("Provider %s saved to %s.", name, config.ProvidersFile())
		return nil
	},
}

var listProviderCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the provider directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		book, err := addrbook.LoadDefault()
		if err != nil {
			return err
		}
		defer book.Close()
		util.DisplayProviders(appUI, book.Providers())
		return nil
	},
}

var findProviderCmd = &cobra.Command{
	Use:   "find <name or address>",
	Short: "Show which provider a name resolves to",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		book, err := addrbook.LoadDefault()
		if err != nil {
			return err
		}
		defer book.Close()
		provider, err := book.Resolve(strings.Join(args, " "))
		if err != nil {
			return err
		}
		util.DisplayProviders(appUI, []addrbook.Provider{provider})
		return nil
	},
}

func init() {
	providerCmd.AddCommand(addProviderCmd)
	providerCmd.AddCommand(listProviderCmd)
	providerCmd.AddCommand(findProviderCmd)
	rootCmd.AddCommand(providerCmd)
}
