package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tranvictor/carebook/config"
	"github.com/tranvictor/carebook/networks"
)

var (
	NetworkConfig string
	NetworkForce  bool
)

func readNetworkConfig(input string) (networks.Network, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("--config is required")
	}
	if strings.HasPrefix(input, "{") && strings.HasSuffix(input, "}") {
		return networks.NewNetworkFromJSON([]byte(input))
	}
	content, err := os.ReadFile(input)
	if err != nil {
		return nil, fmt.Errorf("couldn't read the network config file: %w", err)
	}
	return networks.NewNetworkFromJSON(content)
}

var addNetworkCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a network to the supported networks list locally",
	Long: `--config takes a network config json file path OR a json string in the following format:
	{
		"name": "network_name",
		"alternative_names": ["alternative_name_1"],
		"chain_id": 1,
		"native_token_symbol": "ETH",
		"block_time": 12,
		"node_variable_name": "MY_NETWORK_NODE",
		"default_nodes": {
			"node_name_1": "node_url_1"
		}
	}`,
	RunE: func(cmd *cobra.Command, args []string) error {
		newNetwork, err := readNetworkConfig(NetworkConfig)
		if err != nil {
			return err
		}
		names := append([]string{newNetwork.GetName()}, newNetwork.GetAlternativeNames()...)
		for _, name := range names {
			if _, err := networks.GetNetwork(name); err == nil {
				if !NetworkForce {
					return fmt.Errorf("network %s already exists, use --force to replace it", name)
				}
				appUI.Warn("Network %s already exists, replacing it.", name)
			}
		}
		if err := networks.AddNetwork(newNetwork); err != nil {
			return fmt.Errorf("failed to add the network: %w", err)
		}
		appUI.Success("Network %s with chain ID %d saved to %s.", newNetwork.GetName(), newNetwork.GetChainID(), config.NetworksDir())
		return nil
	},
}

var listNetworkCmd = &cobra.Command{
	Use:   "list",
	Short: "Show all of supported networks",
	Long:  ``,
	Run: func(cmd *cobra.Command, args []string) {
		for i, n := range networks.GetSupportedNetworks() {
			appUI.Info("%d. %s (chain ID %d, node env var %s)", i+1, n.GetName(), n.GetChainID(), n.GetNodeVariableName())
			nodes := networks.Nodes(n, "")
			names := make([]string, 0, len(nodes))
			for name := range nodes {
				names = append(names, name)
			}
			sort.Strings(names)
			rows := make([][2]string, 0, len(names))
			for _, name := range names {
				rows = append(rows, [2]string{name, nodes[name]})
			}
			appUI.Indent().KeyValue(rows)
		}
		appUI.Info("To add a network: carebook network add --config <json>")
	},
}

var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "Manage the networks carebook supports",
	Long:  ``,
}

func init() {
	addNetworkCmd.PersistentFlags().StringVarP(&NetworkConfig, "config", "c", "", "Path to the network config json file, or the json itself")
	addNetworkCmd.PersistentFlags().BoolVar(&NetworkForce, "force", false, "Replace the network if it already exists")

	networkCmd.AddCommand(listNetworkCmd)
	networkCmd.AddCommand(addNetworkCmd)
	rootCmd.AddCommand(networkCmd)
}
