package util

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tranvictor/carebook/config"
	"github.com/tranvictor/carebook/networks"
	"github.com/tranvictor/carebook/util/broadcaster"
	"github.com/tranvictor/carebook/util/monitor"
	"github.com/tranvictor/carebook/util/reader"
)

func IsAddress(addr string) bool {
	return common.IsHexAddress(strings.TrimSpace(addr))
}

// PathToAddress extracts the address from a file named <address>.json.
func PathToAddress(path string) (string, error) {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if !IsAddress(name) {
		return "", fmt.Errorf("%s is not named after an address", path)
	}
	return common.HexToAddress(name).Hex(), nil
}

// GetNodes returns the nodes of network, honoring the --node flag.
func GetNodes(network networks.Network) (map[string]string, error) {
	nodes := networks.Nodes(network, config.NodeURL)
	if len(nodes) == 0 {
		return nil, fmt.Errorf(
			"no node for %s, set %s or pass --node",
			network.GetName(), network.GetNodeVariableName(),
		)
	}
	return nodes, nil
}

func EthReader(network networks.Network) (*reader.EthReader, error) {
	nodes, err := GetNodes(network)
	if err != nil {
		return nil, err
	}
	return reader.NewEthReader(nodes), nil
}

func EthBroadcaster(network networks.Network) (*broadcaster.Broadcaster, error) {
	nodes, err := GetNodes(network)
	if err != nil {
		return nil, err
	}
	return broadcaster.NewGenericBroadcaster(nodes), nil
}

func EthTxMonitor(r monitor.TxInfoReader) *monitor.TxMonitor {
	return monitor.NewTxMonitor(r)
}
