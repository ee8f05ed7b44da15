package networks

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/log"

	"github.com/tranvictor/carebook/config"
)

// Insert more Network here to support more chains
var supportedNetworks = []Network{
	EthereumMainnet,
	Sepolia,
	Holesky,
	Localhost,
	Ganache,
}

var ErrNetworkNotFound = fmt.Errorf("network not found")

type registry struct {
	networks     map[string]Network
	networksByID map[uint64]Network
}

func (r *registry) add(n Network) error {
	if _, found := r.networks[n.GetName()]; found {
		return fmt.Errorf("network with name '%s' already exists", n.GetName())
	}
	for _, an := range n.GetAlternativeNames() {
		if _, found := r.networks[an]; found {
			return fmt.Errorf("network with name or alternative name of '%s' already exists", an)
		}
	}
	r.networks[n.GetName()] = n
	for _, an := range n.GetAlternativeNames() {
		r.networks[an] = n
	}
	r.networksByID[n.GetChainID()] = n
	return nil
}

func (r *registry) getNetwork(name string) (Network, error) {
	res, found := r.networks[name]
	if !found {
		return nil, fmt.Errorf("network name '%s': %w", name, ErrNetworkNotFound)
	}
	return res, nil
}

func (r *registry) getNetworkByID(id uint64) (Network, error) {
	res, found := r.networksByID[id]
	if !found {
		return nil, fmt.Errorf("network id %d: %w", id, ErrNetworkNotFound)
	}
	return res, nil
}

func newRegistry(builtins []Network, customDir string) *registry {
	result := &registry{
		networks:     map[string]Network{},
		networksByID: map[uint64]Network{},
	}
	for _, n := range builtins {
		if err := result.add(n); err != nil {
			panic(err)
		}
	}

	customs, err := loadCustomNetworks(customDir)
	if err != nil {
		log.Warn("Failed to load custom networks, continuing with built-in ones", "err", err)
		return result
	}
	for _, n := range customs {
		if err := result.add(n); err != nil {
			log.Warn("Ignored custom network", "name", n.GetName(), "err", err)
		}
	}
	return result
}

func loadCustomNetworks(dir string) ([]Network, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to glob json files in %s: %w", dir, err)
	}
	result := []Network{}
	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", file, err)
		}
		network, err := NewNetworkFromJSON(content)
		if err != nil {
			log.Warn("Failed to parse custom network, skipped", "file", file, "err", err)
			continue
		}
		result = append(result, network)
	}
	return result, nil
}

var globalRegistry *registry

func getRegistry() *registry {
	mu.Lock()
	defer mu.Unlock()
	if globalRegistry == nil {
		globalRegistry = newRegistry(supportedNetworks, config.NetworksDir())
	}
	return globalRegistry
}

func GetNetwork(name string) (Network, error) {
	return getRegistry().getNetwork(name)
}

func GetNetworkByID(id uint64) (Network, error) {
	return getRegistry().getNetworkByID(id)
}

func GetSupportedNetworks() []Network {
	seen := map[uint64]bool{}
	res := []Network{}
	for _, n := range getRegistry().networks {
		if seen[n.GetChainID()] {
			continue
		}
		seen[n.GetChainID()] = true
		res = append(res, n)
	}
	return res
}

// AddNetwork registers network and stores it so later runs see it too.
func AddNetwork(network Network) error {
	if err := getRegistry().add(network); err != nil {
		return err
	}
	dir := config.NetworksDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	content, err := network.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal network: %w", err)
	}
	file := filepath.Join(dir, fmt.Sprintf("%s.json", network.GetName()))
	if err := os.WriteFile(file, content, 0644); err != nil {
		return fmt.Errorf("failed to write the new network to file: %w", err)
	}
	return nil
}
