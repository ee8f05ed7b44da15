package networks

import (
	"encoding/json"
	"time"
)

type GenericNetworkConfig struct {
	Name              string            `json:"name"`
	AlternativeNames  []string          `json:"alternative_names"`
	ChainID           uint64            `json:"chain_id"`
	NativeTokenSymbol string            `json:"native_token_symbol"`
	BlockTime         uint64            `json:"block_time"`
	NodeVariableName  string            `json:"node_variable_name"`
	DefaultNodes      map[string]string `json:"default_nodes"`
}

// GenericNetwork is a network fully described by its config, used for the
// built-in networks and for custom ones loaded from json.
type GenericNetwork struct {
	config GenericNetworkConfig
}

func NewGenericNetwork(config GenericNetworkConfig) *GenericNetwork {
	return &GenericNetwork{config: config}
}

func (gn *GenericNetwork) GetName() string {
	return gn.config.Name
}

func (gn *GenericNetwork) GetChainID() uint64 {
	return gn.config.ChainID
}

func (gn *GenericNetwork) GetAlternativeNames() []string {
	return gn.config.AlternativeNames
}

func (gn *GenericNetwork) GetNativeTokenSymbol() string {
	return gn.config.NativeTokenSymbol
}

func (gn *GenericNetwork) GetBlockTime() time.Duration {
	return time.Duration(gn.config.BlockTime) * time.Second
}

func (gn *GenericNetwork) GetNodeVariableName() string {
	return gn.config.NodeVariableName
}

func (gn *GenericNetwork) GetDefaultNodes() map[string]string {
	return gn.config.DefaultNodes
}

func (gn *GenericNetwork) MarshalJSON() ([]byte, error) {
	return json.Marshal(gn.config)
}

func NewNetworkFromJSON(content []byte) (Network, error) {
	networkConfig := GenericNetworkConfig{}
	if err := json.Unmarshal(content, &networkConfig); err != nil {
		return nil, err
	}
	return NewGenericNetwork(networkConfig), nil
}
