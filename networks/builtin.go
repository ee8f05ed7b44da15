package networks

var EthereumMainnet Network = NewGenericNetwork(GenericNetworkConfig{
	Name:              "mainnet",
	AlternativeNames:  []string{"ethereum"},
	ChainID:           1,
	NativeTokenSymbol: "ETH",
	BlockTime:         12,
	NodeVariableName:  "ETHEREUM_MAINNET_NODE",
	DefaultNodes: map[string]string{
		"mainnet-publicnode": "https://ethereum-rpc.publicnode.com",
		"mainnet-llamarpc":   "https://eth.llamarpc.com",
	},
})

var Sepolia Network = NewGenericNetwork(GenericNetworkConfig{
	Name:              "sepolia",
	AlternativeNames:  []string{"sepolia-testnet"},
	ChainID:           11155111,
	NativeTokenSymbol: "SepoliaETH",
	BlockTime:         12,
	NodeVariableName:  "SEPOLIA_NODE",
	DefaultNodes: map[string]string{
		"sepolia-publicnode": "https://ethereum-sepolia-rpc.publicnode.com",
		"sepolia-org":        "https://rpc.sepolia.org",
	},
})

var Holesky Network = NewGenericNetwork(GenericNetworkConfig{
	Name:              "holesky",
	AlternativeNames:  []string{},
	ChainID:           17000,
	NativeTokenSymbol: "HoleskyETH",
	BlockTime:         12,
	NodeVariableName:  "HOLESKY_NODE",
	DefaultNodes: map[string]string{
		"holesky-publicnode": "https://ethereum-holesky-rpc.publicnode.com",
	},
})

// Localhost is a hardhat or anvil dev chain.
var Localhost Network = NewGenericNetwork(GenericNetworkConfig{
	Name:              "localhost",
	AlternativeNames:  []string{"hardhat", "anvil"},
	ChainID:           31337,
	NativeTokenSymbol: "ETH",
	BlockTime:         1,
	NodeVariableName:  "LOCALHOST_NODE",
	DefaultNodes: map[string]string{
		"localhost": "http://127.0.0.1:8545",
	},
})

var Ganache Network = NewGenericNetwork(GenericNetworkConfig{
	Name:              "ganache",
	AlternativeNames:  []string{},
	ChainID:           1337,
	NativeTokenSymbol: "ETH",
	BlockTime:         1,
	NodeVariableName:  "GANACHE_NODE",
	DefaultNodes: map[string]string{
		"ganache": "http://127.0.0.1:7545",
	},
})
