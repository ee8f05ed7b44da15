package account

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	devKey     = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	devAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

func TestPrivateKeyFromHex(t *testing.T) {
	for _, input := range []string{devKey, "0x" + devKey, " 0x" + devKey + "\n"} {
		addr, key, err := PrivateKeyFromHex(input)
		require.NoError(t, err)
		assert.Equal(t, devAddress, addr)
		assert.NotNil(t, key)
	}
	_, _, err := PrivateKeyFromHex("0x1234")
	assert.Error(t, err)
}

func TestPrivateKeyFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dev.key")
	require.NoError(t, os.WriteFile(path, []byte(devKey), 0o600))
	addr, _, err := PrivateKeyFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, devAddress, addr)
}

func TestAccountSignTx(t *testing.T) {
	_, key, err := PrivateKeyFromHex(devKey)
	require.NoError(t, err)
	acc := NewPrivateKeyAccount(key)
	assert.Equal(t, devAddress, acc.AddressHex())

	to := common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	chainID := big.NewInt(31337)
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     3,
		GasTipCap: big.NewInt(1),
		GasFeeCap: big.NewInt(2),
		Gas:       60000,
		To:        &to,
		Value:     big.NewInt(0),
	})
	signed, err := acc.SignTx(tx, chainID)
	require.NoError(t, err)
	from, err := types.Sender(types.LatestSignerForChainID(chainID), signed)
	require.NoError(t, err)
	assert.Equal(t, acc.Address(), from)
	assert.Equal(t, tx.Nonce(), signed.Nonce())
}
