package accounts

import (
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	gethkeystore "github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	"github.com/sahilm/fuzzy"

	"github.com/tranvictor/carebook/config"
	"github.com/tranvictor/carebook/util/account"
)

const (
	KindKeystore   = "keystore"
	KindPrivateKey = "privatekey"
)

var ErrAccountNotFound = errors.New("account not found")

// scrypt cost of the keystores this package writes.
var (
	scryptN = gethkeystore.StandardScryptN
	scryptP = gethkeystore.StandardScryptP
)

// AccDesc describes an account of the book. Keypath points at a keystore
// json for keystore accounts or at a hex key file for private key accounts.
type AccDesc struct {
	Address string
	Kind    string
	Keypath string
	Desc    string
}

type keystore struct {
	Address string `json:"address"`
}

// StorePrivateKeyWithKeystore encrypts the hex private key with passphrase
// into a keystore file under the keystores dir and returns its path.
func StorePrivateKeyWithKeystore(privateKey string, passphrase string) (string, error) {
	priv, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(privateKey), "0x"))
	if err != nil {
		return "", fmt.Errorf("invalid private key: %w", err)
	}
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	key := &gethkeystore.Key{
		Id:         id,
		Address:    crypto.PubkeyToAddress(priv.PublicKey),
		PrivateKey: priv,
	}

	keystoreJson, err := gethkeystore.EncryptKey(
		key,
		passphrase,
		scryptN,
		scryptP,
	)
	if err != nil {
		return "", fmt.Errorf("couldn't encrypt the key: %w", err)
	}

	dir := config.KeystoresDir()
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("%s.json", key.Address.Hex()))
	return path, os.WriteFile(path, keystoreJson, 0o600)
}

// VerifyKeystore returns the checksummed address a keystore file is for.
func VerifyKeystore(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	k := &keystore{}
	if err = json.Unmarshal(content, k); err != nil {
		return "", err
	}
	if !common.IsHexAddress(k.Address) {
		return "", fmt.Errorf("keystore %s has no valid address", path)
	}
	return common.HexToAddress(k.Address).Hex(), nil
}

func StoreAccountRecord(accDesc AccDesc) error {
	if !common.IsHexAddress(accDesc.Address) {
		return fmt.Errorf("invalid account address %q", accDesc.Address)
	}
	dir := config.AccountsDir()
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	accDesc.Address = common.HexToAddress(accDesc.Address).Hex()
	path := filepath.Join(dir, fmt.Sprintf("%s.json", accDesc.Address))
	content, err := json.MarshalIndent(accDesc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, content, 0o600)
}

// UnlockAccount opens the signing key of ad. The passphrase is ignored for
// private key accounts.
func UnlockAccount(ad AccDesc, passphrase string) (*account.Account, error) {
	var (
		acc *account.Account
		err error
	)
	switch ad.Kind {
	case KindKeystore:
		acc, err = account.NewKeystoreAccount(ad.Keypath, passphrase)
	case KindPrivateKey:
		var priv *ecdsa.PrivateKey
		if _, priv, err = account.PrivateKeyFromFile(ad.Keypath); err == nil {
			acc = account.NewPrivateKeyAccount(priv)
		}
	default:
		return nil, fmt.Errorf("unsupported account kind %q", ad.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("unlocking %s account %s failed: %w", ad.Kind, ad.Address, err)
	}
	if !strings.EqualFold(acc.AddressHex(), ad.Address) {
		return nil, fmt.Errorf("key at %s is for %s, not %s", ad.Keypath, acc.AddressHex(), ad.Address)
	}
	return acc, nil
}

// GetAccount picks the account that best matches input, either an address
// or words of its description.
func GetAccount(input string) (AccDesc, error) {
	source := NewFuzzySource()
	if common.IsHexAddress(input) {
		for _, acc := range source {
			if strings.EqualFold(acc.Address, input) {
				return acc, nil
			}
		}
		return AccDesc{}, fmt.Errorf("%w: %s", ErrAccountNotFound, input)
	}
	matches := fuzzy.FindFrom(strings.ReplaceAll(input, " ", "_"), source)
	if len(matches) == 0 {
		return AccDesc{}, fmt.Errorf("%w: no account matches '%s'", ErrAccountNotFound, input)
	}
	return source[matches[0].Index], nil
}

// GetAccounts returns a map address -> account description.
// Each description is stored in a json file whose name is
// the address and content is the description.
func GetAccounts() map[string]AccDesc {
	paths, err := filepath.Glob(filepath.Join(config.AccountsDir(), "*.json"))
	if err != nil {
		log.Warn("Listing accounts failed", "err", err)
		return map[string]AccDesc{}
	}
	result := map[string]AccDesc{}
	for _, p := range paths {
		content, err := os.ReadFile(p)
		if err != nil {
			log.Warn("Reading account description failed, skipping", "path", p, "err", err)
			continue
		}
		desc := AccDesc{}
		if err = json.Unmarshal(content, &desc); err != nil {
			log.Warn("Decoding account description failed, skipping", "path", p, "err", err)
			continue
		}
		addr := strings.TrimSuffix(filepath.Base(p), ".json")
		if !common.IsHexAddress(addr) {
			continue
		}
		result[common.HexToAddress(addr).Hex()] = desc
	}
	return result
}

// SortedAccounts returns the book ordered by address.
func SortedAccounts() []AccDesc {
	all := GetAccounts()
	result := make([]AccDesc, 0, len(all))
	for _, acc := range all {
		result = append(result, acc)
	}
	sort.Slice(result, func(i, j int) bool {
		return strings.ToLower(result[i].Address) < strings.ToLower(result[j].Address)
	})
	return result
}
