package cmd

import (
	"github.com/spf13/cobra"

	"github.com/tranvictor/carebook/accounts"
	cmdutil "github.com/tranvictor/carebook/cmd/util"
	"github.com/tranvictor/carebook/config"
	"github.com/tranvictor/carebook/util"
	"github.com/tranvictor/carebook/util/account"
)

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Manage your wallets",
	Long:  ``,
}

func handleAddPrivateKey() error {
	appUI.Warn("The key will be encrypted into a keystore under %s.", config.KeystoresDir())
	privateKey, err := appUI.AskSecret("Private key (hex)")
	if err != nil {
		return err
	}
	address, _, err := account.PrivateKeyFromHex(privateKey)
	if err != nil {
		appUI.Error("That is not a valid private key: %s", err)
		return err
	}
	appUI.Info("This key is for %s", address)
	passphrase, err := cmdutil.PromptPassphrase(appUI, "Passphrase to encrypt it with")
	if err != nil {
		return err
	}
	stop := appUI.Spinner("Encrypting...")
	path, err := accounts.StorePrivateKeyWithKeystore(privateKey, passphrase)
	stop()
	if err != nil {
		appUI.Error("Couldn't store the key: %s", err)
		return err
	}
	appUI.Success("Stored encrypted private key at %s.", path)
	return handleAddKeystoreGivenPath(path)
}

func handleAddKeystoreGivenPath(keystorePath string) error {
	address, err := accounts.VerifyKeystore(keystorePath)
	if err != nil {
		appUI.Error("Keystore path verification failed. %s. Abort.", err)
		return err
	}
	appUI.Info("This keystore is with %s", address)
	return storeAccount(accounts.AccDesc{
		Address: address,
		Kind:    accounts.KindKeystore,
		Keypath: keystorePath,
	})
}

func handleAddKeyFile() error {
	appUI.Warn("Plain key files are only meant for local development nodes.")
	keyPath := cmdutil.PromptFilePath(appUI, "Please enter the path to your hex private key file")
	address, _, err := account.PrivateKeyFromFile(keyPath)
	if err != nil {
		appUI.Error("Couldn't read a private key from %s: %s", keyPath, err)
		return err
	}
	appUI.Info("This key is for %s", address)
	return storeAccount(accounts.AccDesc{
		Address: address,
		Kind:    accounts.KindPrivateKey,
		Keypath: keyPath,
	})
}

func storeAccount(desc accounts.AccDesc) error {
	desc.Desc = cmdutil.PromptNonEmpty(appUI, "Please enter a description of this wallet, it is used to find it by keywords later")
	if err := accounts.StoreAccountRecord(desc); err != nil {
		appUI.Error("I couldn't store your wallet info: %s. Abort.", err)
		return err
	}
	appUI.Success("Wallet %s added. See your wallets with `carebook wallet list`.", desc.Address)
	return nil
}

var addWalletCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a wallet to carebook",
	RunE: func(cmd *cobra.Command, args []string) error {
		options := []string{"keystore file", "private key (stored as a keystore)", "plain private key file"}
		switch appUI.Choose("What kind of key do you want to add?", options) {
		case 0:
			keystorePath := cmdutil.PromptFilePath(appUI, "Please enter the path to your keystore file")
			return reported(handleAddKeystoreGivenPath(keystorePath))
		case 1:
			return reported(handleAddPrivateKey())
		default:
			return reported(handleAddKeyFile())
		}
	},
}

var listWalletCmd = &cobra.Command{
	Use:   "list",
	Short: "Show all of your wallets",
	Long:  ``,
	Run: func(cmd *cobra.Command, args []string) {
		accs := accounts.SortedAccounts()
		appUI.Info("You have %d wallet(s):", len(accs))
		util.DisplayAccounts(appUI, accs, nil)
	},
}

func init() {
	walletCmd.AddCommand(listWalletCmd)
	walletCmd.AddCommand(addWalletCmd)
	rootCmd.AddCommand(walletCmd)
}
