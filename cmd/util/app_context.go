package util

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/tranvictor/carebook/accounts"
	"github.com/tranvictor/carebook/agent"
	"github.com/tranvictor/carebook/config"
	"github.com/tranvictor/carebook/dapp"
	"github.com/tranvictor/carebook/healthcare"
	"github.com/tranvictor/carebook/networks"
	"github.com/tranvictor/carebook/ui"
	"github.com/tranvictor/carebook/util"
	"github.com/tranvictor/carebook/util/account"
	"github.com/tranvictor/carebook/util/addrbook"
	"github.com/tranvictor/carebook/util/monitor"
)

// AppContext holds everything a session command works with. It is built by
// the PreRunE hook of those commands and retrieved with AppContextFrom.
type AppContext struct {
	Network  networks.Network
	Agent    *agent.LocalAgent
	Contract *healthcare.Client
	Client   *dapp.Client
	Book     *addrbook.Book
}

type appContextKey struct{}

func WithAppContext(ctx context.Context, app *AppContext) context.Context {
	return context.WithValue(ctx, appContextKey{}, app)
}

// AppContextFrom returns the AppContext attached to cmd, or nil.
func AppContextFrom(cmd *cobra.Command) *AppContext {
	ctx := cmd.Context()
	if ctx == nil {
		return nil
	}
	app, _ := ctx.Value(appContextKey{}).(*AppContext)
	return app
}

// NewAppContext connects to the configured network and unlocks the
// accounts selected by config.From. The agent asks u before exposing
// accounts and before signing.
func NewAppContext(u ui.UI) (*AppContext, error) {
	network, err := networks.GetNetwork(config.Network)
	if err != nil {
		return nil, err
	}
	if !common.IsHexAddress(config.ContractAddress) {
		return nil, fmt.Errorf("contract address %q is not valid", config.ContractAddress)
	}
	r, err := util.EthReader(network)
	if err != nil {
		return nil, err
	}
	b, err := util.EthBroadcaster(network)
	if err != nil {
		return nil, err
	}

	book, err := addrbook.LoadDefault()
	if err != nil {
		return nil, fmt.Errorf("couldn't load the provider directory: %w", err)
	}

	accs, err := UnlockAccounts(u, config.From)
	if err != nil {
		return nil, err
	}
	var a *agent.LocalAgent
	if len(accs) > 0 {
		a = agent.NewLocalAgent(agent.NewUIApprover(u), accs...)
	}

	contract := healthcare.NewClient(common.HexToAddress(config.ContractAddress), r, b)
	app := &AppContext{
		Network:  network,
		Agent:    a,
		Contract: contract,
		Book:     book,
	}
	// a nil *LocalAgent must reach the client as a nil interface
	var ag agent.Agent
	if a != nil {
		ag = a
	}
	app.Client = dapp.NewClient(ag, contract, monitor.NewTxMonitor(r), u)
	return app, nil
}

// Close stops the background work of the context.
func (app *AppContext) Close() {
	app.Client.Close()
	if app.Agent != nil {
		app.Agent.Close()
	}
	app.Book.Close()
}

// UnlockAccounts unlocks the account matching from, or every account of the
// book when from is empty. Accounts that fail to unlock are skipped with a
// warning unless from named them.
func UnlockAccounts(u ui.UI, from string) ([]*account.Account, error) {
	var descs []accounts.AccDesc
	if from != "" {
		desc, err := accounts.GetAccount(from)
		if err != nil {
			return nil, err
		}
		descs = []accounts.AccDesc{desc}
	} else {
		descs = accounts.SortedAccounts()
	}

	result := []*account.Account{}
	for _, desc := range descs {
		acc, err := UnlockAccount(u, desc)
		if err != nil {
			if from != "" {
				return nil, err
			}
			u.Warn("Skipping %s: %s", desc.Address, err)
			continue
		}
		result = append(result, acc)
	}
	return result, nil
}

func UnlockAccount(u ui.UI, desc accounts.AccDesc) (*account.Account, error) {
	passphrase := ""
	if desc.Kind == accounts.KindKeystore {
		u.Info("Using keystore: %s", desc.Keypath)
		var err error
		passphrase, err = u.AskSecret(fmt.Sprintf("Passphrase of %s", desc.Address))
		if err != nil {
			return nil, err
		}
	}
	return accounts.UnlockAccount(desc, passphrase)
}
