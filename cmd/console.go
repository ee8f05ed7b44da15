package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/spf13/cobra"

	"github.com/tranvictor/carebook/agent"
	cmdutil "github.com/tranvictor/carebook/cmd/util"
	"github.com/tranvictor/carebook/dapp"
	"github.com/tranvictor/carebook/session"
	"github.com/tranvictor/carebook/tx"
	"github.com/tranvictor/carebook/ui"
	"github.com/tranvictor/carebook/util"
	"github.com/tranvictor/carebook/util/addrbook"
)

const consolePrompt = "carebook> "

var consoleHelp = [][2]string{
	{"connect", "connect the active account"},
	{"disconnect", "forget the session"},
	{"fetch <patient id>", "show the records of a patient"},
	{"add <patient id> <name> <diagnosis> <treatment>", "add a record, quote words with spaces"},
	{"authorize <provider>", "allow a provider (address or directory name) to add records"},
	{"accounts", "list the accounts of the agent"},
	{"switch <address or #>", "make another account active"},
	{"revoke", "withdraw account access from carebook"},
	{"providers", "list the provider directory"},
	{"state", "show the session, records and pending txs"},
	{"help", "show this help"},
	{"exit", "leave the console"},
}

// console is the interactive loop over the user intents.
type console struct {
	u        ui.UI
	client   *dapp.Client
	agent    *agent.LocalAgent
	resolver addrbook.Resolver
	namer    addrbook.Namer
	book     *addrbook.Book
	now      func() time.Time
}

func newConsole(u ui.UI, app *cmdutil.AppContext) *console {
	return &console{
		u:        u,
		client:   app.Client,
		agent:    app.Agent,
		resolver: app.Book,
		namer:    app.Book,
		book:     app.Book,
		now:      time.Now,
	}
}

// watch reports session changes made outside of a console command, such as
// an account switch, and tx submissions.
func (c *console) watch(ctx context.Context) func() {
	sessions := make(chan session.Session, 8)
	pending := make(chan tx.PendingCall, 8)
	sessionSub := c.client.Sessions().SubscribeSession(sessions)
	pendingSub := c.client.Coordinator().SubscribePending(pending)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			select {
			case s := <-sessions:
				log.Debug("Session changed", "connected", s.Connected)
			case pc := <-pending:
				if pc.Status == tx.StatusSubmitted {
					c.u.Info("Waiting for %s tx %s to be mined...", pc.Operation, pc.Hash.Hex())
				}
			case <-sessionSub.Err():
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return func() {
		sessionSub.Unsubscribe()
		pendingSub.Unsubscribe()
		<-done
	}
}

func (c *console) run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.client.Start()
	stop := c.watch(ctx)
	defer stop()

	c.u.Info("Type `help` for the list of commands.")
	for {
		line, err := c.u.ReadLine(consolePrompt)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		args, err := cmdutil.SplitArgs(line)
		if err != nil {
			c.u.Error("%s", err)
			continue
		}
		if len(args) == 0 {
			continue
		}
		if quit := c.exec(ctx, args); quit {
			return nil
		}
	}
}

func (c *console) exec(ctx context.Context, args []string) bool {
	name, rest := strings.ToLower(args[0]), args[1:]
	switch name {
	case "exit", "quit":
		return true
	case "help":
		c.u.KeyValue(consoleHelp)
	case "connect":
		if s, err := c.client.Connect(ctx); err == nil {
			util.DisplaySession(c.u, s, c.namer)
		}
	case "disconnect":
		c.client.Disconnect()
	case "fetch":
		if !c.expectArgs(name, rest, 1) {
			break
		}
		patientID, err := dapp.ParsePatientID(rest[0])
		if err != nil {
			c.u.Error("%s", err)
			break
		}
		if records, err := c.client.FetchRecords(ctx, patientID); err == nil {
			util.DisplayRecords(c.u, patientID, records)
		}
	case "add":
		if !c.expectArgs(name, rest, 4) {
			break
		}
		patientID, err := dapp.ParsePatientID(rest[0])
		if err != nil {
			c.u.Error("%s", err)
			break
		}
		pc, err := c.client.AddRecord(ctx, patientID, rest[1], rest[2], rest[3])
		if pc != nil {
			util.DisplayPendingCall(c.u, *pc)
		}
		if err == nil {
			state := c.client.State()
			util.DisplayRecords(c.u, state.PatientID, state.Records)
		}
	case "authorize":
		if len(rest) == 0 {
			c.u.Error("usage: authorize <provider>")
			break
		}
		provider, err := c.resolver.Resolve(strings.Join(rest, " "))
		if err != nil {
			c.u.Error("%s", err)
			break
		}
		c.u.Info("Provider: %s (%s)", provider.Address.Hex(), provider.Name)
		if pc, _ := c.client.AuthorizeProvider(ctx, provider.Address.Hex()); pc != nil {
			util.DisplayPendingCall(c.u, *pc)
		}
	case "accounts":
		c.listAccounts()
	case "switch":
		if !c.expectArgs(name, rest, 1) {
			break
		}
		c.switchAccount(rest[0])
	case "revoke":
		if c.agent == nil {
			c.u.Error("No signing agent.")
			break
		}
		c.agent.Revoke()
		c.u.Info("Account access revoked.")
	case "providers":
		if c.book != nil {
			util.DisplayProviders(c.u, c.book.Providers())
		}
	case "state":
		util.DisplayState(c.u, c.client.State(), c.namer, c.now())
	default:
		c.u.Error("Unknown command %q, type `help` for the list of commands.", name)
	}
	return false
}

func (c *console) expectArgs(name string, args []string, n int) bool {
	if len(args) == n {
		return true
	}
	c.u.Error("%s takes %d argument(s), got %d. Type `help` for usage.", name, n, len(args))
	return false
}

func (c *console) listAccounts() {
	if c.agent == nil {
		c.u.Error("No signing agent.")
		return
	}
	var active *common.Address
	if s := c.client.State().Session; s.Connected {
		active = s.Address
	}
	rows := [][]string{}
	for i, addr := range c.agent.Addresses() {
		mark := ""
		if active != nil && *active == addr {
			mark = "*"
		}
		rows = append(rows, []string{fmt.Sprintf("%d", i+1), mark, addr.Hex(), c.namer.Name(addr)})
	}
	c.u.Table([]string{"#", "", "Address", "Name"}, rows)
}

func (c *console) switchAccount(input string) {
	if c.agent == nil {
		c.u.Error("No signing agent.")
		return
	}
	addresses := c.agent.Addresses()
	var target common.Address
	if idx, err := strconv.Atoi(input); err == nil && idx >= 1 && idx <= len(addresses) {
		target = addresses[idx-1]
	} else if common.IsHexAddress(input) {
		target = common.HexToAddress(input)
	} else {
		c.u.Error("%q is neither an account number nor an address.", input)
		return
	}
	if err := c.agent.SwitchAccount(target); err != nil {
		c.u.Error("%s", err)
		return
	}
	c.u.Info("Active account: %s", target.Hex())
}

var consoleCmd = &cobra.Command{
	Use:     "console",
	Short:   "Open an interactive session",
	Args:    cobra.NoArgs,
	PreRunE: sessionPreRun,
	PostRun: sessionPostRun,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cmdutil.AppContextFrom(cmd)
		if app == nil {
			return fmt.Errorf("no app context attached to %s", cmd.Name())
		}
		appUI.Info("Network: %s, contract: %s", app.Network.GetName(), app.Contract.Address.Hex())
		return newConsole(appUI, app).run(cmd.Context())
	},
}

func init() {
	AddCommonFlagsToTransactionalCmds(consoleCmd)
	rootCmd.AddCommand(consoleCmd)
}
