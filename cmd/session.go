package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	cmdutil "github.com/tranvictor/carebook/cmd/util"
	"github.com/tranvictor/carebook/dapp"
	"github.com/tranvictor/carebook/util"
)

// reportedError marks an error the client already showed to the user.
type reportedError struct {
	error
}

func (e reportedError) Unwrap() error {
	return e.error
}

func reported(err error) error {
	if err == nil {
		return nil
	}
	return reportedError{err}
}

// sessionPreRun builds the AppContext of commands that talk to the
// contract.
func sessionPreRun(cmd *cobra.Command, args []string) error {
	app, err := cmdutil.NewAppContext(appUI)
	if err != nil {
		return err
	}
	cmd.SetContext(cmdutil.WithAppContext(cmd.Context(), app))
	return nil
}

func sessionPostRun(cmd *cobra.Command, args []string) {
	if app := cmdutil.AppContextFrom(cmd); app != nil {
		app.Close()
	}
}

// connectApp connects the session of cmd, reporting failures on the UI.
func connectApp(cmd *cobra.Command) (*cmdutil.AppContext, error) {
	app := cmdutil.AppContextFrom(cmd)
	if app == nil {
		return nil, fmt.Errorf("no app context attached to %s", cmd.Name())
	}
	appUI.Info("Network: %s, contract: %s", app.Network.GetName(), app.Contract.Address.Hex())
	if _, err := app.Client.Connect(cmd.Context()); err != nil {
		return nil, reported(err)
	}
	return app, nil
}

var recordsCmd = &cobra.Command{
	Use:     "records <patient id>",
	Short:   "Show every record of a patient",
	Args:    cobra.ExactArgs(1),
	PreRunE: sessionPreRun,
	PostRun: sessionPostRun,
	RunE: func(cmd *cobra.Command, args []string) error {
		patientID, err := dapp.ParsePatientID(args[0])
		if err != nil {
			return err
		}
		app, err := connectApp(cmd)
		if err != nil {
			return err
		}
		stop := appUI.Spinner("Fetching records...")
		records, err := app.Client.FetchRecords(cmd.Context(), patientID)
		stop()
		if err != nil {
			return reported(err)
		}
		util.DisplayRecords(appUI, patientID, records)
		return nil
	},
}

var addCmd = &cobra.Command{
	Use:   "add <patient id> <patient name> <diagnosis> <treatment>",
	Short: "Add a record to a patient and wait for it to be mined",
	Long: `Add a record to a patient. The tx uses the fixed gas limit (--gas).
Once it is mined the patient's records are fetched again and shown.
Quote arguments containing spaces.`,
	Args:    cobra.ExactArgs(4),
	PreRunE: sessionPreRun,
	PostRun: sessionPostRun,
	RunE: func(cmd *cobra.Command, args []string) error {
		patientID, err := dapp.ParsePatientID(args[0])
		if err != nil {
			return err
		}
		app, err := connectApp(cmd)
		if err != nil {
			return err
		}
		stop := appUI.Spinner("Waiting for the tx to be mined...")
		pc, err := app.Client.AddRecord(cmd.Context(), patientID, args[1], args[2], args[3])
		stop()
		if pc != nil {
			util.DisplayPendingCall(appUI, *pc)
		}
		if err != nil {
			return reported(err)
		}
		state := app.Client.State()
		util.DisplayRecords(appUI, state.PatientID, state.Records)
		return nil
	},
}

var authorizeCmd = &cobra.Command{
	Use:   "authorize <provider>",
	Short: "Allow a provider to add records",
	Long: `Allow a provider to add records. The provider is an address or a name
from the provider directory (see "carebook provider list"). Only the
contract owner can authorize, other accounts get the contract's revert.`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: sessionPreRun,
	PostRun: sessionPostRun,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := connectApp(cmd)
		if err != nil {
			return err
		}
		provider, err := app.Book.Resolve(strings.Join(args, " "))
		if err != nil {
			return err
		}
		appUI.Info("Provider: %s (%s)", provider.Address.Hex(), provider.Name)
		stop := appUI.Spinner("Waiting for the tx to be mined...")
		pc, err := app.Client.AuthorizeProvider(cmd.Context(), provider.Address.Hex())
		stop()
		if pc != nil {
			util.DisplayPendingCall(appUI, *pc)
		}
		return reported(err)
	},
}

var ownerCmd = &cobra.Command{
	Use:     "owner",
	Short:   "Connect and show whether the active account owns the contract",
	Args:    cobra.NoArgs,
	PreRunE: sessionPreRun,
	PostRun: sessionPostRun,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := connectApp(cmd)
		if err != nil {
			return err
		}
		owner, err := app.Contract.GetOwner(cmd.Context())
		if err != nil {
			return err
		}
		util.DisplaySession(appUI, app.Client.State().Session, app.Book)
		appUI.Info("Contract owner: %s", owner.Hex())
		return nil
	},
}

func init() {
	AddCommonFlagsToSessionCmds(recordsCmd)
	AddCommonFlagsToSessionCmds(ownerCmd)
	AddCommonFlagsToTransactionalCmds(addCmd)
	AddCommonFlagsToTransactionalCmds(authorizeCmd)

	rootCmd.AddCommand(recordsCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(authorizeCmd)
	rootCmd.AddCommand(ownerCmd)
}
