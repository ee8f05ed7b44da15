package util

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tranvictor/carebook/accounts"
	cbcommon "github.com/tranvictor/carebook/common"
	"github.com/tranvictor/carebook/dapp"
	"github.com/tranvictor/carebook/session"
	"github.com/tranvictor/carebook/tx"
	"github.com/tranvictor/carebook/ui"
	"github.com/tranvictor/carebook/util/addrbook"
)

const dateLayout = "2006-01-02 15:04:05"

// ── Build phase (pure: no UI side-effects) ──────────────────────────────────

func styledAddress(addr common.Address, namer addrbook.Namer) ui.StyledText {
	text := addr.Hex()
	if namer == nil {
		return ui.StyledText{Text: text}
	}
	name := namer.Name(addr)
	if name == addrbook.UnknownName {
		return ui.StyledText{Text: text, Severity: ui.SeverityWarn}
	}
	return ui.StyledText{Text: fmt.Sprintf("%s (%s)", text, name), Severity: ui.SeveritySuccess}
}

func styledStatus(s tx.Status) ui.StyledText {
	switch s {
	case tx.StatusConfirmed:
		return ui.StyledText{Text: string(s), Severity: ui.SeveritySuccess}
	case tx.StatusReverted:
		return ui.StyledText{Text: string(s), Severity: ui.SeverityError}
	case tx.StatusErrored:
		return ui.StyledText{Text: string(s), Severity: ui.SeverityCritical}
	default:
		return ui.StyledText{Text: string(s), Severity: ui.SeverityWarn}
	}
}

func buildSessionDisplay(s session.Session, namer addrbook.Namer) SessionDisplay {
	if !s.Connected || s.Address == nil {
		return SessionDisplay{
			Status: ui.StyledText{Text: "disconnected", Severity: ui.SeverityWarn},
		}
	}
	d := SessionDisplay{
		Status:  ui.StyledText{Text: "connected", Severity: ui.SeveritySuccess},
		Address: styledAddress(*s.Address, namer),
		Role:    ui.Plain("provider"),
	}
	if s.Owner() {
		d.Role = ui.StyledText{Text: "owner", Severity: ui.SeverityCritical}
	}
	return d
}

func buildRecordDisplay(r cbcommon.Record) RecordDisplay {
	return RecordDisplay{
		ID:        fmt.Sprintf("%d", r.RecordID),
		Date:      r.Time().UTC().Format(dateLayout),
		Patient:   r.PatientName,
		Diagnosis: r.Diagnosis,
		Treatment: r.Treatment,
	}
}

func buildRecordsDisplay(patientID int64, loaded bool, records []cbcommon.Record) RecordsDisplay {
	d := RecordsDisplay{PatientID: patientID, Loaded: loaded, Records: []RecordDisplay{}}
	for _, r := range records {
		d.Records = append(d.Records, buildRecordDisplay(r))
	}
	return d
}

func buildPendingDisplay(pc tx.PendingCall, now time.Time) PendingDisplay {
	d := PendingDisplay{
		ID:        pc.ID.String()[:8],
		Operation: string(pc.Operation),
		Hash:      pc.Hash.Hex(),
		Status:    styledStatus(pc.Status),
		Age:       now.Sub(pc.SubmittedAt).Truncate(time.Second).String(),
	}
	if pc.PatientID >= 0 {
		d.Patient = fmt.Sprintf("%d", pc.PatientID)
	}
	return d
}

// ── Print phase (reads only from the display struct, colours via u.Style) ────

func printSession(u ui.UI, d SessionDisplay) {
	rows := [][2]string{{"Wallet", u.Style(d.Status)}}
	if d.Address.Text != "" {
		rows = append(rows,
			[2]string{"Account", u.Style(d.Address)},
			[2]string{"Role", u.Style(d.Role)},
		)
	}
	u.KeyValue(rows)
}

func printRecords(u ui.UI, d RecordsDisplay) {
	if !d.Loaded {
		u.Info("No records loaded.")
		return
	}
	u.Section(fmt.Sprintf("Patient %d", d.PatientID))
	if len(d.Records) == 0 {
		u.Info("No records for patient %d.", d.PatientID)
		return
	}
	rows := make([][]string, 0, len(d.Records))
	for _, r := range d.Records {
		rows = append(rows, []string{r.ID, r.Date, r.Patient, r.Diagnosis, r.Treatment})
	}
	u.Table([]string{"ID", "Date (UTC)", "Patient", "Diagnosis", "Treatment"}, rows)
}

func printPending(u ui.UI, ds []PendingDisplay) {
	if len(ds) == 0 {
		u.Info("No pending transactions.")
		return
	}
	rows := make([][]string, 0, len(ds))
	for _, d := range ds {
		rows = append(rows, []string{d.ID, d.Operation, d.Patient, d.Hash, u.Style(d.Status), d.Age})
	}
	u.Table([]string{"ID", "Operation", "Patient", "Tx", "Status", "Age"}, rows)
}

// ── Public API ──────────────────────────────────────────────────────────────

func DisplaySession(u ui.UI, s session.Session, namer addrbook.Namer) {
	printSession(u, buildSessionDisplay(s, namer))
}

func DisplayRecords(u ui.UI, patientID int64, records []cbcommon.Record) {
	printRecords(u, buildRecordsDisplay(patientID, true, records))
}

// DisplayPendingCall shows how a state-changing call ended.
func DisplayPendingCall(u ui.UI, pc tx.PendingCall) {
	d := buildPendingDisplay(pc, pc.SubmittedAt)
	rows := [][2]string{
		{"Operation", d.Operation},
		{"Tx", d.Hash},
		{"Status", u.Style(d.Status)},
	}
	if d.Patient != "" {
		rows = append(rows, [2]string{"Patient", d.Patient})
	}
	u.KeyValue(rows)
}

// DisplayState shows everything the client holds: the session, the last
// fetched records and the calls still waiting for finality.
func DisplayState(u ui.UI, state dapp.State, namer addrbook.Namer, now time.Time) {
	u.Section("Session")
	printSession(u, buildSessionDisplay(state.Session, namer))
	printRecords(u, buildRecordsDisplay(state.PatientID, state.Loaded, state.Records))
	u.Section("Pending")
	pending := make([]PendingDisplay, 0, len(state.Pending))
	for _, pc := range state.Pending {
		pending = append(pending, buildPendingDisplay(pc, now))
	}
	printPending(u, pending)
}

func DisplayProviders(u ui.UI, providers []addrbook.Provider) {
	if len(providers) == 0 {
		u.Info("The provider directory is empty.")
		return
	}
	rows := make([][]string, 0, len(providers))
	for _, p := range providers {
		d := ProviderDisplay{Name: p.Name, Address: p.Address.Hex()}
		rows = append(rows, []string{d.Name, d.Address})
	}
	u.Table([]string{"Provider", "Address"}, rows)
}

// DisplayAccounts lists the account book, marking active.
func DisplayAccounts(u ui.UI, accs []accounts.AccDesc, active *common.Address) {
	if len(accs) == 0 {
		u.Info("No account yet. Add one with `carebook wallet add`.")
		return
	}
	rows := make([][]string, 0, len(accs))
	for i, acc := range accs {
		d := AccountDisplay{
			Address: acc.Address,
			Kind:    acc.Kind,
			Desc:    acc.Desc,
			Active:  active != nil && strings.EqualFold(active.Hex(), acc.Address),
		}
		mark := ""
		if d.Active {
			mark = u.Style(ui.StyledText{Text: "*", Severity: ui.SeveritySuccess})
		}
		rows = append(rows, []string{fmt.Sprintf("%d", i+1), mark, d.Address, d.Kind, d.Desc})
	}
	u.Table([]string{"#", "", "Address", "Kind", "Description"}, rows)
}
