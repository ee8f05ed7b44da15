// Package ui is the terminal collaborator of carebook: every line the user
// sees and every answer they type goes through a UI.
package ui

import (
	"encoding/json"
	"io"
)

// Severity is the visual weight of a piece of inline text.
type Severity uint8

const (
	SeverityInfo     Severity = iota // plain
	SeveritySuccess                  // green
	SeverityWarn                     // yellow
	SeverityError                    // red
	SeverityCritical                 // bold
)

// StyledText pairs a plain string with a Severity. It marshals to JSON as
// the plain string.
type StyledText struct {
	Text     string
	Severity Severity
}

func (s StyledText) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Text)
}

func Plain(text string) StyledText {
	return StyledText{Text: text}
}

// UI is implemented by TerminalUI for real runs and RecordingUI for tests.
// Implementations are safe for use by several goroutines: session changes
// are reported from the accounts listener while the console reads input.
type UI interface {
	// Style returns t coloured by its severity, or the plain text when
	// colours are off.
	Style(t StyledText) string

	Info(format string, args ...any)
	Success(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
	// Critical is for what the user must review before or right after an
	// irreversible action, such as a tx to sign or a broadcasted tx hash.
	Critical(format string, args ...any)

	// Section writes a separator centred around title.
	Section(title string)
	// KeyValue renders label/value rows with aligned values.
	KeyValue(rows [][2]string)
	// Table renders a bordered table. A nil header renders no header row.
	Table(headers []string, rows [][]string)

	// Spinner shows msg until the returned stop function is called.
	Spinner(msg string) func()

	// Ask reads a line after a "> " prompt until validate accepts it. A nil
	// validate accepts anything.
	Ask(validate func(string) error) string
	// AskSecret reads a line without echoing it.
	AskSecret(prompt string) (string, error)
	// ReadLine shows prompt and reads one line. It returns io.EOF once the
	// input is exhausted.
	ReadLine(prompt string) (string, error)
	Confirm(prompt string, defaultYes bool) bool
	// Choose returns the 0-based index of the option the user picked.
	Choose(prompt string, options []string) int

	// Indent returns a child UI one level deeper sharing output and input.
	Indent() UI
	// Writer prefixes every written line with the current indentation.
	Writer() io.Writer
}
