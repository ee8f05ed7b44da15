package ui

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
)

// Entry is one recorded UI call.
type Entry struct {
	Method string
	Value  string
}

type recorderState struct {
	mu      sync.Mutex
	entries []Entry
	inputs  []string
	nextIdx int
	buf     bytes.Buffer
}

// RecordingUI implements UI for tests. Output is kept as a list of entries
// and input is served from scripted answers. Running out of answers panics
// in Ask, Confirm and Choose, and gives io.EOF in ReadLine and AskSecret.
// Children made by Indent share the entries and the answers.
type RecordingUI struct {
	state       *recorderState
	indentLevel int
}

func NewRecordingUI(scriptedInputs ...string) *RecordingUI {
	return &RecordingUI{
		state: &recorderState{inputs: scriptedInputs},
	}
}

func (r *RecordingUI) record(method, value string) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	r.state.entries = append(r.state.entries, Entry{Method: method, Value: value})
}

func (r *RecordingUI) next() (string, bool) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	if r.state.nextIdx >= len(r.state.inputs) {
		return "", false
	}
	input := r.state.inputs[r.state.nextIdx]
	r.state.nextIdx++
	return input, true
}

func (r *RecordingUI) mustNext(caller string) string {
	input, ok := r.next()
	if !ok {
		panic(fmt.Sprintf("RecordingUI: no scripted input left for %s", caller))
	}
	return input
}

// Style ignores the severity.
func (r *RecordingUI) Style(t StyledText) string {
	return t.Text
}

func (r *RecordingUI) Info(format string, args ...any) {
	r.record("Info", fmt.Sprintf(format, args...))
}

func (r *RecordingUI) Success(format string, args ...any) {
	r.record("Success", fmt.Sprintf(format, args...))
}

func (r *RecordingUI) Warn(format string, args ...any) {
	r.record("Warn", fmt.Sprintf(format, args...))
}

func (r *RecordingUI) Error(format string, args ...any) {
	r.record("Error", fmt.Sprintf(format, args...))
}

func (r *RecordingUI) Critical(format string, args ...any) {
	r.record("Critical", fmt.Sprintf(format, args...))
}

func (r *RecordingUI) Section(title string) {
	r.record("Section", title)
}

// KeyValue records one "label: value" entry per row.
func (r *RecordingUI) KeyValue(rows [][2]string) {
	for _, row := range rows {
		r.record("KeyValue", row[0]+": "+row[1])
	}
}

// Table records the header and every row as " | " joined entries.
func (r *RecordingUI) Table(headers []string, rows [][]string) {
	if len(headers) > 0 {
		r.record("TableHeader", strings.Join(headers, " | "))
	}
	for _, row := range rows {
		r.record("TableRow", strings.Join(row, " | "))
	}
}

func (r *RecordingUI) Spinner(msg string) func() {
	r.record("Spinner", msg)
	return func() {}
}

// Ask panics when the scripted input fails validate: the script is wrong.
func (r *RecordingUI) Ask(validate func(string) error) string {
	input := r.mustNext("Ask")
	r.record("Ask", input)
	if validate != nil {
		if err := validate(input); err != nil {
			panic(fmt.Sprintf("RecordingUI: scripted input %q failed validation: %s", input, err))
		}
	}
	return input
}

func (r *RecordingUI) AskSecret(prompt string) (string, error) {
	r.record("AskSecret", prompt)
	input, ok := r.next()
	if !ok {
		return "", io.EOF
	}
	return input, nil
}

func (r *RecordingUI) ReadLine(prompt string) (string, error) {
	input, ok := r.next()
	if !ok {
		return "", io.EOF
	}
	r.record("ReadLine", input)
	return input, nil
}

// Confirm takes "y"/"yes" as true, "n"/"no" as false and "" as the
// default.
func (r *RecordingUI) Confirm(prompt string, defaultYes bool) bool {
	r.record("Confirm", prompt)
	input := strings.ToLower(strings.TrimSpace(r.mustNext("Confirm")))
	if input == "" {
		return defaultYes
	}
	return input == "y" || input == "yes"
}

// Choose accepts a 1-based index or the option text.
func (r *RecordingUI) Choose(prompt string, options []string) int {
	r.record("Choose", prompt)
	input := r.mustNext("Choose")
	if idx, err := strconv.Atoi(strings.TrimSpace(input)); err == nil && idx >= 1 && idx <= len(options) {
		return idx - 1
	}
	for i, opt := range options {
		if strings.EqualFold(input, opt) {
			return i
		}
	}
	panic(fmt.Sprintf("RecordingUI: scripted input %q matches no option of %q", input, prompt))
}

func (r *RecordingUI) Indent() UI {
	return &RecordingUI{
		state:       r.state,
		indentLevel: r.indentLevel + 1,
	}
}

type lockedWriter struct {
	state *recorderState
}

func (w lockedWriter) Write(p []byte) (int, error) {
	w.state.mu.Lock()
	defer w.state.mu.Unlock()
	return w.state.buf.Write(p)
}

// Writer ignores indentation.
func (r *RecordingUI) Writer() io.Writer {
	return lockedWriter{state: r.state}
}

// Entries returns a copy of the recorded calls in order.
func (r *RecordingUI) Entries() []Entry {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	result := make([]Entry, len(r.state.entries))
	copy(result, r.state.entries)
	return result
}

func (r *RecordingUI) Messages(method string) []string {
	var out []string
	for _, e := range r.Entries() {
		if e.Method == method {
			out = append(out, e.Value)
		}
	}
	return out
}

func (r *RecordingUI) InfoMessages() []string {
	return r.Messages("Info")
}

func (r *RecordingUI) SuccessMessages() []string {
	return r.Messages("Success")
}

func (r *RecordingUI) ErrorMessages() []string {
	return r.Messages("Error")
}

func (r *RecordingUI) CriticalMessages() []string {
	return r.Messages("Critical")
}

// HasMessage reports whether any entry contains substr, ignoring case.
func (r *RecordingUI) HasMessage(substr string) bool {
	lower := strings.ToLower(substr)
	for _, e := range r.Entries() {
		if strings.Contains(strings.ToLower(e.Value), lower) {
			return true
		}
	}
	return false
}

// Output returns everything written through Writer.
func (r *RecordingUI) Output() string {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	return r.state.buf.String()
}
