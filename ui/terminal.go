package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/logrusorgru/aurora"
	runewidth "github.com/mattn/go-runewidth"
	indent "github.com/openconfig/goyang/pkg/indent"
	"golang.org/x/term"
)

const (
	indentUnit   = "  "
	sectionWidth = 56
	promptPrefix = "> "
)

type terminalIO struct {
	mu  sync.Mutex
	out io.Writer
	in  *bufio.Reader
	fd  int
	tty bool
}

// TerminalUI writes to stdout and reads from stdin. Colours, the spinner
// and hidden secret input are only used on a real terminal.
type TerminalUI struct {
	io          *terminalIO
	indentLevel int
	au          aurora.Aurora
}

func NewTerminalUI() *TerminalUI {
	tty := term.IsTerminal(int(os.Stdout.Fd()))
	return &TerminalUI{
		io: &terminalIO{
			out: os.Stdout,
			in:  bufio.NewReader(os.Stdin),
			fd:  int(os.Stdin.Fd()),
			tty: tty && term.IsTerminal(int(os.Stdin.Fd())),
		},
		au: aurora.NewAurora(tty),
	}
}

// NewTerminalUIWithIO builds an uncoloured TerminalUI over arbitrary
// streams, as used when stdin is piped.
func NewTerminalUIWithIO(out io.Writer, in io.Reader) *TerminalUI {
	return &TerminalUI{
		io: &terminalIO{
			out: out,
			in:  bufio.NewReader(in),
			fd:  -1,
		},
		au: aurora.NewAurora(false),
	}
}

func (u *TerminalUI) prefix() string {
	return strings.Repeat(indentUnit, u.indentLevel)
}

func (u *TerminalUI) write(format string, args ...any) {
	u.io.mu.Lock()
	defer u.io.mu.Unlock()
	fmt.Fprintf(u.io.out, format, args...)
}

func (u *TerminalUI) writeLine(line string) {
	u.write("%s%s\n", u.prefix(), line)
}

func (u *TerminalUI) Style(t StyledText) string {
	switch t.Severity {
	case SeveritySuccess:
		return u.au.Green(t.Text).String()
	case SeverityWarn:
		return u.au.Yellow(t.Text).String()
	case SeverityError:
		return u.au.Red(t.Text).String()
	case SeverityCritical:
		return u.au.Bold(t.Text).String()
	default:
		return t.Text
	}
}

func (u *TerminalUI) Info(format string, args ...any) {
	u.writeLine(fmt.Sprintf(format, args...))
}

func (u *TerminalUI) Success(format string, args ...any) {
	u.writeLine(u.au.Green(fmt.Sprintf(format, args...)).String())
}

func (u *TerminalUI) Warn(format string, args ...any) {
	u.writeLine(u.au.Yellow(fmt.Sprintf(format, args...)).String())
}

func (u *TerminalUI) Error(format string, args ...any) {
	u.writeLine(u.au.Red(fmt.Sprintf(format, args...)).String())
}

func (u *TerminalUI) Critical(format string, args ...any) {
	u.writeLine(u.au.Bold(fmt.Sprintf(format, args...)).String())
}

// Section draws a blank line, then
//
//	======== Patient 42 ========
func (u *TerminalUI) Section(title string) {
	titled := " " + title + " "
	bars := sectionWidth - runewidth.StringWidth(titled)
	if bars < 6 {
		bars = 6
	}
	left := bars / 2
	line := strings.Repeat("=", left) + titled + strings.Repeat("=", bars-left)
	u.write("\n%s%s\n\n", u.prefix(), line)
}

func (u *TerminalUI) readLine() (string, error) {
	text, err := u.io.in.ReadString('\n')
	if err != nil && text == "" {
		return "", err
	}
	return strings.TrimRight(text, "\r\n"), nil
}

func (u *TerminalUI) Ask(validate func(string) error) string {
	for {
		u.write("%s%s", u.prefix(), promptPrefix)
		input, err := u.readLine()
		if err != nil {
			return ""
		}
		if validate == nil {
			return input
		}
		verr := validate(input)
		if verr == nil {
			return input
		}
		u.writeLine(u.au.Red(verr.Error()).String())
	}
}

func (u *TerminalUI) AskSecret(prompt string) (string, error) {
	u.write("%s%s: ", u.prefix(), prompt)
	if !u.io.tty {
		return u.readLine()
	}
	secret, err := term.ReadPassword(u.io.fd)
	u.write("\n")
	if err != nil {
		return "", err
	}
	return string(secret), nil
}

func (u *TerminalUI) ReadLine(prompt string) (string, error) {
	u.write("%s%s", u.prefix(), prompt)
	return u.readLine()
}

func (u *TerminalUI) Confirm(prompt string, defaultYes bool) bool {
	options := "[Y/n]"
	if !defaultYes {
		options = "[y/N]"
	}
	u.Info("%s %s", prompt, options)
	input := strings.ToLower(strings.TrimSpace(u.Ask(func(s string) error {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "", "y", "yes", "n", "no":
			return nil
		}
		return fmt.Errorf("please enter y or n")
	})))
	if input == "" {
		return defaultYes
	}
	return input == "y" || input == "yes"
}

func (u *TerminalUI) Choose(prompt string, options []string) int {
	for i, opt := range options {
		u.Info("%d. %s", i+1, opt)
	}
	u.Info("%s [1-%d]", prompt, len(options))
	input := u.Ask(func(s string) error {
		idx, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil || idx < 1 || idx > len(options) {
			return fmt.Errorf("please enter a number between 1 and %d", len(options))
		}
		return nil
	})
	idx, _ := strconv.Atoi(strings.TrimSpace(input))
	return idx - 1
}

func (u *TerminalUI) KeyValue(rows [][2]string) {
	if len(rows) == 0 {
		return
	}
	maxLabel := 0
	for _, r := range rows {
		if w := runewidth.StringWidth(r[0]); w > maxLabel {
			maxLabel = w
		}
	}
	for _, r := range rows {
		label := runewidth.FillRight(r[0], maxLabel)
		u.writeLine(fmt.Sprintf("%s  %s", label, r[1]))
	}
}

func cellWidth(s string) int {
	return runewidth.StringWidth(ansi.Strip(s))
}

func padCell(s string, w int) string {
	if visible := cellWidth(s); visible < w {
		return s + strings.Repeat(" ", w-visible)
	}
	return s
}

// Table sizes columns on the visible width of the cells, so values coloured
// with Style line up too.
func (u *TerminalUI) Table(headers []string, rows [][]string) {
	ncols := len(headers)
	for _, r := range rows {
		if len(r) > ncols {
			ncols = len(r)
		}
	}
	if ncols == 0 {
		return
	}
	widths := make([]int, ncols)
	for i, h := range headers {
		widths[i] = cellWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := cellWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	borderStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	border := func(s string) string { return borderStyle.Render(s) }
	rule := func(left, mid, right string) string {
		parts := make([]string, ncols)
		for i, w := range widths {
			parts[i] = strings.Repeat("─", w+2)
		}
		return border(left + strings.Join(parts, mid) + right)
	}
	renderRow := func(cells []string) string {
		parts := make([]string, ncols)
		for i := range parts {
			val := ""
			if i < len(cells) {
				val = cells[i]
			}
			parts[i] = " " + padCell(val, widths[i]) + " "
		}
		return border("│") + strings.Join(parts, border("│")) + border("│")
	}

	lines := []string{rule("┌", "┬", "┐")}
	if len(headers) > 0 {
		lines = append(lines, renderRow(headers), rule("├", "┼", "┤"))
	}
	for _, row := range rows {
		lines = append(lines, renderRow(row))
	}
	lines = append(lines, rule("└", "┴", "┘"))

	p := u.prefix()
	u.io.mu.Lock()
	defer u.io.mu.Unlock()
	for _, l := range lines {
		fmt.Fprintf(u.io.out, "%s%s\n", p, l)
	}
}

func (u *TerminalUI) Spinner(msg string) func() {
	if !u.io.tty {
		u.writeLine(msg)
		return func() {}
	}
	s := spinner.New(spinner.CharSets[14], 80*time.Millisecond, spinner.WithWriter(u.io.out))
	s.Suffix = " " + msg
	s.Start()
	return func() {
		s.Stop()
		u.write("\n")
	}
}

func (u *TerminalUI) Indent() UI {
	return &TerminalUI{
		io:          u.io,
		indentLevel: u.indentLevel + 1,
		au:          u.au,
	}
}

func (u *TerminalUI) Writer() io.Writer {
	if u.indentLevel == 0 {
		return u.io.out
	}
	return indent.NewWriter(u.io.out, u.prefix())
}
