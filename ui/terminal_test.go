package ui

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPipedUI(input string) (*TerminalUI, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return NewTerminalUIWithIO(out, strings.NewReader(input)), out
}

func TestTerminalTableAlignsStyledCells(t *testing.T) {
	u, out := newPipedUI("")
	u.Table(
		[]string{"ID", "Status"},
		[][]string{
			{"1", u.Style(StyledText{Text: "confirmed", Severity: SeveritySuccess})},
			{"12", "submitted"},
		},
	)
	lines := strings.Split(strings.TrimRight(ansi.Strip(out.String()), "\n"), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "│ ID │ Status    │", lines[1])
	assert.Equal(t, "│ 1  │ confirmed │", lines[3])
	assert.Equal(t, "│ 12 │ submitted │", lines[4])
}

func TestTerminalKeyValueAndIndent(t *testing.T) {
	u, out := newPipedUI("")
	u.Indent().KeyValue([][2]string{{"Wallet", "connected"}, {"Role", "owner"}})
	assert.Equal(t, "  Wallet  connected\n  Role    owner\n", out.String())
}

func TestTerminalReadLine(t *testing.T) {
	u, out := newPipedUI("fetch 7\r\nexit")
	line, err := u.ReadLine("carebook> ")
	require.NoError(t, err)
	assert.Equal(t, "fetch 7", line)
	line, err = u.ReadLine("carebook> ")
	require.NoError(t, err)
	assert.Equal(t, "exit", line)
	_, err = u.ReadLine("carebook> ")
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "carebook> carebook> carebook> ", out.String())
}

func TestTerminalConfirmRetriesInvalidAnswers(t *testing.T) {
	u, out := newPipedUI("maybe\nyes\n\n")
	assert.True(t, u.Confirm("Sign?", false))
	assert.Contains(t, out.String(), "please enter y or n")
	assert.False(t, u.Confirm("Sign?", false))
}

func TestTerminalChoose(t *testing.T) {
	u, _ := newPipedUI("0\n2\n")
	assert.Equal(t, 1, u.Choose("Pick one", []string{"keystore", "private key"}))
}

func TestTerminalAskSecretWhenPiped(t *testing.T) {
	u, _ := newPipedUI("hunter2\n")
	secret, err := u.AskSecret("Passphrase")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", secret)
}

func TestIndentedWriter(t *testing.T) {
	u, out := newPipedUI("")
	_, err := io.WriteString(u.Indent().Writer(), "a\nb\n")
	require.NoError(t, err)
	assert.Equal(t, "  a\n  b\n", out.String())
}

func TestStyledTextMarshalsPlain(t *testing.T) {
	content, err := StyledText{Text: "owner", Severity: SeverityCritical}.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"owner"`, string(content))
}
