package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executeCommand runs a command with the given args and captures output.
func executeCommand(args ...string) (string, error) {
	root := NewRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestRootHelp(t *testing.T) {
	out, err := executeCommand("--help")
	require.NoError(t, err)
	assert.Contains(t, out, "gatectl")
}

func TestGlobalFlags(t *testing.T) {
	root := NewRootCmd()

	formatFlag := root.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag, "expected --format flag to exist")
	assert.Equal(t, "text", formatFlag.DefValue)

	require.NotNil(t, root.PersistentFlags().Lookup("database-url"), "expected --database-url flag to exist")
}

func TestCommandTree(t *testing.T) {
	root := NewRootCmd()

	for _, path := range [][]string{
		{"migrate", "up"},
		{"migrate", "down"},
		{"migrate", "status"},
		{"gates", "list"},
		{"gates", "add"},
		{"gates", "remove"},
		{"visits", "list"},
		{"visits", "overstay"},
	} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestRejectsUnknownFormat(t *testing.T) {
	_, err := executeCommand("--format", "xml", "gates", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --format")
}
