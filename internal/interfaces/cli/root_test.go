package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(bytes.NewReader(nil))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	cmd := NewRootCommand()

	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"analyze", "match", "import"} {
		assert.Truef(t, names[want], "subcommand %q not registered", want)
	}
}

func TestRootCommandGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	output := cmd.PersistentFlags().Lookup("output")
	require.NotNil(t, output)
	assert.Equal(t, "text", output.DefValue)
	assert.NotNil(t, cmd.PersistentFlags().Lookup("verbose"))
}

func TestRootCommandUnknownSubcommand(t *testing.T) {
	_, err := runCommand(t, "nonsense")
	assert.Error(t, err)
}
