package main_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/alecthomas/kong"
	main "github.com/fwojciec/novelsrc/cmd/novelsrc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var expectedCommands = []string{"resolve", "info", "episode", "download", "sites"}

func TestCLI_HelpShowsAllCommands(t *testing.T) {
	t.Parallel()

	cli := &main.CLI{}
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	// Use kong.Exit to prevent os.Exit from being called during tests
	parser, err := kong.New(cli,
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
	)
	require.NoError(t, err)

	_, _ = parser.Parse([]string{"--help"})

	helpOutput := stdout.String()
	for _, cmd := range expectedCommands {
		assert.Contains(t, helpOutput, cmd, "Help should mention %s command", cmd)
	}
	assert.Contains(t, helpOutput, "--proxy")
	assert.Contains(t, helpOutput, "--cache")
}

func TestCLI_Defaults(t *testing.T) {
	t.Parallel()

	cli := &main.CLI{}
	parser, err := kong.New(cli, kong.Exit(func(int) {}))
	require.NoError(t, err)

	_, err = parser.Parse([]string{"sites"})
	require.NoError(t, err)

	assert.Equal(t, []string{"syosetu"}, cli.ProxySites)
	assert.Equal(t, "30s", cli.Timeout.String())
	assert.InDelta(t, 2.0, cli.RPS, 0)
}

func TestMain_Run_HelpShowsKongOutput(t *testing.T) {
	t.Parallel()

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	err := main.NewMain().Run(context.Background(), []string{"--help"}, stdout, stderr)
	require.NoError(t, err)

	for _, cmd := range expectedCommands {
		assert.Contains(t, stdout.String(), cmd, "Help should mention %s command", cmd)
	}
}

func TestMain_Run_NoArgsShowsHelpAndFails(t *testing.T) {
	t.Parallel()

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	err := main.NewMain().Run(context.Background(), nil, stdout, stderr)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no command specified")
	assert.Contains(t, stdout.String(), "resolve")
}
