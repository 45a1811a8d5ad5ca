package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "zraster", cmd.Use)
	assert.Contains(t, cmd.Long, "zarr")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"create", "info", "ls", "combine", "filter", "pyramid", "lowpass", "noise", "draw"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "zraster.yaml", configFlag.DefValue)
}

func TestFilterCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	filterCmd, _, err := cmd.Find([]string{"filter"})
	require.NoError(t, err)

	windowFlag := filterCmd.Flags().Lookup("window")
	require.NotNil(t, windowFlag)
	assert.Equal(t, "3", windowFlag.DefValue)
}

// testConfig writes a config file using a local store in a temp dir and
// returns its path
func testConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	doc := "store:\n  type: local\n  path: " + filepath.Join(dir, "rasters.zarr") + "\n  group: landsat\narray:\n  chunkSize: 8\n  compressor: gzip\nlog:\n  level: warn\n"
	path := filepath.Join(dir, "zraster.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// executeJSON runs a command with JSON output and decodes its data payload
// into v
func executeJSON(t *testing.T, v interface{}, args ...string) {
	t.Helper()
	out, err := execute(t, append(args, "--format", "json")...)
	require.NoError(t, err)

	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	assert.Equal(t, "ok", resp.Status)
	require.NoError(t, json.Unmarshal(resp.Data, v))
}

func TestInvalidFormat(t *testing.T) {
	_, err := execute(t, "ls", "--config", testConfig(t), "--format", "yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zraster.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  type: tape\n"), 0644))
	_, err := execute(t, "ls", "--config", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
