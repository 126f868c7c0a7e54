package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOfflineRootCmd(t *testing.T) *cobra.Command {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	return newRootCmd()
}

func TestValidateCmd_Valid(t *testing.T) {
	configDir := t.TempDir()
	writeDeclaredTemplate(t, configDir)

	rootCmd := newOfflineRootCmd(t)
	rootCmd.SetArgs([]string{"validate", "--config-dir", configDir})

	restore := captureStdout(t)
	err := rootCmd.Execute()
	out := restore()

	require.NoError(t, err)
	assert.Contains(t, out, "Configuration is valid.")
}

func TestValidateCmd_ValidJSON(t *testing.T) {
	configDir := t.TempDir()
	writeDeclaredTemplate(t, configDir)

	rootCmd := newOfflineRootCmd(t)
	rootCmd.SetArgs([]string{"validate", "--config-dir", configDir, "-o", "json"})

	restore := captureStdout(t)
	err := rootCmd.Execute()
	out := restore()

	require.NoError(t, err)
	assert.JSONEq(t, `{"valid":true}`, out)
}

func TestValidateCmd_ExternalLookup(t *testing.T) {
	configDir := t.TempDir()
	doc := `apiVersion: synthgen/v1
kind: Template
metadata:
  name: channel_events
spec:
  data_type: channel_events
  rules:
    - field: channel
      method: lookup_table
      params:
        lookup_table: channels
`
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "channel_events.yaml"), []byte(doc), 0o644))

	// The channels table is not declared locally; registering it as an
	// external lookup stands in for a table that lives on the server.
	rootCmd := newOfflineRootCmd(t)
	rootCmd.SetArgs([]string{"validate", "--config-dir", configDir, "--external-lookup", "channels"})

	restore := captureStdout(t)
	err := rootCmd.Execute()
	out := restore()

	require.NoError(t, err)
	assert.Contains(t, out, "Configuration is valid.")
}

func TestValidateCmd_UnknownFieldStrictness(t *testing.T) {
	configDir := t.TempDir()
	doc := `apiVersion: synthgen/v1
kind: Template
metadata:
  name: unit_events
spec:
  data_type: unit_events
  surprise_field: true
  rules:
    - field: score
      method: statistical
      params:
        distribution: normal
        mean: 10
        std_dev: 2
`
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "unit_events.yaml"), []byte(doc), 0o644))

	rootCmd := newOfflineRootCmd(t)
	rootCmd.SetArgs([]string{"validate", "--config-dir", configDir})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")

	rootCmd = newOfflineRootCmd(t)
	rootCmd.SetArgs([]string{"validate", "--config-dir", configDir, "--allow-unknown-fields"})

	restore := captureStdout(t)
	err = rootCmd.Execute()
	out := restore()

	require.NoError(t, err)
	assert.Contains(t, out, "Configuration is valid.")
}
