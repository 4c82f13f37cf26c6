package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestConfigInitThenValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	out, err := runCmd(t, "config-init", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Generated default config at: "+path)

	_, err = os.Stat(path)
	require.NoError(t, err)

	out, err = runCmd(t, "validate", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Result: PASS")
}

func TestValidate_Failure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version": "v1", "gate": {"hashKey": "plain"}}`), 0o600))

	out, err := runCmd(t, "validate", "-c", path)
	require.Error(t, err)
	assert.Contains(t, out, "Result: FAIL")
	assert.Contains(t, out, "gate.hashKey must use environment variable reference")
}

func TestValidate_RequiresConfigFlag(t *testing.T) {
	_, err := runCmd(t, "validate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "config" not set`)
}

func TestVersion(t *testing.T) {
	out, err := runCmd(t, "version")
	require.NoError(t, err)
	assert.Equal(t, BuildVersion+"\n", out)
}

func TestKeygen(t *testing.T) {
	first, err := runCmd(t, "keygen")
	require.NoError(t, err)
	second, err := runCmd(t, "keygen")
	require.NoError(t, err)

	assert.Len(t, first, 44) // 43 base64 chars and a newline
	assert.NotEqual(t, first, second)
}
