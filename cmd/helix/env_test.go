package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvFileFromArgs(t *testing.T) {
	t.Setenv("HELIX_ENV_FILE", "")
	tests := []struct {
		args     []string
		want     string
		explicit bool
	}{
		{[]string{"train", "--env-file", "prod.env"}, "prod.env", true},
		{[]string{"--env-file=a.env", "eval"}, "a.env", true},
		{[]string{"-env-file", "b.env"}, "b.env", true},
		{[]string{"train", "--", "--env-file", "x"}, defaultEnvFile, false},
		{[]string{"train", "--data", "env-file"}, defaultEnvFile, false},
		{nil, defaultEnvFile, false},
	}
	for _, tt := range tests {
		got, explicit := envFileFromArgs(tt.args)
		assert.Equal(t, tt.want, got, "args %v", tt.args)
		assert.Equal(t, tt.explicit, explicit, "args %v", tt.args)
	}

	t.Setenv("HELIX_ENV_FILE", "from-env.env")
	got, explicit := envFileFromArgs([]string{"train"})
	assert.Equal(t, "from-env.env", got)
	assert.True(t, explicit)
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("HELIX_TEST_DEVICE=cpu\nHELIX_TEST_KEEP=file\n"), 0o644))
	t.Setenv("HELIX_TEST_KEEP", "process")
	t.Setenv("HELIX_TEST_DEVICE", "")
	require.NoError(t, os.Unsetenv("HELIX_TEST_DEVICE"))

	require.NoError(t, loadEnvFile(path, true))
	assert.Equal(t, "cpu", os.Getenv("HELIX_TEST_DEVICE"))
	assert.Equal(t, "process", os.Getenv("HELIX_TEST_KEEP"), "existing variables are not overridden")

	require.NoError(t, loadEnvFile(filepath.Join(dir, "missing.env"), false))
	require.Error(t, loadEnvFile(filepath.Join(dir, "missing.env"), true))
}
