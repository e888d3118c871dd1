package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/txt2sql/internal/testutil"
	_ "github.com/leapstack-labs/txt2sql/pkg/adapters/sqlite" // register sqlite adapter
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runRoot(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("ORACLE_USER", "")
	t.Setenv("OPENAI_URL", "")

	root := NewRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := NewRootCmd()
	want := []string{"ask", "schema", "exec", "adapters", "doctor", "history", "serve", "version", "completion"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}

	for _, flag := range []string{"config", "db-type", "sqlite-path", "oracle-dsn", "pg-host", "max-retries", "output", "no-history"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestRootCommand_ExecWithFlags(t *testing.T) {
	db := testutil.SeedSQLite(t)
	state := filepath.Join(t.TempDir(), "history.db")

	stdout, _, err := runRoot(t,
		"--sqlite-path", db,
		"--state", state,
		"-o", "csv",
		"exec", "SELECT name FROM customers WHERE city = 'Boston'",
	)
	require.NoError(t, err)
	assert.Equal(t, "name\nBob\n", stdout)
}

func TestRootCommand_InvalidConfig(t *testing.T) {
	_, _, err := runRoot(t, "--output", "xml", "adapters")
	assert.ErrorContains(t, err, "output")
}

func TestRootCommand_Version(t *testing.T) {
	stdout, _, err := runRoot(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "txt2sql v"+Version)
}

func TestCompletionCommand(t *testing.T) {
	stdout, _, err := runRoot(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, stdout, "txt2sql")

	_, _, err = runRoot(t, "completion", "tcsh")
	assert.Error(t, err)
}
