package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coffeereg/pkg/secrets"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// isolate runs the command against in-memory backends in a scratch
// directory.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("MONGODB_URI", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("CATALOG_FILE", "")
	return dir
}

func TestTokenHashesGivenValue(t *testing.T) {
	out, err := execute(t, "token", "--token", "operator-token")
	require.NoError(t, err)

	var got tokenOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "operator-token", got.Token)
	assert.True(t, secrets.Matches("operator-token", got.Hash))
	assert.Equal(t, "ADMIN_TOKEN_HASH="+got.Hash, got.Usage["env"])
}

func TestTokenGeneratesFreshValues(t *testing.T) {
	first, err := execute(t, "token")
	require.NoError(t, err)
	second, err := execute(t, "token")
	require.NoError(t, err)

	var a, b tokenOutput
	require.NoError(t, json.Unmarshal([]byte(first), &a))
	require.NoError(t, json.Unmarshal([]byte(second), &b))
	assert.True(t, strings.HasPrefix(a.Token, secrets.TokenPrefix))
	assert.NotEqual(t, a.Token, b.Token)
}

func TestSeedFromFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`competitions:
  - name: Latte Art Championship
    price: 1180
    passportRequired: true
  - name: Cup Tasters Championship
    price: 580
`), 0o600))

	out, err := execute(t, "seed", "--file", path)
	require.NoError(t, err)
	assert.Equal(t, "seeded 2 competitions\n", out)
}

func TestSeedRejectsUnknownFields(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`competitions:
  - name: Latte Art Championship
    cost: 1180
`), 0o600))

	_, err := execute(t, "seed", "--file", path)
	require.Error(t, err)
}

func TestReconcileWithNothingPending(t *testing.T) {
	isolate(t)

	out, err := execute(t, "reconcile")
	require.NoError(t, err)
	assert.Equal(t, "checked=0 succeeded=0 failed=0 unchanged=0 errors=0\n", out)

	out, err = execute(t, "reconcile", "--json", "--limit", "5")
	require.NoError(t, err)
	var report map[string]int
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 0, report["checked"])
}
