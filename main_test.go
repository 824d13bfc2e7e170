package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qbank/resolver"
	"qbank/store"
)

func memoryEnv(t *testing.T) {
	t.Helper()
	t.Setenv("QBANK_CONFIG", "")
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("CACHE_BACKEND", "memory")
	t.Setenv("LOG_LEVEL", "error")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	cmd := newRootCommand()
	for _, name := range []string{"serve", "resolve", "backfill-slugs", "migrate"} {
		found, _, err := cmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, found.Name())
	}
}

func TestMigrateMemoryBackend(t *testing.T) {
	memoryEnv(t)

	out, err := execute(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "memory schema is up to date")
}

func TestBackfillMemoryBackend(t *testing.T) {
	memoryEnv(t)

	out, err := execute(t, "backfill-slugs", "--batch", "10")
	require.NoError(t, err)
	assert.Contains(t, out, "scanned 0, assigned 0, failed 0")
}

func TestResolveUnknownCategory(t *testing.T) {
	memoryEnv(t)

	_, err := execute(t, "resolve", "science", "define-osmosis")
	assert.ErrorIs(t, err, store.ErrCategoryNotFound)
}

func TestResolveRequiresTwoArgs(t *testing.T) {
	memoryEnv(t)

	_, err := execute(t, "resolve", "science")
	assert.Error(t, err)
}

func TestInvalidConfigFails(t *testing.T) {
	memoryEnv(t)
	t.Setenv("STORE_BACKEND", "sqlite")

	_, err := execute(t, "migrate")
	assert.ErrorContains(t, err, "load config")
}

func TestRenderTrace(t *testing.T) {
	out := renderTrace([]resolver.Attempt{
		{Strategy: "exact_slug", Verdict: resolver.VerdictPass, Duration: 120 * time.Microsecond},
		{Strategy: "id_fragment", Verdict: resolver.VerdictAmbiguous, Candidates: 2, Duration: time.Millisecond},
	})

	assert.Contains(t, out, "Strategy")
	assert.Contains(t, out, "exact_slug")
	assert.Contains(t, out, "id_fragment")
	assert.Contains(t, out, resolver.VerdictAmbiguous.String())
	assert.Contains(t, out, "120µs")
}
