package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestStressGracefulStopDispatchesEverything(t *testing.T) {
	t.Chdir(t.TempDir())
	out, err := run(t, "stress", "--producers", "3", "--messages", "200", "--max-priority", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "total posted=600 dispatched=600")
	assert.Contains(t, out, "priority")
}

func TestStressQueueLimitRetries(t *testing.T) {
	t.Chdir(t.TempDir())
	out, err := run(t, "stress", "--producers", "4", "--messages", "100",
		"--max-priority", "0", "--queue-limit", "2", "--log-level", "warn")
	require.NoError(t, err)
	assert.Contains(t, out, "total posted=400 dispatched=400")
}

func TestStressUrgentStop(t *testing.T) {
	t.Chdir(t.TempDir())
	out, err := run(t, "stress", "--producers", "1", "--messages", "50", "--urgent")
	require.NoError(t, err)
	assert.Contains(t, out, "total posted=50")
}

func TestStressEnvironmentAndConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	cfg := filepath.Join(dir, "stress.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("producers: 3\nmessages: 5\nmax-priority: 1\n"), 0o600))

	out, err := run(t, "stress", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "total posted=15 dispatched=15")

	t.Setenv("THREADCORE_MESSAGES", "7")
	out, err = run(t, "stress", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "total posted=21 dispatched=21")

	out, err = run(t, "stress", "--config", cfg, "--messages", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "total posted=6 dispatched=6")
}

func TestDefaultConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(".threadcore.yaml", []byte("producers: 2\nmessages: 4\n"), 0o600))

	out, err := run(t, "stress")
	require.NoError(t, err)
	assert.Contains(t, out, "total posted=8 dispatched=8")
}

func TestInvalidSettings(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := run(t, "stress", "--log-level", "loud")
	require.ErrorContains(t, err, "invalid log level")

	_, err = run(t, "stress", "--log-format", "xml")
	require.ErrorContains(t, err, "invalid log format")

	_, err = run(t, "stress", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "reading config")

	_, err = run(t, "stress", "--producers", "0")
	require.ErrorContains(t, err, "invalid stress parameters")
}

func TestIndexCommand(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(a, []byte("The quick brown fox\n\njumps over the lazy dog\n"), 0o600))
	require.NoError(t, os.WriteFile(b, []byte("a QUICK test\n"), 0o600))

	out, err := run(t, "index", a, b, "-q", "quick", "--query", "lazy dog", "-q", "missing")
	require.NoError(t, err)
	assert.Contains(t, out, "indexed 3 documents")
	assert.Contains(t, out, "\"quick\": 2 match(es)\n  "+a+":1\n  "+b+":1\n")
	assert.Contains(t, out, "\"lazy dog\": 1 match(es)\n  "+a+":3\n")
	assert.Contains(t, out, "\"missing\": 0 match(es)")
}

func TestIndexCommandErrors(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := run(t, "index")
	require.Error(t, err)

	_, err = run(t, "index", filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
}
