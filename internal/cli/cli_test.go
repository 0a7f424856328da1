package cli_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-burn-mint/internal/cli"
)

const (
	walletA = "0x1111111111111111111111111111111111111111"
	walletB = "0x2222222222222222222222222222222222222222"
)

type burn struct {
	signature string
	burner    string
	amount    string
	timestamp string
}

type fixture struct {
	dir    string
	config string
}

func newFixture(t *testing.T, burns []burn) *fixture {
	t.Helper()
	dir := t.TempDir()

	burnsPath := filepath.Join(dir, "burns.db")
	db, err := sql.Open("sqlite3", burnsPath)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE burns (
		signature TEXT PRIMARY KEY,
		burner TEXT,
		amount,
		memo TEXT,
		token TEXT,
		timestamp,
		memo_checked CHAR(1),
		created_at
	)`)
	require.NoError(t, err)
	for _, b := range burns {
		_, err := db.Exec(
			`INSERT INTO burns (signature, burner, amount, memo, token, timestamp, memo_checked, created_at)
			 VALUES (?, ?, ?, NULL, NULL, ?, 'Y', NULL)`,
			b.signature, b.burner, b.amount, b.timestamp)
		require.NoError(t, err)
	}

	configPath := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf(`
burn_store:
  path: %q
  min_amount: 0
ledger:
  driver: sqlite
  path: %q
executor:
  concurrency: 2
  max_attempts: 2
  max_total_attempts: 4
  backoff_initial: "1ms"
  backoff_max: "5ms"
  min_interval: "0s"
  confirm_timeout: "1s"
  confirm_poll_interval: "5ms"
chain:
  mode: simulate
report:
  output_dir: %q
  title: "E2E Report"
`, burnsPath, filepath.Join(dir, "ledger.db"), filepath.Join(dir, "report"))
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0600))

	return &fixture{dir: dir, config: configPath}
}

// execute runs one command on a fresh root and returns stdout with the exit code
func (f *fixture) execute(t *testing.T, args ...string) (string, int) {
	t.Helper()

	root := cli.NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", f.config, "--env", f.dir}, args...))

	err := root.ExecuteContext(context.Background())
	return out.String(), cli.GetExitCode(err)
}

func TestRun_SettlesEveryBurn(t *testing.T) {
	f := newFixture(t, []burn{
		{signature: "sig-1", burner: walletA, amount: "420000000", timestamp: "2025-01-01T00:00:00Z"},
		{signature: "sig-2", burner: walletB, amount: "500000000", timestamp: "2025-01-02T00:00:00Z"},
	})

	out, code := f.execute(t, "run")
	assert.Equal(t, cli.ExitSuccess, code, out)
	assert.Contains(t, out, "confirmed 2, failed 0, pending 0, in flight 0")

	// a second run finds nothing left to settle
	out, code = f.execute(t, "run", "--format", "json")
	require.Equal(t, cli.ExitSuccess, code, out)
	var summary map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, float64(0), summary["migration"].(map[string]any)["inserted"])
	assert.Equal(t, float64(2), summary["migration"].(map[string]any)["already_present"])
	assert.Equal(t, float64(0), summary["mint"].(map[string]any)["dispatched"])
	assert.Equal(t, float64(2), summary["confirmed"])

	out, code = f.execute(t, "obligations", "--status", "confirmed", "--format", "json")
	require.Equal(t, cli.ExitSuccess, code, out)
	var obligations []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &obligations))
	require.Len(t, obligations, 2)
	assert.Equal(t, "sig-1", obligations[0]["BurnID"])
	assert.Equal(t, "sig-2", obligations[1]["BurnID"])
}

func TestRun_ValidationFailureExitsNonZero(t *testing.T) {
	f := newFixture(t, []burn{
		{signature: "sig-1", burner: walletA, amount: "420000000", timestamp: "2025-01-01T00:00:00Z"},
		{signature: "sig-bad", burner: "not-an-address", amount: "420000000", timestamp: "2025-01-02T00:00:00Z"},
	})

	out, code := f.execute(t, "run")
	assert.Equal(t, cli.ExitFailure, code, out)
	assert.Contains(t, out, "validation failed 1")

	out, code = f.execute(t, "obligations", "--status", "failed", "--kind", "validation")
	require.Equal(t, cli.ExitSuccess, code, out)
	assert.Contains(t, out, "sig-bad")
	assert.Contains(t, out, "failed/validation")
	assert.NotContains(t, out, "sig-1 ")
}

func TestMigrateThenStats(t *testing.T) {
	f := newFixture(t, []burn{
		{signature: "sig-1", burner: walletA, amount: "420000000", timestamp: "2025-01-01T00:00:00Z"},
	})

	out, code := f.execute(t, "migrate")
	require.Equal(t, cli.ExitSuccess, code, out)

	out, code = f.execute(t, "stats", "--wallets")
	require.Equal(t, cli.ExitSuccess, code, out)
	assert.Contains(t, out, "Pending:         1")
	assert.Contains(t, out, "(migrate)")
	assert.Contains(t, out, walletA)
}

func TestGenerate_WritesReport(t *testing.T) {
	f := newFixture(t, []burn{
		{signature: "sig-1", burner: walletA, amount: "420000000", timestamp: "2025-01-01T00:00:00Z"},
	})

	_, code := f.execute(t, "run")
	require.Equal(t, cli.ExitSuccess, code)

	out, code := f.execute(t, "generate")
	require.Equal(t, cli.ExitSuccess, code, out)

	html, err := os.ReadFile(filepath.Join(f.dir, "report", "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(html), "E2E Report")
	assert.FileExists(t, filepath.Join(f.dir, "report", "obligations.json"))
	assert.FileExists(t, filepath.Join(f.dir, "report", "obligations.json.sha256"))
}

func TestInvalidFormat(t *testing.T) {
	f := newFixture(t, nil)
	_, code := f.execute(t, "stats", "--format", "yaml")
	assert.Equal(t, cli.ExitCommandError, code)
}

func TestMissingBurnStore(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, os.Remove(filepath.Join(f.dir, "burns.db")))

	_, code := f.execute(t, "migrate")
	assert.Equal(t, cli.ExitCommandError, code)
}

func TestRequeue_InvalidKind(t *testing.T) {
	f := newFixture(t, nil)
	_, code := f.execute(t, "requeue", "--kind", "bogus")
	assert.Equal(t, cli.ExitCommandError, code)
}
