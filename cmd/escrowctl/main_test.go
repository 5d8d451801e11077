package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"gitbounty/indexer"
	"gitbounty/native/escrow"
)

const testPassEnv = "ESCROWCTL_TEST_PASS"

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func writeTestConfig(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "gitbounty.toml")
	contents := fmt.Sprintf(`DataDir = %q
Backend = "bolt"
IndexDSN = %q
Env = "test"
`, filepath.Join(dir, "data"), "file:"+filepath.Join(dir, "index.db"))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path, dir
}

func keygen(t *testing.T, dir, name string) (string, string) {
	t.Helper()
	path := filepath.Join(dir, name+".json")
	code, out, errOut := runCLI(t, "keygen", "--out", path, "--light", "--pass-env", testPassEnv)
	require.Equal(t, exitOK, code, errOut)
	return path, strings.TrimSpace(out)
}

func TestCommandArgValidation(t *testing.T) {
	cases := []struct {
		name string
		args []string
		want string
	}{
		{name: "usage", args: nil, want: "Usage:"},
		{name: "unknown", args: []string{"unknown"}, want: "Unknown command: unknown"},
		{name: "keygen_missing_out", args: []string{"keygen"}, want: "--out is required"},
		{name: "derive_missing_issue", args: []string{"derive", "--repo", "acme/widgets"}, want: "--issue is required"},
		{name: "derive_both_repo_flags", args: []string{"derive", "--repo", "a/b", "--repo-hash", "0x00", "--issue", "1"}, want: "either --repo or --repo-hash"},
		{name: "derive_bad_hash", args: []string{"derive", "--repo-hash", "0x1234", "--issue", "1"}, want: "32 hex-encoded bytes"},
		{name: "create_bad_amount", args: []string{"create", "--repo", "a/b", "--issue", "1", "--amount", "ten"}, want: "invalid --amount"},
		{name: "create_missing_keystore", args: []string{"create", "--repo", "a/b", "--issue", "1", "--amount", "5"}, want: "--keystore is required"},
		{name: "release_missing_recipient", args: []string{"release", "--repo", "a/b", "--issue", "1"}, want: "--recipient is required"},
		{name: "list_bad_status", args: []string{"list", "--status", "pending"}, want: "--status must be open or released"},
		{name: "airdrop_bad_address", args: []string{"airdrop", "--to", "nope", "--lamports", "1"}, want: "invalid --to"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, _, errOut := runCLI(t, tc.args...)
			require.Equal(t, exitUsage, code)
			require.Contains(t, errOut, tc.want)
		})
	}
}

func TestDeriveIsStable(t *testing.T) {
	cfgPath, _ := writeTestConfig(t)
	code, first, errOut := runCLI(t, "derive", "--config", cfgPath, "--repo", "Acme/Widgets", "--issue", "42")
	require.Equal(t, exitOK, code, errOut)
	code, second, _ := runCLI(t, "derive", "--config", cfgPath, "--repo", "acme/widgets", "--issue", "42")
	require.Equal(t, exitOK, code)
	require.Equal(t, first, second)

	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(first), &out))
	require.Equal(t, "0x"+repoHashHex("acme/widgets"), out["repoHash"])
}

func TestBountyLifecycle(t *testing.T) {
	t.Setenv(testPassEnv, "correct horse")
	cfgPath, dir := writeTestConfig(t)
	payerKey, payer := keygen(t, dir, "payer")
	authorityKey, _ := keygen(t, dir, "authority")
	_, recipient := keygen(t, dir, "recipient")

	code, _, errOut := runCLI(t, "airdrop", "--config", cfgPath, "--to", payer, "--lamports", "5000000000")
	require.Equal(t, exitOK, code, errOut)

	target := []string{"--config", cfgPath, "--repo", "acme/widgets", "--issue", "42"}
	code, out, errOut := runCLI(t, append([]string{"create", "--keystore", payerKey, "--pass-env", testPassEnv, "--amount", "1000000000"}, target...)...)
	require.Equal(t, exitOK, code, errOut)
	var created receiptView
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	require.True(t, created.Success)
	require.Len(t, created.Events, 1)

	code, out, errOut = runCLI(t, append([]string{"show"}, target...)...)
	require.Equal(t, exitOK, code, errOut)
	var shown escrowView
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	require.Equal(t, "open", shown.Status)
	require.NotNil(t, shown.Record)
	require.Equal(t, uint64(1_000_000_000), shown.Record.Amount)
	require.Equal(t, uint64(1_000_000_000+1_231_920), shown.Lamports)

	code, out, errOut = runCLI(t, "list", "--config", cfgPath, "--status", "open")
	require.Equal(t, exitOK, code, errOut)
	var open []indexer.Bounty
	require.NoError(t, json.Unmarshal([]byte(out), &open))
	require.Len(t, open, 1)
	require.Equal(t, shown.Address, open[0].Address)

	code, _, errOut = runCLI(t, append([]string{"release", "--keystore", authorityKey, "--pass-env", testPassEnv, "--recipient", recipient}, target...)...)
	require.Equal(t, exitOK, code, errOut)

	code, out, _ = runCLI(t, "balance", "--config", cfgPath, "--address", recipient)
	require.Equal(t, exitOK, code)
	var balance map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &balance))
	require.EqualValues(t, 1_000_000_000, balance["lamports"])

	code, out, errOut = runCLI(t, append([]string{"release", "--keystore", authorityKey, "--pass-env", testPassEnv, "--recipient", recipient}, target...)...)
	require.Equal(t, exitFailure, code)
	require.Contains(t, errOut, escrow.ErrAlreadyReleased.Error())
	var failed receiptView
	require.NoError(t, json.Unmarshal([]byte(out), &failed))
	require.False(t, failed.Success)
	require.Equal(t, escrow.CodeAlreadyReleased, failed.Code)

	code, out, _ = runCLI(t, "list", "--config", cfgPath, "--repo", "acme/widgets", "--status", "released")
	require.Equal(t, exitOK, code)
	var released []indexer.Bounty
	require.NoError(t, json.Unmarshal([]byte(out), &released))
	require.Len(t, released, 1)
	require.Equal(t, recipient, released[0].Recipient)
}

func TestCreateZeroAmountFails(t *testing.T) {
	t.Setenv(testPassEnv, "")
	cfgPath, dir := writeTestConfig(t)
	payerKey, payer := keygen(t, dir, "payer")
	code, _, _ := runCLI(t, "airdrop", "--config", cfgPath, "--to", payer, "--lamports", "10")
	require.Equal(t, exitOK, code)

	code, out, errOut := runCLI(t, "create", "--config", cfgPath, "--keystore", payerKey, "--pass-env", testPassEnv,
		"--repo", "acme/widgets", "--issue", "1", "--amount", "0")
	require.Equal(t, exitFailure, code)
	require.Contains(t, errOut, escrow.ErrInvalidAmount.Error())
	var receipt receiptView
	require.NoError(t, json.Unmarshal([]byte(out), &receipt))
	require.Equal(t, escrow.CodeInvalidAmount, receipt.Code)
}

func TestAddressCommand(t *testing.T) {
	t.Setenv(testPassEnv, "pw")
	dir := t.TempDir()
	keyPath, addr := keygen(t, dir, "key")

	code, out, errOut := runCLI(t, "address", "--keystore", keyPath, "--pass-env", testPassEnv)
	require.Equal(t, exitOK, code, errOut)
	require.Equal(t, addr, strings.TrimSpace(out))

	code, _, _ = runCLI(t, "keygen", "--out", keyPath, "--light", "--pass-env", testPassEnv)
	require.Equal(t, exitUsage, code, "existing keystore must not be overwritten")

	t.Setenv(testPassEnv, "wrong")
	code, _, errOut = runCLI(t, "address", "--keystore", keyPath, "--pass-env", testPassEnv)
	require.Equal(t, exitUsage, code)
	require.Contains(t, errOut, "load keystore")
}
