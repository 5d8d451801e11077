package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"gitbounty/config"
	"gitbounty/core/runtime"
	"gitbounty/core/types"
	"gitbounty/crypto"
	"gitbounty/native/escrow"
)

var txNonce = func() uint64 { return uint64(time.Now().UnixNano()) }

type issueFlags struct {
	repo     string
	repoHash string
	issue    string
}

func (f *issueFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.repo, "repo", "", "repository as owner/name")
	fs.StringVar(&f.repoHash, "repo-hash", "", "0x-prefixed 32 byte repository hash (instead of --repo)")
	fs.StringVar(&f.issue, "issue", "", "issue number")
}

func (f *issueFlags) parse() ([32]byte, uint64, error) {
	var hash [32]byte
	switch {
	case f.repo != "" && f.repoHash != "":
		return hash, 0, errors.New("use either --repo or --repo-hash, not both")
	case f.repo != "":
		hash = escrow.RepoHash(f.repo)
	case f.repoHash != "":
		raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimPrefix(f.repoHash, "0x"), "0X"))
		if err != nil || len(raw) != len(hash) {
			return hash, 0, fmt.Errorf("--repo-hash must be 32 hex-encoded bytes")
		}
		copy(hash[:], raw)
	default:
		return hash, 0, errors.New("--repo or --repo-hash is required")
	}
	if strings.TrimSpace(f.issue) == "" {
		return hash, 0, errors.New("--issue is required")
	}
	issue, err := strconv.ParseUint(strings.TrimSpace(f.issue), 10, 64)
	if err != nil {
		return hash, 0, fmt.Errorf("invalid --issue: %w", err)
	}
	return hash, issue, nil
}

func programIDFor(configPath string) (crypto.Address, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return crypto.Address{}, err
	}
	return cfg.ProgramID()
}

func runDeriveCommand(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("derive", stderr)
	configPath := fs.String("config", defaultConfig, "Path to the config file")
	var target issueFlags
	target.register(fs)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	repoHash, issue, err := target.parse()
	if err != nil {
		return printError(stderr, err)
	}
	programID, err := programIDFor(*configPath)
	if err != nil {
		return printError(stderr, err)
	}
	addr, bump, err := escrow.DeriveAddress(programID, repoHash, issue)
	if err != nil {
		return printError(stderr, err)
	}
	return writeJSON(stdout, stderr, map[string]any{
		"address":  addr.String(),
		"bump":     bump,
		"repoHash": "0x" + hex.EncodeToString(repoHash[:]),
		"issue":    issue,
		"program":  programID.String(),
	})
}

func runCreateCommand(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("create", stderr)
	configPath := fs.String("config", defaultConfig, "Path to the config file")
	keystorePath := fs.String("keystore", "", "Payer keystore file")
	passEnv := fs.String("pass-env", defaultPassEnv, "Environment variable containing the keystore passphrase")
	amountStr := fs.String("amount", "", "Bounty amount in lamports")
	var target issueFlags
	target.register(fs)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	repoHash, issue, err := target.parse()
	if err != nil {
		return printError(stderr, err)
	}
	amount, err := strconv.ParseUint(strings.TrimSpace(*amountStr), 10, 64)
	if err != nil {
		return printError(stderr, fmt.Errorf("invalid --amount: %q", *amountStr))
	}
	payer, err := loadKey(*keystorePath, *passEnv, stderr)
	if err != nil {
		return printError(stderr, err)
	}

	n, err := openNode(*configPath)
	if err != nil {
		return printError(stderr, err)
	}
	defer n.Close()

	ix, _, err := escrow.NewCreateInstruction(n.programID, payer.Address(),
		escrow.CreateRequest{RepoHash: repoHash, IssueNumber: issue, Amount: amount})
	if err != nil {
		return printError(stderr, err)
	}
	return submit(n, []*crypto.PrivateKey{payer}, ix, stdout, stderr)
}

func runReleaseCommand(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("release", stderr)
	configPath := fs.String("config", defaultConfig, "Path to the config file")
	keystorePath := fs.String("keystore", "", "Authority keystore file")
	passEnv := fs.String("pass-env", defaultPassEnv, "Environment variable containing the keystore passphrase")
	recipientStr := fs.String("recipient", "", "Recipient address (bech32 or 0x-hex)")
	var target issueFlags
	target.register(fs)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	repoHash, issue, err := target.parse()
	if err != nil {
		return printError(stderr, err)
	}
	if strings.TrimSpace(*recipientStr) == "" {
		return printError(stderr, errors.New("--recipient is required"))
	}
	recipient, err := crypto.ParseAddress(*recipientStr)
	if err != nil {
		return printError(stderr, fmt.Errorf("invalid --recipient: %w", err))
	}
	authority, err := loadKey(*keystorePath, *passEnv, stderr)
	if err != nil {
		return printError(stderr, err)
	}

	n, err := openNode(*configPath)
	if err != nil {
		return printError(stderr, err)
	}
	defer n.Close()

	ix, _, err := escrow.NewReleaseInstruction(n.programID, recipient, authority.Address(),
		escrow.ReleaseRequest{RepoHash: repoHash, IssueNumber: issue})
	if err != nil {
		return printError(stderr, err)
	}
	return submit(n, []*crypto.PrivateKey{authority}, ix, stdout, stderr)
}

type receiptView struct {
	ID                string         `json:"id"`
	Digest            string         `json:"digest"`
	Success           bool           `json:"success"`
	Code              uint32         `json:"code"`
	Error             string         `json:"error,omitempty"`
	FailedInstruction int            `json:"failedInstruction"`
	Logs              []string       `json:"logs"`
	Events            []*types.Event `json:"events"`
}

func newReceiptView(r *runtime.Receipt) receiptView {
	return receiptView{
		ID:                r.ID,
		Digest:            "0x" + hex.EncodeToString(r.Digest),
		Success:           r.Success(),
		Code:              r.Code,
		Error:             r.Err,
		FailedInstruction: r.FailedInstruction,
		Logs:              r.Logs,
		Events:            r.Events,
	}
}

func submit(n *node, keys []*crypto.PrivateKey, ix types.Instruction, stdout, stderr io.Writer) int {
	tx := &types.Transaction{Nonce: txNonce(), Instructions: []types.Instruction{ix}}
	if err := tx.Sign(keys...); err != nil {
		return printError(stderr, err)
	}
	receipt, err := n.runtime.Execute(context.Background(), tx)
	if receipt != nil {
		if code := writeJSON(stdout, stderr, newReceiptView(receipt)); code != exitOK {
			return code
		}
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}
	return exitOK
}

type recordView struct {
	Initialized bool   `json:"initialized"`
	RepoHash    string `json:"repoHash"`
	Issue       uint64 `json:"issue"`
	Amount      uint64 `json:"amount"`
}

type escrowView struct {
	Address  string      `json:"address"`
	Status   string      `json:"status"`
	Lamports uint64      `json:"lamports"`
	Owner    string      `json:"owner"`
	Record   *recordView `json:"record,omitempty"`
}

func runShowCommand(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("show", stderr)
	configPath := fs.String("config", defaultConfig, "Path to the config file")
	var target issueFlags
	target.register(fs)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	repoHash, issue, err := target.parse()
	if err != nil {
		return printError(stderr, err)
	}

	n, err := openNode(*configPath)
	if err != nil {
		return printError(stderr, err)
	}
	defer n.Close()

	addr, _, err := escrow.DeriveAddress(n.programID, repoHash, issue)
	if err != nil {
		return printError(stderr, err)
	}
	acc, err := n.runtime.Account(addr)
	if err != nil {
		return printError(stderr, err)
	}
	view := escrowView{Address: addr.String(), Status: "absent", Lamports: acc.Lamports, Owner: acc.Owner.String()}
	if acc.Owner == n.programID && acc.Lamports > 0 {
		view.Status = "open"
		var record escrow.Record
		if err := record.UnmarshalBinary(acc.Data); err == nil {
			view.Record = &recordView{
				Initialized: record.Initialized,
				RepoHash:    "0x" + hex.EncodeToString(record.RepoHash[:]),
				Issue:       record.IssueNumber,
				Amount:      record.Amount,
			}
		}
	}
	return writeJSON(stdout, stderr, view)
}

func writeJSON(stdout, stderr io.Writer, v any) int {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}
	return exitOK
}

// repoHashHex renders a repository name the way escrow events carry it.
func repoHashHex(repo string) string {
	hash := escrow.RepoHash(repo)
	return hex.EncodeToString(hash[:])
}
