package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gitbounty/crypto"
	"gitbounty/indexer"
)

func runAirdropCommand(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("airdrop", stderr)
	configPath := fs.String("config", defaultConfig, "Path to the config file")
	toStr := fs.String("to", "", "Recipient address")
	lamportsStr := fs.String("lamports", "", "Lamports to credit")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	to, err := crypto.ParseAddress(*toStr)
	if err != nil {
		return printError(stderr, fmt.Errorf("invalid --to: %w", err))
	}
	lamports, err := strconv.ParseUint(strings.TrimSpace(*lamportsStr), 10, 64)
	if err != nil || lamports == 0 {
		return printError(stderr, fmt.Errorf("invalid --lamports: %q", *lamportsStr))
	}

	n, err := openNode(*configPath)
	if err != nil {
		return printError(stderr, err)
	}
	defer n.Close()

	if err := n.state.Credit(to, lamports); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}
	acc, err := n.runtime.Account(to)
	if err != nil {
		return printError(stderr, err)
	}
	fmt.Fprintf(stdout, "%s %d\n", to.String(), acc.Lamports)
	return exitOK
}

func runBalanceCommand(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("balance", stderr)
	configPath := fs.String("config", defaultConfig, "Path to the config file")
	addrStr := fs.String("address", "", "Account address")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	addr, err := crypto.ParseAddress(*addrStr)
	if err != nil {
		return printError(stderr, fmt.Errorf("invalid --address: %w", err))
	}

	n, err := openNode(*configPath)
	if err != nil {
		return printError(stderr, err)
	}
	defer n.Close()

	acc, err := n.runtime.Account(addr)
	if err != nil {
		return printError(stderr, err)
	}
	return writeJSON(stdout, stderr, map[string]any{
		"address":  addr.String(),
		"lamports": acc.Lamports,
		"owner":    acc.Owner.String(),
		"dataLen":  len(acc.Data),
	})
}

func runListCommand(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("list", stderr)
	configPath := fs.String("config", defaultConfig, "Path to the config file")
	status := fs.String("status", "", "Filter by status (open or released)")
	repo := fs.String("repo", "", "Only list bounties for this repository (owner/name)")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	filter := indexer.BountyStatus(strings.ToLower(strings.TrimSpace(*status)))
	switch filter {
	case "", indexer.StatusOpen, indexer.StatusReleased:
	default:
		return printError(stderr, errors.New("--status must be open or released"))
	}

	n, err := openNode(*configPath)
	if err != nil {
		return printError(stderr, err)
	}
	defer n.Close()
	idx, err := n.requireIndex()
	if err != nil {
		return printError(stderr, err)
	}

	var bounties []indexer.Bounty
	if *repo != "" {
		bounties, err = listRepo(idx, *repo, filter)
	} else {
		bounties, err = idx.List(filter)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}
	if bounties == nil {
		bounties = []indexer.Bounty{}
	}
	return writeJSON(stdout, stderr, bounties)
}

func listRepo(idx *indexer.Indexer, repo string, status indexer.BountyStatus) ([]indexer.Bounty, error) {
	hash := repoHashHex(repo)
	all, err := idx.ByRepo(hash)
	if err != nil {
		return nil, err
	}
	if status == "" {
		return all, nil
	}
	out := all[:0]
	for _, b := range all {
		if b.Status == status {
			out = append(out, b)
		}
	}
	return out, nil
}
