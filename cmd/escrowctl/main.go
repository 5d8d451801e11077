package main

import (
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	exitOK      = 0
	exitUsage   = 1
	exitFailure = 2

	defaultConfig  = "./gitbounty.toml"
	defaultPassEnv = "GITBOUNTY_PASS"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, usage())
		return exitUsage
	}

	switch args[0] {
	case "keygen":
		return runKeygenCommand(args[1:], stdout, stderr)
	case "address":
		return runAddressCommand(args[1:], stdout, stderr)
	case "derive":
		return runDeriveCommand(args[1:], stdout, stderr)
	case "airdrop":
		return runAirdropCommand(args[1:], stdout, stderr)
	case "balance":
		return runBalanceCommand(args[1:], stdout, stderr)
	case "create":
		return runCreateCommand(args[1:], stdout, stderr)
	case "release":
		return runReleaseCommand(args[1:], stdout, stderr)
	case "show":
		return runShowCommand(args[1:], stdout, stderr)
	case "list":
		return runListCommand(args[1:], stdout, stderr)
	case "help", "-h", "--help":
		fmt.Fprintln(stdout, usage())
		return exitOK
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", args[0])
		fmt.Fprintln(stderr, usage())
		return exitUsage
	}
}

func usage() string {
	return strings.TrimSpace(`Usage:
  escrowctl <command> [flags]

Commands:
  keygen   Generate a key and write it to a keystore file
  address  Print the address of a keystore
  derive   Print the escrow address for a repository issue
  airdrop  Credit lamports to an address (devnet faucet)
  balance  Show an account's lamports and owner
  create   Lock a bounty for a repository issue
  release  Pay a bounty to the contributor who closed the issue
  show     Show the on-ledger escrow record for an issue
  list     List indexed bounties
`)
}

func printError(w io.Writer, err error) int {
	fmt.Fprintf(w, "Error: %v\n", err)
	return exitUsage
}
