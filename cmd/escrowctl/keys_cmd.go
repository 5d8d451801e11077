package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"gitbounty/crypto"
)

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

// passphrase reads the keystore passphrase from envName. When the variable
// is unset and stdin is a terminal the user is prompted instead.
func passphrase(envName string, prompt io.Writer) (string, error) {
	if name := strings.TrimSpace(envName); name != "" {
		if value, ok := os.LookupEnv(name); ok {
			return value, nil
		}
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", nil
	}
	fmt.Fprint(prompt, "Keystore passphrase: ")
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(prompt)
	if err != nil {
		return "", fmt.Errorf("read passphrase: %w", err)
	}
	return string(raw), nil
}

func loadKey(path, passEnv string, prompt io.Writer) (*crypto.PrivateKey, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("--keystore is required")
	}
	pass, err := passphrase(passEnv, prompt)
	if err != nil {
		return nil, err
	}
	key, err := crypto.LoadFromKeystore(path, pass)
	if err != nil {
		return nil, fmt.Errorf("load keystore %s: %w", path, err)
	}
	return key, nil
}

func runKeygenCommand(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("keygen", stderr)
	out := fs.String("out", "", "Output path for the keystore file")
	passEnv := fs.String("pass-env", defaultPassEnv, "Environment variable containing the keystore passphrase")
	light := fs.Bool("light", false, "Use cheap scrypt parameters (devnets only)")
	force := fs.Bool("force", false, "Overwrite an existing keystore file")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if strings.TrimSpace(*out) == "" {
		return printError(stderr, errors.New("--out is required"))
	}
	if _, err := os.Stat(*out); err == nil && !*force {
		return printError(stderr, fmt.Errorf("keystore %s already exists (use --force to overwrite)", *out))
	}

	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return printError(stderr, err)
	}
	params := crypto.StandardKeystore
	if *light {
		params = crypto.LightKeystore
	}
	pass, err := passphrase(*passEnv, stderr)
	if err != nil {
		return printError(stderr, err)
	}
	if err := crypto.SaveToKeystore(*out, key, pass, params); err != nil {
		return printError(stderr, err)
	}
	fmt.Fprintln(stdout, key.Address().String())
	return exitOK
}

func runAddressCommand(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("address", stderr)
	keystorePath := fs.String("keystore", "", "Path to the keystore file")
	passEnv := fs.String("pass-env", defaultPassEnv, "Environment variable containing the keystore passphrase")
	hexOut := fs.Bool("hex", false, "Print the 0x-hex form instead of bech32")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	key, err := loadKey(*keystorePath, *passEnv, stderr)
	if err != nil {
		return printError(stderr, err)
	}
	if *hexOut {
		fmt.Fprintln(stdout, key.Address().Hex())
	} else {
		fmt.Fprintln(stdout, key.Address().String())
	}
	return exitOK
}
