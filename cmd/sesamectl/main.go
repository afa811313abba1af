// sesamectl is a one-shot command line client for Sesame smart locks.
//
// It reads the same configuration as the bridge daemon, talks to the Sesame
// cloud directly and records lock/unlock in the shared audit trail.
package main

import (
	"fmt"
	"io"
	"os"
)

const (
	exitSuccess      = 0
	exitCommandError = 1
	exitRemoteError  = 2
)

// Version information - set at build time via ldflags
var version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run dispatches one command and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return exitCommandError
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "list":
		return runList(rest, stdout, stderr)
	case "get":
		return runGet(rest, stdout, stderr)
	case "lock":
		return runControl("lock", rest, stdout, stderr)
	case "unlock":
		return runControl("unlock", rest, stdout, stderr)
	case "token":
		return runToken(rest, stdout, stderr)
	case "help", "-h", "--help":
		printUsage(stdout)
		return exitSuccess
	case "version", "-v", "--version":
		fmt.Fprintf(stdout, "sesamectl version %s\n", version)
		return exitSuccess
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", cmd)
		printUsage(stderr)
		return exitCommandError
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `sesamectl - Sesame smart lock command line client

Usage:
  sesamectl <command> [options] [device-id]

Commands:
  list       List every lock on the account
  get        Show one lock
  lock       Lock a device
  unlock     Unlock a device
  token      Mint an API bearer token for the bridge

Options (all commands):
  -config    Path to config.yaml (default $SESAME_CONFIG or configs/config.yaml)

Examples:
  sesamectl list -json
  sesamectl unlock -user alice 3b0e5e0e-c8e6
  sesamectl token -sub kitchen-panel -role operator

For command-specific help, run:
  sesamectl <command> -h`)
}
