// Command vaultctl inspects the subscription state machine and replays
// billing scenarios against an in-memory vault.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
