// Command fxratesctl is an operator CLI over the same composition root as
// the daemon: seeding the catalog, triggering an import, and enabling or
// disabling currencies without going through HTTP (SPEC_FULL.md §1).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "fxratesctl",
	Short: "Operate the FX reference-rate service from the command line",
	Long: `fxratesctl wires the same catalog, import, and query engines the
daemon runs, for one-off operator actions: seeding the known currency
catalog, forcing an import pass, or flipping a currency's enabled flag.`,
}

func init() {
	rootCmd.AddCommand(seedCmd, importCmd, currenciesCmd)
}
