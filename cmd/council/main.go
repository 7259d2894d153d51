// Command council is the governance portal CLI: airdrop eligibility and
// claims, private commitments, delegation, vault deposits and voting.
//
// Usage:
//
//	council eligibility <address>
//	council airdrop <address> [--delegate <address>]
//	council claim [--delegate <address>]
//	council commitment [--key <key>] [--out <dir>]
//	council merkle build <allocations.csv> [-o airdrop.json]
//	council delegate <address>
//	council deposit|withdraw|approve <amount>
//	council delegators
//	council proposals
//	council vote <id> <ballot>
//	council scenario <file-or-dir>...
//	council session [id]
package main

import (
	"os"

	"github.com/roach88/council/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
