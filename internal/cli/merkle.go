package cli

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/roach88/council/internal/eligibility"
	"github.com/roach88/council/internal/merkle"
)

// MerkleBuildOptions holds flags for merkle build.
type MerkleBuildOptions struct {
	*RootOptions
	Output string
}

// MerkleView summarizes a built data file.
type MerkleView struct {
	Root    string `json:"root"`
	Entries int    `json:"entries"`
	Output  string `json:"output,omitempty"`
}

func (v MerkleView) String() string {
	s := fmt.Sprintf("Root: %s\nEntries: %d", v.Root, v.Entries)
	if v.Output != "" {
		s += "\nWritten to " + v.Output
	}
	return s
}

// NewMerkleCommand creates the merkle command group.
func NewMerkleCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merkle",
		Short: "Airdrop merkle data tools",
	}
	cmd.AddCommand(newMerkleBuildCommand(rootOpts))
	return cmd
}

func newMerkleBuildCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MerkleBuildOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "build <allocations.csv>",
		Short: "Build the airdrop merkle data file",
		Long: `Build the airdrop merkle tree from a CSV of "address,amount" rows and
write the data file with every account's proof.

A header row is allowed. Amounts are decimal token amounts.

Example:
  council merkle build allocations.csv -o airdrop.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMerkleBuild(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "data file to write (prints the root only when empty)")
	return cmd
}

func runMerkleBuild(opts *MerkleBuildOptions, path string, cmd *cobra.Command) error {
	f, err := os.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open allocations", err)
	}
	defer f.Close()

	allocs, err := ReadAllocations(f)
	if err != nil {
		return &ExitError{Code: ExitCommandError, Message: "invalid allocations", Err: err, CodeName: CodeInput}
	}
	data, _, err := merkle.Generate(allocs)
	if err != nil {
		return &ExitError{Code: ExitCommandError, Message: "failed to build tree", Err: err, CodeName: CodeInput}
	}

	if opts.Output != "" {
		if err := merkle.Write(opts.Output, data); err != nil {
			return WrapExitError(ExitFailure, "failed to write data file", err)
		}
	}

	return NewFormatter(cmd, opts.RootOptions).Success(MerkleView{
		Root:    data.Root.Hex(),
		Entries: len(data.Entries),
		Output:  opts.Output,
	})
}

// ReadAllocations parses "address,amount" rows. A first row whose address
// column is not a hex address is treated as a header.
func ReadAllocations(r io.Reader) ([]merkle.Allocation, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2
	cr.TrimLeadingSpace = true

	var allocs []merkle.Allocation
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		addr := strings.TrimSpace(rec[0])
		if !common.IsHexAddress(addr) {
			if line == 1 {
				continue
			}
			return nil, fmt.Errorf("line %d: invalid address %q", line, addr)
		}
		value := strings.TrimSpace(rec[1])
		amount, err := eligibility.ParseAmount(value)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		allocs = append(allocs, merkle.Allocation{
			Address: common.HexToAddress(addr),
			Value:   value,
			Amount:  amount,
		})
	}
	if len(allocs) == 0 {
		return nil, merkle.ErrEmptyTree
	}
	return allocs, nil
}
