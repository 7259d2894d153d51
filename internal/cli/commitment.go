package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/council/internal/commitment"
	"github.com/roach88/council/internal/session"
	"github.com/roach88/council/internal/wizard"
)

// CommitmentOptions holds flags for the commitment command.
type CommitmentOptions struct {
	*RootOptions
	Key    string
	Out    string
	Resume string
}

// CommitmentView is the outcome of the private claim wizard. The key and
// secret are only ever written to the export file.
type CommitmentView struct {
	PublicID  string          `json:"public_id"`
	File      string          `json:"file,omitempty"`
	Generated bool            `json:"generated_key"`
	Step      int             `json:"step"`
	Statuses  []wizard.Status `json:"statuses"`
}

func (v CommitmentView) String() string {
	names := []string{"intro", "encryption", "share"}
	parts := make([]string, len(v.Statuses))
	for i, s := range v.Statuses {
		parts[i] = fmt.Sprintf("%s:%s", names[i], s)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Public ID: %s\n", v.PublicID)
	if v.File != "" {
		fmt.Fprintf(&b, "Key and secret written to %s\n", v.File)
	}
	fmt.Fprintf(&b, "Steps: %s", strings.Join(parts, " "))
	return b.String()
}

// NewCommitmentCommand creates the commitment command.
func NewCommitmentCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CommitmentOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "commitment",
		Short: "Create a private airdrop commitment",
		Long: `Run the private claim wizard: derive a secret from a key, export the
pair to a file and print the public ID to share.

A random key is generated unless --key is given. The share step is only
reached after the export succeeds.

With --resume the wizard continues a recorded session. A session that
already exported shows its public ID again; pass --key to replace it.

Examples:
  council commitment --out ./keys
  council commitment --resume <session-id> --key <key>`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommitment(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Key, "key", "", "commitment key (generated when empty)")
	cmd.Flags().StringVar(&opts.Out, "out", ".", "directory for the exported key and secret")
	cmd.Flags().StringVar(&opts.Resume, "resume", "", "continue a recorded commitment session")
	return cmd
}

func runCommitment(opts *CommitmentOptions, cmd *cobra.Command) error {
	e := newEnv(opts.RootOptions)
	defer e.close()
	ctx := commandContext(cmd)

	if info, err := os.Stat(opts.Out); err != nil || !info.IsDir() {
		return NewExitError(ExitCommandError, fmt.Sprintf("output directory not found: %s", opts.Out))
	}

	mgr, err := e.manager(ctx)
	if err != nil {
		return err
	}
	hasher, exporter := commitment.MiMCHasher{}, commitment.FileExporter{Dir: opts.Out}

	var c *session.Commitment
	if opts.Resume != "" {
		c, err = mgr.ResumeCommitment(ctx, opts.Resume, hasher, exporter)
		if err != nil {
			return fail("failed to resume session", err)
		}
	} else {
		c, err = mgr.StartCommitment(ctx, hasher, exporter)
		if err != nil {
			return fail("failed to start session", err)
		}
	}

	view := CommitmentView{}
	if _, restored := c.PublicID(); restored && opts.Key == "" {
		for c.State().CurrentStep < commitment.StepShare {
			if err := c.Next(); err != nil {
				return fail("failed to reach share step", err)
			}
		}
	} else {
		key := opts.Key
		view.Generated = key == ""
		if view.Generated {
			if key, err = commitment.GenerateKey(); err != nil {
				return fail("failed to generate key", err)
			}
		}
		if err := exportKey(ctx, c, key); err != nil {
			return err
		}
		view.File = filepath.Join(opts.Out, commitment.ExportName+".json")
	}
	if err := c.Tracker.Err(); err != nil {
		return fail("failed to record session", err)
	}

	view.PublicID, _ = c.PublicID()
	view.Step = c.State().CurrentStep
	view.Statuses = c.Statuses()
	return NewFormatter(cmd, opts.RootOptions).SuccessInSession(c.Tracker.ID(), view)
}

// exportKey walks c to the encryption step, exports key and moves on to
// the share step.
func exportKey(ctx context.Context, c *session.Commitment, key string) error {
	switch c.State().CurrentStep {
	case commitment.StepIntro:
		if err := c.Next(); err != nil {
			return fail("failed to reach encryption step", err)
		}
	case commitment.StepShare:
		if err := c.Previous(); err != nil {
			return fail("failed to return to encryption step", err)
		}
	}
	if _, err := c.SetKey(key); err != nil {
		return fail("failed to set key", err)
	}
	if err := c.Export(ctx); err != nil {
		return fail("export failed", err)
	}
	if err := c.Next(); err != nil {
		return fail("failed to reach share step", err)
	}
	return nil
}
