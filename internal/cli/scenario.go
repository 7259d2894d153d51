package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/council/internal/harness"
)

// ScenarioOptions holds flags for the scenario command.
type ScenarioOptions struct {
	*RootOptions
	Filter string // scenario filter (glob pattern on the file name)
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string              `json:"name"`
	File   string              `json:"file"`
	Pass   bool                `json:"pass"`
	Final  *harness.FinalState `json:"final,omitempty"`
	Events int                 `json:"events"`
	Errors []string            `json:"errors,omitempty"`
}

// ScenarioReport holds the overall run.
type ScenarioReport struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

func (r ScenarioReport) String() string {
	if r.Total == 0 {
		return "No scenarios found."
	}
	var b strings.Builder
	for _, s := range r.Scenarios {
		mark := "PASS"
		if !s.Pass {
			mark = "FAIL"
		}
		fmt.Fprintf(&b, "%s %s (%d events)\n", mark, s.Name, s.Events)
		for _, e := range s.Errors {
			fmt.Fprintf(&b, "    %s\n", e)
		}
	}
	fmt.Fprintf(&b, "\n%d passed, %d failed, %d total", r.Passed, r.Failed, r.Total)
	return b.String()
}

// NewScenarioCommand creates the scenario command.
func NewScenarioCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScenarioOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "scenario <file-or-dir>...",
		Short: "Run flow scenarios",
		Long: `Run YAML flow scenarios against the wizard, commitment and airdrop flows
using an in-memory session store, checking op expectations and assertions.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, unparseable scenario)

Examples:
  council scenario ./scenarios
  council scenario ./scenarios --filter "airdrop_*"
  council scenario wizard_navigation.yaml --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")
	return cmd
}

func runScenarios(opts *ScenarioOptions, paths []string, cmd *cobra.Command) error {
	var files []string
	for _, p := range paths {
		found, err := findScenarioFiles(p, opts.Filter)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("scenario path not found: %s", p), err)
		}
		files = append(files, found...)
	}

	report := ScenarioReport{Scenarios: make([]ScenarioResult, 0, len(files)), Total: len(files)}
	for _, file := range files {
		scenario, err := harness.LoadScenario(file)
		if err != nil {
			return &ExitError{Code: ExitCommandError, Message: "invalid scenario " + file, Err: err, CodeName: CodeInput}
		}
		result, err := harness.Run(scenario)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to run "+scenario.Name, err)
		}
		report.Scenarios = append(report.Scenarios, ScenarioResult{
			Name:   scenario.Name,
			File:   file,
			Pass:   result.Pass,
			Final:  &result.Final,
			Events: len(result.Trace),
			Errors: result.Errors,
		})
		if result.Pass {
			report.Passed++
		} else {
			report.Failed++
		}
	}

	if err := NewFormatter(cmd, opts.RootOptions).Success(report); err != nil {
		return err
	}
	if report.Failed > 0 {
		return &ExitError{
			Code:     ExitFailure,
			Message:  fmt.Sprintf("%d of %d scenarios failed", report.Failed, report.Total),
			CodeName: CodeScenario,
		}
	}
	return nil
}

// findScenarioFiles returns path itself when it is a file, or the YAML
// files below it, sorted.
func findScenarioFiles(path, filter string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		ext := filepath.Ext(p)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			matched, err := filepath.Match(filter, filepath.Base(p))
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}
		files = append(files, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
