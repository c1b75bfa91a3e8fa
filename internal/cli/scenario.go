package cli

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Enterprise-CMCS/managed-care-review-sub005/internal/harness"
)

// ScenarioOptions holds flags for the scenario command.
type ScenarioOptions struct {
	*RootOptions
	Filter   string // scenario filter (glob pattern)
	Snapshot bool   // include history snapshots in the output
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name     string            `json:"name"`
	Pass     bool              `json:"pass"`
	Errors   []string          `json:"errors,omitempty"`
	Snapshot *harness.Snapshot `json:"snapshot,omitempty"`
}

// ScenarioRunResult holds the overall result.
type ScenarioRunResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewScenarioCommand creates the scenario command.
func NewScenarioCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScenarioOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "scenario <path>",
		Short: "Run scripted revision scenarios",
		Long: `Run YAML scenarios of insert, update, submit and unlock steps and
check the resulting histories against their assertions. Each scenario
runs against its own in-memory database; --db is ignored.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  mcr scenario ./scenarios
  mcr scenario ./scenarios --filter "rate-*"
  mcr scenario ./scenarios/contract-drops-rate.yaml --snapshot --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")
	cmd.Flags().BoolVar(&opts.Snapshot, "snapshot", false, "include history snapshots")
	return cmd
}

func runScenarios(opts *ScenarioOptions, path string, cmd *cobra.Command) error {
	files, err := findScenarioFiles(path, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	result := ScenarioRunResult{
		Scenarios: make([]ScenarioResult, 0, len(files)),
		Total:     len(files),
	}
	for _, file := range files {
		sr := runScenarioFile(opts, file, cmd)
		result.Scenarios = append(result.Scenarios, sr)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if err := opts.formatter(cmd).Success(result, scenarioText(result)); err != nil {
		return err
	}
	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d scenarios failed", result.Failed, result.Total))
	}
	return nil
}

// findScenarioFiles returns path itself when it is a file, and every YAML
// file under it otherwise.
func findScenarioFiles(path, filter string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := filepath.Ext(p)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			matched, err := filepath.Match(filter, strings.TrimSuffix(filepath.Base(p), ext))
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
	return files, err
}

func runScenarioFile(opts *ScenarioOptions, file string, cmd *cobra.Command) ScenarioResult {
	s, err := harness.LoadScenario(file)
	if err != nil {
		return ScenarioResult{
			Name:   filepath.Base(file),
			Errors: []string{fmt.Sprintf("failed to load scenario: %v", err)},
		}
	}

	opts.formatter(cmd).VerboseLog("running %s (%d steps)", s.Name, len(s.Steps))
	res, err := harness.Run(cmd.Context(), s)
	if err != nil {
		return ScenarioResult{
			Name:   s.Name,
			Errors: []string{fmt.Sprintf("execution failed: %v", err)},
		}
	}

	sr := ScenarioResult{Name: s.Name, Pass: res.Pass, Errors: res.Errors}
	if opts.Snapshot {
		sr.Snapshot = &res.Snapshot
	}
	return sr
}

func scenarioText(result ScenarioRunResult) string {
	if result.Total == 0 {
		return "No scenarios found.\n"
	}
	var b strings.Builder
	for _, sr := range result.Scenarios {
		if sr.Pass {
			fmt.Fprintf(&b, "✓ %s\n", sr.Name)
		} else {
			fmt.Fprintf(&b, "✗ %s\n", sr.Name)
		}
		for _, e := range sr.Errors {
			fmt.Fprintf(&b, "  %s\n", e)
		}
		if sr.Snapshot != nil {
			writeSnapshotText(&b, *sr.Snapshot)
		}
	}
	fmt.Fprintf(&b, "\n%d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
	return b.String()
}

func writeSnapshotText(b *strings.Builder, snap harness.Snapshot) {
	write := func(kind string, entities []harness.EntitySnapshot) {
		for _, e := range entities {
			fmt.Fprintf(b, "  %s %s %s %s\n", kind, e.Ref, e.Name, e.Status)
			if e.Draft != nil {
				fmt.Fprintf(b, "    draft: %s\n", joinOrNone(*e.Draft))
			}
			for _, set := range e.Revisions {
				fmt.Fprintf(b, "    seq %d rev %d %q: %s\n", set.Seq, set.Revision, set.Reason, joinOrNone(set.Members))
			}
		}
	}
	write("contract", snap.Contracts)
	write("rate", snap.Rates)
}
