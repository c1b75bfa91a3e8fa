package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/Enterprise-CMCS/managed-care-review-sub005/internal/canonical"
)

// RunWithGolden runs a scenario, fails the test on any scenario error and
// compares the history snapshot against testdata/golden/<name>.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, s *Scenario) *Result {
	t.Helper()

	result, err := Run(context.Background(), s)
	if err != nil {
		t.Fatalf("run scenario %s: %v", s.Name, err)
	}
	for _, msg := range result.Errors {
		t.Errorf("%s: %s", s.Name, msg)
	}
	AssertGolden(t, s.Name, result.Snapshot)
	return result
}

// AssertGolden compares a snapshot's canonical JSON against its golden file.
func AssertGolden(t *testing.T, name string, snap Snapshot) {
	t.Helper()

	data, err := canonical.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
}
