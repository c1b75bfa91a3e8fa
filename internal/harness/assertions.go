package harness

import (
	"fmt"
	"slices"
)

// EvaluateAssertions checks every assertion against the snapshot and
// returns one message per mismatch.
func EvaluateAssertions(snap Snapshot, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		label, entity, ok := lookup(snap, a)
		if !ok {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %s not found", i, label))
			continue
		}
		for _, msg := range checkEntity(entity, a) {
			errs = append(errs, fmt.Sprintf("assertions[%d] %s: %s", i, label, msg))
		}
	}
	return errs
}

func lookup(snap Snapshot, a Assertion) (string, EntitySnapshot, bool) {
	list, label := snap.Rates, "rate "+a.Rate
	ref := a.Rate
	if a.Contract != "" {
		list, label, ref = snap.Contracts, "contract "+a.Contract, a.Contract
	}
	for _, e := range list {
		if e.Ref == ref {
			return label, e, true
		}
	}
	return label, EntitySnapshot{}, false
}

func checkEntity(e EntitySnapshot, a Assertion) []string {
	var errs []string
	if a.Status != "" && a.Status != e.Status {
		errs = append(errs, fmt.Sprintf("status: expected %s, got %s", a.Status, e.Status))
	}

	if a.Draft != nil {
		switch {
		case len(*a.Draft) == 0 && e.Draft != nil:
			errs = append(errs, fmt.Sprintf("draft: expected none, got %v", *e.Draft))
		case len(*a.Draft) > 0 && e.Draft == nil:
			errs = append(errs, fmt.Sprintf("draft: expected %v, got none", *a.Draft))
		case len(*a.Draft) > 0 && !slices.Equal(*a.Draft, *e.Draft):
			errs = append(errs, fmt.Sprintf("draft: expected %v, got %v", *a.Draft, *e.Draft))
		}
	}

	if a.Revisions == nil {
		return errs
	}
	if len(a.Revisions) != len(e.Revisions) {
		return append(errs, fmt.Sprintf("revisions: expected %d sets, got %d", len(a.Revisions), len(e.Revisions)))
	}
	for i, want := range a.Revisions {
		got := e.Revisions[i]
		if want.Reason != "" && want.Reason != got.Reason {
			errs = append(errs, fmt.Sprintf("revisions[%d].reason: expected %q, got %q", i, want.Reason, got.Reason))
		}
		if want.Revision != 0 && want.Revision != got.Revision {
			errs = append(errs, fmt.Sprintf("revisions[%d].revision: expected %d, got %d", i, want.Revision, got.Revision))
		}
		if !slices.Equal(nonNil(want.Members), got.Members) {
			errs = append(errs, fmt.Sprintf("revisions[%d].members: expected %v, got %v", i, want.Members, got.Members))
		}
	}
	return errs
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
