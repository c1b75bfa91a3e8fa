package domain

import (
	"fmt"
	"slices"
	"strings"
)

// ContractName is the human-facing identifier of a contract:
// MCR-<STATE>-<NNNN>-<PROGRAMS>, programs sorted and upper-cased.
func ContractName(stateCode string, stateNumber int, programIDs []string) string {
	name := fmt.Sprintf("MCR-%s-%04d", strings.ToUpper(stateCode), stateNumber)
	if len(programIDs) == 0 {
		return name
	}
	programs := make([]string, len(programIDs))
	for i, p := range programIDs {
		programs[i] = strings.ToUpper(p)
	}
	slices.Sort(programs)
	return name + "-" + strings.Join(programs, "-")
}

// RateName is the human-facing identifier of a rate: RATE-<STATE>-<NNNN>.
func RateName(stateCode string, stateNumber int) string {
	return fmt.Sprintf("RATE-%s-%04d", strings.ToUpper(stateCode), stateNumber)
}

// DeriveStatus computes the review status from the latest revision.
// latestSubmitted and latestUnlocked describe the latest revision;
// everSubmitted reports whether any revision was submitted.
func DeriveStatus(latestSubmitted, latestUnlocked, everSubmitted bool) Status {
	switch {
	case !everSubmitted:
		return StatusDraft
	case !latestSubmitted:
		return StatusUnlocked
	case latestUnlocked:
		return StatusResubmitted
	default:
		return StatusSubmitted
	}
}
