package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Step operations.
const (
	OpInsertContract = "insert_contract"
	OpInsertRate     = "insert_rate"
	OpUpdateContract = "update_contract"
	OpUpdateRate     = "update_rate"
	OpSubmit         = "submit"
	OpUnlockContract = "unlock_contract"
	OpUnlockRate     = "unlock_rate"
)

// Scenario is a scripted sequence of revision operations.
type Scenario struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Steps       []Step      `yaml:"steps"`
	Assertions  []Assertion `yaml:"assertions"`
}

// Step is one operation. Which fields apply depends on Op.
type Step struct {
	Op string `yaml:"op"`

	// Ref names the entity created by an insert, or targeted by an
	// update or unlock.
	Ref string `yaml:"ref,omitempty"`

	// State is the state code for inserts; MN when empty.
	State string `yaml:"state,omitempty"`

	// Form replaces the default form data. Keys are the JSON field names.
	Form map[string]any `yaml:"form,omitempty"`

	// Contract is the contract ref of a submit.
	Contract string `yaml:"contract,omitempty"`

	// Rates and Contracts are the refs linked by inserts and updates, and
	// the rates of a submit.
	Rates     []string `yaml:"rates,omitempty"`
	Contracts []string `yaml:"contracts,omitempty"`

	By     string `yaml:"by,omitempty"`
	Reason string `yaml:"reason,omitempty"`

	// ExpectError is the error code the step must fail with.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// Assertion checks the history of one contract or rate.
type Assertion struct {
	Contract string `yaml:"contract,omitempty"`
	Rate     string `yaml:"rate,omitempty"`

	// Status is checked when set.
	Status string `yaml:"status,omitempty"`

	// Revisions, newest first, is checked when set.
	Revisions []SetExpectation `yaml:"revisions,omitempty"`

	// Draft lists the draft's members; checked when set. An empty list
	// asserts there is no draft.
	Draft *[]string `yaml:"draft,omitempty"`
}

// SetExpectation describes one history row.
type SetExpectation struct {
	Reason   string   `yaml:"reason,omitempty"`
	Revision int      `yaml:"revision,omitempty"`
	Members  []string `yaml:"members"`
}

// LoadScenario reads a scenario file. Unknown fields are rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates a scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	kinds := map[string]string{}
	for i, step := range s.Steps {
		switch step.Op {
		case OpInsertContract, OpInsertRate:
			if step.Ref == "" {
				return fmt.Errorf("steps[%d]: ref is required for %s", i, step.Op)
			}
			if _, ok := kinds[step.Ref]; ok {
				return fmt.Errorf("steps[%d]: ref %q already used", i, step.Ref)
			}
			kinds[step.Ref] = step.Op
		case OpUpdateContract, OpUpdateRate, OpUnlockContract, OpUnlockRate:
			if step.Ref == "" {
				return fmt.Errorf("steps[%d]: ref is required for %s", i, step.Op)
			}
		case OpSubmit:
			if step.Contract == "" && len(step.Rates) == 0 && step.ExpectError == "" {
				return fmt.Errorf("steps[%d]: submit needs a contract or rates", i)
			}
		case "":
			return fmt.Errorf("steps[%d]: op is required", i)
		default:
			return fmt.Errorf("steps[%d]: unknown op %q", i, step.Op)
		}
	}

	for i, a := range s.Assertions {
		if (a.Contract == "") == (a.Rate == "") {
			return fmt.Errorf("assertions[%d]: exactly one of contract and rate is required", i)
		}
		if a.Contract != "" && kinds[a.Contract] != OpInsertContract {
			return fmt.Errorf("assertions[%d]: %q is not a contract ref", i, a.Contract)
		}
		if a.Rate != "" && kinds[a.Rate] != OpInsertRate {
			return fmt.Errorf("assertions[%d]: %q is not a rate ref", i, a.Rate)
		}
	}
	return nil
}
