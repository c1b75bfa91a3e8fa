package harness

// Result is the outcome of a scenario run.
type Result struct {
	Scenario string   `json:"scenario"`
	Pass     bool     `json:"pass"`
	Errors   []string `json:"errors,omitempty"`
	Snapshot Snapshot `json:"snapshot"`
}

// NewResult creates a passing result.
func NewResult(scenario string) *Result {
	return &Result{Scenario: scenario, Pass: true, Errors: []string{}}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Pass = false
}

// Snapshot is the reconstructed history of every entity in a scenario,
// in the order the entities were inserted.
type Snapshot struct {
	Scenario  string           `json:"scenario"`
	Contracts []EntitySnapshot `json:"contracts"`
	Rates     []EntitySnapshot `json:"rates"`
}

// EntitySnapshot is one contract or rate. Draft is nil when the entity
// has no draft.
type EntitySnapshot struct {
	Ref       string        `json:"ref"`
	Name      string        `json:"name"`
	Status    string        `json:"status"`
	Draft     *[]string     `json:"draft,omitempty"`
	Revisions []SetSnapshot `json:"revisions"`
}

// SetSnapshot is one history row, newest first within an entity.
type SetSnapshot struct {
	Revision int      `json:"revision"`
	Seq      int64    `json:"seq"`
	Reason   string   `json:"reason"`
	Members  []string `json:"members"`
}
