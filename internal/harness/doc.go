// Package harness runs revision scenarios written in YAML.
//
// A scenario is a list of steps (insert, update, submit, unlock) run
// against a fresh in-memory store with a deterministic clock and ids,
// followed by assertions on the reconstructed histories. Entities are
// named by refs chosen in the scenario; history members are written as
// "<ref>#<revision number>".
//
//	name: rate-resubmitted
//	description: a rate resubmission adds a row to its contract's history
//	steps:
//	  - op: insert_rate
//	    ref: R1
//	  - op: insert_contract
//	    ref: A
//	    rates: [R1]
//	  - op: submit
//	    contract: A
//	    rates: [R1]
//	    reason: initial
//	assertions:
//	  - contract: A
//	    status: SUBMITTED
//	    revisions:
//	      - reason: initial
//	        members: ["R1#1"]
//
// RunWithGolden also compares a canonical JSON snapshot of every history
// against testdata/golden/<name>.golden.
package harness
