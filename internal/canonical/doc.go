// Package canonical produces RFC 8785 canonical JSON for form data and
// derives content hashes from it.
//
// Form data is first encoded with encoding/json (which applies omitempty
// and the snake_case tags) and decoded back into generic values with
// UseNumber, so the canonical form depends only on the JSON shape of the
// value and never on Go field order.
package canonical
