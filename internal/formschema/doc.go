// Package formschema validates contract and rate form data against an
// embedded CUE schema.
//
// Two levels are checked. Draft validation rejects malformed values but
// accepts missing fields; submission validation additionally requires
// every field a frozen revision must carry.
package formschema
