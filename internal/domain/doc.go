// Package domain defines the Contract/Rate revision model shared by every
// other package.
//
// This package contains type definitions and error codes only. It imports
// nothing internal, so the store, the revision engines and the outer
// surfaces (HTTP, CLI, harness) can all depend on it.
//
// Key constraints:
//   - A submitted revision is frozen; only drafts carry mutable form data
//   - Event order is the UpdateInfo sequence number, never the wall clock
//   - All JSON tags use snake_case
package domain
