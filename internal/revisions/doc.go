// Package revisions implements the bitemporal revision-linking engines:
// draft insertion and update, submission, unlock and history
// reconstruction for contracts and rates.
//
// Every operation exists in two forms. The ...InTx methods take an open
// *store.Tx so callers can compose several operations atomically (for
// example unlock, edit and resubmit in one transaction). The plain
// methods open their own transaction, log failures and record metrics.
//
// # Links
//
// Submitting a revision writes rows to the append-only link table. A
// link's validity starts at the sequence number of the submission that
// wrote it and ends when a later submission closes it. Dropping a rate
// writes a removal link instead of deleting anything. History is rebuilt
// by replaying these rows, so nothing is ever recomputed from mutable
// state.
//
// # Draft links
//
// The pending composition of drafts lives in a separate table. A draft
// contract owns the rows that name it; a rate may only add or drop rows
// for contracts that are not drafts. Rows are removed once both sides
// have a submitted latest revision.
//
// # Ordering
//
// Events are ordered by UpdateInfo.Seq, never by timestamp.
package revisions
