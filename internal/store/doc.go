// Package store provides transactional relational storage for contracts,
// rates, their revisions and the links between them.
//
// Tables:
//   - contracts / rates: stable entity identities, numbered per state
//   - contract_revisions / rate_revisions: form data snapshots; at most one
//     draft (submit_info_id IS NULL) per entity, enforced by a partial
//     unique index
//   - update_infos: who/when/why records with a unique, increasing seq
//   - update_info_related: revisions whose composition a submission changed
//   - revision_links: append-only bitemporal contract/rate links
//   - draft_rate_links: the mutable pending composition of drafts
//
// # Critical Patterns
//
// Event order:
//   - All ordering uses seq (assigned as MAX(seq)+1 inside the writing
//     transaction), never timestamps
//   - Link queries order by valid_after_seq ASC, id ASC
//
// Append-only:
//   - Triggers reject deletes of links, updates of closed or removal links
//     and updates of submitted revisions
//
// # Dialects
//
// SQLite (github.com/mattn/go-sqlite3) is the default. Writers are
// serialized with BEGIN IMMEDIATE on a single connection. PostgreSQL
// (github.com/lib/pq) runs write transactions at SERIALIZABLE and reads
// drafts with SELECT ... FOR UPDATE. Queries are built with
// github.com/huandu/go-sqlbuilder in the matching flavor and executed
// through github.com/jmoiron/sqlx.
package store
