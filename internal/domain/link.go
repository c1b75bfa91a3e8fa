package domain

import "time"

// Link is one row of the append-only relationship table between a
// contract revision and a rate revision.
//
// A link is valid from ValidAfterSeq (inclusive) until ValidUntilSeq
// (exclusive). A removal link records that the rate was dropped from the
// contract at ValidAfterSeq; it is never closed. Rows are never deleted.
type Link struct {
	ID                 string     `json:"id"`
	ContractRevisionID string     `json:"contract_revision_id"`
	RateRevisionID     string     `json:"rate_revision_id"`
	ValidAfter         time.Time  `json:"valid_after"`
	ValidAfterSeq      int64      `json:"valid_after_seq"`
	ValidUntil         *time.Time `json:"valid_until,omitempty"`
	ValidUntilSeq      *int64     `json:"valid_until_seq,omitempty"`
	IsRemoval          bool       `json:"is_removal"`
	RatePosition       int        `json:"rate_position"`
}

// ValidAt reports whether a non-removal link belongs to the composition
// in effect at event seq.
func (l Link) ValidAt(seq int64) bool {
	if l.IsRemoval || l.ValidAfterSeq > seq {
		return false
	}
	return l.ValidUntilSeq == nil || *l.ValidUntilSeq > seq
}

// DraftLink is a pending association between a contract and a rate that
// takes effect when the draft side is submitted.
type DraftLink struct {
	ContractID   string `json:"contract_id"`
	RateID       string `json:"rate_id"`
	RatePosition int    `json:"rate_position"`
}
