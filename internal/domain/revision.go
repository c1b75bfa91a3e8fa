package domain

import "time"

// Contract is the stable identity of a contract across its revisions.
type Contract struct {
	ID          string    `json:"id"`
	StateCode   string    `json:"state_code"`
	StateNumber int       `json:"state_number"`
	CreatedAt   time.Time `json:"created_at"`
}

// Rate is the stable identity of a rate certification across its revisions.
type Rate struct {
	ID          string    `json:"id"`
	StateCode   string    `json:"state_code"`
	StateNumber int       `json:"state_number"`
	CreatedAt   time.Time `json:"created_at"`
}

// RevisionInfo is the part of a revision shared by both kinds.
//
// SubmitInfo is nil while the revision is a draft. UnlockInfo is set when
// the revision was opened by an unlock of its predecessor.
type RevisionInfo struct {
	ID           string      `json:"id"`
	EntityID     string      `json:"entity_id"`
	Number       int         `json:"number"`
	CreatedAt    time.Time   `json:"created_at"`
	SubmitInfo   *UpdateInfo `json:"submit_info,omitempty"`
	UnlockInfo   *UpdateInfo `json:"unlock_info,omitempty"`
	FormDataHash string      `json:"form_data_hash"`
}

// IsSubmitted reports whether the revision is frozen.
func (r RevisionInfo) IsSubmitted() bool {
	return r.SubmitInfo != nil
}

// ContractRevision is one version of a contract's form data.
type ContractRevision struct {
	RevisionInfo
	FormData ContractFormData `json:"form_data"`
}

// RateRevision is one version of a rate's form data.
type RateRevision struct {
	RevisionInfo
	FormData RateFormData `json:"form_data"`
}
