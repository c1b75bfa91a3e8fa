package domain

// ContractRevisionSet is one row of a contract's history: the contract
// revision together with the rate revisions attached at that moment.
//
// SubmitInfo is the update that produced the row. For the first row of a
// revision it is the revision's own submission; later rows come from rate
// submissions that changed the contract's composition.
type ContractRevisionSet struct {
	RevisionID     string           `json:"revision_id"`
	RevisionNumber int              `json:"revision_number"`
	SubmitInfo     UpdateInfo       `json:"submit_info"`
	UnlockInfo     *UpdateInfo      `json:"unlock_info,omitempty"`
	FormData       ContractFormData `json:"form_data"`
	FormDataHash   string           `json:"form_data_hash"`
	RateRevisions  []RateRevision   `json:"rate_revisions"`
}

// RateRevisionSet is one row of a rate's history.
type RateRevisionSet struct {
	RevisionID        string             `json:"revision_id"`
	RevisionNumber    int                `json:"revision_number"`
	SubmitInfo        UpdateInfo         `json:"submit_info"`
	UnlockInfo        *UpdateInfo        `json:"unlock_info,omitempty"`
	FormData          RateFormData       `json:"form_data"`
	FormDataHash      string             `json:"form_data_hash"`
	ContractRevisions []ContractRevision `json:"contract_revisions"`
}

// ContractDraft is the pending state of an unsubmitted contract revision:
// its form data and the latest revisions of the rates it will link.
type ContractDraft struct {
	Revision ContractRevision `json:"revision"`
	Rates    []RateRevision   `json:"rates"`
}

// RateDraft is the pending state of an unsubmitted rate revision.
type RateDraft struct {
	Revision  RateRevision       `json:"revision"`
	Contracts []ContractRevision `json:"contracts"`
}

// ContractWithHistory is a contract with its submitted history, newest
// first, and its current draft if any.
type ContractWithHistory struct {
	Contract
	Name      string                `json:"name"`
	Status    Status                `json:"status"`
	Draft     *ContractDraft        `json:"draft,omitempty"`
	Revisions []ContractRevisionSet `json:"revisions"`
}

// RateWithHistory is a rate with its submitted history, newest first.
type RateWithHistory struct {
	Rate
	Name      string            `json:"name"`
	Status    Status            `json:"status"`
	Draft     *RateDraft        `json:"draft,omitempty"`
	Revisions []RateRevisionSet `json:"revisions"`
}

// ContractSummary is a listing entry.
type ContractSummary struct {
	Contract
	Name   string `json:"name"`
	Status Status `json:"status"`
}

// RateSummary is a listing entry.
type RateSummary struct {
	Rate
	Name   string `json:"name"`
	Status Status `json:"status"`
}
