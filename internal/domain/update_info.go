package domain

import "time"

// UpdateInfo records who changed something, when and why.
//
// Seq is a strictly increasing number assigned inside the store
// transaction that created the record. All ordering of events uses Seq;
// UpdatedAt is informational.
type UpdateInfo struct {
	ID            string    `json:"id"`
	Seq           int64     `json:"seq"`
	UpdatedAt     time.Time `json:"updated_at"`
	UpdatedBy     string    `json:"updated_by"`
	UpdatedReason string    `json:"updated_reason"`
}

// Submission is the result of one submit call: the shared UpdateInfo plus
// the revisions it froze and the revisions whose composition changed
// without new data.
type Submission struct {
	UpdateInfo

	SubmittedContractRevisionIDs []string `json:"submitted_contract_revision_ids"`
	SubmittedRateRevisionIDs     []string `json:"submitted_rate_revision_ids"`
	RelatedContractRevisionIDs   []string `json:"related_contract_revision_ids"`
	RelatedRateRevisionIDs       []string `json:"related_rate_revision_ids"`

	// Links holds every link row written by the submission, removals
	// included.
	Links []Link `json:"links"`
}
