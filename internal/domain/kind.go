package domain

// Kind identifies which side of the contract/rate relationship an entity
// or revision belongs to.
type Kind string

const (
	KindContract Kind = "CONTRACT"
	KindRate     Kind = "RATE"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindContract || k == KindRate
}

// Other returns the opposite side of the relationship.
func (k Kind) Other() Kind {
	if k == KindContract {
		return KindRate
	}
	return KindContract
}

// Status is the review status derived from an entity's revisions.
type Status string

const (
	// StatusDraft: never submitted.
	StatusDraft Status = "DRAFT"
	// StatusSubmitted: latest revision is the first submission.
	StatusSubmitted Status = "SUBMITTED"
	// StatusUnlocked: latest revision is a draft opened by an unlock.
	StatusUnlocked Status = "UNLOCKED"
	// StatusResubmitted: latest revision is submitted and was opened by an unlock.
	StatusResubmitted Status = "RESUBMITTED"
)
