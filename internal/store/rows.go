package store

import (
	"time"

	"github.com/Enterprise-CMCS/managed-care-review-sub005/internal/domain"
)

// EntityRow is a row of contracts or rates.
type EntityRow struct {
	ID          string    `db:"id"`
	StateCode   string    `db:"state_code"`
	StateNumber int       `db:"state_number"`
	CreatedAt   time.Time `db:"created_at"`
}

// RevisionRow is a row of contract_revisions or rate_revisions. FormData
// is the JSON encoding of the kind's form data.
type RevisionRow struct {
	ID           string    `db:"id"`
	EntityID     string    `db:"entity_id"`
	Number       int       `db:"number"`
	CreatedAt    time.Time `db:"created_at"`
	SubmitInfoID *string   `db:"submit_info_id"`
	UnlockInfoID *string   `db:"unlock_info_id"`
	FormData     string    `db:"form_data"`
	FormDataHash string    `db:"form_data_hash"`
}

// IsSubmitted reports whether the revision is frozen.
func (r RevisionRow) IsSubmitted() bool {
	return r.SubmitInfoID != nil
}

type updateInfoRow struct {
	ID            string    `db:"id"`
	Seq           int64     `db:"seq"`
	UpdatedAt     time.Time `db:"updated_at"`
	UpdatedBy     string    `db:"updated_by"`
	UpdatedReason string    `db:"updated_reason"`
}

func (r updateInfoRow) toDomain() domain.UpdateInfo {
	return domain.UpdateInfo{
		ID:            r.ID,
		Seq:           r.Seq,
		UpdatedAt:     r.UpdatedAt,
		UpdatedBy:     r.UpdatedBy,
		UpdatedReason: r.UpdatedReason,
	}
}

// LinkRow is a revision link together with the entity ids of both sides.
type LinkRow struct {
	ID                 string     `db:"id"`
	ContractRevisionID string     `db:"contract_revision_id"`
	RateRevisionID     string     `db:"rate_revision_id"`
	ContractID         string     `db:"contract_id"`
	RateID             string     `db:"rate_id"`
	ValidAfter         time.Time  `db:"valid_after"`
	ValidAfterSeq      int64      `db:"valid_after_seq"`
	ValidUntil         *time.Time `db:"valid_until"`
	ValidUntilSeq      *int64     `db:"valid_until_seq"`
	IsRemoval          bool       `db:"is_removal"`
	RatePosition       int        `db:"rate_position"`
}

// Link returns the domain form of the row.
func (r LinkRow) Link() domain.Link {
	return domain.Link{
		ID:                 r.ID,
		ContractRevisionID: r.ContractRevisionID,
		RateRevisionID:     r.RateRevisionID,
		ValidAfter:         r.ValidAfter,
		ValidAfterSeq:      r.ValidAfterSeq,
		ValidUntil:         r.ValidUntil,
		ValidUntilSeq:      r.ValidUntilSeq,
		IsRemoval:          r.IsRemoval,
		RatePosition:       r.RatePosition,
	}
}

// RevisionID returns the id of the revision on the given side.
func (r LinkRow) RevisionID(side domain.Kind) string {
	if side == domain.KindContract {
		return r.ContractRevisionID
	}
	return r.RateRevisionID
}

// EntityID returns the id of the entity on the given side.
func (r LinkRow) EntityID(side domain.Kind) string {
	if side == domain.KindContract {
		return r.ContractID
	}
	return r.RateID
}

type draftLinkRow struct {
	ContractID   string `db:"contract_id"`
	RateID       string `db:"rate_id"`
	RatePosition int    `db:"rate_position"`
}
