package store

import (
	"context"
	"fmt"
	"time"

	"github.com/huandu/go-sqlbuilder"

	"github.com/Enterprise-CMCS/managed-care-review-sub005/internal/domain"
)

func (t *Tx) linkSelect() *sqlbuilder.SelectBuilder {
	sb := t.flavor.NewSelectBuilder()
	sb.Select(
		"l.id",
		"l.contract_revision_id",
		"l.rate_revision_id",
		"cr.contract_id",
		"rr.rate_id",
		"l.valid_after",
		"l.valid_after_seq",
		"l.valid_until",
		"l.valid_until_seq",
		"l.is_removal",
		"l.rate_position",
	).
		From(sb.As("revision_links", "l")).
		Join(sb.As("contract_revisions", "cr"), "cr.id = l.contract_revision_id").
		Join(sb.As("rate_revisions", "rr"), "rr.id = l.rate_revision_id")
	return sb
}

// linkRevisionColumn is the link column holding the revision on side.
func linkRevisionColumn(side domain.Kind) string {
	if side == domain.KindContract {
		return "l.contract_revision_id"
	}
	return "l.rate_revision_id"
}

// linkEntityColumn is the joined column holding the entity on side.
func linkEntityColumn(side domain.Kind) string {
	if side == domain.KindContract {
		return "cr.contract_id"
	}
	return "rr.rate_id"
}

// InsertLink appends a link row.
func (t *Tx) InsertLink(ctx context.Context, l domain.Link) error {
	ib := t.flavor.NewInsertBuilder()
	ib.InsertInto("revision_links").
		Cols("id", "contract_revision_id", "rate_revision_id", "valid_after", "valid_after_seq",
			"valid_until", "valid_until_seq", "is_removal", "rate_position").
		Values(l.ID, l.ContractRevisionID, l.RateRevisionID, l.ValidAfter, l.ValidAfterSeq,
			l.ValidUntil, l.ValidUntilSeq, l.IsRemoval, l.RatePosition)
	if _, err := t.exec(ctx, ib); err != nil {
		return fmt.Errorf("insert link: %w", err)
	}
	return nil
}

// CloseLink ends the validity of an open, non-removal link. It reports
// false when the link was already closed (or is a removal), so closing
// the same link from both sides of one submission is harmless.
func (t *Tx) CloseLink(ctx context.Context, linkID string, until time.Time, untilSeq int64) (bool, error) {
	ub := t.flavor.NewUpdateBuilder()
	ub.Update("revision_links").
		Set(ub.Assign("valid_until", until), ub.Assign("valid_until_seq", untilSeq)).
		Where(ub.Equal("id", linkID), ub.IsNull("valid_until"), ub.Equal("is_removal", false))

	res, err := t.exec(ctx, ub)
	if err != nil {
		return false, fmt.Errorf("close link: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("close link: %w", err)
	}
	return n == 1, nil
}

// LinksForRevisions returns every link (including removals and closed
// links) whose side revision is one of revisionIDs, ordered by
// valid_after_seq then id.
func (t *Tx) LinksForRevisions(ctx context.Context, side domain.Kind, revisionIDs []string) ([]LinkRow, error) {
	if err := checkKind(side); err != nil {
		return nil, fmt.Errorf("links for revisions: %w", err)
	}
	if len(revisionIDs) == 0 {
		return []LinkRow{}, nil
	}
	sb := t.linkSelect()
	sb.Where(sb.In(linkRevisionColumn(side), toAny(revisionIDs)...)).
		OrderBy("l.valid_after_seq ASC", "l.id ASC")
	return t.selectLinks(ctx, sb)
}

// LinksValidAt returns the non-removal links of any revision of the
// entity that were in effect at event seq, ordered by rate position.
func (t *Tx) LinksValidAt(ctx context.Context, side domain.Kind, entityID string, seq int64) ([]LinkRow, error) {
	if err := checkKind(side); err != nil {
		return nil, fmt.Errorf("links valid at: %w", err)
	}
	sb := t.linkSelect()
	sb.Where(
		sb.Equal(linkEntityColumn(side), entityID),
		sb.LessEqualThan("l.valid_after_seq", seq),
		sb.Or(sb.IsNull("l.valid_until_seq"), sb.GreaterThan("l.valid_until_seq", seq)),
		sb.Equal("l.is_removal", false),
	).OrderBy("l.rate_position ASC", "l.valid_after_seq ASC", "l.id ASC")
	return t.selectLinks(ctx, sb)
}

// OpenLinks returns the non-removal links of one revision that have not
// been closed, ordered by rate position.
func (t *Tx) OpenLinks(ctx context.Context, side domain.Kind, revisionID string) ([]LinkRow, error) {
	if err := checkKind(side); err != nil {
		return nil, fmt.Errorf("open links: %w", err)
	}
	sb := t.linkSelect()
	sb.Where(
		sb.Equal(linkRevisionColumn(side), revisionID),
		sb.IsNull("l.valid_until"),
		sb.Equal("l.is_removal", false),
	).OrderBy("l.rate_position ASC", "l.valid_after_seq ASC", "l.id ASC")
	return t.selectLinks(ctx, sb)
}

// AllLinks returns every link in event order.
func (t *Tx) AllLinks(ctx context.Context) ([]LinkRow, error) {
	sb := t.linkSelect()
	sb.OrderBy("l.valid_after_seq ASC", "l.id ASC")
	return t.selectLinks(ctx, sb)
}

func (t *Tx) selectLinks(ctx context.Context, sb *sqlbuilder.SelectBuilder) ([]LinkRow, error) {
	rows := []LinkRow{}
	if err := t.selectAll(ctx, &rows, sb); err != nil {
		return nil, fmt.Errorf("select links: %w", err)
	}
	return rows, nil
}
