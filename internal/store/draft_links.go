package store

import (
	"context"
	"fmt"

	"github.com/Enterprise-CMCS/managed-care-review-sub005/internal/domain"
)

func (t *Tx) selectDraftLinks(ctx context.Context, column, id string) ([]domain.DraftLink, error) {
	sb := t.flavor.NewSelectBuilder()
	sb.Select("contract_id", "rate_id", "rate_position").
		From("draft_rate_links").
		Where(sb.Equal(column, id)).
		OrderBy("rate_position ASC", "contract_id ASC", "rate_id ASC")

	rows := []draftLinkRow{}
	if err := t.selectAll(ctx, &rows, sb); err != nil {
		return nil, fmt.Errorf("select draft links: %w", err)
	}
	out := make([]domain.DraftLink, len(rows))
	for i, r := range rows {
		out[i] = domain.DraftLink{ContractID: r.ContractID, RateID: r.RateID, RatePosition: r.RatePosition}
	}
	return out, nil
}

// DraftLinksForContract returns the contract's pending rates in position
// order.
func (t *Tx) DraftLinksForContract(ctx context.Context, contractID string) ([]domain.DraftLink, error) {
	return t.selectDraftLinks(ctx, "contract_id", contractID)
}

// DraftLinksForRate returns the pending contract associations of a rate.
func (t *Tx) DraftLinksForRate(ctx context.Context, rateID string) ([]domain.DraftLink, error) {
	return t.selectDraftLinks(ctx, "rate_id", rateID)
}

// InsertDraftLink adds a draft link unless the pair is already linked.
func (t *Tx) InsertDraftLink(ctx context.Context, dl domain.DraftLink) error {
	ib := t.flavor.NewInsertBuilder()
	ib.InsertInto("draft_rate_links").
		Cols("contract_id", "rate_id", "rate_position").
		Values(dl.ContractID, dl.RateID, dl.RatePosition)
	ib.SQL("ON CONFLICT (contract_id, rate_id) DO NOTHING")
	if _, err := t.exec(ctx, ib); err != nil {
		return fmt.Errorf("insert draft link: %w", err)
	}
	return nil
}

// DeleteDraftLink removes one pair.
func (t *Tx) DeleteDraftLink(ctx context.Context, contractID, rateID string) error {
	db := t.flavor.NewDeleteBuilder()
	db.DeleteFrom("draft_rate_links").
		Where(db.Equal("contract_id", contractID), db.Equal("rate_id", rateID))
	if _, err := t.exec(ctx, db); err != nil {
		return fmt.Errorf("delete draft link: %w", err)
	}
	return nil
}

// ReplaceContractDraftLinks sets the contract's pending rates to rateIDs,
// positions following slice order starting at 1.
func (t *Tx) ReplaceContractDraftLinks(ctx context.Context, contractID string, rateIDs []string) error {
	db := t.flavor.NewDeleteBuilder()
	db.DeleteFrom("draft_rate_links").Where(db.Equal("contract_id", contractID))
	if _, err := t.exec(ctx, db); err != nil {
		return fmt.Errorf("replace contract draft links: %w", err)
	}
	for i, rateID := range rateIDs {
		if err := t.InsertDraftLink(ctx, domain.DraftLink{ContractID: contractID, RateID: rateID, RatePosition: i + 1}); err != nil {
			return fmt.Errorf("replace contract draft links: %w", err)
		}
	}
	return nil
}

// ReplaceRateDraftLinks sets the rate's pending contracts to contractIDs.
// Rows belonging to contracts that are themselves drafts are left alone:
// a draft contract owns its composition. New rows are appended after the
// contract's existing pending rates.
func (t *Tx) ReplaceRateDraftLinks(ctx context.Context, rateID string, contractIDs []string) error {
	del := t.tx.Rebind(`
		DELETE FROM draft_rate_links
		WHERE rate_id = ?
		AND contract_id NOT IN (SELECT contract_id FROM contract_revisions WHERE submit_info_id IS NULL)`)
	if _, err := t.tx.ExecContext(ctx, del, rateID); err != nil {
		return fmt.Errorf("replace rate draft links: %w", err)
	}

	for _, contractID := range contractIDs {
		sb := t.flavor.NewSelectBuilder()
		sb.Select("COALESCE(MAX(rate_position), 0) + 1").
			From("draft_rate_links").
			Where(sb.Equal("contract_id", contractID))
		var pos int
		if err := t.get(ctx, &pos, sb); err != nil {
			return fmt.Errorf("replace rate draft links: %w", err)
		}
		if err := t.InsertDraftLink(ctx, domain.DraftLink{ContractID: contractID, RateID: rateID, RatePosition: pos}); err != nil {
			return fmt.Errorf("replace rate draft links: %w", err)
		}
	}
	return nil
}
