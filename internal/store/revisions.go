package store

import (
	"context"
	"fmt"

	"github.com/huandu/go-sqlbuilder"

	"github.com/Enterprise-CMCS/managed-care-review-sub005/internal/domain"
)

func (t *Tx) revisionSelect(kind domain.Kind) *sqlbuilder.SelectBuilder {
	sb := t.flavor.NewSelectBuilder()
	sb.Select(
		"id",
		sb.As(entityColumn(kind), "entity_id"),
		"number",
		"created_at",
		"submit_info_id",
		"unlock_info_id",
		"form_data",
		"form_data_hash",
	).From(revisionTable(kind))
	return sb
}

// InsertRevision writes a new revision row.
func (t *Tx) InsertRevision(ctx context.Context, kind domain.Kind, row RevisionRow) error {
	if err := checkKind(kind); err != nil {
		return fmt.Errorf("insert revision: %w", err)
	}
	ib := t.flavor.NewInsertBuilder()
	ib.InsertInto(revisionTable(kind)).
		Cols("id", entityColumn(kind), "number", "created_at", "submit_info_id", "unlock_info_id", "form_data", "form_data_hash").
		Values(row.ID, row.EntityID, row.Number, row.CreatedAt, row.SubmitInfoID, row.UnlockInfoID, row.FormData, row.FormDataHash)
	if _, err := t.exec(ctx, ib); err != nil {
		return fmt.Errorf("insert %s: %w", revisionTable(kind), err)
	}
	return nil
}

// GetRevision returns a revision by id, or ErrNotFound.
func (t *Tx) GetRevision(ctx context.Context, kind domain.Kind, id string) (RevisionRow, error) {
	if err := checkKind(kind); err != nil {
		return RevisionRow{}, fmt.Errorf("get revision: %w", err)
	}
	sb := t.revisionSelect(kind)
	sb.Where(sb.Equal("id", id))

	var row RevisionRow
	found, err := t.getOptional(ctx, &row, sb)
	if err != nil {
		return RevisionRow{}, fmt.Errorf("get %s: %w", revisionTable(kind), err)
	}
	if !found {
		return RevisionRow{}, fmt.Errorf("get %s %s: %w", revisionTable(kind), id, ErrNotFound)
	}
	return row, nil
}

// GetRevisions returns the revisions with the given ids, keyed by id.
// Unknown ids are absent from the map.
func (t *Tx) GetRevisions(ctx context.Context, kind domain.Kind, ids []string) (map[string]RevisionRow, error) {
	if err := checkKind(kind); err != nil {
		return nil, fmt.Errorf("get revisions: %w", err)
	}
	out := make(map[string]RevisionRow, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	sb := t.revisionSelect(kind)
	sb.Where(sb.In("id", toAny(ids)...))

	rows := []RevisionRow{}
	if err := t.selectAll(ctx, &rows, sb); err != nil {
		return nil, fmt.Errorf("get %s: %w", revisionTable(kind), err)
	}
	for _, r := range rows {
		out[r.ID] = r
	}
	return out, nil
}

// ListRevisions returns every revision of an entity in creation order.
func (t *Tx) ListRevisions(ctx context.Context, kind domain.Kind, entityID string) ([]RevisionRow, error) {
	if err := checkKind(kind); err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	sb := t.revisionSelect(kind)
	sb.Where(sb.Equal(entityColumn(kind), entityID)).OrderBy("number ASC")

	rows := []RevisionRow{}
	if err := t.selectAll(ctx, &rows, sb); err != nil {
		return nil, fmt.Errorf("list %s: %w", revisionTable(kind), err)
	}
	return rows, nil
}

// DraftRevision returns the entity's draft revision, or nil if it has
// none. With forUpdate on PostgreSQL the row is locked until the
// transaction ends; SQLite transactions already hold the write lock.
func (t *Tx) DraftRevision(ctx context.Context, kind domain.Kind, entityID string, forUpdate bool) (*RevisionRow, error) {
	if err := checkKind(kind); err != nil {
		return nil, fmt.Errorf("draft revision: %w", err)
	}
	sb := t.revisionSelect(kind)
	sb.Where(sb.Equal(entityColumn(kind), entityID), sb.IsNull("submit_info_id"))

	query, args := sb.Build()
	if forUpdate && t.dialect == DialectPostgres {
		query += " FOR UPDATE"
	}

	rows := []RevisionRow{}
	if err := t.tx.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("draft %s: %w", revisionTable(kind), err)
	}
	switch len(rows) {
	case 0:
		return nil, nil
	case 1:
		return &rows[0], nil
	default:
		return nil, fmt.Errorf("draft %s: %d drafts for %s", revisionTable(kind), len(rows), entityID)
	}
}

// LatestRevision returns the entity's highest-numbered revision, or nil.
func (t *Tx) LatestRevision(ctx context.Context, kind domain.Kind, entityID string) (*RevisionRow, error) {
	return t.latestRevision(ctx, kind, entityID, false)
}

// LatestSubmittedRevision returns the entity's highest-numbered submitted
// revision, or nil if it was never submitted.
func (t *Tx) LatestSubmittedRevision(ctx context.Context, kind domain.Kind, entityID string) (*RevisionRow, error) {
	return t.latestRevision(ctx, kind, entityID, true)
}

func (t *Tx) latestRevision(ctx context.Context, kind domain.Kind, entityID string, submittedOnly bool) (*RevisionRow, error) {
	if err := checkKind(kind); err != nil {
		return nil, fmt.Errorf("latest revision: %w", err)
	}
	sb := t.revisionSelect(kind)
	sb.Where(sb.Equal(entityColumn(kind), entityID))
	if submittedOnly {
		sb.Where(sb.IsNotNull("submit_info_id"))
	}
	sb.OrderBy("number DESC").Limit(1)

	var row RevisionRow
	found, err := t.getOptional(ctx, &row, sb)
	if err != nil {
		return nil, fmt.Errorf("latest %s: %w", revisionTable(kind), err)
	}
	if !found {
		return nil, nil
	}
	return &row, nil
}

// NextRevisionNumber returns one past the entity's highest revision number.
func (t *Tx) NextRevisionNumber(ctx context.Context, kind domain.Kind, entityID string) (int, error) {
	if err := checkKind(kind); err != nil {
		return 0, fmt.Errorf("next revision number: %w", err)
	}
	sb := t.flavor.NewSelectBuilder()
	sb.Select("COALESCE(MAX(number), 0) + 1").
		From(revisionTable(kind)).
		Where(sb.Equal(entityColumn(kind), entityID))

	var n int
	if err := t.get(ctx, &n, sb); err != nil {
		return 0, fmt.Errorf("next %s number: %w", revisionTable(kind), err)
	}
	return n, nil
}

// UpdateDraftFormData replaces the form data of a draft revision.
func (t *Tx) UpdateDraftFormData(ctx context.Context, kind domain.Kind, revisionID, formData, hash string) error {
	if err := checkKind(kind); err != nil {
		return fmt.Errorf("update draft form data: %w", err)
	}
	ub := t.flavor.NewUpdateBuilder()
	ub.Update(revisionTable(kind)).
		Set(ub.Assign("form_data", formData), ub.Assign("form_data_hash", hash)).
		Where(ub.Equal("id", revisionID), ub.IsNull("submit_info_id"))
	return t.expectOneRow(ctx, ub, "update draft "+revisionTable(kind), revisionID)
}

// StampSubmitInfo freezes a draft revision under the given update info.
func (t *Tx) StampSubmitInfo(ctx context.Context, kind domain.Kind, revisionID, updateInfoID string) error {
	if err := checkKind(kind); err != nil {
		return fmt.Errorf("stamp submit info: %w", err)
	}
	ub := t.flavor.NewUpdateBuilder()
	ub.Update(revisionTable(kind)).
		Set(ub.Assign("submit_info_id", updateInfoID)).
		Where(ub.Equal("id", revisionID), ub.IsNull("submit_info_id"))
	return t.expectOneRow(ctx, ub, "stamp "+revisionTable(kind), revisionID)
}

func (t *Tx) expectOneRow(ctx context.Context, b sqlbuilder.Builder, op, id string) error {
	res, err := t.exec(ctx, b)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n != 1 {
		return fmt.Errorf("%s %s: draft %w", op, id, ErrNotFound)
	}
	return nil
}
