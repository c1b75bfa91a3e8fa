package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Enterprise-CMCS/managed-care-review-sub005/internal/domain"
)

// NextSeq returns the next event sequence number. Two concurrent writers
// that read the same value collide on the unique seq index and one of
// them aborts.
func (t *Tx) NextSeq(ctx context.Context) (int64, error) {
	sb := t.flavor.NewSelectBuilder()
	sb.Select("COALESCE(MAX(seq), 0) + 1").From("update_infos")

	var seq int64
	if err := t.get(ctx, &seq, sb); err != nil {
		return 0, fmt.Errorf("next seq: %w", err)
	}
	return seq, nil
}

// InsertUpdateInfo writes an update info record.
func (t *Tx) InsertUpdateInfo(ctx context.Context, info domain.UpdateInfo) error {
	ib := t.flavor.NewInsertBuilder()
	ib.InsertInto("update_infos").
		Cols("id", "seq", "updated_at", "updated_by", "updated_reason").
		Values(info.ID, info.Seq, info.UpdatedAt, info.UpdatedBy, info.UpdatedReason)
	if _, err := t.exec(ctx, ib); err != nil {
		return fmt.Errorf("insert update info: %w", err)
	}
	return nil
}

// GetUpdateInfos returns the update infos with the given ids, keyed by id.
func (t *Tx) GetUpdateInfos(ctx context.Context, ids []string) (map[string]domain.UpdateInfo, error) {
	out := make(map[string]domain.UpdateInfo, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	sb := t.flavor.NewSelectBuilder()
	sb.Select("id", "seq", "updated_at", "updated_by", "updated_reason").
		From("update_infos").
		Where(sb.In("id", toAny(ids)...))

	rows := []updateInfoRow{}
	if err := t.selectAll(ctx, &rows, sb); err != nil {
		return nil, fmt.Errorf("get update infos: %w", err)
	}
	for _, r := range rows {
		out[r.ID] = r.toDomain()
	}
	return out, nil
}

// InsertRelated records revisions whose composition the update changed.
func (t *Tx) InsertRelated(ctx context.Context, updateInfoID string, kind domain.Kind, revisionIDs []string) error {
	if err := checkKind(kind); err != nil {
		return fmt.Errorf("insert related: %w", err)
	}
	if len(revisionIDs) == 0 {
		return nil
	}
	ib := t.flavor.NewInsertBuilder()
	ib.InsertInto("update_info_related").Cols("update_info_id", "kind", "revision_id")
	for _, id := range revisionIDs {
		ib.Values(updateInfoID, string(kind), id)
	}
	ib.SQL("ON CONFLICT DO NOTHING")
	if _, err := t.exec(ctx, ib); err != nil {
		return fmt.Errorf("insert related: %w", err)
	}
	return nil
}

// RelatedRevisionIDs returns the revisions of one kind recorded as related
// to an update, in id order.
func (t *Tx) RelatedRevisionIDs(ctx context.Context, updateInfoID string, kind domain.Kind) ([]string, error) {
	sb := t.flavor.NewSelectBuilder()
	sb.Select("revision_id").
		From("update_info_related").
		Where(sb.Equal("update_info_id", updateInfoID), sb.Equal("kind", string(kind))).
		OrderBy("revision_id ASC")

	ids := []string{}
	if err := t.selectAll(ctx, &ids, sb); err != nil {
		return nil, fmt.Errorf("related revisions: %w", err)
	}
	return ids, nil
}

// LastEventSeq returns the seq of the most recent event before beforeSeq
// that touched the entity: a submission of one of its revisions or an
// update that recorded one of them as related. found is false when there
// is no such event.
func (t *Tx) LastEventSeq(ctx context.Context, kind domain.Kind, entityID string, beforeSeq int64) (seq int64, found bool, err error) {
	if err := checkKind(kind); err != nil {
		return 0, false, fmt.Errorf("last event seq: %w", err)
	}
	query := fmt.Sprintf(`
		SELECT MAX(u.seq) FROM update_infos u
		WHERE u.seq < ?
		AND (
			u.id IN (SELECT submit_info_id FROM %[1]s WHERE %[2]s = ? AND submit_info_id IS NOT NULL)
			OR u.id IN (
				SELECT r.update_info_id FROM update_info_related r
				JOIN %[1]s rev ON rev.id = r.revision_id
				WHERE r.kind = ? AND rev.%[2]s = ?
			)
		)`, revisionTable(kind), entityColumn(kind))

	var max sql.NullInt64
	if err := t.tx.GetContext(ctx, &max, t.tx.Rebind(query), beforeSeq, entityID, string(kind), entityID); err != nil {
		return 0, false, fmt.Errorf("last event seq: %w", err)
	}
	if !max.Valid {
		return 0, false, nil
	}
	return max.Int64, true, nil
}
