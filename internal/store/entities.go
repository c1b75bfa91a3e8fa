package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/Enterprise-CMCS/managed-care-review-sub005/internal/domain"
)

// NextStateNumber reserves the next per-state number for a new entity of
// the given kind. Contracts and rates are numbered independently.
func (t *Tx) NextStateNumber(ctx context.Context, kind domain.Kind, stateCode string) (int, error) {
	if err := checkKind(kind); err != nil {
		return 0, fmt.Errorf("next state number: %w", err)
	}
	column := "latest_rate_number"
	if kind == domain.KindContract {
		column = "latest_contract_number"
	}
	stateCode = strings.ToUpper(stateCode)

	ib := t.flavor.NewInsertBuilder()
	ib.InsertInto("states").Cols("state_code").Values(stateCode)
	ib.SQL("ON CONFLICT (state_code) DO NOTHING")
	if _, err := t.exec(ctx, ib); err != nil {
		return 0, fmt.Errorf("next state number: %w", err)
	}

	ub := t.flavor.NewUpdateBuilder()
	ub.Update("states").Set(ub.Incr(column)).Where(ub.Equal("state_code", stateCode))
	if _, err := t.exec(ctx, ub); err != nil {
		return 0, fmt.Errorf("next state number: %w", err)
	}

	sb := t.flavor.NewSelectBuilder()
	sb.Select(column).From("states").Where(sb.Equal("state_code", stateCode))
	var n int
	if err := t.get(ctx, &n, sb); err != nil {
		return 0, fmt.Errorf("next state number: %w", err)
	}
	return n, nil
}

// InsertEntity writes a new contract or rate row.
func (t *Tx) InsertEntity(ctx context.Context, kind domain.Kind, row EntityRow) error {
	if err := checkKind(kind); err != nil {
		return fmt.Errorf("insert entity: %w", err)
	}
	ib := t.flavor.NewInsertBuilder()
	ib.InsertInto(entityTable(kind)).
		Cols("id", "state_code", "state_number", "created_at").
		Values(row.ID, strings.ToUpper(row.StateCode), row.StateNumber, row.CreatedAt)
	if _, err := t.exec(ctx, ib); err != nil {
		return fmt.Errorf("insert %s: %w", entityTable(kind), err)
	}
	return nil
}

// GetEntity returns a contract or rate by id, or ErrNotFound.
func (t *Tx) GetEntity(ctx context.Context, kind domain.Kind, id string) (EntityRow, error) {
	if err := checkKind(kind); err != nil {
		return EntityRow{}, fmt.Errorf("get entity: %w", err)
	}
	sb := t.flavor.NewSelectBuilder()
	sb.Select("id", "state_code", "state_number", "created_at").
		From(entityTable(kind)).
		Where(sb.Equal("id", id))

	var row EntityRow
	found, err := t.getOptional(ctx, &row, sb)
	if err != nil {
		return EntityRow{}, fmt.Errorf("get %s: %w", entityTable(kind), err)
	}
	if !found {
		return EntityRow{}, fmt.Errorf("get %s %s: %w", entityTable(kind), id, ErrNotFound)
	}
	return row, nil
}

// ListEntities returns the entities of one state (all states when
// stateCode is empty) ordered by state and number.
func (t *Tx) ListEntities(ctx context.Context, kind domain.Kind, stateCode string) ([]EntityRow, error) {
	if err := checkKind(kind); err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}
	sb := t.flavor.NewSelectBuilder()
	sb.Select("id", "state_code", "state_number", "created_at").From(entityTable(kind))
	if stateCode != "" {
		sb.Where(sb.Equal("state_code", strings.ToUpper(stateCode)))
	}
	sb.OrderBy("state_code ASC", "state_number ASC", "id ASC")

	rows := []EntityRow{}
	if err := t.selectAll(ctx, &rows, sb); err != nil {
		return nil, fmt.Errorf("list %s: %w", entityTable(kind), err)
	}
	return rows, nil
}
