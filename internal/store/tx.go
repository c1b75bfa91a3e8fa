package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"

	"github.com/Enterprise-CMCS/managed-care-review-sub005/internal/domain"
)

// Tx is one store transaction. Every engine operation receives a Tx
// explicitly so that several operations can share one transaction.
type Tx struct {
	tx      *sqlx.Tx
	dialect Dialect
	flavor  sqlbuilder.Flavor
}

// Commit commits the transaction.
func (t *Tx) Commit() error {
	return t.tx.Commit()
}

// Rollback aborts the transaction.
func (t *Tx) Rollback() error {
	return t.tx.Rollback()
}

// Dialect reports the backend of the transaction.
func (t *Tx) Dialect() Dialect {
	return t.dialect
}

func (t *Tx) get(ctx context.Context, dest any, b sqlbuilder.Builder) error {
	query, args := b.Build()
	return t.tx.GetContext(ctx, dest, query, args...)
}

func (t *Tx) selectAll(ctx context.Context, dest any, b sqlbuilder.Builder) error {
	query, args := b.Build()
	return t.tx.SelectContext(ctx, dest, query, args...)
}

func (t *Tx) exec(ctx context.Context, b sqlbuilder.Builder) (sql.Result, error) {
	query, args := b.Build()
	return t.tx.ExecContext(ctx, query, args...)
}

// getOptional is get that maps "no rows" to found=false.
func (t *Tx) getOptional(ctx context.Context, dest any, b sqlbuilder.Builder) (bool, error) {
	err := t.get(ctx, dest, b)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func entityTable(kind domain.Kind) string {
	if kind == domain.KindContract {
		return "contracts"
	}
	return "rates"
}

func revisionTable(kind domain.Kind) string {
	if kind == domain.KindContract {
		return "contract_revisions"
	}
	return "rate_revisions"
}

func entityColumn(kind domain.Kind) string {
	if kind == domain.KindContract {
		return "contract_id"
	}
	return "rate_id"
}

func checkKind(kind domain.Kind) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown kind %q", kind)
	}
	return nil
}

func toAny(ids []string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}
