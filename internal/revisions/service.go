package revisions

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Enterprise-CMCS/managed-care-review-sub005/internal/domain"
	"github.com/Enterprise-CMCS/managed-care-review-sub005/internal/formschema"
	"github.com/Enterprise-CMCS/managed-care-review-sub005/internal/metrics"
	"github.com/Enterprise-CMCS/managed-care-review-sub005/internal/store"
)

// Clock supplies timestamps for revisions, update infos and links.
// Timestamps are informational; ordering uses sequence numbers.
type Clock interface {
	Now() time.Time
}

// IDGenerator supplies ids for new rows.
type IDGenerator interface {
	NewID() string
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

type uuidGenerator struct{}

func (uuidGenerator) NewID() string { return uuid.NewString() }

// Service runs the revision engines against a store.
type Service struct {
	store   *store.Store
	clock   Clock
	ids     IDGenerator
	forms   *formschema.Validator
	metrics *metrics.Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithIDGenerator replaces random UUIDs.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Service) { s.ids = g }
}

// WithMetrics records operation metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithFormValidator shares an already compiled form schema.
func WithFormValidator(v *formschema.Validator) Option {
	return func(s *Service) { s.forms = v }
}

// New creates a Service. The form schema is compiled unless supplied.
func New(st *store.Store, opts ...Option) (*Service, error) {
	s := &Service{
		store: st,
		clock: systemClock{},
		ids:   uuidGenerator{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.forms == nil {
		forms, err := formschema.New()
		if err != nil {
			return nil, err
		}
		s.forms = forms
	}
	return s, nil
}

// Store returns the underlying store.
func (s *Service) Store() *store.Store {
	return s.store
}

// WithTx runs fn in one write transaction. Use it to compose the ...InTx
// methods atomically.
func (s *Service) WithTx(ctx context.Context, fn func(tx *store.Tx) error) error {
	return s.store.InTx(ctx, fn)
}

// WithReadTx runs fn in one read-only transaction.
func (s *Service) WithReadTx(ctx context.Context, fn func(tx *store.Tx) error) error {
	return s.store.InReadTx(ctx, fn)
}

// requireEntity maps a missing contract or rate to NOT_FOUND.
func requireEntity(ctx context.Context, tx *store.Tx, kind domain.Kind, id string) (store.EntityRow, error) {
	row, err := tx.GetEntity(ctx, kind, id)
	if errors.Is(err, store.ErrNotFound) {
		return store.EntityRow{}, domain.NewNotFoundError(kind, id)
	}
	return row, err
}

// logFailure logs a failed operation once at the service boundary.
// Request errors are warnings; everything else is an error.
func logFailure(logger zerolog.Logger, err error, msg string) {
	switch domain.CodeOf(err) {
	case domain.ErrCodeNotFound, domain.ErrCodeNoDraft, domain.ErrCodeAlreadyUnlocked, domain.ErrCodeInvalidArgument:
		logger.Warn().Err(err).Msg(msg)
	default:
		logger.Error().Err(err).Msg(msg)
	}
}

// newUpdateInfo allocates the next sequence number and writes the record.
func (s *Service) newUpdateInfo(ctx context.Context, tx *store.Tx, by, reason string) (domain.UpdateInfo, error) {
	seq, err := tx.NextSeq(ctx)
	if err != nil {
		return domain.UpdateInfo{}, err
	}
	info := domain.UpdateInfo{
		ID:            s.ids.NewID(),
		Seq:           seq,
		UpdatedAt:     s.clock.Now().UTC(),
		UpdatedBy:     by,
		UpdatedReason: reason,
	}
	if err := tx.InsertUpdateInfo(ctx, info); err != nil {
		return domain.UpdateInfo{}, err
	}
	return info, nil
}
