package revisions

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/Enterprise-CMCS/managed-care-review-sub005/internal/domain"
	"github.com/Enterprise-CMCS/managed-care-review-sub005/internal/store"
)

// UnlockContract opens a new draft of a submitted contract, copying the
// latest submitted form data and rates.
func (s *Service) UnlockContract(ctx context.Context, args UnlockArgs) (*domain.ContractRevision, error) {
	subLogger := log.Ctx(ctx).With().Str("method", "Service.UnlockContract").Str("contract_id", args.ID).Logger()

	var rev *domain.ContractRevision
	err := s.WithTx(ctx, func(tx *store.Tx) error {
		var err error
		rev, err = s.UnlockContractInTx(ctx, tx, args)
		return err
	})
	if err != nil {
		s.metrics.ObserveError("unlock_contract", err)
		logFailure(subLogger, err, "issue unlocking contract")
		return nil, err
	}
	s.metrics.ObserveUnlock(domain.KindContract)
	subLogger.Info().Int("revision_number", rev.Number).Msg("unlocked contract")
	return rev, nil
}

// UnlockContractInTx is UnlockContract inside the caller's transaction.
func (s *Service) UnlockContractInTx(ctx context.Context, tx *store.Tx, args UnlockArgs) (*domain.ContractRevision, error) {
	row, err := s.unlock(ctx, tx, domain.KindContract, args)
	if err != nil {
		return nil, err
	}
	return s.loadContractRevision(ctx, tx, row)
}

// UnlockRate opens a new draft of a submitted rate.
func (s *Service) UnlockRate(ctx context.Context, args UnlockArgs) (*domain.RateRevision, error) {
	subLogger := log.Ctx(ctx).With().Str("method", "Service.UnlockRate").Str("rate_id", args.ID).Logger()

	var rev *domain.RateRevision
	err := s.WithTx(ctx, func(tx *store.Tx) error {
		var err error
		rev, err = s.UnlockRateInTx(ctx, tx, args)
		return err
	})
	if err != nil {
		s.metrics.ObserveError("unlock_rate", err)
		logFailure(subLogger, err, "issue unlocking rate")
		return nil, err
	}
	s.metrics.ObserveUnlock(domain.KindRate)
	subLogger.Info().Int("revision_number", rev.Number).Msg("unlocked rate")
	return rev, nil
}

// UnlockRateInTx is UnlockRate inside the caller's transaction.
func (s *Service) UnlockRateInTx(ctx context.Context, tx *store.Tx, args UnlockArgs) (*domain.RateRevision, error) {
	row, err := s.unlock(ctx, tx, domain.KindRate, args)
	if err != nil {
		return nil, err
	}
	return s.loadRateRevision(ctx, tx, row)
}

func (s *Service) unlock(ctx context.Context, tx *store.Tx, kind domain.Kind, args UnlockArgs) (store.RevisionRow, error) {
	if err := validateArgs(args); err != nil {
		return store.RevisionRow{}, err
	}
	if _, err := requireEntity(ctx, tx, kind, args.ID); err != nil {
		return store.RevisionRow{}, err
	}
	latest, err := tx.LatestRevision(ctx, kind, args.ID)
	if err != nil {
		return store.RevisionRow{}, err
	}
	if latest == nil {
		return store.RevisionRow{}, domain.NewProgrammingError("%s %s has no revisions", kind, args.ID)
	}
	if !latest.IsSubmitted() {
		return store.RevisionRow{}, domain.NewAlreadyUnlockedError(kind, args.ID)
	}

	info, err := s.newUpdateInfo(ctx, tx, args.UnlockedBy, args.Reason)
	if err != nil {
		return store.RevisionRow{}, err
	}
	number, err := tx.NextRevisionNumber(ctx, kind, args.ID)
	if err != nil {
		return store.RevisionRow{}, err
	}
	row := store.RevisionRow{
		ID:           s.ids.NewID(),
		EntityID:     args.ID,
		Number:       number,
		CreatedAt:    info.UpdatedAt,
		UnlockInfoID: &info.ID,
		FormData:     latest.FormData,
		FormDataHash: latest.FormDataHash,
	}
	if err := tx.InsertRevision(ctx, kind, row); err != nil {
		return store.RevisionRow{}, err
	}
	if err := restoreDraftLinks(ctx, tx, kind, latest.ID); err != nil {
		return store.RevisionRow{}, err
	}
	return row, nil
}

// restoreDraftLinks turns the open links of the revision being unlocked
// back into pending pairs. Pairs whose contract is already a draft belong
// to that contract and are not recreated.
func restoreDraftLinks(ctx context.Context, tx *store.Tx, kind domain.Kind, revisionID string) error {
	open, err := tx.OpenLinks(ctx, kind, revisionID)
	if err != nil {
		return err
	}
	for _, l := range open {
		if kind == domain.KindRate {
			draft, err := tx.DraftRevision(ctx, domain.KindContract, l.ContractID, false)
			if err != nil {
				return err
			}
			if draft != nil {
				continue
			}
		}
		dl := domain.DraftLink{ContractID: l.ContractID, RateID: l.RateID, RatePosition: l.RatePosition}
		if err := tx.InsertDraftLink(ctx, dl); err != nil {
			return err
		}
	}
	return nil
}
