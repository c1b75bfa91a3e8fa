package revisions

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Enterprise-CMCS/managed-care-review-sub005/internal/domain"
	"github.com/Enterprise-CMCS/managed-care-review-sub005/internal/store"
)

// InsertDraftContract creates a contract and its first draft revision.
func (s *Service) InsertDraftContract(ctx context.Context, args InsertContractArgs) (*domain.ContractRevision, error) {
	subLogger := log.Ctx(ctx).With().Str("method", "Service.InsertDraftContract").Str("state_code", args.StateCode).Logger()

	var rev *domain.ContractRevision
	err := s.WithTx(ctx, func(tx *store.Tx) error {
		var err error
		rev, err = s.InsertDraftContractInTx(ctx, tx, args)
		return err
	})
	if err != nil {
		s.metrics.ObserveError("insert_draft_contract", err)
		logFailure(subLogger, err, "issue inserting draft contract")
		return nil, err
	}
	subLogger.Debug().Str("contract_id", rev.EntityID).Msg("inserted draft contract")
	return rev, nil
}

// InsertDraftContractInTx is InsertDraftContract inside the caller's
// transaction.
func (s *Service) InsertDraftContractInTx(ctx context.Context, tx *store.Tx, args InsertContractArgs) (*domain.ContractRevision, error) {
	if err := validateArgs(args); err != nil {
		return nil, err
	}
	if err := s.forms.ValidateContractDraft(args.FormData); err != nil {
		return nil, err
	}
	for _, rateID := range args.RateIDs {
		if _, err := requireEntity(ctx, tx, domain.KindRate, rateID); err != nil {
			return nil, err
		}
	}

	entity, err := s.insertEntity(ctx, tx, domain.KindContract, args.StateCode)
	if err != nil {
		return nil, err
	}
	data, hash, err := encodeContractForm(args.FormData)
	if err != nil {
		return nil, err
	}
	row := store.RevisionRow{
		ID:           s.ids.NewID(),
		EntityID:     entity.ID,
		Number:       1,
		CreatedAt:    entity.CreatedAt,
		FormData:     data,
		FormDataHash: hash,
	}
	if err := tx.InsertRevision(ctx, domain.KindContract, row); err != nil {
		return nil, err
	}
	if err := tx.ReplaceContractDraftLinks(ctx, entity.ID, args.RateIDs); err != nil {
		return nil, err
	}

	rev, err := toContractRevision(row, nil)
	if err != nil {
		return nil, err
	}
	return &rev, nil
}

// InsertDraftRate creates a rate and its first draft revision.
func (s *Service) InsertDraftRate(ctx context.Context, args InsertRateArgs) (*domain.RateRevision, error) {
	subLogger := log.Ctx(ctx).With().Str("method", "Service.InsertDraftRate").Str("state_code", args.StateCode).Logger()

	var rev *domain.RateRevision
	err := s.WithTx(ctx, func(tx *store.Tx) error {
		var err error
		rev, err = s.InsertDraftRateInTx(ctx, tx, args)
		return err
	})
	if err != nil {
		s.metrics.ObserveError("insert_draft_rate", err)
		logFailure(subLogger, err, "issue inserting draft rate")
		return nil, err
	}
	subLogger.Debug().Str("rate_id", rev.EntityID).Msg("inserted draft rate")
	return rev, nil
}

// InsertDraftRateInTx is InsertDraftRate inside the caller's transaction.
func (s *Service) InsertDraftRateInTx(ctx context.Context, tx *store.Tx, args InsertRateArgs) (*domain.RateRevision, error) {
	if err := validateArgs(args); err != nil {
		return nil, err
	}
	if err := s.forms.ValidateRateDraft(args.FormData); err != nil {
		return nil, err
	}

	entity, err := s.insertEntity(ctx, tx, domain.KindRate, args.StateCode)
	if err != nil {
		return nil, err
	}
	if err := checkRateSideContracts(ctx, tx, entity.ID, args.ContractIDs); err != nil {
		return nil, err
	}
	data, hash, err := encodeRateForm(args.FormData)
	if err != nil {
		return nil, err
	}
	row := store.RevisionRow{
		ID:           s.ids.NewID(),
		EntityID:     entity.ID,
		Number:       1,
		CreatedAt:    entity.CreatedAt,
		FormData:     data,
		FormDataHash: hash,
	}
	if err := tx.InsertRevision(ctx, domain.KindRate, row); err != nil {
		return nil, err
	}
	if err := tx.ReplaceRateDraftLinks(ctx, entity.ID, args.ContractIDs); err != nil {
		return nil, err
	}

	rev, err := toRateRevision(row, nil)
	if err != nil {
		return nil, err
	}
	return &rev, nil
}

// UpdateDraftContract replaces the form data and rates of a contract's
// draft.
func (s *Service) UpdateDraftContract(ctx context.Context, args UpdateContractArgs) (*domain.ContractRevision, error) {
	subLogger := log.Ctx(ctx).With().Str("method", "Service.UpdateDraftContract").Str("contract_id", args.ContractID).Logger()

	var rev *domain.ContractRevision
	err := s.WithTx(ctx, func(tx *store.Tx) error {
		var err error
		rev, err = s.UpdateDraftContractInTx(ctx, tx, args)
		return err
	})
	if err != nil {
		s.metrics.ObserveError("update_draft_contract", err)
		logFailure(subLogger, err, "issue updating draft contract")
		return nil, err
	}
	return rev, nil
}

// UpdateDraftContractInTx is UpdateDraftContract inside the caller's
// transaction.
func (s *Service) UpdateDraftContractInTx(ctx context.Context, tx *store.Tx, args UpdateContractArgs) (*domain.ContractRevision, error) {
	if err := validateArgs(args); err != nil {
		return nil, err
	}
	if err := s.forms.ValidateContractDraft(args.FormData); err != nil {
		return nil, err
	}
	if _, err := requireEntity(ctx, tx, domain.KindContract, args.ContractID); err != nil {
		return nil, err
	}
	draft, err := tx.DraftRevision(ctx, domain.KindContract, args.ContractID, true)
	if err != nil {
		return nil, err
	}
	if draft == nil {
		return nil, domain.NewNoDraftError(domain.KindContract, args.ContractID)
	}
	for _, rateID := range args.RateIDs {
		if _, err := requireEntity(ctx, tx, domain.KindRate, rateID); err != nil {
			return nil, err
		}
	}

	data, hash, err := encodeContractForm(args.FormData)
	if err != nil {
		return nil, err
	}
	if err := tx.UpdateDraftFormData(ctx, domain.KindContract, draft.ID, data, hash); err != nil {
		return nil, err
	}
	if err := tx.ReplaceContractDraftLinks(ctx, args.ContractID, args.RateIDs); err != nil {
		return nil, err
	}

	draft.FormData, draft.FormDataHash = data, hash
	return s.loadContractRevision(ctx, tx, *draft)
}

// UpdateDraftRate replaces the form data and contracts of a rate's draft.
func (s *Service) UpdateDraftRate(ctx context.Context, args UpdateRateArgs) (*domain.RateRevision, error) {
	subLogger := log.Ctx(ctx).With().Str("method", "Service.UpdateDraftRate").Str("rate_id", args.RateID).Logger()

	var rev *domain.RateRevision
	err := s.WithTx(ctx, func(tx *store.Tx) error {
		var err error
		rev, err = s.UpdateDraftRateInTx(ctx, tx, args)
		return err
	})
	if err != nil {
		s.metrics.ObserveError("update_draft_rate", err)
		logFailure(subLogger, err, "issue updating draft rate")
		return nil, err
	}
	return rev, nil
}

// UpdateDraftRateInTx is UpdateDraftRate inside the caller's transaction.
func (s *Service) UpdateDraftRateInTx(ctx context.Context, tx *store.Tx, args UpdateRateArgs) (*domain.RateRevision, error) {
	if err := validateArgs(args); err != nil {
		return nil, err
	}
	if err := s.forms.ValidateRateDraft(args.FormData); err != nil {
		return nil, err
	}
	if _, err := requireEntity(ctx, tx, domain.KindRate, args.RateID); err != nil {
		return nil, err
	}
	draft, err := tx.DraftRevision(ctx, domain.KindRate, args.RateID, true)
	if err != nil {
		return nil, err
	}
	if draft == nil {
		return nil, domain.NewNoDraftError(domain.KindRate, args.RateID)
	}
	if err := checkRateSideContracts(ctx, tx, args.RateID, args.ContractIDs); err != nil {
		return nil, err
	}

	data, hash, err := encodeRateForm(args.FormData)
	if err != nil {
		return nil, err
	}
	if err := tx.UpdateDraftFormData(ctx, domain.KindRate, draft.ID, data, hash); err != nil {
		return nil, err
	}
	if err := tx.ReplaceRateDraftLinks(ctx, args.RateID, args.ContractIDs); err != nil {
		return nil, err
	}

	draft.FormData, draft.FormDataHash = data, hash
	return s.loadRateRevision(ctx, tx, *draft)
}

func (s *Service) insertEntity(ctx context.Context, tx *store.Tx, kind domain.Kind, stateCode string) (store.EntityRow, error) {
	stateCode = strings.ToUpper(stateCode)
	n, err := tx.NextStateNumber(ctx, kind, stateCode)
	if err != nil {
		return store.EntityRow{}, err
	}
	row := store.EntityRow{
		ID:          s.ids.NewID(),
		StateCode:   stateCode,
		StateNumber: n,
		CreatedAt:   s.clock.Now().UTC(),
	}
	if err := tx.InsertEntity(ctx, kind, row); err != nil {
		return store.EntityRow{}, err
	}
	return row, nil
}

// checkRateSideContracts verifies contracts a rate draft wants to link.
// A draft contract's composition is edited from the contract side, so a
// rate may only name it when the pair is already pending.
func checkRateSideContracts(ctx context.Context, tx *store.Tx, rateID string, contractIDs []string) error {
	if len(contractIDs) == 0 {
		return nil
	}
	existing, err := tx.DraftLinksForRate(ctx, rateID)
	if err != nil {
		return err
	}
	pending := make(map[string]bool, len(existing))
	for _, dl := range existing {
		pending[dl.ContractID] = true
	}
	for _, contractID := range contractIDs {
		if _, err := requireEntity(ctx, tx, domain.KindContract, contractID); err != nil {
			return err
		}
		draft, err := tx.DraftRevision(ctx, domain.KindContract, contractID, false)
		if err != nil {
			return err
		}
		if draft != nil && !pending[contractID] {
			return domain.NewInvalidArgumentError("contract %s is a draft; add the rate from the contract", contractID)
		}
	}
	return nil
}

// loadContractRevision resolves a row's update infos.
func (s *Service) loadContractRevision(ctx context.Context, tx *store.Tx, row store.RevisionRow) (*domain.ContractRevision, error) {
	infos, err := tx.GetUpdateInfos(ctx, updateInfoIDs(row))
	if err != nil {
		return nil, err
	}
	rev, err := toContractRevision(row, infos)
	if err != nil {
		return nil, err
	}
	return &rev, nil
}

// loadRateRevision resolves a row's update infos.
func (s *Service) loadRateRevision(ctx context.Context, tx *store.Tx, row store.RevisionRow) (*domain.RateRevision, error) {
	infos, err := tx.GetUpdateInfos(ctx, updateInfoIDs(row))
	if err != nil {
		return nil, err
	}
	rev, err := toRateRevision(row, infos)
	if err != nil {
		return nil, err
	}
	return &rev, nil
}
