package revisions

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Enterprise-CMCS/managed-care-review-sub005/internal/domain"
	"github.com/Enterprise-CMCS/managed-care-review-sub005/internal/store"
)

// FindContractWithHistory returns a contract, its submitted history newest
// first and its current draft.
func (s *Service) FindContractWithHistory(ctx context.Context, contractID string) (*domain.ContractWithHistory, error) {
	subLogger := log.Ctx(ctx).With().Str("method", "Service.FindContractWithHistory").Str("contract_id", contractID).Logger()
	start := time.Now()

	var out *domain.ContractWithHistory
	err := s.WithReadTx(ctx, func(tx *store.Tx) error {
		var err error
		out, err = s.FindContractWithHistoryInTx(ctx, tx, contractID)
		return err
	})
	if err != nil {
		s.metrics.ObserveError("find_contract", err)
		logFailure(subLogger, err, "issue finding contract")
		return nil, err
	}
	s.metrics.ObserveHistory(domain.KindContract, time.Since(start))
	return out, nil
}

// FindContractWithHistoryInTx is FindContractWithHistory inside the
// caller's transaction. Called after a write in the same transaction it
// sees that write.
func (s *Service) FindContractWithHistoryInTx(ctx context.Context, tx *store.Tx, contractID string) (*domain.ContractWithHistory, error) {
	entity, err := requireEntity(ctx, tx, domain.KindContract, contractID)
	if err != nil {
		return nil, err
	}
	revs, err := tx.ListRevisions(ctx, domain.KindContract, contractID)
	if err != nil {
		return nil, err
	}
	if len(revs) == 0 {
		return nil, domain.NewProgrammingError("contract %s has no revisions", contractID)
	}

	r, err := replayHistory(ctx, tx, domain.KindContract, revs)
	if err != nil {
		return nil, err
	}
	sets, err := contractSets(r)
	if err != nil {
		return nil, err
	}

	latest := revs[len(revs)-1]
	fd, err := decodeContractForm(latest.FormData)
	if err != nil {
		return nil, err
	}
	out := &domain.ContractWithHistory{
		Contract:  toContract(entity),
		Name:      domain.ContractName(entity.StateCode, entity.StateNumber, fd.ProgramIDs),
		Status:    deriveStatus(revs),
		Revisions: sets,
	}
	if !latest.IsSubmitted() {
		if out.Draft, err = s.contractDraft(ctx, tx, latest); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Service) contractDraft(ctx context.Context, tx *store.Tx, draft store.RevisionRow) (*domain.ContractDraft, error) {
	rev, err := s.loadContractRevision(ctx, tx, draft)
	if err != nil {
		return nil, err
	}
	pending, err := tx.DraftLinksForContract(ctx, draft.EntityID)
	if err != nil {
		return nil, err
	}
	rows := make([]store.RevisionRow, 0, len(pending))
	for _, dl := range pending {
		row, err := tx.LatestRevision(ctx, domain.KindRate, dl.RateID)
		if err != nil {
			return nil, err
		}
		if row == nil {
			return nil, domain.NewProgrammingError("draft link names rate %s with no revisions", dl.RateID)
		}
		rows = append(rows, *row)
	}
	infos, err := tx.GetUpdateInfos(ctx, updateInfoIDs(rows...))
	if err != nil {
		return nil, err
	}
	out := &domain.ContractDraft{Revision: *rev, Rates: make([]domain.RateRevision, 0, len(rows))}
	for _, row := range rows {
		rr, err := toRateRevision(row, infos)
		if err != nil {
			return nil, err
		}
		out.Rates = append(out.Rates, rr)
	}
	return out, nil
}

// FindRateWithHistory returns a rate, its submitted history newest first
// and its current draft.
func (s *Service) FindRateWithHistory(ctx context.Context, rateID string) (*domain.RateWithHistory, error) {
	subLogger := log.Ctx(ctx).With().Str("method", "Service.FindRateWithHistory").Str("rate_id", rateID).Logger()
	start := time.Now()

	var out *domain.RateWithHistory
	err := s.WithReadTx(ctx, func(tx *store.Tx) error {
		var err error
		out, err = s.FindRateWithHistoryInTx(ctx, tx, rateID)
		return err
	})
	if err != nil {
		s.metrics.ObserveError("find_rate", err)
		logFailure(subLogger, err, "issue finding rate")
		return nil, err
	}
	s.metrics.ObserveHistory(domain.KindRate, time.Since(start))
	return out, nil
}

// FindRateWithHistoryInTx is FindRateWithHistory inside the caller's
// transaction.
func (s *Service) FindRateWithHistoryInTx(ctx context.Context, tx *store.Tx, rateID string) (*domain.RateWithHistory, error) {
	entity, err := requireEntity(ctx, tx, domain.KindRate, rateID)
	if err != nil {
		return nil, err
	}
	revs, err := tx.ListRevisions(ctx, domain.KindRate, rateID)
	if err != nil {
		return nil, err
	}
	if len(revs) == 0 {
		return nil, domain.NewProgrammingError("rate %s has no revisions", rateID)
	}

	r, err := replayHistory(ctx, tx, domain.KindRate, revs)
	if err != nil {
		return nil, err
	}
	sets, err := rateSets(r)
	if err != nil {
		return nil, err
	}

	out := &domain.RateWithHistory{
		Rate:      toRate(entity),
		Name:      domain.RateName(entity.StateCode, entity.StateNumber),
		Status:    deriveStatus(revs),
		Revisions: sets,
	}
	if latest := revs[len(revs)-1]; !latest.IsSubmitted() {
		if out.Draft, err = s.rateDraft(ctx, tx, latest); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Service) rateDraft(ctx context.Context, tx *store.Tx, draft store.RevisionRow) (*domain.RateDraft, error) {
	rev, err := s.loadRateRevision(ctx, tx, draft)
	if err != nil {
		return nil, err
	}
	pending, err := tx.DraftLinksForRate(ctx, draft.EntityID)
	if err != nil {
		return nil, err
	}
	rows := make([]store.RevisionRow, 0, len(pending))
	for _, dl := range pending {
		row, err := tx.LatestRevision(ctx, domain.KindContract, dl.ContractID)
		if err != nil {
			return nil, err
		}
		if row == nil {
			return nil, domain.NewProgrammingError("draft link names contract %s with no revisions", dl.ContractID)
		}
		rows = append(rows, *row)
	}
	infos, err := tx.GetUpdateInfos(ctx, updateInfoIDs(rows...))
	if err != nil {
		return nil, err
	}
	out := &domain.RateDraft{Revision: *rev, Contracts: make([]domain.ContractRevision, 0, len(rows))}
	for _, row := range rows {
		cr, err := toContractRevision(row, infos)
		if err != nil {
			return nil, err
		}
		out.Contracts = append(out.Contracts, cr)
	}
	return out, nil
}

// ListContracts returns summaries of the contracts of one state, or of
// every state when stateCode is empty.
func (s *Service) ListContracts(ctx context.Context, stateCode string) ([]domain.ContractSummary, error) {
	var out []domain.ContractSummary
	err := s.WithReadTx(ctx, func(tx *store.Tx) error {
		entities, err := tx.ListEntities(ctx, domain.KindContract, stateCode)
		if err != nil {
			return err
		}
		out = make([]domain.ContractSummary, 0, len(entities))
		for _, e := range entities {
			revs, err := tx.ListRevisions(ctx, domain.KindContract, e.ID)
			if err != nil {
				return err
			}
			var programs []string
			if len(revs) > 0 {
				fd, err := decodeContractForm(revs[len(revs)-1].FormData)
				if err != nil {
					return err
				}
				programs = fd.ProgramIDs
			}
			out = append(out, domain.ContractSummary{
				Contract: toContract(e),
				Name:     domain.ContractName(e.StateCode, e.StateNumber, programs),
				Status:   deriveStatus(revs),
			})
		}
		return nil
	})
	if err != nil {
		s.metrics.ObserveError("list_contracts", err)
		return nil, err
	}
	return out, nil
}

// ListRates returns summaries of the rates of one state, or of every
// state when stateCode is empty.
func (s *Service) ListRates(ctx context.Context, stateCode string) ([]domain.RateSummary, error) {
	var out []domain.RateSummary
	err := s.WithReadTx(ctx, func(tx *store.Tx) error {
		entities, err := tx.ListEntities(ctx, domain.KindRate, stateCode)
		if err != nil {
			return err
		}
		out = make([]domain.RateSummary, 0, len(entities))
		for _, e := range entities {
			revs, err := tx.ListRevisions(ctx, domain.KindRate, e.ID)
			if err != nil {
				return err
			}
			out = append(out, domain.RateSummary{
				Rate:   toRate(e),
				Name:   domain.RateName(e.StateCode, e.StateNumber),
				Status: deriveStatus(revs),
			})
		}
		return nil
	})
	if err != nil {
		s.metrics.ObserveError("list_rates", err)
		return nil, err
	}
	return out, nil
}
