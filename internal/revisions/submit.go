package revisions

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/Enterprise-CMCS/managed-care-review-sub005/internal/domain"
	"github.com/Enterprise-CMCS/managed-care-review-sub005/internal/store"
)

// Submit freezes the named drafts under one update info and rewrites the
// links of everything they touch.
func (s *Service) Submit(ctx context.Context, args SubmitArgs) (*domain.Submission, error) {
	subLogger := log.Ctx(ctx).With().
		Str("method", "Service.Submit").
		Str("contract_id", args.ContractID).
		Strs("rate_ids", args.RateIDs).
		Logger()
	ctx = subLogger.WithContext(ctx)

	var result *domain.Submission
	err := s.WithTx(ctx, func(tx *store.Tx) error {
		var err error
		result, err = s.SubmitInTx(ctx, tx, args)
		return err
	})
	if err != nil {
		s.metrics.ObserveError("submit", err)
		logFailure(subLogger, err, "issue submitting")
		return nil, err
	}

	removals := 0
	for _, l := range result.Links {
		if l.IsRemoval {
			removals++
		}
	}
	s.metrics.ObserveSubmission(
		len(result.SubmittedContractRevisionIDs),
		len(result.SubmittedRateRevisionIDs),
		len(result.Links)-removals,
		removals,
	)
	subLogger.Info().Int64("seq", result.Seq).Int("links", len(result.Links)).Msg("submitted")
	return result, nil
}

// SubmitInTx is Submit inside the caller's transaction. On error the
// caller must roll the transaction back.
func (s *Service) SubmitInTx(ctx context.Context, tx *store.Tx, args SubmitArgs) (*domain.Submission, error) {
	if err := validateArgs(args); err != nil {
		return nil, err
	}
	if args.ContractID == "" && len(args.RateIDs) == 0 {
		return nil, domain.NewInvalidArgumentError("a contract id or at least one rate id is required")
	}
	rateIDs := dedupe(args.RateIDs)

	// Locate every draft before writing anything.
	var contractDraft *store.RevisionRow
	if args.ContractID != "" {
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
		contractDraft = draft
	}

	rateDrafts := make([]store.RevisionRow, len(rateIDs))
	var missing []string
	for i, rateID := range rateIDs {
		if _, err := requireEntity(ctx, tx, domain.KindRate, rateID); err != nil {
			return nil, err
		}
		draft, err := tx.DraftRevision(ctx, domain.KindRate, rateID, true)
		if err != nil {
			return nil, err
		}
		if draft == nil {
			missing = append(missing, rateID)
			continue
		}
		rateDrafts[i] = *draft
	}
	if len(missing) > 0 {
		return nil, domain.NewNoDraftError(domain.KindRate, missing...)
	}

	if err := s.validateSubmittable(contractDraft, rateDrafts); err != nil {
		return nil, err
	}

	info, err := s.newUpdateInfo(ctx, tx, args.SubmittedBy, args.Reason)
	if err != nil {
		return nil, err
	}
	sub := newSubmission(info, s.ids.NewID)

	if contractDraft != nil {
		if err := tx.StampSubmitInfo(ctx, domain.KindContract, contractDraft.ID, info.ID); err != nil {
			return nil, err
		}
		sub.submitContract(args.ContractID, contractDraft.ID)
	}
	for i := range rateIDs {
		if err := tx.StampSubmitInfo(ctx, domain.KindRate, rateDrafts[i].ID, info.ID); err != nil {
			return nil, err
		}
		sub.submitRate(rateDrafts[i].ID)
	}

	if contractDraft != nil {
		if err := s.propagateContract(ctx, tx, sub, args.ContractID, contractDraft.ID); err != nil {
			return nil, err
		}
	}
	for i, rateID := range rateIDs {
		if err := s.propagateRate(ctx, tx, sub, rateID, rateDrafts[i].ID); err != nil {
			return nil, err
		}
	}

	for _, l := range sub.links {
		if err := tx.InsertLink(ctx, l); err != nil {
			return nil, err
		}
	}
	if err := tx.InsertRelated(ctx, info.ID, domain.KindContract, sub.relatedContracts); err != nil {
		return nil, err
	}
	if err := tx.InsertRelated(ctx, info.ID, domain.KindRate, sub.relatedRates); err != nil {
		return nil, err
	}
	if err := collectDraftLinks(ctx, tx, sub.touched); err != nil {
		return nil, err
	}

	return sub.result(), nil
}

func (s *Service) validateSubmittable(contractDraft *store.RevisionRow, rateDrafts []store.RevisionRow) error {
	if contractDraft != nil {
		fd, err := decodeContractForm(contractDraft.FormData)
		if err != nil {
			return err
		}
		if err := s.forms.ValidateContractSubmission(fd); err != nil {
			return err
		}
	}
	for _, rd := range rateDrafts {
		fd, err := decodeRateForm(rd.FormData)
		if err != nil {
			return err
		}
		if err := s.forms.ValidateRateSubmission(fd); err != nil {
			return err
		}
	}
	return nil
}

// precedingComposition returns the links of the entity that were in effect
// at its most recent event before the current submission.
func precedingComposition(ctx context.Context, tx *store.Tx, sub *submission, kind domain.Kind, entityID string) ([]store.LinkRow, error) {
	prevSeq, found, err := tx.LastEventSeq(ctx, kind, entityID, sub.info.Seq)
	if err != nil || !found {
		return nil, err
	}
	return tx.LinksValidAt(ctx, kind, entityID, prevSeq)
}

// propagateContract links the new contract revision to the latest
// submitted revision of every draft-linked rate, closes the previous
// composition and writes removal links for rates that were dropped.
func (s *Service) propagateContract(ctx context.Context, tx *store.Tx, sub *submission, contractID, revisionID string) error {
	previous, err := precedingComposition(ctx, tx, sub, domain.KindContract, contractID)
	if err != nil {
		return err
	}
	drafts, err := tx.DraftLinksForContract(ctx, contractID)
	if err != nil {
		return err
	}

	current := make(map[string]bool, len(drafts))
	var unsubmitted []string
	for i, dl := range drafts {
		rateRev, err := tx.LatestSubmittedRevision(ctx, domain.KindRate, dl.RateID)
		if err != nil {
			return err
		}
		if rateRev == nil {
			unsubmitted = append(unsubmitted, dl.RateID)
			continue
		}
		current[dl.RateID] = true
		sub.addLink(revisionID, rateRev.ID, i+1, false)
		sub.touch(contractID, dl.RateID)
		sub.relateRate(rateRev.ID)
	}
	if len(unsubmitted) > 0 {
		return domain.NewUnsubmittedDependencyError(unsubmitted...)
	}

	for _, prev := range previous {
		if _, err := tx.CloseLink(ctx, prev.ID, sub.info.UpdatedAt, sub.info.Seq); err != nil {
			return err
		}
		if current[prev.RateID] {
			continue
		}
		rateRev, err := tx.LatestSubmittedRevision(ctx, domain.KindRate, prev.RateID)
		if err != nil {
			return err
		}
		if rateRev == nil {
			return domain.NewProgrammingError("rate %s was linked but has no submitted revision", prev.RateID)
		}
		sub.addLink(revisionID, rateRev.ID, prev.RatePosition, true)
		sub.relateRate(rateRev.ID)
	}
	return nil
}

// propagateRate moves every contract that included the rate onto the new
// rate revision. Submitted contracts follow the draft links: a pending
// pair is kept or added, a missing pair becomes a removal link. A contract
// that is itself a draft keeps the rate on its submitted revision; its
// own next submission decides the rest.
func (s *Service) propagateRate(ctx context.Context, tx *store.Tx, sub *submission, rateID, revisionID string) error {
	previous, err := precedingComposition(ctx, tx, sub, domain.KindRate, rateID)
	if err != nil {
		return err
	}
	previousByContract := make(map[string]store.LinkRow, len(previous))
	for _, prev := range previous {
		previousByContract[prev.ContractID] = prev
	}

	drafts, err := tx.DraftLinksForRate(ctx, rateID)
	if err != nil {
		return err
	}
	pending := make(map[string]bool, len(drafts))
	for _, dl := range drafts {
		pending[dl.ContractID] = true
		if sub.contractSubmitted(dl.ContractID) {
			continue
		}
		state, err := contractState(ctx, tx, dl.ContractID)
		if err != nil {
			return err
		}
		if state.latestSubmitted == nil || state.isDraft {
			continue
		}
		position := 0
		if prev, ok := previousByContract[dl.ContractID]; ok {
			position = prev.RatePosition
		} else if position, err = nextPosition(ctx, tx, sub, state.latestSubmitted.ID); err != nil {
			return err
		}
		sub.addLink(state.latestSubmitted.ID, revisionID, position, false)
		sub.touch(dl.ContractID, rateID)
		sub.relateContract(state.latestSubmitted.ID)
	}

	for _, prev := range previous {
		if sub.contractSubmitted(prev.ContractID) {
			continue
		}
		if _, err := tx.CloseLink(ctx, prev.ID, sub.info.UpdatedAt, sub.info.Seq); err != nil {
			return err
		}
		state, err := contractState(ctx, tx, prev.ContractID)
		if err != nil {
			return err
		}
		if state.latestSubmitted == nil {
			return domain.NewProgrammingError("contract %s was linked but has no submitted revision", prev.ContractID)
		}
		switch {
		case state.isDraft:
			sub.addLink(state.latestSubmitted.ID, revisionID, prev.RatePosition, false)
		case pending[prev.ContractID]:
			continue
		default:
			sub.addLink(state.latestSubmitted.ID, revisionID, prev.RatePosition, true)
		}
		sub.relateContract(state.latestSubmitted.ID)
	}
	return nil
}

type contractSnapshot struct {
	latestSubmitted *store.RevisionRow
	isDraft         bool
}

func contractState(ctx context.Context, tx *store.Tx, contractID string) (contractSnapshot, error) {
	submitted, err := tx.LatestSubmittedRevision(ctx, domain.KindContract, contractID)
	if err != nil {
		return contractSnapshot{}, err
	}
	draft, err := tx.DraftRevision(ctx, domain.KindContract, contractID, false)
	if err != nil {
		return contractSnapshot{}, err
	}
	return contractSnapshot{latestSubmitted: submitted, isDraft: draft != nil}, nil
}

// nextPosition is one past the highest rate position currently attached to
// a contract revision, counting links pending in this submission.
func nextPosition(ctx context.Context, tx *store.Tx, sub *submission, contractRevisionID string) (int, error) {
	open, err := tx.OpenLinks(ctx, domain.KindContract, contractRevisionID)
	if err != nil {
		return 0, err
	}
	highest := 0
	for _, l := range open {
		if l.RatePosition > highest {
			highest = l.RatePosition
		}
	}
	for _, l := range sub.links {
		if l.ContractRevisionID == contractRevisionID && !l.IsRemoval && l.RatePosition > highest {
			highest = l.RatePosition
		}
	}
	return highest + 1, nil
}

// collectDraftLinks deletes touched pairs whose two sides both have a
// submitted latest revision.
func collectDraftLinks(ctx context.Context, tx *store.Tx, pairs []domain.DraftLink) error {
	for _, p := range pairs {
		contractRev, err := tx.LatestRevision(ctx, domain.KindContract, p.ContractID)
		if err != nil {
			return err
		}
		rateRev, err := tx.LatestRevision(ctx, domain.KindRate, p.RateID)
		if err != nil {
			return err
		}
		if contractRev == nil || rateRev == nil || !contractRev.IsSubmitted() || !rateRev.IsSubmitted() {
			continue
		}
		if err := tx.DeleteDraftLink(ctx, p.ContractID, p.RateID); err != nil {
			return err
		}
	}
	return nil
}
