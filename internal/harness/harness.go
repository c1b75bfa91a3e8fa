package harness

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Enterprise-CMCS/managed-care-review-sub005/internal/domain"
	"github.com/Enterprise-CMCS/managed-care-review-sub005/internal/revisions"
	"github.com/Enterprise-CMCS/managed-care-review-sub005/internal/store"
	"github.com/Enterprise-CMCS/managed-care-review-sub005/internal/testutil"
)

const (
	defaultState     = "MN"
	defaultSubmitter = "state@example.com"
	defaultUnlocker  = "cms@example.com"
)

// Run executes a scenario in a fresh in-memory store.
//
// Step failures and assertion mismatches are reported in the result; the
// error return is reserved for problems running the harness itself.
func Run(ctx context.Context, s *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	svc, err := revisions.New(st,
		revisions.WithClock(testutil.NewDeterministicClock()),
		revisions.WithIDGenerator(testutil.NewSequentialIDGenerator("id")),
	)
	if err != nil {
		return nil, err
	}

	r := &runner{svc: svc, ids: map[string]string{}, refs: map[string]string{}}
	result := NewResult(s.Name)

	for i, step := range s.Steps {
		err := r.exec(ctx, step)
		switch {
		case step.ExpectError != "":
			if got := domain.CodeOf(err); string(got) != step.ExpectError {
				result.AddError(fmt.Sprintf("steps[%d] %s: expected %s, got %v", i, step.Op, step.ExpectError, err))
			}
		case err != nil:
			result.AddError(fmt.Sprintf("steps[%d] %s: %v", i, step.Op, err))
			return result, nil
		}
	}

	snap, err := r.snapshot(ctx, s.Name)
	if err != nil {
		return nil, fmt.Errorf("snapshot histories: %w", err)
	}
	result.Snapshot = snap

	for _, msg := range EvaluateAssertions(snap, s.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// runner maps scenario refs to entity ids.
type runner struct {
	svc       *revisions.Service
	ids       map[string]string
	refs      map[string]string
	contracts []string
	rates     []string
}

func (r *runner) id(ref string) (string, error) {
	id, ok := r.ids[ref]
	if !ok {
		return "", fmt.Errorf("unknown ref %q", ref)
	}
	return id, nil
}

func (r *runner) idList(refs []string) ([]string, error) {
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		id, err := r.id(ref)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

func (r *runner) remember(ref, id string, list *[]string) {
	r.ids[ref] = id
	r.refs[id] = ref
	*list = append(*list, ref)
}

func (r *runner) exec(ctx context.Context, step Step) error {
	switch step.Op {
	case OpInsertContract:
		fd, err := contractFormData(step.Form)
		if err != nil {
			return err
		}
		rateIDs, err := r.idList(step.Rates)
		if err != nil {
			return err
		}
		rev, err := r.svc.InsertDraftContract(ctx, revisions.InsertContractArgs{
			StateCode: stateOrDefault(step.State),
			FormData:  fd,
			RateIDs:   rateIDs,
		})
		if err != nil {
			return err
		}
		r.remember(step.Ref, rev.EntityID, &r.contracts)

	case OpInsertRate:
		fd, err := rateFormData(step.Form)
		if err != nil {
			return err
		}
		contractIDs, err := r.idList(step.Contracts)
		if err != nil {
			return err
		}
		rev, err := r.svc.InsertDraftRate(ctx, revisions.InsertRateArgs{
			StateCode:   stateOrDefault(step.State),
			FormData:    fd,
			ContractIDs: contractIDs,
		})
		if err != nil {
			return err
		}
		r.remember(step.Ref, rev.EntityID, &r.rates)

	case OpUpdateContract:
		id, err := r.id(step.Ref)
		if err != nil {
			return err
		}
		fd, err := contractFormData(step.Form)
		if err != nil {
			return err
		}
		rateIDs, err := r.idList(step.Rates)
		if err != nil {
			return err
		}
		_, err = r.svc.UpdateDraftContract(ctx, revisions.UpdateContractArgs{ContractID: id, FormData: fd, RateIDs: rateIDs})
		return err

	case OpUpdateRate:
		id, err := r.id(step.Ref)
		if err != nil {
			return err
		}
		fd, err := rateFormData(step.Form)
		if err != nil {
			return err
		}
		contractIDs, err := r.idList(step.Contracts)
		if err != nil {
			return err
		}
		_, err = r.svc.UpdateDraftRate(ctx, revisions.UpdateRateArgs{RateID: id, FormData: fd, ContractIDs: contractIDs})
		return err

	case OpSubmit:
		var contractID string
		if step.Contract != "" {
			id, err := r.id(step.Contract)
			if err != nil {
				return err
			}
			contractID = id
		}
		rateIDs, err := r.idList(step.Rates)
		if err != nil {
			return err
		}
		_, err = r.svc.Submit(ctx, revisions.SubmitArgs{
			ContractID:  contractID,
			RateIDs:     rateIDs,
			SubmittedBy: orDefault(step.By, defaultSubmitter),
			Reason:      orDefault(step.Reason, "submit"),
		})
		return err

	case OpUnlockContract, OpUnlockRate:
		id, err := r.id(step.Ref)
		if err != nil {
			return err
		}
		args := revisions.UnlockArgs{
			ID:         id,
			UnlockedBy: orDefault(step.By, defaultUnlocker),
			Reason:     orDefault(step.Reason, "unlock"),
		}
		if step.Op == OpUnlockContract {
			_, err = r.svc.UnlockContract(ctx, args)
		} else {
			_, err = r.svc.UnlockRate(ctx, args)
		}
		return err

	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}
	return nil
}

func (r *runner) member(entityID string, number int) string {
	return fmt.Sprintf("%s#%d", r.refs[entityID], number)
}

func (r *runner) snapshot(ctx context.Context, name string) (Snapshot, error) {
	snap := Snapshot{
		Scenario:  name,
		Contracts: make([]EntitySnapshot, 0, len(r.contracts)),
		Rates:     make([]EntitySnapshot, 0, len(r.rates)),
	}

	for _, ref := range r.contracts {
		c, err := r.svc.FindContractWithHistory(ctx, r.ids[ref])
		if err != nil {
			return Snapshot{}, err
		}
		es := EntitySnapshot{Ref: ref, Name: c.Name, Status: string(c.Status), Revisions: make([]SetSnapshot, 0, len(c.Revisions))}
		for _, set := range c.Revisions {
			members := make([]string, 0, len(set.RateRevisions))
			for _, rr := range set.RateRevisions {
				members = append(members, r.member(rr.EntityID, rr.Number))
			}
			es.Revisions = append(es.Revisions, SetSnapshot{
				Revision: set.RevisionNumber,
				Seq:      set.SubmitInfo.Seq,
				Reason:   set.SubmitInfo.UpdatedReason,
				Members:  members,
			})
		}
		if c.Draft != nil {
			members := make([]string, 0, len(c.Draft.Rates))
			for _, rr := range c.Draft.Rates {
				members = append(members, r.member(rr.EntityID, rr.Number))
			}
			es.Draft = &members
		}
		snap.Contracts = append(snap.Contracts, es)
	}

	for _, ref := range r.rates {
		rate, err := r.svc.FindRateWithHistory(ctx, r.ids[ref])
		if err != nil {
			return Snapshot{}, err
		}
		es := EntitySnapshot{Ref: ref, Name: rate.Name, Status: string(rate.Status), Revisions: make([]SetSnapshot, 0, len(rate.Revisions))}
		for _, set := range rate.Revisions {
			members := make([]string, 0, len(set.ContractRevisions))
			for _, cr := range set.ContractRevisions {
				members = append(members, r.member(cr.EntityID, cr.Number))
			}
			es.Revisions = append(es.Revisions, SetSnapshot{
				Revision: set.RevisionNumber,
				Seq:      set.SubmitInfo.Seq,
				Reason:   set.SubmitInfo.UpdatedReason,
				Members:  members,
			})
		}
		if rate.Draft != nil {
			members := make([]string, 0, len(rate.Draft.Contracts))
			for _, cr := range rate.Draft.Contracts {
				members = append(members, r.member(cr.EntityID, cr.Number))
			}
			es.Draft = &members
		}
		snap.Rates = append(snap.Rates, es)
	}
	return snap, nil
}

func contractFormData(form map[string]any) (domain.ContractFormData, error) {
	if form == nil {
		return domain.ContractFormData{
			SubmissionType:        domain.SubmissionTypeContractAndRates,
			SubmissionDescription: "scenario contract",
			ProgramIDs:            []string{"pmap"},
		}, nil
	}
	var fd domain.ContractFormData
	if err := convertForm(form, &fd); err != nil {
		return domain.ContractFormData{}, err
	}
	return fd, nil
}

func rateFormData(form map[string]any) (domain.RateFormData, error) {
	if form == nil {
		return domain.RateFormData{
			RateType:       domain.RateTypeNew,
			RateProgramIDs: []string{"pmap"},
		}, nil
	}
	var fd domain.RateFormData
	if err := convertForm(form, &fd); err != nil {
		return domain.RateFormData{}, err
	}
	return fd, nil
}

// convertForm maps a YAML form onto a form data struct through JSON.
func convertForm(form map[string]any, dest any) error {
	data, err := json.Marshal(form)
	if err != nil {
		return fmt.Errorf("encode form: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decode form: %w", err)
	}
	return nil
}

func stateOrDefault(s string) string {
	return orDefault(s, defaultState)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
