package revisions

import (
	"encoding/json"
	"fmt"

	"github.com/Enterprise-CMCS/managed-care-review-sub005/internal/canonical"
	"github.com/Enterprise-CMCS/managed-care-review-sub005/internal/domain"
	"github.com/Enterprise-CMCS/managed-care-review-sub005/internal/store"
)

func encodeContractForm(fd domain.ContractFormData) (data, hash string, err error) {
	return encodeForm(canonical.DomainContractForm, fd)
}

func encodeRateForm(fd domain.RateFormData) (data, hash string, err error) {
	return encodeForm(canonical.DomainRateForm, fd)
}

func encodeForm(hashDomain string, fd any) (string, string, error) {
	data, err := json.Marshal(fd)
	if err != nil {
		return "", "", fmt.Errorf("encode form data: %w", err)
	}
	hash, err := canonical.Hash(hashDomain, fd)
	if err != nil {
		return "", "", err
	}
	return string(data), hash, nil
}

func decodeContractForm(data string) (domain.ContractFormData, error) {
	var fd domain.ContractFormData
	if err := json.Unmarshal([]byte(data), &fd); err != nil {
		return fd, fmt.Errorf("decode contract form data: %w", err)
	}
	return fd, nil
}

func decodeRateForm(data string) (domain.RateFormData, error) {
	var fd domain.RateFormData
	if err := json.Unmarshal([]byte(data), &fd); err != nil {
		return fd, fmt.Errorf("decode rate form data: %w", err)
	}
	return fd, nil
}

// updateInfoIDs collects the submit and unlock info ids of rows.
func updateInfoIDs(rows ...store.RevisionRow) []string {
	ids := make([]string, 0, 2*len(rows))
	for _, r := range rows {
		if r.SubmitInfoID != nil {
			ids = append(ids, *r.SubmitInfoID)
		}
		if r.UnlockInfoID != nil {
			ids = append(ids, *r.UnlockInfoID)
		}
	}
	return ids
}

func lookupInfo(id *string, infos map[string]domain.UpdateInfo) (*domain.UpdateInfo, error) {
	if id == nil {
		return nil, nil
	}
	info, ok := infos[*id]
	if !ok {
		return nil, domain.NewProgrammingError("update info %s not loaded", *id)
	}
	return &info, nil
}

func revisionInfo(row store.RevisionRow, infos map[string]domain.UpdateInfo) (domain.RevisionInfo, error) {
	submit, err := lookupInfo(row.SubmitInfoID, infos)
	if err != nil {
		return domain.RevisionInfo{}, err
	}
	unlock, err := lookupInfo(row.UnlockInfoID, infos)
	if err != nil {
		return domain.RevisionInfo{}, err
	}
	return domain.RevisionInfo{
		ID:           row.ID,
		EntityID:     row.EntityID,
		Number:       row.Number,
		CreatedAt:    row.CreatedAt,
		SubmitInfo:   submit,
		UnlockInfo:   unlock,
		FormDataHash: row.FormDataHash,
	}, nil
}

func toContractRevision(row store.RevisionRow, infos map[string]domain.UpdateInfo) (domain.ContractRevision, error) {
	ri, err := revisionInfo(row, infos)
	if err != nil {
		return domain.ContractRevision{}, err
	}
	fd, err := decodeContractForm(row.FormData)
	if err != nil {
		return domain.ContractRevision{}, err
	}
	return domain.ContractRevision{RevisionInfo: ri, FormData: fd}, nil
}

func toRateRevision(row store.RevisionRow, infos map[string]domain.UpdateInfo) (domain.RateRevision, error) {
	ri, err := revisionInfo(row, infos)
	if err != nil {
		return domain.RateRevision{}, err
	}
	fd, err := decodeRateForm(row.FormData)
	if err != nil {
		return domain.RateRevision{}, err
	}
	return domain.RateRevision{RevisionInfo: ri, FormData: fd}, nil
}

func toContract(row store.EntityRow) domain.Contract {
	return domain.Contract{ID: row.ID, StateCode: row.StateCode, StateNumber: row.StateNumber, CreatedAt: row.CreatedAt}
}

func toRate(row store.EntityRow) domain.Rate {
	return domain.Rate{ID: row.ID, StateCode: row.StateCode, StateNumber: row.StateNumber, CreatedAt: row.CreatedAt}
}

// deriveStatus computes an entity's status from its revisions in
// creation order.
func deriveStatus(revs []store.RevisionRow) domain.Status {
	if len(revs) == 0 {
		return domain.StatusDraft
	}
	ever := false
	for _, r := range revs {
		if r.IsSubmitted() {
			ever = true
			break
		}
	}
	latest := revs[len(revs)-1]
	return domain.DeriveStatus(latest.IsSubmitted(), latest.UnlockInfoID != nil, ever)
}

// dedupe drops repeated ids, keeping first occurrences in order.
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
