package revisions

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Enterprise-CMCS/managed-care-review-sub005/internal/canonical"
	"github.com/Enterprise-CMCS/managed-care-review-sub005/internal/domain"
	"github.com/Enterprise-CMCS/managed-care-review-sub005/internal/metrics"
	"github.com/Enterprise-CMCS/managed-care-review-sub005/internal/store"
	"github.com/Enterprise-CMCS/managed-care-review-sub005/internal/testutil"
)

// setupTestService creates a service on a fresh SQLite store with a
// deterministic clock and sequential ids.
func setupTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	opts = append([]Option{
		WithClock(testutil.NewDeterministicClock()),
		WithIDGenerator(testutil.NewSequentialIDGenerator("id")),
	}, opts...)
	svc, err := New(st, opts...)
	require.NoError(t, err)
	return svc
}

func contractForm(desc string) domain.ContractFormData {
	return domain.ContractFormData{
		SubmissionType:        domain.SubmissionTypeContractAndRates,
		SubmissionDescription: desc,
		ProgramIDs:            []string{"pmap"},
		ContractType:          domain.ContractTypeBase,
	}
}

func rateForm(name string) domain.RateFormData {
	return domain.RateFormData{
		RateType:              domain.RateTypeNew,
		RateCertificationName: name,
		RateProgramIDs:        []string{"pmap"},
	}
}

func insertContract(t *testing.T, svc *Service, rateIDs ...string) string {
	t.Helper()
	rev, err := svc.InsertDraftContract(context.Background(), InsertContractArgs{
		StateCode: "MN",
		FormData:  contractForm("a contract"),
		RateIDs:   rateIDs,
	})
	require.NoError(t, err)
	return rev.EntityID
}

func insertRate(t *testing.T, svc *Service, contractIDs ...string) string {
	t.Helper()
	rev, err := svc.InsertDraftRate(context.Background(), InsertRateArgs{
		StateCode:   "MN",
		FormData:    rateForm("a rate"),
		ContractIDs: contractIDs,
	})
	require.NoError(t, err)
	return rev.EntityID
}

func submit(t *testing.T, svc *Service, contractID string, rateIDs []string, reason string) *domain.Submission {
	t.Helper()
	sub, err := svc.Submit(context.Background(), SubmitArgs{
		ContractID:  contractID,
		RateIDs:     rateIDs,
		SubmittedBy: "state@example.com",
		Reason:      reason,
	})
	require.NoError(t, err)
	return sub
}

func unlockArgs(id, reason string) UnlockArgs {
	return UnlockArgs{ID: id, UnlockedBy: "cms@example.com", Reason: reason}
}

func findContract(t *testing.T, svc *Service, id string) *domain.ContractWithHistory {
	t.Helper()
	c, err := svc.FindContractWithHistory(context.Background(), id)
	require.NoError(t, err)
	return c
}

func findRate(t *testing.T, svc *Service, id string) *domain.RateWithHistory {
	t.Helper()
	r, err := svc.FindRateWithHistory(context.Background(), id)
	require.NoError(t, err)
	return r
}

func rateEntities(set domain.ContractRevisionSet) []string {
	ids := make([]string, len(set.RateRevisions))
	for i, r := range set.RateRevisions {
		ids[i] = r.EntityID
	}
	return ids
}

func contractEntities(set domain.RateRevisionSet) []string {
	ids := make([]string, len(set.ContractRevisions))
	for i, c := range set.ContractRevisions {
		ids[i] = c.EntityID
	}
	return ids
}

func allLinks(t *testing.T, svc *Service) []store.LinkRow {
	t.Helper()
	var links []store.LinkRow
	require.NoError(t, svc.WithReadTx(context.Background(), func(tx *store.Tx) error {
		var err error
		links, err = tx.AllLinks(context.Background())
		return err
	}))
	return links
}

func TestInsertDraftContract(t *testing.T) {
	svc := setupTestService(t)

	rev, err := svc.InsertDraftContract(context.Background(), InsertContractArgs{
		StateCode: "mn",
		FormData:  contractForm("capitation"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, rev.Number)
	assert.False(t, rev.IsSubmitted())
	assert.Nil(t, rev.UnlockInfo)

	c := findContract(t, svc, rev.EntityID)
	assert.Equal(t, "MN", c.StateCode)
	assert.Equal(t, 1, c.StateNumber)
	assert.Equal(t, "MCR-MN-0001-PMAP", c.Name)
	assert.Equal(t, domain.StatusDraft, c.Status)
	assert.Empty(t, c.Revisions)
	require.NotNil(t, c.Draft)
	assert.Equal(t, rev.ID, c.Draft.Revision.ID)
}

func TestInsertDraft_StateNumbersPerKind(t *testing.T) {
	svc := setupTestService(t)

	c1 := insertContract(t, svc)
	c2 := insertContract(t, svc)
	r1 := insertRate(t, svc)

	assert.Equal(t, 1, findContract(t, svc, c1).StateNumber)
	assert.Equal(t, 2, findContract(t, svc, c2).StateNumber)
	rate := findRate(t, svc, r1)
	assert.Equal(t, 1, rate.StateNumber)
	assert.Equal(t, "RATE-MN-0001", rate.Name)
}

func TestInsertDraft_InvalidArguments(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	_, err := svc.InsertDraftContract(ctx, InsertContractArgs{StateCode: "Minnesota"})
	assert.True(t, domain.IsInvalidArgument(err), "got %v", err)

	_, err = svc.InsertDraftContract(ctx, InsertContractArgs{StateCode: "MN", FormData: domain.ContractFormData{ContractDateStart: "tomorrow"}})
	assert.True(t, domain.IsInvalidArgument(err), "got %v", err)

	_, err = svc.InsertDraftContract(ctx, InsertContractArgs{StateCode: "MN", RateIDs: []string{"missing"}})
	assert.True(t, domain.IsNotFound(err), "got %v", err)
}

func TestDraftUniqueness(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()
	contractID := insertContract(t, svc)

	_, err := svc.UpdateDraftContract(ctx, UpdateContractArgs{ContractID: contractID, FormData: contractForm("edited")})
	require.NoError(t, err)

	submit(t, svc, contractID, nil, "initial")

	_, err = svc.UpdateDraftContract(ctx, UpdateContractArgs{ContractID: contractID, FormData: contractForm("late edit")})
	assert.True(t, domain.IsNoDraft(err), "got %v", err)

	_, err = svc.UnlockContract(ctx, unlockArgs(contractID, "fix"))
	require.NoError(t, err)
	_, err = svc.UnlockContract(ctx, unlockArgs(contractID, "again"))
	assert.True(t, domain.IsAlreadyUnlocked(err), "got %v", err)

	c := findContract(t, svc, contractID)
	assert.Equal(t, domain.StatusUnlocked, c.Status)
	require.NotNil(t, c.Draft)
	assert.Equal(t, 2, c.Draft.Revision.Number)
}

func TestRoundTrip(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	fd := contractForm("Café rates for 2025")
	fd.ContractDocuments = []domain.Document{{Name: "contract.pdf", S3URL: "s3://bucket/contract.pdf"}}
	rev, err := svc.InsertDraftContract(ctx, InsertContractArgs{StateCode: "MN", FormData: fd})
	require.NoError(t, err)

	submit(t, svc, rev.EntityID, nil, "initial")

	c := findContract(t, svc, rev.EntityID)
	require.Len(t, c.Revisions, 1)
	assert.Equal(t, fd, c.Revisions[0].FormData)

	want, err := canonical.Hash(canonical.DomainContractForm, fd)
	require.NoError(t, err)
	assert.Equal(t, want, c.Revisions[0].FormDataHash)
	assert.Equal(t, "initial", c.Revisions[0].SubmitInfo.UpdatedReason)
	assert.Equal(t, domain.StatusSubmitted, c.Status)
	assert.Nil(t, c.Draft)
}

func TestSubmit_ContractAndRatesTogether(t *testing.T) {
	svc := setupTestService(t)
	r1 := insertRate(t, svc)
	r2 := insertRate(t, svc)
	contractID := insertContract(t, svc, r2, r1)

	sub := submit(t, svc, contractID, []string{r1, r2}, "initial")
	assert.Len(t, sub.SubmittedContractRevisionIDs, 1)
	assert.Len(t, sub.SubmittedRateRevisionIDs, 2)
	assert.Empty(t, sub.RelatedContractRevisionIDs)
	assert.Empty(t, sub.RelatedRateRevisionIDs)
	require.Len(t, sub.Links, 2)

	c := findContract(t, svc, contractID)
	require.Len(t, c.Revisions, 1)
	assert.Equal(t, []string{r2, r1}, rateEntities(c.Revisions[0]), "rates follow draft order")

	for _, rateID := range []string{r1, r2} {
		r := findRate(t, svc, rateID)
		require.Len(t, r.Revisions, 1)
		assert.Equal(t, []string{contractID}, contractEntities(r.Revisions[0]))
		assert.Equal(t, sub.ID, r.Revisions[0].SubmitInfo.ID)
	}

	// Both sides are submitted, so nothing stays pending.
	require.NoError(t, svc.WithReadTx(context.Background(), func(tx *store.Tx) error {
		pending, err := tx.DraftLinksForContract(context.Background(), contractID)
		assert.Empty(t, pending)
		return err
	}))
}

// A rate submitted alone and later picked up by a contract.
func TestSubmit_ContractPicksUpSubmittedRate(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()
	contractA := insertContract(t, svc)
	rateR1 := insertRate(t, svc)

	submit(t, svc, "", []string{rateR1}, "r1 submit")
	_, err := svc.UpdateDraftContract(ctx, UpdateContractArgs{
		ContractID: contractA,
		FormData:   contractForm("a contract"),
		RateIDs:    []string{rateR1},
	})
	require.NoError(t, err)
	sub := submit(t, svc, contractA, nil, "a submit")
	assert.Len(t, sub.RelatedRateRevisionIDs, 1)

	a := findContract(t, svc, contractA)
	require.Len(t, a.Revisions, 1)
	assert.Equal(t, "a submit", a.Revisions[0].SubmitInfo.UpdatedReason)
	require.Len(t, a.Revisions[0].RateRevisions, 1)
	assert.Equal(t, rateR1, a.Revisions[0].RateRevisions[0].EntityID)
	assert.Equal(t, 1, a.Revisions[0].RateRevisions[0].Number)

	r1 := findRate(t, svc, rateR1)
	require.Len(t, r1.Revisions, 1)
	assert.Equal(t, "r1 submit", r1.Revisions[0].SubmitInfo.UpdatedReason)
	require.Len(t, r1.Revisions[0].ContractRevisions, 1)
	assert.Equal(t, contractA, r1.Revisions[0].ContractRevisions[0].EntityID)
	assert.Equal(t, 1, r1.Revisions[0].ContractRevisions[0].Number)
}

func TestSubmit_RateResubmissionsExtendContractHistory(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()
	contractA := insertContract(t, svc)
	rateR1 := insertRate(t, svc)

	submit(t, svc, "", []string{rateR1}, "r1 submit")
	_, err := svc.UpdateDraftContract(ctx, UpdateContractArgs{ContractID: contractA, FormData: contractForm("a"), RateIDs: []string{rateR1}})
	require.NoError(t, err)
	submit(t, svc, contractA, nil, "a submit")

	reasons := []string{"r1 resubmit 1", "r1 resubmit 2", "r1 resubmit 3"}
	for _, reason := range reasons {
		_, err := svc.UnlockRate(ctx, unlockArgs(rateR1, "unlock"))
		require.NoError(t, err)
		sub := submit(t, svc, "", []string{rateR1}, reason)
		assert.Len(t, sub.RelatedContractRevisionIDs, 1)
	}

	a := findContract(t, svc, contractA)
	require.Len(t, a.Revisions, 4)
	assert.Equal(t, "r1 resubmit 3", a.Revisions[0].SubmitInfo.UpdatedReason)
	assert.Equal(t, "r1 resubmit 2", a.Revisions[1].SubmitInfo.UpdatedReason)
	assert.Equal(t, "r1 resubmit 1", a.Revisions[2].SubmitInfo.UpdatedReason)
	assert.Equal(t, "a submit", a.Revisions[3].SubmitInfo.UpdatedReason)
	for i, set := range a.Revisions {
		assert.Equal(t, 1, set.RevisionNumber, "contract revision stays fixed")
		require.Len(t, set.RateRevisions, 1)
		assert.Equal(t, 4-i, set.RateRevisions[0].Number)
	}
	assert.Equal(t, domain.StatusSubmitted, a.Status)

	r1 := findRate(t, svc, rateR1)
	require.Len(t, r1.Revisions, 4)
	for _, set := range r1.Revisions {
		assert.Equal(t, []string{contractA}, contractEntities(set))
	}
	assert.Equal(t, domain.StatusResubmitted, r1.Status)

	// Exactly one link per rate revision is still open.
	open := 0
	for _, l := range allLinks(t, svc) {
		if l.ValidUntilSeq == nil && !l.IsRemoval {
			open++
		}
	}
	assert.Equal(t, 1, open)
}

func TestSubmit_ContractDropsRate(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()
	r1 := insertRate(t, svc)
	r2 := insertRate(t, svc)
	contractID := insertContract(t, svc, r1, r2)
	submit(t, svc, contractID, []string{r1, r2}, "initial")

	_, err := svc.UnlockContract(ctx, unlockArgs(contractID, "drop a rate"))
	require.NoError(t, err)
	_, err = svc.UpdateDraftContract(ctx, UpdateContractArgs{ContractID: contractID, FormData: contractForm("a"), RateIDs: []string{r1}})
	require.NoError(t, err)
	sub := submit(t, svc, contractID, nil, "without r2")

	removals := 0
	for _, l := range sub.Links {
		if l.IsRemoval {
			removals++
			assert.Equal(t, 2, l.RatePosition)
			assert.Nil(t, l.ValidUntilSeq)
		}
	}
	assert.Equal(t, 1, removals)
	assert.Len(t, sub.RelatedRateRevisionIDs, 2)

	c := findContract(t, svc, contractID)
	require.Len(t, c.Revisions, 2)
	assert.Equal(t, []string{r1}, rateEntities(c.Revisions[0]))
	assert.Equal(t, []string{r1, r2}, rateEntities(c.Revisions[1]))
	assert.Equal(t, domain.StatusResubmitted, c.Status)

	rate2 := findRate(t, svc, r2)
	require.Len(t, rate2.Revisions, 2)
	assert.Empty(t, rate2.Revisions[0].ContractRevisions)
	assert.Equal(t, "without r2", rate2.Revisions[0].SubmitInfo.UpdatedReason)
	assert.Equal(t, []string{contractID}, contractEntities(rate2.Revisions[1]))

	rate1 := findRate(t, svc, r1)
	require.Len(t, rate1.Revisions, 2)
	assert.Equal(t, 2, rate1.Revisions[0].ContractRevisions[0].Number)
	assert.Equal(t, 1, rate1.Revisions[1].ContractRevisions[0].Number)
}

func TestSubmit_RateDropsContract(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()
	rateID := insertRate(t, svc)
	contractID := insertContract(t, svc, rateID)
	submit(t, svc, contractID, []string{rateID}, "initial")

	_, err := svc.UnlockRate(ctx, unlockArgs(rateID, "withdraw"))
	require.NoError(t, err)
	_, err = svc.UpdateDraftRate(ctx, UpdateRateArgs{RateID: rateID, FormData: rateForm("a rate")})
	require.NoError(t, err)
	sub := submit(t, svc, "", []string{rateID}, "standalone")

	require.Len(t, sub.Links, 1)
	assert.True(t, sub.Links[0].IsRemoval)
	assert.Len(t, sub.RelatedContractRevisionIDs, 1)

	c := findContract(t, svc, contractID)
	require.Len(t, c.Revisions, 2)
	assert.Empty(t, c.Revisions[0].RateRevisions)
	assert.Equal(t, "standalone", c.Revisions[0].SubmitInfo.UpdatedReason)
	assert.Equal(t, []string{rateID}, rateEntities(c.Revisions[1]))

	r := findRate(t, svc, rateID)
	require.Len(t, r.Revisions, 2)
	assert.Empty(t, r.Revisions[0].ContractRevisions)
	assert.Equal(t, []string{contractID}, contractEntities(r.Revisions[1]))
}

func TestSubmit_EmptyResubmissionSurvivesLaterAttachment(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()
	rateR1 := insertRate(t, svc)
	submit(t, svc, "", []string{rateR1}, "r1 submit")
	contractID := insertContract(t, svc, rateR1)
	submit(t, svc, contractID, nil, "c1 submit")

	_, err := svc.UnlockContract(ctx, unlockArgs(contractID, "drop r1"))
	require.NoError(t, err)
	_, err = svc.UpdateDraftContract(ctx, UpdateContractArgs{ContractID: contractID, FormData: contractForm("a")})
	require.NoError(t, err)
	submit(t, svc, contractID, nil, "c2 submit no rates")

	rateR2 := insertRate(t, svc, contractID)
	submit(t, svc, "", []string{rateR2}, "r2 submit")

	c := findContract(t, svc, contractID)
	require.Len(t, c.Revisions, 3)
	assert.Equal(t, []string{rateR2}, rateEntities(c.Revisions[0]))
	assert.Equal(t, "r2 submit", c.Revisions[0].SubmitInfo.UpdatedReason)
	assert.Empty(t, c.Revisions[1].RateRevisions)
	assert.Equal(t, "c2 submit no rates", c.Revisions[1].SubmitInfo.UpdatedReason)
	assert.Equal(t, []string{rateR1}, rateEntities(c.Revisions[2]))
	assert.Equal(t, "c1 submit", c.Revisions[2].SubmitInfo.UpdatedReason)
	assert.Equal(t, c.Revisions[0].RevisionID, c.Revisions[1].RevisionID)

	r2 := findRate(t, svc, rateR2)
	require.Len(t, r2.Revisions, 1)
	assert.Equal(t, "r2 submit", r2.Revisions[0].SubmitInfo.UpdatedReason)
	require.Len(t, r2.Revisions[0].ContractRevisions, 1)
	assert.Equal(t, 2, r2.Revisions[0].ContractRevisions[0].Number)

	// R1 was submitted before anything linked it, so its first set is
	// still filled by the contract that picked it up.
	r1 := findRate(t, svc, rateR1)
	require.Len(t, r1.Revisions, 2)
	assert.Empty(t, r1.Revisions[0].ContractRevisions)
	assert.Equal(t, "c2 submit no rates", r1.Revisions[0].SubmitInfo.UpdatedReason)
	assert.Equal(t, []string{contractID}, contractEntities(r1.Revisions[1]))
	assert.Equal(t, "r1 submit", r1.Revisions[1].SubmitInfo.UpdatedReason)
}

func TestSubmit_RateRejoinsContractAfterRemoval(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()
	rateID := insertRate(t, svc)
	submit(t, svc, "", []string{rateID}, "r1 submit")
	contractID := insertContract(t, svc, rateID)
	submit(t, svc, contractID, nil, "c1 submit")

	_, err := svc.UnlockContract(ctx, unlockArgs(contractID, "drop rate"))
	require.NoError(t, err)
	_, err = svc.UpdateDraftContract(ctx, UpdateContractArgs{ContractID: contractID, FormData: contractForm("a")})
	require.NoError(t, err)
	submit(t, svc, contractID, nil, "c2 submit no rates")

	_, err = svc.UnlockRate(ctx, unlockArgs(rateID, "rejoin"))
	require.NoError(t, err)
	_, err = svc.UpdateDraftRate(ctx, UpdateRateArgs{RateID: rateID, FormData: rateForm("a rate"), ContractIDs: []string{contractID}})
	require.NoError(t, err)
	submit(t, svc, "", []string{rateID}, "r2 submit")

	c := findContract(t, svc, contractID)
	require.Len(t, c.Revisions, 3)
	assert.Equal(t, []string{rateID}, rateEntities(c.Revisions[0]))
	assert.Equal(t, 2, c.Revisions[0].RateRevisions[0].Number)
	assert.Equal(t, "r2 submit", c.Revisions[0].SubmitInfo.UpdatedReason)
	assert.Empty(t, c.Revisions[1].RateRevisions)
	assert.Equal(t, "c2 submit no rates", c.Revisions[1].SubmitInfo.UpdatedReason)
	assert.Equal(t, 1, c.Revisions[2].RateRevisions[0].Number)
	assert.Equal(t, "c1 submit", c.Revisions[2].SubmitInfo.UpdatedReason)

	r := findRate(t, svc, rateID)
	require.Len(t, r.Revisions, 3)
	assert.Equal(t, "r2 submit", r.Revisions[0].SubmitInfo.UpdatedReason)
	require.Len(t, r.Revisions[0].ContractRevisions, 1)
	assert.Equal(t, 2, r.Revisions[0].ContractRevisions[0].Number)
	assert.Empty(t, r.Revisions[1].ContractRevisions)
	assert.Equal(t, "c2 submit no rates", r.Revisions[1].SubmitInfo.UpdatedReason)
	assert.Equal(t, "r1 submit", r.Revisions[2].SubmitInfo.UpdatedReason)
}

func TestSubmit_EmptyRateResubmissionThenReattached(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()
	rateID := insertRate(t, svc)
	submit(t, svc, "", []string{rateID}, "r1 submit")
	contractID := insertContract(t, svc, rateID)
	submit(t, svc, contractID, nil, "c1 submit")

	_, err := svc.UnlockContract(ctx, unlockArgs(contractID, "drop rate"))
	require.NoError(t, err)
	_, err = svc.UpdateDraftContract(ctx, UpdateContractArgs{ContractID: contractID, FormData: contractForm("a")})
	require.NoError(t, err)
	submit(t, svc, contractID, nil, "c2 submit no rates")

	_, err = svc.UnlockRate(ctx, unlockArgs(rateID, "edit rate"))
	require.NoError(t, err)
	_, err = svc.UpdateDraftRate(ctx, UpdateRateArgs{RateID: rateID, FormData: rateForm("edited")})
	require.NoError(t, err)
	submit(t, svc, "", []string{rateID}, "r2 submit empty")

	_, err = svc.UnlockContract(ctx, unlockArgs(contractID, "re-add rate"))
	require.NoError(t, err)
	_, err = svc.UpdateDraftContract(ctx, UpdateContractArgs{ContractID: contractID, FormData: contractForm("a"), RateIDs: []string{rateID}})
	require.NoError(t, err)
	submit(t, svc, contractID, nil, "c3 submit")

	r := findRate(t, svc, rateID)
	require.Len(t, r.Revisions, 4)
	assert.Equal(t, "c3 submit", r.Revisions[0].SubmitInfo.UpdatedReason)
	require.Len(t, r.Revisions[0].ContractRevisions, 1)
	assert.Equal(t, 3, r.Revisions[0].ContractRevisions[0].Number)
	assert.Empty(t, r.Revisions[1].ContractRevisions)
	assert.Equal(t, "r2 submit empty", r.Revisions[1].SubmitInfo.UpdatedReason)
	assert.Equal(t, 2, r.Revisions[1].RevisionNumber)
	assert.Empty(t, r.Revisions[2].ContractRevisions)
	assert.Equal(t, "c2 submit no rates", r.Revisions[2].SubmitInfo.UpdatedReason)
	assert.Equal(t, []string{contractID}, contractEntities(r.Revisions[3]))
	assert.Equal(t, "r1 submit", r.Revisions[3].SubmitInfo.UpdatedReason)

	c := findContract(t, svc, contractID)
	require.Len(t, c.Revisions, 3)
	assert.Equal(t, "c3 submit", c.Revisions[0].SubmitInfo.UpdatedReason)
	require.Len(t, c.Revisions[0].RateRevisions, 1)
	assert.Equal(t, 2, c.Revisions[0].RateRevisions[0].Number)
	assert.Empty(t, c.Revisions[1].RateRevisions)
	assert.Equal(t, "c2 submit no rates", c.Revisions[1].SubmitInfo.UpdatedReason)
	assert.Equal(t, "c1 submit", c.Revisions[2].SubmitInfo.UpdatedReason)
}

func TestFindWithHistory_CorruptLinks(t *testing.T) {
	t.Run("link to unsubmitted revision", func(t *testing.T) {
		svc := setupTestService(t)
		ctx := context.Background()
		rateID := insertRate(t, svc)
		contractID := insertContract(t, svc, rateID)
		sub := submit(t, svc, contractID, []string{rateID}, "initial")

		draft, err := svc.InsertDraftRate(ctx, InsertRateArgs{StateCode: "MN", FormData: rateForm("draft")})
		require.NoError(t, err)
		require.NoError(t, svc.WithTx(ctx, func(tx *store.Tx) error {
			return tx.InsertLink(ctx, domain.Link{
				ID:                 "bad-link",
				ContractRevisionID: sub.SubmittedContractRevisionIDs[0],
				RateRevisionID:     draft.ID,
				ValidAfter:         sub.UpdatedAt,
				ValidAfterSeq:      sub.Seq,
				RatePosition:       2,
			})
		}))

		c, err := svc.FindContractWithHistory(ctx, contractID)
		require.Error(t, err)
		assert.True(t, domain.IsProgrammingError(err))
		assert.Nil(t, c)
	})

	t.Run("link seq does not match secondary submission", func(t *testing.T) {
		svc := setupTestService(t)
		ctx := context.Background()
		contractID := insertContract(t, svc)
		sub := submit(t, svc, contractID, nil, "initial")
		rateID := insertRate(t, svc)
		rateSub := submit(t, svc, "", []string{rateID}, "rate")

		require.NoError(t, svc.WithTx(ctx, func(tx *store.Tx) error {
			return tx.InsertLink(ctx, domain.Link{
				ID:                 "bad-link",
				ContractRevisionID: sub.SubmittedContractRevisionIDs[0],
				RateRevisionID:     rateSub.SubmittedRateRevisionIDs[0],
				ValidAfter:         rateSub.UpdatedAt,
				ValidAfterSeq:      rateSub.Seq + 10,
				RatePosition:       1,
			})
		}))

		c, err := svc.FindContractWithHistory(ctx, contractID)
		require.Error(t, err)
		assert.True(t, domain.IsProgrammingError(err))
		assert.Nil(t, c)
	})
}

func TestSubmit_RateWhileContractUnlocked(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()
	rateID := insertRate(t, svc)
	contractID := insertContract(t, svc, rateID)
	submit(t, svc, contractID, []string{rateID}, "initial")

	_, err := svc.UnlockContract(ctx, unlockArgs(contractID, "contract fix"))
	require.NoError(t, err)
	_, err = svc.UnlockRate(ctx, unlockArgs(rateID, "rate fix"))
	require.NoError(t, err)
	submit(t, svc, "", []string{rateID}, "rate resubmit")

	c := findContract(t, svc, contractID)
	require.Len(t, c.Revisions, 2)
	assert.Equal(t, 2, c.Revisions[0].RateRevisions[0].Number)
	assert.Equal(t, "rate resubmit", c.Revisions[0].SubmitInfo.UpdatedReason)
	require.NotNil(t, c.Draft)
	require.Len(t, c.Draft.Rates, 1)
	assert.Equal(t, 2, c.Draft.Rates[0].Number)

	submit(t, svc, contractID, nil, "contract resubmit")

	c = findContract(t, svc, contractID)
	require.Len(t, c.Revisions, 3)
	assert.Equal(t, 2, c.Revisions[0].RevisionNumber)
	assert.Equal(t, 2, c.Revisions[0].RateRevisions[0].Number)
	assert.Nil(t, c.Draft)

	r := findRate(t, svc, rateID)
	require.Len(t, r.Revisions, 3)
	assert.Equal(t, 2, r.Revisions[0].ContractRevisions[0].Number)
	assert.Equal(t, 1, r.Revisions[1].ContractRevisions[0].Number)
}

func TestSubmit_Symmetry(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()
	r1 := insertRate(t, svc)
	r2 := insertRate(t, svc)
	c1 := insertContract(t, svc, r1, r2)
	c2 := insertContract(t, svc, r2)
	submit(t, svc, c1, []string{r1, r2}, "c1")
	submit(t, svc, c2, nil, "c2")

	_, err := svc.UnlockRate(ctx, unlockArgs(r2, "update"))
	require.NoError(t, err)
	submit(t, svc, "", []string{r2}, "r2 again")

	// Every open link appears in the newest set on both sides.
	for _, l := range allLinks(t, svc) {
		if l.IsRemoval || l.ValidUntilSeq != nil {
			continue
		}
		c := findContract(t, svc, l.ContractID)
		assert.Contains(t, rateEntities(c.Revisions[0]), l.RateID)
		r := findRate(t, svc, l.RateID)
		assert.Contains(t, contractEntities(r.Revisions[0]), l.ContractID)
	}

	rate2 := findRate(t, svc, r2)
	assert.ElementsMatch(t, []string{c1, c2}, contractEntities(rate2.Revisions[0]))
}

func TestSubmit_LinksAreAppendOnly(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()
	rateID := insertRate(t, svc)
	contractID := insertContract(t, svc, rateID)
	submit(t, svc, contractID, []string{rateID}, "initial")
	before := allLinks(t, svc)

	_, err := svc.UnlockRate(ctx, unlockArgs(rateID, "fix"))
	require.NoError(t, err)
	submit(t, svc, "", []string{rateID}, "again")
	after := allLinks(t, svc)

	require.Len(t, after, len(before)+1)
	for i, l := range before {
		assert.Equal(t, l.ID, after[i].ID)
		assert.Equal(t, l.ValidAfterSeq, after[i].ValidAfterSeq)
	}
	for _, l := range after {
		if l.ValidUntilSeq != nil {
			assert.Greater(t, *l.ValidUntilSeq, l.ValidAfterSeq)
		}
	}
}

func TestSubmit_Errors(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	t.Run("nothing to submit", func(t *testing.T) {
		_, err := svc.Submit(ctx, SubmitArgs{SubmittedBy: "x", Reason: "y"})
		assert.True(t, domain.IsInvalidArgument(err), "got %v", err)
	})

	t.Run("missing reason", func(t *testing.T) {
		_, err := svc.Submit(ctx, SubmitArgs{ContractID: "c", SubmittedBy: "x"})
		assert.True(t, domain.IsInvalidArgument(err), "got %v", err)
	})

	t.Run("unknown contract", func(t *testing.T) {
		_, err := svc.Submit(ctx, SubmitArgs{ContractID: "missing", SubmittedBy: "x", Reason: "y"})
		assert.True(t, domain.IsNotFound(err), "got %v", err)
	})

	t.Run("no drafts lists every rate", func(t *testing.T) {
		r1 := insertRate(t, svc)
		r2 := insertRate(t, svc)
		submit(t, svc, "", []string{r1, r2}, "first")

		_, err := svc.Submit(ctx, SubmitArgs{RateIDs: []string{r1, r2}, SubmittedBy: "x", Reason: "again"})
		require.True(t, domain.IsNoDraft(err), "got %v", err)
		var derr *domain.Error
		require.True(t, errors.As(err, &derr))
		assert.Equal(t, []string{r1, r2}, derr.IDs)
	})

	t.Run("unsubmitted dependency aborts", func(t *testing.T) {
		rateID := insertRate(t, svc)
		contractID := insertContract(t, svc, rateID)

		_, err := svc.Submit(ctx, SubmitArgs{ContractID: contractID, SubmittedBy: "x", Reason: "y"})
		require.True(t, domain.IsUnsubmittedDependency(err), "got %v", err)

		c := findContract(t, svc, contractID)
		assert.Equal(t, domain.StatusDraft, c.Status)
		assert.Empty(t, c.Revisions)
	})

	t.Run("incomplete form data", func(t *testing.T) {
		rev, err := svc.InsertDraftContract(ctx, InsertContractArgs{StateCode: "MN"})
		require.NoError(t, err)
		_, err = svc.Submit(ctx, SubmitArgs{ContractID: rev.EntityID, SubmittedBy: "x", Reason: "y"})
		assert.True(t, domain.IsInvalidArgument(err), "got %v", err)
	})
}

func TestSubmit_UnsubmittedDependencyLoggedOnce(t *testing.T) {
	svc := setupTestService(t)
	var buf bytes.Buffer
	ctx := zerolog.New(&buf).WithContext(context.Background())
	rateID := insertRate(t, svc)
	contractID := insertContract(t, svc, rateID)

	_, err := svc.Submit(ctx, SubmitArgs{ContractID: contractID, SubmittedBy: "x", Reason: "y"})
	require.True(t, domain.IsUnsubmittedDependency(err), "got %v", err)

	var errorLines []string
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if strings.Contains(line, `"level":"error"`) {
			errorLines = append(errorLines, line)
		}
	}
	require.Len(t, errorLines, 1)
	assert.Contains(t, errorLines[0], `"contract_id":"`+contractID+`"`)
	assert.Contains(t, errorLines[0], `"method":"Service.Submit"`)
}

func TestUnlock_Errors(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	_, err := svc.UnlockRate(ctx, unlockArgs("missing", "x"))
	assert.True(t, domain.IsNotFound(err), "got %v", err)

	rateID := insertRate(t, svc)
	_, err = svc.UnlockRate(ctx, unlockArgs(rateID, "x"))
	assert.True(t, domain.IsAlreadyUnlocked(err), "got %v", err)

	_, err = svc.UnlockRate(ctx, UnlockArgs{ID: rateID})
	assert.True(t, domain.IsInvalidArgument(err), "got %v", err)
}

func TestUnlock_RestoresDraftLinks(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()
	r1 := insertRate(t, svc)
	r2 := insertRate(t, svc)
	contractID := insertContract(t, svc, r1, r2)
	submit(t, svc, contractID, []string{r1, r2}, "initial")

	rev, err := svc.UnlockContract(ctx, unlockArgs(contractID, "fix"))
	require.NoError(t, err)
	assert.Equal(t, 2, rev.Number)
	require.NotNil(t, rev.UnlockInfo)
	assert.Equal(t, "fix", rev.UnlockInfo.UpdatedReason)

	c := findContract(t, svc, contractID)
	require.NotNil(t, c.Draft)
	assert.Equal(t, c.Revisions[0].FormDataHash, c.Draft.Revision.FormDataHash)
	require.Len(t, c.Draft.Rates, 2)
	assert.Equal(t, r1, c.Draft.Rates[0].EntityID)
	assert.Equal(t, r2, c.Draft.Rates[1].EntityID)
}

func TestUpdateDraftRate_DraftContractOwnsLinks(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()
	contractID := insertContract(t, svc)
	rateID := insertRate(t, svc)

	_, err := svc.UpdateDraftRate(ctx, UpdateRateArgs{RateID: rateID, FormData: rateForm("r"), ContractIDs: []string{contractID}})
	assert.True(t, domain.IsInvalidArgument(err), "got %v", err)
}

func TestWithTx_ComposesOperations(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()
	rateID := insertRate(t, svc)
	contractID := insertContract(t, svc, rateID)
	submit(t, svc, contractID, []string{rateID}, "initial")

	err := svc.WithTx(ctx, func(tx *store.Tx) error {
		if _, err := svc.UnlockContractInTx(ctx, tx, unlockArgs(contractID, "amend")); err != nil {
			return err
		}
		fd := contractForm("amended")
		if _, err := svc.UpdateDraftContractInTx(ctx, tx, UpdateContractArgs{ContractID: contractID, FormData: fd, RateIDs: []string{rateID}}); err != nil {
			return err
		}
		if _, err := svc.SubmitInTx(ctx, tx, SubmitArgs{ContractID: contractID, SubmittedBy: "x", Reason: "amended"}); err != nil {
			return err
		}
		c, err := svc.FindContractWithHistoryInTx(ctx, tx, contractID)
		if err != nil {
			return err
		}
		assert.Len(t, c.Revisions, 2)
		return nil
	})
	require.NoError(t, err)

	c := findContract(t, svc, contractID)
	require.Len(t, c.Revisions, 2)
	assert.Equal(t, "amended", c.Revisions[0].FormData.SubmissionDescription)
}

func TestWithTx_RollsBack(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()
	contractID := insertContract(t, svc)
	submit(t, svc, contractID, nil, "initial")

	boom := errors.New("boom")
	err := svc.WithTx(ctx, func(tx *store.Tx) error {
		if _, err := svc.UnlockContractInTx(ctx, tx, unlockArgs(contractID, "x")); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	c := findContract(t, svc, contractID)
	assert.Equal(t, domain.StatusSubmitted, c.Status)
	assert.Nil(t, c.Draft)
}

func TestList(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()
	rateID := insertRate(t, svc)
	contractID := insertContract(t, svc, rateID)
	submit(t, svc, contractID, []string{rateID}, "initial")
	_, err := svc.InsertDraftContract(ctx, InsertContractArgs{StateCode: "FL", FormData: contractForm("x")})
	require.NoError(t, err)

	all, err := svc.ListContracts(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "FL", all[0].StateCode)
	assert.Equal(t, domain.StatusDraft, all[0].Status)
	assert.Equal(t, domain.StatusSubmitted, all[1].Status)

	mn, err := svc.ListContracts(ctx, "mn")
	require.NoError(t, err)
	require.Len(t, mn, 1)
	assert.Equal(t, "MCR-MN-0001-PMAP", mn[0].Name)

	rates, err := svc.ListRates(ctx, "MN")
	require.NoError(t, err)
	require.Len(t, rates, 1)
	assert.Equal(t, domain.StatusSubmitted, rates[0].Status)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	svc := setupTestService(t, WithMetrics(m))
	ctx := context.Background()

	rateID := insertRate(t, svc)
	contractID := insertContract(t, svc, rateID)
	submit(t, svc, contractID, []string{rateID}, "initial")
	_, err := svc.UnlockRate(ctx, unlockArgs(rateID, "x"))
	require.NoError(t, err)
	_, err = svc.UnlockRate(ctx, unlockArgs(rateID, "x"))
	require.Error(t, err)
	findContract(t, svc, contractID)

	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.SubmissionsTotal.WithLabelValues("contract_and_rates")))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.LinksWrittenTotal.WithLabelValues("link")))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.UnlocksTotal.WithLabelValues("RATE")))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.ErrorsTotal.WithLabelValues("unlock_rate", "ALREADY_UNLOCKED")))
	assert.Equal(t, 1, promtestutil.CollectAndCount(m.HistoryDuration))
}
