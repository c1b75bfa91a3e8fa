package revisions

import "github.com/Enterprise-CMCS/managed-care-review-sub005/internal/domain"

type linkKey struct {
	contractRevisionID string
	rateRevisionID     string
}

// submission accumulates the writes of one submit call.
type submission struct {
	info  domain.UpdateInfo
	newID func() string

	contractRevisionIDs []string
	rateRevisionIDs     []string
	submittedContracts  map[string]bool
	submittedRevisions  map[string]bool

	links     []domain.Link
	linkIndex map[linkKey]int

	relatedContracts []string
	relatedRates     []string
	related          map[string]bool

	touched    []domain.DraftLink
	touchIndex map[linkKey]bool
}

func newSubmission(info domain.UpdateInfo, newID func() string) *submission {
	return &submission{
		info:               info,
		newID:              newID,
		submittedContracts: map[string]bool{},
		submittedRevisions: map[string]bool{},
		linkIndex:          map[linkKey]int{},
		related:            map[string]bool{},
		touchIndex:         map[linkKey]bool{},
	}
}

func (s *submission) submitContract(contractID, revisionID string) {
	s.submittedContracts[contractID] = true
	s.submittedRevisions[revisionID] = true
	s.contractRevisionIDs = append(s.contractRevisionIDs, revisionID)
}

func (s *submission) submitRate(revisionID string) {
	s.submittedRevisions[revisionID] = true
	s.rateRevisionIDs = append(s.rateRevisionIDs, revisionID)
}

func (s *submission) contractSubmitted(contractID string) bool {
	return s.submittedContracts[contractID]
}

// addLink queues a link stamped with this submission. A pair queued twice
// keeps its first entry, except that a plain link wins over a removal.
func (s *submission) addLink(contractRevisionID, rateRevisionID string, position int, removal bool) {
	key := linkKey{contractRevisionID, rateRevisionID}
	if i, ok := s.linkIndex[key]; ok {
		if s.links[i].IsRemoval && !removal {
			s.links[i].IsRemoval = false
			s.links[i].RatePosition = position
		}
		return
	}
	s.linkIndex[key] = len(s.links)
	s.links = append(s.links, domain.Link{
		ID:                 s.newID(),
		ContractRevisionID: contractRevisionID,
		RateRevisionID:     rateRevisionID,
		ValidAfter:         s.info.UpdatedAt,
		ValidAfterSeq:      s.info.Seq,
		IsRemoval:          removal,
		RatePosition:       position,
	})
}

// relateContract records a contract revision whose composition changed
// without a new submission of its own.
func (s *submission) relateContract(revisionID string) {
	if s.submittedRevisions[revisionID] || s.related[revisionID] {
		return
	}
	s.related[revisionID] = true
	s.relatedContracts = append(s.relatedContracts, revisionID)
}

func (s *submission) relateRate(revisionID string) {
	if s.submittedRevisions[revisionID] || s.related[revisionID] {
		return
	}
	s.related[revisionID] = true
	s.relatedRates = append(s.relatedRates, revisionID)
}

func (s *submission) touch(contractID, rateID string) {
	key := linkKey{contractID, rateID}
	if s.touchIndex[key] {
		return
	}
	s.touchIndex[key] = true
	s.touched = append(s.touched, domain.DraftLink{ContractID: contractID, RateID: rateID})
}

func (s *submission) result() *domain.Submission {
	return &domain.Submission{
		UpdateInfo:                   s.info,
		SubmittedContractRevisionIDs: nonNil(s.contractRevisionIDs),
		SubmittedRateRevisionIDs:     nonNil(s.rateRevisionIDs),
		RelatedContractRevisionIDs:   nonNil(s.relatedContracts),
		RelatedRateRevisionIDs:       nonNil(s.relatedRates),
		Links:                        append([]domain.Link{}, s.links...),
	}
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
