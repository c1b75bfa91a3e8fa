package revisions

import (
	"context"
	"slices"

	"github.com/Enterprise-CMCS/managed-care-review-sub005/internal/domain"
	"github.com/Enterprise-CMCS/managed-care-review-sub005/internal/store"
)

// replayEntry is one secondary revision attached to a set.
type replayEntry struct {
	link      store.LinkRow
	secondary store.RevisionRow
}

// replaySet is one reconstructed history row before conversion.
type replaySet struct {
	primary store.RevisionRow
	info    domain.UpdateInfo
	entries []replayEntry
}

// replay is the raw history of one entity: its sets oldest first and the
// update infos needed to convert them.
type replay struct {
	sets  []replaySet
	infos map[string]domain.UpdateInfo
}

// replayHistory rebuilds the composition of every submitted revision of
// the entity from the link table.
//
// A revision's first set holds the links written by its own submission.
// Each later event that wrote links for the revision produces one more
// set: a link for a secondary entity already present replaces it in
// place, a removal link drops it, anything else is appended. The entity's
// first submitted revision, when its own submission wrote no link rows at
// all, takes the first later event into its own set instead.
func replayHistory(ctx context.Context, tx *store.Tx, kind domain.Kind, revs []store.RevisionRow) (replay, error) {
	var submitted []store.RevisionRow
	for _, r := range revs {
		if r.IsSubmitted() {
			submitted = append(submitted, r)
		}
	}
	ids := make([]string, len(submitted))
	for i, r := range submitted {
		ids[i] = r.ID
	}

	links, err := tx.LinksForRevisions(ctx, kind, ids)
	if err != nil {
		return replay{}, err
	}
	other := kind.Other()
	secondaryIDs := make([]string, 0, len(links))
	for _, l := range links {
		secondaryIDs = append(secondaryIDs, l.RevisionID(other))
	}
	secondaries, err := tx.GetRevisions(ctx, other, dedupe(secondaryIDs))
	if err != nil {
		return replay{}, err
	}

	infoRows := slices.Clone(submitted)
	for _, r := range secondaries {
		infoRows = append(infoRows, r)
	}
	infos, err := tx.GetUpdateInfos(ctx, updateInfoIDs(infoRows...))
	if err != nil {
		return replay{}, err
	}

	byRevision := make(map[string][]store.LinkRow, len(submitted))
	for _, l := range links {
		id := l.RevisionID(kind)
		byRevision[id] = append(byRevision[id], l)
	}

	out := replay{infos: infos}
	for i, primary := range submitted {
		sets, err := replayRevision(kind, primary, i == 0, byRevision[primary.ID], secondaries, infos)
		if err != nil {
			return replay{}, err
		}
		out.sets = append(out.sets, sets...)
	}
	return out, nil
}

func replayRevision(kind domain.Kind, primary store.RevisionRow, firstRevision bool, links []store.LinkRow, secondaries map[string]store.RevisionRow, infos map[string]domain.UpdateInfo) ([]replaySet, error) {
	own, err := lookupInfo(primary.SubmitInfoID, infos)
	if err != nil {
		return nil, err
	}
	other := kind.Other()

	entryFor := func(l store.LinkRow) (replayEntry, error) {
		sec, ok := secondaries[l.RevisionID(other)]
		if !ok {
			return replayEntry{}, domain.NewProgrammingError("link %s names missing %s revision %s", l.ID, other, l.RevisionID(other))
		}
		if !sec.IsSubmitted() {
			return replayEntry{}, domain.NewProgrammingError("link %s names unsubmitted %s revision %s", l.ID, other, sec.ID)
		}
		return replayEntry{link: l, secondary: sec}, nil
	}

	first := replaySet{primary: primary, info: *own}
	var later []store.LinkRow
	ownLinks := false
	for _, l := range links {
		if l.ValidAfterSeq > own.Seq {
			later = append(later, l)
			continue
		}
		ownLinks = true
		if l.IsRemoval {
			continue
		}
		e, err := entryFor(l)
		if err != nil {
			return nil, err
		}
		first.entries = append(first.entries, e)
	}
	sortEntries(kind, first.entries)
	sets := []replaySet{first}

	// later is ordered by seq, so each run of equal seqs is one event.
	for start := 0; start < len(later); {
		seq := later[start].ValidAfterSeq
		end := start
		for end < len(later) && later[end].ValidAfterSeq == seq {
			end++
		}
		group := later[start:end]
		start = end

		entries := slices.Clone(sets[len(sets)-1].entries)
		var info *domain.UpdateInfo
		for _, l := range group {
			e, err := entryFor(l)
			if err != nil {
				return nil, err
			}
			secInfo, err := lookupInfo(e.secondary.SubmitInfoID, infos)
			if err != nil {
				return nil, err
			}
			if secInfo.Seq != l.ValidAfterSeq {
				return nil, domain.NewProgrammingError("link %s valid after seq %d but %s revision %s was submitted at seq %d",
					l.ID, l.ValidAfterSeq, other, e.secondary.ID, secInfo.Seq)
			}
			info = secInfo

			i := slices.IndexFunc(entries, func(x replayEntry) bool { return x.secondary.EntityID == e.secondary.EntityID })
			switch {
			case i >= 0 && l.IsRemoval:
				entries = slices.Delete(entries, i, i+1)
			case i >= 0:
				entries[i] = e
			case !l.IsRemoval:
				entries = append(entries, e)
			}
		}
		sortEntries(kind, entries)
		if len(sets) == 1 && firstRevision && !ownLinks {
			// Submitted alone before anything linked it; an empty
			// resubmission keeps its own set.
			sets[0].entries = entries
			continue
		}
		sets = append(sets, replaySet{primary: primary, info: *info, entries: entries})
	}
	return sets, nil
}

// sortEntries orders a contract's rates by position. A rate's contracts
// keep the order in which they were attached.
func sortEntries(kind domain.Kind, entries []replayEntry) {
	if kind != domain.KindContract {
		return
	}
	slices.SortStableFunc(entries, func(a, b replayEntry) int {
		return a.link.RatePosition - b.link.RatePosition
	})
}

func contractSets(r replay) ([]domain.ContractRevisionSet, error) {
	out := make([]domain.ContractRevisionSet, 0, len(r.sets))
	for i := len(r.sets) - 1; i >= 0; i-- {
		set := r.sets[i]
		rev, err := toContractRevision(set.primary, r.infos)
		if err != nil {
			return nil, err
		}
		rates := make([]domain.RateRevision, 0, len(set.entries))
		for _, e := range set.entries {
			rr, err := toRateRevision(e.secondary, r.infos)
			if err != nil {
				return nil, err
			}
			rates = append(rates, rr)
		}
		out = append(out, domain.ContractRevisionSet{
			RevisionID:     rev.ID,
			RevisionNumber: rev.Number,
			SubmitInfo:     set.info,
			UnlockInfo:     rev.UnlockInfo,
			FormData:       rev.FormData,
			FormDataHash:   rev.FormDataHash,
			RateRevisions:  rates,
		})
	}
	return out, nil
}

func rateSets(r replay) ([]domain.RateRevisionSet, error) {
	out := make([]domain.RateRevisionSet, 0, len(r.sets))
	for i := len(r.sets) - 1; i >= 0; i-- {
		set := r.sets[i]
		rev, err := toRateRevision(set.primary, r.infos)
		if err != nil {
			return nil, err
		}
		contracts := make([]domain.ContractRevision, 0, len(set.entries))
		for _, e := range set.entries {
			cr, err := toContractRevision(e.secondary, r.infos)
			if err != nil {
				return nil, err
			}
			contracts = append(contracts, cr)
		}
		out = append(out, domain.RateRevisionSet{
			RevisionID:        rev.ID,
			RevisionNumber:    rev.Number,
			SubmitInfo:        set.info,
			UnlockInfo:        rev.UnlockInfo,
			FormData:          rev.FormData,
			FormDataHash:      rev.FormDataHash,
			ContractRevisions: contracts,
		})
	}
	return out, nil
}
