package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Enterprise-CMCS/managed-care-review-sub005/internal/domain"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <contract|rate> <id>",
		Short: "Show the revision history of a contract or rate",
		Long: `Reconstruct the history of a contract or rate, newest first. Each
row is one event: the entity's own submission or a change in what it
was linked to.

Example:
  mcr history contract <id>
  mcr history rate <id> --format json`,
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"contract", "rate"},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}
			svc, closeFn, err := rootOpts.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			if kind == domain.KindContract {
				c, err := svc.FindContractWithHistory(cmd.Context(), args[1])
				if err != nil {
					return rootOpts.fail(cmd, err)
				}
				return rootOpts.formatter(cmd).Success(c, contractHistoryText(c))
			}
			r, err := svc.FindRateWithHistory(cmd.Context(), args[1])
			if err != nil {
				return rootOpts.fail(cmd, err)
			}
			return rootOpts.formatter(cmd).Success(r, rateHistoryText(r))
		},
	}
	return cmd
}

func contractHistoryText(c *domain.ContractWithHistory) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s) %s\n", c.Name, c.ID, c.Status)
	if c.Draft != nil {
		members := make([]string, 0, len(c.Draft.Rates))
		for _, r := range c.Draft.Rates {
			members = append(members, revisionLabel(r.RevisionInfo))
		}
		fmt.Fprintf(&b, "  draft  rev %d  rates: %s\n", c.Draft.Revision.Number, joinOrNone(members))
	}
	for _, set := range c.Revisions {
		members := make([]string, 0, len(set.RateRevisions))
		for _, r := range set.RateRevisions {
			members = append(members, revisionLabel(r.RevisionInfo))
		}
		fmt.Fprintf(&b, "  seq %-4d rev %d  %q by %s  rates: %s\n",
			set.SubmitInfo.Seq, set.RevisionNumber, set.SubmitInfo.UpdatedReason, set.SubmitInfo.UpdatedBy, joinOrNone(members))
	}
	return b.String()
}

func rateHistoryText(r *domain.RateWithHistory) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s) %s\n", r.Name, r.ID, r.Status)
	if r.Draft != nil {
		members := make([]string, 0, len(r.Draft.Contracts))
		for _, c := range r.Draft.Contracts {
			members = append(members, revisionLabel(c.RevisionInfo))
		}
		fmt.Fprintf(&b, "  draft  rev %d  contracts: %s\n", r.Draft.Revision.Number, joinOrNone(members))
	}
	for _, set := range r.Revisions {
		members := make([]string, 0, len(set.ContractRevisions))
		for _, c := range set.ContractRevisions {
			members = append(members, revisionLabel(c.RevisionInfo))
		}
		fmt.Fprintf(&b, "  seq %-4d rev %d  %q by %s  contracts: %s\n",
			set.SubmitInfo.Seq, set.RevisionNumber, set.SubmitInfo.UpdatedReason, set.SubmitInfo.UpdatedBy, joinOrNone(members))
	}
	return b.String()
}

func revisionLabel(info domain.RevisionInfo) string {
	return fmt.Sprintf("%s#%d", info.EntityID, info.Number)
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}
