package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Enterprise-CMCS/managed-care-review-sub005/internal/domain"
	"github.com/Enterprise-CMCS/managed-care-review-sub005/internal/revisions"
)

// SubmitOptions holds flags for the submit command.
type SubmitOptions struct {
	*RootOptions
	Contract string
	Rates    []string
	By       string
	Reason   string
}

// NewSubmitCommand creates the submit command.
func NewSubmitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SubmitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit drafts as one event",
		Long: `Freeze the drafts of a contract and/or rates under one update.

Every linked counterpart picks up the new revisions. The command fails
without writing anything when a draft is missing or a linked rate was
never submitted.

Exit codes:
  0 - Submitted
  2 - Invalid arguments
  3 - Unknown contract or rate
  4 - Missing draft or unsubmitted dependency

Examples:
  mcr submit --contract <id> --rate <r1> --by state@example.com --reason "initial"
  mcr submit --rate <r1> --by state@example.com --reason "rate fix"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := opts.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			sub, err := svc.Submit(cmd.Context(), revisions.SubmitArgs{
				ContractID:  opts.Contract,
				RateIDs:     opts.Rates,
				SubmittedBy: opts.By,
				Reason:      opts.Reason,
			})
			if err != nil {
				return opts.fail(cmd, err)
			}
			return opts.formatter(cmd).Success(sub, submissionText(sub))
		},
	}

	cmd.Flags().StringVar(&opts.Contract, "contract", "", "contract id")
	cmd.Flags().StringSliceVar(&opts.Rates, "rate", nil, "rate id (repeatable)")
	cmd.Flags().StringVar(&opts.By, "by", "", "submitter (required)")
	cmd.Flags().StringVar(&opts.Reason, "reason", "", "submission reason (required)")
	_ = cmd.MarkFlagRequired("by")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}

func submissionText(sub *domain.Submission) string {
	var b strings.Builder
	fmt.Fprintf(&b, "submission %s seq %d\n", sub.ID, sub.Seq)
	fmt.Fprintf(&b, "  submitted: %d contract, %d rate revisions\n",
		len(sub.SubmittedContractRevisionIDs), len(sub.SubmittedRateRevisionIDs))
	fmt.Fprintf(&b, "  related:   %d contract, %d rate revisions\n",
		len(sub.RelatedContractRevisionIDs), len(sub.RelatedRateRevisionIDs))
	fmt.Fprintf(&b, "  links:     %d\n", len(sub.Links))
	return b.String()
}
