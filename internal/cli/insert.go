package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Enterprise-CMCS/managed-care-review-sub005/internal/domain"
	"github.com/Enterprise-CMCS/managed-care-review-sub005/internal/revisions"
)

// InsertOptions holds flags for the insert commands.
type InsertOptions struct {
	*RootOptions
	State     string
	Form      string
	Rates     []string
	Contracts []string
}

// NewInsertCommand creates the insert command and its contract and rate
// subcommands.
func NewInsertCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "insert",
		Short: "Create a contract or rate with a first draft",
	}
	cmd.AddCommand(newInsertContractCommand(rootOpts))
	cmd.AddCommand(newInsertRateCommand(rootOpts))
	return cmd
}

func newInsertContractCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InsertOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "contract",
		Short: "Create a draft contract",
		Long: `Create a contract and its first draft revision.

Example:
  mcr insert contract --state MN --form contract.yaml --rate <rate-id>`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var fd domain.ContractFormData
			if err := readForm(opts.Form, &fd); err != nil {
				return err
			}
			svc, closeFn, err := opts.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			rev, err := svc.InsertDraftContract(cmd.Context(), revisions.InsertContractArgs{
				StateCode: opts.State,
				FormData:  fd,
				RateIDs:   opts.Rates,
			})
			if err != nil {
				return opts.fail(cmd, err)
			}
			return opts.formatter(cmd).Success(rev, fmt.Sprintf("contract %s draft revision %d\n", rev.EntityID, rev.Number))
		},
	}

	cmd.Flags().StringVar(&opts.State, "state", "", "two-letter state code (required)")
	cmd.Flags().StringVar(&opts.Form, "form", "", "form data file (json or yaml)")
	cmd.Flags().StringSliceVar(&opts.Rates, "rate", nil, "rate id to link (repeatable)")
	_ = cmd.MarkFlagRequired("state")
	return cmd
}

func newInsertRateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InsertOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "rate",
		Short: "Create a draft rate",
		Long: `Create a rate and its first draft revision.

Example:
  mcr insert rate --state MN --form rate.yaml --contract <contract-id>`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var fd domain.RateFormData
			if err := readForm(opts.Form, &fd); err != nil {
				return err
			}
			svc, closeFn, err := opts.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			rev, err := svc.InsertDraftRate(cmd.Context(), revisions.InsertRateArgs{
				StateCode:   opts.State,
				FormData:    fd,
				ContractIDs: opts.Contracts,
			})
			if err != nil {
				return opts.fail(cmd, err)
			}
			return opts.formatter(cmd).Success(rev, fmt.Sprintf("rate %s draft revision %d\n", rev.EntityID, rev.Number))
		},
	}

	cmd.Flags().StringVar(&opts.State, "state", "", "two-letter state code (required)")
	cmd.Flags().StringVar(&opts.Form, "form", "", "form data file (json or yaml)")
	cmd.Flags().StringSliceVar(&opts.Contracts, "contract", nil, "contract id to link (repeatable)")
	_ = cmd.MarkFlagRequired("state")
	return cmd
}
