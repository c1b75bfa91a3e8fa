package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Enterprise-CMCS/managed-care-review-sub005/internal/domain"
	"github.com/Enterprise-CMCS/managed-care-review-sub005/internal/revisions"
)

// UpdateOptions holds flags for the update commands.
type UpdateOptions struct {
	*RootOptions
	Form      string
	Rates     []string
	Contracts []string
}

// NewUpdateCommand creates the update command. Updates replace the
// draft's form data and links wholesale.
func NewUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Replace the draft of a contract or rate",
	}
	cmd.AddCommand(newUpdateContractCommand(rootOpts))
	cmd.AddCommand(newUpdateRateCommand(rootOpts))
	return cmd
}

func newUpdateContractCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &UpdateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "contract <contract-id>",
		Short: "Replace a contract draft's form data and rates",
		Long: `Replace a contract draft's form data and rate list. Rates are
positioned in flag order.

Example:
  mcr update contract <contract-id> --form contract.yaml --rate <r1> --rate <r2>`,
		Args: cobra.ExactArgs(1),
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

			rev, err := svc.UpdateDraftContract(cmd.Context(), revisions.UpdateContractArgs{
				ContractID: args[0],
				FormData:   fd,
				RateIDs:    opts.Rates,
			})
			if err != nil {
				return opts.fail(cmd, err)
			}
			return opts.formatter(cmd).Success(rev, fmt.Sprintf("contract %s draft revision %d updated\n", rev.EntityID, rev.Number))
		},
	}

	cmd.Flags().StringVar(&opts.Form, "form", "", "form data file (json or yaml)")
	cmd.Flags().StringSliceVar(&opts.Rates, "rate", nil, "rate id to link (repeatable)")
	return cmd
}

func newUpdateRateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &UpdateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "rate <rate-id>",
		Short: "Replace a rate draft's form data and contracts",
		Args:  cobra.ExactArgs(1),
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

			rev, err := svc.UpdateDraftRate(cmd.Context(), revisions.UpdateRateArgs{
				RateID:      args[0],
				FormData:    fd,
				ContractIDs: opts.Contracts,
			})
			if err != nil {
				return opts.fail(cmd, err)
			}
			return opts.formatter(cmd).Success(rev, fmt.Sprintf("rate %s draft revision %d updated\n", rev.EntityID, rev.Number))
		},
	}

	cmd.Flags().StringVar(&opts.Form, "form", "", "form data file (json or yaml)")
	cmd.Flags().StringSliceVar(&opts.Contracts, "contract", nil, "contract id to link (repeatable)")
	return cmd
}
