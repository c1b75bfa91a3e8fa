package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Enterprise-CMCS/managed-care-review-sub005/internal/domain"
)

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	var state string

	cmd := &cobra.Command{
		Use:   "list <contracts|rates>",
		Short: "List contracts or rates with their status",
		Example: `  mcr list contracts --state MN
  mcr list rates`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"contracts", "rates"},
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

			var b strings.Builder
			if kind == domain.KindContract {
				list, err := svc.ListContracts(cmd.Context(), state)
				if err != nil {
					return rootOpts.fail(cmd, err)
				}
				for _, c := range list {
					fmt.Fprintf(&b, "%-32s %-12s %s\n", c.Name, c.Status, c.ID)
				}
				if len(list) == 0 {
					b.WriteString("No contracts found.\n")
				}
				return rootOpts.formatter(cmd).Success(list, b.String())
			}

			list, err := svc.ListRates(cmd.Context(), state)
			if err != nil {
				return rootOpts.fail(cmd, err)
			}
			for _, r := range list {
				fmt.Fprintf(&b, "%-32s %-12s %s\n", r.Name, r.Status, r.ID)
			}
			if len(list) == 0 {
				b.WriteString("No rates found.\n")
			}
			return rootOpts.formatter(cmd).Success(list, b.String())
		},
	}

	cmd.Flags().StringVar(&state, "state", "", "only entities of this state")
	return cmd
}
