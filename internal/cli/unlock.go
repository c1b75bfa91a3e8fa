package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Enterprise-CMCS/managed-care-review-sub005/internal/domain"
	"github.com/Enterprise-CMCS/managed-care-review-sub005/internal/revisions"
)

// UnlockOptions holds flags for the unlock command.
type UnlockOptions struct {
	*RootOptions
	By     string
	Reason string
}

// NewUnlockCommand creates the unlock command.
func NewUnlockCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &UnlockOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "unlock <contract|rate> <id>",
		Short: "Open a new draft of a submitted contract or rate",
		Long: `Open a new draft revision copying the latest submitted one. The
draft starts with the links the submitted revision has now.

Example:
  mcr unlock contract <id> --by cms@example.com --reason "fix dates"`,
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"contract", "rate"},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}
			svc, closeFn, err := opts.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			unlockArgs := revisions.UnlockArgs{ID: args[1], UnlockedBy: opts.By, Reason: opts.Reason}
			var data any
			var number int
			if kind == domain.KindContract {
				rev, err := svc.UnlockContract(cmd.Context(), unlockArgs)
				if err != nil {
					return opts.fail(cmd, err)
				}
				data, number = rev, rev.Number
			} else {
				rev, err := svc.UnlockRate(cmd.Context(), unlockArgs)
				if err != nil {
					return opts.fail(cmd, err)
				}
				data, number = rev, rev.Number
			}
			return opts.formatter(cmd).Success(data, fmt.Sprintf("%s %s unlocked: draft revision %d\n", args[0], args[1], number))
		},
	}

	cmd.Flags().StringVar(&opts.By, "by", "", "unlocking user (required)")
	cmd.Flags().StringVar(&opts.Reason, "reason", "", "unlock reason (required)")
	_ = cmd.MarkFlagRequired("by")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}

// parseKind accepts the singular and plural entity names.
func parseKind(s string) (domain.Kind, error) {
	switch s {
	case "contract", "contracts":
		return domain.KindContract, nil
	case "rate", "rates":
		return domain.KindRate, nil
	default:
		return "", NewExitError(ExitCommandError, fmt.Sprintf("unknown entity %q: must be contract or rate", s))
	}
}
