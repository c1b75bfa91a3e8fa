package revisions

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Enterprise-CMCS/managed-care-review-sub005/internal/domain"
)

var validate = validator.New()

// InsertContractArgs creates a new contract with a first draft revision.
type InsertContractArgs struct {
	StateCode string                  `json:"state_code" validate:"required,len=2,alpha"`
	FormData  domain.ContractFormData `json:"form_data"`
	RateIDs   []string                `json:"rate_ids" validate:"unique,dive,required"`
}

// InsertRateArgs creates a new rate with a first draft revision.
type InsertRateArgs struct {
	StateCode   string              `json:"state_code" validate:"required,len=2,alpha"`
	FormData    domain.RateFormData `json:"form_data"`
	ContractIDs []string            `json:"contract_ids" validate:"unique,dive,required"`
}

// UpdateContractArgs replaces a contract draft's form data and rates.
type UpdateContractArgs struct {
	ContractID string                  `json:"contract_id" validate:"required"`
	FormData   domain.ContractFormData `json:"form_data"`
	RateIDs    []string                `json:"rate_ids" validate:"unique,dive,required"`
}

// UpdateRateArgs replaces a rate draft's form data and contracts.
type UpdateRateArgs struct {
	RateID      string              `json:"rate_id" validate:"required"`
	FormData    domain.RateFormData `json:"form_data"`
	ContractIDs []string            `json:"contract_ids" validate:"unique,dive,required"`
}

// SubmitArgs names the drafts to freeze in one submission. At least one
// of ContractID and RateIDs must be set.
type SubmitArgs struct {
	ContractID  string   `json:"contract_id,omitempty"`
	RateIDs     []string `json:"rate_ids,omitempty" validate:"unique,dive,required"`
	SubmittedBy string   `json:"submitted_by" validate:"required"`
	Reason      string   `json:"reason" validate:"required"`
}

// UnlockArgs opens a new draft of a submitted contract or rate.
type UnlockArgs struct {
	ID         string `json:"id" validate:"required"`
	UnlockedBy string `json:"unlocked_by" validate:"required"`
	Reason     string `json:"reason" validate:"required"`
}

// validateArgs converts validator failures to INVALID_ARGUMENT.
func validateArgs(args any) error {
	err := validate.Struct(args)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.NewInvalidArgumentError("%v", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fe.Namespace()+" failed "+fe.Tag())
	}
	return domain.NewInvalidArgumentError("%s", strings.Join(msgs, "; "))
}
