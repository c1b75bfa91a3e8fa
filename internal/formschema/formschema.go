package formschema

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/Enterprise-CMCS/managed-care-review-sub005/internal/domain"
)

//go:embed schema.cue
var schemaCUE string

// Validator checks form data against the compiled schema.
//
// Thread-safety: CUE evaluation is not safe for concurrent use, so every
// check holds the validator's mutex.
type Validator struct {
	mu sync.Mutex

	ctx                 *cue.Context
	contract            cue.Value
	rate                cue.Value
	submittableContract cue.Value
	submittableRate     cue.Value
}

// New compiles the embedded schema.
func New() (*Validator, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile form schema: %w", err)
	}

	v := &Validator{ctx: ctx}
	defs := []struct {
		path string
		dst  *cue.Value
	}{
		{"#ContractFormData", &v.contract},
		{"#RateFormData", &v.rate},
		{"#SubmittableContract", &v.submittableContract},
		{"#SubmittableRate", &v.submittableRate},
	}
	for _, d := range defs {
		val := schema.LookupPath(cue.ParsePath(d.path))
		if !val.Exists() {
			return nil, fmt.Errorf("form schema: definition %s missing", d.path)
		}
		*d.dst = val
	}
	return v, nil
}

// MustNew is New for package-level initialization.
func MustNew() *Validator {
	v, err := New()
	if err != nil {
		panic(err)
	}
	return v
}

// ValidateContractDraft checks the shape of draft contract form data.
func (v *Validator) ValidateContractDraft(fd domain.ContractFormData) error {
	return v.check(v.contract, fd, false, "contract")
}

// ValidateContractSubmission checks that contract form data is complete.
func (v *Validator) ValidateContractSubmission(fd domain.ContractFormData) error {
	return v.check(v.submittableContract, fd, true, "contract")
}

// ValidateRateDraft checks the shape of draft rate form data.
func (v *Validator) ValidateRateDraft(fd domain.RateFormData) error {
	return v.check(v.rate, fd, false, "rate")
}

// ValidateRateSubmission checks that rate form data is complete.
func (v *Validator) ValidateRateSubmission(fd domain.RateFormData) error {
	return v.check(v.submittableRate, fd, true, "rate")
}

func (v *Validator) check(def cue.Value, formData any, concrete bool, label string) error {
	data, err := json.Marshal(formData)
	if err != nil {
		return fmt.Errorf("encode %s form data: %w", label, err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	value := v.ctx.CompileBytes(data, cue.Filename(label+".json"))
	if err := value.Err(); err != nil {
		return fmt.Errorf("compile %s form data: %w", label, err)
	}

	unified := def.Unify(value)
	opts := []cue.Option{}
	if concrete {
		opts = append(opts, cue.Concrete(true))
	}
	if err := unified.Validate(opts...); err != nil {
		return domain.NewInvalidArgumentError("invalid %s form data: %s", label, formatCUEError(err))
	}
	return nil
}

// formatCUEError flattens a CUE error list into one line.
func formatCUEError(err error) string {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err.Error()
	}
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}
