package domain

// SubmissionType says whether a contract submission carries rates.
type SubmissionType string

const (
	SubmissionTypeContractOnly     SubmissionType = "CONTRACT_ONLY"
	SubmissionTypeContractAndRates SubmissionType = "CONTRACT_AND_RATES"
)

// ContractType distinguishes base contracts from amendments.
type ContractType string

const (
	ContractTypeBase      ContractType = "BASE"
	ContractTypeAmendment ContractType = "AMENDMENT"
)

// ContractExecutionStatus says whether the contract is already signed.
type ContractExecutionStatus string

const (
	ContractExecuted   ContractExecutionStatus = "EXECUTED"
	ContractUnexecuted ContractExecutionStatus = "UNEXECUTED"
)

// RateType distinguishes new certifications from amendments.
type RateType string

const (
	RateTypeNew       RateType = "NEW"
	RateTypeAmendment RateType = "AMENDMENT"
)

// RateCapitationType is how capitation rates are expressed.
type RateCapitationType string

const (
	RateCapitationCell  RateCapitationType = "RATE_CELL"
	RateCapitationRange RateCapitationType = "RATE_RANGE"
)

// ActuaryCommunication is the preferred channel for actuarial questions.
type ActuaryCommunication string

const (
	ActuaryCommunicationOACTToActuary ActuaryCommunication = "OACT_TO_ACTUARY"
	ActuaryCommunicationOACTToState   ActuaryCommunication = "OACT_TO_STATE"
)

// Document is an uploaded file. S3URL is opaque to this module.
type Document struct {
	Name   string `json:"name"`
	S3URL  string `json:"s3_url"`
	SHA256 string `json:"sha256,omitempty"`
}

// StateContact is a state employee responsible for a submission.
type StateContact struct {
	Name      string `json:"name,omitempty"`
	TitleRole string `json:"title_role,omitempty"`
	Email     string `json:"email,omitempty"`
}

// ActuaryContact is an actuary certifying a rate.
type ActuaryContact struct {
	Name          string `json:"name,omitempty"`
	TitleRole     string `json:"title_role,omitempty"`
	Email         string `json:"email,omitempty"`
	ActuarialFirm string `json:"actuarial_firm,omitempty"`
}

// ContractFormData is the data a state fills in for a contract.
// Dates are calendar dates formatted as YYYY-MM-DD.
type ContractFormData struct {
	SubmissionType          SubmissionType          `json:"submission_type,omitempty"`
	SubmissionDescription   string                  `json:"submission_description,omitempty"`
	ProgramIDs              []string                `json:"program_ids,omitempty"`
	ContractType            ContractType            `json:"contract_type,omitempty"`
	ContractExecutionStatus ContractExecutionStatus `json:"contract_execution_status,omitempty"`
	RiskBasedContract       *bool                   `json:"risk_based_contract,omitempty"`
	ContractDateStart       string                  `json:"contract_date_start,omitempty"`
	ContractDateEnd         string                  `json:"contract_date_end,omitempty"`
	ContractDocuments       []Document              `json:"contract_documents,omitempty"`
	SupportingDocuments     []Document              `json:"supporting_documents,omitempty"`
	StateContacts           []StateContact          `json:"state_contacts,omitempty"`
}

// RateFormData is the data a state fills in for a rate certification.
type RateFormData struct {
	RateType                    RateType             `json:"rate_type,omitempty"`
	RateCapitationType          RateCapitationType   `json:"rate_capitation_type,omitempty"`
	RateCertificationName       string               `json:"rate_certification_name,omitempty"`
	RateProgramIDs              []string             `json:"rate_program_ids,omitempty"`
	RateDateStart               string               `json:"rate_date_start,omitempty"`
	RateDateEnd                 string               `json:"rate_date_end,omitempty"`
	RateDateCertified           string               `json:"rate_date_certified,omitempty"`
	AmendmentEffectiveDateStart string               `json:"amendment_effective_date_start,omitempty"`
	AmendmentEffectiveDateEnd   string               `json:"amendment_effective_date_end,omitempty"`
	RateDocuments               []Document           `json:"rate_documents,omitempty"`
	SupportingDocuments         []Document           `json:"supporting_documents,omitempty"`
	CertifyingActuaryContacts   []ActuaryContact     `json:"certifying_actuary_contacts,omitempty"`
	ActuaryCommunication        ActuaryCommunication `json:"actuary_communication_preference,omitempty"`
}
