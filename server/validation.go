package server

// Validation is the reason a config failed validation
type Validation string

const (
	RequiredFieldMissing        Validation = "REQUIRED_FIELD_MISSING"
	ConnectionError             Validation = "CONNECTION_ERROR"
	ServicePortError            Validation = "SERVICE_PORT_ERROR"
	ServiceOrIndexPortError     Validation = "SERVICE_OR_INDEX_PORT_ERROR"
	FetchPortError              Validation = "FETCH_PORT_ERROR"
	IncorrectServerType         Validation = "INCORRECT_SERVER_TYPE"
	RegularExpressionMatchError Validation = "REGULAR_EXPRESSION_MATCH_ERROR"
	LanguageSettingsError       Validation = "LANGUAGE_SETTINGS"
)

// Result is the outcome of validating a config. Data is nil for a valid
// standalone config; otherwise it is a Validation, an
// IncorrectServerTypeDetails or a DistributedResultDetails
type Result struct {
	Valid bool `json:"valid" yaml:"valid"`
	Data  any  `json:"data,omitempty" yaml:"data,omitempty"`
}

// IncorrectServerTypeDetails lists the product types that would have been
// accepted
type IncorrectServerTypeDetails struct {
	Validation    Validation `json:"validation" yaml:"validation"`
	FriendlyNames []string   `json:"friendlyNames" yaml:"friendlyNames"`
}

// DistributedResultDetails holds the results of the DIH and DAH of a
// distributed config. A result is only present if it is invalid
type DistributedResultDetails struct {
	DIH *Result `json:"dihValidationResult,omitempty" yaml:"dihValidationResult,omitempty"`
	DAH *Result `json:"dahValidationResult,omitempty" yaml:"dahValidationResult,omitempty"`
}

func validResult() Result {
	return Result{Valid: true}
}

func invalid(v Validation) Result {
	return Result{Valid: false, Data: v}
}

// HasValidation reports whether v is the reason for r being invalid,
// looking inside distributed results
func (r Result) HasValidation(v Validation) bool {
	switch data := r.Data.(type) {
	case Validation:
		return data == v
	case IncorrectServerTypeDetails:
		return data.Validation == v
	case DistributedResultDetails:
		return (data.DIH != nil && data.DIH.HasValidation(v)) ||
			(data.DAH != nil && data.DAH.HasValidation(v))
	default:
		return false
	}
}

// Reasons returns every Validation in r, DIH first
func (r Result) Reasons() []Validation {
	switch data := r.Data.(type) {
	case Validation:
		return []Validation{data}
	case IncorrectServerTypeDetails:
		return []Validation{data.Validation}
	case DistributedResultDetails:
		var reasons []Validation
		if data.DIH != nil {
			reasons = append(reasons, data.DIH.Reasons()...)
		}
		if data.DAH != nil {
			reasons = append(reasons, data.DAH.Reasons()...)
		}
		return reasons
	default:
		return nil
	}
}
