package validation

import (
	"fmt"
	"regexp"
	"strings"

	"funding-match-workers/pkg/registry"

	"github.com/xeipuuv/gojsonschema"
)

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phonePattern = regexp.MustCompile(`^\+?[\d\s\-\(\)]{10,}$`)
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// SchemaValidator validates job variables against the input schemas of the activity registry.
type SchemaValidator struct {
	schemas map[string]*gojsonschema.Schema
}

// NewSchemaValidator compiles the input schema of every activity in reg.
func NewSchemaValidator(reg *registry.ActivityRegistry) (*SchemaValidator, error) {
	v := &SchemaValidator{schemas: make(map[string]*gojsonschema.Schema)}
	if reg == nil {
		return v, nil
	}

	for _, activity := range reg.Activities {
		if activity.InputSchema == nil {
			continue
		}
		schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(activity.InputSchema))
		if err != nil {
			return nil, fmt.Errorf("compile input schema for %s: %w", activity.TaskType, err)
		}
		v.schemas[activity.TaskType] = schema
	}
	return v, nil
}

// ValidateInput validates input for taskType. Task types without a schema always pass.
func (v *SchemaValidator) ValidateInput(taskType string, input map[string]interface{}) *ValidationResult {
	if v == nil {
		return &ValidationResult{Valid: true}
	}
	schema, ok := v.schemas[taskType]
	if !ok {
		return &ValidationResult{Valid: true}
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(input))
	if err != nil {
		return &ValidationResult{Errors: []ValidationError{{
			Field:   "(root)",
			Message: err.Error(),
			Code:    "UNREADABLE_INPUT",
		}}}
	}
	return fromSchemaResult(result)
}

func fromSchemaResult(result *gojsonschema.Result) *ValidationResult {
	vr := &ValidationResult{Valid: result.Valid()}
	for _, re := range result.Errors() {
		vr.Errors = append(vr.Errors, ValidationError{
			Field:   re.Field(),
			Message: re.Description(),
			Code:    strings.ToUpper(re.Type()),
		})
	}
	return vr
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// Summary joins all error messages into one line.
func (vr *ValidationResult) Summary() string {
	return strings.Join(vr.GetErrorMessages(), "; ")
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

func ValidatePhone(phone string) bool {
	return phonePattern.MatchString(phone)
}
