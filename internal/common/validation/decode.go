package validation

import (
	"encoding/json"
	"fmt"

	"funding-match-workers/internal/common/errors"
)

// DecodeJobVariables validates raw job variables against taskType's schema and decodes them
// into out. Any failure is an INVALID_INPUT error.
func DecodeJobVariables(v *SchemaValidator, taskType, raw string, out interface{}) error {
	if raw == "" {
		raw = "{}"
	}

	var vars map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &vars); err != nil {
		return errors.NewInvalidInputError(fmt.Sprintf("parse job variables: %v", err))
	}

	if result := v.ValidateInput(taskType, vars); !result.Valid {
		return errors.NewInvalidInputError(result.Summary()).
			WithMetadata("validationErrors", result.GetErrorMessages())
	}

	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return errors.NewInvalidInputError(fmt.Sprintf("decode job variables: %v", err))
	}
	return nil
}
