// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"time"
)

var activityIDPattern = regexp.MustCompile(`^[a-z]+\.[a-z]+\.[a-z]+$`)

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	return &reg, nil
}

// Save writes the registry back to path with a refreshed lastUpdated stamp.
func (r *ActivityRegistry) Save(path string) error {
	r.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// Find returns the activity registered for taskType.
func (r *ActivityRegistry) Find(taskType string) (*Activity, bool) {
	for i := range r.Activities {
		if r.Activities[i].TaskType == taskType {
			return &r.Activities[i], true
		}
	}
	return nil, false
}

// TaskTypes lists the task types of implemented activities in registry order.
func (r *ActivityRegistry) TaskTypes() []string {
	var types []string
	for _, a := range r.Activities {
		if a.ImplementationStatus == StatusImplemented {
			types = append(types, a.TaskType)
		}
	}
	return types
}

// ValidateActivityID checks the domain.subdomain.action naming convention.
func ValidateActivityID(id string) error {
	if !activityIDPattern.MatchString(id) {
		return fmt.Errorf("activity ID %q must follow format: domain.subdomain.action (e.g., qualification.program.score)", id)
	}
	return nil
}

// Check reports every structural problem in the registry.
func (r *ActivityRegistry) Check() []error {
	var problems []error
	seenIDs := map[string]bool{}
	seenTypes := map[string]bool{}

	for _, a := range r.Activities {
		if err := ValidateActivityID(a.ID); err != nil {
			problems = append(problems, err)
		}
		if seenIDs[a.ID] {
			problems = append(problems, fmt.Errorf("duplicate activity ID %q", a.ID))
		}
		seenIDs[a.ID] = true

		if a.TaskType == "" {
			problems = append(problems, fmt.Errorf("activity %q has no taskType", a.ID))
		} else if seenTypes[a.TaskType] {
			problems = append(problems, fmt.Errorf("duplicate taskType %q", a.TaskType))
		}
		seenTypes[a.TaskType] = true

		if a.InputSchema == nil {
			problems = append(problems, fmt.Errorf("activity %q has no inputSchema", a.ID))
		}
		if a.Timeout != "" {
			if _, err := time.ParseDuration(a.Timeout); err != nil {
				problems = append(problems, fmt.Errorf("activity %q has invalid timeout %q", a.ID, a.Timeout))
			}
		}
	}
	return problems
}
