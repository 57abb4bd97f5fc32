// cmd/tools/registry-updater/main.go
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"funding-match-workers/internal/common/validation"
	"funding-match-workers/pkg/registry"
)

const defaultRegistryPath = "configs/activity-registry.json"

func main() {
	addCmd := flag.NewFlagSet("add", flag.ExitOnError)
	updateCmd := flag.NewFlagSet("update", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	listCmd := flag.NewFlagSet("list", flag.ExitOnError)

	var registryPath string
	for _, fs := range []*flag.FlagSet{addCmd, updateCmd, validateCmd, listCmd} {
		fs.StringVar(&registryPath, "path", defaultRegistryPath, "Path to registry file")
	}

	// Add command flags
	idAdd := addCmd.String("id", "", "Activity ID (e.g., qualification.program.score)")
	displayName := addCmd.String("displayName", "", "Display Name (e.g., Score Program Qualification)")
	description := addCmd.String("description", "", "Description")
	category := addCmd.String("category", "", "Category (e.g., qualification)")
	taskType := addCmd.String("taskType", "", "Camunda Task Type (e.g., score-program-qualification)")
	version := addCmd.String("version", "1.0.0", "Version")
	implStatus := addCmd.String("status", registry.StatusPlanned, "Implementation Status (planned, implemented)")

	// Update command flags
	idUpdate := updateCmd.String("id", "", "Activity ID to update")
	field := updateCmd.String("field", "", "Field to update (status, version, etc.)")
	value := updateCmd.String("value", "", "New value for the field")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "add":
		addCmd.Parse(os.Args[2:])
		if *idAdd == "" || *displayName == "" || *description == "" || *category == "" || *taskType == "" {
			fmt.Println("Error: id, displayName, description, category, and taskType are required for add.")
			addCmd.Usage()
			os.Exit(1)
		}
		activity := registry.Activity{
			ID:                   *idAdd,
			DisplayName:          *displayName,
			Description:          *description,
			Category:             *category,
			Version:              *version,
			TaskType:             *taskType,
			ImplementationStatus: *implStatus,
			InputSchema:          map[string]interface{}{"type": "object"},
			OutputSchema:         map[string]interface{}{"type": "object"},
			ErrorCodes:           []string{},
			Timeout:              "30s",
			Retries:              3,
			Workflows:            []string{},
			Tags:                 []string{},
		}
		if err := addActivity(registryPath, &activity); err != nil {
			fmt.Printf("Error adding activity: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Added activity: %s\n", *idAdd)

	case "update":
		updateCmd.Parse(os.Args[2:])
		if *idUpdate == "" || *field == "" || *value == "" {
			fmt.Println("Error: id, field, and value are required for update.")
			updateCmd.Usage()
			os.Exit(1)
		}
		if err := updateActivity(registryPath, *idUpdate, *field, *value); err != nil {
			fmt.Printf("Error updating activity: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Updated activity %s, field %s to %s\n", *idUpdate, *field, *value)

	case "validate":
		validateCmd.Parse(os.Args[2:])
		count, err := validateRegistry(registryPath)
		if err != nil {
			fmt.Printf("Registry validation failed:\n%v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Registry validation passed. Found %d activities.\n", count)

	case "list":
		listCmd.Parse(os.Args[2:])
		reg, err := registry.LoadRegistry(registryPath)
		if err != nil {
			fmt.Printf("Error loading registry: %v\n", err)
			os.Exit(1)
		}
		for _, a := range reg.Activities {
			fmt.Printf("%-32s %-30s %s\n", a.ID, a.TaskType, a.ImplementationStatus)
		}

	case "help":
		fallthrough
	default:
		help()
	}
}

func addActivity(path string, activity *registry.Activity) error {
	if err := registry.ValidateActivityID(activity.ID); err != nil {
		return err
	}

	reg, err := registry.LoadRegistry(path)
	if err != nil {
		// If file doesn't exist, create new registry
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to load registry: %w", err)
		}
		reg = &registry.ActivityRegistry{Version: "1.0.0", Activities: []registry.Activity{}}
	}

	for _, existing := range reg.Activities {
		if existing.ID == activity.ID {
			return fmt.Errorf("activity with ID %s already exists", activity.ID)
		}
	}
	if _, exists := reg.Find(activity.TaskType); exists {
		return fmt.Errorf("task type %s is already registered", activity.TaskType)
	}

	reg.Activities = append(reg.Activities, *activity)
	return reg.Save(path)
}

func updateActivity(path, id, field, value string) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	var activity *registry.Activity
	for i := range reg.Activities {
		if reg.Activities[i].ID == id {
			activity = &reg.Activities[i]
			break
		}
	}
	if activity == nil {
		return fmt.Errorf("activity with ID %s not found", id)
	}

	switch field {
	case "status":
		if value != registry.StatusPlanned && value != registry.StatusImplemented {
			return fmt.Errorf("invalid status %q", value)
		}
		activity.ImplementationStatus = value
	case "version":
		activity.Version = value
	case "displayName":
		activity.DisplayName = value
	case "description":
		activity.Description = value
	case "category":
		activity.Category = value
	case "taskType":
		activity.TaskType = value
	case "timeout":
		activity.Timeout = value
	case "retries":
		retries, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid retries value: %w", err)
		}
		activity.Retries = retries
	default:
		return fmt.Errorf("unknown field: %s", field)
	}

	if problems := reg.Check(); len(problems) > 0 {
		return errors.Join(problems...)
	}
	return reg.Save(path)
}

// validateRegistry checks the registry structure and compiles every input schema.
func validateRegistry(path string) (int, error) {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return 0, fmt.Errorf("failed to load registry: %w", err)
	}
	if len(reg.Activities) == 0 {
		return 0, fmt.Errorf("registry contains no activities")
	}

	problems := reg.Check()
	if _, err := validation.NewSchemaValidator(reg); err != nil {
		problems = append(problems, err)
	}
	if len(problems) > 0 {
		return 0, errors.Join(problems...)
	}
	return len(reg.Activities), nil
}

func help() {
	fmt.Println(`
Usage: registry-updater <command> [flags]

Commands:
  add      Add a new activity to the registry
  update   Update an existing activity's field
  validate Validate the registry file and compile its input schemas
  list     List activities with their task types and status
  help     Show this help message

Examples:
  registry-updater add -id qualification.program.explain -displayName "Explain Qualification" -description "Explains a qualification result" -category qualification -taskType explain-program-qualification
  registry-updater update -id qualification.program.explain -field status -value implemented
  registry-updater validate -path configs/activity-registry.json

Use 'registry-updater <command> -h' for more information about a command.`)
}
