// cmd/tools/registry-updater/main.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"verification-workflow/internal/forms"
	"verification-workflow/internal/models"
	"verification-workflow/pkg/registry"
)

var registryPath string

func main() {
	updateCmd := flag.NewFlagSet("update", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	listCmd := flag.NewFlagSet("list", flag.ExitOnError)
	checkCmd := flag.NewFlagSet("check", flag.ExitOnError)

	for _, fs := range []*flag.FlagSet{updateCmd, validateCmd, listCmd, checkCmd} {
		fs.StringVar(&registryPath, "path", "configs/document-types.json", "Path to registry file")
	}

	// Update command flags
	idUpdate := updateCmd.String("id", "", "Document type ID (e.g., INCOME)")
	field := updateCmd.String("field", "", "Field to update (displayName, certificateTitle, nameField)")
	value := updateCmd.String("value", "", "New value for the field")

	// Check command flags
	docType := checkCmd.String("type", "", "Document type ID")
	formFile := checkCmd.String("form", "", "Path to a JSON form data file")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "update":
		updateCmd.Parse(os.Args[2:])
		if *idUpdate == "" || *field == "" || *value == "" {
			fmt.Println("Error: id, field, and value are required for update.")
			updateCmd.Usage()
			os.Exit(1)
		}
		if err := updateDocumentType(*idUpdate, *field, *value); err != nil {
			fmt.Printf("Error updating document type: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Updated document type %s, field %s to %s\n", *idUpdate, *field, *value)

	case "validate":
		validateCmd.Parse(os.Args[2:])
		if err := validateRegistry(); err != nil {
			fmt.Printf("Registry validation failed: %v\n", err)
			os.Exit(1)
		}

	case "list":
		listCmd.Parse(os.Args[2:])
		if err := listDocumentTypes(); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

	case "check":
		checkCmd.Parse(os.Args[2:])
		if *docType == "" || *formFile == "" {
			fmt.Println("Error: type and form are required for check.")
			checkCmd.Usage()
			os.Exit(1)
		}
		if err := checkForm(*docType, *formFile); err != nil {
			fmt.Printf("Form rejected: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Form accepted.")

	case "help":
		fallthrough
	default:
		help()
	}
}

func updateDocumentType(id, field, value string) error {
	reg, err := registry.LoadRegistry(registryPath)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	dt, ok := reg.Lookup(id)
	if !ok {
		return fmt.Errorf("document type %s not found", id)
	}
	switch field {
	case "displayName":
		dt.DisplayName = value
	case "certificateTitle":
		dt.CertificateTitle = value
	case "nameField":
		known := false
		for _, f := range dt.Fields {
			known = known || f.Key == value
		}
		if !known {
			return fmt.Errorf("nameField %s is not a field of %s", value, id)
		}
		dt.NameField = value
	default:
		return fmt.Errorf("unknown field: %s", field)
	}

	reg.LastUpdated = time.Now().Format("2006-01-02")
	return saveRegistry(reg, registryPath)
}

func validateRegistry() error {
	reg, err := registry.LoadRegistry(registryPath)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	if len(reg.DocumentTypes) == 0 {
		return fmt.Errorf("registry contains no document types")
	}

	for _, dt := range reg.DocumentTypes {
		if _, err := models.ParseDocumentType(dt.ID); err != nil {
			return fmt.Errorf("document type %s is not known to the portal", dt.ID)
		}
		if dt.DisplayName == "" {
			return fmt.Errorf("document type %s missing required field: displayName", dt.ID)
		}
		if dt.NameField == "" {
			return fmt.Errorf("document type %s missing required field: nameField", dt.ID)
		}
	}

	fmt.Printf("Registry validation passed. Found %d document types.\n", len(reg.DocumentTypes))
	return nil
}

func listDocumentTypes() error {
	reg, err := registry.LoadRegistry(registryPath)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	for _, dt := range reg.DocumentTypes {
		fmt.Printf("%-10s %-28s required: %s\n", dt.ID, dt.DisplayName, strings.Join(dt.RequiredKeys(), ", "))
	}
	return nil
}

func checkForm(id, path string) error {
	reg, err := registry.LoadRegistry(registryPath)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	dt, err := models.ParseDocumentType(id)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return forms.NewValidator(reg).Validate(dt, data)
}

// saveRegistry handles saving the registry to file
func saveRegistry(reg *registry.DocumentTypeRegistry, path string) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}

func help() {
	fmt.Println(`
Usage: registry-updater <command> [flags]

Commands:
  list      List document types and their required form fields
  update    Update a document type's displayName, certificateTitle or nameField
  validate  Validate the registry file
  check     Validate a form data file against a document type
  help      Show this help message

Examples:
  registry-updater list
  registry-updater update -id INCOME -field certificateTitle -value "INCOME CERTIFICATE"
  registry-updater check -type INCOME -form form.json
  registry-updater validate -path configs/document-types.json`)
}
