// pkg/registry/registry.go
package registry

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

//go:embed document-types.json
var defaultRegistry []byte

// LoadRegistry reads a registry file. An empty path yields the built-in one.
func LoadRegistry(path string) (*DocumentTypeRegistry, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parse(data)
}

// Default returns the registry compiled into the binary.
func Default() (*DocumentTypeRegistry, error) {
	return parse(defaultRegistry)
}

func parse(data []byte) (*DocumentTypeRegistry, error) {
	var reg DocumentTypeRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("decode registry: %w", err)
	}
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return &reg, nil
}

// Lookup finds a document type by id, case-insensitively.
func (r *DocumentTypeRegistry) Lookup(id string) (*DocumentType, bool) {
	for i := range r.DocumentTypes {
		if strings.EqualFold(r.DocumentTypes[i].ID, id) {
			return &r.DocumentTypes[i], true
		}
	}
	return nil, false
}

// Validate checks ids are unique and every type names its fields.
func (r *DocumentTypeRegistry) Validate() error {
	seen := make(map[string]bool, len(r.DocumentTypes))
	for _, dt := range r.DocumentTypes {
		id := strings.ToUpper(dt.ID)
		if id == "" {
			return fmt.Errorf("registry: document type without id")
		}
		if seen[id] {
			return fmt.Errorf("registry: duplicate document type %s", id)
		}
		seen[id] = true
		if len(dt.Fields) == 0 {
			return fmt.Errorf("registry: %s has no certificate fields", id)
		}
		if dt.FormSchema == nil {
			return fmt.Errorf("registry: %s has no form schema", id)
		}
	}
	return nil
}

// RequiredKeys lists the fields that must be present in form data.
func (d *DocumentType) RequiredKeys() []string {
	var keys []string
	for _, f := range d.Fields {
		if f.Required {
			keys = append(keys, f.Key)
		}
	}
	return keys
}
