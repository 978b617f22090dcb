// pkg/registry/schema.go
package registry

// DocumentTypeRegistry lists every certificate type the portal can issue.
type DocumentTypeRegistry struct {
	Version       string         `json:"version"`
	LastUpdated   string         `json:"lastUpdated"`
	DocumentTypes []DocumentType `json:"documentTypes"`
}

// DocumentType describes one certificate: its form schema and the rows
// printed on the rendered certificate.
type DocumentType struct {
	ID               string                 `json:"id"`
	DisplayName      string                 `json:"displayName"`
	CertificateTitle string                 `json:"certificateTitle"`
	NameField        string                 `json:"nameField"`
	FormSchema       map[string]interface{} `json:"formSchema"`
	Fields           []Field                `json:"fields"`
}

// Field is a labelled form value printed on the certificate.
type Field struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Required bool   `json:"required"`
}
