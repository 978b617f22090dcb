// Package forms validates submitted form data against the document-type
// registry's JSON schemas.
package forms

import (
	"strings"

	apperrors "verification-workflow/internal/common/errors"
	"verification-workflow/internal/common/validation"
	"verification-workflow/internal/models"
	"verification-workflow/pkg/registry"
)

type Validator struct {
	registry *registry.DocumentTypeRegistry
}

func NewValidator(reg *registry.DocumentTypeRegistry) *Validator {
	return &Validator{registry: reg}
}

// Validate returns UNSUPPORTED_DOCUMENT_TYPE for types missing from the
// registry and VALIDATION_ERROR listing the failing fields otherwise.
func (v *Validator) Validate(documentType models.DocumentType, formData []byte) error {
	def, ok := v.registry.Lookup(documentType.String())
	if !ok {
		return apperrors.NewUnsupportedDocumentTypeError(documentType.String())
	}

	result, err := validation.ValidateDocument(def.FormSchema, formData)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if result.Valid {
		return nil
	}

	return apperrors.NewValidationError("invalid formData: "+strings.Join(result.GetErrorMessages(), "; ")).
		WithMetadata("fields", result.Fields())
}
