package certificate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	apperrors "verification-workflow/internal/common/errors"
	"verification-workflow/internal/models"
	"verification-workflow/pkg/registry"

	"github.com/go-pdf/fpdf"
)

const header = "OFFICIAL GOVERNMENT CERTIFICATE"

// Renderer turns an approved application into a certificate document.
type Renderer interface {
	Render(ctx context.Context, app *models.Application, approvedBy string) ([]byte, error)
}

// PDFRenderer lays out certificates as A4 PDFs using the registry's field
// labels for the type-specific rows.
type PDFRenderer struct {
	registry   *registry.DocumentTypeRegistry
	issuerName string
	now        func() time.Time
}

func NewPDFRenderer(reg *registry.DocumentTypeRegistry, issuerName string) *PDFRenderer {
	return &PDFRenderer{
		registry:   reg,
		issuerName: issuerName,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

type row struct {
	label string
	value string
}

// Content is the text of a certificate before layout.
type Content struct {
	Title      string
	Issuer     string
	Rows       []row
	ApprovedBy string
}

// Compose validates form data and assembles the certificate text.
func (r *PDFRenderer) Compose(app *models.Application, approvedBy string) (*Content, error) {
	def, ok := r.registry.Lookup(app.DocumentType.String())
	if !ok {
		return nil, apperrors.NewUnsupportedDocumentTypeError(app.DocumentType.String())
	}

	var form map[string]interface{}
	if err := json.Unmarshal(app.FormData, &form); err != nil {
		return nil, apperrors.NewRenderFailureError(def.ID, fmt.Errorf("malformed form data: %w", err))
	}

	var missing []string
	for _, key := range def.RequiredKeys() {
		if formValue(form, key) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.NewRenderFailureError(def.ID,
			fmt.Errorf("missing required fields: %s", strings.Join(missing, ", ")))
	}

	issued := r.now()
	if app.ResolvedDate != nil {
		issued = *app.ResolvedDate
	}

	c := &Content{
		Title:      def.CertificateTitle,
		Issuer:     r.issuerName,
		ApprovedBy: approvedBy,
		Rows: []row{
			{"Certificate Number", app.ID},
			{"Full Name", formValue(form, def.NameField)},
			{"Certificate Type", def.DisplayName},
			{"Issue Date", issued.Format("02 January 2006")},
		},
	}
	for _, f := range def.Fields {
		if f.Key == def.NameField {
			continue
		}
		if v := formValue(form, f.Key); v != "" {
			c.Rows = append(c.Rows, row{f.Label, v})
		}
	}
	return c, nil
}

func formValue(form map[string]interface{}, key string) string {
	v, ok := form[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", t), "0"), ".")
	default:
		return fmt.Sprint(t)
	}
}

func (r *PDFRenderer) Render(ctx context.Context, app *models.Application, approvedBy string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewRenderFailureError(app.DocumentType.String(), err)
	}
	content, err := r.Compose(app, approvedBy)
	if err != nil {
		return nil, err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(content.Title, true)
	pdf.SetAuthor(content.Issuer, true)
	pdf.SetCreationDate(r.now())
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, header, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 8, tr(content.Issuer), "", 1, "C", false, 0, "")
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 15)
	pdf.CellFormat(0, 10, tr(content.Title), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	for _, rw := range content.Rows {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(65, 9, tr(rw.label), "1", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 9, tr(rw.value), "1", "L", false)
	}

	pdf.Ln(14)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "APPROVED BY", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 8, tr(content.ApprovedBy), "", 1, "L", false, 0, "")
	pdf.Ln(12)
	pdf.CellFormat(70, 8, "______________________________", "", 1, "L", false, 0, "")
	pdf.CellFormat(70, 6, "Authorized Signature", "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, apperrors.NewRenderFailureError(app.DocumentType.String(), err)
	}
	return buf.Bytes(), nil
}
