package certificate

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	apperrors "verification-workflow/internal/common/errors"
	"verification-workflow/internal/models"
	"verification-workflow/pkg/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRenderer(t *testing.T) *PDFRenderer {
	t.Helper()
	reg, err := registry.Default()
	require.NoError(t, err)
	r := NewPDFRenderer(reg, "Department of Revenue")
	r.now = func() time.Time { return time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC) }
	return r
}

func incomeApp(form string) *models.Application {
	resolved := time.Date(2026, 9, 30, 12, 0, 0, 0, time.UTC)
	return &models.Application{
		ID:               "app-1",
		DocumentType:     models.DocumentTypeIncome,
		FormData:         json.RawMessage(form),
		Status:           models.StatusApproved,
		CurrentDesk:      models.DeskCertificateGeneration,
		ResolvedDate:     &resolved,
		ApprovedByUserID: models.StringPtr("v-senior"),
	}
}

const validIncome = `{
	"applicantFullName": "Asha Rao",
	"fatherOrHusbandName": "Mohan Rao",
	"annualIncome": 240000,
	"occupation": "Engineer",
	"residentialAddress": "12 MG Road"
}`

func TestCompose(t *testing.T) {
	r := newRenderer(t)

	c, err := r.Compose(incomeApp(validIncome), "Anand")
	require.NoError(t, err)

	assert.Equal(t, "INCOME CERTIFICATE", c.Title)
	assert.Equal(t, "Anand", c.ApprovedBy)
	assert.Equal(t, row{"Certificate Number", "app-1"}, c.Rows[0])
	assert.Equal(t, row{"Full Name", "Asha Rao"}, c.Rows[1])
	assert.Equal(t, row{"Issue Date", "30 September 2026"}, c.Rows[3])
	assert.Contains(t, c.Rows, row{"Annual Income", "240000"})
	assert.Contains(t, c.Rows, row{"Occupation", "Engineer"})

	for _, rw := range c.Rows[4:] {
		assert.NotEqual(t, "Full Name", rw.label, "name field is not repeated")
	}
}

func TestCompose_Errors(t *testing.T) {
	r := newRenderer(t)

	tests := []struct {
		name string
		app  *models.Application
		code apperrors.ErrorCode
	}{
		{
			name: "malformed json",
			app:  incomeApp(`{"applicantFullName":`),
			code: apperrors.ErrCodeRenderFailure,
		},
		{
			name: "missing required field",
			app:  incomeApp(`{"applicantFullName":"Asha Rao"}`),
			code: apperrors.ErrCodeRenderFailure,
		},
		{
			name: "blank required field",
			app:  incomeApp(`{"applicantFullName":"  ","fatherOrHusbandName":"M","annualIncome":"1","occupation":"x","residentialAddress":"y"}`),
			code: apperrors.ErrCodeRenderFailure,
		},
		{
			name: "unknown document type",
			app:  &models.Application{ID: "app-2", FormData: json.RawMessage(`{}`)},
			code: apperrors.ErrCodeUnsupportedDocumentType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Compose(tt.app, "Anand")
			require.Error(t, err)
			assert.Equal(t, tt.code, apperrors.CodeOf(err))
		})
	}
}

func TestRender_ProducesPDF(t *testing.T) {
	r := newRenderer(t)

	blob, err := r.Render(context.Background(), incomeApp(validIncome), "Anand")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(blob, []byte("%PDF-")))
}

func TestRender_CancelledContext(t *testing.T) {
	r := newRenderer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Render(ctx, incomeApp(validIncome), "Anand")
	assert.Equal(t, apperrors.ErrCodeRenderFailure, apperrors.CodeOf(err))
}

func TestFormValue(t *testing.T) {
	form := map[string]interface{}{
		"s":     " text ",
		"int":   float64(12),
		"frac":  1.5,
		"bool":  true,
		"empty": nil,
	}
	assert.Equal(t, "text", formValue(form, "s"))
	assert.Equal(t, "12", formValue(form, "int"))
	assert.Equal(t, "1.5", formValue(form, "frac"))
	assert.Equal(t, "true", formValue(form, "bool"))
	assert.Equal(t, "", formValue(form, "empty"))
	assert.Equal(t, "", formValue(form, "missing"))
}
