package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDesk(t *testing.T) {
	tests := []struct {
		in      string
		want    Desk
		wantErr bool
	}{
		{"DESK_1", Desk1, false},
		{"desk_2", Desk2, false},
		{"UNDER_CERTIFICATE_GENERATION", DeskCertificateGeneration, false},
		{" APPLICANT ", DeskApplicant, false},
		{"DESK_3", DeskUnknown, true},
		{"", DeskUnknown, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDesk(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseAction_Aliases(t *testing.T) {
	for _, in := range []string{"request-change", "requestChanges", "REQUEST_CHANGES", "request_change"} {
		a, err := ParseAction(in)
		require.NoError(t, err, in)
		assert.Equal(t, ActionRequestChanges, a, in)
	}

	a, err := ParseAction("approve")
	require.NoError(t, err)
	assert.Equal(t, ActionApprove, a)

	_, err = ParseAction("escalate")
	assert.Error(t, err)
}

func TestParseDesignation_EmptyIsNone(t *testing.T) {
	d, err := ParseDesignation("")
	require.NoError(t, err)
	assert.Equal(t, DesignationNone, d)
	assert.False(t, d.Valid())

	_, err = ParseDesignation("CHIEF_VERIFIER")
	assert.Error(t, err)
}

func TestApplicationJSON(t *testing.T) {
	app := Application{
		ID:              "a1",
		DocumentType:    DocumentTypeIncome,
		Status:          StatusPending,
		CurrentDesk:     Desk1,
		FormData:        json.RawMessage(`{"annualIncome":"1000"}`),
		CertificateBlob: []byte("%PDF"),
	}

	raw, err := json.Marshal(app)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"documentType":"INCOME"`)
	assert.Contains(t, string(raw), `"currentDesk":"DESK_1"`)
	assert.NotContains(t, string(raw), "PDF")

	var decoded Application
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, StatusPending, decoded.Status)
	assert.Equal(t, Desk1, decoded.CurrentDesk)
}

func TestMarshalInvalidEnum(t *testing.T) {
	_, err := json.Marshal(struct {
		S Status `json:"s"`
	}{})
	assert.Error(t, err)
}

func TestScanAndValue(t *testing.T) {
	var s Status
	require.NoError(t, s.Scan([]byte("CHANGES_REQUESTED")))
	assert.Equal(t, StatusChangesRequested, s)

	v, err := s.Value()
	require.NoError(t, err)
	assert.Equal(t, "CHANGES_REQUESTED", v)

	assert.Error(t, s.Scan(42))
	_, err = StatusUnknown.Value()
	assert.Error(t, err)
}

func TestClone_IsDeep(t *testing.T) {
	orig := &Application{ID: "a", RejectionReason: StringPtr("r"), CertificateBlob: []byte{1}}
	c := orig.Clone()
	*c.RejectionReason = "changed"
	c.CertificateBlob[0] = 9

	assert.Equal(t, "r", *orig.RejectionReason)
	assert.Equal(t, byte(1), orig.CertificateBlob[0])
}

func TestPageRequest(t *testing.T) {
	assert.Equal(t, PageRequest{Page: 0, Size: 20}, NewPageRequest(-1, 0))
	assert.Equal(t, PageRequest{Page: 2, Size: 100}, NewPageRequest(2, 500))
	assert.Equal(t, 40, NewPageRequest(2, 20).Offset())

	p := NewPage[int](nil, NewPageRequest(0, 20), 41)
	assert.Equal(t, 3, p.TotalPages)
	assert.NotNil(t, p.Items)
}

func TestStatsAdd(t *testing.T) {
	var s Stats
	s.Add(StatusPending, Desk1, 2)
	s.Add(StatusPending, Desk2, 1)
	s.Add(StatusApproved, DeskCertificateGeneration, 1)
	s.Add(StatusChangesRequested, DeskApplicant, 1)

	assert.Equal(t, int64(5), s.TotalApplied)
	assert.Equal(t, int64(2), s.CountOnDesk1)
	assert.Equal(t, int64(1), s.CountOnDesk2)
	assert.Equal(t, s.TotalApplied, s.Pending+s.Approved+s.Rejected+s.UnderReview+s.ChangesRequested+s.Reapplied)
}
