// internal/models/enums.go
package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// Desk is a named stage in the verification pipeline.
type Desk uint8

const (
	DeskUnknown Desk = iota
	Desk1
	Desk2
	DeskCertificateGeneration
	DeskApplicant
)

var deskNames = [...]string{"", "DESK_1", "DESK_2", "UNDER_CERTIFICATE_GENERATION", "APPLICANT"}

func (d Desk) String() string { return tokenName(deskNames[:], uint8(d)) }
func (d Desk) Valid() bool { return d > DeskUnknown && int(d) < len(deskNames) }
func ParseDesk(s string) (Desk, error) {
	v, err := parseToken("desk", deskNames[:], s)
	return Desk(v), err
}

func (d Desk) MarshalText() ([]byte, error) { return marshalToken("desk", d.Valid(), d.String()) }
func (d *Desk) UnmarshalText(b []byte) (err error) {
	*d, err = ParseDesk(string(b))
	return err
}
func (d Desk) Value() (driver.Value, error) { return valueToken("desk", d.Valid(), d.String()) }
func (d *Desk) Scan(src interface{}) (err error) {
	s, err := scanToken("desk", src)
	if err != nil {
		return err
	}
	*d, err = ParseDesk(s)
	return err
}

// Status is the lifecycle state of an application.
type Status uint8

const (
	StatusUnknown Status = iota
	StatusPending
	StatusUnderReview
	StatusApproved
	StatusRejected
	StatusChangesRequested
	StatusReapplied
)

var statusNames = [...]string{"", "PENDING", "UNDER_REVIEW", "APPROVED", "REJECTED", "CHANGES_REQUESTED", "REAPPLIED"}

func (s Status) String() string { return tokenName(statusNames[:], uint8(s)) }
func (s Status) Valid() bool { return s > StatusUnknown && int(s) < len(statusNames) }

// Terminal reports whether no further verifier action is defined.
func (s Status) Terminal() bool { return s == StatusApproved || s == StatusRejected }

// AllStatuses lists every valid status in declaration order.
func AllStatuses() []Status {
	out := make([]Status, 0, len(statusNames)-1)
	for i := 1; i < len(statusNames); i++ {
		out = append(out, Status(i))
	}
	return out
}

func ParseStatus(s string) (Status, error) {
	v, err := parseToken("status", statusNames[:], s)
	return Status(v), err
}

func (s Status) MarshalText() ([]byte, error) { return marshalToken("status", s.Valid(), s.String()) }
func (s *Status) UnmarshalText(b []byte) (err error) {
	*s, err = ParseStatus(string(b))
	return err
}
func (s Status) Value() (driver.Value, error) { return valueToken("status", s.Valid(), s.String()) }
func (s *Status) Scan(src interface{}) (err error) {
	v, err := scanToken("status", src)
	if err != nil {
		return err
	}
	*s, err = ParseStatus(v)
	return err
}

// DocumentType identifies the certificate being applied for.
type DocumentType uint8

const (
	DocumentTypeUnknown DocumentType = iota
	DocumentTypeIncome
	DocumentTypeCaste
	DocumentTypeDomicile
	DocumentTypeBirth
)

var documentTypeNames = [...]string{"", "INCOME", "CASTE", "DOMICILE", "BIRTH"}

func (t DocumentType) String() string { return tokenName(documentTypeNames[:], uint8(t)) }
func (t DocumentType) Valid() bool {
	return t > DocumentTypeUnknown && int(t) < len(documentTypeNames)
}

func ParseDocumentType(s string) (DocumentType, error) {
	v, err := parseToken("document type", documentTypeNames[:], s)
	return DocumentType(v), err
}

func (t DocumentType) MarshalText() ([]byte, error) {
	return marshalToken("document type", t.Valid(), t.String())
}
func (t *DocumentType) UnmarshalText(b []byte) (err error) {
	*t, err = ParseDocumentType(string(b))
	return err
}
func (t DocumentType) Value() (driver.Value, error) {
	return valueToken("document type", t.Valid(), t.String())
}
func (t *DocumentType) Scan(src interface{}) (err error) {
	v, err := scanToken("document type", src)
	if err != nil {
		return err
	}
	*t, err = ParseDocumentType(v)
	return err
}

// Designation is a verifier's seniority tier.
type Designation uint8

const (
	DesignationNone Designation = iota
	DesignationJunior
	DesignationSenior
)

var designationNames = [...]string{"", "JUNIOR_VERIFIER", "SENIOR_VERIFIER"}

func (d Designation) String() string { return tokenName(designationNames[:], uint8(d)) }
func (d Designation) Valid() bool {
	return d > DesignationNone && int(d) < len(designationNames)
}

func ParseDesignation(s string) (Designation, error) {
	if strings.TrimSpace(s) == "" {
		return DesignationNone, nil
	}
	v, err := parseToken("designation", designationNames[:], s)
	return Designation(v), err
}

func (d Designation) MarshalText() ([]byte, error) { return []byte(d.String()), nil }
func (d *Designation) UnmarshalText(b []byte) (err error) {
	*d, err = ParseDesignation(string(b))
	return err
}

// Action is a verifier decision.
type Action uint8

const (
	ActionUnknown Action = iota
	ActionApprove
	ActionReject
	ActionRequestChanges
)

var actionNames = [...]string{"", "APPROVE", "REJECT", "REQUEST_CHANGES"}

func (a Action) String() string { return tokenName(actionNames[:], uint8(a)) }
func (a Action) Valid() bool { return a > ActionUnknown && int(a) < len(actionNames) }

// ParseAction accepts the canonical names plus the route spellings
// "request-change" and "requestChanges".
func ParseAction(s string) (Action, error) {
	norm := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
	switch norm {
	case "REQUEST_CHANGE", "REQUESTCHANGES":
		return ActionRequestChanges, nil
	}
	v, err := parseToken("action", actionNames[:], norm)
	return Action(v), err
}

func (a Action) MarshalText() ([]byte, error) { return marshalToken("action", a.Valid(), a.String()) }
func (a *Action) UnmarshalText(b []byte) (err error) {
	*a, err = ParseAction(string(b))
	return err
}

func tokenName(names []string, v uint8) string {
	if int(v) >= len(names) || v == 0 {
		return "UNKNOWN"
	}
	return names[v]
}

func parseToken(kind string, names []string, s string) (uint8, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i := 1; i < len(names); i++ {
		if names[i] == s {
			return uint8(i), nil
		}
	}
	return 0, fmt.Errorf("invalid %s %q", kind, s)
}

func marshalToken(kind string, valid bool, name string) ([]byte, error) {
	if !valid {
		return nil, fmt.Errorf("cannot marshal invalid %s", kind)
	}
	return []byte(name), nil
}

func valueToken(kind string, valid bool, name string) (driver.Value, error) {
	if !valid {
		return nil, fmt.Errorf("cannot store invalid %s", kind)
	}
	return name, nil
}

func scanToken(kind string, src interface{}) (string, error) {
	switch v := src.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("cannot scan %T into %s", src, kind)
	}
}
