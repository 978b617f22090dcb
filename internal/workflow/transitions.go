package workflow

import (
	"fmt"

	apperrors "verification-workflow/internal/common/errors"
	"verification-workflow/internal/models"
)

// Transition is the outcome of one legal verifier action.
type Transition struct {
	Desk                models.Desk
	Status              models.Status
	Audit               models.AuditAction
	Terminal            bool
	GenerateCertificate bool
}

type deskState struct {
	desk   models.Desk
	status models.Status
}

// validStates is every (desk, status) pair an application may be stored in.
var validStates = map[deskState]bool{
	{models.Desk1, models.StatusPending}:                      true,
	{models.Desk2, models.StatusPending}:                      true,
	{models.Desk2, models.StatusUnderReview}:                  true,
	{models.DeskCertificateGeneration, models.StatusApproved}: true,
	{models.DeskApplicant, models.StatusRejected}:             true,
	{models.DeskApplicant, models.StatusChangesRequested}:     true,
	{models.DeskApplicant, models.StatusReapplied}:            true,
}

// ValidState reports whether desk and status form a reachable pair.
func ValidState(desk models.Desk, status models.Status) bool {
	return validStates[deskState{desk, status}]
}

// Active reports whether verifiers may still act on the application.
func Active(desk models.Desk, status models.Status) bool {
	if desk != models.Desk1 && desk != models.Desk2 {
		return false
	}
	return status == models.StatusPending || status == models.StatusUnderReview
}

// DeskFor maps a designation to the desk its holder works.
func DeskFor(designation models.Designation) (models.Desk, error) {
	switch designation {
	case models.DesignationJunior:
		return models.Desk1, nil
	case models.DesignationSenior:
		return models.Desk2, nil
	default:
		return models.DeskUnknown, apperrors.NewConfigurationError(
			fmt.Sprintf("no desk is assigned to designation %s", designation))
	}
}

// Next computes the only legal next state for action taken by a verifier
// of the given designation. It never mutates anything.
//
// Inactive applications fail with INVALID_TRANSITION before the designation
// is considered; an approve from the wrong desk fails with UNAUTHORIZED.
func Next(designation models.Designation, desk models.Desk, status models.Status, action models.Action) (Transition, error) {
	if !action.Valid() {
		return Transition{}, apperrors.NewValidationError("unknown action")
	}
	if !designation.Valid() {
		return Transition{}, apperrors.NewUnauthorizedError("actor has no verifier designation")
	}
	if !Active(desk, status) {
		return Transition{}, apperrors.NewInvalidTransitionError(
			fmt.Sprintf("%s is not allowed from %s/%s", action, desk, status))
	}

	switch action {
	case models.ActionApprove:
		switch {
		case designation == models.DesignationJunior && desk == models.Desk1:
			return Transition{
				Desk:   models.Desk2,
				Status: status,
				Audit:  models.AuditDocumentApproved,
			}, nil
		case designation == models.DesignationSenior && desk == models.Desk2:
			return Transition{
				Desk:                models.DeskCertificateGeneration,
				Status:              models.StatusApproved,
				Audit:               models.AuditDocumentApproved,
				Terminal:            true,
				GenerateCertificate: true,
			}, nil
		default:
			return Transition{}, apperrors.NewUnauthorizedError(
				fmt.Sprintf("%s may not approve at %s", designation, desk))
		}

	case models.ActionReject:
		return Transition{
			Desk:     models.DeskApplicant,
			Status:   models.StatusRejected,
			Audit:    models.AuditDocumentRejected,
			Terminal: true,
		}, nil

	default:
		return Transition{
			Desk:   models.DeskApplicant,
			Status: models.StatusChangesRequested,
			Audit:  models.AuditChangesRequested,
		}, nil
	}
}
