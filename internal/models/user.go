// internal/models/user.go
package models

// Role is the account role. Only VERIFIER accounts may act on applications.
type Role string

const (
	RoleCitizen  Role = "CITIZEN"
	RoleVerifier Role = "VERIFIER"
	RoleAdmin    Role = "ADMIN"
)

// User is an account row as stored by the identity collaborator.
type User struct {
	ID          string      `json:"id"`
	FullName    string      `json:"fullName"`
	Email       string      `json:"email"`
	Phone       string      `json:"phone,omitempty"`
	Role        Role        `json:"role"`
	Designation Designation `json:"designation,omitempty"`
	Enabled     bool        `json:"enabled"`
	Blocked     bool        `json:"blocked"`
}

// Actor is the explicit verifier identity passed into every desk operation.
type Actor struct {
	ID          string      `json:"id"`
	FullName    string      `json:"fullName"`
	Designation Designation `json:"designation"`
	Enabled     bool        `json:"enabled"`
	Blocked     bool        `json:"blocked"`
}

// Actor projects a verifier account onto the workflow's actor view.
func (u *User) Actor() Actor {
	return Actor{
		ID:          u.ID,
		FullName:    u.FullName,
		Designation: u.Designation,
		Enabled:     u.Enabled,
		Blocked:     u.Blocked,
	}
}
