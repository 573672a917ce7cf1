package accounts

import (
	"time"

	"github.com/coursehub/coursehub/internal/roles"
)

// Account is a user record, either administrator or student kind, distinguished
// by its assigned roles. StudentNumber is empty for accounts that have none;
// when present it is unique among accounts that carry one.
type Account struct {
	ID            int64
	Email         string
	StudentNumber string
	PasswordHash  string
	FirstName     string
	LastName      string
	Address       string
	City          string
	PhoneNumber   string
	Program       string
	IsActive      bool
	Roles         []roles.Role
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// RoleNames returns the normalized role-name set of the account.
func (a *Account) RoleNames() []string {
	names := make([]string, len(a.Roles))
	for i, r := range a.Roles {
		names[i] = r.Name
	}
	return names
}

// HasRole reports whether the account holds the named role.
func (a *Account) HasRole(name string) bool {
	for _, r := range a.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

// View is the external representation of an account. The password hash never
// leaves the package.
type View struct {
	ID            int64        `json:"id"`
	Email         string       `json:"email"`
	StudentNumber string       `json:"student_number,omitempty"`
	FirstName     string       `json:"first_name"`
	LastName      string       `json:"last_name"`
	Address       string       `json:"address,omitempty"`
	City          string       `json:"city,omitempty"`
	PhoneNumber   string       `json:"phone_number,omitempty"`
	Program       string       `json:"program,omitempty"`
	Roles         []roles.Role `json:"roles"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// ViewOf converts an account to its external representation.
func ViewOf(a *Account) View {
	return View{
		ID:            a.ID,
		Email:         a.Email,
		StudentNumber: a.StudentNumber,
		FirstName:     a.FirstName,
		LastName:      a.LastName,
		Address:       a.Address,
		City:          a.City,
		PhoneNumber:   a.PhoneNumber,
		Program:       a.Program,
		Roles:         a.Roles,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}
