package auth

// Account is the credential-side projection of an account: just enough to
// check a password and mint a token. The full profile lives in the accounts
// package.
type Account struct {
	ID           int64
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Roles        []string
}

// HasRole reports whether the account holds the named role.
func (a *Account) HasRole(name string) bool {
	for _, r := range a.Roles {
		if r == name {
			return true
		}
	}
	return false
}

// SessionUser is the profile snapshot returned alongside a fresh token.
type SessionUser struct {
	ID    int64    `json:"id"`
	Email string   `json:"email"`
	Name  string   `json:"name"`
	Roles []string `json:"roles"`
}

// Session is the result of a successful login.
type Session struct {
	Token   string      `json:"token"`
	User    SessionUser `json:"user"`
	Expires int64       `json:"expires_at"`
}
