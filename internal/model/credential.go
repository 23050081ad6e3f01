package model

import "time"

// Credential is a username plus a one-way password hash, owned by the auth service.
type Credential struct {
	ID           int64
	Username     string
	PasswordHash string
	LastLogin    *time.Time
	CreatedAt    time.Time
}

// CreateCredentialRequest represents a credential registration request.
// The account service sends one of these for every new account.
type CreateCredentialRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginRequest represents a password login request.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse is returned by a successful login.
type TokenResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// CredentialResponse represents credential data safe for API responses (no hash).
type CredentialResponse struct {
	Username  string     `json:"username"`
	LastLogin *time.Time `json:"last_login"`
	CreatedAt time.Time  `json:"created_at"`
}

// CredentialDraft is the credential half of an account provisioning request.
type CredentialDraft struct {
	Username string
	Secret   string
}

// ToResponse converts a Credential to a CredentialResponse.
func (c Credential) ToResponse() CredentialResponse {
	return CredentialResponse{
		Username:  c.Username,
		LastLogin: c.LastLogin,
		CreatedAt: c.CreatedAt,
	}
}
