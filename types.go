package tokenward

import "context"

// User is a user directory record. The directory is an external
// collaborator; tokenward only reads id, credentials, roles, and the
// active flag from it.
type User struct {
	// ID is the string form of the user's UUID.
	ID           string
	Username     string
	PasswordHash string
	// Roles is a comma-separated list of role labels.
	Roles  string
	Active bool
}

// Directory is the user lookup interface callers implement to integrate
// tokenward with their user database. Only the login and issue-by-subject
// paths consult it.
type Directory interface {
	FindByUsername(ctx context.Context, username string) (User, error)
	FindByID(ctx context.Context, id string) (User, error)
}

// TokenPair is an access/refresh pair minted in one issuance batch.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// BearerTokenType is the token_type value reported in issued pairs.
const BearerTokenType = "Bearer"
