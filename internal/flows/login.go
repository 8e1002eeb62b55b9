package flows

import (
	"context"
	"errors"
)

// LoginFailureKind classifies login and issuance failures.
type LoginFailureKind int

const (
	LoginFailureNone LoginFailureKind = iota
	// LoginFailureCredentials covers unknown username, bad password, and
	// inactive accounts. Deliberately one kind: the API boundary must not
	// reveal which check failed.
	LoginFailureCredentials
	// LoginFailureDirectory means the user directory could not answer.
	LoginFailureDirectory
	LoginFailureEncode
)

// UserRecord is the directory lookup result the login flow consumes.
type UserRecord struct {
	ID           string
	PasswordHash string
	Roles        string
	Active       bool
}

// LoginResult carries the issued pair or failure metadata.
type LoginResult struct {
	Failure      LoginFailureKind
	Err          error
	UserID       string
	AccessToken  string
	RefreshToken string
}

// LoginDeps captures login dependencies.
type LoginDeps struct {
	FindByUsername func(context.Context, string) (UserRecord, error)
	FindByID       func(context.Context, string) (UserRecord, error)
	VerifyPassword func(hash, password string) (bool, error)
	MintPair       func(subject, roles string) (string, string, error)
	// NotFoundErr is the directory's lookup-miss sentinel, mapped to a
	// credentials failure instead of a directory outage.
	NotFoundErr error
}

// RunLogin authenticates a username/password pair against the user
// directory and mints a token pair on success. Issuance writes nothing to
// the revocation store.
func RunLogin(ctx context.Context, username, password string, deps LoginDeps) LoginResult {
	user, err := deps.FindByUsername(ctx, username)
	if err != nil {
		if deps.NotFoundErr != nil && errors.Is(err, deps.NotFoundErr) {
			return LoginResult{Failure: LoginFailureCredentials}
		}
		return LoginResult{Failure: LoginFailureDirectory, Err: err}
	}

	ok, err := deps.VerifyPassword(user.PasswordHash, password)
	if err != nil || !ok {
		return LoginResult{Failure: LoginFailureCredentials, UserID: user.ID}
	}
	if !user.Active {
		return LoginResult{Failure: LoginFailureCredentials, UserID: user.ID}
	}

	return mint(user, deps)
}

// RunIssue mints a token pair for a known subject, for hosts that
// authenticate out-of-band (SSO callbacks, service accounts).
func RunIssue(ctx context.Context, userID string, deps LoginDeps) LoginResult {
	user, err := deps.FindByID(ctx, userID)
	if err != nil {
		if deps.NotFoundErr != nil && errors.Is(err, deps.NotFoundErr) {
			return LoginResult{Failure: LoginFailureCredentials}
		}
		return LoginResult{Failure: LoginFailureDirectory, Err: err}
	}
	if !user.Active {
		return LoginResult{Failure: LoginFailureCredentials, UserID: user.ID}
	}

	return mint(user, deps)
}

func mint(user UserRecord, deps LoginDeps) LoginResult {
	access, refresh, err := deps.MintPair(user.ID, user.Roles)
	if err != nil {
		return LoginResult{Failure: LoginFailureEncode, Err: err, UserID: user.ID}
	}
	return LoginResult{
		UserID:       user.ID,
		AccessToken:  access,
		RefreshToken: refresh,
	}
}
