package auth

import (
	"context"
	"errors"
	"time"
)

// ErrEmailExists is returned by Create when the email is already registered.
var ErrEmailExists = errors.New("email already exists")

// Repository abstracts user persistence.
type Repository interface {
	Create(ctx context.Context, u NewUser) (User, error)
	GetByEmail(ctx context.Context, email string) (User, bool, error)
	GetByID(ctx context.Context, id int64) (User, bool, error)
	UpdateProfile(ctx context.Context, id int64, p Profile, at time.Time) (User, bool, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string, at time.Time) (bool, error)
	GetIdentity(ctx context.Context, provider, providerSubject string) (Identity, bool, error)
	GetIdentityByUser(ctx context.Context, userID int64, provider string) (Identity, bool, error)
	UpsertIdentity(ctx context.Context, identity Identity) (Identity, error)
}
