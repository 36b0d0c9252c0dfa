package userrepo

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/yanqian/smart-irrigation/internal/domain/auth"
	"github.com/yanqian/smart-irrigation/pkg/util"
)

var errIdentityOwner = errors.New("identity requires a user id")

type subjectKey struct {
	provider string
	subject  string
}

type ownerKey struct {
	provider string
	userID   int64
}

// MemoryRepository keeps farmer accounts and linked identities in process memory.
type MemoryRepository struct {
	mu         sync.RWMutex
	users      map[int64]auth.User
	byEmail    map[string]int64
	identities map[subjectKey]auth.Identity
	byOwner    map[ownerKey]subjectKey
	nextUser   int64
	nextLink   int64
	now        func() time.Time
}

// NewMemoryRepository constructs an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:      make(map[int64]auth.User),
		byEmail:    make(map[string]int64),
		identities: make(map[subjectKey]auth.Identity),
		byOwner:    make(map[ownerKey]subjectKey),
		now:        util.NowUTC,
	}
}

// Create stores a new account. Emails arrive normalized from the auth service.
func (r *MemoryRepository) Create(_ context.Context, u auth.NewUser) (auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byEmail[u.Email]; taken {
		return auth.User{}, auth.ErrEmailExists
	}
	r.nextUser++
	at := r.now()
	user := auth.User{
		ID:           r.nextUser,
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		CreatedAt:    at,
		UpdatedAt:    at,
	}
	r.users[user.ID] = user
	r.byEmail[user.Email] = user.ID
	return user, nil
}

func (r *MemoryRepository) GetByEmail(_ context.Context, email string) (auth.User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[email]
	if !ok {
		return auth.User{}, false, nil
	}
	return r.users[id], true, nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id int64) (auth.User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	return user, ok, nil
}

// UpdateProfile overwrites name, farm name and location.
func (r *MemoryRepository) UpdateProfile(_ context.Context, id int64, p auth.Profile, at time.Time) (auth.User, bool, error) {
	var out auth.User
	ok := r.mutate(id, func(u *auth.User) {
		u.Name, u.FarmName, u.Location = p.Name, p.FarmName, p.Location
		u.UpdatedAt = at.UTC()
		out = *u
	})
	return out, ok, nil
}

func (r *MemoryRepository) UpdatePassword(_ context.Context, id int64, passwordHash string, at time.Time) (bool, error) {
	ok := r.mutate(id, func(u *auth.User) {
		u.PasswordHash = passwordHash
		u.UpdatedAt = at.UTC()
	})
	return ok, nil
}

func (r *MemoryRepository) mutate(id int64, fn func(*auth.User)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return false
	}
	fn(&user)
	r.users[id] = user
	return true
}

func (r *MemoryRepository) GetIdentity(_ context.Context, provider, providerSubject string) (auth.Identity, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	identity, ok := r.identities[subjectKey{provider, providerSubject}]
	return identity, ok, nil
}

func (r *MemoryRepository) GetIdentityByUser(_ context.Context, userID int64, provider string) (auth.Identity, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	key, ok := r.byOwner[ownerKey{provider, userID}]
	if !ok {
		return auth.Identity{}, false, nil
	}
	return r.identities[key], true, nil
}

// UpsertIdentity links a provider subject to a user. Empty email or refresh token keep the
// stored values, matching the postgres COALESCE upsert.
func (r *MemoryRepository) UpsertIdentity(_ context.Context, identity auth.Identity) (auth.Identity, error) {
	if identity.UserID == 0 {
		return auth.Identity{}, errIdentityOwner
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	at := r.now()
	key := subjectKey{identity.Provider, identity.ProviderSubject}
	if existing, ok := r.identities[key]; ok {
		if identity.RefreshToken != "" {
			existing.RefreshToken = identity.RefreshToken
		}
		if identity.ProviderEmail != "" {
			existing.ProviderEmail = identity.ProviderEmail
		}
		existing.UpdatedAt = at
		identity = existing
	} else {
		r.nextLink++
		identity.ID = r.nextLink
		identity.CreatedAt = at
		identity.UpdatedAt = at
	}
	r.identities[key] = identity
	r.byOwner[ownerKey{identity.Provider, identity.UserID}] = key
	return identity, nil
}

var _ auth.Repository = (*MemoryRepository)(nil)
