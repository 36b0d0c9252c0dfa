package userrepo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/smart-irrigation/internal/domain/auth"
)

func TestMemoryRepositoryCreateAndLookup(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	user, err := repo.Create(ctx, auth.NewUser{Email: "grower@farm.co", Name: "Grower", PasswordHash: "hash"})
	require.NoError(t, err)
	require.Equal(t, int64(1), user.ID)

	_, err = repo.Create(ctx, auth.NewUser{Email: "grower@farm.co", Name: "Again"})
	require.ErrorIs(t, err, auth.ErrEmailExists)

	got, found, err := repo.GetByEmail(ctx, "grower@farm.co")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, user.ID, got.ID)

	at := time.Date(2024, 4, 2, 10, 0, 0, 0, time.UTC)
	updated, ok, err := repo.UpdateProfile(ctx, user.ID, auth.Profile{Name: "Grower", FarmName: "North Field", Location: "Valley"}, at)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "North Field", updated.FarmName)
	require.Equal(t, at, updated.UpdatedAt)

	ok, err = repo.UpdatePassword(ctx, 99, "x", at)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryRepositoryUpsertIdentityKeepsStoredToken(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	_, err := repo.UpsertIdentity(ctx, auth.Identity{Provider: "google", ProviderSubject: "sub"})
	require.Error(t, err)

	first, err := repo.UpsertIdentity(ctx, auth.Identity{UserID: 7, Provider: "google", ProviderSubject: "sub", ProviderEmail: "a@b.co", RefreshToken: "sealed"})
	require.NoError(t, err)

	second, err := repo.UpsertIdentity(ctx, auth.Identity{UserID: 7, Provider: "google", ProviderSubject: "sub"})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, "sealed", second.RefreshToken)
	require.Equal(t, "a@b.co", second.ProviderEmail)

	byUser, found, err := repo.GetIdentityByUser(ctx, 7, "google")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "sub", byUser.ProviderSubject)

	_, found, err = repo.GetIdentity(ctx, "google", "other")
	require.NoError(t, err)
	require.False(t, found)
}
