package memory

import (
	"context"
	"errors"
	"testing"

	providerDomain "github.com/estatehub/service-scheduling/internal/domain/provider"
	"github.com/estatehub/service-scheduling/internal/platform/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProvider(t *testing.T, userID uuid.UUID, name string) *providerDomain.Provider {
	t.Helper()
	p, err := providerDomain.NewProvider(userID, providerDomain.KindPhotographer, providerDomain.Profile{
		Name:         name,
		ServiceAreas: []string{"Cairo"},
	})
	require.NoError(t, err)
	return p
}

func TestProviderRepository_SaveRejectsSecondProfileForUser(t *testing.T) {
	repo := NewProviderRepository()
	ctx := context.Background()
	user := uuid.New()

	first := newProvider(t, user, "Salma")
	require.NoError(t, repo.Save(ctx, first))
	require.NoError(t, repo.Save(ctx, newProvider(t, uuid.New(), "Karim")))

	err := repo.Save(ctx, newProvider(t, user, "Salma again"))
	var conflict *domain.ConflictError
	require.True(t, errors.As(err, &conflict), "expected conflict, got %v", err)

	err = repo.Save(ctx, first)
	require.True(t, errors.As(err, &conflict), "expected conflict, got %v", err)

	found, err := repo.FindByUserID(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, first.ID(), found.ID())

	_, total, err := repo.List(ctx, providerDomain.ListFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}
