package services

import (
	"context"
	"testing"

	"donorhub/internal/datastore"
	"donorhub/internal/models"

	"github.com/samber/do"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceDonor_Create(t *testing.T) {
	container, _ := newTestContainer(t)
	service := do.MustInvoke[*ServiceDonor](container)
	ctx := context.Background()

	donor, err := service.Create(ctx, &models.DonorPayload{Email: " Ana@Example.ORG ", DisplayName: " Ana "})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.org", donor.Email)
	assert.Equal(t, "Ana", donor.DisplayName)

	_, err = service.Create(ctx, &models.DonorPayload{Email: "ANA@example.org"})
	assert.ErrorIs(t, err, ErrDonorExists)

	_, err = service.Create(ctx, &models.DonorPayload{Email: "not-an-email"})
	assert.ErrorIs(t, err, ErrValidation)

	found, err := service.List(ctx, "ana", 0, 0)
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestServiceDonor_FindOrCreate(t *testing.T) {
	container, db := newTestContainer(t)
	service := do.MustInvoke[*ServiceDonor](container)
	ctx := context.Background()

	first, created, err := service.FindOrCreate(ctx, db, &models.DonorPayload{Email: "bo@example.org", DisplayName: "Bo"})
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := service.FindOrCreate(ctx, db, &models.DonorPayload{Email: "BO@example.org"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)
}

func TestServiceDonor_Update(t *testing.T) {
	container, db := newTestContainer(t)
	service := do.MustInvoke[*ServiceDonor](container)
	ctx := context.Background()
	f := seed(t, db)

	other, err := service.Create(ctx, &models.DonorPayload{Email: "bo@example.org"})
	require.NoError(t, err)

	_, err = service.Update(ctx, other.ID, &models.DonorPayload{Email: f.donor.Email})
	assert.ErrorIs(t, err, ErrDonorExists)

	updated, err := service.Update(ctx, other.ID, &models.DonorPayload{Email: "bo@example.net", DisplayName: "Bo"})
	require.NoError(t, err)
	assert.Equal(t, "bo@example.net", updated.Email)
}

func TestServiceDonor_AddActivity(t *testing.T) {
	container, db := newTestContainer(t)
	service := do.MustInvoke[*ServiceDonor](container)
	ctx := context.Background()
	f := seed(t, db)

	_, err := service.AddActivity(ctx, f.donor.ID, &models.ActivityPayload{Kind: "poke"})
	assert.ErrorIs(t, err, ErrUnknownActivity)

	// the leaderboard is not wired in this container, the activity still counts
	activity, err := service.AddActivity(ctx, f.donor.ID, &models.ActivityPayload{Kind: " Forum_Post "})
	require.NoError(t, err)
	assert.Equal(t, models.ACTIVITY_FORUM_POST, activity.Kind)

	counts, err := datastore.CountActivitiesByDonor(ctx, db, f.donor.ID)
	require.NoError(t, err)
	require.Len(t, counts, 1)
	assert.Equal(t, int64(1), counts[0].Count)
}
