package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"donorhub/internal/datastore"
	"donorhub/internal/models"

	"github.com/samber/do"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceCampaign_Validation(t *testing.T) {
	container, _ := newTestContainer(t)
	service := do.MustInvoke[*ServiceCampaign](container)
	ctx := context.Background()

	start := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, -1)

	for name, payload := range map[string]*models.CampaignPayload{
		"blank name":    {Name: "  ", GoalAmount: dec("10")},
		"negative goal": {Name: "Garden", GoalAmount: dec("-1")},
		"end before":    {Name: "Garden", GoalAmount: dec("10"), StartDate: &start, EndDate: &end},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := service.Create(ctx, payload)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestServiceCampaign_CreateGetUpdate(t *testing.T) {
	container, _ := newTestContainer(t)
	service := do.MustInvoke[*ServiceCampaign](container)
	ctx := context.Background()

	created, err := service.Create(ctx, &models.CampaignPayload{Name: " Garden ", GoalAmount: dec("500")})
	require.NoError(t, err)
	assert.Equal(t, "Garden", created.Name)
	assert.True(t, created.Active)
	assert.True(t, created.CurrentAmount.IsZero())

	got, err := service.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Garden", got.Name)

	_, err = service.Update(ctx, created.ID, &models.CampaignPayload{Name: "Garden 2026", GoalAmount: dec("800"), Active: ptr(false)})
	require.NoError(t, err)

	got, err = service.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Garden 2026", got.Name)
	assert.False(t, got.Active)
	assert.True(t, got.GoalAmount.Equal(dec("800")))

	active, err := service.List(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestServiceCampaign_Delete(t *testing.T) {
	container, db := newTestContainer(t)
	service := do.MustInvoke[*ServiceCampaign](container)
	ctx := context.Background()
	f := seed(t, db)

	_, err := datastore.InsertPledge(ctx, db, &models.Pledge{DonorID: f.donor.ID, CampaignID: f.campaign.ID, Amount: dec("20")})
	require.NoError(t, err)

	assert.ErrorIs(t, service.Delete(ctx, f.campaign.ID), ErrCampaignHasPledges)

	require.NoError(t, service.Delete(ctx, f.other.ID))

	_, err = service.Get(ctx, f.other.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	_, err = datastore.GetRewardByID(ctx, db, f.tile.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestServiceCampaign_StatsAndRecalculate(t *testing.T) {
	container, db := newTestContainer(t)
	service := do.MustInvoke[*ServiceCampaign](container)
	ctx := context.Background()
	f := seed(t, db)

	for _, amount := range []string{"100", "150"} {
		_, err := datastore.InsertPledge(ctx, db, &models.Pledge{DonorID: f.donor.ID, CampaignID: f.campaign.ID, Amount: dec(amount)})
		require.NoError(t, err)
	}

	campaign, err := service.Recalculate(ctx, f.campaign.ID)
	require.NoError(t, err)
	assert.True(t, campaign.CurrentAmount.Equal(dec("250")))

	stats, err := service.Stats(ctx, f.campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.PledgeCount)
	assert.Equal(t, 2, stats.UnassignedCount)
	assert.Equal(t, 2, stats.RewardCount)
	assert.InDelta(t, 25.0, stats.PercentFunded, 0.001)
}
