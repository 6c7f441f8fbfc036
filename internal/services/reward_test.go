package services

import (
	"context"
	"database/sql"
	"testing"

	"donorhub/internal/datastore"
	"donorhub/internal/models"

	"github.com/samber/do"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceReward_Create(t *testing.T) {
	container, db := newTestContainer(t)
	service := do.MustInvoke[*ServiceReward](container)
	ctx := context.Background()
	f := seed(t, db)

	t.Run("unknown campaign", func(t *testing.T) {
		_, err := service.Create(ctx, &models.RewardPayload{CampaignID: 999, Name: "Mug", MinimumAmount: dec("5")})
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})

	t.Run("shipping needs physical", func(t *testing.T) {
		_, err := service.Create(ctx, &models.RewardPayload{CampaignID: f.campaign.ID, Name: "Thanks", RequiresShipping: true})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("listed after create", func(t *testing.T) {
		before, err := service.ListByCampaign(ctx, f.campaign.ID)
		require.NoError(t, err)
		require.Len(t, before, 2)

		reward, err := service.Create(ctx, &models.RewardPayload{CampaignID: f.campaign.ID, Name: " Mug ", MinimumAmount: dec("25"), IsPhysical: true})
		require.NoError(t, err)
		assert.Equal(t, "Mug", reward.Name)

		after, err := service.ListByCampaign(ctx, f.campaign.ID)
		require.NoError(t, err)
		assert.Len(t, after, 3)
	})
}

func TestServiceReward_Update(t *testing.T) {
	container, db := newTestContainer(t)
	service := do.MustInvoke[*ServiceReward](container)
	ctx := context.Background()
	f := seed(t, db)

	_, err := service.Update(ctx, f.sticker.ID, &models.RewardPayload{CampaignID: f.other.ID, Name: "Sticker Pack", MinimumAmount: dec("10")})
	assert.ErrorIs(t, err, ErrRewardCampaignMismatch)

	reward, err := service.Update(ctx, f.sticker.ID, &models.RewardPayload{Name: "Sticker Set", MinimumAmount: dec("12")})
	require.NoError(t, err)
	assert.Equal(t, f.campaign.ID, reward.CampaignID)
	assert.Equal(t, "Sticker Set", reward.Name)
	assert.True(t, reward.MinimumAmount.Equal(dec("12")))
}

func TestServiceReward_Delete(t *testing.T) {
	container, db := newTestContainer(t)
	service := do.MustInvoke[*ServiceReward](container)
	ctx := context.Background()
	f := seed(t, db)

	_, err := datastore.InsertPledge(ctx, db, &models.Pledge{DonorID: f.donor.ID, CampaignID: f.campaign.ID, Amount: dec("60"), RewardID: &f.shirt.ID})
	require.NoError(t, err)

	assert.ErrorIs(t, service.Delete(ctx, f.shirt.ID), ErrRewardInUse)
	require.NoError(t, service.Delete(ctx, f.sticker.ID))

	_, err = service.Get(ctx, f.sticker.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
