package services

import (
	"context"
	"strings"

	"donorhub/internal/datastore"
	"donorhub/internal/models"
	"donorhub/internal/pkg/caching"

	"github.com/samber/do"
	"github.com/uptrace/bun"
)

type ServiceReward struct {
	container          *do.Injector
	postgresDB         *bun.DB
	readonlyPostgresDB *bun.DB
	cache              caching.Cache
	readonlyCache      caching.ReadOnlyCache
}

func NewServiceReward(container *do.Injector) (*ServiceReward, error) {
	postgresDB, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}

	readonlyPostgresDB, err := do.InvokeNamed[*bun.DB](container, "db-readonly")
	if err != nil {
		return nil, err
	}

	cache, err := do.Invoke[caching.Cache](container)
	if err != nil {
		return nil, err
	}

	readonlyCache, err := do.Invoke[caching.ReadOnlyCache](container)
	if err != nil {
		return nil, err
	}

	return &ServiceReward{container, postgresDB, readonlyPostgresDB, cache, readonlyCache}, nil
}

func validateReward(payload *models.RewardPayload) error {
	if strings.TrimSpace(payload.Name) == "" {
		return validationError("name is required")
	}
	if payload.MinimumAmount.IsNegative() {
		return validationError("minimum_amount must not be negative")
	}
	if payload.RequiresShipping && !payload.IsPhysical {
		return validationError("only physical rewards can require shipping")
	}
	return nil
}

func (service *ServiceReward) ListByCampaign(ctx context.Context, campaignID int64) ([]*models.Reward, error) {
	callback := func() ([]*models.Reward, error) {
		if _, err := datastore.GetCampaignByID(ctx, service.readonlyPostgresDB, campaignID); err != nil {
			return nil, err
		}
		return datastore.ListRewardsByCampaign(ctx, service.readonlyPostgresDB, campaignID)
	}

	return caching.UseCacheWithRO(ctx, service.readonlyCache, service.cache, DBKeyCampaignRewards(campaignID), CACHE_TTL_1_MIN, callback)
}

func (service *ServiceReward) Get(ctx context.Context, id int64) (*models.Reward, error) {
	return datastore.GetRewardByID(ctx, service.readonlyPostgresDB, id)
}

func (service *ServiceReward) Create(ctx context.Context, payload *models.RewardPayload) (*models.Reward, error) {
	if err := validateReward(payload); err != nil {
		return nil, err
	}

	if _, err := datastore.GetCampaignByID(ctx, service.postgresDB, payload.CampaignID); err != nil {
		return nil, err
	}

	reward, err := datastore.InsertReward(ctx, service.postgresDB, &models.Reward{
		CampaignID:       payload.CampaignID,
		Name:             strings.TrimSpace(payload.Name),
		MinimumAmount:    payload.MinimumAmount,
		IsPhysical:       payload.IsPhysical,
		RequiresShipping: payload.RequiresShipping,
		Description:      payload.Description,
	})
	if err != nil {
		return nil, err
	}

	service.invalidate(ctx, reward.CampaignID)
	return reward, nil
}

// Update edits a reward in place. A reward never moves to another campaign.
func (service *ServiceReward) Update(ctx context.Context, id int64, payload *models.RewardPayload) (*models.Reward, error) {
	if err := validateReward(payload); err != nil {
		return nil, err
	}

	reward, err := datastore.GetRewardByID(ctx, service.postgresDB, id)
	if err != nil {
		return nil, err
	}
	if payload.CampaignID != 0 && payload.CampaignID != reward.CampaignID {
		return nil, ErrRewardCampaignMismatch
	}

	reward.Name = strings.TrimSpace(payload.Name)
	reward.MinimumAmount = payload.MinimumAmount
	reward.IsPhysical = payload.IsPhysical
	reward.RequiresShipping = payload.RequiresShipping
	reward.Description = payload.Description

	reward, err = datastore.UpdateReward(ctx, service.postgresDB, reward)
	if err != nil {
		return nil, err
	}

	service.invalidate(ctx, reward.CampaignID)
	return reward, nil
}

func (service *ServiceReward) Delete(ctx context.Context, id int64) error {
	reward, err := datastore.GetRewardByID(ctx, service.postgresDB, id)
	if err != nil {
		return err
	}

	n, err := datastore.CountPledgesByReward(ctx, service.postgresDB, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrRewardInUse
	}

	if err := datastore.DeleteReward(ctx, service.postgresDB, id); err != nil {
		return err
	}

	service.invalidate(ctx, reward.CampaignID)
	return nil
}

func (service *ServiceReward) invalidate(ctx context.Context, campaignID int64) {
	//nolint:errcheck
	service.cache.Delete(ctx, DBKeyCampaignRewards(campaignID))
	//nolint:errcheck
	service.cache.Delete(ctx, DBKeyReconcileMatches())
}
