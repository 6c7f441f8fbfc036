package services

import (
	"context"
	"strings"

	"donorhub/internal/datastore"
	"donorhub/internal/models"
	"donorhub/internal/pkg/caching"

	"github.com/samber/do"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type ServiceCampaign struct {
	container          *do.Injector
	postgresDB         *bun.DB
	readonlyPostgresDB *bun.DB
	cache              caching.Cache
	readonlyCache      caching.ReadOnlyCache
}

func NewServiceCampaign(container *do.Injector) (*ServiceCampaign, error) {
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

	return &ServiceCampaign{container, postgresDB, readonlyPostgresDB, cache, readonlyCache}, nil
}

func validateCampaign(payload *models.CampaignPayload) error {
	if strings.TrimSpace(payload.Name) == "" {
		return validationError("name is required")
	}
	if payload.GoalAmount.IsNegative() {
		return validationError("goal_amount must not be negative")
	}
	if payload.StartDate != nil && payload.EndDate != nil && payload.EndDate.Before(*payload.StartDate) {
		return validationError("end_date is before start_date")
	}
	return nil
}

func (service *ServiceCampaign) List(ctx context.Context, activeOnly bool) ([]*models.Campaign, error) {
	return datastore.ListCampaigns(ctx, service.readonlyPostgresDB, activeOnly)
}

func (service *ServiceCampaign) Get(ctx context.Context, id int64) (*models.Campaign, error) {
	callback := func() (*models.Campaign, error) {
		return datastore.GetCampaignByID(ctx, service.readonlyPostgresDB, id)
	}

	return caching.UseCacheWithRO(ctx, service.readonlyCache, service.cache, DBKeyCampaign(id), CACHE_TTL_1_MIN, callback)
}

func (service *ServiceCampaign) Create(ctx context.Context, payload *models.CampaignPayload) (*models.Campaign, error) {
	if err := validateCampaign(payload); err != nil {
		return nil, err
	}

	campaign := &models.Campaign{
		Name:          strings.TrimSpace(payload.Name),
		Provider:      payload.Provider,
		GoalAmount:    payload.GoalAmount,
		CurrentAmount: decimal.Zero,
		Active:        true,
		StartDate:     payload.StartDate,
		EndDate:       payload.EndDate,
	}
	if payload.Active != nil {
		campaign.Active = *payload.Active
	}

	return datastore.InsertCampaign(ctx, service.postgresDB, campaign)
}

func (service *ServiceCampaign) Update(ctx context.Context, id int64, payload *models.CampaignPayload) (*models.Campaign, error) {
	if err := validateCampaign(payload); err != nil {
		return nil, err
	}

	campaign, err := datastore.GetCampaignByID(ctx, service.postgresDB, id)
	if err != nil {
		return nil, err
	}

	campaign.Name = strings.TrimSpace(payload.Name)
	campaign.Provider = payload.Provider
	campaign.GoalAmount = payload.GoalAmount
	campaign.StartDate = payload.StartDate
	campaign.EndDate = payload.EndDate
	if payload.Active != nil {
		campaign.Active = *payload.Active
	}

	campaign, err = datastore.UpdateCampaign(ctx, service.postgresDB, campaign)
	if err != nil {
		return nil, err
	}

	service.invalidate(ctx, id)
	return campaign, nil
}

func (service *ServiceCampaign) Delete(ctx context.Context, id int64) error {
	n, err := datastore.CountPledgesByCampaign(ctx, service.postgresDB, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrCampaignHasPledges
	}

	err = service.postgresDB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().Model((*models.Reward)(nil)).Where("campaign_id = ?", id).Exec(ctx)
		if err != nil {
			return err
		}
		return datastore.DeleteCampaign(ctx, tx, id)
	})
	if err != nil {
		return err
	}

	service.invalidate(ctx, id)
	return nil
}

func (service *ServiceCampaign) Stats(ctx context.Context, id int64) (*models.CampaignStats, error) {
	campaign, err := datastore.GetCampaignByID(ctx, service.readonlyPostgresDB, id)
	if err != nil {
		return nil, err
	}

	return datastore.GetCampaignStats(ctx, service.readonlyPostgresDB, campaign)
}

// Recalculate rebuilds current_amount from the campaign's pledges.
func (service *ServiceCampaign) Recalculate(ctx context.Context, id int64) (*models.Campaign, error) {
	_, err := datastore.RecalculateCampaignAmount(ctx, service.postgresDB, id)
	if err != nil {
		return nil, err
	}

	service.invalidate(ctx, id)
	return datastore.GetCampaignByID(ctx, service.postgresDB, id)
}

func (service *ServiceCampaign) invalidate(ctx context.Context, id int64) {
	//nolint:errcheck
	service.cache.Delete(ctx, DBKeyCampaign(id))
	//nolint:errcheck
	service.cache.Delete(ctx, DBKeyCampaignRewards(id))
}
