package services

import (
	"context"
	"strings"

	"donorhub/internal/datastore"
	"donorhub/internal/models"
	"donorhub/internal/pkg/caching"

	"github.com/samber/do"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

type ServicePledge struct {
	container          *do.Injector
	postgresDB         *bun.DB
	readonlyPostgresDB *bun.DB
	cache              caching.Cache
	logger             *zap.Logger
}

func NewServicePledge(container *do.Injector) (*ServicePledge, error) {
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

	logger, err := do.Invoke[*zap.Logger](container)
	if err != nil {
		return nil, err
	}

	return &ServicePledge{container, postgresDB, readonlyPostgresDB, cache, logger}, nil
}

func (service *ServicePledge) List(ctx context.Context, filter models.PledgeFilter) ([]*models.Pledge, error) {
	return datastore.ListPledges(ctx, service.readonlyPostgresDB, filter)
}

func (service *ServicePledge) Get(ctx context.Context, id int64) (*models.Pledge, error) {
	return datastore.GetPledgeByID(ctx, service.readonlyPostgresDB, id)
}

// checkReward makes sure rewardID belongs to the pledge's campaign.
func checkReward(ctx context.Context, db bun.IDB, campaignID int64, rewardID int64) error {
	reward, err := datastore.GetRewardByID(ctx, db, rewardID)
	if err != nil {
		return err
	}
	if reward.CampaignID != campaignID {
		return ErrRewardCampaignMismatch
	}
	return nil
}

func (service *ServicePledge) Create(ctx context.Context, payload *models.PledgePayload) (*models.Pledge, error) {
	// stored as numeric(14,2)
	amount := payload.Amount.Round(2)
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	if _, err := datastore.GetDonorByID(ctx, service.postgresDB, payload.DonorID); err != nil {
		return nil, err
	}
	if _, err := datastore.GetCampaignByID(ctx, service.postgresDB, payload.CampaignID); err != nil {
		return nil, err
	}
	if payload.RewardID != nil {
		if err := checkReward(ctx, service.postgresDB, payload.CampaignID, *payload.RewardID); err != nil {
			return nil, err
		}
	}

	pledge := &models.Pledge{
		DonorID:    payload.DonorID,
		CampaignID: payload.CampaignID,
		Amount:     amount,
		RewardID:   payload.RewardID,
	}
	if payload.SourcePerkName != nil {
		if perk := strings.TrimSpace(*payload.SourcePerkName); perk != "" {
			pledge.SourcePerkName = &perk
		}
	}

	err := service.postgresDB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := datastore.InsertPledge(ctx, tx, pledge); err != nil {
			return err
		}
		_, err := datastore.RecalculateCampaignAmount(ctx, tx, pledge.CampaignID)
		return err
	})
	if err != nil {
		return nil, err
	}

	service.invalidate(ctx, pledge)
	return pledge, nil
}

// AssignReward is the manual admin edit. It replaces whatever reward the
// pledge has, or clears it when rewardID is nil. Concurrent edits are last
// write wins.
func (service *ServicePledge) AssignReward(ctx context.Context, pledgeID int64, rewardID *int64) (*models.Pledge, error) {
	pledge, err := datastore.GetPledgeByID(ctx, service.postgresDB, pledgeID)
	if err != nil {
		return nil, err
	}

	if rewardID != nil {
		if err := checkReward(ctx, service.postgresDB, pledge.CampaignID, *rewardID); err != nil {
			return nil, err
		}
	}

	if err := datastore.SetPledgeReward(ctx, service.postgresDB, pledgeID, rewardID); err != nil {
		return nil, err
	}

	service.logger.Info("pledge reward set",
		zap.Int64("pledge_id", pledgeID),
		zap.Int64p("reward_id", rewardID))

	pledge.RewardID = rewardID
	service.invalidate(ctx, pledge)
	return pledge, nil
}

func (service *ServicePledge) invalidate(ctx context.Context, pledge *models.Pledge) {
	//nolint:errcheck
	service.cache.Delete(ctx, DBKeyReconcileMatches())
	//nolint:errcheck
	service.cache.Delete(ctx, DBKeyCampaign(pledge.CampaignID))
	//nolint:errcheck
	service.cache.Delete(ctx, DBKeyDonorRank(pledge.DonorID))
}
