package datastore

import (
	"context"
	"time"

	"donorhub/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableReward(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.Reward)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Reward)(nil)).Index("index_reward_campaign_id").IfNotExists().Column("campaign_id").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func InsertReward(ctx context.Context, db bun.IDB, reward *models.Reward) (*models.Reward, error) {
	_, err := db.NewInsert().Model(reward).Exec(ctx)
	if err != nil {
		return nil, err
	}

	return reward, nil
}

func GetRewardByID(ctx context.Context, db bun.IDB, id int64) (*models.Reward, error) {
	var reward models.Reward
	err := db.NewSelect().Model(&reward).Where("id = ?", id).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &reward, nil
}

func ListRewardsByCampaign(ctx context.Context, db bun.IDB, campaignID int64) ([]*models.Reward, error) {
	rewards := []*models.Reward{}
	err := db.NewSelect().Model(&rewards).
		Where("campaign_id = ?", campaignID).
		Order("minimum_amount DESC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rewards, nil
}

// ListRewardsByMinimum returns every reward, highest minimum first.
func ListRewardsByMinimum(ctx context.Context, db bun.IDB) ([]*models.Reward, error) {
	rewards := []*models.Reward{}
	err := db.NewSelect().Model(&rewards).Order("minimum_amount DESC", "id ASC").Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rewards, nil
}

func UpdateReward(ctx context.Context, db bun.IDB, reward *models.Reward) (*models.Reward, error) {
	reward.UpdatedAt = time.Now().UTC()
	res, err := db.NewUpdate().Model(reward).
		Column("name", "minimum_amount", "is_physical", "requires_shipping", "description", "updated_at").
		WherePK().Exec(ctx)
	if err != nil {
		return nil, err
	}

	if err := mustAffect(res); err != nil {
		return nil, err
	}
	return reward, nil
}

func DeleteReward(ctx context.Context, db bun.IDB, id int64) error {
	res, err := db.NewDelete().Model((*models.Reward)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return err
	}

	return mustAffect(res)
}
