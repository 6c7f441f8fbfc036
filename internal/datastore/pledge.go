package datastore

import (
	"context"
	"time"

	"donorhub/internal/models"

	"github.com/uptrace/bun"
)

const PLEDGE_LIST_MAX = 500

func CreateTablePledge(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.Pledge)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Pledge)(nil)).Index("index_pledge_campaign_id").IfNotExists().Column("campaign_id").Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Pledge)(nil)).Index("index_pledge_donor_id").IfNotExists().Column("donor_id").Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Pledge)(nil)).Index("index_pledge_reward_id").IfNotExists().Column("reward_id").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func InsertPledge(ctx context.Context, db bun.IDB, pledge *models.Pledge) (*models.Pledge, error) {
	_, err := db.NewInsert().Model(pledge).Exec(ctx)
	if err != nil {
		return nil, err
	}

	return pledge, nil
}

func InsertPledges(ctx context.Context, db bun.IDB, pledges []*models.Pledge) error {
	if len(pledges) == 0 {
		return nil
	}

	_, err := db.NewInsert().Model(&pledges).Exec(ctx)
	return err
}

func GetPledgeByID(ctx context.Context, db bun.IDB, id int64) (*models.Pledge, error) {
	var pledge models.Pledge
	err := db.NewSelect().Model(&pledge).Where("id = ?", id).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &pledge, nil
}

func ListPledges(ctx context.Context, db bun.IDB, filter models.PledgeFilter) ([]*models.Pledge, error) {
	pledges := []*models.Pledge{}
	q := db.NewSelect().Model(&pledges).Order("id DESC")
	if filter.CampaignID != nil {
		q = q.Where("campaign_id = ?", *filter.CampaignID)
	}
	if filter.DonorID != nil {
		q = q.Where("donor_id = ?", *filter.DonorID)
	}
	if filter.Unassigned {
		q = q.Where("reward_id IS NULL")
	}

	limit := filter.Limit
	if limit <= 0 || limit > PLEDGE_LIST_MAX {
		limit = PLEDGE_LIST_MAX
	}
	q = q.Limit(limit)
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	err := q.Scan(ctx)
	if err != nil {
		return nil, err
	}
	return pledges, nil
}

// ListUnassignedPledges is the reconciliation read: pledges without a reward
// and a positive amount, largest first.
func ListUnassignedPledges(ctx context.Context, db bun.IDB, limit int) ([]*models.Pledge, error) {
	pledges := []*models.Pledge{}
	err := db.NewSelect().Model(&pledges).
		Where("reward_id IS NULL").
		Where("amount > 0").
		Order("amount DESC", "id ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return pledges, nil
}

// AssignPledgeReward sets the reward of a still unassigned pledge. A pledge
// that got a reward in the meantime is left alone and ErrNotAffected returned.
func AssignPledgeReward(ctx context.Context, db bun.IDB, pledgeID, rewardID int64) error {
	res, err := db.NewUpdate().Model((*models.Pledge)(nil)).
		Set("reward_id = ?", rewardID).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", pledgeID).
		Where("reward_id IS NULL").
		Exec(ctx)
	if err != nil {
		return err
	}

	return mustAffect(res)
}

// SetPledgeReward is the admin edit: it overwrites or clears the reward.
func SetPledgeReward(ctx context.Context, db bun.IDB, pledgeID int64, rewardID *int64) error {
	res, err := db.NewUpdate().Model((*models.Pledge)(nil)).
		Set("reward_id = ?", rewardID).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", pledgeID).
		Exec(ctx)
	if err != nil {
		return err
	}

	return mustAffect(res)
}

func CountPledgesByReward(ctx context.Context, db bun.IDB, rewardID int64) (int, error) {
	return db.NewSelect().Model((*models.Pledge)(nil)).Where("reward_id = ?", rewardID).Count(ctx)
}

func CountPledgesByCampaign(ctx context.Context, db bun.IDB, campaignID int64) (int, error) {
	return db.NewSelect().Model((*models.Pledge)(nil)).Where("campaign_id = ?", campaignID).Count(ctx)
}

// SumPledgesByDonor returns the pledged total of every donor that has pledged.
func SumPledgesByDonor(ctx context.Context, db bun.IDB) ([]*models.DonorTotal, error) {
	totals := []*models.DonorTotal{}
	err := db.NewSelect().Model((*models.Pledge)(nil)).
		Column("donor_id").
		ColumnExpr("COALESCE(SUM(amount), 0) AS total").
		Group("donor_id").
		Order("donor_id ASC").
		Scan(ctx, &totals)
	if err != nil {
		return nil, err
	}
	return totals, nil
}

func SumPledgesOfDonor(ctx context.Context, db bun.IDB, donorID int64) (*models.DonorTotal, error) {
	total := &models.DonorTotal{DonorID: donorID}
	err := db.NewSelect().Model((*models.Pledge)(nil)).
		ColumnExpr("COALESCE(SUM(amount), 0)").
		Where("donor_id = ?", donorID).
		Scan(ctx, &total.Total)
	if err != nil {
		return nil, err
	}
	return total, nil
}
