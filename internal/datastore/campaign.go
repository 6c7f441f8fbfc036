package datastore

import (
	"context"
	"time"

	"donorhub/internal/models"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

func CreateTableCampaign(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.Campaign)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Campaign)(nil)).Index("index_campaign_active").IfNotExists().Column("active").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func InsertCampaign(ctx context.Context, db bun.IDB, campaign *models.Campaign) (*models.Campaign, error) {
	_, err := db.NewInsert().Model(campaign).Exec(ctx)
	if err != nil {
		return nil, err
	}

	return campaign, nil
}

func GetCampaignByID(ctx context.Context, db bun.IDB, id int64) (*models.Campaign, error) {
	var campaign models.Campaign
	err := db.NewSelect().Model(&campaign).Where("id = ?", id).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

func ListCampaigns(ctx context.Context, db bun.IDB, activeOnly bool) ([]*models.Campaign, error) {
	var campaigns []*models.Campaign
	q := db.NewSelect().Model(&campaigns).Order("id ASC")
	if activeOnly {
		q = q.Where("active = ?", true)
	}

	err := q.Scan(ctx)
	if err != nil {
		return nil, err
	}
	return campaigns, nil
}

func ListCampaignsByIDs(ctx context.Context, db bun.IDB, ids []int64) ([]*models.Campaign, error) {
	campaigns := []*models.Campaign{}
	if len(ids) == 0 {
		return campaigns, nil
	}

	err := db.NewSelect().Model(&campaigns).Where("id IN (?)", bun.In(ids)).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return campaigns, nil
}

// UpdateCampaign writes the editable columns. current_amount is only ever
// derived from pledges.
func UpdateCampaign(ctx context.Context, db bun.IDB, campaign *models.Campaign) (*models.Campaign, error) {
	campaign.UpdatedAt = time.Now().UTC()
	res, err := db.NewUpdate().Model(campaign).
		Column("name", "provider", "goal_amount", "active", "start_date", "end_date", "updated_at").
		WherePK().Exec(ctx)
	if err != nil {
		return nil, err
	}

	if err := mustAffect(res); err != nil {
		return nil, err
	}
	return campaign, nil
}

func DeleteCampaign(ctx context.Context, db bun.IDB, id int64) error {
	res, err := db.NewDelete().Model((*models.Campaign)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return err
	}

	return mustAffect(res)
}

func SumCampaignPledges(ctx context.Context, db bun.IDB, campaignID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := db.NewSelect().Model((*models.Pledge)(nil)).
		ColumnExpr("COALESCE(SUM(amount), 0)").
		Where("campaign_id = ?", campaignID).
		Scan(ctx, &total)
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// RecalculateCampaignAmount sets current_amount to the sum of the campaign's
// pledges and returns the new value.
func RecalculateCampaignAmount(ctx context.Context, db bun.IDB, campaignID int64) (decimal.Decimal, error) {
	total, err := SumCampaignPledges(ctx, db, campaignID)
	if err != nil {
		return decimal.Zero, err
	}

	res, err := db.NewUpdate().Model((*models.Campaign)(nil)).
		Set("current_amount = ?", total).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", campaignID).
		Exec(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	if err := mustAffect(res); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func GetCampaignStats(ctx context.Context, db bun.IDB, campaign *models.Campaign) (*models.CampaignStats, error) {
	stats := &models.CampaignStats{
		CampaignID:    campaign.ID,
		GoalAmount:    campaign.GoalAmount,
		CurrentAmount: campaign.CurrentAmount,
	}

	var err error
	stats.PledgeCount, err = db.NewSelect().Model((*models.Pledge)(nil)).Where("campaign_id = ?", campaign.ID).Count(ctx)
	if err != nil {
		return nil, err
	}

	stats.UnassignedCount, err = db.NewSelect().Model((*models.Pledge)(nil)).
		Where("campaign_id = ?", campaign.ID).
		Where("reward_id IS NULL").
		Count(ctx)
	if err != nil {
		return nil, err
	}

	err = db.NewSelect().Model((*models.Pledge)(nil)).
		ColumnExpr("COUNT(DISTINCT donor_id)").
		Where("campaign_id = ?", campaign.ID).
		Scan(ctx, &stats.DonorCount)
	if err != nil {
		return nil, err
	}

	stats.RewardCount, err = db.NewSelect().Model((*models.Reward)(nil)).Where("campaign_id = ?", campaign.ID).Count(ctx)
	if err != nil {
		return nil, err
	}

	stats.PhysicalRewards, err = db.NewSelect().Model((*models.Reward)(nil)).
		Where("campaign_id = ?", campaign.ID).
		Where("is_physical = ?", true).
		Count(ctx)
	if err != nil {
		return nil, err
	}

	stats.ShippingRequired, err = db.NewSelect().Model((*models.Reward)(nil)).
		Where("campaign_id = ?", campaign.ID).
		Where("requires_shipping = ?", true).
		Count(ctx)
	if err != nil {
		return nil, err
	}

	if campaign.GoalAmount.IsPositive() {
		stats.PercentFunded = campaign.CurrentAmount.Div(campaign.GoalAmount).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
	}

	return stats, nil
}
