package datastore

import (
	"context"
	"database/sql"
	"testing"

	"donorhub/internal/models"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open("sqlite3", "file::memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	require.NoError(t, CreateTables(context.Background(), db))
	return db
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fixture struct {
	campaign *models.Campaign
	other    *models.Campaign
	donor    *models.Donor
	rewards  []*models.Reward
}

func seed(t *testing.T, db *bun.DB) *fixture {
	t.Helper()
	ctx := context.Background()

	f := &fixture{}
	var err error
	f.campaign, err = InsertCampaign(ctx, db, &models.Campaign{Name: "Community Garden", GoalAmount: dec("1000"), Active: true})
	require.NoError(t, err)
	f.other, err = InsertCampaign(ctx, db, &models.Campaign{Name: "Library Roof", GoalAmount: dec("5000"), Active: false})
	require.NoError(t, err)
	f.donor, err = InsertDonor(ctx, db, &models.Donor{Email: "ana@example.org", DisplayName: "Ana"})
	require.NoError(t, err)

	for _, r := range []*models.Reward{
		{CampaignID: f.campaign.ID, Name: "Sticker Pack", MinimumAmount: dec("10")},
		{CampaignID: f.campaign.ID, Name: "T-Shirt", MinimumAmount: dec("50"), IsPhysical: true, RequiresShipping: true},
		{CampaignID: f.other.ID, Name: "Roof Tile", MinimumAmount: dec("100"), IsPhysical: true},
	} {
		r, err := InsertReward(ctx, db, r)
		require.NoError(t, err)
		f.rewards = append(f.rewards, r)
	}

	return f
}
