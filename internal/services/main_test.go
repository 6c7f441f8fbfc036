package services

import (
	"context"
	"database/sql"
	"testing"

	"donorhub/internal/datastore"
	"donorhub/internal/models"
	"donorhub/internal/pkg/caching"

	_ "github.com/mattn/go-sqlite3"
	"github.com/samber/do"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"go.uber.org/zap"
)

// newTestContainer wires the Postgres-backed services against an in-memory
// SQLite database. Redis-backed services are not provided.
func newTestContainer(t *testing.T) (*do.Injector, *bun.DB) {
	t.Helper()

	sqldb, err := sql.Open("sqlite3", "file::memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })
	require.NoError(t, datastore.CreateTables(context.Background(), db))

	cache := caching.NewCacheMemory()

	injector := do.New()
	do.ProvideValue(injector, db)
	do.ProvideNamedValue(injector, "db-readonly", db)
	do.ProvideValue[caching.Cache](injector, cache)
	do.ProvideValue[caching.ReadOnlyCache](injector, cache)
	do.ProvideValue(injector, zap.NewNop())

	do.Provide(injector, NewServiceConfig)
	do.Provide(injector, NewServiceCampaign)
	do.Provide(injector, NewServiceReward)
	do.Provide(injector, NewServicePledge)
	do.Provide(injector, NewServiceDonor)
	do.Provide(injector, NewServiceImporter)

	return injector, db
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ptr[T any](v T) *T {
	return &v
}

type fixture struct {
	campaign *models.Campaign
	other    *models.Campaign
	donor    *models.Donor
	sticker  *models.Reward
	shirt    *models.Reward
	tile     *models.Reward
}

func seed(t *testing.T, db *bun.DB) *fixture {
	t.Helper()
	ctx := context.Background()

	f := &fixture{}
	var err error
	f.campaign, err = datastore.InsertCampaign(ctx, db, &models.Campaign{Name: "Community Garden", GoalAmount: dec("1000"), Active: true})
	require.NoError(t, err)
	f.other, err = datastore.InsertCampaign(ctx, db, &models.Campaign{Name: "Library Roof", GoalAmount: dec("5000")})
	require.NoError(t, err)
	f.donor, err = datastore.InsertDonor(ctx, db, &models.Donor{Email: "ana@example.org", DisplayName: "Ana"})
	require.NoError(t, err)

	f.sticker, err = datastore.InsertReward(ctx, db, &models.Reward{CampaignID: f.campaign.ID, Name: "Sticker Pack", MinimumAmount: dec("10")})
	require.NoError(t, err)
	f.shirt, err = datastore.InsertReward(ctx, db, &models.Reward{CampaignID: f.campaign.ID, Name: "T-Shirt", MinimumAmount: dec("50"), IsPhysical: true, RequiresShipping: true})
	require.NoError(t, err)
	f.tile, err = datastore.InsertReward(ctx, db, &models.Reward{CampaignID: f.other.ID, Name: "Roof Tile", MinimumAmount: dec("100"), IsPhysical: true})
	require.NoError(t, err)

	return f
}
