package services

import (
	"context"
	"errors"

	"donorhub/internal/datastore"
	"donorhub/internal/datastore/redis_store"
	"donorhub/internal/models"
	"donorhub/internal/pkg/caching"
	"donorhub/internal/ranking"

	"github.com/go-redsync/redsync/v4"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

type ServiceRanking struct {
	container          *do.Injector
	redisDB            redis.UniversalClient
	redisDBCache       redis.UniversalClient
	rs                 *redsync.Redsync
	postgresDB         *bun.DB
	readonlyPostgresDB *bun.DB
	cache              caching.Cache
	readonlyCache      caching.ReadOnlyCache
	logger             *zap.Logger

	serviceConfig *ServiceConfig
}

func NewServiceRanking(container *do.Injector) (*ServiceRanking, error) {
	db, err := do.InvokeNamed[redis.UniversalClient](container, "redis-db")
	if err != nil {
		return nil, err
	}

	dbRedisCache, err := do.InvokeNamed[redis.UniversalClient](container, "redis-cache")
	if err != nil {
		return nil, err
	}

	rs, err := do.Invoke[*redsync.Redsync](container)
	if err != nil {
		return nil, err
	}

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

	logger, err := do.Invoke[*zap.Logger](container)
	if err != nil {
		return nil, err
	}

	serviceConfig, err := do.Invoke[*ServiceConfig](container)
	if err != nil {
		return nil, err
	}

	return &ServiceRanking{container, db, dbRedisCache, rs, postgresDB, readonlyPostgresDB, cache, readonlyCache, logger, serviceConfig}, nil
}

func (service *ServiceRanking) xpPerUnit(ctx context.Context) int64 {
	perUnit, _ := service.serviceConfig.GetIntConfig(ctx, CONFIG_DONATION_XP_PER_UNIT, DONATION_XP_PER_UNIT_DEFAULT)
	return int64(perUnit)
}

func (service *ServiceRanking) compute(ctx context.Context, db bun.IDB, donorID int64) (*models.DonorRank, error) {
	if _, err := datastore.GetDonorByID(ctx, db, donorID); err != nil {
		return nil, err
	}

	total, err := datastore.SumPledgesOfDonor(ctx, db, donorID)
	if err != nil {
		return nil, err
	}

	counts, err := datastore.CountActivitiesByDonor(ctx, db, donorID)
	if err != nil {
		return nil, err
	}

	return ranking.Compute(donorID, total.Total, service.xpPerUnit(ctx), counts), nil
}

// DonorRank returns the donor's XP card with their current leaderboard
// position, when they are on the board.
func (service *ServiceRanking) DonorRank(ctx context.Context, donorID int64) (*models.DonorRank, error) {
	callback := func() (*models.DonorRank, error) {
		return service.compute(ctx, service.readonlyPostgresDB, donorID)
	}

	rank, err := caching.UseCacheWithRO(ctx, service.readonlyCache, service.cache, DBKeyDonorRank(donorID), CACHE_TTL_1_MIN, callback)
	if err != nil {
		return nil, err
	}

	position, _, err := redis_store.GetRank(ctx, service.redisDB, redis_store.LEADERBOARD_XP, donorID)
	switch {
	case err == nil:
		rank.LeaderboardRank = position
	case !errors.Is(err, redis.Nil):
		service.logger.Warn("leaderboard position unavailable", zap.Int64("donor_id", donorID), zap.Error(err))
	}

	return rank, nil
}

// RefreshDonor recomputes one donor's XP and writes it to the board.
func (service *ServiceRanking) RefreshDonor(ctx context.Context, donorID int64) (*models.DonorRank, error) {
	rank, err := service.compute(ctx, service.postgresDB, donorID)
	if err != nil {
		return nil, err
	}

	_, err = redis_store.SetLeaderboard(ctx, service.redisDB, redis_store.LEADERBOARD_XP, &models.LeaderboardItem{
		DonorID: donorID,
		Score:   float64(rank.XP),
	})
	if err != nil {
		return nil, err
	}

	//nolint:errcheck
	service.cache.Delete(ctx, DBKeyDonorRank(donorID))
	return rank, nil
}

func (service *ServiceRanking) leaderboardLimit(ctx context.Context) int {
	limit, _ := service.serviceConfig.GetIntConfig(ctx, CONFIG_LEADERBOARD_LIMIT, LEADERBOARD_DEFAULT_LIMIT)
	if limit <= 0 {
		return LEADERBOARD_DEFAULT_LIMIT
	}
	if limit > LEADERBOARD_MAX_LIMIT {
		return LEADERBOARD_MAX_LIMIT
	}
	return limit
}

func (service *ServiceRanking) Leaderboard(ctx context.Context, donorID *int64) (*models.LeaderboardResponse, error) {
	limit := service.leaderboardLimit(ctx)

	callback := func() ([]*models.LeaderboardItem, error) {
		items, err := redis_store.GetLeaderboard(ctx, service.redisDB, redis_store.LEADERBOARD_XP, limit)
		if err != nil {
			return nil, err
		}
		if err := service.decorate(ctx, items); err != nil {
			return nil, err
		}
		return items, nil
	}

	items, err := caching.UseCacheWithRO(ctx, service.readonlyCache, service.cache, DBKeyLeaderboard(limit), CACHE_TTL_15_SECONDS, callback)
	if err != nil {
		return nil, err
	}

	response := &models.LeaderboardResponse{Leaderboard: items}
	if donorID == nil {
		return response, nil
	}

	position, score, err := redis_store.GetRank(ctx, service.redisDB, redis_store.LEADERBOARD_XP, *donorID)
	if errors.Is(err, redis.Nil) {
		return response, nil
	}
	if err != nil {
		return nil, err
	}

	me := &models.LeaderboardItem{DonorID: *donorID, Score: score, Rank: position}
	if err := service.decorate(ctx, []*models.LeaderboardItem{me}); err != nil {
		return nil, err
	}
	response.Me = me
	return response, nil
}

// decorate fills display names and rank titles.
func (service *ServiceRanking) decorate(ctx context.Context, items []*models.LeaderboardItem) error {
	if len(items) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.DonorID)
	}

	donors, err := datastore.ListDonorsByIDs(ctx, service.readonlyPostgresDB, ids)
	if err != nil {
		return err
	}
	names := make(map[int64]string, len(donors))
	for _, d := range donors {
		names[d.ID] = d.DisplayName
	}

	for _, item := range items {
		item.DisplayName = names[item.DonorID]
		current, _, _ := ranking.RankFor(int64(item.Score))
		item.Title = current.Name
	}
	return nil
}

// Rebuild recomputes every donor's XP and swaps the board in one step.
func (service *ServiceRanking) Rebuild(ctx context.Context) (int, error) {
	mutex := service.rs.NewMutex(LockKeyRankRebuild(), redsync.WithExpiry(LOCK_TTL_RANK_REBUILD))
	if err := mutex.TryLockContext(ctx); err != nil {
		return 0, ErrRankRebuildLocked
	}

	// nolint:errcheck
	defer mutex.UnlockContext(ctx)

	donorIDs, err := datastore.ListAllDonorIDs(ctx, service.postgresDB)
	if err != nil {
		return 0, err
	}

	totals, err := datastore.SumPledgesByDonor(ctx, service.postgresDB)
	if err != nil {
		return 0, err
	}

	counts, err := datastore.CountActivities(ctx, service.postgresDB)
	if err != nil {
		return 0, err
	}

	items := BuildLeaderboard(donorIDs, totals, counts, service.xpPerUnit(ctx))
	if err := redis_store.ReplaceLeaderboard(ctx, service.redisDB, redis_store.LEADERBOARD_XP, items); err != nil {
		return 0, err
	}

	if err := caching.DeleteKeys(ctx, service.redisDBCache, DBKeyLeaderboardPattern(), service.logger); err != nil {
		service.logger.Warn("failed to drop cached leaderboards", zap.Error(err))
	}

	service.logger.Info("leaderboard rebuilt", zap.Int("donors", len(items)))
	return len(items), nil
}

// BuildLeaderboard scores every donor with any XP. Donors with nothing
// pledged and no activity stay off the board.
func BuildLeaderboard(donorIDs []int64, totals []*models.DonorTotal, counts map[int64][]*models.ActivityCount, perUnit int64) []*models.LeaderboardItem {
	totalByDonor := make(map[int64]decimal.Decimal, len(totals))
	for _, t := range totals {
		totalByDonor[t.DonorID] = t.Total
	}

	items := make([]*models.LeaderboardItem, 0, len(donorIDs))
	for _, id := range donorIDs {
		rank := ranking.Compute(id, totalByDonor[id], perUnit, counts[id])
		if rank.XP <= 0 {
			continue
		}
		items = append(items, &models.LeaderboardItem{DonorID: id, Score: float64(rank.XP), Title: rank.Rank})
	}
	return items
}
