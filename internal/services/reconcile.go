package services

import (
	"context"
	"errors"
	"time"

	"donorhub/internal/datastore"
	"donorhub/internal/datastore/redis_store"
	"donorhub/internal/interfaces"
	"donorhub/internal/models"
	"donorhub/internal/pkg/caching"
	"donorhub/internal/reconcile"

	"github.com/go-redsync/redsync/v4"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// pledgeSource feeds the loader from Postgres.
type pledgeSource struct {
	db bun.IDB
}

func (s pledgeSource) ListUnassignedPledges(ctx context.Context, limit int) ([]*models.Pledge, error) {
	return datastore.ListUnassignedPledges(ctx, s.db, limit)
}

func (s pledgeSource) ListRewardsByMinimum(ctx context.Context) ([]*models.Reward, error) {
	return datastore.ListRewardsByMinimum(ctx, s.db)
}

func (s pledgeSource) ListDonorsByIDs(ctx context.Context, ids []int64) ([]*models.Donor, error) {
	return datastore.ListDonorsByIDs(ctx, s.db, ids)
}

func (s pledgeSource) ListCampaignsByIDs(ctx context.Context, ids []int64) ([]*models.Campaign, error) {
	return datastore.ListCampaignsByIDs(ctx, s.db, ids)
}

// pledgeAssigner writes a reward only to pledges that still have none.
type pledgeAssigner struct {
	db bun.IDB
}

func (a pledgeAssigner) AssignPledgeReward(ctx context.Context, pledgeID, rewardID int64) error {
	err := datastore.AssignPledgeReward(ctx, a.db, pledgeID, rewardID)
	if errors.Is(err, datastore.ErrNotAffected) {
		return ErrNotAwaitingReward
	}
	return err
}

type cachedMatches struct {
	Limit int                    `msgpack:"limit"`
	Views []*reconcile.MatchView `msgpack:"views"`
}

type ServiceReconcile struct {
	container          *do.Injector
	redisDB            redis.UniversalClient
	rs                 *redsync.Redsync
	postgresDB         *bun.DB
	readonlyPostgresDB *bun.DB
	cache              caching.Cache
	readonlyCache      caching.ReadOnlyCache
	logger             *zap.Logger
	notifier           interfaces.Notifier

	serviceConfig *ServiceConfig
}

func NewServiceReconcile(container *do.Injector) (*ServiceReconcile, error) {
	db, err := do.InvokeNamed[redis.UniversalClient](container, "redis-db")
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

	// optional
	notifier, _ := do.Invoke[interfaces.Notifier](container)

	return &ServiceReconcile{container, db, rs, postgresDB, readonlyPostgresDB, cache, readonlyCache, logger, notifier, serviceConfig}, nil
}

func (service *ServiceReconcile) pledgeLimit(ctx context.Context) int {
	limit, _ := service.serviceConfig.GetIntConfig(ctx, CONFIG_RECONCILE_PLEDGE_LIMIT, reconcile.DefaultPledgeLimit)
	if limit <= 0 || limit > datastore.PLEDGE_LIST_MAX {
		return reconcile.DefaultPledgeLimit
	}
	return limit
}

// views returns every unassigned pledge with its suggestion. Reads go through
// the cache; bulk writes and pledge/reward edits drop it.
func (service *ServiceReconcile) views(ctx context.Context) ([]*reconcile.MatchView, error) {
	limit := service.pledgeLimit(ctx)
	loader := reconcile.NewLoader(pledgeSource{service.readonlyPostgresDB})

	callback := func() (*cachedMatches, error) {
		views, err := loader.Load(ctx, limit)
		if err != nil {
			return nil, err
		}
		return &cachedMatches{Limit: limit, Views: views}, nil
	}

	cached, err := caching.UseCacheWithRO(ctx, service.readonlyCache, service.cache, DBKeyReconcileMatches(), CACHE_TTL_1_MIN, callback)
	if err != nil {
		return nil, err
	}
	if cached.Limit == limit {
		return cached.Views, nil
	}

	//nolint:errcheck
	service.cache.Delete(ctx, DBKeyReconcileMatches())
	cached, err = callback()
	if err != nil {
		return nil, err
	}
	return cached.Views, nil
}

// freshMatches bypasses the cache. Used right before writing.
func (service *ServiceReconcile) freshMatches(ctx context.Context) ([]reconcile.Match, error) {
	views, err := reconcile.NewLoader(pledgeSource{service.postgresDB}).Load(ctx, service.pledgeLimit(ctx))
	if err != nil {
		return nil, err
	}
	return reconcile.Matches(views), nil
}

func (service *ServiceReconcile) Matches(ctx context.Context, filter models.MatchFilter) ([]*reconcile.MatchView, error) {
	if filter.Confidence != "" {
		if _, ok := reconcile.ParseConfidence(filter.Confidence); !ok {
			return nil, ErrInvalidConfidence
		}
	}

	views, err := service.views(ctx)
	if err != nil {
		return nil, err
	}

	filtered := reconcile.FilterViews(views, filter)
	if filtered == nil {
		filtered = []*reconcile.MatchView{}
	}
	return filtered, nil
}

func selectionResponse(selection *reconcile.Selection) *models.SelectionResponse {
	return &models.SelectionResponse{PledgeIDs: selection.IDs(), Count: selection.Len()}
}

func (service *ServiceReconcile) Selection(ctx context.Context, actor string) (*models.SelectionResponse, error) {
	selection, err := redis_store.GetSelection(ctx, service.redisDB, actor)
	if err != nil {
		return nil, err
	}
	return selectionResponse(selection), nil
}

func (service *ServiceReconcile) ToggleSelection(ctx context.Context, actor string, pledgeID int64) (*models.SelectionResponse, error) {
	selection, err := redis_store.GetSelection(ctx, service.redisDB, actor)
	if err != nil {
		return nil, err
	}

	selected := selection.Toggle(pledgeID)
	if err := redis_store.SetSelection(ctx, service.redisDB, actor, selection); err != nil {
		return nil, err
	}

	response := selectionResponse(selection)
	response.Selected = &selected
	return response, nil
}

// SelectConfidence ticks every listed match of the given level. The admin's
// list filter is not applied.
func (service *ServiceReconcile) SelectConfidence(ctx context.Context, actor string, level string) (*models.SelectionResponse, error) {
	confidence, ok := reconcile.ParseConfidence(level)
	if !ok {
		return nil, ErrInvalidConfidence
	}

	views, err := service.views(ctx)
	if err != nil {
		return nil, err
	}

	selection, err := redis_store.GetSelection(ctx, service.redisDB, actor)
	if err != nil {
		return nil, err
	}

	added := selection.SelectByConfidence(reconcile.Matches(views), confidence)
	if err := redis_store.SetSelection(ctx, service.redisDB, actor, selection); err != nil {
		return nil, err
	}

	response := selectionResponse(selection)
	response.Added = &added
	return response, nil
}

func (service *ServiceReconcile) ClearSelection(ctx context.Context, actor string) (*models.SelectionResponse, error) {
	if err := redis_store.DeleteSelection(ctx, service.redisDB, actor); err != nil {
		return nil, err
	}
	return selectionResponse(reconcile.NewSelection()), nil
}

// resolveSelection picks the pledges to write: explicit ids first, then a
// confidence level, then the admin's saved selection.
func (service *ServiceReconcile) resolveSelection(ctx context.Context, actor string, payload *models.AssignPayload, matches []reconcile.Match) (*reconcile.Selection, error) {
	if payload != nil && len(payload.PledgeIDs) > 0 {
		return reconcile.NewSelection(payload.PledgeIDs...), nil
	}

	if payload != nil && payload.Confidence != "" {
		confidence, ok := reconcile.ParseConfidence(payload.Confidence)
		if !ok {
			return nil, ErrInvalidConfidence
		}
		selection := reconcile.NewSelection()
		selection.SelectByConfidence(matches, confidence)
		return selection, nil
	}

	return redis_store.GetSelection(ctx, service.redisDB, actor)
}

func (service *ServiceReconcile) lock(ctx context.Context) (*redsync.Mutex, error) {
	mutex := service.rs.NewMutex(LockKeyBulkAssign(), redsync.WithExpiry(LOCK_TTL_BULK_ASSIGN))
	if err := mutex.TryLockContext(ctx); err != nil {
		return nil, ErrAssignLocked
	}
	return mutex, nil
}

// Assign writes the suggested reward of every selected pledge. Items are
// applied one by one; a failure is recorded and the batch goes on. When the
// run cannot be recorded the unsaved run is returned with the error.
func (service *ServiceReconcile) Assign(ctx context.Context, actor string, payload *models.AssignPayload) (*models.AssignmentRun, error) {
	mutex, err := service.lock(ctx)
	if err != nil {
		return nil, err
	}

	// nolint:errcheck
	defer mutex.UnlockContext(ctx)

	startedAt := time.Now().UTC()

	matches, err := service.freshMatches(ctx)
	if err != nil {
		return nil, err
	}

	selection, err := service.resolveSelection(ctx, actor, payload, matches)
	if err != nil {
		return nil, err
	}
	if selection.Len() == 0 {
		return nil, ErrNothingToAssign
	}

	picked := selection.Pick(matches)
	listed := make(map[int64]bool, len(picked))
	for _, m := range picked {
		listed[m.Pledge.ID] = true
	}

	report := reconcile.NewExecutor(pledgeAssigner{service.postgresDB}, service.logger).Assign(ctx, picked)
	for _, id := range selection.IDs() {
		if !listed[id] {
			report.Skip(id, ErrNotAwaitingReward)
		}
	}

	run, err := service.finish(ctx, actor, report, nil, startedAt)
	if err != nil {
		return run, err
	}

	service.dropFromSelection(ctx, actor, report.SucceededIDs())
	return run, nil
}

// Retry re-applies the failed items of an earlier run as a new run.
func (service *ServiceReconcile) Retry(ctx context.Context, actor string, runID string) (*models.AssignmentRun, error) {
	previous, err := datastore.GetAssignmentRun(ctx, service.postgresDB, runID)
	if err != nil {
		return nil, err
	}

	var pairs []reconcile.Pair
	for _, r := range previous.Results {
		if r.Status == models.ASSIGNMENT_FAILED && r.RewardID != nil {
			pairs = append(pairs, reconcile.Pair{PledgeID: r.PledgeID, RewardID: *r.RewardID})
		}
	}
	if len(pairs) == 0 {
		return nil, ErrNothingToRetry
	}

	mutex, err := service.lock(ctx)
	if err != nil {
		return nil, err
	}

	// nolint:errcheck
	defer mutex.UnlockContext(ctx)

	startedAt := time.Now().UTC()
	report := reconcile.NewExecutor(pledgeAssigner{service.postgresDB}, service.logger).AssignPairs(ctx, pairs)

	run, err := service.finish(ctx, actor, report, &previous.ID, startedAt)
	if err != nil {
		return run, err
	}

	service.dropFromSelection(ctx, actor, report.SucceededIDs())
	return run, nil
}

func (service *ServiceReconcile) finish(ctx context.Context, actor string, report *reconcile.Report, retryOf *string, startedAt time.Time) (*models.AssignmentRun, error) {
	run := buildRun(actor, report, retryOf, startedAt, time.Now().UTC())

	// the writes are already applied, so the cache goes first
	//nolint:errcheck
	service.cache.Delete(ctx, DBKeyReconcileMatches())

	if err := datastore.InsertAssignmentRun(ctx, service.postgresDB, run); err != nil {
		service.logger.Error("assignment run not recorded",
			zap.String("run_id", run.ID),
			zap.String("actor", actor),
			zap.Int("succeeded", run.Succeeded),
			zap.Int64s("assigned", report.SucceededIDs()),
			zap.Error(err))
		// the pledge writes stand, so the caller still gets the report
		service.dropFromSelection(ctx, actor, report.SucceededIDs())
		return run, err
	}

	service.logger.Info("assignment run recorded",
		zap.String("run_id", run.ID),
		zap.String("actor", actor),
		zap.String("status", run.Status))

	if service.notifier != nil {
		if err := service.notifier.NotifyRun(ctx, run); err != nil {
			service.logger.Warn("run notification failed", zap.String("run_id", run.ID), zap.Error(err))
		}
	}

	return run, nil
}

func (service *ServiceReconcile) dropFromSelection(ctx context.Context, actor string, ids []int64) {
	if len(ids) == 0 {
		return
	}

	selection, err := redis_store.GetSelection(ctx, service.redisDB, actor)
	if err != nil {
		service.logger.Warn("selection not updated", zap.String("actor", actor), zap.Error(err))
		return
	}

	for _, id := range ids {
		if selection.Contains(id) {
			selection.Toggle(id)
		}
	}

	if err := redis_store.SetSelection(ctx, service.redisDB, actor, selection); err != nil {
		service.logger.Warn("selection not updated", zap.String("actor", actor), zap.Error(err))
	}
}

func (service *ServiceReconcile) Runs(ctx context.Context) ([]*models.AssignmentRun, error) {
	return datastore.ListAssignmentRuns(ctx, service.readonlyPostgresDB, ASSIGNMENT_RUNS_LIST_LIMIT)
}

func (service *ServiceReconcile) Run(ctx context.Context, id string) (*models.AssignmentRun, error) {
	return datastore.GetAssignmentRun(ctx, service.readonlyPostgresDB, id)
}

func buildRun(actor string, report *reconcile.Report, retryOf *string, startedAt, completedAt time.Time) *models.AssignmentRun {
	run := &models.AssignmentRun{
		ID:          uuid.NewString(),
		Actor:       actor,
		Attempted:   report.Attempted,
		Succeeded:   report.Succeeded,
		Failed:      report.Failed,
		Skipped:     report.Skipped,
		Status:      models.RUN_STATUS_COMPLETED,
		RetryOf:     retryOf,
		StartedAt:   startedAt,
		CompletedAt: &completedAt,
	}
	if report.HasFailures() {
		run.Status = models.RUN_STATUS_COMPLETED_WITH_ERRORS
	}

	run.Results = make([]*models.AssignmentResult, 0, len(report.Results))
	for _, res := range report.Results {
		run.Results = append(run.Results, &models.AssignmentResult{
			RunID:    run.ID,
			PledgeID: res.PledgeID,
			RewardID: res.RewardID,
			Status:   res.Status,
			Error:    res.Error,
		})
	}
	return run
}
