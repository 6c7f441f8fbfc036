package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"donorhub/internal/datastore"
	"donorhub/internal/models"
	"donorhub/internal/pkg/caching"
	"donorhub/internal/ranking"

	"github.com/samber/do"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

const DONOR_LIST_DEFAULT_LIMIT = 100

type ServiceDonor struct {
	container          *do.Injector
	postgresDB         *bun.DB
	readonlyPostgresDB *bun.DB
	cache              caching.Cache
	logger             *zap.Logger
}

func NewServiceDonor(container *do.Injector) (*ServiceDonor, error) {
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

	return &ServiceDonor{container, postgresDB, readonlyPostgresDB, cache, logger}, nil
}

func normalizeDonor(payload *models.DonorPayload) (*models.DonorPayload, error) {
	email := strings.ToLower(strings.TrimSpace(payload.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, validationError("a valid email is required")
	}
	return &models.DonorPayload{Email: email, DisplayName: strings.TrimSpace(payload.DisplayName)}, nil
}

func (service *ServiceDonor) List(ctx context.Context, search string, limit, offset int) ([]*models.Donor, error) {
	if limit <= 0 {
		limit = DONOR_LIST_DEFAULT_LIMIT
	}
	return datastore.ListDonors(ctx, service.readonlyPostgresDB, strings.TrimSpace(search), limit, offset)
}

func (service *ServiceDonor) Get(ctx context.Context, id int64) (*models.Donor, error) {
	return datastore.GetDonorByID(ctx, service.readonlyPostgresDB, id)
}

func (service *ServiceDonor) Create(ctx context.Context, payload *models.DonorPayload) (*models.Donor, error) {
	payload, err := normalizeDonor(payload)
	if err != nil {
		return nil, err
	}

	_, err = datastore.GetDonorByEmail(ctx, service.postgresDB, payload.Email)
	if err == nil {
		return nil, ErrDonorExists
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	return datastore.InsertDonor(ctx, service.postgresDB, &models.Donor{
		Email:       payload.Email,
		DisplayName: payload.DisplayName,
	})
}

// FindOrCreate looks a donor up by email and registers them when unknown.
func (service *ServiceDonor) FindOrCreate(ctx context.Context, db bun.IDB, payload *models.DonorPayload) (*models.Donor, bool, error) {
	payload, err := normalizeDonor(payload)
	if err != nil {
		return nil, false, err
	}

	donor, err := datastore.GetDonorByEmail(ctx, db, payload.Email)
	if err == nil {
		return donor, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, err
	}

	donor, err = datastore.InsertDonor(ctx, db, &models.Donor{Email: payload.Email, DisplayName: payload.DisplayName})
	if err != nil {
		return nil, false, err
	}
	return donor, true, nil
}

func (service *ServiceDonor) Update(ctx context.Context, id int64, payload *models.DonorPayload) (*models.Donor, error) {
	payload, err := normalizeDonor(payload)
	if err != nil {
		return nil, err
	}

	donor, err := datastore.GetDonorByID(ctx, service.postgresDB, id)
	if err != nil {
		return nil, err
	}

	if payload.Email != donor.Email {
		other, err := datastore.GetDonorByEmail(ctx, service.postgresDB, payload.Email)
		if err == nil && other.ID != id {
			return nil, ErrDonorExists
		}
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
	}

	donor.Email = payload.Email
	donor.DisplayName = payload.DisplayName
	return datastore.UpdateDonor(ctx, service.postgresDB, donor)
}

// AddActivity credits a participation event to a donor. The leaderboard entry
// is refreshed on a best effort basis; the periodic rebuild catches misses.
func (service *ServiceDonor) AddActivity(ctx context.Context, donorID int64, payload *models.ActivityPayload) (*models.Activity, error) {
	kind := strings.ToLower(strings.TrimSpace(payload.Kind))
	if !ranking.IsActivityKind(kind) {
		return nil, ErrUnknownActivity
	}

	if _, err := datastore.GetDonorByID(ctx, service.postgresDB, donorID); err != nil {
		return nil, err
	}

	activity, err := datastore.InsertActivity(ctx, service.postgresDB, &models.Activity{DonorID: donorID, Kind: kind})
	if err != nil {
		return nil, err
	}

	//nolint:errcheck
	service.cache.Delete(ctx, DBKeyDonorRank(donorID))

	serviceRanking, err := do.Invoke[*ServiceRanking](service.container)
	if err == nil {
		_, err = serviceRanking.RefreshDonor(ctx, donorID)
	}
	if err != nil {
		service.logger.Warn("leaderboard refresh skipped", zap.Int64("donor_id", donorID), zap.Error(err))
	}

	return activity, nil
}

func (service *ServiceDonor) Rank(ctx context.Context, donorID int64) (*models.DonorRank, error) {
	serviceRanking, err := do.Invoke[*ServiceRanking](service.container)
	if err != nil {
		return nil, err
	}

	return serviceRanking.DonorRank(ctx, donorID)
}
