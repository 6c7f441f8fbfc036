package datastore

import (
	"context"
	"time"

	"donorhub/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableDonor(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.Donor)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func InsertDonor(ctx context.Context, db bun.IDB, donor *models.Donor) (*models.Donor, error) {
	_, err := db.NewInsert().Model(donor).Exec(ctx)
	if err != nil {
		return nil, err
	}

	return donor, nil
}

func GetDonorByID(ctx context.Context, db bun.IDB, id int64) (*models.Donor, error) {
	var donor models.Donor
	err := db.NewSelect().Model(&donor).Where("id = ?", id).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &donor, nil
}

func GetDonorByEmail(ctx context.Context, db bun.IDB, email string) (*models.Donor, error) {
	var donor models.Donor
	err := db.NewSelect().Model(&donor).Where("lower(email) = lower(?)", email).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &donor, nil
}

func ListDonors(ctx context.Context, db bun.IDB, search string, limit, offset int) ([]*models.Donor, error) {
	donors := []*models.Donor{}
	q := db.NewSelect().Model(&donors).Order("id ASC")
	if search != "" {
		like := "%" + search + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("lower(email) LIKE lower(?)", like).WhereOr("lower(display_name) LIKE lower(?)", like)
		})
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}

	err := q.Scan(ctx)
	if err != nil {
		return nil, err
	}
	return donors, nil
}

func ListDonorsByIDs(ctx context.Context, db bun.IDB, ids []int64) ([]*models.Donor, error) {
	donors := []*models.Donor{}
	if len(ids) == 0 {
		return donors, nil
	}

	err := db.NewSelect().Model(&donors).Where("id IN (?)", bun.In(ids)).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return donors, nil
}

func ListAllDonorIDs(ctx context.Context, db bun.IDB) ([]int64, error) {
	var ids []int64
	err := db.NewSelect().Model((*models.Donor)(nil)).Column("id").Order("id ASC").Scan(ctx, &ids)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func UpdateDonor(ctx context.Context, db bun.IDB, donor *models.Donor) (*models.Donor, error) {
	donor.UpdatedAt = time.Now().UTC()
	res, err := db.NewUpdate().Model(donor).Column("email", "display_name", "updated_at").WherePK().Exec(ctx)
	if err != nil {
		return nil, err
	}

	if err := mustAffect(res); err != nil {
		return nil, err
	}
	return donor, nil
}
