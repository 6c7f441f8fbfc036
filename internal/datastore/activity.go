package datastore

import (
	"context"

	"donorhub/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableActivity(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.Activity)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Activity)(nil)).Index("index_activity_donor_id_kind").IfNotExists().Column("donor_id", "kind").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func InsertActivity(ctx context.Context, db bun.IDB, activity *models.Activity) (*models.Activity, error) {
	_, err := db.NewInsert().Model(activity).Exec(ctx)
	if err != nil {
		return nil, err
	}

	return activity, nil
}

// CountActivitiesByDonor tallies a donor's participation per kind.
func CountActivitiesByDonor(ctx context.Context, db bun.IDB, donorID int64) ([]*models.ActivityCount, error) {
	counts := []*models.ActivityCount{}
	err := db.NewSelect().Model((*models.Activity)(nil)).
		Column("kind").
		ColumnExpr("COUNT(*) AS count").
		Where("donor_id = ?", donorID).
		Group("kind").
		Order("kind ASC").
		Scan(ctx, &counts)
	if err != nil {
		return nil, err
	}
	return counts, nil
}

type DonorActivityCount struct {
	DonorID int64  `bun:"donor_id"`
	Kind    string `bun:"kind"`
	Count   int64  `bun:"count"`
}

// CountActivities tallies every donor's participation per kind, used by the
// leaderboard rebuild.
func CountActivities(ctx context.Context, db bun.IDB) (map[int64][]*models.ActivityCount, error) {
	var rows []*DonorActivityCount
	err := db.NewSelect().Model((*models.Activity)(nil)).
		Column("donor_id", "kind").
		ColumnExpr("COUNT(*) AS count").
		Group("donor_id", "kind").
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}

	out := make(map[int64][]*models.ActivityCount)
	for _, r := range rows {
		out[r.DonorID] = append(out[r.DonorID], &models.ActivityCount{Kind: r.Kind, Count: r.Count})
	}
	return out, nil
}
