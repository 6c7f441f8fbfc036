package datastore

import (
	"context"

	"donorhub/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableAssignmentRun(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.AssignmentRun)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.AssignmentRun)(nil)).Index("index_assignment_run_started_at").IfNotExists().Column("started_at").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func CreateTableAssignmentResult(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.AssignmentResult)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.AssignmentResult)(nil)).Index("index_assignment_result_run_id").IfNotExists().Column("run_id").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

// InsertAssignmentRun stores a run and its per-item results in one
// transaction.
func InsertAssignmentRun(ctx context.Context, db *bun.DB, run *models.AssignmentRun) error {
	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(run).Exec(ctx)
		if err != nil {
			return err
		}

		if len(run.Results) == 0 {
			return nil
		}
		for _, r := range run.Results {
			r.RunID = run.ID
		}
		_, err = tx.NewInsert().Model(&run.Results).Exec(ctx)
		return err
	})
}

func GetAssignmentRun(ctx context.Context, db bun.IDB, id string) (*models.AssignmentRun, error) {
	var run models.AssignmentRun
	err := db.NewSelect().Model(&run).Where("id = ?", id).Scan(ctx)
	if err != nil {
		return nil, err
	}

	results := []*models.AssignmentResult{}
	err = db.NewSelect().Model(&results).Where("run_id = ?", id).Order("id ASC").Scan(ctx)
	if err != nil {
		return nil, err
	}
	run.Results = results

	return &run, nil
}

func ListAssignmentRuns(ctx context.Context, db bun.IDB, limit int) ([]*models.AssignmentRun, error) {
	runs := []*models.AssignmentRun{}
	q := db.NewSelect().Model(&runs).Order("started_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	err := q.Scan(ctx)
	if err != nil {
		return nil, err
	}
	return runs, nil
}
