package datastore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
)

// ErrNotAffected is returned by writes whose WHERE clause matched no row.
var ErrNotAffected = errors.New("no rows affected")

func mustAffect(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotAffected
	}
	return nil
}

// CreateTables creates every table and index the service needs, in dependency
// order.
func CreateTables(ctx context.Context, db *bun.DB) error {
	steps := []func(context.Context, *bun.DB) error{
		CreateTableConfig,
		CreateTableCampaign,
		CreateTableReward,
		CreateTableDonor,
		CreateTablePledge,
		CreateTableActivity,
		CreateTableAssignmentRun,
		CreateTableAssignmentResult,
	}
	for _, step := range steps {
		if err := step(ctx, db); err != nil {
			return err
		}
	}
	return nil
}
