package datastore

import (
	"context"
	"time"

	"donorhub/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableConfig(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.Config)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}
	return nil
}

func GetConfigByKey(ctx context.Context, db bun.IDB, key string) (*models.Config, error) {
	var config models.Config
	err := db.NewSelect().Model(&config).Where("key = ?", key).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &config, nil
}

func ListConfigs(ctx context.Context, db bun.IDB) ([]*models.Config, error) {
	configs := []*models.Config{}
	err := db.NewSelect().Model(&configs).Order("key ASC").Scan(ctx)
	if err != nil {
		return nil, err
	}
	return configs, nil
}

// InsertConfigDefault adds a key only when it is not set yet, so seeding never
// clobbers an operator's value.
func InsertConfigDefault(ctx context.Context, db bun.IDB, key, value string) (bool, error) {
	config := &models.Config{Key: key, Value: value}
	res, err := db.NewInsert().Model(config).On("CONFLICT (key) DO NOTHING").Exec(ctx)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func UpsertConfig(ctx context.Context, db bun.IDB, key, value string) (*models.Config, error) {
	config := &models.Config{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	_, err := db.NewInsert().Model(config).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	return config, nil
}
