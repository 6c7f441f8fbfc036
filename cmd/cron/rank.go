package main

import (
	"context"
	"errors"
	"time"

	"donorhub/internal/services"

	"github.com/robfig/cron/v3"
	"github.com/samber/do"
	"go.uber.org/zap"
)

const RANK_REBUILD_TIMEOUT = 5 * time.Minute

// RankJob rebuilds the XP leaderboard from Postgres on the CRONJOB_TIME_RANK
// schedule.
type RankJob struct {
	serviceConfig  *services.ServiceConfig
	serviceRanking *services.ServiceRanking
	logger         *zap.Logger
}

func NewRankJob(injector *do.Injector) (*RankJob, error) {
	serviceConfig, err := do.Invoke[*services.ServiceConfig](injector)
	if err != nil {
		return nil, err
	}

	serviceRanking, err := do.Invoke[*services.ServiceRanking](injector)
	if err != nil {
		return nil, err
	}

	logger, err := do.Invoke[*zap.Logger](injector)
	if err != nil {
		return nil, err
	}

	return &RankJob{serviceConfig, serviceRanking, logger}, nil
}

func (j *RankJob) Start(cronRunner *cron.Cron) error {
	timeline, err := j.serviceConfig.GetStringConfig(context.Background(), services.CONFIG_CRONJOB_TIME_RANK, services.CRONJOB_TIME_RANK_DEFAULT)
	if err != nil {
		j.logger.Warn("rank schedule not readable, using default", zap.Error(err))
	}
	if timeline == "" {
		timeline = services.CRONJOB_TIME_RANK_DEFAULT
	}

	if _, err := cronRunner.AddFunc(timeline, j.Run); err != nil {
		return err
	}

	j.logger.Info("rank cronjob scheduled", zap.String("cron", timeline))
	return nil
}

func (j *RankJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), RANK_REBUILD_TIMEOUT)
	defer cancel()

	started := time.Now()
	count, err := j.serviceRanking.Rebuild(ctx)
	if errors.Is(err, services.ErrRankRebuildLocked) {
		j.logger.Info("rank rebuild skipped, another run holds the lock")
		return
	}
	if err != nil {
		j.logger.Error("rank rebuild failed", zap.Error(err))
		return
	}

	j.logger.Info("rank rebuild done", zap.Int("donors", count), zap.Duration("took", time.Since(started)))
}
