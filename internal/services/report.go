package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"donorhub/internal/interfaces"
	"donorhub/internal/models"
	"donorhub/internal/reconcile"

	"github.com/samber/do"
	"go.uber.org/zap"
)

const REPORT_CONTENT_TYPE = "text/csv"

var ErrNoObjectStore = errors.New("report storage is not configured")

var matchesHeader = []string{
	"pledge_id", "donor_email", "donor_name", "campaign", "amount", "perk_name",
	"suggested_reward_id", "suggested_reward", "confidence", "reason",
}

var runHeader = []string{"run_id", "pledge_id", "reward_id", "status", "error"}

func WriteMatchesCSV(w io.Writer, views []*reconcile.MatchView) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(matchesHeader); err != nil {
		return err
	}

	for _, v := range views {
		record := make([]string, 0, len(matchesHeader))
		record = append(record, strconv.FormatInt(v.Pledge.ID, 10))

		if v.Donor != nil {
			record = append(record, v.Donor.Email, v.Donor.DisplayName)
		} else {
			record = append(record, "", "")
		}

		if v.Campaign != nil {
			record = append(record, v.Campaign.Name)
		} else {
			record = append(record, "")
		}

		record = append(record, v.Pledge.Amount.StringFixed(2), v.Pledge.PerkName())

		if v.SuggestedReward != nil {
			record = append(record, strconv.FormatInt(v.SuggestedReward.ID, 10), v.SuggestedReward.Name)
		} else {
			record = append(record, "", "")
		}

		record = append(record, string(v.Confidence), v.Reason)
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func WriteRunCSV(w io.Writer, run *models.AssignmentRun) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(runHeader); err != nil {
		return err
	}

	for _, r := range run.Results {
		rewardID := ""
		if r.RewardID != nil {
			rewardID = strconv.FormatInt(*r.RewardID, 10)
		}
		if err := cw.Write([]string{run.ID, strconv.FormatInt(r.PledgeID, 10), rewardID, r.Status, r.Error}); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

type ServiceReport struct {
	container *do.Injector
	logger    *zap.Logger
	store     interfaces.ObjectStore

	serviceReconcile *ServiceReconcile
}

func NewServiceReport(container *do.Injector) (*ServiceReport, error) {
	logger, err := do.Invoke[*zap.Logger](container)
	if err != nil {
		return nil, err
	}

	serviceReconcile, err := do.Invoke[*ServiceReconcile](container)
	if err != nil {
		return nil, err
	}

	// optional
	store, _ := do.Invoke[interfaces.ObjectStore](container)

	return &ServiceReport{container, logger, store, serviceReconcile}, nil
}

func (service *ServiceReport) Matches(ctx context.Context, w io.Writer, filter models.MatchFilter) error {
	views, err := service.serviceReconcile.Matches(ctx, filter)
	if err != nil {
		return err
	}
	return WriteMatchesCSV(w, views)
}

func (service *ServiceReport) Run(ctx context.Context, w io.Writer, runID string) error {
	run, err := service.serviceReconcile.Run(ctx, runID)
	if err != nil {
		return err
	}
	return WriteRunCSV(w, run)
}

func (service *ServiceReport) UploadMatches(ctx context.Context, filter models.MatchFilter) (string, error) {
	var buf bytes.Buffer
	if err := service.Matches(ctx, &buf, filter); err != nil {
		return "", err
	}
	return service.upload(ctx, fmt.Sprintf("reconcile/matches-%s.csv", time.Now().UTC().Format("20060102T150405Z")), &buf)
}

func (service *ServiceReport) UploadRun(ctx context.Context, runID string) (string, error) {
	var buf bytes.Buffer
	if err := service.Run(ctx, &buf, runID); err != nil {
		return "", err
	}
	return service.upload(ctx, fmt.Sprintf("reconcile/runs/%s.csv", runID), &buf)
}

func (service *ServiceReport) upload(ctx context.Context, key string, buf *bytes.Buffer) (string, error) {
	if service.store == nil {
		return "", ErrNoObjectStore
	}

	location, err := service.store.Put(ctx, key, REPORT_CONTENT_TYPE, bytes.NewReader(buf.Bytes()))
	if err != nil {
		return "", err
	}

	service.logger.Info("report uploaded", zap.String("key", key), zap.String("location", location))
	return location, nil
}
