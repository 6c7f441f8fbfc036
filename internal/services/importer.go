package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"donorhub/internal/datastore"
	"donorhub/internal/models"
	"donorhub/internal/pkg/caching"

	"github.com/gojek/heimdall/v7"
	"github.com/gojek/heimdall/v7/httpclient"
	"github.com/samber/do"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

const (
	IMPORT_HTTP_TIMEOUT = 30 * time.Second
	IMPORT_HTTP_RETRIES = 3
)

var ErrImportHeader = errors.New("import file is missing required columns")

var importRequiredColumns = []string{"email", "campaign_id", "amount"}

type ServiceImporter struct {
	container  *do.Injector
	postgresDB *bun.DB
	cache      caching.Cache
	logger     *zap.Logger
	client     heimdall.Doer

	serviceDonor *ServiceDonor
}

func NewServiceImporter(container *do.Injector) (*ServiceImporter, error) {
	postgresDB, err := do.Invoke[*bun.DB](container)
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

	serviceDonor, err := do.Invoke[*ServiceDonor](container)
	if err != nil {
		return nil, err
	}

	client := httpclient.NewClient(
		httpclient.WithHTTPTimeout(IMPORT_HTTP_TIMEOUT),
		httpclient.WithRetryCount(IMPORT_HTTP_RETRIES),
		httpclient.WithRetrier(heimdall.NewRetrier(heimdall.NewConstantBackoff(500*time.Millisecond, 100*time.Millisecond))),
	)

	return &ServiceImporter{container, postgresDB, cache, logger, client, serviceDonor}, nil
}

// ParsePledgeCSV reads a legacy export. Columns are matched by header name;
// email, campaign_id and amount are required, display_name and perk_name are
// optional. Bad lines are reported and left out.
func ParsePledgeCSV(r io.Reader) ([]*models.ImportRow, []*models.ImportRowError, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, ErrImportHeader
	}
	if err != nil {
		return nil, nil, err
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	for _, name := range importRequiredColumns {
		if _, ok := columns[name]; !ok {
			return nil, nil, fmt.Errorf("%w: %s", ErrImportHeader, name)
		}
	}

	field := func(record []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var rows []*models.ImportRow
	var rowErrors []*models.ImportRowError
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			rowErrors = append(rowErrors, &models.ImportRowError{Line: parseErr.StartLine, Message: parseErr.Err.Error()})
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		line, _ := reader.FieldPos(0)

		row, msg := parseImportRecord(line, func(name string) string { return field(record, name) })
		if msg != "" {
			rowErrors = append(rowErrors, &models.ImportRowError{Line: line, Message: msg})
			continue
		}
		rows = append(rows, row)
	}

	return rows, rowErrors, nil
}

func parseImportRecord(line int, field func(string) string) (*models.ImportRow, string) {
	email := strings.ToLower(field("email"))
	if email == "" || !strings.Contains(email, "@") {
		return nil, "invalid email"
	}

	campaignID, err := strconv.ParseInt(field("campaign_id"), 10, 64)
	if err != nil || campaignID <= 0 {
		return nil, "invalid campaign_id"
	}

	raw := strings.NewReplacer("$", "", ",", "").Replace(field("amount"))
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, "invalid amount"
	}
	amount = amount.Round(2)
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount.Error()
	}

	return &models.ImportRow{
		Line:        line,
		Email:       email,
		DisplayName: field("display_name"),
		CampaignID:  campaignID,
		Amount:      amount,
		PerkName:    field("perk_name"),
	}, ""
}

func (service *ServiceImporter) ImportFile(ctx context.Context, path string) (*models.ImportReport, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return service.Import(ctx, file)
}

func (service *ServiceImporter) ImportURL(ctx context.Context, url string) (*models.ImportReport, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	res, err := service.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, res.StatusCode)
	}

	return service.Import(ctx, res.Body)
}

// Import stores every valid row in one transaction. Unknown campaigns are
// reported per line; donors are matched by email and created when missing.
func (service *ServiceImporter) Import(ctx context.Context, r io.Reader) (*models.ImportReport, error) {
	rows, rowErrors, err := ParsePledgeCSV(r)
	if err != nil {
		return nil, err
	}

	report := &models.ImportReport{Rows: len(rows) + len(rowErrors), Errors: rowErrors}
	touched := map[int64]bool{}

	err = service.postgresDB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		campaigns := map[int64]bool{}
		for _, row := range rows {
			known, seen := campaigns[row.CampaignID]
			if !seen {
				_, err := datastore.GetCampaignByID(ctx, tx, row.CampaignID)
				if err != nil && !isNotFound(err) {
					return err
				}
				known = err == nil
				campaigns[row.CampaignID] = known
			}
			if !known {
				report.Errors = append(report.Errors, &models.ImportRowError{Line: row.Line, Message: "unknown campaign"})
				continue
			}

			donor, created, err := service.serviceDonor.FindOrCreate(ctx, tx, &models.DonorPayload{Email: row.Email, DisplayName: row.DisplayName})
			if err != nil {
				return fmt.Errorf("line %d: %w", row.Line, err)
			}
			if created {
				report.DonorsCreated++
			}

			pledge := &models.Pledge{DonorID: donor.ID, CampaignID: row.CampaignID, Amount: row.Amount}
			if row.PerkName != "" {
				perk := row.PerkName
				pledge.SourcePerkName = &perk
			}
			if _, err := datastore.InsertPledge(ctx, tx, pledge); err != nil {
				return fmt.Errorf("line %d: %w", row.Line, err)
			}

			report.Imported++
			touched[row.CampaignID] = true
		}

		for id := range touched {
			if _, err := datastore.RecalculateCampaignAmount(ctx, tx, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	report.Campaigns = make([]int64, 0, len(touched))
	for id := range touched {
		report.Campaigns = append(report.Campaigns, id)
		//nolint:errcheck
		service.cache.Delete(ctx, DBKeyCampaign(id))
	}
	sort.Slice(report.Campaigns, func(i, j int) bool { return report.Campaigns[i] < report.Campaigns[j] })
	sort.SliceStable(report.Errors, func(i, j int) bool { return report.Errors[i].Line < report.Errors[j].Line })

	//nolint:errcheck
	service.cache.Delete(ctx, DBKeyReconcileMatches())

	service.logger.Info("pledges imported",
		zap.Int("rows", report.Rows),
		zap.Int("imported", report.Imported),
		zap.Int("donors_created", report.DonorsCreated),
		zap.Int("errors", len(report.Errors)))

	return report, nil
}
