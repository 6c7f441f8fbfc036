package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type Campaign struct {
	bun.BaseModel `bun:"table:campaigns"`
	ID            int64           `bun:"id,pk,autoincrement" json:"id"`
	Name          string          `bun:"name,notnull" json:"name"`
	Provider      string          `bun:"provider" json:"provider"`
	GoalAmount    decimal.Decimal `bun:"goal_amount,type:numeric(14,2),notnull" json:"goal_amount"`
	CurrentAmount decimal.Decimal `bun:"current_amount,type:numeric(14,2),notnull" json:"current_amount"`
	Active        bool            `bun:"active,notnull" json:"active"`
	StartDate     *time.Time      `bun:"start_date" json:"start_date"`
	EndDate       *time.Time      `bun:"end_date" json:"end_date"`
	CreatedAt     time.Time       `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time       `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// CampaignStats is the funding summary shown on the campaign dashboard.
type CampaignStats struct {
	CampaignID       int64           `json:"campaign_id"`
	GoalAmount       decimal.Decimal `json:"goal_amount"`
	CurrentAmount    decimal.Decimal `json:"current_amount"`
	PercentFunded    float64         `json:"percent_funded"`
	PledgeCount      int             `json:"pledge_count"`
	DonorCount       int             `json:"donor_count"`
	UnassignedCount  int             `json:"unassigned_count"`
	RewardCount      int             `json:"reward_count"`
	PhysicalRewards  int             `json:"physical_rewards"`
	ShippingRequired int             `json:"shipping_required"`
}

type CampaignPayload struct {
	Name       string          `json:"name"`
	Provider   string          `json:"provider"`
	GoalAmount decimal.Decimal `json:"goal_amount"`
	Active     *bool           `json:"active"`
	StartDate  *time.Time      `json:"start_date"`
	EndDate    *time.Time      `json:"end_date"`
}
