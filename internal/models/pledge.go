package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type Pledge struct {
	bun.BaseModel  `bun:"table:pledges"`
	ID             int64           `bun:"id,pk,autoincrement" json:"id"`
	DonorID        int64           `bun:"donor_id,notnull" json:"donor_id"`
	CampaignID     int64           `bun:"campaign_id,notnull" json:"campaign_id"`
	Amount         decimal.Decimal `bun:"amount,type:numeric(14,2),notnull" json:"amount"`
	RewardID       *int64          `bun:"reward_id" json:"reward_id"`
	SourcePerkName *string         `bun:"source_perk_name" json:"source_perk_name"`
	CreatedAt      time.Time       `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt      time.Time       `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// PerkName returns the legacy perk label or "" when the pledge has none.
func (p *Pledge) PerkName() string {
	if p.SourcePerkName == nil {
		return ""
	}
	return *p.SourcePerkName
}

type PledgePayload struct {
	DonorID        int64           `json:"donor_id"`
	CampaignID     int64           `json:"campaign_id"`
	Amount         decimal.Decimal `json:"amount"`
	RewardID       *int64          `json:"reward_id"`
	SourcePerkName *string         `json:"source_perk_name"`
}

type PledgeRewardPayload struct {
	RewardID *int64 `json:"reward_id"`
}

type PledgeFilter struct {
	CampaignID *int64
	DonorID    *int64
	Unassigned bool
	Limit      int
	Offset     int
}
