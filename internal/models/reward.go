package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type Reward struct {
	bun.BaseModel    `bun:"table:rewards"`
	ID               int64           `bun:"id,pk,autoincrement" json:"id"`
	CampaignID       int64           `bun:"campaign_id,notnull" json:"campaign_id"`
	Name             string          `bun:"name,notnull" json:"name"`
	MinimumAmount    decimal.Decimal `bun:"minimum_amount,type:numeric(14,2),notnull" json:"minimum_amount"`
	IsPhysical       bool            `bun:"is_physical,notnull" json:"is_physical"`
	RequiresShipping bool            `bun:"requires_shipping,notnull" json:"requires_shipping"`
	Description      string          `bun:"description" json:"description"`
	CreatedAt        time.Time       `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt        time.Time       `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`

	Campaign *Campaign `bun:"-" json:"campaign,omitempty"`
}

type RewardPayload struct {
	CampaignID       int64           `json:"campaign_id"`
	Name             string          `json:"name"`
	MinimumAmount    decimal.Decimal `json:"minimum_amount"`
	IsPhysical       bool            `json:"is_physical"`
	RequiresShipping bool            `json:"requires_shipping"`
	Description      string          `json:"description"`
}
