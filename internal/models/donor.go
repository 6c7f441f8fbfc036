package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type Donor struct {
	bun.BaseModel `bun:"table:donors"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	Email         string    `bun:"email,unique,notnull" json:"email"`
	DisplayName   string    `bun:"display_name" json:"display_name"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

type DonorPayload struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// DonorTotal is one row of the per-donor pledge aggregate.
type DonorTotal struct {
	DonorID int64           `bun:"donor_id" json:"donor_id"`
	Total   decimal.Decimal `bun:"total" json:"total"`
}

type DonorRank struct {
	DonorID         int64  `json:"donor_id"`
	DonationXP      int64  `json:"donation_xp"`
	ParticipationXP int64  `json:"participation_xp"`
	CrossBonus      int64  `json:"cross_bonus"`
	XP              int64  `json:"xp"`
	DominantPath    string `json:"dominant_path"`
	Rank            string `json:"rank"`
	NextRank        string `json:"next_rank,omitempty"`
	XPToNextRank    int64  `json:"xp_to_next_rank"`
	LeaderboardRank int    `json:"leaderboard_rank,omitempty"`
}
