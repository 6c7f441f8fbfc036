package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	ASSIGNMENT_SUCCESS = "success"
	ASSIGNMENT_FAILED  = "failed"
	ASSIGNMENT_SKIPPED = "skipped"

	RUN_STATUS_COMPLETED             = "completed"
	RUN_STATUS_COMPLETED_WITH_ERRORS = "completed_with_errors"
)

// AssignmentRun records one bulk reward assignment batch.
type AssignmentRun struct {
	bun.BaseModel `bun:"table:assignment_runs"`
	ID            string     `bun:"id,pk" json:"id"`
	Actor         string     `bun:"actor" json:"actor"`
	Attempted     int        `bun:"attempted,notnull" json:"attempted"`
	Succeeded     int        `bun:"succeeded,notnull" json:"succeeded"`
	Failed        int        `bun:"failed,notnull" json:"failed"`
	Skipped       int        `bun:"skipped,notnull" json:"skipped"`
	Status        string     `bun:"status,notnull" json:"status"`
	RetryOf       *string    `bun:"retry_of" json:"retry_of,omitempty"`
	StartedAt     time.Time  `bun:"started_at,notnull" json:"started_at"`
	CompletedAt   *time.Time `bun:"completed_at" json:"completed_at"`

	Results []*AssignmentResult `bun:"-" json:"results,omitempty"`
}

type AssignmentResult struct {
	bun.BaseModel `bun:"table:assignment_results"`
	ID            int64     `bun:"id,pk,autoincrement" json:"-"`
	RunID         string    `bun:"run_id,notnull" json:"run_id"`
	PledgeID      int64     `bun:"pledge_id,notnull" json:"pledge_id"`
	RewardID      *int64    `bun:"reward_id" json:"reward_id"`
	Status        string    `bun:"status,notnull" json:"status"`
	Error         string    `bun:"error" json:"error,omitempty"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

type AssignPayload struct {
	PledgeIDs  []int64 `json:"pledge_ids"`
	Confidence string  `json:"confidence"`
}
