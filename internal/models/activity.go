package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	ACTIVITY_FORUM_POST      = "forum_post"
	ACTIVITY_FORUM_REPLY     = "forum_reply"
	ACTIVITY_MESSAGE_SENT    = "message_sent"
	ACTIVITY_EVENT_ATTENDED  = "event_attended"
	ACTIVITY_CAMPAIGN_SHARED = "campaign_shared"
)

// Activity is one participation event (forum, messaging, events) credited to a donor.
type Activity struct {
	bun.BaseModel `bun:"table:activities"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	DonorID       int64     `bun:"donor_id,notnull" json:"donor_id"`
	Kind          string    `bun:"kind,notnull" json:"kind"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

type ActivityCount struct {
	Kind  string `bun:"kind" json:"kind"`
	Count int64  `bun:"count" json:"count"`
}

type ActivityPayload struct {
	Kind string `json:"kind"`
}
