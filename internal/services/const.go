package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrAssignLocked = errors.New("another bulk assignment is running")
var ErrRankRebuildLocked = errors.New("leaderboard rebuild already running")
var ErrRewardCampaignMismatch = errors.New("reward belongs to another campaign")
var ErrRewardInUse = errors.New("reward is assigned to pledges")
var ErrCampaignHasPledges = errors.New("campaign has pledges")
var ErrInvalidAmount = errors.New("amount must be greater than zero")
var ErrInvalidConfidence = errors.New("unknown confidence level")
var ErrNothingToAssign = errors.New("no pledges selected")
var ErrNothingToRetry = errors.New("run has no failed items")
var ErrNotAwaitingReward = errors.New("pledge is not awaiting a reward")
var ErrUnknownActivity = errors.New("unknown activity kind")
var ErrDonorExists = errors.New("donor email already registered")
var ErrInvalidToken = errors.New("invalid token")

// ErrValidation marks bad input; the message after it says what is wrong.
var ErrValidation = errors.New("validation failed")

func validationError(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

const (
	CONFIG_SERVER_MODE            = "SERVER_MODE"
	CONFIG_RECONCILE_PLEDGE_LIMIT = "RECONCILE_PLEDGE_LIMIT"
	CONFIG_LEADERBOARD_LIMIT      = "LEADERBOARD_LIMIT"
	CONFIG_CRONJOB_TIME_RANK      = "CRONJOB_TIME_RANK"
	CONFIG_DONATION_XP_PER_UNIT   = "DONATION_XP_PER_UNIT"

	SERVER_MODE_DEVELOPMENT = "development"
	SERVER_MODE_PRODUCTION  = "production"

	LEADERBOARD_DEFAULT_LIMIT    = 50
	LEADERBOARD_MAX_LIMIT        = 500
	DONATION_XP_PER_UNIT_DEFAULT = 1
	CRONJOB_TIME_RANK_DEFAULT    = "*/10 * * * *"
	ASSIGNMENT_RUNS_LIST_LIMIT   = 50

	CACHE_TTL_15_SECONDS = 15 * time.Second
	CACHE_TTL_1_MIN      = 1 * time.Minute
	CACHE_TTL_5_MINS     = 5 * time.Minute

	LOCK_TTL_BULK_ASSIGN  = 5 * time.Minute
	LOCK_TTL_RANK_REBUILD = 10 * time.Minute

	ADMIN_RATE_LIMIT_PER_MINUTE  = 600
	ASSIGN_RATE_LIMIT_PER_MINUTE = 10

	ADMIN_TOKEN_TTL = 12 * time.Hour
)

// DefaultConfigs are the rows seeded into the config table.
func DefaultConfigs() map[string]string {
	return map[string]string{
		CONFIG_SERVER_MODE:            SERVER_MODE_PRODUCTION,
		CONFIG_RECONCILE_PLEDGE_LIMIT: "100",
		CONFIG_LEADERBOARD_LIMIT:      fmt.Sprint(LEADERBOARD_DEFAULT_LIMIT),
		CONFIG_CRONJOB_TIME_RANK:      CRONJOB_TIME_RANK_DEFAULT,
		CONFIG_DONATION_XP_PER_UNIT:   fmt.Sprint(DONATION_XP_PER_UNIT_DEFAULT),
	}
}

// lock
func LockKeyBulkAssign() string {
	return "lock:reconcile-assign"
}

func LockKeyRankRebuild() string {
	return "lock:rank-rebuild"
}

// limiter
func LimitKeyAdmin(actor string) string {
	return fmt.Sprintf("limit:admin:%s", actor)
}

func LimitKeyAssign(actor string) string {
	return fmt.Sprintf("limit:assign:%s", actor)
}

// db
func DBKeyConfig(key string) string {
	return fmt.Sprintf("config:%s", strings.ToLower(key))
}

func DBKeyConfigPattern() string {
	return "config:*"
}

func DBKeyCampaign(id int64) string {
	return fmt.Sprintf("campaign:%d", id)
}

func DBKeyCampaignRewards(id int64) string {
	return fmt.Sprintf("campaign:%d:rewards", id)
}

func DBKeyReconcileMatches() string {
	return "reconcile:matches"
}

func DBKeyDonorRank(donorID int64) string {
	return fmt.Sprintf("donor:%d:rank", donorID)
}

func DBKeyLeaderboard(limit int) string {
	return fmt.Sprintf("leaderboard:top:%d", limit)
}

func DBKeyLeaderboardPattern() string {
	return "leaderboard:top:*"
}
