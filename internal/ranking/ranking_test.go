package ranking

import (
	"testing"

	"donorhub/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDonationXP(t *testing.T) {
	assert.Equal(t, int64(120), DonationXP(decimal.RequireFromString("120.99"), 1))
	assert.Equal(t, int64(240), DonationXP(decimal.RequireFromString("120"), 2))
	assert.Zero(t, DonationXP(decimal.RequireFromString("-5"), 1))
	assert.Zero(t, DonationXP(decimal.RequireFromString("50"), 0))
}

func TestParticipationXP(t *testing.T) {
	counts := []*models.ActivityCount{
		{Kind: models.ACTIVITY_FORUM_POST, Count: 3},
		{Kind: models.ACTIVITY_EVENT_ATTENDED, Count: 2},
		{Kind: "unknown", Count: 99},
		nil,
	}

	assert.Equal(t, int64(3*10+2*25), ParticipationXP(counts))
}

func TestScore(t *testing.T) {
	tests := []struct {
		name          string
		donation      int64
		participation int64
		wantTotal     int64
		wantBonus     int64
	}{
		{"donation dominant", 1000, 250, 1025, 25},
		{"participation dominant", 40, 600, 604, 4},
		{"bonus rounds down", 100, 19, 101, 1},
		{"equal paths", 500, 500, 550, 50},
		{"nothing", 0, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total, bonus := Score(tt.donation, tt.participation)
			assert.Equal(t, tt.wantTotal, total)
			assert.Equal(t, tt.wantBonus, bonus)
		})
	}
}

func TestDominantPath(t *testing.T) {
	assert.Equal(t, PATH_DONATION, DominantPath(10, 5))
	assert.Equal(t, PATH_PARTICIPATION, DominantPath(5, 10))
	assert.Equal(t, PATH_BALANCED, DominantPath(7, 7))
}

func TestRankFor(t *testing.T) {
	current, next, toNext := RankFor(0)
	assert.Equal(t, "Initiate", current.Name)
	require.NotNil(t, next)
	assert.Equal(t, "Ally", next.Name)
	assert.Equal(t, int64(100), toNext)

	current, next, toNext = RankFor(1499)
	assert.Equal(t, "Advocate", current.Name)
	require.NotNil(t, next)
	assert.Equal(t, "Champion", next.Name)
	assert.Equal(t, int64(1), toNext)

	current, _, _ = RankFor(1500)
	assert.Equal(t, "Champion", current.Name)

	current, next, toNext = RankFor(20000)
	assert.Equal(t, "Legend", current.Name)
	assert.Nil(t, next)
	assert.Zero(t, toNext)
}

func TestCompute(t *testing.T) {
	rank := Compute(7, decimal.RequireFromString("480.50"), 1, []*models.ActivityCount{
		{Kind: models.ACTIVITY_FORUM_REPLY, Count: 40},
	})

	assert.Equal(t, int64(7), rank.DonorID)
	assert.Equal(t, int64(480), rank.DonationXP)
	assert.Equal(t, int64(200), rank.ParticipationXP)
	assert.Equal(t, int64(20), rank.CrossBonus)
	assert.Equal(t, int64(500), rank.XP)
	assert.Equal(t, PATH_DONATION, rank.DominantPath)
	assert.Equal(t, "Advocate", rank.Rank)
	assert.Equal(t, "Champion", rank.NextRank)
	assert.Equal(t, int64(1000), rank.XPToNextRank)
}

func TestIsActivityKind(t *testing.T) {
	assert.True(t, IsActivityKind(models.ACTIVITY_CAMPAIGN_SHARED))
	assert.False(t, IsActivityKind("poke"))
	assert.Equal(t, int64(2), ActivityPoints(models.ACTIVITY_MESSAGE_SENT))
}
