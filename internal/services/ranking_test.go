package services

import (
	"testing"

	"donorhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildLeaderboard(t *testing.T) {
	totals := []*models.DonorTotal{
		{DonorID: 1, Total: dec("480.50")},
		{DonorID: 2, Total: dec("0.99")},
	}
	counts := map[int64][]*models.ActivityCount{
		1: {{Kind: models.ACTIVITY_FORUM_REPLY, Count: 40}},
		3: {{Kind: models.ACTIVITY_EVENT_ATTENDED, Count: 4}},
	}

	items := BuildLeaderboard([]int64{1, 2, 3, 4}, totals, counts, 1)

	require.Len(t, items, 2)
	assert.Equal(t, int64(1), items[0].DonorID)
	assert.Equal(t, float64(500), items[0].Score)
	assert.Equal(t, "Advocate", items[0].Title)

	assert.Equal(t, int64(3), items[1].DonorID)
	assert.Equal(t, float64(100), items[1].Score)
	assert.Equal(t, "Ally", items[1].Title)
}

func TestBuildLeaderboard_PerUnit(t *testing.T) {
	totals := []*models.DonorTotal{{DonorID: 9, Total: dec("12.75")}}

	items := BuildLeaderboard([]int64{9}, totals, nil, 10)

	require.Len(t, items, 1)
	assert.Equal(t, float64(120), items[0].Score)
}
