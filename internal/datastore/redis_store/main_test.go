package redis_store

import (
	"context"
	"testing"

	"donorhub/internal/models"
	"donorhub/internal/reconcile"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, redis.UniversalClient) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestReplaceLeaderboard(t *testing.T) {
	mr, client := newTestRedis(t)
	ctx := context.Background()

	// a donor from the previous build who no longer qualifies
	_, err := SetLeaderboard(ctx, client, LEADERBOARD_XP, &models.LeaderboardItem{DonorID: 9, Score: 500})
	require.NoError(t, err)

	err = ReplaceLeaderboard(ctx, client, LEADERBOARD_XP, []*models.LeaderboardItem{
		{DonorID: 1, Score: 120},
		{DonorID: 2, Score: 300},
		{DonorID: 3, Score: 45},
	})
	require.NoError(t, err)

	assert.True(t, mr.Exists("leaderboard:xp"))
	assert.False(t, mr.Exists("leaderboard:xp:staging"))

	items, err := GetLeaderboard(ctx, client, LEADERBOARD_XP, 10)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, &models.LeaderboardItem{DonorID: 2, Score: 300, Rank: 1}, items[0])
	assert.Equal(t, &models.LeaderboardItem{DonorID: 1, Score: 120, Rank: 2}, items[1])
	assert.Equal(t, &models.LeaderboardItem{DonorID: 3, Score: 45, Rank: 3}, items[2])

	rank, score, err := GetRank(ctx, client, LEADERBOARD_XP, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, rank)
	assert.Equal(t, float64(45), score)

	_, _, err = GetRank(ctx, client, LEADERBOARD_XP, 9)
	assert.ErrorIs(t, err, redis.Nil)

	count, err := GetLeaderboardParticipantsCount(ctx, client, LEADERBOARD_XP)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	top, err := GetLeaderboard(ctx, client, LEADERBOARD_XP, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, int64(2), top[0].DonorID)

	none, err := GetLeaderboard(ctx, client, LEADERBOARD_XP, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestReplaceLeaderboard_Empty(t *testing.T) {
	mr, client := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, ReplaceLeaderboard(ctx, client, LEADERBOARD_XP, []*models.LeaderboardItem{{DonorID: 1, Score: 10}}))
	require.NoError(t, ReplaceLeaderboard(ctx, client, LEADERBOARD_XP, nil))

	assert.False(t, mr.Exists("leaderboard:xp"))
	assert.False(t, mr.Exists("leaderboard:xp:staging"))

	count, err := GetLeaderboardParticipantsCount(ctx, client, LEADERBOARD_XP)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestLeaderboard_BoardNameIsCaseInsensitive(t *testing.T) {
	_, client := newTestRedis(t)
	ctx := context.Background()

	_, err := SetLeaderboard(ctx, client, "XP", &models.LeaderboardItem{DonorID: 4, Score: 10})
	require.NoError(t, err)

	rank, _, err := GetRank(ctx, client, LEADERBOARD_XP, 4)
	require.NoError(t, err)
	assert.Equal(t, 1, rank)

	require.NoError(t, RemoveFromLeaderboard(ctx, client, LEADERBOARD_XP, 4))
	_, _, err = GetRank(ctx, client, "xp", 4)
	assert.ErrorIs(t, err, redis.Nil)

	_, err = SetLeaderboard(ctx, client, LEADERBOARD_XP, &models.LeaderboardItem{DonorID: 5, Score: 1})
	require.NoError(t, err)
	require.NoError(t, ClearLeaderboard(ctx, client, LEADERBOARD_XP))
	count, err := GetLeaderboardParticipantsCount(ctx, client, LEADERBOARD_XP)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSelection(t *testing.T) {
	mr, client := newTestRedis(t)
	ctx := context.Background()

	t.Run("missing is empty", func(t *testing.T) {
		selection, err := GetSelection(ctx, client, "ops")
		require.NoError(t, err)
		assert.Equal(t, 0, selection.Len())

		// usable without a nil map
		assert.True(t, selection.Toggle(1))
	})

	t.Run("stored per actor", func(t *testing.T) {
		require.NoError(t, SetSelection(ctx, client, "ops", reconcile.NewSelection(3, 1, 2)))

		selection, err := GetSelection(ctx, client, "ops")
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 2, 3}, selection.IDs())

		other, err := GetSelection(ctx, client, "finance")
		require.NoError(t, err)
		assert.Equal(t, 0, other.Len())

		assert.Equal(t, SELECTION_TTL, mr.TTL("reconcile:selection:ops"))
	})

	t.Run("empty selection round trips", func(t *testing.T) {
		require.NoError(t, SetSelection(ctx, client, "empty", &reconcile.Selection{}))

		selection, err := GetSelection(ctx, client, "empty")
		require.NoError(t, err)
		assert.NotNil(t, selection.PledgeIDs)
		assert.Equal(t, 0, selection.Len())
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, DeleteSelection(ctx, client, "ops"))
		assert.False(t, mr.Exists("reconcile:selection:ops"))

		selection, err := GetSelection(ctx, client, "ops")
		require.NoError(t, err)
		assert.Equal(t, 0, selection.Len())

		// deleting twice is fine
		require.NoError(t, DeleteSelection(ctx, client, "ops"))
	})

	t.Run("corrupt blob", func(t *testing.T) {
		require.NoError(t, mr.Set("reconcile:selection:broken", "not msgpack"))

		_, err := GetSelection(ctx, client, "broken")
		assert.Error(t, err)
	})
}
