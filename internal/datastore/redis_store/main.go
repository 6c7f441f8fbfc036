package redis_store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"donorhub/internal/models"
	"donorhub/internal/reconcile"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	LEADERBOARD_XP = "xp"

	SELECTION_TTL = 12 * time.Hour
)

func dbKeyLeaderboard(board string) string {
	return fmt.Sprintf("leaderboard:%s", strings.ToLower(board))
}

func dbKeyLeaderboardStaging(board string) string {
	return fmt.Sprintf("leaderboard:%s:staging", strings.ToLower(board))
}

func dbKeySelection(actor string) string {
	return fmt.Sprintf("reconcile:selection:%s", actor)
}

func member(donorID int64) string {
	return strconv.FormatInt(donorID, 10)
}

func SetLeaderboard(ctx context.Context, cmd redis.Cmdable, board string, v *models.LeaderboardItem) (*models.LeaderboardItem, error) {
	err := cmd.ZAdd(ctx, dbKeyLeaderboard(board), redis.Z{
		Score:  v.Score,
		Member: member(v.DonorID),
	}).Err()
	if err != nil {
		return nil, err
	}

	return v, nil
}

func RemoveFromLeaderboard(ctx context.Context, cmd redis.Cmdable, board string, donorID int64) error {
	return cmd.ZRem(ctx, dbKeyLeaderboard(board), member(donorID)).Err()
}

// ReplaceLeaderboard builds the board under a staging key and renames it over
// the live one so readers never see a half-built board.
func ReplaceLeaderboard(ctx context.Context, cmd redis.Cmdable, board string, items []*models.LeaderboardItem) error {
	staging := dbKeyLeaderboardStaging(board)
	if len(items) == 0 {
		return cmd.Del(ctx, dbKeyLeaderboard(board)).Err()
	}

	zs := make([]redis.Z, 0, len(items))
	for _, v := range items {
		zs = append(zs, redis.Z{Score: v.Score, Member: member(v.DonorID)})
	}

	_, err := cmd.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, staging)
		pipe.ZAdd(ctx, staging, zs...)
		pipe.Rename(ctx, staging, dbKeyLeaderboard(board))
		return nil
	})
	return err
}

func ClearLeaderboard(ctx context.Context, cmd redis.Cmdable, board string) error {
	return cmd.Del(ctx, dbKeyLeaderboard(board)).Err()
}

func GetLeaderboard(ctx context.Context, cmd redis.Cmdable, board string, num int) ([]*models.LeaderboardItem, error) {
	if num <= 0 {
		return nil, nil
	}

	items, err := cmd.ZRevRangeWithScores(ctx, dbKeyLeaderboard(board), 0, int64(num-1)).Result()
	if err != nil {
		return nil, err
	}

	results := make([]*models.LeaderboardItem, 0, len(items))
	for i, item := range items {
		id, _ := strconv.ParseInt(item.Member.(string), 10, 64)
		results = append(results, &models.LeaderboardItem{
			DonorID: id,
			Score:   item.Score,
			Rank:    i + 1,
		})
	}

	return results, nil
}

// GetRank returns the 1-based position of a donor and their score. A donor
// missing from the board yields redis.Nil.
func GetRank(ctx context.Context, cmd redis.Cmdable, board string, donorID int64) (int, float64, error) {
	rank, err := cmd.ZRevRankWithScore(ctx, dbKeyLeaderboard(board), member(donorID)).Result()
	if err != nil {
		return 0, 0, err
	}

	return int(rank.Rank) + 1, rank.Score, nil
}

func GetLeaderboardParticipantsCount(ctx context.Context, cmd redis.Cmdable, board string) (int64, error) {
	return cmd.ZCard(ctx, dbKeyLeaderboard(board)).Result()
}

// GetSelection loads the admin's ticked rows; a missing blob is an empty
// selection.
func GetSelection(ctx context.Context, cmd redis.Cmdable, actor string) (*reconcile.Selection, error) {
	b, err := cmd.Get(ctx, dbKeySelection(actor)).Bytes()
	if errors.Is(err, redis.Nil) {
		return reconcile.NewSelection(), nil
	}
	if err != nil {
		return nil, err
	}

	var v reconcile.Selection
	if err := msgpack.Unmarshal(b, &v); err != nil {
		return nil, err
	}
	if v.PledgeIDs == nil {
		v.PledgeIDs = map[int64]bool{}
	}
	return &v, nil
}

func SetSelection(ctx context.Context, cmd redis.Cmdable, actor string, v *reconcile.Selection) error {
	b, err := msgpack.Marshal(v)
	if err != nil {
		return err
	}

	return cmd.Set(ctx, dbKeySelection(actor), b, SELECTION_TTL).Err()
}

func DeleteSelection(ctx context.Context, cmd redis.Cmdable, actor string) error {
	return cmd.Del(ctx, dbKeySelection(actor)).Err()
}
