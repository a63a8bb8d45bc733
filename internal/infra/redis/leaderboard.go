package redis

import (
	"context"
	"encoding/json"
	"errors"

	"study-portal/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	LeaderboardPointsKey   = "leaderboard:points"
	LeaderboardProfilesKey = "leaderboard:profiles"
)

// LeaderboardCache mirrors ranked user stats into a ZSet plus a profile hash.
// Scores are stored negated: an ascending range then yields points descending
// with ties ordered by user id, the same order the store assigns ranks in.
type LeaderboardCache struct {
	client *redis.Client
}

func NewLeaderboardCache(client *redis.Client) *LeaderboardCache {
	return &LeaderboardCache{client: client}
}

// Replace swaps the whole mirror atomically.
func (c *LeaderboardCache) Replace(ctx context.Context, stats []domain.UserStats) error {
	members := make([]redis.Z, 0, len(stats))
	profiles := make(map[string]interface{}, len(stats))
	for _, row := range stats {
		raw, err := json.Marshal(row)
		if err != nil {
			return err
		}
		members = append(members, redis.Z{
			Score:  -float64(row.TotalPoints),
			Member: row.UserID,
		})
		profiles[row.UserID] = raw
	}

	pipe := c.client.TxPipeline()
	pipe.Del(ctx, LeaderboardPointsKey, LeaderboardProfilesKey)
	if len(members) > 0 {
		pipe.ZAdd(ctx, LeaderboardPointsKey, members...)
		pipe.HSet(ctx, LeaderboardProfilesKey, profiles)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return domain.Remote("replace leaderboard", err)
	}
	return nil
}

// Top returns the first limit rows in rank order.
func (c *LeaderboardCache) Top(ctx context.Context, limit int) ([]domain.UserStats, bool, error) {
	if limit <= 0 {
		return nil, false, nil
	}
	results, err := c.client.ZRangeWithScores(ctx, LeaderboardPointsKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, false, domain.Remote("read leaderboard", err)
	}
	if len(results) == 0 {
		return nil, false, nil
	}

	ids := make([]string, len(results))
	for i, z := range results {
		ids[i] = z.Member.(string)
	}
	raws, err := c.client.HMGet(ctx, LeaderboardProfilesKey, ids...).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, false, domain.Remote("read leaderboard profiles", err)
	}

	rows := make([]domain.UserStats, 0, len(results))
	for i, z := range results {
		row := domain.UserStats{UserID: ids[i], TotalPoints: int(-z.Score)}
		if raw, ok := raws[i].(string); ok {
			_ = json.Unmarshal([]byte(raw), &row)
		}
		rows = append(rows, row)
	}
	return rows, true, nil
}
