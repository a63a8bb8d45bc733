package redis

import (
	"context"
	"time"

	"study-portal/internal/domain"

	"github.com/redis/go-redis/v9"
)

// Denylist records signed-out token ids with a TTL equal to the token's
// remaining lifetime, so entries vanish once the token would be rejected anyway.
type Denylist struct {
	client *redis.Client
	clock  func() time.Time
}

func NewDenylist(client *redis.Client) *Denylist {
	return &Denylist{client: client, clock: time.Now}
}

func (d *Denylist) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := until.Sub(d.clock())
	if ttl <= 0 {
		return nil
	}
	if err := d.client.Set(ctx, d.key(tokenID), "1", ttl).Err(); err != nil {
		return domain.Remote("revoke token", err)
	}
	return nil
}

func (d *Denylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := d.client.Exists(ctx, d.key(tokenID)).Result()
	if err != nil {
		return false, domain.Remote("check revoked token", err)
	}
	return n > 0, nil
}

func (d *Denylist) key(tokenID string) string {
	return "auth:revoked:" + tokenID
}
