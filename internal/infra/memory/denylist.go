package memory

import (
	"context"
	"sync"
	"time"
)

// Denylist is an in-memory auth.TokenDenylist. Expired entries are pruned on write.
type Denylist struct {
	mu      sync.Mutex
	clock   func() time.Time
	revoked map[string]time.Time
}

func NewDenylist() *Denylist {
	return &Denylist{clock: time.Now, revoked: make(map[string]time.Time)}
}

func (d *Denylist) Revoke(_ context.Context, tokenID string, until time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.clock()
	for id, exp := range d.revoked {
		if !exp.After(now) {
			delete(d.revoked, id)
		}
	}
	d.revoked[tokenID] = until
	return nil
}

func (d *Denylist) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	until, ok := d.revoked[tokenID]
	return ok && until.After(d.clock()), nil
}
