package businessflow

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// actionLock serializes user-triggered message actions per prospect. A send
// and a schedule racing on the same prospect must not both reach the gateway;
// the second caller gets ErrActionAlreadyInFlight instead of a double dispatch.
type actionLock struct {
	rc  *redis.Client
	ttl time.Duration
}

func newActionLock(rc *redis.Client, ttl time.Duration) *actionLock {
	return &actionLock{rc: rc, ttl: ttl}
}

func actionLockKey(researchCacheID uint) string {
	return fmt.Sprintf("reachly:action_lock:%d", researchCacheID)
}

// acquire takes the per-prospect lock. The TTL bounds how long a crashed
// request can block the prospect; release is still expected on every path.
func (l *actionLock) acquire(ctx context.Context, researchCacheID uint) error {
	if l.rc == nil {
		return ErrCacheNotAvailable
	}

	ok, err := l.rc.SetNX(ctx, actionLockKey(researchCacheID), "1", l.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to acquire action lock: %w", err)
	}
	if !ok {
		return ErrActionAlreadyInFlight
	}
	return nil
}

func (l *actionLock) release(ctx context.Context, researchCacheID uint) {
	if l.rc == nil {
		return
	}
	_ = l.rc.Del(ctx, actionLockKey(researchCacheID)).Err()
}
