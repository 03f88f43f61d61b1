package api

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// loginStore 是登录限流所需的 Redis 子集。
type loginStore interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	TTL(ctx context.Context, key string) *redis.DurationCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type loginVerdict int

const (
	loginAllowed loginVerdict = iota
	loginRateLimited
	loginLocked
)

// loginGuard 按 IP+邮箱 每小时限流，并在连续失败达到阈值后锁定邮箱。
// Redis 不可用时放行，登录本身仍由口令校验把关。
type loginGuard struct {
	store         loginStore
	ratePerHour   int
	lockThreshold int
	lockTTL       time.Duration
	now           func() time.Time
}

func newLoginGuard(store loginStore, ratePerHour, lockThreshold int, lockTTL time.Duration) *loginGuard {
	return &loginGuard{
		store:         store,
		ratePerHour:   ratePerHour,
		lockThreshold: lockThreshold,
		lockTTL:       lockTTL,
		now:           time.Now,
	}
}

func rateKey(ip, email string, at time.Time) string {
	return "rate:login:" + ip + ":" + email + ":" + at.UTC().Format("2006010215")
}

func lockKey(email string) string     { return "lock:login:" + email }
func failureKey(email string) string { return "lock:login:fail:" + email }

// check 计入一次尝试并判断是否放行。
func (g *loginGuard) check(ctx context.Context, ip, email string) loginVerdict {
	if g.store == nil {
		return loginAllowed
	}
	count, err := g.incr(ctx, rateKey(ip, email, g.now()), time.Hour)
	if err == nil && g.ratePerHour > 0 && count > int64(g.ratePerHour) {
		return loginRateLimited
	}
	if ttl, err := g.store.TTL(ctx, lockKey(email)).Result(); err == nil && ttl > 0 {
		return loginLocked
	}
	return loginAllowed
}

// recordFailure 累计失败次数，达到阈值时写入锁。
func (g *loginGuard) recordFailure(ctx context.Context, email string) error {
	if g.store == nil {
		return nil
	}
	count, err := g.incr(ctx, failureKey(email), g.lockTTL)
	if err != nil {
		return err
	}
	if g.lockThreshold > 0 && count >= int64(g.lockThreshold) {
		return g.store.Set(ctx, lockKey(email), "1", g.lockTTL).Err()
	}
	return nil
}

// reset 在登录成功后清空失败计数。
func (g *loginGuard) reset(ctx context.Context, email string) {
	if g.store == nil {
		return
	}
	_ = g.store.Del(ctx, failureKey(email)).Err()
}

func (g *loginGuard) incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := g.store.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		_ = g.store.Expire(ctx, key, ttl).Err()
	}
	return count, nil
}
