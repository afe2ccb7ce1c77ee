package housekeeping

import (
	"context"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

func lockKey(name string) string {
	return "housekeeping:lock:" + name
}

// releaseScript deletes the lock only when the stored owner token matches,
// so a gate cannot release a lock it lost to lease expiry.
const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`

var _ Gate = (*RedisGate)(nil)

// RedisGate is the cluster-wide gate: SET NX with an owner token and a lease,
// so a crashed holder's lock expires instead of wedging housekeeping forever.
type RedisGate struct {
	client *redis.Client
	owner  string
	lease  time.Duration
}

func NewRedisGate(client *redis.Client, lease time.Duration) *RedisGate {
	return &RedisGate{
		client: client,
		owner:  uuid.New().String(),
		lease:  lease,
	}
}

func (g *RedisGate) TryAcquire(ctx context.Context, name string) (bool, error) {
	return g.client.SetNX(ctx, lockKey(name), g.owner, g.lease).Result()
}

func (g *RedisGate) Release(ctx context.Context, name string) error {
	return g.client.Eval(ctx, releaseScript, []string{lockKey(name)}, g.owner).Err()
}

func (g *RedisGate) Clear(ctx context.Context, name string) error {
	return g.client.Del(ctx, lockKey(name)).Err()
}
