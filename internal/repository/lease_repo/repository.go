package lease_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// casScript is the lease compare-and-set: extend when we already hold
// the key, take it when unset, fail when someone else holds it. Running
// store-side keeps the check-then-set race-free across instances.
var casScript = redis.NewScript(`
local holder = redis.call('GET', KEYS[1])
if holder == ARGV[1] then
	redis.call('PEXPIRE', KEYS[1], tonumber(ARGV[2]))
	return 1
elseif not holder then
	redis.call('SET', KEYS[1], ARGV[1], 'PX', tonumber(ARGV[2]))
	return 1
else
	return 0
end
`)

type LeaseRepo struct {
	client *redis.Client
}

func NewLeaseRepository(client *redis.Client) *LeaseRepo {
	return &LeaseRepo{client: client}
}

func (r *LeaseRepo) AcquireOrExtend(ctx context.Context, key, holder string, ttl time.Duration) (bool, error) {
	res, err := casScript.Run(ctx, r.client, []string{key}, holder, ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("lease cas: %w", err)
	}
	return res == 1, nil
}
