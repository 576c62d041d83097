package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/riskgate/riskgate/internal/metrics"
	"github.com/riskgate/riskgate/internal/rule"
)

// Default key layout shared with the rule-management tooling.
const (
	DefaultActiveSetKey = "risk:rules:active"
	DefaultRuleHashKey  = "risk:rules:hash"
)

// loadScript resolves the active-id set and batch-reads the matching rule
// bodies in one atomic server-side step, returning zipped id/body pairs.
// Reading the set and the hash in two client calls would race against a
// concurrent removal of an id between them.
var loadScript = redis.NewScript(`
local ids = redis.call('SMEMBERS', KEYS[1])
if #ids == 0 then return {} end
local bodies = redis.call('HMGET', KEYS[2], unpack(ids))
local out = {}
for i, id in ipairs(ids) do
  out[2*i-1] = id
  out[2*i] = bodies[i] or ''
end
return out
`)

// Redis reads the active rule set from a Redis single node or cluster.
type Redis struct {
	client    redis.UniversalClient
	activeKey string
	hashKey   string
}

// NewRedis creates a rule store over the given client. Empty key names
// fall back to the default layout.
func NewRedis(client redis.UniversalClient, activeKey, hashKey string) *Redis {
	if activeKey == "" {
		activeKey = DefaultActiveSetKey
	}
	if hashKey == "" {
		hashKey = DefaultRuleHashKey
	}
	return &Redis{client: client, activeKey: activeKey, hashKey: hashKey}
}

// LoadActive implements RuleStore. A rule body that is missing or fails
// to decode is skipped and counted; the rest of the load proceeds.
func (s *Redis) LoadActive(ctx context.Context) (*rule.Snapshot, error) {
	res, err := loadScript.Run(ctx, s.client, []string{s.activeKey, s.hashKey}).Slice()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	rules := make([]*rule.Rule, 0, len(res)/2)
	for i := 0; i+1 < len(res); i += 2 {
		id, _ := res[i].(string)
		body, _ := res[i+1].(string)
		if id == "" {
			continue
		}
		if body == "" {
			slog.Warn("active rule has no body, skipping", "rule_id", id)
			metrics.RuleDecodeErrors.Inc()
			continue
		}
		r, err := rule.Decode(id, []byte(body))
		if err != nil {
			slog.Warn("malformed rule body, skipping", "rule_id", id, "err", err)
			metrics.RuleDecodeErrors.Inc()
			continue
		}
		rules = append(rules, r)
	}
	return rule.NewSnapshot(rules), nil
}
