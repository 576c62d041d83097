// Package score is the online-learning write path: every triggered rule
// folds a fixed delta into a per-(user, device) counter kept in the
// external store. It is fire-and-forget by contract: a scoring outage
// must never affect risk decisioning for the current event.
package score

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/riskgate/riskgate/internal/config"
	"github.com/riskgate/riskgate/internal/metrics"
)

const keyPrefix = "risk:scores:"

// updateScript increments the counter and, iff this increment created the
// key (the counter equals exactly one delta), arms the expiry. Increment
// and conditional expire must be indivisible: split calls could leave a
// key that never expires, or one whose history is lost.
var updateScript = redis.NewScript(`
local current = tonumber(redis.call('INCRBYFLOAT', KEYS[1], ARGV[1]))
if current == tonumber(ARGV[1]) then
  redis.call('EXPIRE', KEYS[1], ARGV[2])
end
return tostring(current)
`)

type update struct {
	userID   string
	deviceID string
}

// Recorder applies score updates asynchronously through a bounded queue
// and a fixed set of writer goroutines.
type Recorder struct {
	client   redis.UniversalClient
	queue    chan update
	delta    float64
	ttlSec   int
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewRecorder creates a Recorder and starts its writers.
func NewRecorder(client redis.UniversalClient, conf config.ScoreConf) *Recorder {
	r := &Recorder{
		client: client,
		queue:  make(chan update, conf.QueueDepth),
		delta:  conf.Delta,
		ttlSec: int(conf.TTL() / time.Second),
	}
	for i := 0; i < conf.Workers; i++ {
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			for u := range r.queue {
				r.apply(u)
			}
		}()
	}
	return r
}

// Record enqueues one score update for the given identity pair. It never
// blocks: on a full queue the update is dropped with a warning. Events
// without a complete identity carry nothing to score.
func (r *Recorder) Record(userID, deviceID string) {
	if userID == "" || deviceID == "" {
		return
	}
	select {
	case r.queue <- update{userID: userID, deviceID: deviceID}:
	default:
		slog.Warn("score queue full, dropping update", "user_id", userID, "device_id", deviceID)
		metrics.ScoreUpdates.WithLabelValues("dropped").Inc()
	}
}

// Stop closes the queue and waits for the writers to drain it. Idempotent.
func (r *Recorder) Stop() {
	r.stopOnce.Do(func() {
		close(r.queue)
		r.wg.Wait()
	})
}

func (r *Recorder) apply(u update) {
	key := fmt.Sprintf("%s%s:%s", keyPrefix, u.userID, u.deviceID)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := updateScript.Run(ctx, r.client, []string{key}, r.delta, r.ttlSec).Err(); err != nil {
		slog.Warn("risk score update failed", "key", key, "err", err)
		metrics.ScoreUpdates.WithLabelValues("error").Inc()
		return
	}
	metrics.ScoreUpdates.WithLabelValues("ok").Inc()
}
