package score_test

import (
	"math"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/riskgate/riskgate/internal/config"
	"github.com/riskgate/riskgate/internal/score"
)

const scoreKey = "risk:scores:user_123:device_456"

func testConf() config.ScoreConf {
	return config.ScoreConf{Delta: 0.1, TTLHours: 7 * 24, Workers: 4, QueueDepth: 256}
}

func newTestSetup(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func keyValue(t *testing.T, mr *miniredis.Miniredis) float64 {
	t.Helper()
	raw, err := mr.Get(scoreKey)
	if err != nil {
		t.Fatalf("get %s: %v", scoreKey, err)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return v
}

func TestRecord_IncrementAndExpiry(t *testing.T) {
	mr, client := newTestSetup(t)
	rec := score.NewRecorder(client, testConf())

	for i := 0; i < 5; i++ {
		rec.Record("user_123", "device_456")
	}
	rec.Stop() // drains the queue

	if v := keyValue(t, mr); math.Abs(v-0.5) > 1e-6 {
		t.Errorf("counter = %v, want ≈0.5", v)
	}
	if ttl := mr.TTL(scoreKey); ttl != 7*24*time.Hour {
		t.Errorf("ttl = %v, want 168h", ttl)
	}
}

func TestRecord_ExpirySetOnlyOnCreation(t *testing.T) {
	mr, client := newTestSetup(t)

	rec := score.NewRecorder(client, testConf())
	rec.Record("user_123", "device_456")
	rec.Stop()

	mr.FastForward(time.Hour)

	// A later increment must not refresh the expiry.
	rec = score.NewRecorder(client, testConf())
	rec.Record("user_123", "device_456")
	rec.Stop()

	if ttl := mr.TTL(scoreKey); ttl != 7*24*time.Hour-time.Hour {
		t.Errorf("ttl = %v, want 167h (second increment must not reset it)", ttl)
	}
	if v := keyValue(t, mr); math.Abs(v-0.2) > 1e-6 {
		t.Errorf("counter = %v, want ≈0.2", v)
	}
}

func TestRecord_ConcurrentTriggers(t *testing.T) {
	mr, client := newTestSetup(t)
	rec := score.NewRecorder(client, testConf())

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec.Record("user_123", "device_456")
		}()
	}
	wg.Wait()
	rec.Stop()

	if v := keyValue(t, mr); math.Abs(v-n*0.1) > 1e-6 {
		t.Errorf("counter = %v, want ≈%v", v, n*0.1)
	}
}

func TestRecord_IncompleteIdentityIgnored(t *testing.T) {
	mr, client := newTestSetup(t)
	rec := score.NewRecorder(client, testConf())

	rec.Record("", "device_456")
	rec.Record("user_123", "")
	rec.Stop()

	if keys := mr.Keys(); len(keys) != 0 {
		t.Errorf("expected no score keys, got %v", keys)
	}
}

func TestRecord_StoreDownIsSwallowed(t *testing.T) {
	mr, client := newTestSetup(t)
	mr.Close()

	rec := score.NewRecorder(client, testConf())
	rec.Record("user_123", "device_456")
	rec.Stop() // must not panic or block
}

func TestStop_Idempotent(t *testing.T) {
	_, client := newTestSetup(t)
	rec := score.NewRecorder(client, testConf())
	rec.Stop()
	rec.Stop()
}
