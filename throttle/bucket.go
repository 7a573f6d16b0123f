package throttle

import (
	"sync"
	"time"
)

// Bucket is one caller's token bucket. Tokens come back in whole periods,
// so a partial period never adds anything.
type Bucket struct {
	mu     sync.Mutex
	conf   *BucketConf
	tokens int
	since  time.Time // start of the current, not yet credited, period
	seen   time.Time
}

func newBucket(conf *BucketConf, now time.Time) *Bucket {
	return &Bucket{conf: conf, tokens: conf.Burst, since: now, seen: now}
}

// take consumes a token. When empty it reports how long until the next refill.
func (b *Bucket) take(now time.Time) (bool, time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seen = now
	if periods := now.Sub(b.since) / b.conf.Period; periods > 0 {
		b.tokens = min(b.conf.Burst, b.tokens+int(periods)*b.conf.Increment)
		b.since = b.since.Add(periods * b.conf.Period)
	}
	if b.tokens == 0 {
		return false, b.since.Add(b.conf.Period).Sub(now)
	}
	b.tokens--
	return true, 0
}

func (b *Bucket) lastSeen() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.seen
}
