package throttle

import (
	"sync"
	"time"
)

// BucketGroup holds the buckets of all callers sharing one BucketConf
type BucketGroup[K comparable] struct {
	conf    *BucketConf
	buckets sync.Map // K -> *Bucket
}

func (g *BucketGroup[K]) GetBucket(id K) (*Bucket, bool) {
	v, ok := g.buckets.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*Bucket), true
}

// bucket returns the bucket of id, handing out a full one on first use
func (g *BucketGroup[K]) bucket(id K, now time.Time) *Bucket {
	if b, ok := g.GetBucket(id); ok {
		return b
	}
	v, _ := g.buckets.LoadOrStore(id, newBucket(g.conf, now))
	return v.(*Bucket)
}

// sweep drops buckets unused since cutoff and returns how many went
func (g *BucketGroup[K]) sweep(cutoff time.Time) int {
	n := 0
	g.buckets.Range(func(id, v any) bool {
		if v.(*Bucket).lastSeen().Before(cutoff) {
			g.buckets.Delete(id)
			n++
		}
		return true
	})
	return n
}
