package throttle

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/zeptools/gw-pdfedit/svc"
)

// BucketStore keeps per-group token buckets and, as a service, sweeps out idle ones
type BucketStore[K comparable] struct {
	Ctx    context.Context
	cancel context.CancelFunc
	state  int
	done   chan error

	sweepEvery time.Duration
	idleTTL    time.Duration
	groups     map[string]*BucketGroup[K] // written only before Start
}

// Ensure BucketStore implements svc.Service
var _ svc.Service = (*BucketStore[string])(nil)

func NewBucketStore[K comparable](parentCtx context.Context, sweepEvery time.Duration, idleTTL time.Duration) *BucketStore[K] {
	ctx, cancel := context.WithCancel(parentCtx)
	return &BucketStore[K]{
		Ctx:        ctx,
		cancel:     cancel,
		state:      svc.StateREADY,
		done:       make(chan error, 1),
		sweepEvery: sweepEvery,
		idleTTL:    idleTTL,
		groups:     make(map[string]*BucketGroup[K]),
	}
}

func (s *BucketStore[K]) Name() string {
	return "ThrottleBucketStore"
}

func (s *BucketStore[K]) Start() error {
	switch s.state {
	case svc.StateREADY:
	case svc.StateRUNNING:
		return errors.New("already started")
	default:
		return errors.New("cannot start. not ready")
	}
	s.state = svc.StateRUNNING
	log.Printf("[INFO][Throttle] sweeping every %v, idle ttl %v", s.sweepEvery, s.idleTTL)
	go s.loop()
	return nil
}

func (s *BucketStore[K]) Stop() {
	if s.state != svc.StateRUNNING {
		log.Println("[ERROR][Throttle] cannot stop. not running")
		return
	}
	s.state = svc.StateSTOPPED
	s.cancel()
}

func (s *BucketStore[K]) Done() <-chan error {
	return s.done
}

func (s *BucketStore[K]) loop() {
	t := time.NewTicker(s.sweepEvery)
	defer t.Stop()
	for {
		select {
		case <-s.Ctx.Done():
			log.Println("[INFO][Throttle] stopped")
			s.done <- nil
			return
		case now := <-t.C:
			s.safeCleanup(now)
		}
	}
}

func (s *BucketStore[K]) safeCleanup(now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[PANIC][Throttle] cleanup: %v", r)
		}
	}()
	if n := s.Cleanup(now); n > 0 {
		log.Printf("[DEBUG][Throttle] %d idle buckets removed", n)
	}
}

// Cleanup removes buckets idle for longer than the ttl
func (s *BucketStore[K]) Cleanup(now time.Time) int {
	n := 0
	for _, g := range s.groups {
		n += g.sweep(now.Add(-s.idleTTL))
	}
	return n
}

// SetBucketGroup registers a group. Groups must all be set before Start.
func (s *BucketStore[K]) SetBucketGroup(id string, conf *BucketConf) {
	conf.Normalize()
	s.groups[id] = &BucketGroup[K]{conf: conf}
}

func (s *BucketStore[K]) GetBucket(groupID string, key K) (*Bucket, bool) {
	g, ok := s.groups[groupID]
	if !ok {
		return nil, false
	}
	return g.GetBucket(key)
}

// Take consumes a token of key in the group. A refused caller gets the wait
// until its next token. Unknown groups refuse everything.
func (s *BucketStore[K]) Take(groupID string, key K, now time.Time) (bool, time.Duration) {
	g, ok := s.groups[groupID]
	if !ok {
		return false, 0
	}
	return g.bucket(key, now).take(now)
}

func (s *BucketStore[K]) Allow(groupID string, key K, now time.Time) bool {
	ok, _ := s.Take(groupID, key, now)
	return ok
}
