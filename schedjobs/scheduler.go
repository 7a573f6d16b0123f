package schedjobs

import (
	"context"
	"errors"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/zeptools/gw-pdfedit/svc"
)

// Scheduler checks its jobs at every minute boundary. Stopping waits for
// running jobs before Done fires.
type Scheduler struct {
	Ctx    context.Context
	cancel context.CancelFunc
	state  int
	done   chan error

	mu      sync.Mutex
	jobs    []*Job
	running sync.WaitGroup

	OnJobFinished func(job *Job, err error) // optional, after the job's own OnFinished
}

// Ensure Scheduler implements svc.Service
var _ svc.Service = (*Scheduler)(nil)

func NewScheduler(parentCtx context.Context) *Scheduler {
	ctx, cancel := context.WithCancel(parentCtx)
	return &Scheduler{
		Ctx:    ctx,
		cancel: cancel,
		state:  svc.StateREADY,
		done:   make(chan error, 1),
	}
}

func (s *Scheduler) Name() string {
	return "JobScheduler"
}

func (s *Scheduler) Start() error {
	if s.state != svc.StateREADY {
		return errors.New("cannot start. not ready")
	}
	s.state = svc.StateRUNNING
	log.Printf("[INFO][Scheduler] started with %d jobs", len(s.Jobs()))
	go s.tick()
	return nil
}

func (s *Scheduler) Stop() {
	if s.state != svc.StateRUNNING {
		log.Println("[ERROR][Scheduler] cannot stop. not running")
		return
	}
	s.state = svc.StateSTOPPED
	s.cancel()
}

func (s *Scheduler) Done() <-chan error {
	return s.done
}

func nextMinute(t time.Time) time.Duration {
	return time.Until(t.Truncate(time.Minute).Add(time.Minute))
}

func (s *Scheduler) tick() {
	timer := time.NewTimer(nextMinute(time.Now()))
	defer timer.Stop()
	for {
		select {
		case <-s.Ctx.Done():
			s.running.Wait()
			log.Println("[INFO][Scheduler] stopped")
			s.done <- nil
			return
		case now := <-timer.C:
			s.RunDue(now)
			timer.Reset(nextMinute(now))
		}
	}
}

// RunDue launches every job whose schedule matches now, returning the count
func (s *Scheduler) RunDue(now time.Time) int {
	n := 0
	for _, job := range s.Jobs() {
		if job.Schedule.Matches(now) {
			s.launch(job)
			n++
		}
	}
	return n
}

func (s *Scheduler) launch(job *Job) {
	s.running.Add(1)
	go func() {
		defer s.running.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[PANIC][Scheduler] job %s: %v", job.ID, r)
			}
		}()
		err := job.Task(s.Ctx)
		if err != nil {
			log.Printf("[ERROR][Scheduler] job %s: %v", job.ID, err)
		}
		if job.OnFinished != nil {
			job.OnFinished(err)
		}
		if s.OnJobFinished != nil {
			s.OnJobFinished(job, err)
		}
	}()
}

func (s *Scheduler) Add(job *Job) {
	s.mu.Lock()
	s.jobs = append(s.jobs, job)
	s.mu.Unlock()
	log.Printf("[INFO][Scheduler] job %s added", job.ID)
}

func (s *Scheduler) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = slices.DeleteFunc(s.jobs, func(j *Job) bool { return j.ID == id })
}

// Jobs returns a snapshot of the registered jobs
func (s *Scheduler) Jobs() []*Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.jobs)
}

// Wait blocks until launched jobs return
func (s *Scheduler) Wait() {
	s.running.Wait()
}
