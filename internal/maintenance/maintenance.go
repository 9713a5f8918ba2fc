// Package maintenance periodically sweeps expired in-memory state: cooldown
// entries and stale trigger cache entries.
package maintenance

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"replybot/internal/cooldown"
	"replybot/internal/trigger"
)

// Task removes expired entries and reports how many it removed.
type Task struct {
	Name string
	Run  func() int
}

func CooldownTask(name string, l *cooldown.Limiter) Task {
	return Task{Name: name, Run: l.Sweep}
}

func CacheTask(c *trigger.Cache) Task {
	return Task{Name: "trigger-cache", Run: c.Sweep}
}

type Scheduler struct {
	cron  *cron.Cron
	spec  string
	tasks []Task

	mu sync.Mutex // one sweep at a time
}

// New creates a scheduler that runs tasks on spec, e.g. "@every 1m".
func New(spec string, tasks ...Task) *Scheduler {
	return &Scheduler{
		cron:  cron.New(cron.WithLocation(time.UTC)),
		spec:  spec,
		tasks: tasks,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.RunOnce() }); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.spec, err)
	}
	s.cron.Start()
	log.Printf("[INFO] Maintenance scheduled (%s) with %d task(s)", s.spec, len(s.tasks))
	return nil
}

// Stop waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Println("[INFO] Maintenance stopped")
}

// RunOnce runs every task now and returns the removed count per task.
func (s *Scheduler) RunOnce() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := make(map[string]int, len(s.tasks))
	for _, t := range s.tasks {
		n := s.runTask(t)
		removed[t.Name] = n
		if n > 0 {
			log.Printf("[DEBUG] Maintenance %s removed %d expired entries", t.Name, n)
		}
	}
	return removed
}

func (s *Scheduler) runTask(t Task) (n int) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[ERR] Maintenance task %s panicked: %v", t.Name, r)
			n = 0
		}
	}()
	return t.Run()
}
