package session

import (
	"sync"
	"time"
)

// Scheduler runs f once after d. Nothing is ever cancelled; scheduled
// computer moves check their generation when they fire.
type Scheduler interface {
	AfterFunc(d time.Duration, f func())
}

type timerScheduler struct{}

func (timerScheduler) AfterFunc(d time.Duration, f func()) { time.AfterFunc(d, f) }

// ManualScheduler queues tasks until Fire is called. Used by tests and by
// front ends that want to step the computer explicitly.
type ManualScheduler struct {
	mu    sync.Mutex
	tasks []func()
}

func NewManualScheduler() *ManualScheduler { return &ManualScheduler{} }

func (m *ManualScheduler) AfterFunc(_ time.Duration, f func()) {
	m.mu.Lock()
	m.tasks = append(m.tasks, f)
	m.mu.Unlock()
}

// Pending returns the number of queued tasks.
func (m *ManualScheduler) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// Fire runs every task queued so far, oldest first, and returns how many ran.
// Tasks queued while firing wait for the next call.
func (m *ManualScheduler) Fire() int {
	m.mu.Lock()
	tasks := m.tasks
	m.tasks = nil
	m.mu.Unlock()
	for _, f := range tasks {
		f()
	}
	return len(tasks)
}
