package session

import (
	"sync"
	"time"
)

// Task is a handle to a periodic job.
type Task interface {
	Cancel()
}

// Scheduler runs fn every interval until the returned Task is cancelled.
type Scheduler interface {
	Every(interval time.Duration, fn func()) Task
}

// TickerScheduler runs jobs on time.Ticker goroutines.
type TickerScheduler struct{}

type tickerTask struct {
	stop chan struct{}
	once sync.Once
}

func (t *tickerTask) Cancel() {
	t.once.Do(func() { close(t.stop) })
}

// Every starts a goroutine calling fn on each tick.
func (TickerScheduler) Every(interval time.Duration, fn func()) Task {
	t := &tickerTask{stop: make(chan struct{})}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fn()
			case <-t.stop:
				return
			}
		}
	}()
	return t
}

// NopScheduler never fires. Recomputation then happens only on add,
// service updates and explicit Recompute calls.
type NopScheduler struct{}

type nopTask struct{}

func (nopTask) Cancel() {}

func (NopScheduler) Every(time.Duration, func()) Task { return nopTask{} }
