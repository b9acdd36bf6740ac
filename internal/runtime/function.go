package runtime

import (
	"context"
	"time"

	cmap "github.com/orcaman/concurrent-map"
	log "github.com/sirupsen/logrus"
)

var taskMap cmap.ConcurrentMap

func init() {
	taskMap = cmap.New()
}

var DefaultTickerDuration = time.Second * 10

// PeriodicTask runs a function on every tick until its context is cancelled.
type PeriodicTask struct {
	Ticker   *time.Ticker
	duration time.Duration
	name     string
	Started  bool
}

type PeriodicTaskOption func(*PeriodicTask)

func WithDuration(d time.Duration) PeriodicTaskOption {
	return func(t *PeriodicTask) {
		t.duration = d
	}
}

// GetTask returns the registered task with name or registers a new one.
func GetTask(name string, option ...PeriodicTaskOption) *PeriodicTask {
	if t, ok := taskMap.Get(name); ok {
		return t.(*PeriodicTask)
	}
	t := NewPeriodicTask(name, option...)
	taskMap.Set(name, t)
	return t
}

func RemoveTask(name string) {
	taskMap.Remove(name)
}

func NewPeriodicTask(name string, option ...PeriodicTaskOption) *PeriodicTask {
	t := &PeriodicTask{name: name}
	for _, opt := range option {
		opt(t)
	}
	if t.duration <= 0 {
		t.duration = DefaultTickerDuration
	}
	return t
}

// Do runs f on every tick in a background goroutine. The task is unregistered when ctx is done.
func (t *PeriodicTask) Do(ctx context.Context, f func(ctx context.Context)) {
	if t.Started {
		log.Warnf("[PeriodicTask] %s already started", t.name)
		return
	}
	t.Started = true
	t.Ticker = time.NewTicker(t.duration)
	go func() {
		defer RemoveTask(t.name)
		defer t.Ticker.Stop()
		for {
			select {
			case <-t.Ticker.C:
				f(ctx)
			case <-ctx.Done():
				log.Debugf("[PeriodicTask] %s stopped", t.name)
				return
			}
		}
	}()
}
