package runtime

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPeriodicTaskRunsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var runs int64
	task := GetTask("test-task", WithDuration(5*time.Millisecond))
	task.Do(ctx, func(ctx context.Context) {
		atomic.AddInt64(&runs, 1)
	})
	assert.Eventually(t, func() bool { return atomic.LoadInt64(&runs) >= 3 }, time.Second, time.Millisecond)
	cancel()
	assert.Eventually(t, func() bool {
		_, ok := taskMap.Get("test-task")
		return !ok
	}, time.Second, time.Millisecond)
}

func TestNewPeriodicTaskDefaultDuration(t *testing.T) {
	task := NewPeriodicTask("default")
	assert.Equal(t, DefaultTickerDuration, task.duration)
}
