package mutex

import (
	"sync"
	"sync/atomic"

	cmap "github.com/orcaman/concurrent-map"
	log "github.com/sirupsen/logrus"
)

var mutexMap cmap.ConcurrentMap

// held counts the locks currently taken. GracefulShutdown waits for it to drop to zero.
var held int64

func init() {
	mutexMap = cmap.New()
}

func get(s string) *sync.Mutex {
	mutexMap.SetIfAbsent(s, &sync.Mutex{})
	m, _ := mutexMap.Get(s)
	return m.(*sync.Mutex)
}

// Lock locks the mutex for key s, creating it on first use.
func Lock(s string) {
	log.Tracef("[Mutex] Attempt Lock %s", s)
	get(s).Lock()
	atomic.AddInt64(&held, 1)
	log.Tracef("[Mutex] Lock %s", s)
}

// Unlock unlocks the mutex for key s.
func Unlock(s string) {
	m, ok := mutexMap.Get(s)
	if !ok {
		log.Errorf("[Mutex] ⚠⚠⚠️ Unlock %s not in mutexMap. Skip.", s)
		return
	}
	atomic.AddInt64(&held, -1)
	m.(*sync.Mutex).Unlock()
	log.Tracef("[Mutex] Unlock %s", s)
}

// IsEmpty reports whether no mutex is currently held.
func IsEmpty() bool {
	return atomic.LoadInt64(&held) == 0
}
