package rate

import (
	"context"
	"strconv"
	"sync"

	"golang.org/x/time/rate"
	tb "gopkg.in/lightningtipbot/telebot.v3"
)

// Limiter keeps one rate limiter per chat.
type Limiter struct {
	keys map[string]*rate.Limiter
	mu   *sync.RWMutex
	r    rate.Limit
	b    int
}

var idLimiter *Limiter
var globalLimiter *rate.Limiter

// Start creates both chat and global rate limiters.
func Start() {
	idLimiter = newIdRateLimiter(rate.Limit(0.3), 20)
	globalLimiter = rate.NewLimiter(rate.Limit(30), 30)
}

func newIdRateLimiter(r rate.Limit, b int) *Limiter {
	return &Limiter{
		keys: make(map[string]*rate.Limiter),
		mu:   &sync.RWMutex{},
		r:    r,
		b:    b,
	}
}

// CheckLimit blocks until both the global limiter and the limiter of the recipient allow a message.
func CheckLimit(ctx context.Context, to interface{}) error {
	if globalLimiter == nil {
		return nil
	}
	if err := globalLimiter.Wait(ctx); err != nil {
		return err
	}
	id := recipientID(to)
	if len(id) > 0 {
		return idLimiter.GetLimiter(id).Wait(ctx)
	}
	return nil
}

func recipientID(to interface{}) string {
	switch r := to.(type) {
	case *tb.Chat:
		return strconv.FormatInt(r.ID, 10)
	case *tb.User:
		return strconv.FormatInt(r.ID, 10)
	case *tb.Message:
		if r.Chat != nil {
			return strconv.FormatInt(r.Chat.ID, 10)
		}
	case tb.Recipient:
		return r.Recipient()
	}
	return ""
}

// Add creates a new rate limiter and adds it to the keys map.
func (i *Limiter) Add(key string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()
	if limiter, exists := i.keys[key]; exists {
		return limiter
	}
	limiter := rate.NewLimiter(i.r, i.b)
	i.keys[key] = limiter
	return limiter
}

// GetLimiter returns the rate limiter for key, creating it if needed.
func (i *Limiter) GetLimiter(key string) *rate.Limiter {
	i.mu.RLock()
	limiter, exists := i.keys[key]
	i.mu.RUnlock()
	if !exists {
		return i.Add(key)
	}
	return limiter
}
