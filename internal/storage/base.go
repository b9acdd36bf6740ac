package storage

import (
	"time"

	"github.com/eko/gocache/store"
	log "github.com/sirupsen/logrus"
)

const cacheExpiration = 5 * time.Minute

type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created"`
	UpdatedAt time.Time `json:"updated"`
}

type Option func(b *Base)

func ID(id string) Option {
	return func(b *Base) {
		b.ID = id
	}
}

func New(opts ...Option) *Base {
	b := &Base{
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b Base) Key() string {
	return b.ID
}

// Get returns the cached object for the key of s, falling back to the database.
func (b *Base) Get(s Storable, db *DB) (Storable, error) {
	cached, err := db.cache.Get(s.Key())
	if err != nil {
		err := db.Get(s)
		if err != nil {
			return s, err
		}
		log.Tracef("[Bunt] get object %s", s.Key())
		return s, db.cache.Set(s.Key(), s, &store.Options{Expiration: cacheExpiration})
	}
	log.Tracef("[Bunt Cache] get object %s", s.Key())
	return cached.(Storable), nil
}

func (b *Base) Set(s Storable, db *DB) error {
	b.UpdatedAt = time.Now()
	err := db.Set(s)
	if err != nil {
		log.Errorf("[Bunt] could not set object: %v", err)
		return err
	}
	log.Tracef("[Bunt] set object %s", s.Key())
	err = db.cache.Set(s.Key(), s, &store.Options{Expiration: cacheExpiration})
	if err != nil {
		log.Errorf("[Bunt Cache] could not set object: %v", err)
	}
	return err
}
