package storage

import (
	"encoding/json"
	"time"

	"github.com/eko/gocache/store"
	gocache "github.com/patrickmn/go-cache"
	"github.com/tidwall/buntdb"
)

// Storable is anything that can be serialized into the bunt database under its own key.
type Storable interface {
	Key() string
}

type DB struct {
	*buntdb.DB
	cache *store.GoCacheStore
}

// NewBunt opens the bunt database at path. Use ":memory:" for a volatile database.
func NewBunt(path string) (*DB, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, err
	}
	return &DB{
		DB:    db,
		cache: store.NewGoCache(gocache.New(5*time.Minute, 10*time.Minute), nil),
	}, nil
}

// Get loads the object with the key of s into s.
func (db *DB) Get(s Storable) error {
	return db.View(func(tx *buntdb.Tx) error {
		val, err := tx.Get(s.Key())
		if err != nil {
			return err
		}
		return json.Unmarshal([]byte(val), s)
	})
}

// Set stores s as json under its key.
func (db *DB) Set(s Storable) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(s.Key(), string(b), nil)
		return err
	})
}

// Ascend calls fn for every key matching pattern in ascending key order until fn returns false.
func (db *DB) Ascend(pattern string, fn func(key, value string) bool) error {
	return db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys(pattern, fn)
	})
}
