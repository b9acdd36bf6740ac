package storage

import (
	"encoding/json"

	"github.com/tidwall/buntdb"
)

// GetValue decodes the json value at key into v. If the key does not exist, v is left untouched
// and found is false.
func (db *DB) GetValue(key string, v interface{}) (found bool, err error) {
	err = db.View(func(tx *buntdb.Tx) error {
		val, err := tx.Get(key)
		if err != nil {
			return err
		}
		return json.Unmarshal([]byte(val), v)
	})
	if err == buntdb.ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

// SetValue stores v as json under key.
func (db *DB) SetValue(key string, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(key, string(b), nil)
		return err
	})
}

// SetDefault stores v under key only if the key is absent. It reports whether v was written.
// The check and the write happen in one bunt transaction.
func (db *DB) SetDefault(key string, v interface{}) (bool, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return false, err
	}
	written := false
	err = db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Get(key)
		if err == nil {
			return nil
		}
		if err != buntdb.ErrNotFound {
			return err
		}
		_, _, err = tx.Set(key, string(b), nil)
		written = err == nil
		return err
	})
	return written, err
}

// UpdateList applies fn to the decoded json list at key and writes the result back atomically.
func (db *DB) UpdateList(key string, fn func(list []int64) []int64) error {
	return db.Update(func(tx *buntdb.Tx) error {
		var list []int64
		val, err := tx.Get(key)
		switch err {
		case nil:
			if err := json.Unmarshal([]byte(val), &list); err != nil {
				return err
			}
		case buntdb.ErrNotFound:
		default:
			return err
		}
		b, err := json.Marshal(fn(list))
		if err != nil {
			return err
		}
		_, _, err = tx.Set(key, string(b), nil)
		return err
	})
}
