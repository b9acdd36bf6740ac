package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	*Base
	Value string `json:"value"`
}

func newTestDB(t *testing.T) *DB {
	db, err := NewBunt(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestBaseSetGet(t *testing.T) {
	db := newTestDB(t)
	r := &record{Base: New(ID("record:1")), Value: "a"}
	require.NoError(t, r.Set(r, db))

	loaded := &record{Base: New(ID("record:1"))}
	s, err := loaded.Get(loaded, db)
	require.NoError(t, err)
	assert.Equal(t, "a", s.(*record).Value)

	// bypass the cache
	fresh := &record{Base: New(ID("record:1"))}
	require.NoError(t, db.Get(fresh))
	assert.Equal(t, "a", fresh.Value)
}

func TestSetDefault(t *testing.T) {
	db := newTestDB(t)
	written, err := db.SetDefault("k", "first")
	require.NoError(t, err)
	assert.True(t, written)

	written, err = db.SetDefault("k", "second")
	require.NoError(t, err)
	assert.False(t, written)

	var v string
	found, err := db.GetValue("k", &v)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "first", v)

	found, err = db.GetValue("missing", &v)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestUpdateListAndAscend(t *testing.T) {
	db := newTestDB(t)
	for _, id := range []int64{3, 1, 3} {
		id := id
		require.NoError(t, db.UpdateList("users", func(list []int64) []int64 {
			for _, existing := range list {
				if existing == id {
					return list
				}
			}
			return append(list, id)
		}))
	}
	var users []int64
	_, err := db.GetValue("users", &users)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 1}, users)

	require.NoError(t, db.SetValue("notify:1", map[string]bool{"enabled": true}))
	require.NoError(t, db.SetValue("notify:2", map[string]bool{"enabled": false}))
	var keys []string
	require.NoError(t, db.Ascend("notify:*", func(key, value string) bool {
		keys = append(keys, key)
		return true
	}))
	assert.Equal(t, []string{"notify:1", "notify:2"}, keys)
}
