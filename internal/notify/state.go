package notify

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/massmux/SatsZapBot/internal/runtime/mutex"
	"github.com/massmux/SatsZapBot/internal/storage"
	cmap "github.com/orcaman/concurrent-map"
	log "github.com/sirupsen/logrus"
)

const (
	ReasonManual   = "manual"
	ReasonInactive = "auto_inactive"

	keyPrefix = "notify:"
)

// State is the notification record of one user. LastTimestamp never decreases. While
// Initialized is false the next check adopts the history without notifying.
type State struct {
	UserID         int64     `json:"userId"`
	Enabled        bool      `json:"enabled"`
	LastTimestamp  int64     `json:"lastTimestamp"`
	Initialized    bool      `json:"initialized"`
	LastActivity   time.Time `json:"lastActivity"`
	DisabledReason string    `json:"disabledReason,omitempty"`
}

func stateKey(userID int64) string {
	return fmt.Sprintf("%s%d", keyPrefix, userID)
}

// Store persists notification states in bunt and keeps all of them in memory.
// Every mutation is written through before the cache is updated.
type Store struct {
	db    *storage.DB
	cache cmap.ConcurrentMap
	now   func() time.Time
}

func NewStore(db *storage.DB) *Store {
	return &Store{db: db, cache: cmap.New(), now: time.Now}
}

// Load rebuilds the cache from the database.
func (s *Store) Load() error {
	n := 0
	err := s.db.Ascend(keyPrefix+"*", func(key, value string) bool {
		var st State
		if err := json.Unmarshal([]byte(value), &st); err != nil {
			log.Errorf("[notify] skipping %s: %v", key, err)
			return true
		}
		if st.UserID == 0 {
			st.UserID, _ = strconv.ParseInt(strings.TrimPrefix(key, keyPrefix), 10, 64)
		}
		s.cache.Set(strconv.FormatInt(st.UserID, 10), st)
		n++
		return true
	})
	if err != nil {
		return err
	}
	log.Infof("[notify] loaded %d notification states", n)
	return nil
}

func (s *Store) Get(userID int64) (State, bool) {
	st, ok := s.cache.Get(strconv.FormatInt(userID, 10))
	if !ok {
		return State{}, false
	}
	return st.(State), true
}

// States returns a snapshot of all states.
func (s *Store) States() []State {
	states := make([]State, 0, s.cache.Count())
	for item := range s.cache.IterBuffered() {
		states = append(states, item.Val.(State))
	}
	return states
}

func (s *Store) put(st State) error {
	if err := s.db.SetValue(stateKey(st.UserID), st); err != nil {
		return err
	}
	s.cache.Set(strconv.FormatInt(st.UserID, 10), st)
	return nil
}

// update applies fn to the state of userID under the user's lock and persists the result if fn
// reports a change. Absent states are passed as a fresh record with exists false.
func (s *Store) update(userID int64, fn func(st *State, exists bool) bool) (State, error) {
	lock := stateKey(userID)
	mutex.Lock(lock)
	defer mutex.Unlock(lock)
	st, exists := s.Get(userID)
	if !exists {
		st = State{UserID: userID}
	}
	if !fn(&st, exists) {
		return st, nil
	}
	return st, s.put(st)
}

// Enable turns notifications on. Re-enabling marks the cursor for silent adoption so that
// nothing received while disabled is replayed.
func (s *Store) Enable(userID int64) (State, error) {
	return s.update(userID, func(st *State, exists bool) bool {
		if exists && st.Enabled {
			st.LastActivity = s.now()
			return true
		}
		st.Enabled = true
		st.DisabledReason = ""
		st.Initialized = false
		st.LastActivity = s.now()
		return true
	})
}

// EnableDefault enables notifications for users that have no state yet.
func (s *Store) EnableDefault(userID int64) (State, error) {
	return s.update(userID, func(st *State, exists bool) bool {
		if exists {
			return false
		}
		st.Enabled = true
		st.LastActivity = s.now()
		return true
	})
}

func (s *Store) Disable(userID int64, reason string) (State, error) {
	return s.update(userID, func(st *State, exists bool) bool {
		if !exists {
			return false
		}
		st.Enabled = false
		st.DisabledReason = reason
		return true
	})
}

// Touch records user activity. Users paused for inactivity are resumed and their next check
// adopts the history silently.
func (s *Store) Touch(userID int64) (State, error) {
	return s.update(userID, func(st *State, exists bool) bool {
		if !exists {
			return false
		}
		st.LastActivity = s.now()
		if !st.Enabled && st.DisabledReason == ReasonInactive {
			st.Enabled = true
			st.DisabledReason = ""
			st.Initialized = false
			log.Debugf("[notify] resumed notifications of user %d", userID)
		}
		return true
	})
}

// Rewind makes the next check of an existing state adopt the current history without
// notifying. The cursor itself is kept.
func (s *Store) Rewind(userID int64) (State, error) {
	return s.update(userID, func(st *State, exists bool) bool {
		if !exists {
			return false
		}
		st.Initialized = false
		return true
	})
}
