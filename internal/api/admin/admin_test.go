package admin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/massmux/SatsZapBot/internal/api"
	"github.com/massmux/SatsZapBot/internal/notify"
	"github.com/massmux/SatsZapBot/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticReporter notify.Report

func (r staticReporter) LastReport() notify.Report {
	return notify.Report(r)
}

func newTestServer(t *testing.T, token string) (*api.Server, *notify.Store) {
	db, err := storage.NewBunt(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	store := notify.NewStore(db)
	server := api.NewServer("127.0.0.1:0")
	New(store, staticReporter{Checked: 3, Notified: 1}).Register(server, token)
	return server, store
}

func do(server *api.Server, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	server, _ := newTestServer(t, "")
	rec := do(server, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"OK"}`, rec.Body.String())
}

func TestNotificationLifecycle(t *testing.T) {
	server, store := newTestServer(t, "")

	rec := do(server, http.MethodGet, "/admin/notifications/42", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(server, http.MethodPost, "/admin/notifications/42/enable", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var st notify.State
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.True(t, st.Enabled)
	assert.Equal(t, int64(42), st.UserID)

	rec = do(server, http.MethodPost, "/admin/notifications/42/disable", "")
	require.Equal(t, http.StatusOK, rec.Code)
	stored, ok := store.Get(42)
	require.True(t, ok)
	assert.False(t, stored.Enabled)
	assert.Equal(t, notify.ReasonManual, stored.DisabledReason)

	rec = do(server, http.MethodGet, "/admin/notifications/42", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.False(t, st.Enabled)
}

func TestDisableUnknownUser(t *testing.T) {
	server, _ := newTestServer(t, "")
	rec := do(server, http.MethodPost, "/admin/notifications/7/disable", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInvalidUserID(t *testing.T) {
	server, _ := newTestServer(t, "")
	rec := do(server, http.MethodGet, "/admin/notifications/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWrongMethod(t *testing.T) {
	server, _ := newTestServer(t, "")
	rec := do(server, http.MethodGet, "/admin/notifications/42/enable", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestPollerReport(t *testing.T) {
	server, _ := newTestServer(t, "")
	rec := do(server, http.MethodGet, "/admin/poller", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var report notify.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 3, report.Checked)
	assert.Equal(t, 1, report.Notified)
}

func TestToken(t *testing.T) {
	server, _ := newTestServer(t, "secret")
	assert.Equal(t, http.StatusUnauthorized, do(server, http.MethodGet, "/admin/poller", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(server, http.MethodGet, "/admin/poller", "wrong").Code)
	assert.Equal(t, http.StatusOK, do(server, http.MethodGet, "/admin/poller", "secret").Code)
	// health stays public
	assert.Equal(t, http.StatusOK, do(server, http.MethodGet, "/health", "").Code)
}
