package admin

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/massmux/SatsZapBot/internal/api"
	"github.com/massmux/SatsZapBot/internal/notify"
	log "github.com/sirupsen/logrus"
)

func userID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid user id %q", mux.Vars(r)["id"])
	}
	return id, nil
}

func (s Service) GetNotifications(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	st, ok := s.notifications.Get(id)
	if !ok {
		api.WriteError(w, http.StatusNotFound, "no notification state")
		return
	}
	if err := api.WriteResponse(w, st); err != nil {
		log.Errorf("[ADMIN] %v", err)
	}
}

func (s Service) EnableNotifications(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	st, err := s.notifications.Enable(id)
	if err != nil {
		log.Errorf("[ADMIN] could not enable notifications of %d: %v", id, err)
		api.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	log.Infof("[ADMIN] enabled notifications of %d", id)
	if err := api.WriteResponse(w, st); err != nil {
		log.Errorf("[ADMIN] %v", err)
	}
}

func (s Service) DisableNotifications(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, ok := s.notifications.Get(id); !ok {
		api.WriteError(w, http.StatusNotFound, "no notification state")
		return
	}
	st, err := s.notifications.Disable(id, notify.ReasonManual)
	if err != nil {
		log.Errorf("[ADMIN] could not disable notifications of %d: %v", id, err)
		api.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	log.Infof("[ADMIN] disabled notifications of %d", id)
	if err := api.WriteResponse(w, st); err != nil {
		log.Errorf("[ADMIN] %v", err)
	}
}

// PollerReport returns the report of the last poll cycle.
func (s Service) PollerReport(w http.ResponseWriter, r *http.Request) {
	if err := api.WriteResponse(w, s.poller.LastReport()); err != nil {
		log.Errorf("[ADMIN] %v", err)
	}
}

// Register appends the admin routes to s.
func (s Service) Register(server *api.Server, token string) {
	server.AppendAuthorizedRoute("/admin/notifications/{id}", token, s.GetNotifications, http.MethodGet)
	server.AppendAuthorizedRoute("/admin/notifications/{id}/enable", token, s.EnableNotifications, http.MethodPost)
	server.AppendAuthorizedRoute("/admin/notifications/{id}/disable", token, s.DisableNotifications, http.MethodPost)
	server.AppendAuthorizedRoute("/admin/poller", token, s.PollerReport, http.MethodGet)
}
