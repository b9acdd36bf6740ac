package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type Server struct {
	httpServer *http.Server
	router     *mux.Router
}

const (
	StatusError = "ERROR"
	StatusOk    = "OK"
)

// NewServer creates a server for address. It does not listen before Start.
func NewServer(address string) *Server {
	srv := &http.Server{
		Addr:         address,
		WriteTimeout: 90 * time.Second,
		ReadTimeout:  90 * time.Second,
	}
	apiServer := &Server{
		httpServer: srv,
	}
	apiServer.router = mux.NewRouter()
	apiServer.httpServer.Handler = apiServer.router
	apiServer.AppendRoute("/health", HealthHandler, http.MethodGet)
	return apiServer
}

func (w *Server) Start() {
	go func() {
		if err := w.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("[api] %v", err)
		}
	}()
	log.Infof("[api] Server started at %s", w.httpServer.Addr)
}

func (w *Server) Shutdown(ctx context.Context) error {
	return w.httpServer.Shutdown(ctx)
}

func (w *Server) ServeHTTP(writer http.ResponseWriter, r *http.Request) {
	w.router.ServeHTTP(writer, r)
}

func (w *Server) PathPrefix(path string, handler http.Handler) {
	w.router.PathPrefix(path).Handler(handler)
}

func (w *Server) AppendAuthorizedRoute(path string, token string, handler func(http.ResponseWriter, *http.Request), methods ...string) {
	r := w.router.HandleFunc(path, LoggingMiddleware("API", AuthorizationMiddleware(token, handler)))
	if len(methods) > 0 {
		r.Methods(methods...)
	}
}

func (w *Server) AppendRoute(path string, handler func(http.ResponseWriter, *http.Request), methods ...string) {
	r := w.router.HandleFunc(path, LoggingMiddleware("API", handler))
	if len(methods) > 0 {
		r.Methods(methods...)
	}
}

type StatusResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

func HealthHandler(writer http.ResponseWriter, _ *http.Request) {
	if err := WriteResponse(writer, StatusResponse{Status: StatusOk}); err != nil {
		log.Errorf("[api] %v", err)
	}
}

func NotFoundHandler(writer http.ResponseWriter, err error) {
	log.Errorln(err)
	// return 404 on any error
	http.Error(writer, "404 page not found", http.StatusNotFound)
}

// WriteError answers with status and a json StatusResponse.
func WriteError(writer http.ResponseWriter, status int, reason string) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	if err := json.NewEncoder(writer).Encode(StatusResponse{Status: StatusError, Reason: reason}); err != nil {
		log.Errorf("[api] %v", err)
	}
}

func WriteResponse(writer http.ResponseWriter, response interface{}) error {
	jsonResponse, err := json.Marshal(response)
	if err != nil {
		return err
	}
	writer.Header().Set("Content-Type", "application/json")
	_, err = writer.Write(jsonResponse)
	return err
}
