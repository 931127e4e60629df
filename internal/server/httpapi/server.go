// Package httpapi exposes the upload protocol, login and notification
// dispatch over HTTP.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophdrop/internal/logging"
	"github.com/dmitrijs2005/gophdrop/internal/server/models"
	"github.com/dmitrijs2005/gophdrop/internal/server/notify"
	"github.com/dmitrijs2005/gophdrop/internal/server/upload"
	"github.com/gorilla/mux"
)

type Uploader interface {
	Probe(ctx context.Context, identifier, filename string, index int) (bool, error)
	Ingest(ctx context.Context, c upload.Chunk) (upload.Result, error)
}

type Dispatcher interface {
	DispatchFolder(ctx context.Context, folder string) (notify.Outcome, error)
}

type Backlog interface {
	Pending(ctx context.Context) ([]models.QueueEntry, error)
}

type Identity interface {
	Login(ctx context.Context, username, password string) (string, error)
	FromToken(ctx context.Context, token string) (*models.User, error)
	Guest() *models.User
	IsAdmin(u *models.User) bool
}

type HTTPServer struct {
	address       string
	uploads       Uploader
	dispatcher    Dispatcher
	backlog       Backlog
	users         Identity
	logger        logging.Logger
	maxUploadSize int64
}

func NewHTTPServer(a string, l logging.Logger, u Uploader, d Dispatcher, b Backlog, id Identity, maxUploadSize int64) *HTTPServer {
	return &HTTPServer{
		address:       a,
		uploads:       u,
		dispatcher:    d,
		backlog:       b,
		users:         id,
		logger:        l.With("module", "http_server"),
		maxUploadSize: maxUploadSize,
	}
}

// Handler builds the routed handler with its middleware chain.
func (s *HTTPServer) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.requestID, s.accessLog)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)

	authed := api.NewRoute().Subrouter()
	authed.Use(s.identity, s.uploader)
	authed.HandleFunc("/upload", s.handleProbe).Methods(http.MethodGet)
	authed.HandleFunc("/upload", s.handleUpload).Methods(http.MethodPost)

	admin := api.PathPrefix("/notifications").Subrouter()
	admin.Use(s.identity, s.adminOnly)
	admin.HandleFunc("", s.handlePending).Methods(http.MethodGet)
	admin.HandleFunc("/dispatch", s.handleDispatch).Methods(http.MethodPost)

	return r
}

func (s *HTTPServer) Run(ctx context.Context) error {

	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
