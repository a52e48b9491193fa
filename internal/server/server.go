package server // import "github.com/Xunop/e-shelf/internal/server"

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	v1 "github.com/Xunop/e-shelf/internal/api/v1"
	"github.com/Xunop/e-shelf/internal/config"
	"github.com/Xunop/e-shelf/internal/library"
	"github.com/Xunop/e-shelf/internal/log"
	"github.com/Xunop/e-shelf/internal/middleware"
	"github.com/Xunop/e-shelf/internal/reader"
	"github.com/Xunop/e-shelf/internal/storage"
	"github.com/Xunop/e-shelf/internal/store"
	"github.com/Xunop/e-shelf/internal/version"
	"github.com/Xunop/e-shelf/internal/worker"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Server ties the reader engine and its persistence to the HTTP listener.
// The engine lives exactly as long as the server.
type Server struct {
	httpServer *http.Server
	listener   net.Listener
	store      *store.Store
	engine     *reader.Engine
	pool       *worker.PersistPool
	serveErr   chan error
}

func NewServer(ctx context.Context, s *store.Store) (*Server, error) {
	// Nothing can be open before the reader starts, flags left by a crash
	// are stale.
	n, err := s.ResetOpenFlags(ctx)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		log.Warn("Reset books left open", zap.Int64("count", n))
	}

	pool := worker.NewPersistPool(s, config.Opts.PersistWorkers,
		time.Duration(config.Opts.PersistTimeoutMs)*time.Millisecond)
	engine := reader.NewEngine(reader.ConfigFrom(config.Opts), pool)
	lib := library.NewService(s, storage.NewLocalStorage(config.Opts.Data), library.NewPDFInspector(), engine, pool)

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", config.Opts.Host, config.Opts.Port),
			Handler:           setupHandler(s, lib, engine),
			ReadHeaderTimeout: 10 * time.Second,
		},
		store:    s,
		engine:   engine,
		pool:     pool,
		serveErr: make(chan error, 1),
	}, nil
}

// Start runs the reader engine and starts serving HTTP in the background.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", s.httpServer.Addr)
	}
	s.listener = ln

	go func() {
		if err := s.engine.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Reader engine stopped", zap.Error(err))
		}
	}()
	go func() {
		log.Info("Starting HTTP server", zap.String("addr", ln.Addr().String()))
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", zap.Error(err))
			s.serveErr <- err
		}
		close(s.serveErr)
	}()
	return nil
}

// Addr returns the address the server listens on.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.httpServer.Addr
	}
	return s.listener.Addr().String()
}

// Err is closed when serving stops, after delivering the error if it failed.
func (s *Server) Err() <-chan error { return s.serveErr }

// Shutdown stops accepting requests, closes the open book and waits for the
// queued snapshots to be written.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)

	s.engine.Stop()
	select {
	case <-s.engine.Done():
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "reader engine did not stop")
	}

	if perr := s.pool.Close(ctx); perr != nil && err == nil {
		err = perr
	}
	return err
}

func setupHandler(s *store.Store, lib *library.Service, engine *reader.Engine) http.Handler {
	router := mux.NewRouter()

	v1.Server(router, v1.NewHandler(lib, engine), middleware.NewMiddleware(""))

	router.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if err := s.Ping(); err != nil {
			log.Error("Database ping failed", zap.Error(err))
			http.Error(w, "Database Connection Error", http.StatusInternalServerError)
			return
		}

		w.Write([]byte("OK"))
	}).Name("healthcheck")

	router.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(version.GetCurrentVersion()))
	}).Name("version")

	return router
}
