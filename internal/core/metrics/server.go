package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dep2p/go-quictun/internal/util/logger"
	"github.com/dep2p/go-quictun/pkg/types"
)

var log = logger.Logger("metrics")

// DefaultPath 默认指标路径
const DefaultPath = "/metrics"

// Server 指标 HTTP 服务
type Server struct {
	collector *Collector
	router    *mux.Router
	path      string

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
	done     chan struct{}
}

// NewServer 创建指标服务，path 为空时使用 DefaultPath
func NewServer(collector *Collector, path string) *Server {
	if path == "" {
		path = DefaultPath
	}
	s := &Server{
		collector: collector,
		router:    mux.NewRouter(),
		path:      path,
	}

	handler := promhttp.HandlerFor(collector.Registry(), promhttp.HandlerOpts{
		Registry: collector.Registry(),
	})
	s.router.Handle(path, handler).Methods(http.MethodGet)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	return s
}

// ServeHTTP 实现 http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.collector.Snapshot()); err != nil {
		log.Warn("failed to write stats response", "err", err)
	}
}

// Start 在 addr 上开始服务
func (s *Server) Start(addr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return fmt.Errorf("%w: metrics server already started", types.ErrConfig)
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("%w: metrics listen %s: %w", types.ErrTransport, addr, err)
	}

	s.listener = ln
	s.server = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.done = make(chan struct{})

	go func(srv *http.Server, done chan struct{}) {
		defer close(done)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server stopped", "err", err)
		}
	}(s.server, s.done)

	log.Info("metrics server listening", "addr", ln.Addr(), "path", s.path)
	return nil
}

// Addr 返回监听地址，未启动时为 nil
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop 优雅关闭服务
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv, done := s.server, s.done
	s.server, s.listener = nil, nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	err := srv.Shutdown(ctx)
	<-done
	return err
}
