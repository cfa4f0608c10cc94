package util

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// shutdownGrace bounds how long a restart waits for open requests.
var shutdownGrace = 5 * time.Second

// MonitorServer serves the status endpoints. It can be restarted in place
// when the listen address changes.
type MonitorServer struct {
	running *sync.Mutex
	srv     *http.Server
	srvMu   sync.RWMutex // protects srv field
	mux     *http.ServeMux
	addr    string
	hooks   []func()
}

func NewMonitorServer() *MonitorServer {
	var s MonitorServer
	s.running = &sync.Mutex{}
	s.srv = &http.Server{}
	s.mux = http.NewServeMux()
	return &s
}

// listenAddr is the fixed address if one was set, else the configured one.
func (s *MonitorServer) listenAddr() string {
	if s.addr != "" {
		return s.addr
	}
	return Config.GetString("listen")
}

func (s *MonitorServer) Start() error {
	if !s.running.TryLock() {
		return fmt.Errorf("already running")
	}
	newSrv := &http.Server{Addr: s.listenAddr(), Handler: s.mux}
	for _, fn := range s.hooks {
		newSrv.RegisterOnShutdown(fn)
	}
	s.srvMu.Lock()
	s.srv = newSrv
	s.srvMu.Unlock()

	go func() {
		defer s.running.Unlock()
		Logger.Info().Msgf("monitor server listening on %s", newSrv.Addr)
		if err := newSrv.ListenAndServe(); err != http.ErrServerClosed {
			Logger.Warn().Msgf("Problem loading monitor server: %v", err)
		}
		Logger.Debug().Msg("monitor server shutdown")
	}()
	return nil
}

func (s *MonitorServer) AddHandler(path string, handler func(http.ResponseWriter, *http.Request)) {
	s.mux.HandleFunc(path, handler)
}

func (s *MonitorServer) AddRawHandler(path string, handler http.Handler) {
	s.mux.Handle(path, handler)
}

// OnShutdown registers fn to run whenever the listener shuts down, so
// long-lived handlers can return. Register before Start.
func (s *MonitorServer) OnShutdown(fn func()) {
	s.hooks = append(s.hooks, fn)
}

// ServeHTTP dispatches to the registered handlers without a listener.
func (s *MonitorServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Shutdown stops the listener if it is running. Connections still open when
// ctx expires are closed.
func (s *MonitorServer) Shutdown(ctx context.Context) error {
	if s.running.TryLock() {
		s.running.Unlock()
		return nil
	}
	s.srvMu.RLock()
	currentSrv := s.srv
	s.srvMu.RUnlock()
	if currentSrv == nil {
		return nil
	}
	err := currentSrv.Shutdown(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		Logger.Warn().Msg("monitor server requests still open, closing them")
		return currentSrv.Close()
	}
	return err
}

func (s *MonitorServer) Restart() {
	Logger.Debug().Msg("restarting monitor server")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		Logger.Error().Msgf("Error shutting down monitor server: %v", err)
	}
	Logger.Debug().Msg("waiting for shutdown")
	s.running.Lock() // when server shuts down it will unlock, so wait for unlock
	Logger.Debug().Msg("http not running - good for startup")
	s.running.Unlock()
	if err := s.Start(); err != nil {
		Logger.Error().Msgf("Error starting monitor server: %v", err)
	}
}
