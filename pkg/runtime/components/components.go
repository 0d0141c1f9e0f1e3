// Package components holds the builtin component implementations
// generated programs link against. Each constructor matches the
// catalog declaration for its type: node arguments first, then key
// values in canonical key-name order.
package components

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"
)

// Console writes lines to standard output.
type Console struct {
	mu sync.Mutex
}

// NewConsole creates a console.
func NewConsole() *Console {
	return &Console{}
}

// Printf writes one formatted line.
func (c *Console) Printf(format string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(os.Stdout, format+"\n", args...)
}

// levels orders log levels for filtering.
var levels = map[string]int{
	"debug": 0,
	"info":  1,
	"warn":  2,
	"error": 3,
}

// Logger filters leveled lines onto a console.
type Logger struct {
	console *Console
	min     int
}

// NewLogger creates a logger writing at or above level. An unknown
// level falls back to info.
func NewLogger(console *Console, level string) *Logger {
	min, ok := levels[level]
	if !ok {
		min = levels["info"]
	}
	return &Logger{console: console, min: min}
}

// Logf writes one line when level passes the filter.
func (l *Logger) Logf(level, format string, args ...interface{}) {
	n, ok := levels[level]
	if !ok || n < l.min {
		return
	}
	l.console.Printf("%s [%s] %s", time.Now().Format(time.RFC3339), level, fmt.Sprintf(format, args...))
}

// Debugf logs at debug level.
func (l *Logger) Debugf(format string, args ...interface{}) { l.Logf("debug", format, args...) }

// Infof logs at info level.
func (l *Logger) Infof(format string, args ...interface{}) { l.Logf("info", format, args...) }

// Warnf logs at warn level.
func (l *Logger) Warnf(format string, args ...interface{}) { l.Logf("warn", format, args...) }

// Errorf logs at error level.
func (l *Logger) Errorf(format string, args ...interface{}) { l.Logf("error", format, args...) }

// HTTPServer serves a health endpoint until its context is cancelled.
type HTTPServer struct {
	logger *Logger
	port   int
	mux    *http.ServeMux
}

// NewHTTPServer creates a server listening on port.
func NewHTTPServer(logger *Logger, port int) *HTTPServer {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	return &HTTPServer{logger: logger, port: port, mux: mux}
}

// Handle registers a handler on the server's mux. Must be called
// before Run.
func (s *HTTPServer) Handle(pattern string, handler http.Handler) {
	s.mux.Handle(pattern, handler)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.mux,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infof("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return <-errCh
	}
}

// Ticker logs a heartbeat line at a fixed interval until its context
// is cancelled.
type Ticker struct {
	logger   *Logger
	interval time.Duration
}

// NewTicker creates a ticker firing every intervalSecs seconds.
// Intervals below one second are clamped to one second.
func NewTicker(logger *Logger, intervalSecs int) *Ticker {
	if intervalSecs < 1 {
		intervalSecs = 1
	}
	return &Ticker{logger: logger, interval: time.Duration(intervalSecs) * time.Second}
}

// Run ticks until ctx is cancelled.
func (t *Ticker) Run(ctx context.Context) error {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			t.logger.Infof("tick at %s", now.Format(time.RFC3339))
		}
	}
}

// KVStore is an in-memory key-value store seeded from nothing. The
// configured path names where a persistent rendition would live; the
// builtin keeps everything in memory.
type KVStore struct {
	mu   sync.RWMutex
	path string
	data map[string]string
}

// NewKVStore creates a store.
func NewKVStore(path string) *KVStore {
	return &KVStore{
		path: path,
		data: make(map[string]string),
	}
}

// Path returns the configured store path.
func (s *KVStore) Path() string { return s.path }

// Get returns the value stored under key.
func (s *KVStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

// Set stores value under key.
func (s *KVStore) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

// Len returns the number of stored entries.
func (s *KVStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
