// Package server streams solves over websockets and renders them over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lawnchairsociety/wavetiles/internal/config"
	"github.com/lawnchairsociety/wavetiles/internal/database"
	"github.com/lawnchairsociety/wavetiles/internal/logger"
	"github.com/lawnchairsociety/wavetiles/internal/metrics"
	"github.com/lawnchairsociety/wavetiles/internal/tileset"
	"github.com/lawnchairsociety/wavetiles/internal/wfc"
)

var (
	ErrInvalidSize  = errors.New("server: grid width and height must be positive")
	ErrGridTooLarge = errors.New("server: grid exceeds max_grid_cells")
)

// maxRequestAttempts caps the attempts a single request may ask for
const maxRequestAttempts = 20

// shutdownTimeout bounds how long Shutdown waits for in-flight HTTP requests
const shutdownTimeout = 5 * time.Second

type Server struct {
	cfg         *config.Config
	set         *tileset.Set
	metrics     *metrics.Metrics
	db          *database.Database
	connLimiter *ConnLimiter
	httpServer  *http.Server

	ctx    context.Context
	cancel context.CancelFunc

	mu           sync.Mutex
	clients      map[*WebSocketClient]struct{}
	shutdownOnce sync.Once
}

// NewServer creates a server solving against set. A nil m gets its own registry.
func NewServer(cfg *config.Config, set *tileset.Set, m *metrics.Metrics) *Server {
	if m == nil {
		m = metrics.New(nil)
	}
	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		cfg:         cfg,
		set:         set,
		metrics:     m,
		connLimiter: NewConnLimiter(cfg.Server.Connections),
		ctx:         ctx,
		cancel:      cancel,
		clients:     make(map[*WebSocketClient]struct{}),
	}
	s.httpServer = &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// SetDatabase enables run history recording.
func (s *Server) SetDatabase(db *database.Database) {
	s.db = db
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocketUpgrade)
	mux.HandleFunc("/render", s.handleRender)
	mux.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	return mux
}

// Start serves HTTP until Shutdown is called.
func (s *Server) Start() error {
	logger.Info("Server listening",
		"address", s.cfg.Server.Address,
		"tiles", s.set.Catalog.Len(),
		"fingerprint", s.set.Fingerprint)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown stops running solves, closes websocket sessions and stops the listener.
func (s *Server) Shutdown() {
	s.shutdownOnce.Do(func() {
		s.cancel()

		s.mu.Lock()
		for client := range s.clients {
			client.Close()
		}
		s.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(ctx); err != nil {
			logger.Error("HTTP shutdown failed", "error", err)
		}

		logger.Info("Server shutdown complete")
	})
}

// checkSize validates a requested grid against the configured cap.
func (s *Server) checkSize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: got %dx%d", ErrInvalidSize, width, height)
	}
	if limit := s.cfg.Server.MaxGridCells; !config.GridFits(width, height, limit) {
		return fmt.Errorf("%w: %dx%d, limit %d cells", ErrGridTooLarge, width, height, limit)
	}
	return nil
}

// attempts resolves a requested attempt count against the configured default.
func (s *Server) attempts(requested int) int {
	if requested <= 0 {
		requested = s.cfg.Solve.MaxAttempts
	}
	if requested < 1 {
		requested = 1
	}
	if requested > maxRequestAttempts {
		requested = maxRequestAttempts
	}
	return requested
}

// solve runs one generation with its own random source and records it.
// Halted results are returned without error so clients always see the grid.
func (s *Server) solve(ctx context.Context, width, height int, seed int64, attempts int, observer func(int, wfc.StepEvent)) (*wfc.Result, string, error) {
	if timeout, _ := s.cfg.Solve.TimeoutDuration(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	gen := wfc.NewGenerator(s.set.Catalog, wfc.GenerateConfig{
		Width:         width,
		Height:        height,
		Seed:          seed,
		MaxAttempts:   attempts,
		MaxSteps:      s.cfg.Solve.MaxSteps,
		AcceptPartial: true,
	})
	gen.Observer = observer

	done := s.metrics.SolveStarted()
	result, err := gen.Generate(ctx)
	done()
	if result == nil {
		return nil, "", err
	}
	s.metrics.ObserveResult(result, result.Duration)

	return result, s.record(result), err
}

// record stores a result when history is enabled and returns its run id.
func (s *Server) record(result *wfc.Result) string {
	if s.db == nil {
		return ""
	}
	run, cells := database.RunFromResult(result, s.set.Fingerprint, "")
	if err := s.db.RecordRun(run, cells); err != nil {
		logger.Error("Failed to record run", "seed", result.Seed, "error", err)
		return ""
	}
	return run.ID
}

// handleWebSocketUpgrade upgrades an HTTP connection to a solve session.
func (s *Server) handleWebSocketUpgrade(w http.ResponseWriter, r *http.Request) {
	clientIP := getRealIP(r)

	release, ok := s.connLimiter.Acquire(clientIP)
	if !ok {
		logger.Warning("WebSocket connection rejected - limit exceeded",
			"remote_addr", r.RemoteAddr,
			"client_ip", clientIP)
		http.Error(w, "Too many connections. Please try again later.", http.StatusTooManyRequests)
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			allowed := s.cfg.Server.WebSocket.IsOriginAllowed(origin, r.Host)
			if !allowed {
				logger.Warning("WebSocket connection rejected - origin not allowed",
					"origin", origin,
					"host", r.Host,
					"remote_addr", r.RemoteAddr)
			}
			return allowed
		},
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", "error", err)
		release()
		return
	}
	if limit := s.cfg.Server.WebSocket.MaxMessageSize; limit > 0 {
		wsConn.SetReadLimit(limit)
	}

	client := NewWebSocketClient(wsConn)
	s.mu.Lock()
	s.clients[client] = struct{}{}
	s.mu.Unlock()

	go s.handleWebSocketConnection(client, release)
}

// handleWebSocketConnection answers solve requests until the client leaves.
func (s *Server) handleWebSocketConnection(client *WebSocketClient, release func()) {
	log := logger.With("remote_addr", client.RemoteAddr())
	log.Info("Client connected")

	defer func() {
		s.mu.Lock()
		delete(s.clients, client)
		s.mu.Unlock()
		client.Close()
		release()
		log.Info("Client disconnected")
	}()

	for {
		req, err := client.ReadRequest()
		if err != nil {
			if errors.Is(err, ErrBadRequest) {
				client.WriteError(err)
				continue
			}
			return
		}

		if err := s.checkSize(req.Width, req.Height); err != nil {
			client.WriteError(err)
			continue
		}

		seed := time.Now().UnixNano()
		if req.Seed != nil {
			seed = *req.Seed
		}

		var observer func(int, wfc.StepEvent)
		var writeErr error
		if !req.Quiet {
			observer = func(attempt int, ev wfc.StepEvent) {
				if writeErr == nil {
					writeErr = client.WriteJSON(newStepMessage(attempt, ev))
				}
			}
		}

		log.Debug("Solve requested", "width", req.Width, "height", req.Height, "seed", seed)
		result, runID, err := s.solve(s.ctx, req.Width, req.Height, seed, s.attempts(req.MaxAttempts), observer)
		if writeErr != nil {
			return
		}
		if result == nil {
			client.WriteError(err)
			continue
		}

		log.Info("Solve finished",
			"width", result.Width,
			"height", result.Height,
			"seed", result.Seed,
			"state", result.State,
			"attempts", result.Attempts,
			"steps", result.Steps)

		if err := client.WriteJSON(newResultMessage(result, runID, err)); err != nil {
			return
		}
	}
}
