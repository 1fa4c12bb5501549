// Package gateway is the inbound webhook surface: it terminates the
// connector's HTTP POSTs, decodes activity batches, and hands them to the
// dispatch pipeline. A websocket endpoint streams the pipeline's lifecycle
// events to observers.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/soyeahso/botbridge/internal/activity"
	"github.com/soyeahso/botbridge/internal/channel"
	"github.com/soyeahso/botbridge/internal/config"
	"github.com/soyeahso/botbridge/internal/dispatch"
	"github.com/soyeahso/botbridge/internal/logging"
	"github.com/soyeahso/botbridge/internal/version"
)

// maxBodyBytes caps a single webhook delivery.
const maxBodyBytes = 1 << 20

// Server is the botbridge webhook HTTP + WebSocket server.
type Server struct {
	cfg        config.GatewayConfig
	dispatcher *dispatch.Dispatcher
	events     *hub
	log        *logging.Logger

	startedAt  time.Time
	httpServer *http.Server
}

// NewServer creates the webhook server and wires its event hub into the
// dispatcher's lifecycle notifications.
func NewServer(cfg config.GatewayConfig, dispatcher *dispatch.Dispatcher, log *logging.Logger) *Server {
	s := &Server{
		cfg:        cfg,
		dispatcher: dispatcher,
		events:     newHub(log),
		log:        log.Sub("gateway"),
	}
	dispatcher.OnStage(s.events.broadcastStage)
	return s
}

// Handler builds the full HTTP handler including middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+s.cfg.Route, s.handleActivities)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /events", s.events.handleWS)
	mux.HandleFunc("/", handleNotFound)
	return withMiddleware(mux, s.log, s.cfg.AllowedOrigins)
}

// Start runs the server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	addr := resolveBindAddr(s.cfg)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		BaseContext:  func(l net.Listener) context.Context { return ctx },
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.startedAt = time.Now()

	s.log.Info().
		Str("addr", ln.Addr().String()).
		Str("route", s.cfg.Route).
		Msg("gateway server ready")

	// Shutdown when context is cancelled
	go func() {
		<-ctx.Done()
		s.log.Info().Msg("shutting down gateway server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return resolveBindAddr(s.cfg)
}

// resolveBindAddr computes the listen address from config.
func resolveBindAddr(cfg config.GatewayConfig) string {
	switch cfg.Bind {
	case "lan", "auto":
		return fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	default:
		return fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	}
}

// handleActivities accepts one webhook delivery: a single activity object or
// an array of them. The connector only needs completion, so success is an
// empty 202.
func (s *Server) handleActivities(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer body.Close()

	var raw json.RawMessage
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	acts, err := decodeBatch(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(acts) == 0 {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	if err := s.dispatcher.HandleBatch(r.Context(), acts); err != nil {
		s.log.Error().Err(err).Msg("webhook batch failed")
		if errors.Is(err, channel.ErrUnknownChannel) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "activity processing failed")
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// decodeBatch accepts either a bare activity object or an array of them.
func decodeBatch(raw json.RawMessage) ([]*activity.Activity, error) {
	trimmed := firstNonSpace(raw)
	if trimmed == '[' {
		var acts []*activity.Activity
		if err := json.Unmarshal(raw, &acts); err != nil {
			return nil, errors.New("invalid activity array")
		}
		// A JSON null element decodes to a nil activity; reject it rather
		// than hand a nil pointer to the pipeline.
		for _, act := range acts {
			if act == nil {
				return nil, errors.New("null activity in array")
			}
		}
		return acts, nil
	}

	var act activity.Activity
	if err := json.Unmarshal(raw, &act); err != nil {
		return nil, errors.New("invalid activity object")
	}
	return []*activity.Activity{&act}, nil
}

func firstNonSpace(raw []byte) byte {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return b
	}
	return 0
}

// HealthResponse is the /health body.
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Observers int    `json:"observers"`
	UptimeSec int64  `json:"uptimeSec"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	uptime := int64(0)
	if !s.startedAt.IsZero() {
		uptime = int64(time.Since(s.startedAt).Seconds())
	}
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Version:   version.Version,
		Observers: s.events.count(),
		UptimeSec: uptime,
	})
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "not found")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
