// Package status serves health and rate-table endpoints over HTTP.
package status

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"sjsage522/pspricebot/internal/pricing"
	"sjsage522/pspricebot/logger"

	"github.com/didip/tollbooth/v7"
	"github.com/didip/tollbooth/v7/limiter"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

const serviceName = "pspricebot"

// RateView is the read side of the rate cache
type RateView interface {
	Current() (pricing.RateTable, bool)
	State() pricing.State
}

// Options configure the status handler
type Options struct {
	AllowedOrigins []string
	// RequestsPerSecond per client, 0 disables limiting
	RequestsPerSecond float64
}

type handler struct {
	rates RateView
	now   func() time.Time
}

// NewHandler builds the router with CORS and request limiting applied
func NewHandler(rates RateView, opts Options) http.Handler {
	h := &handler{rates: rates, now: time.Now}

	r := mux.NewRouter()
	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.HandleFunc("/rates", h.rateTable).Methods(http.MethodGet)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})

	var next http.Handler = r
	if opts.RequestsPerSecond > 0 {
		lmt := tollbooth.NewLimiter(opts.RequestsPerSecond, &limiter.ExpirableOptions{DefaultExpirationTTL: time.Hour})
		lmt.SetMessageContentType("application/json; charset=utf-8")
		lmt.SetMessage(`{"error":"too many requests"}`)
		next = tollbooth.LimitHandler(lmt, r)
	}
	return c.Handler(next)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.ForStatus().Warn().Err(err).Msg("Failed to encode response")
	}
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service":     serviceName,
		"status":      "healthy",
		"time":        h.now().UTC(),
		"rates_state": h.rates.State(),
	})
}

type ratesResponse struct {
	State pricing.State `json:"state"`
	pricing.RateTable
}

func (h *handler) rateTable(w http.ResponseWriter, _ *http.Request) {
	table, ok := h.rates.Current()
	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"error": "no exchange rates loaded",
			"state": h.rates.State(),
		})
		return
	}
	writeJSON(w, http.StatusOK, ratesResponse{State: h.rates.State(), RateTable: table})
}

// Server runs the status handler
type Server struct {
	srv *http.Server
}

// NewServer creates a server on addr
func NewServer(addr string, handler http.Handler) *Server {
	return &Server{srv: &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}}
}

// Start listens in the background
func (s *Server) Start() {
	log := logger.ForStatus()
	go func() {
		log.Info().Str("addr", s.srv.Addr).Msg("Status server listening")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Status server stopped")
		}
	}()
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
