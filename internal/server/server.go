package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/agent-pulse/pulsed/internal/events"
	"github.com/agent-pulse/pulsed/internal/ledger"
	"github.com/agent-pulse/pulsed/internal/registry"
	"github.com/agent-pulse/pulsed/internal/storage"
)

// Server is the HTTP API for the pulse registry.
type Server struct {
	reg    *registry.Registry
	db     *storage.DB
	assets *ledger.Memory // dev ledger; nil disables the faucet endpoint
	bus    *events.Bus
	secret string
	admin  string // administrator address admin endpoints act as
	mux    *http.ServeMux
	limits *ipLimiter
}

// New creates a Server with all routes registered. assets may be nil when the
// node fronts an external ledger.
func New(reg *registry.Registry, db *storage.DB, assets *ledger.Memory, bus *events.Bus, secret, adminAddress string) *Server {
	s := &Server{
		reg:    reg,
		db:     db,
		assets: assets,
		bus:    bus,
		secret: secret,
		admin:  adminAddress,
		mux:    http.NewServeMux(),
		limits: newIPLimiter(120, time.Minute),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler with per-IP rate limiting on the public
// read surface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.limited(r) && !s.limits.allow(clientIP(r)) {
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}
	s.mux.ServeHTTP(w, r)
}

// routes registers all HTTP routes on the server mux.
func (s *Server) routes() {
	// Health
	s.mux.HandleFunc("GET /api/health", s.handleHealth)

	// Public reads
	s.mux.HandleFunc("GET /api/v2/params", s.handleParams)
	s.mux.HandleFunc("GET /api/v2/agent/{address}/alive", s.handleAlive)
	s.mux.HandleFunc("GET /api/v2/agent/{address}/status", s.handleStatus)
	s.mux.HandleFunc("GET /api/v2/agent/{address}/score", s.handleScore)
	s.mux.HandleFunc("GET /api/v2/agent/{address}/tier", s.handleTier)
	s.mux.HandleFunc("GET /api/v2/agent/{address}/verified", s.handleVerified)
	s.mux.HandleFunc("GET /api/v2/agent/{address}/require", s.handleRequire)

	// Event feed for indexers
	s.mux.HandleFunc("GET /api/v2/events", events.FeedHandler(s.bus))
	s.mux.HandleFunc("GET /api/v2/events/log", s.handleEventLog)

	// Signed agent operations
	s.mux.HandleFunc("POST /api/v2/enroll", s.handleEnroll)
	s.mux.HandleFunc("POST /api/v2/pulse", s.handlePulse)
	s.mux.HandleFunc("POST /api/v2/stake", s.handleStake)
	s.mux.HandleFunc("POST /api/v2/unstake", s.handleUnstake)

	// Admin (X-Admin-Secret auth)
	s.mux.HandleFunc("PUT /api/admin/params/ttl", s.handleSetTTL)
	s.mux.HandleFunc("PUT /api/admin/params/min-amount", s.handleSetMinAmount)
	s.mux.HandleFunc("POST /api/admin/pause", s.handlePause)
	s.mux.HandleFunc("POST /api/admin/unpause", s.handleUnpause)
	s.mux.HandleFunc("POST /api/admin/faucet", s.handleFaucet)
}

// limited reports whether the request counts against the per-IP limit.
// Admin calls and the long-lived websocket feed are exempt.
func (s *Server) limited(r *http.Request) bool {
	if r.URL.Path == "/api/v2/events" {
		return false
	}
	if len(r.URL.Path) >= 10 && r.URL.Path[:10] == "/api/admin" {
		return false
	}
	return true
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "pulsed",
	})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeRegistryError maps the registry's typed failures onto HTTP status
// codes, keeping the offending values in the body so callers can correct and
// retry.
func writeRegistryError(w http.ResponseWriter, err error) {
	var (
		below        *registry.BelowMinimumError
		locked       *registry.StakeLockupActiveError
		shortStake   *registry.InsufficientStakeError
		invalidTTL   *registry.InvalidTTLError
		invalidMin   *registry.InvalidMinAmountError
		notAlive     *registry.NotAliveError
		tooLow       *registry.ReliabilityTooLowError
		shortBalance *ledger.InsufficientBalanceError
	)

	switch {
	case errors.As(err, &below):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   err.Error(),
			"amount":  below.Amount,
			"minimum": below.Minimum,
		})
	case errors.Is(err, registry.ErrPaused):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, registry.ErrZeroAmount):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &locked):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":     err.Error(),
			"unlock_at": locked.UnlockAt,
		})
	case errors.As(err, &shortStake):
		writeJSON(w, http.StatusPaymentRequired, map[string]any{
			"error":     err.Error(),
			"requested": shortStake.Requested,
			"available": shortStake.Available,
		})
	case errors.As(err, &shortBalance):
		writeError(w, http.StatusPaymentRequired, err.Error())
	case errors.As(err, &invalidTTL), errors.As(err, &invalidMin):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, registry.ErrNotAdministrator):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.As(err, &notAlive):
		writeJSON(w, http.StatusForbidden, map[string]any{
			"error": err.Error(),
			"alive": false,
		})
	case errors.As(err, &tooLow):
		writeJSON(w, http.StatusForbidden, map[string]any{
			"error":    err.Error(),
			"score":    tooLow.Score,
			"required": tooLow.Required,
		})
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
