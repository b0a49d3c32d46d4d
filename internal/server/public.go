package server

import (
	"net/http"
	"strconv"

	agentpkg "github.com/agent-pulse/pulsed/internal/agent"
	"github.com/agent-pulse/pulsed/internal/events"
)

// pathAddress returns the normalized agent address from the request path.
func pathAddress(r *http.Request) string {
	return agentpkg.NormalizeAddress(r.PathValue("address"))
}

func (s *Server) handleParams(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ttlSeconds":      s.reg.TTLSeconds(),
		"minPulseAmount":  s.reg.MinSignalAmount(),
		"paused":          s.reg.Paused(),
		"stakeLockupDays": 7,
	})
}

// handleAlive serves the liveness check consumed by agent-framework clients.
func (s *Server) handleAlive(w http.ResponseWriter, r *http.Request) {
	st, err := s.reg.Status(pathAddress(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"alive":     st.Alive,
		"lastPulse": st.LastSignalAt,
		"streak":    st.Streak,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.reg.Status(pathAddress(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	addr := pathAddress(r)
	score, err := s.reg.ReliabilityScore(addr)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"address": addr,
		"score":   score,
	})
}

func (s *Server) handleTier(w http.ResponseWriter, r *http.Request) {
	addr := pathAddress(r)
	tier, err := s.reg.TierOf(addr)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"address": addr,
		"tier":    tier,
	})
}

func (s *Server) handleVerified(w http.ResponseWriter, r *http.Request) {
	addr := pathAddress(r)
	verified, err := s.reg.IsVerified(addr)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"address":  addr,
		"verified": verified,
	})
}

// handleRequire is the reliability gate: 200 when the agent clears the bar,
// a typed 403 otherwise. Downstream systems call it before acting.
func (s *Server) handleRequire(w http.ResponseWriter, r *http.Request) {
	minScore := 0
	if v := r.URL.Query().Get("min"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > 100 {
			writeError(w, http.StatusBadRequest, "min must be an integer in [0, 100]")
			return
		}
		minScore = n
	}

	addr := pathAddress(r)
	if err := s.reg.RequireReliability(addr, minScore); err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"address":  addr,
		"required": minScore,
	})
}

// handleEventLog serves persisted events for indexers catching up after
// missing websocket frames. since is inclusive Unix seconds.
func (s *Server) handleEventLog(w http.ResponseWriter, r *http.Request) {
	var since int64
	if v := r.URL.Query().Get("since"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "since must be a Unix timestamp")
			return
		}
		since = n
	}

	limit := 500
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 1000 {
			writeError(w, http.StatusBadRequest, "limit must be in [1, 1000]")
			return
		}
		limit = n
	}

	evts, err := s.db.EventsSince(since, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if evts == nil {
		evts = []events.Event{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"events": evts,
		"count":  len(evts),
	})
}
