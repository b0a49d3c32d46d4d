package server

import (
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"time"

	agentpkg "github.com/agent-pulse/pulsed/internal/agent"
	"github.com/agent-pulse/pulsed/internal/storage"
)

// ---------------------------------------------------------------------------
// Auth helpers
// ---------------------------------------------------------------------------

// adminAuth checks the X-Admin-Secret header against the server secret.
// Returns false (writing a 401) if the header is missing or incorrect.
func (s *Server) adminAuth(w http.ResponseWriter, r *http.Request) bool {
	if r.Header.Get("X-Admin-Secret") != s.secret {
		writeError(w, http.StatusUnauthorized, "invalid admin secret")
		return false
	}
	return true
}

// agentAuth verifies the Ed25519 signature on an incoming request against
// the key enrolled for the X-Pulse-Address header. It returns the normalized
// acting address and true on success; agents can only act as themselves
// because the address is bound to the signing key at enrollment.
func (s *Server) agentAuth(w http.ResponseWriter, r *http.Request, body []byte) (string, bool) {
	address := agentpkg.NormalizeAddress(r.Header.Get("X-Pulse-Address"))
	if address == "" {
		writeError(w, http.StatusUnauthorized, "missing X-Pulse-Address header")
		return "", false
	}

	key, err := s.db.GetAgentKey(address)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unknown agent; enroll first")
		return "", false
	}

	if err := agentpkg.VerifyRequest(r, ed25519.PublicKey(key.PublicKey), body); err != nil {
		writeError(w, http.StatusUnauthorized, "signature verification failed: "+err.Error())
		return "", false
	}

	return address, true
}

// readBody reads the full request body. The body bytes are needed for
// signature verification before JSON decoding.
func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return []byte{}, nil
	}
	defer r.Body.Close()
	return io.ReadAll(r.Body)
}

// ---------------------------------------------------------------------------
// Agent handlers
// ---------------------------------------------------------------------------

func (s *Server) handleEnroll(w http.ResponseWriter, r *http.Request) {
	// The key is not enrolled yet, so the request must be self-signed: the
	// submitted public key verifies its own enrollment.
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}

	var req struct {
		PublicKey string `json:"public_key"`
		Label     string `json:"label"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	pubBytes, err := hex.DecodeString(req.PublicKey)
	if err != nil || len(pubBytes) != ed25519.PublicKeySize {
		writeError(w, http.StatusBadRequest, "public_key must be valid ed25519 public key hex (64 hex chars)")
		return
	}
	pub := ed25519.PublicKey(pubBytes)

	if err := agentpkg.VerifyRequest(r, pub, body); err != nil {
		writeError(w, http.StatusUnauthorized, "signature verification failed: "+err.Error())
		return
	}

	address := agentpkg.AddressFromPublicKey(pub)
	key := &storage.AgentKey{
		Address:    address,
		PublicKey:  pubBytes,
		Label:      req.Label,
		EnrolledAt: time.Now().Unix(),
	}
	if err := s.db.PutAgentKey(key); err != nil {
		writeError(w, http.StatusInternalServerError, "enroll: "+err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"address": address,
		"label":   req.Label,
	})
}

// amountRequest is the JSON body shared by pulse, stake, and unstake.
type amountRequest struct {
	Amount uint64 `json:"amount"`
}

func (s *Server) decodeAmount(w http.ResponseWriter, body []byte) (uint64, bool) {
	var req amountRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return 0, false
	}
	return req.Amount, true
}

func (s *Server) handlePulse(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}
	address, ok := s.agentAuth(w, r, body)
	if !ok {
		return
	}
	amount, ok := s.decodeAmount(w, body)
	if !ok {
		return
	}

	st, err := s.reg.Pulse(address, amount)
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleStake(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}
	address, ok := s.agentAuth(w, r, body)
	if !ok {
		return
	}
	amount, ok := s.decodeAmount(w, body)
	if !ok {
		return
	}

	rec, err := s.reg.Stake(address, amount)
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"address":       rec.Address,
		"stakedAmount":  rec.StakedAmount,
		"stakeUnlockAt": rec.StakeUnlockAt,
	})
}

func (s *Server) handleUnstake(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}
	address, ok := s.agentAuth(w, r, body)
	if !ok {
		return
	}
	amount, ok := s.decodeAmount(w, body)
	if !ok {
		return
	}

	rec, err := s.reg.Unstake(address, amount)
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"address":       rec.Address,
		"stakedAmount":  rec.StakedAmount,
		"stakeUnlockAt": rec.StakeUnlockAt,
	})
}

// ---------------------------------------------------------------------------
// Admin handlers
// ---------------------------------------------------------------------------

func (s *Server) handleSetTTL(w http.ResponseWriter, r *http.Request) {
	if !s.adminAuth(w, r) {
		return
	}

	var req struct {
		Seconds int64 `json:"seconds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	if err := s.reg.SetTTL(s.admin, req.Seconds); err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ttlSeconds": req.Seconds})
}

func (s *Server) handleSetMinAmount(w http.ResponseWriter, r *http.Request) {
	if !s.adminAuth(w, r) {
		return
	}

	var req struct {
		Amount uint64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	if err := s.reg.SetMinSignalAmount(s.admin, req.Amount); err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"minPulseAmount": req.Amount})
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	if !s.adminAuth(w, r) {
		return
	}
	if err := s.reg.Pause(s.admin); err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"paused": true})
}

func (s *Server) handleUnpause(w http.ResponseWriter, r *http.Request) {
	if !s.adminAuth(w, r) {
		return
	}
	if err := s.reg.Unpause(s.admin); err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"paused": false})
}

// handleFaucet mints dev-ledger balance. Only available when the node runs
// its own in-memory ledger.
func (s *Server) handleFaucet(w http.ResponseWriter, r *http.Request) {
	if !s.adminAuth(w, r) {
		return
	}
	if s.assets == nil {
		writeError(w, http.StatusNotFound, "faucet unavailable: node fronts an external ledger")
		return
	}

	var req struct {
		Address string `json:"address"`
		Amount  uint64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.Address == "" || req.Amount == 0 {
		writeError(w, http.StatusBadRequest, "address and a nonzero amount required")
		return
	}

	address := agentpkg.NormalizeAddress(req.Address)
	s.assets.Mint(address, req.Amount)
	writeJSON(w, http.StatusOK, map[string]any{
		"address": address,
		"balance": s.assets.BalanceOf(address),
	})
}
