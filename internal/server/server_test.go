package server

import (
	"bytes"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	agentpkg "github.com/agent-pulse/pulsed/internal/agent"
	"github.com/agent-pulse/pulsed/internal/events"
	"github.com/agent-pulse/pulsed/internal/ledger"
	"github.com/agent-pulse/pulsed/internal/registry"
	"github.com/agent-pulse/pulsed/internal/storage"
)

const testAdminSecret = "test-secret"

type testServer struct {
	srv    *Server
	assets *ledger.Memory
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := storage.NewDB(filepath.Join(t.TempDir(), "pulsed.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	assets := ledger.NewMemory()
	bus := events.NewBus()
	params := registry.NewParams("0xadmin")
	reg := registry.New(params, db, assets, bus)

	return &testServer{
		srv:    New(reg, db, assets, bus, testAdminSecret, "0xadmin"),
		assets: assets,
	}
}

// enrolledAgent generates a key pair, enrolls it, and funds its address.
func (ts *testServer) enrolledAgent(t *testing.T) (string, ed25519.PrivateKey) {
	t.Helper()

	pub, priv, err := agentpkg.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	address := agentpkg.AddressFromPublicKey(pub)

	body := fmt.Sprintf(`{"public_key":%q,"label":"test"}`, hex.EncodeToString(pub))
	resp := ts.signedPost(t, "/api/v2/enroll", []byte(body), address, priv)
	if resp.Code != http.StatusCreated {
		t.Fatalf("enroll status = %d, want %d: %s", resp.Code, http.StatusCreated, resp.Body.String())
	}

	ts.assets.Mint(address, 1_000*registry.OneUnit)
	return address, priv
}

func (ts *testServer) signedPost(t *testing.T, path string, body []byte, address string, priv ed25519.PrivateKey) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	agentpkg.SignRequest(req, address, priv, body)
	w := httptest.NewRecorder()
	ts.srv.ServeHTTP(w, req)
	return w
}

func (ts *testServer) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	ts.srv.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	w := ts.get(t, "/api/health")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	got := decodeJSON(t, w)
	if got["service"] != "pulsed" {
		t.Errorf("service = %v, want pulsed", got["service"])
	}
}

func TestEnrollAndPulse(t *testing.T) {
	ts := newTestServer(t)
	address, priv := ts.enrolledAgent(t)

	body := fmt.Sprintf(`{"amount":%d}`, registry.OneUnit)
	w := ts.signedPost(t, "/api/v2/pulse", []byte(body), address, priv)
	if w.Code != http.StatusOK {
		t.Fatalf("pulse status = %d: %s", w.Code, w.Body.String())
	}

	got := decodeJSON(t, w)
	if got["alive"] != true {
		t.Errorf("alive = %v, want true", got["alive"])
	}
	if got["streak"] != float64(1) {
		t.Errorf("streak = %v, want 1", got["streak"])
	}
}

func TestPulseUnknownAgent(t *testing.T) {
	ts := newTestServer(t)

	pub, priv, err := agentpkg.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	address := agentpkg.AddressFromPublicKey(pub)

	w := ts.signedPost(t, "/api/v2/pulse", []byte(`{"amount":1}`), address, priv)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestPulseTamperedBody(t *testing.T) {
	ts := newTestServer(t)
	address, priv := ts.enrolledAgent(t)

	signed := []byte(`{"amount":10000000}`)
	tampered := []byte(`{"amount":99999999}`)

	req := httptest.NewRequest(http.MethodPost, "/api/v2/pulse", bytes.NewReader(tampered))
	agentpkg.SignRequest(req, address, priv, signed)
	w := httptest.NewRecorder()
	ts.srv.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestPulseBelowMinimum(t *testing.T) {
	ts := newTestServer(t)
	address, priv := ts.enrolledAgent(t)

	w := ts.signedPost(t, "/api/v2/pulse", []byte(`{"amount":1}`), address, priv)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusBadRequest, w.Body.String())
	}
	got := decodeJSON(t, w)
	if got["minimum"] == nil {
		t.Errorf("response missing minimum field: %v", got)
	}
}

func TestReadEndpoints(t *testing.T) {
	ts := newTestServer(t)
	address, priv := ts.enrolledAgent(t)

	body := fmt.Sprintf(`{"amount":%d}`, registry.OneUnit)
	if w := ts.signedPost(t, "/api/v2/pulse", []byte(body), address, priv); w.Code != http.StatusOK {
		t.Fatalf("pulse: %s", w.Body.String())
	}

	w := ts.get(t, "/api/v2/agent/"+address+"/alive")
	got := decodeJSON(t, w)
	if got["alive"] != true {
		t.Errorf("alive = %v, want true", got["alive"])
	}
	if got["lastPulse"] == float64(0) {
		t.Errorf("lastPulse = 0, want nonzero")
	}

	w = ts.get(t, "/api/v2/agent/"+address+"/score")
	got = decodeJSON(t, w)
	if got["score"].(float64) < 1 {
		t.Errorf("score = %v, want >= 1", got["score"])
	}

	w = ts.get(t, "/api/v2/agent/"+address+"/tier")
	got = decodeJSON(t, w)
	if got["tier"] != "basic" {
		t.Errorf("tier = %v, want basic", got["tier"])
	}

	w = ts.get(t, "/api/v2/agent/"+address+"/verified")
	got = decodeJSON(t, w)
	if got["verified"] != false {
		t.Errorf("verified = %v, want false for one-day streak", got["verified"])
	}
}

func TestAliveUnknownAddress(t *testing.T) {
	ts := newTestServer(t)

	w := ts.get(t, "/api/v2/agent/0xdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef/alive")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	got := decodeJSON(t, w)
	if got["alive"] != false {
		t.Errorf("alive = %v, want false", got["alive"])
	}
	if got["lastPulse"] != float64(0) {
		t.Errorf("lastPulse = %v, want 0", got["lastPulse"])
	}
}

func TestRequireGate(t *testing.T) {
	ts := newTestServer(t)

	w := ts.get(t, "/api/v2/agent/0xdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef/require?min=10")
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusForbidden, w.Body.String())
	}

	w = ts.get(t, "/api/v2/agent/0xdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef/require?min=500")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d for out-of-range min", w.Code, http.StatusBadRequest)
	}
}

func TestAdminSecretRequired(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodPut, "/api/admin/params/ttl", bytes.NewReader([]byte(`{"seconds":7200}`)))
	w := httptest.NewRecorder()
	ts.srv.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestSetTTL(t *testing.T) {
	ts := newTestServer(t)

	adminPut := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPut, "/api/admin/params/ttl", bytes.NewReader([]byte(body)))
		req.Header.Set("X-Admin-Secret", testAdminSecret)
		w := httptest.NewRecorder()
		ts.srv.ServeHTTP(w, req)
		return w
	}

	if w := adminPut(`{"seconds":7200}`); w.Code != http.StatusOK {
		t.Fatalf("set ttl: %d %s", w.Code, w.Body.String())
	}
	if w := adminPut(`{"seconds":60}`); w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d for out-of-range ttl", w.Code, http.StatusBadRequest)
	}

	got := decodeJSON(t, ts.get(t, "/api/v2/params"))
	if got["ttlSeconds"] != float64(7200) {
		t.Errorf("ttlSeconds = %v, want 7200", got["ttlSeconds"])
	}
}

func TestPauseBlocksPulse(t *testing.T) {
	ts := newTestServer(t)
	address, priv := ts.enrolledAgent(t)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/pause", nil)
	req.Header.Set("X-Admin-Secret", testAdminSecret)
	w := httptest.NewRecorder()
	ts.srv.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("pause: %d %s", w.Code, w.Body.String())
	}

	body := fmt.Sprintf(`{"amount":%d}`, registry.OneUnit)
	if w := ts.signedPost(t, "/api/v2/pulse", []byte(body), address, priv); w.Code != http.StatusConflict {
		t.Fatalf("pulse while paused = %d, want %d", w.Code, http.StatusConflict)
	}

	// Staking stays open while pulsing is paused.
	if w := ts.signedPost(t, "/api/v2/stake", []byte(body), address, priv); w.Code != http.StatusOK {
		t.Fatalf("stake while paused = %d: %s", w.Code, w.Body.String())
	}
}

func TestStakeAndLockedUnstake(t *testing.T) {
	ts := newTestServer(t)
	address, priv := ts.enrolledAgent(t)

	body := fmt.Sprintf(`{"amount":%d}`, 10*registry.OneUnit)
	w := ts.signedPost(t, "/api/v2/stake", []byte(body), address, priv)
	if w.Code != http.StatusOK {
		t.Fatalf("stake: %d %s", w.Code, w.Body.String())
	}
	got := decodeJSON(t, w)
	if got["stakedAmount"] != float64(10*registry.OneUnit) {
		t.Errorf("stakedAmount = %v, want %d", got["stakedAmount"], 10*registry.OneUnit)
	}

	w = ts.signedPost(t, "/api/v2/unstake", []byte(body), address, priv)
	if w.Code != http.StatusConflict {
		t.Fatalf("unstake during lockup = %d, want %d: %s", w.Code, http.StatusConflict, w.Body.String())
	}
	got = decodeJSON(t, w)
	if got["unlock_at"] == nil {
		t.Errorf("response missing unlock_at field: %v", got)
	}
}

func TestFaucet(t *testing.T) {
	ts := newTestServer(t)

	body := `{"address":"0xABCDEF0000000000000000000000000000000001","amount":500}`
	req := httptest.NewRequest(http.MethodPost, "/api/admin/faucet", bytes.NewReader([]byte(body)))
	req.Header.Set("X-Admin-Secret", testAdminSecret)
	w := httptest.NewRecorder()
	ts.srv.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("faucet: %d %s", w.Code, w.Body.String())
	}

	got := decodeJSON(t, w)
	if got["balance"] != float64(500) {
		t.Errorf("balance = %v, want 500", got["balance"])
	}
	if got["address"] != "0xabcdef0000000000000000000000000000000001" {
		t.Errorf("address not normalized: %v", got["address"])
	}
}
