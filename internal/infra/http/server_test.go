package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"anchord/internal/config"
	"anchord/internal/domain"
	cryptoinfra "anchord/internal/infra/crypto"
	"anchord/internal/infra/ratelimit"
	"anchord/internal/infra/statemem"
	"anchord/internal/usecase"

	"github.com/gin-gonic/gin"
)

const (
	testChainID = 3
	ownerKey    = "owner-api-key"
	strangerKey = "stranger-api-key"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type staticVerifier struct{ valid bool }

func (v *staticVerifier) Check(context.Context, [32]byte, []byte) (bool, error) {
	return v.valid, nil
}

type staticResolver struct{ verifier usecase.ProofVerifier }

func (r *staticResolver) Resolve(string) (usecase.ProofVerifier, error) {
	return r.verifier, nil
}

type testEnv struct {
	server *Server
	store  *statemem.Store
}

func newTestEnv(t *testing.T, cfg config.Config, limiter domain.RateLimiter, proofValid bool) *testEnv {
	t.Helper()
	store := statemem.New()
	gateway := usecase.NewZKGateway(&staticResolver{verifier: &staticVerifier{valid: proofValid}})
	verifier := usecase.NewReceiptVerifier(store, store, store, gateway, store, testChainID)
	admin := usecase.NewAdminService(store, store, store, store)

	server := NewServer(cfg, ServerDeps{
		Verifier:    verifier,
		Admin:       admin,
		Registry:    store,
		Counters:    store,
		ZK:          store,
		RateLimiter: limiter,
	})
	return &testEnv{server: server, store: store}
}

func (e *testEnv) do(t *testing.T, method, path, apiKey string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set(apiKeyHeader, apiKey)
	}
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	body := decodeBody(t, rec)
	code, _ := body["code"].(string)
	return code
}

func sampleReceipt(counter uint64) domain.Receipt {
	var r domain.Receipt
	for i := 0; i < 32; i++ {
		r.HardwareID[i] = 0x41
		r.FirmwareHash[i] = 0x42
		r.ExecutionHash[i] = 0x43
	}
	r.Counter = counter
	return r
}

func verifyBody(r domain.Receipt, digest domain.Digest) map[string]any {
	return map[string]any{
		"hw_id":          r.HardwareID.Hex(),
		"fw_hash":        r.FirmwareHash.Hex(),
		"exec_hash":      r.ExecutionHash.Hex(),
		"counter":        r.Counter,
		"claimed_digest": digest.Hex(),
	}
}

func (e *testEnv) seedReceipt(t *testing.T, r domain.Receipt) {
	t.Helper()
	ctx := context.Background()
	if err := e.store.SetNodeAuthorization(ctx, r.HardwareID, true); err != nil {
		t.Fatalf("authorize node: %v", err)
	}
	if err := e.store.SetFirmwareApproval(ctx, r.FirmwareHash, true); err != nil {
		t.Fatalf("approve firmware: %v", err)
	}
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, config.Config{}, nil, true)
	rec := env.do(t, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["status"] != "ok" {
		t.Fatalf("body: %v", body)
	}
	if body["chain_id"] != float64(testChainID) {
		t.Fatalf("chain_id: %v", body["chain_id"])
	}
}

func TestAdmin_RequiresAPIKey(t *testing.T) {
	env := newTestEnv(t, config.Config{}, nil, true)
	rec := env.do(t, http.MethodPost, "/v1/admin/initialize", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d want 401", rec.Code)
	}
	if code := errorCode(t, rec); code != "UNAUTHORIZED" {
		t.Fatalf("code: got %s", code)
	}
}

func TestInitializeFlow(t *testing.T) {
	env := newTestEnv(t, config.Config{}, nil, true)

	rec := env.do(t, http.MethodPost, "/v1/admin/initialize", ownerKey, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("initialize: got %d body %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, "/v1/admin/initialize", strangerKey, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("second initialize: got %d want 409", rec.Code)
	}
	if code := errorCode(t, rec); code != "ALREADY_INITIALIZED" {
		t.Fatalf("code: got %s", code)
	}

	rec = env.do(t, http.MethodGet, "/v1/owner", "", nil)
	body := decodeBody(t, rec)
	if body["initialized"] != true {
		t.Fatalf("owner body: %v", body)
	}
}

func TestAdmin_NonOwnerKeyForbidden(t *testing.T) {
	env := newTestEnv(t, config.Config{}, nil, true)
	if rec := env.do(t, http.MethodPost, "/v1/admin/initialize", ownerKey, nil); rec.Code != http.StatusOK {
		t.Fatalf("initialize: %d", rec.Code)
	}

	hwID := sampleReceipt(1).HardwareID
	rec := env.do(t, http.MethodPost, "/v1/admin/nodes/"+hwID.Hex()+"/authorize", strangerKey, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status: got %d want 403", rec.Code)
	}
	if code := errorCode(t, rec); code != "UNAUTHORIZED_CALLER" {
		t.Fatalf("code: got %s", code)
	}
}

func TestVerifyV1_EndToEnd(t *testing.T) {
	env := newTestEnv(t, config.Config{}, nil, true)
	if rec := env.do(t, http.MethodPost, "/v1/admin/initialize", ownerKey, nil); rec.Code != http.StatusOK {
		t.Fatalf("initialize: %d", rec.Code)
	}

	r := sampleReceipt(1)
	if rec := env.do(t, http.MethodPost, "/v1/admin/nodes/"+r.HardwareID.Hex()+"/authorize", ownerKey, nil); rec.Code != http.StatusOK {
		t.Fatalf("authorize node: %d %s", rec.Code, rec.Body.String())
	}
	if rec := env.do(t, http.MethodPost, "/v1/admin/firmware/"+r.FirmwareHash.Hex()+"/approve", ownerKey, nil); rec.Code != http.StatusOK {
		t.Fatalf("approve firmware: %d", rec.Code)
	}

	digest := cryptoinfra.ReceiptDigestV1(r.HardwareID, r.FirmwareHash, r.ExecutionHash, r.Counter)
	rec := env.do(t, http.MethodPost, "/v1/receipts/verify", "", verifyBody(r, digest))
	if rec.Code != http.StatusOK {
		t.Fatalf("verify: got %d body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["verified"] != true {
		t.Fatalf("verify body: %v", body)
	}

	// Same submission again is a replay.
	rec = env.do(t, http.MethodPost, "/v1/receipts/verify", "", verifyBody(r, digest))
	if rec.Code != http.StatusConflict {
		t.Fatalf("replay: got %d want 409", rec.Code)
	}
	if code := errorCode(t, rec); code != "REPLAY_DETECTED" {
		t.Fatalf("code: got %s", code)
	}

	rec = env.do(t, http.MethodGet, "/v1/nodes/"+r.HardwareID.Hex()+"/counter", "", nil)
	counterBody := decodeBody(t, rec)
	if counterBody["counter"] != float64(1) {
		t.Fatalf("counter body: %v", counterBody)
	}
}

func TestVerifyV1_ErrorMapping(t *testing.T) {
	env := newTestEnv(t, config.Config{}, nil, true)
	r := sampleReceipt(1)
	digest := cryptoinfra.ReceiptDigestV1(r.HardwareID, r.FirmwareHash, r.ExecutionHash, r.Counter)

	rec := env.do(t, http.MethodPost, "/v1/receipts/verify", "", verifyBody(r, digest))
	if rec.Code != http.StatusForbidden || errorCode(t, rec) != "UNAUTHORIZED_HARDWARE" {
		t.Fatalf("unauthorized hardware: %d %s", rec.Code, rec.Body.String())
	}

	env.seedReceipt(t, r)
	var wrong domain.Digest
	rec = env.do(t, http.MethodPost, "/v1/receipts/verify", "", verifyBody(r, wrong))
	if rec.Code != http.StatusUnprocessableEntity || errorCode(t, rec) != "DIGEST_MISMATCH" {
		t.Fatalf("digest mismatch: %d %s", rec.Code, rec.Body.String())
	}
}

func TestVerify_RejectsMalformedReceipt(t *testing.T) {
	env := newTestEnv(t, config.Config{}, nil, true)

	rec := env.do(t, http.MethodPost, "/v1/receipts/verify", "", map[string]any{
		"hw_id": "not-hex",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d want 400", rec.Code)
	}
	if code := errorCode(t, rec); code != "INVALID_RECEIPT" {
		t.Fatalf("code: got %s", code)
	}
}

func TestVerifyV2_ProofGate(t *testing.T) {
	env := newTestEnv(t, config.Config{}, nil, false)
	if rec := env.do(t, http.MethodPost, "/v1/admin/initialize", ownerKey, nil); rec.Code != http.StatusOK {
		t.Fatalf("initialize: %d", rec.Code)
	}
	r := sampleReceipt(1)
	env.seedReceipt(t, r)
	digest := cryptoinfra.ReceiptDigestV2(testChainID, r.HardwareID, r.FirmwareHash, r.ExecutionHash, r.Counter)

	// No verifier configured: fail closed.
	body := verifyBody(r, digest)
	body["proof"] = "cHJvb2Y="
	rec := env.do(t, http.MethodPost, "/v2/receipts/verify", "", body)
	if rec.Code != http.StatusConflict || errorCode(t, rec) != "ZK_VERIFIER_NOT_SET" {
		t.Fatalf("no verifier: %d %s", rec.Code, rec.Body.String())
	}

	if rec := env.do(t, http.MethodPost, "/v1/admin/zk/verifier", ownerKey, map[string]any{"verifier": "groth16:vk.bin"}); rec.Code != http.StatusOK {
		t.Fatalf("set verifier: %d", rec.Code)
	}
	if rec := env.do(t, http.MethodPost, "/v1/admin/zk/mode", ownerKey, map[string]any{"enforce": true}); rec.Code != http.StatusOK {
		t.Fatalf("set mode: %d", rec.Code)
	}

	// Enforce mode rejects the missing and the invalid proof.
	rec = env.do(t, http.MethodPost, "/v2/receipts/verify", "", verifyBody(r, digest))
	if rec.Code != http.StatusUnprocessableEntity || errorCode(t, rec) != "ZK_PROOF_MISSING" {
		t.Fatalf("missing proof: %d %s", rec.Code, rec.Body.String())
	}
	rec = env.do(t, http.MethodPost, "/v2/receipts/verify", "", body)
	if rec.Code != http.StatusUnprocessableEntity || errorCode(t, rec) != "ZK_PROOF_INVALID" {
		t.Fatalf("invalid proof: %d %s", rec.Code, rec.Body.String())
	}

	// Audit mode lets the same receipt through and counts it.
	if rec := env.do(t, http.MethodPost, "/v1/admin/zk/mode", ownerKey, map[string]any{"enforce": false}); rec.Code != http.StatusOK {
		t.Fatalf("set mode: %d", rec.Code)
	}
	rec = env.do(t, http.MethodPost, "/v2/receipts/verify", "", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("audit mode verify: %d %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/v1/zk", "", nil)
	zkBody := decodeBody(t, rec)
	if zkBody["verify_count"] != float64(1) {
		t.Fatalf("zk body: %v", zkBody)
	}
	if zkBody["enforce"] != false || zkBody["verifier"] != "groth16:vk.bin" {
		t.Fatalf("zk body: %v", zkBody)
	}
}

func TestReadEndpoints(t *testing.T) {
	env := newTestEnv(t, config.Config{}, nil, true)
	r := sampleReceipt(1)
	env.seedReceipt(t, r)

	rec := env.do(t, http.MethodGet, "/v1/nodes/"+r.HardwareID.Hex()+"/authorized", "", nil)
	if body := decodeBody(t, rec); body["authorized"] != true {
		t.Fatalf("authorized body: %v", body)
	}

	rec = env.do(t, http.MethodGet, "/v1/firmware/"+r.FirmwareHash.Hex()+"/approved", "", nil)
	if body := decodeBody(t, rec); body["approved"] != true {
		t.Fatalf("approved body: %v", body)
	}

	rec = env.do(t, http.MethodGet, "/v1/nodes/zz/authorized", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad hw_id: got %d want 400", rec.Code)
	}
}

func TestNoRoute(t *testing.T) {
	env := newTestEnv(t, config.Config{}, nil, true)
	rec := env.do(t, http.MethodGet, "/nope", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status: got %d want 404", rec.Code)
	}
	if code := errorCode(t, rec); code != "NOT_FOUND" {
		t.Fatalf("code: got %s", code)
	}
}

func TestVerify_RateLimited(t *testing.T) {
	cfg := config.Config{RateLimitRequests: 2, RateLimitWindowSeconds: 60}
	limiter := ratelimit.NewMemoryLimiter(ratelimit.MemoryLimiterConfig{})
	env := newTestEnv(t, cfg, limiter, true)
	r := sampleReceipt(1)
	env.seedReceipt(t, r)
	digest := cryptoinfra.ReceiptDigestV1(r.HardwareID, r.FirmwareHash, r.ExecutionHash, r.Counter)

	for i := 0; i < 2; i++ {
		rec := env.do(t, http.MethodPost, "/v1/receipts/verify", "", verifyBody(r, digest))
		if rec.Code == http.StatusTooManyRequests {
			t.Fatalf("request %d limited early", i)
		}
	}
	rec := env.do(t, http.MethodPost, "/v1/receipts/verify", "", verifyBody(r, digest))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status: got %d want 429", rec.Code)
	}
	if code := errorCode(t, rec); code != "RATE_LIMITED" {
		t.Fatalf("code: got %s", code)
	}
}

func TestTransferOwnership_HTTP(t *testing.T) {
	env := newTestEnv(t, config.Config{}, nil, true)
	if rec := env.do(t, http.MethodPost, "/v1/admin/initialize", ownerKey, nil); rec.Code != http.StatusOK {
		t.Fatalf("initialize: %d", rec.Code)
	}

	sum := cryptoinfra.Keccak256([]byte(strangerKey))
	newOwner := fmt.Sprintf("%x", sum[12:])

	rec := env.do(t, http.MethodPost, "/v1/admin/owner/transfer", ownerKey, map[string]any{"new_owner": newOwner})
	if rec.Code != http.StatusOK {
		t.Fatalf("transfer: %d %s", rec.Code, rec.Body.String())
	}

	// The old key no longer controls the registry, the new one does.
	hwID := sampleReceipt(1).HardwareID
	rec = env.do(t, http.MethodPost, "/v1/admin/nodes/"+hwID.Hex()+"/authorize", ownerKey, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("old key: got %d want 403", rec.Code)
	}
	rec = env.do(t, http.MethodPost, "/v1/admin/nodes/"+hwID.Hex()+"/authorize", strangerKey, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("new key: %d %s", rec.Code, rec.Body.String())
	}
}
