package dashboard

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/thekrainbow/kalahsolve/internal/config"
	"github.com/thekrainbow/kalahsolve/internal/governor"
	"github.com/thekrainbow/kalahsolve/internal/rules"
	"github.com/thekrainbow/kalahsolve/internal/store"
	"github.com/thekrainbow/kalahsolve/internal/store/blockstore"
)

func newTestServer(t *testing.T) (*Server, rules.Variant) {
	t.Helper()
	variant := rules.NewVariant(4, 2)
	bs, err := blockstore.Open(t.TempDir(), blockstore.WithFastMode(true))
	if err != nil {
		t.Fatalf("blockstore.Open: %v", err)
	}
	cfg := config.DefaultConfig()
	srv := NewServer(bs, variant, governor.New(cfg), config.NewStore(cfg))
	return srv, variant
}

func TestHandleStatus(t *testing.T) {
	srv, variant := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("GET /status = %d, want 200", w.Code)
	}
	var got StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Variant.P != variant.P || got.Variant.S != variant.S {
		t.Fatalf("StatusResponse.Variant = %+v, want p=%d s=%d", got.Variant, variant.P, variant.S)
	}
}

func TestHandlePositionNotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/positions/999", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	var got positionDTO
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Found {
		t.Fatal("expected Found=false for an unknown fingerprint")
	}
}

func TestHandlePositionFound(t *testing.T) {
	srv, variant := newTestServer(t)
	opening := variant.Opening()
	fp := rules.Fingerprint(variant, opening)
	if _, err := srv.Store.InsertBatch([]store.Record{{
		Fingerprint: fp,
		PackedCells: rules.Pack(variant, opening),
		Depth:       0,
		SeedLevel:   int16(variant.TotalSeeds()),
	}}); err != nil {
		t.Fatalf("InsertBatch: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/positions/"+strconv.FormatUint(fp, 10), nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	var got positionDTO
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !got.Found {
		t.Fatal("expected Found=true for an inserted fingerprint")
	}
	if got.Side != "A" {
		t.Fatalf("positionDTO.Side = %q, want A", got.Side)
	}
}

func TestHandleMetrics(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("GET /metrics = %d, want 200", w.Code)
	}
	var got metricsDTO
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.GovernorLevel != "normal" {
		t.Fatalf("metricsDTO.GovernorLevel = %q, want normal", got.GovernorLevel)
	}
}
