package adminapi_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dantte-lp/procheckd/internal/adminapi"
	"github.com/dantte-lp/procheckd/internal/container"
	"github.com/dantte-lp/procheckd/internal/container/containertest"
	"github.com/dantte-lp/procheckd/internal/credcheck"
	"github.com/dantte-lp/procheckd/internal/loader"
	"github.com/dantte-lp/procheckd/internal/verify"
)

type acceptingVerifier struct{}

func (acceptingVerifier) Verify(_ context.Context, _ []byte, _ container.Footer) *verify.Future {
	return verify.NewResolvedFuture(verify.Result{Outcome: verify.Accept})
}

func cleartextEntry(t *testing.T, id []byte) []byte {
	t.Helper()
	return containertest.Build(containertest.Options{
		UseMainHeader: true,
		MainVersion:   1,
		Footers: []containertest.Footer{
			{Type: uint32(container.CredentialCleartextID), Data: id},
		},
		AutoBinaryEnd: true,
	})
}

type flashEntry struct {
	addr int64
	data []byte
}

type sliceRegion struct {
	entries []flashEntry
	idx     int
}

func (r *sliceRegion) Next() (int64, []byte, bool) {
	if r.idx >= len(r.entries) {
		return 0, nil, false
	}
	e := r.entries[r.idx]
	r.idx++
	return e.addr, e.data, true
}

func newTestDriver(t *testing.T) *loader.Driver {
	t.Helper()

	d := loader.NewDriver(4, acceptingVerifier{}, slog.Default(),
		loader.WithCheckPolicy(credcheck.PermissivePolicy{}),
		loader.WithReadyNotify(false),
	)

	region := &sliceRegion{entries: []flashEntry{
		{addr: 0x1000, data: cleartextEntry(t, []byte("pkg-a"))},
	}}

	if err := d.Run(context.Background(), region); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	return d
}

func TestListProcesses(t *testing.T) {
	t.Parallel()

	d := newTestDriver(t)
	router := adminapi.NewRouter(d, nil)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/v1/processes")
	if err != nil {
		t.Fatalf("GET /v1/processes error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var slots []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&slots); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if len(slots) != 1 {
		t.Fatalf("len(slots) = %d, want 1", len(slots))
	}

	if slots[0]["state"] != "Running" {
		t.Errorf("slots[0].state = %v, want Running", slots[0]["state"])
	}
}

func TestGetProcessNotFound(t *testing.T) {
	t.Parallel()

	d := newTestDriver(t)
	router := adminapi.NewRouter(d, nil)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/v1/processes/99")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestGetProcessBadID(t *testing.T) {
	t.Parallel()

	d := newTestDriver(t)
	router := adminapi.NewRouter(d, nil)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/v1/processes/not-a-number")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestGetProcessByID(t *testing.T) {
	t.Parallel()

	d := newTestDriver(t)
	router := adminapi.NewRouter(d, nil)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/v1/processes/0")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var slot map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&slot); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if slot["id"].(float64) != 0 {
		t.Errorf("id = %v, want 0", slot["id"])
	}
}

func TestRunningSet(t *testing.T) {
	t.Parallel()

	d := newTestDriver(t)
	router := adminapi.NewRouter(d, nil)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/v1/running")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()

	var entries []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	d := newTestDriver(t)
	router := adminapi.NewRouter(d, nil)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}
