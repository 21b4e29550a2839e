package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/diskview/diskview/internal/config"
	"github.com/diskview/diskview/internal/disk"
	"github.com/diskview/diskview/internal/disk/local"
	"github.com/diskview/diskview/internal/entity"
	"github.com/diskview/diskview/internal/signer"
)

func newTestServer(t *testing.T, signing bool) (*Server, string) {
	t.Helper()
	root := t.TempDir()

	var sgn *signer.Signer
	if signing {
		sgn = signer.New("test-secret")
	}

	driver, err := local.New(local.Config{RootPath: root, BaseURL: "http://localhost:8080/files"})
	if err != nil {
		t.Fatalf("local.New: %v", err)
	}

	registry := disk.NewRegistry(nil, sgn)
	registry.Register(disk.Definition{Name: "local", DriverType: "local", IsDefault: true}, driver)

	cfg := &config.Config{
		URLSigning:      signing,
		URLSigningUnit:  "minutes",
		URLSigningValue: 5,
	}
	manager := entity.NewManager(registry, entity.Options{
		HumanReadableSize: true,
		HumanReadableTime: false,
		URLSigning:        signing,
		URLSigningTTL:     5 * time.Minute,
	})

	return New(cfg, registry, manager, sgn), root
}

func writeFile(t *testing.T, root, name, content string) {
	t.Helper()
	path := filepath.Join(root, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func doRequest(t *testing.T, srv *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, false)

	rec := doRequest(t, srv, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestDisksListing(t *testing.T) {
	srv, _ := newTestServer(t, false)

	rec := doRequest(t, srv, "/api/v1/disks")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var disks []struct {
		Name      string `json:"name"`
		Driver    string `json:"driver"`
		IsDefault bool   `json:"is_default"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &disks); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(disks) != 1 || disks[0].Name != "local" || !disks[0].IsDefault {
		t.Errorf("disks = %+v", disks)
	}
}

func TestEntityEndpoint(t *testing.T) {
	srv, root := newTestServer(t, false)
	writeFile(t, root, "docs/report.txt", "quarterly numbers")

	rec := doRequest(t, srv, "/api/v1/entity/docs/report.txt")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var m map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m["exists"] != true {
		t.Errorf("exists = %v", m["exists"])
	}
	if m["name"] != "report.txt" {
		t.Errorf("name = %v", m["name"])
	}
	if m["extension"] != "txt" {
		t.Errorf("extension = %v", m["extension"])
	}
	if m["mime"] != "text/plain" {
		t.Errorf("mime = %v", m["mime"])
	}
	if m["type"] != "text" {
		t.Errorf("type = %v", m["type"])
	}
}

func TestEntityEndpointMissing(t *testing.T) {
	srv, _ := newTestServer(t, false)

	rec := doRequest(t, srv, "/api/v1/entity/nope.txt")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var m map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m["exists"] != false {
		t.Errorf("exists = %v", m["exists"])
	}
	if len(m) != 4 {
		t.Errorf("missing record has %d keys, want 4: %v", len(m), m)
	}
}

func TestEntityEndpointUnknownDisk(t *testing.T) {
	srv, _ := newTestServer(t, false)

	rec := doRequest(t, srv, "/api/v1/entity/a.txt?disk=nope")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestDownloadPublic(t *testing.T) {
	srv, root := newTestServer(t, false)
	writeFile(t, root, "a.txt", "hello")

	rec := doRequest(t, srv, "/files/a.txt")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Body.String() != "hello" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestDownloadSigned(t *testing.T) {
	srv, root := newTestServer(t, true)
	writeFile(t, root, "a.txt", "hello")

	// No token
	rec := doRequest(t, srv, "/files/a.txt")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", rec.Code)
	}

	// Garbage token
	rec = doRequest(t, srv, "/files/a.txt?token=garbage")
	if rec.Code != http.StatusForbidden {
		t.Errorf("bad token: status = %d, want 403", rec.Code)
	}

	// Valid token
	token, err := srv.signer.Sign("local", "a.txt", time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	rec = doRequest(t, srv, "/files/a.txt?token="+token)
	if rec.Code != http.StatusOK {
		t.Fatalf("valid token: status = %d", rec.Code)
	}
	if rec.Body.String() != "hello" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestDownloadMissing(t *testing.T) {
	srv, _ := newTestServer(t, false)

	rec := doRequest(t, srv, "/files/nope.txt")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
