// Package api exposes the DiskView HTTP surface: entity projection, disk
// listing and signed download redemption.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/diskview/diskview/internal/config"
	"github.com/diskview/diskview/internal/disk"
	"github.com/diskview/diskview/internal/entity"
	"github.com/diskview/diskview/internal/logging"
	"github.com/diskview/diskview/internal/metrics"
	"github.com/diskview/diskview/internal/signer"
)

// Server handles HTTP API requests.
type Server struct {
	cfg      *config.Config
	registry *disk.Registry
	manager  *entity.Manager
	signer   *signer.Signer
}

// New creates an API server. The signer may be nil when URL signing is off.
func New(cfg *config.Config, registry *disk.Registry, manager *entity.Manager, sgn *signer.Signer) *Server {
	return &Server{
		cfg:      cfg,
		registry: registry,
		manager:  manager,
		signer:   sgn,
	}
}

// Handler returns the HTTP handler with logging and metrics middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/v1/disks", s.handleDisks)
	mux.HandleFunc("GET /api/v1/entity/{path...}", s.handleEntity)
	mux.HandleFunc("GET /files/{path...}", s.handleDownload)

	return metrics.Middleware(logging.Middleware(requestMiddleware(mux)))
}

// requestMiddleware stores the request in the context so the entity
// manager's URL resolver override can see it.
func requestMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(entity.WithRequest(r.Context(), r)))
	})
}

// ─── Health ─────────────────────────────────────────────────────────────────

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ─── Disks ──────────────────────────────────────────────────────────────────

func (s *Server) handleDisks(w http.ResponseWriter, r *http.Request) {
	type diskInfo struct {
		Name      string `json:"name"`
		Driver    string `json:"driver"`
		IsDefault bool   `json:"is_default"`
	}

	defs := s.registry.Definitions()
	out := make([]diskInfo, 0, len(defs))
	for _, def := range defs {
		out = append(out, diskInfo{
			Name:      def.Name,
			Driver:    def.DriverType,
			IsDefault: def.Name == s.registry.DefaultName(),
		})
	}
	s.sendJSON(w, http.StatusOK, out)
}

// ─── Entity ─────────────────────────────────────────────────────────────────

func (s *Server) handleEntity(w http.ResponseWriter, r *http.Request) {
	path := r.PathValue("path")
	diskName := r.URL.Query().Get("disk")

	ent, err := s.manager.Lookup(r.Context(), path, diskName)
	if err != nil {
		if errors.Is(err, disk.ErrUnknownDisk) {
			s.sendError(w, http.StatusNotFound, err.Error())
			return
		}
		logging.Error("entity lookup failed",
			zap.String("disk", diskName),
			zap.String("path", path),
			zap.Error(err))
		s.sendError(w, http.StatusInternalServerError, "entity lookup failed")
		return
	}

	rec, err := ent.ToRecord(r.Context())
	if err != nil {
		logging.Error("entity projection failed",
			zap.String("disk", ent.Disk()),
			zap.String("path", path),
			zap.Error(err))
		s.sendError(w, http.StatusInternalServerError, "entity projection failed")
		return
	}

	s.sendJSON(w, http.StatusOK, rec)
}

// ─── Downloads ──────────────────────────────────────────────────────────────

// handleDownload serves file content for public and signed local URLs.
// When URL signing is enabled, a valid token for the exact disk and path is
// required.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	path := r.PathValue("path")
	diskName := r.URL.Query().Get("disk")

	if s.cfg.URLSigning {
		token := r.URL.Query().Get("token")
		if token == "" {
			metrics.RecordSignedURLRedemption(false)
			s.sendError(w, http.StatusUnauthorized, "missing token")
			return
		}
		name := diskName
		if name == "" {
			name = s.registry.DefaultName()
		}
		if err := s.signer.Verify(token, name, path); err != nil {
			metrics.RecordSignedURLRedemption(false)
			s.sendError(w, http.StatusForbidden, "invalid token")
			return
		}
		metrics.RecordSignedURLRedemption(true)
	}

	driver, err := s.registry.Get(diskName)
	if err != nil {
		s.sendError(w, http.StatusNotFound, err.Error())
		return
	}

	exists, err := driver.Exists(r.Context(), path)
	if err != nil {
		logging.Error("download existence check failed",
			zap.String("path", path), zap.Error(err))
		s.sendError(w, http.StatusInternalServerError, "download failed")
		return
	}
	if !exists {
		s.sendError(w, http.StatusNotFound, "not found")
		return
	}

	if mime, err := driver.MimeType(r.Context(), path); err == nil {
		w.Header().Set("Content-Type", mime)
	}

	rc, err := driver.Open(r.Context(), path)
	if err != nil {
		logging.Error("download open failed",
			zap.String("path", path), zap.Error(err))
		s.sendError(w, http.StatusInternalServerError, "download failed")
		return
	}
	defer rc.Close()

	if _, err := io.Copy(w, rc); err != nil {
		logging.Debug("download interrupted",
			zap.String("path", path), zap.Error(err))
	}
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func (s *Server) sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Debug("response encode failed", zap.Error(err))
	}
}

func (s *Server) sendError(w http.ResponseWriter, status int, msg string) {
	s.sendJSON(w, status, map[string]string{"error": msg})
}
