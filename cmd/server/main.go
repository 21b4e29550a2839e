// DiskView Server
//
// Features:
// - Entity metadata projection over named storage disks
// - Multi-driver disks (local, SMB, S3) with optional Postgres definitions
// - Signed temporary URLs (JWT for local disks, presigned for S3)
// - Prometheus metrics & structured logging (zap)
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/diskview/diskview/internal/api"
	"github.com/diskview/diskview/internal/config"
	"github.com/diskview/diskview/internal/disk"
	"github.com/diskview/diskview/internal/disk/local"
	s3driver "github.com/diskview/diskview/internal/disk/s3"
	"github.com/diskview/diskview/internal/entity"
	"github.com/diskview/diskview/internal/logging"
	"github.com/diskview/diskview/internal/metrics"
	"github.com/diskview/diskview/internal/signer"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Can't use structured logging yet
		panic("configuration error: " + err.Error())
	}

	// Initialize structured logging
	if err := logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	}); err != nil {
		panic("logging init error: " + err.Error())
	}
	defer logging.Sync()

	logging.Info("DiskView Server starting...",
		zap.String("listen", cfg.ListenAddr),
		zap.String("metrics", cfg.MetricsAddr))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// URL signer (local/SMB disks)
	var sgn *signer.Signer
	if cfg.URLSigning {
		sgn = signer.New(cfg.URLSigningSecret)
		logging.Info("URL signing enabled",
			zap.String("unit", cfg.URLSigningUnit),
			zap.Int("value", cfg.URLSigningValue))
	}

	// Disk definition store (optional)
	var store *disk.Store
	if cfg.DatabaseURL != "" {
		logging.Info("connecting to PostgreSQL...")
		store, err = disk.NewStore(cfg.DatabaseURL)
		if err != nil {
			logging.Fatal("database connection failed", zap.Error(err))
		}
		defer store.Close()

		if err := store.EnsureSchema(ctx); err != nil {
			logging.Fatal("schema setup failed", zap.Error(err))
		}
	}

	registry := disk.NewRegistry(store, sgn)
	defer registry.Close()

	if store != nil {
		if err := registry.Reload(ctx); err != nil {
			logging.Fatal("disk registry load failed", zap.Error(err))
		}

		// Auto-create the default disk on first run (no definitions yet)
		if registry.DefaultName() == "" {
			def := defaultDiskDefinition(cfg)
			if err := store.Upsert(ctx, def); err != nil {
				logging.Fatal("failed to create default disk", zap.Error(err))
			}
			if err := registry.Reload(ctx); err != nil {
				logging.Fatal("disk registry reload failed", zap.Error(err))
			}
			logging.Info("auto-created default disk",
				zap.String("name", def.Name),
				zap.String("driver", def.DriverType))
		}
	} else {
		if err := registry.Seed(ctx, envDiskDefinitions(cfg)); err != nil {
			logging.Fatal("disk registry seed failed", zap.Error(err))
		}
	}

	// Entity manager
	manager := entity.NewManager(registry, entity.Options{
		FileAnalysis:      cfg.FileAnalysis,
		HumanReadableSize: cfg.HumanReadableSize,
		HumanReadableTime: cfg.HumanReadableTime,
		URLSigning:        cfg.URLSigning,
		URLSigningTTL:     cfg.SigningTTL(),
	})

	// API server
	srv := api.New(cfg, registry, manager, sgn)

	// Start metrics server
	metricsServer := &http.Server{
		Addr:    cfg.MetricsAddr,
		Handler: metrics.Handler(),
	}
	go func() {
		logging.Info("metrics server listening", zap.String("addr", cfg.MetricsAddr))
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			logging.Error("metrics server error", zap.Error(err))
		}
	}()

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: srv.Handler(),
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logging.Info("shutting down...")
		cancel()
		httpServer.Close()
		metricsServer.Close()
	}()

	// Periodic registry reload picks up admin edits to disk definitions
	if store != nil {
		go func() {
			ticker := time.NewTicker(1 * time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if err := registry.Reload(ctx); err != nil {
						logging.Error("disk registry reload failed", zap.Error(err))
					}
				}
			}
		}()
	}

	logging.Info("server listening", zap.String("addr", cfg.ListenAddr))
	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		logging.Fatal("server error", zap.Error(err))
	}
}

// defaultDiskDefinition builds the first-run disk definition from env config.
func defaultDiskDefinition(cfg *config.Config) disk.Definition {
	if cfg.S3Bucket != "" {
		raw, _ := json.Marshal(s3driver.Config{
			Endpoint:  cfg.S3Endpoint,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Region:    cfg.S3Region,
			UseSSL:    cfg.S3UseSSL,
		})
		return disk.Definition{
			Name:       cfg.S3DiskName,
			DriverType: "s3",
			Config:     raw,
			IsDefault:  true,
		}
	}

	raw, _ := json.Marshal(local.Config{
		RootPath:   cfg.LocalRootPath,
		BaseURL:    cfg.LocalBaseURL,
		CreateDirs: true,
	})
	return disk.Definition{
		Name:       cfg.LocalDiskName,
		DriverType: "local",
		Config:     raw,
		IsDefault:  true,
	}
}

// envDiskDefinitions builds the static disk set used without a database.
func envDiskDefinitions(cfg *config.Config) []disk.Definition {
	localRaw, _ := json.Marshal(local.Config{
		RootPath:   cfg.LocalRootPath,
		BaseURL:    cfg.LocalBaseURL,
		CreateDirs: true,
	})
	defs := []disk.Definition{{
		Name:       cfg.LocalDiskName,
		DriverType: "local",
		Config:     localRaw,
		IsDefault:  true,
	}}

	if cfg.S3Bucket != "" {
		s3Raw, _ := json.Marshal(s3driver.Config{
			Endpoint:  cfg.S3Endpoint,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Region:    cfg.S3Region,
			UseSSL:    cfg.S3UseSSL,
		})
		defs = append(defs, disk.Definition{
			Name:       cfg.S3DiskName,
			DriverType: "s3",
			Config:     s3Raw,
		})
	}

	return defs
}
