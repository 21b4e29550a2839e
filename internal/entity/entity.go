// Package entity projects filesystem objects on named disks into flat,
// JSON-serializable metadata records.
//
// An Entity is constructed per lookup, computes its record at most once and
// is then discarded. Instances are not safe for concurrent use; create one
// per request.
package entity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/diskview/diskview/internal/disk"
	"github.com/diskview/diskview/internal/logging"
	"github.com/diskview/diskview/internal/metrics"
)

// fallbackMime is substituted when the driver cannot report a MIME type.
const fallbackMime = "application/octet-stream"

// Entity is one filesystem object (file or directory) being described.
// Variants differ only in their deep-inspection Meta step.
type Entity interface {
	Disk() string
	Path() string

	// ToRecord computes the metadata record. The first successful call is
	// memoized; later calls return the cached record even if the disk
	// changed underneath.
	ToRecord(ctx context.Context) (*Record, error)

	// Meta performs variant-specific deep inspection. Only consulted when
	// file analysis is enabled.
	Meta(ctx context.Context) (map[string]any, error)
}

// Options control how records are rendered.
type Options struct {
	FileAnalysis      bool
	HumanReadableSize bool
	HumanReadableTime bool
	URLSigning        bool
	URLSigningTTL     time.Duration
}

// base carries the shared projection state for all entity variants.
type base struct {
	disk   string
	path   string
	driver disk.Driver
	mgr    *Manager
	record *Record // memoized on first success; never invalidated
}

// Disk returns the disk name.
func (b *base) Disk() string { return b.disk }

// Path returns the logical path on the disk.
func (b *base) Path() string { return b.path }

// toRecord runs the shared projection, delegating deep inspection to the
// concrete variant e.
func (b *base) toRecord(ctx context.Context, e Entity) (*Record, error) {
	if b.record != nil {
		return b.record, nil
	}

	start := time.Now()

	exists, err := b.driver.Exists(ctx, b.path)
	if err != nil {
		return nil, fmt.Errorf("exists %s on %s: %w", b.path, b.disk, err)
	}

	id := hashID(b.driver.AbsolutePath(b.path))

	if !exists {
		b.record = &Record{ID: id, Disk: b.disk, Path: b.path, Exists: false}
		metrics.RecordProjection(b.disk, false, time.Since(start))
		return b.record, nil
	}

	size, err := b.driver.Size(ctx, b.path)
	if err != nil {
		return nil, fmt.Errorf("size %s on %s: %w", b.path, b.disk, err)
	}

	lastMod, err := b.driver.LastModified(ctx, b.path)
	if err != nil {
		return nil, fmt.Errorf("last modified %s on %s: %w", b.path, b.disk, err)
	}

	url, err := b.resolveURL(ctx)
	if err != nil {
		return nil, fmt.Errorf("url %s on %s: %w", b.path, b.disk, err)
	}

	meta := map[string]any{}
	if b.mgr.opts.FileAnalysis {
		meta, err = e.Meta(ctx)
		if err != nil {
			return nil, fmt.Errorf("meta %s on %s: %w", b.path, b.disk, err)
		}
	}

	rec := &Record{
		ID:             id,
		Disk:           b.disk,
		Name:           path.Base(b.path),
		Path:           b.path,
		Size:           b.renderSize(size),
		Extension:      extension(b.path),
		Mime:           b.mime(ctx),
		URL:            url,
		LastModifiedAt: formatTime(lastMod, b.mgr.opts.HumanReadableTime),
		Exists:         true,
		Meta:           meta,
	}
	rec.Type = classifyType(rec.Mime)

	b.record = rec
	metrics.RecordProjection(b.disk, true, time.Since(start))
	return rec, nil
}

// mime asks the driver for the MIME type, degrading to a safe default on any
// lookup error. This is the only driver call with a recovery path.
func (b *base) mime(ctx context.Context) string {
	m, err := b.driver.MimeType(ctx, b.path)
	if err != nil {
		logging.Error("mime lookup failed",
			zap.String("disk", b.disk),
			zap.String("path", b.path),
			zap.Error(err))
		metrics.RecordMimeFallback()
		return fallbackMime
	}
	return m
}

// resolveURL applies the URL resolution policy: manager override first, then
// a temporary URL when the driver supports it and signing is enabled, then
// the driver's public URL.
func (b *base) resolveURL(ctx context.Context) (string, error) {
	if b.mgr.resolver != nil {
		return b.mgr.resolver(b.mgr.request(ctx), b.path, b.disk, b.driver), nil
	}

	if t, ok := b.driver.(disk.TemporaryURLer); ok && b.mgr.opts.URLSigning {
		return t.TemporaryURL(ctx, b.path, time.Now().Add(b.mgr.opts.URLSigningTTL))
	}

	return b.driver.URL(b.path), nil
}

func (b *base) renderSize(size int64) any {
	if b.mgr.opts.HumanReadableSize {
		return FormatSize(size)
	}
	return size
}

// hashID derives the record id from the driver-resolved absolute path.
// Identical (disk, path) pairs always hash to the same id.
func hashID(absolutePath string) string {
	sum := sha256.Sum256([]byte(absolutePath))
	return hex.EncodeToString(sum[:])
}

// extension returns the suffix after the last dot of the final path segment,
// without the dot. Empty when the name has no extension.
func extension(p string) string {
	ext := path.Ext(p)
	return strings.TrimPrefix(ext, ".")
}
