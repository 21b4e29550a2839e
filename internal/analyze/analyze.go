// Package analyze performs deep inspection of filesystem objects for the
// optional "meta" section of entity records. All inspection errors degrade
// to partial (or empty) results; analysis never fails a projection.
package analyze

import (
	"bytes"
	"context"
	"image"
	"io"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/diskview/diskview/internal/disk"
	"github.com/diskview/diskview/internal/logging"
)

// sniffLimit caps how much of a file is read for analysis.
const sniffLimit = 1 << 20

// File inspects a file's content: sniffed MIME type, image dimensions and
// EXIF camera fields where applicable.
func File(ctx context.Context, d disk.Driver, path string) map[string]any {
	meta := map[string]any{}

	rc, err := d.Open(ctx, path)
	if err != nil {
		logging.Debug("analysis open failed", zap.String("path", path), zap.Error(err))
		return meta
	}
	defer rc.Close()

	head, err := io.ReadAll(io.LimitReader(rc, sniffLimit))
	if err != nil || len(head) == 0 {
		return meta
	}

	mt := mimetype.Detect(head)
	meta["sniffed_mime"] = mt.String()

	if strings.HasPrefix(mt.String(), "image/") {
		if cfg, format, err := image.DecodeConfig(bytes.NewReader(head)); err == nil {
			meta["width"] = cfg.Width
			meta["height"] = cfg.Height
			meta["format"] = format
		}
		if ex := extractExif(bytes.NewReader(head)); ex != nil {
			for k, v := range ex {
				meta[k] = v
			}
		}
	}

	return meta
}

// Directory inspects a directory via the driver's Lister capability:
// entry count and total size of immediate children. Empty when the driver
// cannot list.
func Directory(ctx context.Context, d disk.Driver, path string) map[string]any {
	meta := map[string]any{}

	lister, ok := d.(disk.Lister)
	if !ok {
		return meta
	}

	entries, err := lister.List(ctx, path)
	if err != nil {
		logging.Debug("analysis list failed", zap.String("path", path), zap.Error(err))
		return meta
	}

	var files, dirs int
	var totalSize int64
	for _, e := range entries {
		if e.IsDir() {
			dirs++
			continue
		}
		files++
		if info, err := e.Info(); err == nil {
			totalSize += info.Size()
		}
	}

	meta["files"] = files
	meta["directories"] = dirs
	meta["total_size"] = totalSize
	return meta
}
