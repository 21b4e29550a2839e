// Package local provides a local filesystem disk driver.
package local

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/diskview/diskview/internal/signer"
)

// Config holds local disk settings.
type Config struct {
	RootPath   string `json:"root_path"`
	BaseURL    string `json:"base_url"`
	CreateDirs bool   `json:"create_dirs"`
}

// Driver implements disk.Driver against the local filesystem.
type Driver struct {
	rootPath string
	baseURL  string
	signer   *signer.Signer
	diskName string
}

// New creates a new local disk driver.
func New(cfg Config) (*Driver, error) {
	if cfg.RootPath == "" {
		return nil, fmt.Errorf("root_path is required")
	}

	// Ensure root exists
	info, err := os.Stat(cfg.RootPath)
	if err != nil {
		if os.IsNotExist(err) && cfg.CreateDirs {
			if mkErr := os.MkdirAll(cfg.RootPath, 0755); mkErr != nil {
				return nil, fmt.Errorf("create root path %s: %w", cfg.RootPath, mkErr)
			}
		} else {
			return nil, fmt.Errorf("stat root path %s: %w", cfg.RootPath, err)
		}
	} else if !info.IsDir() {
		return nil, fmt.Errorf("root path %s is not a directory", cfg.RootPath)
	}

	return &Driver{
		rootPath: cfg.RootPath,
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
	}, nil
}

// NewFromJSON creates a Driver from raw JSON config.
func NewFromJSON(raw json.RawMessage) (*Driver, error) {
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse local config: %w", err)
	}
	return New(cfg)
}

// AttachSigner attaches a token signer, enabling temporary URL support.
// The disk name is embedded in issued tokens.
func (d *Driver) AttachSigner(s *signer.Signer, diskName string) {
	d.signer = s
	d.diskName = diskName
}

func (d *Driver) fullPath(path string) string {
	return filepath.Join(d.rootPath, filepath.FromSlash(strings.TrimPrefix(path, "/")))
}

// Exists checks whether a file or directory exists at path.
func (d *Driver) Exists(_ context.Context, path string) (bool, error) {
	_, err := os.Stat(d.fullPath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	return true, nil
}

// Size returns the file size in bytes.
func (d *Driver) Size(_ context.Context, path string) (int64, error) {
	info, err := os.Stat(d.fullPath(path))
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}
	return info.Size(), nil
}

// MimeType sniffs the file's MIME type from its content.
func (d *Driver) MimeType(_ context.Context, path string) (string, error) {
	mt, err := mimetype.DetectFile(d.fullPath(path))
	if err != nil {
		return "", fmt.Errorf("detect mime %s: %w", path, err)
	}
	// Strip parameters such as "; charset=utf-8"
	m := mt.String()
	if idx := strings.IndexByte(m, ';'); idx > 0 {
		m = strings.TrimSpace(m[:idx])
	}
	return m, nil
}

// LastModified returns the file's modification time.
func (d *Driver) LastModified(_ context.Context, path string) (time.Time, error) {
	info, err := os.Stat(d.fullPath(path))
	if err != nil {
		return time.Time{}, fmt.Errorf("stat %s: %w", path, err)
	}
	return info.ModTime(), nil
}

// AbsolutePath resolves path against the disk root.
func (d *Driver) AbsolutePath(path string) string {
	return d.fullPath(path)
}

// URL returns the public URL for path.
func (d *Driver) URL(path string) string {
	p := strings.TrimPrefix(path, "/")
	segs := strings.Split(p, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return d.baseURL + "/" + strings.Join(segs, "/")
}

// TemporaryURL returns the public URL with a signed token appended.
// Requires a signer attached via AttachSigner.
func (d *Driver) TemporaryURL(_ context.Context, path string, expiresAt time.Time) (string, error) {
	if d.signer == nil {
		return "", fmt.Errorf("disk %s has no URL signer configured", d.diskName)
	}
	token, err := d.signer.Sign(d.diskName, path, expiresAt)
	if err != nil {
		return "", err
	}
	q := url.Values{}
	q.Set("token", token)
	q.Set("expires", strconv.FormatInt(expiresAt.Unix(), 10))
	return d.URL(path) + "?" + q.Encode(), nil
}

// Open returns a reader over the file content.
func (d *Driver) Open(_ context.Context, path string) (io.ReadCloser, error) {
	f, err := os.Open(d.fullPath(path))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}

// IsDirectory reports whether path names a directory.
func (d *Driver) IsDirectory(_ context.Context, path string) (bool, error) {
	info, err := os.Stat(d.fullPath(path))
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	return info.IsDir(), nil
}

// List enumerates the children of a directory.
func (d *Driver) List(_ context.Context, path string) ([]fs.DirEntry, error) {
	entries, err := os.ReadDir(d.fullPath(path))
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", path, err)
	}
	return entries, nil
}

// Type returns "local".
func (d *Driver) Type() string { return "local" }

// Close is a no-op for local disks.
func (d *Driver) Close() error { return nil }
