// Package disk defines the Driver interface for storage disks and provides
// a registry of named disks with optional Postgres-backed definitions.
package disk

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"time"
)

// ErrUnknownDisk is returned when a disk name is not present in the registry.
var ErrUnknownDisk = errors.New("unknown disk")

// Driver is the interface for storage disk drivers.
// Implementations provide filesystem-like metadata and read access against a
// single backend (local filesystem, S3 bucket, SMB mount).
type Driver interface {
	// Exists checks whether an object or directory exists at path.
	Exists(ctx context.Context, path string) (bool, error)

	// Size returns the object's size in bytes.
	Size(ctx context.Context, path string) (int64, error)

	// MimeType returns the object's MIME content type.
	MimeType(ctx context.Context, path string) (string, error)

	// LastModified returns the object's last modification time.
	LastModified(ctx context.Context, path string) (time.Time, error)

	// AbsolutePath resolves path to its driver-specific absolute form
	// (filesystem path for local disks, object URI for buckets).
	AbsolutePath(path string) string

	// URL returns the public URL for path.
	URL(path string) string

	// Open returns a reader over the object's content.
	Open(ctx context.Context, path string) (io.ReadCloser, error)

	// IsDirectory reports whether path names a directory (or key prefix).
	IsDirectory(ctx context.Context, path string) (bool, error)

	// Type returns the driver type identifier ("local", "smb", "s3").
	Type() string

	// Close releases any resources held by the driver.
	Close() error
}

// TemporaryURLer is an optional capability for drivers that can issue
// time-limited URLs. Check with a type assertion.
type TemporaryURLer interface {
	TemporaryURL(ctx context.Context, path string, expiresAt time.Time) (string, error)
}

// Lister is an optional capability for drivers that can enumerate the
// children of a directory.
type Lister interface {
	List(ctx context.Context, path string) ([]fs.DirEntry, error)
}
