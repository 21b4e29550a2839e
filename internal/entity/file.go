package entity

import (
	"context"

	"github.com/diskview/diskview/internal/analyze"
)

// File is the entity variant for regular files. Its deep inspection sniffs
// content: MIME type, image dimensions and EXIF camera fields.
type File struct {
	base
}

// ToRecord computes (or returns the memoized) metadata record.
func (f *File) ToRecord(ctx context.Context) (*Record, error) {
	return f.toRecord(ctx, f)
}

// Meta inspects the file content.
func (f *File) Meta(ctx context.Context) (map[string]any, error) {
	return analyze.File(ctx, f.driver, f.path), nil
}
