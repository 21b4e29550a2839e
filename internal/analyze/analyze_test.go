package analyze

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/diskview/diskview/internal/disk/local"
)

func newLocalDriver(t *testing.T) (*local.Driver, string) {
	t.Helper()
	root := t.TempDir()
	d, err := local.New(local.Config{RootPath: root, BaseURL: "http://localhost/files"})
	if err != nil {
		t.Fatalf("local.New: %v", err)
	}
	return d, root
}

func TestFileMetaImage(t *testing.T) {
	d, root := newLocalDriver(t)

	// 4x3 PNG
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "pic.png"), buf.Bytes(), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	meta := File(context.Background(), d, "pic.png")
	if meta["sniffed_mime"] != "image/png" {
		t.Errorf("sniffed_mime = %v", meta["sniffed_mime"])
	}
	if meta["width"] != 4 || meta["height"] != 3 {
		t.Errorf("dimensions = %vx%v, want 4x3", meta["width"], meta["height"])
	}
	if meta["format"] != "png" {
		t.Errorf("format = %v", meta["format"])
	}
}

func TestFileMetaMissingDegrades(t *testing.T) {
	d, _ := newLocalDriver(t)

	meta := File(context.Background(), d, "nope.bin")
	if meta == nil {
		t.Fatal("meta must never be nil")
	}
	if len(meta) != 0 {
		t.Errorf("meta = %v, want empty for unreadable file", meta)
	}
}

func TestDirectoryMeta(t *testing.T) {
	d, root := newLocalDriver(t)

	if err := os.MkdirAll(filepath.Join(root, "docs/sub"), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "docs/a.txt"), []byte("aaa"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "docs/b.txt"), []byte("bb"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	meta := Directory(context.Background(), d, "docs")
	if meta["files"] != 2 {
		t.Errorf("files = %v, want 2", meta["files"])
	}
	if meta["directories"] != 1 {
		t.Errorf("directories = %v, want 1", meta["directories"])
	}
	if meta["total_size"] != int64(5) {
		t.Errorf("total_size = %v, want 5", meta["total_size"])
	}
}
