package local

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/diskview/diskview/internal/signer"
)

func newTestDriver(t *testing.T) (*Driver, string) {
	t.Helper()
	root := t.TempDir()
	d, err := New(Config{RootPath: root, BaseURL: "http://localhost:8080/files"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d, root
}

func writeFile(t *testing.T, root, name, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestExists(t *testing.T) {
	d, root := newTestDriver(t)
	writeFile(t, root, "docs/a.txt", "hello")
	ctx := context.Background()

	ok, err := d.Exists(ctx, "docs/a.txt")
	if err != nil || !ok {
		t.Errorf("Exists(docs/a.txt) = %v, %v; want true", ok, err)
	}
	ok, err = d.Exists(ctx, "docs/missing.txt")
	if err != nil || ok {
		t.Errorf("Exists(missing) = %v, %v; want false", ok, err)
	}
	ok, err = d.Exists(ctx, "docs")
	if err != nil || !ok {
		t.Errorf("Exists(docs) = %v, %v; want true for directory", ok, err)
	}
}

func TestSizeAndLastModified(t *testing.T) {
	d, root := newTestDriver(t)
	writeFile(t, root, "a.txt", "hello world")
	ctx := context.Background()

	size, err := d.Size(ctx, "a.txt")
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if size != 11 {
		t.Errorf("Size = %d, want 11", size)
	}

	mod, err := d.LastModified(ctx, "a.txt")
	if err != nil {
		t.Fatalf("LastModified: %v", err)
	}
	if time.Since(mod) > time.Minute {
		t.Errorf("LastModified = %v, want recent", mod)
	}
}

func TestMimeType(t *testing.T) {
	d, root := newTestDriver(t)
	writeFile(t, root, "a.txt", "plain text content")
	ctx := context.Background()

	mime, err := d.MimeType(ctx, "a.txt")
	if err != nil {
		t.Fatalf("MimeType: %v", err)
	}
	if mime != "text/plain" {
		t.Errorf("MimeType = %q, want text/plain without parameters", mime)
	}

	// Directories have no MIME type; lookup must fail, not panic.
	if _, err := d.MimeType(ctx, ""); err == nil {
		t.Error("expected MimeType on directory to fail")
	}
}

func TestURLEscaping(t *testing.T) {
	d, _ := newTestDriver(t)

	got := d.URL("docs/annual report.pdf")
	want := "http://localhost:8080/files/docs/annual%20report.pdf"
	if got != want {
		t.Errorf("URL = %q, want %q", got, want)
	}
}

func TestTemporaryURL(t *testing.T) {
	d, root := newTestDriver(t)
	writeFile(t, root, "a.txt", "hello")
	ctx := context.Background()

	// Without a signer the capability must refuse
	if _, err := d.TemporaryURL(ctx, "a.txt", time.Now().Add(time.Minute)); err == nil {
		t.Error("expected error without signer")
	}

	sgn := signer.New("test-secret")
	d.AttachSigner(sgn, "local")

	u, err := d.TemporaryURL(ctx, "a.txt", time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("TemporaryURL: %v", err)
	}
	if !strings.HasPrefix(u, "http://localhost:8080/files/a.txt?") {
		t.Errorf("TemporaryURL = %q", u)
	}

	parsed, err := url.Parse(u)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	token := parsed.Query().Get("token")
	if token == "" {
		t.Fatal("temporary URL has no token")
	}
	if err := sgn.Verify(token, "local", "a.txt"); err != nil {
		t.Errorf("token does not verify: %v", err)
	}
}

func TestAbsolutePathDeterministic(t *testing.T) {
	d, root := newTestDriver(t)

	a := d.AbsolutePath("docs/a.txt")
	b := d.AbsolutePath("/docs/a.txt")
	if a != b {
		t.Errorf("AbsolutePath differs for equivalent paths: %q vs %q", a, b)
	}
	if !strings.HasPrefix(a, root) {
		t.Errorf("AbsolutePath %q not under root %q", a, root)
	}
}

func TestList(t *testing.T) {
	d, root := newTestDriver(t)
	writeFile(t, root, "docs/a.txt", "aaa")
	writeFile(t, root, "docs/b.txt", "bb")
	writeFile(t, root, "docs/sub/c.txt", "c")

	entries, err := d.List(context.Background(), "docs")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("List returned %d entries, want 3", len(entries))
	}

	var dirs int
	for _, e := range entries {
		if e.IsDir() {
			dirs++
		}
	}
	if dirs != 1 {
		t.Errorf("List found %d dirs, want 1", dirs)
	}
}

func TestIsDirectory(t *testing.T) {
	d, root := newTestDriver(t)
	writeFile(t, root, "docs/a.txt", "hello")
	ctx := context.Background()

	isDir, err := d.IsDirectory(ctx, "docs")
	if err != nil || !isDir {
		t.Errorf("IsDirectory(docs) = %v, %v; want true", isDir, err)
	}
	isDir, err = d.IsDirectory(ctx, "docs/a.txt")
	if err != nil || isDir {
		t.Errorf("IsDirectory(docs/a.txt) = %v, %v; want false", isDir, err)
	}
}

func TestNewRequiresRoot(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("expected error for empty root_path")
	}
	if _, err := New(Config{RootPath: "/nonexistent/diskview-test"}); err == nil {
		t.Error("expected error for missing root without create_dirs")
	}
}
