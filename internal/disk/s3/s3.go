// Package s3 provides an S3-compatible object storage disk driver.
package s3

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/diskview/diskview/internal/metrics"
)

// Config holds S3 disk settings.
type Config struct {
	Endpoint  string `json:"endpoint"` // empty for AWS, set for MinIO etc.
	Bucket    string `json:"bucket"`
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
	Region    string `json:"region"`
	UseSSL    bool   `json:"use_ssl"`
	BaseURL   string `json:"base_url"` // optional public URL prefix (CDN)
}

// Driver implements disk.Driver against an S3-compatible bucket.
type Driver struct {
	client  *awss3.Client
	presign *awss3.PresignClient
	cfg     Config
}

// New creates a new S3 disk driver.
func New(ctx context.Context, cfg Config) (*Driver, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(endpointURL(cfg))
			o.UsePathStyle = true
		}
	})

	return &Driver{
		client:  client,
		presign: awss3.NewPresignClient(client),
		cfg:     cfg,
	}, nil
}

// NewFromJSON creates a Driver from raw JSON config.
func NewFromJSON(ctx context.Context, raw json.RawMessage) (*Driver, error) {
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse s3 config: %w", err)
	}
	return New(ctx, cfg)
}

func endpointURL(cfg Config) string {
	if strings.Contains(cfg.Endpoint, "://") {
		return cfg.Endpoint
	}
	scheme := "https"
	if !cfg.UseSSL {
		scheme = "http"
	}
	return scheme + "://" + cfg.Endpoint
}

func (d *Driver) key(path string) string {
	return strings.TrimPrefix(path, "/")
}

func (d *Driver) head(ctx context.Context, path string) (*awss3.HeadObjectOutput, error) {
	start := time.Now()
	out, err := d.client.HeadObject(ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(d.cfg.Bucket),
		Key:    aws.String(d.key(path)),
	})
	metrics.RecordDriverOperation("s3", "head", time.Since(start), err == nil)
	return out, err
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	var nk *types.NoSuchKey
	return errors.As(err, &nf) || errors.As(err, &nk)
}

// Exists checks whether an object or key prefix exists at path.
func (d *Driver) Exists(ctx context.Context, path string) (bool, error) {
	_, err := d.head(ctx, path)
	if err == nil {
		return true, nil
	}
	if !isNotFound(err) {
		return false, fmt.Errorf("head %s: %w", path, err)
	}

	// No object at the key; a common prefix still counts as a directory.
	return d.hasPrefix(ctx, path)
}

func (d *Driver) hasPrefix(ctx context.Context, path string) (bool, error) {
	prefix := strings.TrimSuffix(d.key(path), "/") + "/"
	start := time.Now()
	out, err := d.client.ListObjectsV2(ctx, &awss3.ListObjectsV2Input{
		Bucket:  aws.String(d.cfg.Bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int32(1),
	})
	metrics.RecordDriverOperation("s3", "list", time.Since(start), err == nil)
	if err != nil {
		return false, fmt.Errorf("list %s: %w", path, err)
	}
	return len(out.Contents) > 0, nil
}

// Size returns the object's size in bytes.
func (d *Driver) Size(ctx context.Context, path string) (int64, error) {
	out, err := d.head(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("head %s: %w", path, err)
	}
	return aws.ToInt64(out.ContentLength), nil
}

// MimeType returns the object's stored content type.
func (d *Driver) MimeType(ctx context.Context, path string) (string, error) {
	out, err := d.head(ctx, path)
	if err != nil {
		return "", fmt.Errorf("head %s: %w", path, err)
	}
	ct := aws.ToString(out.ContentType)
	if ct == "" {
		return "", fmt.Errorf("object %s has no content type", path)
	}
	return ct, nil
}

// LastModified returns the object's last modification time.
func (d *Driver) LastModified(ctx context.Context, path string) (time.Time, error) {
	out, err := d.head(ctx, path)
	if err != nil {
		return time.Time{}, fmt.Errorf("head %s: %w", path, err)
	}
	return aws.ToTime(out.LastModified), nil
}

// AbsolutePath returns the object URI for path.
func (d *Driver) AbsolutePath(path string) string {
	return "s3://" + d.cfg.Bucket + "/" + d.key(path)
}

// URL returns the public URL for path.
func (d *Driver) URL(path string) string {
	key := d.key(path)
	segs := strings.Split(key, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	escaped := strings.Join(segs, "/")

	if d.cfg.BaseURL != "" {
		return strings.TrimSuffix(d.cfg.BaseURL, "/") + "/" + escaped
	}
	if d.cfg.Endpoint != "" {
		return endpointURL(d.cfg) + "/" + d.cfg.Bucket + "/" + escaped
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", d.cfg.Bucket, d.cfg.Region, escaped)
}

// TemporaryURL returns a presigned GET URL valid until expiresAt.
func (d *Driver) TemporaryURL(ctx context.Context, path string, expiresAt time.Time) (string, error) {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return "", fmt.Errorf("expiry %s is in the past", expiresAt)
	}

	req, err := d.presign.PresignGetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(d.cfg.Bucket),
		Key:    aws.String(d.key(path)),
	}, awss3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", path, err)
	}
	metrics.RecordSignedURL()
	return req.URL, nil
}

// Open returns a reader over the object's content.
func (d *Driver) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	start := time.Now()
	out, err := d.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(d.cfg.Bucket),
		Key:    aws.String(d.key(path)),
	})
	metrics.RecordDriverOperation("s3", "get", time.Since(start), err == nil)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	return out.Body, nil
}

// IsDirectory reports whether path names a key prefix rather than an object.
func (d *Driver) IsDirectory(ctx context.Context, path string) (bool, error) {
	if strings.HasSuffix(path, "/") {
		return true, nil
	}
	_, err := d.head(ctx, path)
	if err == nil {
		return false, nil
	}
	if !isNotFound(err) {
		return false, fmt.Errorf("head %s: %w", path, err)
	}
	return d.hasPrefix(ctx, path)
}

// List enumerates the immediate children of a key prefix.
func (d *Driver) List(ctx context.Context, path string) ([]fs.DirEntry, error) {
	prefix := strings.TrimSuffix(d.key(path), "/")
	if prefix != "" {
		prefix += "/"
	}

	var entries []fs.DirEntry
	var token *string
	for {
		start := time.Now()
		out, err := d.client.ListObjectsV2(ctx, &awss3.ListObjectsV2Input{
			Bucket:            aws.String(d.cfg.Bucket),
			Prefix:            aws.String(prefix),
			Delimiter:         aws.String("/"),
			ContinuationToken: token,
		})
		metrics.RecordDriverOperation("s3", "list", time.Since(start), err == nil)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", path, err)
		}

		for _, cp := range out.CommonPrefixes {
			name := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(cp.Prefix), prefix), "/")
			entries = append(entries, &objectEntry{name: name, dir: true})
		}
		for _, obj := range out.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), prefix)
			if name == "" {
				continue // the prefix marker object itself
			}
			entries = append(entries, &objectEntry{
				name:    name,
				size:    aws.ToInt64(obj.Size),
				modTime: aws.ToTime(obj.LastModified),
			})
		}

		if !aws.ToBool(out.IsTruncated) {
			break
		}
		token = out.NextContinuationToken
	}
	return entries, nil
}

// Type returns "s3".
func (d *Driver) Type() string { return "s3" }

// Close is a no-op for S3 disks.
func (d *Driver) Close() error { return nil }

// objectEntry adapts an S3 listing row to fs.DirEntry.
type objectEntry struct {
	name    string
	size    int64
	modTime time.Time
	dir     bool
}

func (e *objectEntry) Name() string { return e.name }
func (e *objectEntry) IsDir() bool  { return e.dir }

func (e *objectEntry) Type() fs.FileMode {
	if e.dir {
		return fs.ModeDir
	}
	return 0
}

func (e *objectEntry) Info() (fs.FileInfo, error) { return e, nil }

func (e *objectEntry) Size() int64        { return e.size }
func (e *objectEntry) Mode() fs.FileMode  { return e.Type() }
func (e *objectEntry) ModTime() time.Time { return e.modTime }
func (e *objectEntry) Sys() any           { return nil }
