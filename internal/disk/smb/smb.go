// Package smb provides an SMB/CIFS network share disk driver.
// The SMB share must be pre-mounted on the OS (via mount.cifs or fstab).
// This driver delegates to the local disk driver at the mount path.
package smb

import (
	"encoding/json"
	"fmt"

	"github.com/diskview/diskview/internal/disk/local"
)

// Config holds SMB disk settings.
// Server/Username/Password/Domain are stored for admin reference and documentation.
// Actual I/O uses the MountPath where the share is pre-mounted.
type Config struct {
	Server    string `json:"server"`     // SMB server path (e.g., //server/share)
	Username  string `json:"username"`   // SMB credentials
	Password  string `json:"password"`   // SMB password
	Domain    string `json:"domain"`     // SMB domain
	MountPath string `json:"mount_path"` // Local mount point where share is mounted
	BaseURL   string `json:"base_url"`   // Public URL prefix for served files
}

// Driver wraps a local driver at the SMB mount point.
type Driver struct {
	*local.Driver
	config Config
}

// New creates a new SMB driver from the given config.
func New(cfg Config) (*Driver, error) {
	if cfg.MountPath == "" {
		return nil, fmt.Errorf("mount_path is required")
	}

	ld, err := local.New(local.Config{
		RootPath:   cfg.MountPath,
		BaseURL:    cfg.BaseURL,
		CreateDirs: true,
	})
	if err != nil {
		return nil, fmt.Errorf("smb disk at %s: %w", cfg.MountPath, err)
	}

	return &Driver{
		Driver: ld,
		config: cfg,
	}, nil
}

// NewFromJSON creates a Driver from raw JSON config.
func NewFromJSON(raw json.RawMessage) (*Driver, error) {
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse smb config: %w", err)
	}
	return New(cfg)
}

// Type returns "smb".
func (d *Driver) Type() string { return "smb" }
