package disk

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/diskview/diskview/internal/disk/local"
	s3driver "github.com/diskview/diskview/internal/disk/s3"
	"github.com/diskview/diskview/internal/disk/smb"
)

// NewDriverFromConfig creates a Driver from a driver type string and JSON config.
func NewDriverFromConfig(ctx context.Context, driverType string, config json.RawMessage) (Driver, error) {
	switch driverType {
	case "s3":
		return s3driver.NewFromJSON(ctx, config)
	case "local":
		return local.NewFromJSON(config)
	case "smb":
		return smb.NewFromJSON(config)
	default:
		return nil, fmt.Errorf("unknown driver type: %s", driverType)
	}
}
