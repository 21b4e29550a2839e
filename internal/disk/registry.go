package disk

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/diskview/diskview/internal/logging"
	"github.com/diskview/diskview/internal/metrics"
	"github.com/diskview/diskview/internal/signer"
)

// Definition describes one configured disk.
type Definition struct {
	ID         int             `json:"id"`
	Name       string          `json:"name"`
	DriverType string          `json:"driver"`
	Config     json.RawMessage `json:"-"`
	IsDefault  bool            `json:"is_default"`
}

// RegisteredDisk pairs a Definition with its instantiated Driver.
type RegisteredDisk struct {
	Definition
	Driver Driver
}

// signable is implemented by drivers that take a token signer (local, smb).
type signable interface {
	AttachSigner(s *signer.Signer, diskName string)
}

// Registry resolves disk names to drivers. Definitions come either from the
// optional Postgres store or from static seeding at startup.
type Registry struct {
	mu          sync.RWMutex
	disks       map[string]*RegisteredDisk
	defaultName string
	store       *Store
	signer      *signer.Signer
}

// NewRegistry creates an empty Registry. The signer may be nil when URL
// signing is disabled; the store may be nil when disks are seeded statically.
func NewRegistry(store *Store, sgn *signer.Signer) *Registry {
	return &Registry{
		disks:  make(map[string]*RegisteredDisk),
		store:  store,
		signer: sgn,
	}
}

// Seed instantiates drivers for the given definitions and registers them.
// Used when no database is configured.
func (r *Registry) Seed(ctx context.Context, defs []Definition) error {
	for _, def := range defs {
		driver, err := NewDriverFromConfig(ctx, def.DriverType, def.Config)
		if err != nil {
			return fmt.Errorf("disk %s: %w", def.Name, err)
		}
		r.register(def, driver)
	}
	r.mu.RLock()
	metrics.SetDisksConfigured(len(r.disks))
	r.mu.RUnlock()
	return nil
}

// Register adds an already-constructed driver under def.Name. Useful for
// custom drivers not known to the factory.
func (r *Registry) Register(def Definition, driver Driver) {
	r.register(def, driver)
	r.mu.RLock()
	metrics.SetDisksConfigured(len(r.disks))
	r.mu.RUnlock()
}

func (r *Registry) register(def Definition, driver Driver) {
	if r.signer != nil {
		if s, ok := driver.(signable); ok {
			s.AttachSigner(r.signer, def.Name)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.disks[def.Name] = &RegisteredDisk{Definition: def, Driver: driver}
	if def.IsDefault || r.defaultName == "" {
		r.defaultName = def.Name
	}
}

// Reload re-reads all disk definitions from the database and re-instantiates
// drivers whose config changed. No-op when no store is configured.
func (r *Registry) Reload(ctx context.Context) error {
	if r.store == nil {
		return nil
	}

	defs, err := r.store.List(ctx)
	if err != nil {
		return err
	}

	newDisks := make(map[string]*RegisteredDisk, len(defs))
	var newDefault string

	for _, def := range defs {
		// Reuse existing driver if config hasn't changed
		r.mu.RLock()
		existing := r.disks[def.Name]
		r.mu.RUnlock()

		var driver Driver
		if existing != nil && string(existing.Config) == string(def.Config) && existing.DriverType == def.DriverType {
			driver = existing.Driver
		} else {
			driver, err = NewDriverFromConfig(ctx, def.DriverType, def.Config)
			if err != nil {
				logging.Error("failed to initialize disk driver",
					zap.String("disk", def.Name),
					zap.String("driver", def.DriverType),
					zap.Error(err))
				continue
			}
			if r.signer != nil {
				if s, ok := driver.(signable); ok {
					s.AttachSigner(r.signer, def.Name)
				}
			}
			// Close old driver if replaced
			if existing != nil && existing.Driver != nil {
				existing.Driver.Close()
			}
		}

		newDisks[def.Name] = &RegisteredDisk{Definition: def, Driver: driver}
		if def.IsDefault {
			newDefault = def.Name
		}
	}

	r.mu.Lock()
	r.disks = newDisks
	if newDefault != "" {
		r.defaultName = newDefault
	}
	count := len(r.disks)
	r.mu.Unlock()

	metrics.SetDisksConfigured(count)
	logging.Info("disk registry reloaded",
		zap.Int("disks", count),
		zap.String("default", newDefault))

	return nil
}

// Get returns the driver for the named disk. An empty name resolves to the
// default disk.
func (r *Registry) Get(name string) (Driver, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if name == "" {
		name = r.defaultName
	}
	rd, ok := r.disks[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDisk, name)
	}
	return rd.Driver, nil
}

// DefaultName returns the name of the default disk ("" when none).
func (r *Registry) DefaultName() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultName
}

// Definitions returns all registered disk definitions sorted by name.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]Definition, 0, len(r.disks))
	for _, rd := range r.disks {
		defs = append(defs, rd.Definition)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Close closes all registered drivers.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rd := range r.disks {
		if rd.Driver != nil {
			rd.Driver.Close()
		}
	}
	return nil
}
