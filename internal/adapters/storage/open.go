package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/jsamuelsen/quotebook/internal/ports"
)

// Supported durable drivers.
const (
	DriverDisk   = "disk"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Store is a durable slot store that can report its health and be closed.
type Store interface {
	ports.KeyValueStore
	ports.HealthChecker
	io.Closer
}

// Config selects and configures the durable driver.
type Config struct {
	Driver    string
	Path      string
	CacheSize uint64
}

// Open creates the durable store for cfg.Driver.
// The sqlite driver keeps its database in quotebook.db under Path.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case DriverDisk, "":
		return NewDisk(cfg.Path, cfg.CacheSize)
	case DriverSQLite:
		return NewSQLite(ctx, filepath.Join(cfg.Path, "quotebook.db"))
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
