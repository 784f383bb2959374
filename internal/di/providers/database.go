package providers

import (
	"fmt"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/listenupapp/listenup-lists/internal/config"
	"github.com/listenupapp/listenup-lists/internal/logger"
	"github.com/listenupapp/listenup-lists/internal/store"
	"github.com/listenupapp/listenup-lists/internal/store/badgerdb"
	"github.com/listenupapp/listenup-lists/internal/store/sqlite"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the configured store backend.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	// The auth key provider creates the data directory.
	_ = do.MustInvoke[AuthKey](i)

	var (
		db     store.Store
		dbPath string
		err    error
	)
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		dbPath = filepath.Join(cfg.Storage.DataPath, "lists.db")
		db, err = sqlite.Open(dbPath, log.Logger)
	case config.DriverBadger:
		dbPath = filepath.Join(cfg.Storage.DataPath, "db")
		db, err = badgerdb.New(dbPath, log.Logger)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Storage.Driver)
	}
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "driver", cfg.Storage.Driver, "path", dbPath)

	return &StoreHandle{Store: db}, nil
}
