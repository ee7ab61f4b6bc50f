package providers

import (
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/bloomeryapp/bloomery-admin/internal/config"
	"github.com/bloomeryapp/bloomery-admin/internal/draft"
	"github.com/bloomeryapp/bloomery-admin/internal/logger"
	"github.com/bloomeryapp/bloomery-admin/internal/search"
	"github.com/bloomeryapp/bloomery-admin/internal/store"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the catalog store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	dbPath := filepath.Join(cfg.Data.BasePath, "catalog")
	db, err := store.New(dbPath, log.Logger)
	if err != nil {
		return nil, err
	}

	return &StoreHandle{Store: db}, nil
}

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.Index
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the product search index and wires it
// into the store's write path.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	idx, err := search.NewIndex(search.Options{
		DataPath: cfg.Data.BasePath,
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	storeHandle.SetSearchIndexer(idx)

	return &SearchIndexHandle{Index: idx}, nil
}

// ProvideDraftStore provides the product draft slot.
func ProvideDraftStore(i do.Injector) (*draft.Store, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	return draft.New(storeHandle.Store, log.Logger, cfg.Form.DraftRetention), nil
}
