package providers

import (
	"github.com/samber/do/v2"

	"github.com/bloomeryapp/bloomery-admin/internal/api"
	"github.com/bloomeryapp/bloomery-admin/internal/config"
	"github.com/bloomeryapp/bloomery-admin/internal/logger"
	"github.com/bloomeryapp/bloomery-admin/internal/media/images"
	"github.com/bloomeryapp/bloomery-admin/internal/options"
	"github.com/bloomeryapp/bloomery-admin/internal/ratelimit"
	"github.com/bloomeryapp/bloomery-admin/internal/submit"
)

// ProvideSubmitter provides the submit orchestrator backed by the
// catalog saver.
func ProvideSubmitter(i do.Injector) (*submit.Orchestrator, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	storage := do.MustInvoke[*images.Storage](i)

	saver := api.NewCatalogSaver(storeHandle.Store, storage, log.Logger)
	return submit.New(saver, cfg.Form.SubmitTimeoutCreate, cfg.Form.SubmitTimeoutEdit, log.Logger), nil
}

// ProvideOptionsSource provides the form dropdown options.
func ProvideOptionsSource(i do.Injector) (options.Source, error) {
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	return options.NewCatalogSource(storeHandle.Store, log.Logger), nil
}

// SessionManagerHandle wraps the session manager with shutdown
// capability.
type SessionManagerHandle struct {
	*api.SessionManager
}

// Shutdown implements do.Shutdownable.
func (h *SessionManagerHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideSessionManager provides the form session manager.
func ProvideSessionManager(i do.Injector) (*SessionManagerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return &SessionManagerHandle{
		SessionManager: api.NewSessionManager(cfg.Form.SessionIdleTimeout, log.Logger),
	}, nil
}

// UploadLimiterHandle wraps the upload rate limiter with shutdown
// capability.
type UploadLimiterHandle struct {
	*ratelimit.KeyedLimiter
}

// Shutdown implements do.Shutdownable.
func (h *UploadLimiterHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideUploadLimiter provides the per-session upload rate limiter.
func ProvideUploadLimiter(i do.Injector) (*UploadLimiterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)

	return &UploadLimiterHandle{
		KeyedLimiter: ratelimit.New(cfg.Upload.RPS, cfg.Upload.Burst),
	}, nil
}
