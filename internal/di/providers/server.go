package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/bloomeryapp/bloomery-admin/internal/api"
	"github.com/bloomeryapp/bloomery-admin/internal/auth"
	"github.com/bloomeryapp/bloomery-admin/internal/config"
	"github.com/bloomeryapp/bloomery-admin/internal/draft"
	"github.com/bloomeryapp/bloomery-admin/internal/logger"
	"github.com/bloomeryapp/bloomery-admin/internal/media/images"
	"github.com/bloomeryapp/bloomery-admin/internal/options"
	"github.com/bloomeryapp/bloomery-admin/internal/submit"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server and starts it listening.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	searchHandle := do.MustInvoke[*SearchIndexHandle](i)

	handler := api.NewServer(api.Deps{
		Store:        storeHandle.Store,
		Search:       searchHandle.Index,
		Options:      do.MustInvoke[options.Source](i),
		Drafts:       do.MustInvoke[*draft.Store](i),
		Ingestor:     do.MustInvoke[*images.Ingestor](i),
		Submitter:    do.MustInvoke[*submit.Orchestrator](i),
		Tokens:       do.MustInvoke[*auth.TokenService](i),
		Previews:     do.MustInvoke[*images.Registry](i),
		ImageStorage: do.MustInvoke[*images.Storage](i),
		Sessions:     do.MustInvoke[*SessionManagerHandle](i).SessionManager,
		UploadLimit:  do.MustInvoke[*UploadLimiterHandle](i).KeyedLimiter,
		Config:       cfg,
		Logger:       log.Logger,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv}, nil
}
