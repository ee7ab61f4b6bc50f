// Package di provides dependency injection configuration for the
// Bloomery admin server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/bloomeryapp/bloomery-admin/internal/auth"
	"github.com/bloomeryapp/bloomery-admin/internal/config"
	"github.com/bloomeryapp/bloomery-admin/internal/di/providers"
	"github.com/bloomeryapp/bloomery-admin/internal/draft"
	"github.com/bloomeryapp/bloomery-admin/internal/logger"
	"github.com/bloomeryapp/bloomery-admin/internal/media/images"
	"github.com/bloomeryapp/bloomery-admin/internal/options"
	"github.com/bloomeryapp/bloomery-admin/internal/submit"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideAuthKey)
	do.Provide(injector, providers.ProvideTokenService)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideDraftStore)
	do.Provide(injector, providers.ProvideImageStorage)

	// Media pipeline
	do.Provide(injector, providers.ProvidePreviewRegistry)
	do.Provide(injector, providers.ProvideIngestor)

	// Form machinery
	do.Provide(injector, providers.ProvideSubmitter)
	do.Provide(injector, providers.ProvideOptionsSource)
	do.Provide(injector, providers.ProvideSessionManager)
	do.Provide(injector, providers.ProvideUploadLimiter)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle
// management. This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[*draft.Store](injector)
	_ = do.MustInvoke[*images.Storage](injector)
	_ = do.MustInvoke[*images.Registry](injector)
	_ = do.MustInvoke[*images.Ingestor](injector)
	_ = do.MustInvoke[*submit.Orchestrator](injector)
	_ = do.MustInvoke[options.Source](injector)
	_ = do.MustInvoke[*providers.SessionManagerHandle](injector)
	_ = do.MustInvoke[*providers.UploadLimiterHandle](injector)
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
