package providers

import (
	"github.com/samber/do/v2"

	"github.com/bloomeryapp/bloomery-admin/internal/config"
	"github.com/bloomeryapp/bloomery-admin/internal/logger"
	"github.com/bloomeryapp/bloomery-admin/internal/media/images"
)

// ProvidePreviewRegistry provides the in-memory preview registry.
func ProvidePreviewRegistry(i do.Injector) (*images.Registry, error) {
	return images.NewRegistry(), nil
}

// ProvideIngestor provides the image ingestion pipeline.
func ProvideIngestor(i do.Injector) (*images.Ingestor, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	previews := do.MustInvoke[*images.Registry](i)

	limits := images.DefaultLimits()
	if cfg.Image.MaxUploadBytes > 0 {
		limits.MaxBytes = cfg.Image.MaxUploadBytes
	}
	if cfg.Image.CompressThreshold > 0 {
		limits.CompressThreshold = cfg.Image.CompressThreshold
	}
	if cfg.Image.MaxEdge > 0 {
		limits.MaxEdge = cfg.Image.MaxEdge
	}
	if cfg.Image.Quality > 0 {
		limits.Quality = cfg.Image.Quality
	}

	return images.NewIngestor(previews, limits, log.Logger), nil
}

// ProvideImageStorage provides the saved product image storage.
func ProvideImageStorage(i do.Injector) (*images.Storage, error) {
	cfg := do.MustInvoke[*config.Config](i)

	return images.NewStorageWithSubdir(cfg.Data.BasePath, "images")
}
