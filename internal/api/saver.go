package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bloomeryapp/bloomery-admin/internal/domain"
	"github.com/bloomeryapp/bloomery-admin/internal/id"
	"github.com/bloomeryapp/bloomery-admin/internal/media/images"
	"github.com/bloomeryapp/bloomery-admin/internal/store"
	"github.com/bloomeryapp/bloomery-admin/internal/submit"
)

// CatalogSaver persists submitted product forms: the field bag becomes a
// product record, the image part lands in file storage.
type CatalogSaver struct {
	store   *store.Store
	storage *images.Storage
	logger  *slog.Logger
}

// NewCatalogSaver creates a saver writing to the given store and image
// storage.
func NewCatalogSaver(st *store.Store, storage *images.Storage, logger *slog.Logger) *CatalogSaver {
	return &CatalogSaver{store: st, storage: storage, logger: logger}
}

// Save implements submit.Saver. An ID collision on create is reported as
// a recoverable rejection so the user can simply retry.
func (cs *CatalogSaver) Save(ctx context.Context, p submit.Payload) (bool, error) {
	productID, isEdit := p.Fields["id"]

	if isEdit {
		existing, err := cs.store.GetProduct(ctx, productID)
		if err != nil {
			return false, err
		}
		applyFields(existing, p.Fields)
		if p.Image != nil {
			imageID, err := cs.saveImage(existing.ID, p.Image)
			if err != nil {
				return false, err
			}
			existing.ImageID = imageID
		}
		if err := cs.store.UpdateProduct(ctx, existing); err != nil {
			return false, err
		}
		return true, nil
	}

	product := &domain.Product{ID: id.MustGenerate(id.PrefixProduct)}
	applyFields(product, p.Fields)

	imageID, err := cs.saveImage(product.ID, p.Image)
	if err != nil {
		return false, err
	}
	product.ImageID = imageID

	if err := cs.store.CreateProduct(ctx, product); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// saveImage writes the upload under the product's ID, keeping the
// original extension so stored files stay recognizable.
func (cs *CatalogSaver) saveImage(productID string, up *images.Upload) (string, error) {
	ext := strings.ToLower(filepath.Ext(up.Name))
	if ext == "" {
		ext = ".jpg"
	}
	name := productID + ext
	if err := cs.storage.Save(name, up.Data); err != nil {
		return "", fmt.Errorf("failed to save product image: %w", err)
	}
	return name, nil
}

// applyFields copies the flat field bag onto the product record. Values
// were validated upstream; parse failures fall back to zero values.
func applyFields(p *domain.Product, fields map[string]string) {
	p.Name = fields[domain.FieldName]
	p.Description = fields[domain.FieldDescription]
	p.Price, _ = strconv.ParseFloat(fields[domain.FieldPrice], 64)
	p.Type = fields[domain.FieldType]
	p.Size = fields[domain.FieldSize]
	p.Status = domain.Status(fields[domain.FieldStatus])
	p.CollectionName = fields[domain.FieldCollectionName]
	p.Quantity, _ = strconv.Atoi(fields[domain.FieldQuantity])
	p.CareInstructions = fields[domain.FieldCareInstructions]
	p.Occasions = domain.SplitList(fields["occasions"])
	p.Flowers = domain.SplitList(fields["flowers"])
	p.IsNewEdition = fields[domain.FieldIsNewEdition] == "true"
	p.IsFeatured = fields[domain.FieldIsFeatured] == "true"
	p.Penanda = domain.SplitList(fields["customPenanda"])
}
