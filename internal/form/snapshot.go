package form

import (
	"maps"
	"slices"

	"github.com/bloomeryapp/bloomery-admin/internal/domain"
	"github.com/bloomeryapp/bloomery-admin/internal/media/images"
	"github.com/bloomeryapp/bloomery-admin/internal/validation"
)

// Snapshot is the read-only view of a form session handed to the API
// layer. Computed values (IsDirty, CanSave) are resolved here once
// rather than recomputed by consumers.
type Snapshot struct {
	SessionID string            `json:"session_id"`
	Mode      domain.Mode       `json:"mode"`
	Values    domain.FormState  `json:"values"`
	Errors    map[string]string `json:"errors"`
	Touched   []string          `json:"touched"`

	IsDirty      bool `json:"is_dirty"`
	CanSave      bool `json:"can_save"`
	ImageLoading bool `json:"image_loading"`
	Submitting   bool `json:"submitting"`

	HasImage   bool               `json:"has_image"`
	PreviewURL string             `json:"preview_url,omitempty"`
	Dimensions *images.Dimensions `json:"dimensions,omitempty"`
	BlurHash   string             `json:"blur_hash,omitempty"`

	Notice *Notice `json:"notice,omitempty"`
}

// Snapshot captures the current session state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		SessionID:    c.sessionID,
		Mode:         c.mode,
		Values:       c.state.Clone(),
		Errors:       maps.Clone(c.errors),
		IsDirty:      isDirty(c.state, c.initial, c.asset != nil),
		ImageLoading: c.imageLoading,
		Submitting:   c.submitting,
		HasImage:     c.asset != nil,
		Notice:       c.notice,
	}
	snap.Touched = slices.Sorted(maps.Keys(c.touched))

	if c.asset != nil {
		snap.PreviewURL = c.asset.Preview.URL()
		snap.Dimensions = c.asset.Dimensions
		snap.BlurHash = c.asset.BlurHash
	}

	complete := validation.Form(&c.state) == "" &&
		!c.imageLoading && !c.submitting
	switch c.mode {
	case domain.ModeCreate:
		snap.CanSave = complete && c.asset != nil
	case domain.ModeEdit:
		snap.CanSave = complete && snap.IsDirty
	}

	return snap
}

// StagedImage returns the staged upload bytes, or nil when no image is
// staged. The API layer uses this when persisting a saved product image.
func (c *Controller) StagedImage() *images.Upload {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.asset == nil {
		return nil
	}
	u := c.asset.Upload
	return &u
}
