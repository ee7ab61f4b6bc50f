// Package form owns the authoritative state of an active product form
// session: field values, touched tracking, the per-field error map,
// image staging, draft autosave, and submit orchestration.
package form

import (
	"context"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bloomeryapp/bloomery-admin/internal/domain"
	domainerrors "github.com/bloomeryapp/bloomery-admin/internal/errors"
	"github.com/bloomeryapp/bloomery-admin/internal/draft"
	"github.com/bloomeryapp/bloomery-admin/internal/id"
	"github.com/bloomeryapp/bloomery-admin/internal/media/images"
	"github.com/bloomeryapp/bloomery-admin/internal/sched"
	"github.com/bloomeryapp/bloomery-admin/internal/submit"
	"github.com/bloomeryapp/bloomery-admin/internal/validation"
)

// Timing defaults.
const (
	DefaultDebounceInterval  = 275 * time.Millisecond
	DefaultDraftSaveInterval = 2 * time.Second
	noticeDismissAfter       = 4 * time.Second
)

// requiredFields gate submit and validate immediately on edit; the rest
// validate after the debounce interval.
var requiredFields = map[string]bool{
	domain.FieldName:   true,
	domain.FieldPrice:  true,
	domain.FieldSize:   true,
	domain.FieldStatus: true,
}

// FocusFunc delivers a scroll-to-first-error request. The controller
// decides which field is first-invalid; delivery belongs to the caller.
type FocusFunc func(field string)

// Config holds the session timings.
type Config struct {
	DebounceInterval  time.Duration
	DraftSaveInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.DebounceInterval <= 0 {
		c.DebounceInterval = DefaultDebounceInterval
	}
	if c.DraftSaveInterval <= 0 {
		c.DraftSaveInterval = DefaultDraftSaveInterval
	}
	return c
}

// Deps are the controller's collaborators. Drafts may be nil to disable
// draft persistence; Focus may be nil when no delivery target exists.
type Deps struct {
	Ingestor  *images.Ingestor
	Drafts    *draft.Store
	Submitter *submit.Orchestrator
	Logger    *slog.Logger
	Focus     FocusFunc
}

// NoticeKind distinguishes blocking errors from auto-dismissing info.
type NoticeKind string

// Notice kinds.
const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is the most recent actionable message for the user.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
}

// Controller is one active form session. All exported methods are safe
// for concurrent use; asynchronous completions re-check the closed flag
// before touching state.
type Controller struct {
	mu sync.Mutex

	sessionID string
	mode      domain.Mode
	cfg       Config
	deps      Deps

	state   domain.FormState
	initial domain.FormState
	touched map[string]bool
	errors  map[string]string

	asset        *images.Asset
	imageLoading bool
	submitting   bool
	closed       bool

	notice      *Notice
	noticeTimer *time.Timer

	// sessionCtx is cancelled by Close so in-flight ingest and save
	// calls are abandoned instead of running to completion.
	sessionCtx    context.Context
	cancelSession context.CancelFunc

	debounce     *sched.Debouncer
	autosaveStop chan struct{}
}

// NewCreate starts a create-mode session. A usable draft, if present,
// seeds the form; the autosave goroutine then keeps the slot current.
func NewCreate(cfg Config, deps Deps) *Controller {
	c := newController(domain.ModeCreate, cfg, deps)
	c.state = domain.Defaults()

	if deps.Drafts != nil {
		if rec := deps.Drafts.Load(); rec != nil {
			c.state = rec.Form
			c.state.NewPenandaInput = ""
		}
		c.autosaveStop = make(chan struct{})
		go c.autosaveLoop()
	}

	c.initial = c.state.Clone()
	return c
}

// NewEdit starts an edit-mode session seeded from an existing product.
func NewEdit(cfg Config, deps Deps, p *domain.Product) *Controller {
	c := newController(domain.ModeEdit, cfg, deps)
	c.state = domain.FromProduct(p)
	c.initial = c.state.Clone()
	return c
}

func newController(mode domain.Mode, cfg Config, deps Deps) *Controller {
	cfg = cfg.withDefaults()
	sessionCtx, cancel := context.WithCancel(context.Background())
	return &Controller{
		sessionID:     id.MustGenerate(id.PrefixSession),
		mode:          mode,
		cfg:           cfg,
		deps:          deps,
		touched:       make(map[string]bool),
		errors:        make(map[string]string),
		sessionCtx:    sessionCtx,
		cancelSession: cancel,
		debounce:      sched.NewDebouncer(cfg.DebounceInterval),
	}
}

// sessionScoped derives a context that is additionally cancelled when
// the session closes. The returned stop func releases the watcher.
func (c *Controller) sessionScoped(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(c.sessionCtx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// ID returns the session identifier.
func (c *Controller) ID() string { return c.sessionID }

// Mode returns the session mode.
func (c *Controller) Mode() domain.Mode { return c.mode }

// SetField records a keystroke or selection: marks the field touched,
// coerces and installs the value, and validates either immediately (for
// the submit-gating fields) or after the debounce interval. A debounced
// validation re-checks the field's value at fire time and discards
// itself when a newer edit has landed.
func (c *Controller) SetField(name, raw string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return domainerrors.ErrSessionClosed
	}

	c.touched[name] = true
	c.applyValue(name, raw)

	if requiredFields[name] {
		c.revalidateLocked(name)
		return nil
	}

	seen := c.fieldValue(name)
	c.debounce.Schedule(name, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed || c.fieldValue(name) != seen {
			return
		}
		c.revalidateLocked(name)
	})
	return nil
}

// applyValue coerces raw into the field. Numeric garbage clamps to 0
// rather than erroring; the validator then reports the zero where the
// field requires a positive value.
func (c *Controller) applyValue(name, raw string) {
	switch name {
	case domain.FieldName:
		c.state.Name = raw
	case domain.FieldDescription:
		c.state.Description = raw
	case domain.FieldPrice:
		c.state.Price = coerceFloat(raw)
	case domain.FieldType:
		c.state.Type = raw
	case domain.FieldSize:
		c.state.Size = raw
	case domain.FieldStatus:
		c.state.Status = raw
	case domain.FieldCollectionName:
		c.state.CollectionName = raw
	case domain.FieldQuantity:
		c.state.Quantity = coerceInt(raw)
	case domain.FieldCareInstructions:
		c.state.CareInstructions = raw
	case domain.FieldOccasionsText:
		c.state.OccasionsText = raw
		c.state.Occasions = capList(domain.SplitList(raw), domain.MaxOccasions)
	case domain.FieldFlowersText:
		c.state.FlowersText = raw
		c.state.Flowers = capList(domain.SplitList(raw), domain.MaxFlowers)
	case domain.FieldIsNewEdition:
		c.state.IsNewEdition = raw == "true"
	case domain.FieldIsFeatured:
		c.state.IsFeatured = raw == "true"
	case domain.FieldNewPenanda:
		c.state.NewPenandaInput = raw
	}
}

// fieldValue renders the current value of a field for the debounce
// stale-check. The rendering only needs to be stable, not pretty.
func (c *Controller) fieldValue(name string) string {
	switch name {
	case domain.FieldName:
		return c.state.Name
	case domain.FieldDescription:
		return c.state.Description
	case domain.FieldPrice:
		return strconv.FormatFloat(c.state.Price, 'f', -1, 64)
	case domain.FieldType:
		return c.state.Type
	case domain.FieldSize:
		return c.state.Size
	case domain.FieldStatus:
		return c.state.Status
	case domain.FieldCollectionName:
		return c.state.CollectionName
	case domain.FieldQuantity:
		return strconv.Itoa(c.state.Quantity)
	case domain.FieldCareInstructions:
		return c.state.CareInstructions
	case domain.FieldOccasionsText:
		return c.state.OccasionsText
	case domain.FieldFlowersText:
		return c.state.FlowersText
	case domain.FieldIsNewEdition:
		return strconv.FormatBool(c.state.IsNewEdition)
	case domain.FieldIsFeatured:
		return strconv.FormatBool(c.state.IsFeatured)
	case domain.FieldNewPenanda:
		return c.state.NewPenandaInput
	default:
		return ""
	}
}

func (c *Controller) revalidateLocked(name string) {
	if msg := validation.Field(name, &c.state); msg != "" {
		c.errors[name] = msg
	} else {
		delete(c.errors, name)
	}
}

// AddTag validates and appends the staged custom tag. Format and
// duplicate violations report an error without mutating the list; a
// count-cap violation additionally clears the staged input so the
// widget cannot wedge.
func (c *Controller) AddTag(tag string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return domainerrors.ErrSessionClosed
	}

	trimmed := strings.TrimSpace(tag)
	if msg := validation.Penanda(trimmed); msg != "" {
		c.errors[domain.FieldNewPenanda] = msg
		return domainerrors.Validation(msg)
	}
	if validation.PenandaDuplicate(trimmed, c.state.Penanda) {
		msg := "Tag already exists"
		c.errors[domain.FieldNewPenanda] = msg
		return domainerrors.Validation(msg)
	}
	if len(c.state.Penanda) >= domain.MaxPenanda {
		msg := "At most 10 tags are allowed"
		c.errors[domain.FieldNewPenanda] = msg
		c.state.NewPenandaInput = ""
		return domainerrors.Validation(msg)
	}

	c.state.Penanda = append(c.state.Penanda, trimmed)
	c.state.NewPenandaInput = ""
	delete(c.errors, domain.FieldNewPenanda)
	return nil
}

// RemoveTag drops a tag by exact value. Removing an absent tag is a
// no-op.
func (c *Controller) RemoveTag(tag string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return domainerrors.ErrSessionClosed
	}

	for i, existing := range c.state.Penanda {
		if existing == tag {
			c.state.Penanda = append(c.state.Penanda[:i], c.state.Penanda[i+1:]...)
			break
		}
	}
	delete(c.errors, domain.FieldNewPenanda)
	return nil
}

// StageImage runs the ingestion pipeline on an upload and installs the
// resulting asset, releasing the previous one. A selection while a load
// is in flight is rejected rather than queued. An ingestion failure
// leaves any previously accepted asset untouched.
func (c *Controller) StageImage(ctx context.Context, up images.Upload) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return domainerrors.ErrSessionClosed
	}
	if c.imageLoading {
		c.mu.Unlock()
		return domainerrors.Busy("an image is already loading")
	}
	if c.submitting {
		c.mu.Unlock()
		return domainerrors.Busy("a save is in progress")
	}
	c.imageLoading = true
	c.mu.Unlock()

	ctx, stop := c.sessionScoped(ctx)
	defer stop()
	asset, err := c.deps.Ingestor.Ingest(ctx, up)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.imageLoading = false

	if c.closed {
		asset.Release()
		return domainerrors.ErrSessionClosed
	}
	if err != nil {
		c.errors[domain.FieldImage] = err.Error()
		return err
	}

	c.asset.Release()
	c.asset = asset
	delete(c.errors, domain.FieldImage)
	return nil
}

// ClearImage releases the staged asset without replacing it.
func (c *Controller) ClearImage() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return domainerrors.ErrSessionClosed
	}
	if c.imageLoading {
		return domainerrors.Busy("an image is already loading")
	}

	c.asset.Release()
	c.asset = nil
	delete(c.errors, domain.FieldImage)
	return nil
}

// Submit validates the whole form and drives the save call. It is
// exclusive: a second attempt while one is in flight returns a busy
// error rather than queuing.
func (c *Controller) Submit(ctx context.Context) (*Notice, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, domainerrors.ErrSessionClosed
	}
	if c.submitting {
		c.mu.Unlock()
		return nil, domainerrors.Busy("a save is already in progress")
	}
	if c.imageLoading {
		c.mu.Unlock()
		return nil, domainerrors.Busy("an image is still loading")
	}

	// Surface required-field errors even for fields never focused.
	for name := range requiredFields {
		c.touched[name] = true
		c.revalidateLocked(name)
	}
	if msg := validation.Form(&c.state); msg != "" {
		field := c.firstInvalidLocked()
		c.mu.Unlock()
		if c.deps.Focus != nil && field != "" {
			c.deps.Focus(field)
		}
		return nil, domainerrors.Validation(msg)
	}
	if c.mode == domain.ModeCreate && c.asset == nil {
		msg := "An image is required"
		c.errors[domain.FieldImage] = msg
		c.mu.Unlock()
		return nil, domainerrors.Validation(msg)
	}

	c.submitting = true
	form := c.state.Clone()
	var upload *images.Upload
	if c.asset != nil {
		u := c.asset.Upload
		upload = &u
	}
	c.mu.Unlock()

	ctx, stop := c.sessionScoped(ctx)
	defer stop()
	outcome := c.deps.Submitter.Submit(ctx, c.mode, form, upload)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitting = false

	if c.closed {
		return nil, domainerrors.ErrSessionClosed
	}

	switch {
	case outcome.OK:
		c.applySuccessLocked()
		return c.setNoticeLocked(NoticeSuccess, "Product saved"), nil
	case outcome.Retryable:
		return c.setNoticeLocked(NoticeError, outcome.Message),
			domainerrors.SubmitFailed(outcome.Message)
	default:
		return c.setNoticeLocked(NoticeError, outcome.Message),
			domainerrors.SubmitFailed(outcome.Message)
	}
}

// applySuccessLocked performs the post-save state transition: create
// resets to a blank form and clears the draft, edit re-baselines its
// saved snapshot. Either way the staged asset is retired.
func (c *Controller) applySuccessLocked() {
	c.asset.Release()
	c.asset = nil

	if c.mode == domain.ModeCreate {
		c.state = domain.Defaults()
		c.touched = make(map[string]bool)
		c.errors = make(map[string]string)
		if c.deps.Drafts != nil {
			c.deps.Drafts.Clear()
		}
	}
	c.initial = c.state.Clone()
}

func (c *Controller) firstInvalidLocked() string {
	for _, name := range []string{
		domain.FieldName, domain.FieldPrice, domain.FieldSize, domain.FieldStatus,
	} {
		if validation.Field(name, &c.state) != "" {
			return name
		}
	}
	if len(c.state.Penanda) > domain.MaxPenanda {
		return domain.FieldNewPenanda
	}
	return ""
}

// setNoticeLocked installs the latest actionable message. Success
// notices auto-dismiss; error notices persist until replaced.
func (c *Controller) setNoticeLocked(kind NoticeKind, msg string) *Notice {
	if c.noticeTimer != nil {
		c.noticeTimer.Stop()
		c.noticeTimer = nil
	}

	n := &Notice{Kind: kind, Message: msg}
	c.notice = n

	if kind == NoticeSuccess {
		c.noticeTimer = time.AfterFunc(noticeDismissAfter, func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if !c.closed && c.notice == n {
				c.notice = nil
			}
		})
	}
	return n
}

// autosaveLoop persists the create form on a fixed cadence while it has
// any input and no save is in flight.
func (c *Controller) autosaveLoop() {
	ticker := time.NewTicker(c.cfg.DraftSaveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.autosaveStop:
			return
		case <-ticker.C:
			c.mu.Lock()
			if c.closed {
				c.mu.Unlock()
				return
			}
			save := !c.submitting && c.state.HasAnyInput()
			snapshot := c.state.Clone()
			c.mu.Unlock()

			if save {
				c.deps.Drafts.Save(snapshot)
			}
		}
	}
}

// Close tears the session down: pending validation timers are dropped,
// the autosave loop exits, in-flight ingest and save calls are
// cancelled, and the preview handle is released. Closing twice is safe.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.noticeTimer != nil {
		c.noticeTimer.Stop()
		c.noticeTimer = nil
	}
	c.asset.Release()
	c.asset = nil
	stop := c.autosaveStop
	c.mu.Unlock()

	c.cancelSession()
	c.debounce.Stop()
	if stop != nil {
		close(stop)
	}
}

// capList truncates past the limit so the list fields never exceed
// their caps, whatever the CSV mirror holds. The mirror keeps the full
// text so the validator can still report the overflow.
func capList(items []string, limit int) []string {
	if len(items) > limit {
		return items[:limit]
	}
	return items
}

func coerceFloat(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func coerceInt(raw string) int {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || v < 0 {
		return 0
	}
	return v
}
