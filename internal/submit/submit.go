// Package submit turns a validated form into an outbound save call,
// racing it against a mode-specific timeout and classifying failures
// into user-facing messages.
package submit

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	domainerrors "github.com/bloomeryapp/bloomery-admin/internal/errors"

	"github.com/bloomeryapp/bloomery-admin/internal/domain"
	"github.com/bloomeryapp/bloomery-admin/internal/media/images"
)

// Default timeouts. Create carries the image payload, so it gets the
// longer window.
const (
	DefaultCreateTimeout = 90 * time.Second
	DefaultEditTimeout   = 30 * time.Second
)

// User-facing failure messages.
const (
	msgRetry    = "Could not save the product. Please try again."
	msgTimeout  = "Saving took too long. Please check your connection and try again."
	msgNetwork  = "A network error occurred while saving. Please try again."
	msgTooLarge = "The image is too large to upload."
	msgBadType  = "The image format is not supported."
)

// Payload is the flat string bag handed to the saver, plus the optional
// binary image part.
type Payload struct {
	Fields map[string]string
	Image  *images.Upload
}

// Saver performs the actual save or upload. A false return without an
// error is a recoverable server-side rejection.
type Saver interface {
	Save(ctx context.Context, p Payload) (bool, error)
}

// Outcome is the classified result of a submit attempt.
type Outcome struct {
	OK bool
	// Retryable is set on a false saver return: nothing was discarded
	// and the user may retry immediately.
	Retryable bool
	// Message is the user-facing text for failures.
	Message string
}

// Orchestrator builds payloads and drives the save call.
type Orchestrator struct {
	saver         Saver
	createTimeout time.Duration
	editTimeout   time.Duration
	logger        *slog.Logger
}

// New creates an orchestrator. Non-positive timeouts fall back to the
// defaults.
func New(saver Saver, createTimeout, editTimeout time.Duration, logger *slog.Logger) *Orchestrator {
	if createTimeout <= 0 {
		createTimeout = DefaultCreateTimeout
	}
	if editTimeout <= 0 {
		editTimeout = DefaultEditTimeout
	}
	return &Orchestrator{
		saver:         saver,
		createTimeout: createTimeout,
		editTimeout:   editTimeout,
		logger:        logger,
	}
}

// BuildPayload flattens the form into the outbound field bag. Lists are
// comma-joined, booleans become "true"/"false", numbers are stringified.
// The image is required in create mode and omitted in edit mode when
// unchanged (nil).
func BuildPayload(mode domain.Mode, form domain.FormState, image *images.Upload) (Payload, error) {
	if mode == domain.ModeCreate && image == nil {
		return Payload{}, domainerrors.Validation("An image is required")
	}

	fields := map[string]string{
		domain.FieldName:             form.Name,
		domain.FieldDescription:      form.Description,
		domain.FieldPrice:            strconv.FormatFloat(form.Price, 'f', -1, 64),
		domain.FieldType:             form.Type,
		domain.FieldSize:             form.Size,
		domain.FieldStatus:           form.Status,
		domain.FieldCollectionName:   form.CollectionName,
		domain.FieldQuantity:         strconv.Itoa(form.Quantity),
		domain.FieldCareInstructions: form.CareInstructions,
		"occasions":                  strings.Join(form.Occasions, ","),
		"flowers":                    strings.Join(form.Flowers, ","),
		domain.FieldIsNewEdition:     strconv.FormatBool(form.IsNewEdition),
		domain.FieldIsFeatured:       strconv.FormatBool(form.IsFeatured),
		"customPenanda":              strings.Join(form.Penanda, ","),
	}
	if mode == domain.ModeEdit {
		fields["id"] = form.ID
	}

	return Payload{Fields: fields, Image: image}, nil
}

// Submit builds the payload and races the saver against the mode's
// timeout. It never returns an error: every failure is classified into
// an Outcome message.
func (o *Orchestrator) Submit(ctx context.Context, mode domain.Mode, form domain.FormState, image *images.Upload) Outcome {
	payload, err := BuildPayload(mode, form, image)
	if err != nil {
		return Outcome{Message: err.Error()}
	}

	timeout := o.editTimeout
	if mode == domain.ModeCreate {
		timeout = o.createTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ok, err := o.saver.Save(ctx, payload)
	if err != nil {
		if o.logger != nil {
			o.logger.Warn("save failed", "mode", string(mode), "error", err)
		}
		return Outcome{Message: o.classify(err)}
	}
	if !ok {
		return Outcome{Retryable: true, Message: msgRetry}
	}
	return Outcome{OK: true}
}

// classify maps a saver error onto one of the user-facing templates.
func (o *Orchestrator) classify(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return msgTimeout
	case errors.Is(err, domainerrors.ErrTooLarge):
		return msgTooLarge
	case errors.Is(err, domainerrors.ErrUnsupportedType):
		return msgBadType
	case errors.Is(err, context.Canceled):
		return msgRetry
	default:
		return msgNetwork
	}
}
