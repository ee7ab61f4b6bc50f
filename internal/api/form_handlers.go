package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bloomeryapp/bloomery-admin/internal/domain"
	domainerrors "github.com/bloomeryapp/bloomery-admin/internal/errors"
	"github.com/bloomeryapp/bloomery-admin/internal/form"
)

func (s *Server) registerFormRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "openForm",
		Method:      http.MethodPost,
		Path:        "/api/v1/forms",
		Summary:     "Open form session",
		Description: "Opens a create or edit form session and returns its initial state",
		Tags:        []string{"Forms"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleOpenForm)

	huma.Register(s.api, huma.Operation{
		OperationID: "getForm",
		Method:      http.MethodGet,
		Path:        "/api/v1/forms/{id}",
		Summary:     "Get form state",
		Description: "Returns the current state of a form session",
		Tags:        []string{"Forms"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetForm)

	huma.Register(s.api, huma.Operation{
		OperationID: "closeForm",
		Method:      http.MethodDelete,
		Path:        "/api/v1/forms/{id}",
		Summary:     "Close form session",
		Description: "Closes a form session and releases its resources",
		Tags:        []string{"Forms"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCloseForm)

	huma.Register(s.api, huma.Operation{
		OperationID: "setFormField",
		Method:      http.MethodPatch,
		Path:        "/api/v1/forms/{id}/fields",
		Summary:     "Set form field",
		Description: "Applies a field edit and returns the updated form state",
		Tags:        []string{"Forms"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSetField)

	huma.Register(s.api, huma.Operation{
		OperationID: "addFormTag",
		Method:      http.MethodPost,
		Path:        "/api/v1/forms/{id}/tags",
		Summary:     "Add custom tag",
		Description: "Validates and appends a custom tag to the form",
		Tags:        []string{"Forms"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAddTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeFormTag",
		Method:      http.MethodDelete,
		Path:        "/api/v1/forms/{id}/tags/{tag}",
		Summary:     "Remove custom tag",
		Description: "Removes a custom tag from the form",
		Tags:        []string{"Forms"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRemoveTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "clearFormImage",
		Method:      http.MethodDelete,
		Path:        "/api/v1/forms/{id}/image",
		Summary:     "Clear staged image",
		Description: "Releases the staged image and its preview",
		Tags:        []string{"Forms"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleClearImage)

	huma.Register(s.api, huma.Operation{
		OperationID: "submitForm",
		Method:      http.MethodPost,
		Path:        "/api/v1/forms/{id}/submit",
		Summary:     "Submit form",
		Description: "Validates the form and saves the product",
		Tags:        []string{"Forms"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSubmitForm)

	huma.Register(s.api, huma.Operation{
		OperationID: "getDraft",
		Method:      http.MethodGet,
		Path:        "/api/v1/drafts/product",
		Summary:     "Get draft status",
		Description: "Reports whether a usable product draft exists",
		Tags:        []string{"Forms"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetDraft)

	huma.Register(s.api, huma.Operation{
		OperationID: "clearDraft",
		Method:      http.MethodDelete,
		Path:        "/api/v1/drafts/product",
		Summary:     "Discard draft",
		Description: "Discards the saved product draft",
		Tags:        []string{"Forms"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleClearDraft)
}

// === DTOs ===

// OpenFormRequest is the request body for opening a form session.
type OpenFormRequest struct {
	Mode      string `json:"mode" validate:"required,oneof=create edit" doc:"Form mode: create or edit"`
	ProductID string `json:"product_id,omitempty" doc:"Product to edit, required in edit mode"`
}

// OpenFormInput wraps the open form request for Huma.
type OpenFormInput struct {
	Body OpenFormRequest
}

// SnapshotOutput wraps a form state snapshot for Huma.
type SnapshotOutput struct {
	Body form.Snapshot
}

// FormInput identifies a form session.
type FormInput struct {
	ID string `path:"id" doc:"Form session ID"`
}

// SetFieldRequest is the request body for a field edit.
type SetFieldRequest struct {
	Field string `json:"field" validate:"required" doc:"Field name"`
	Value string `json:"value" doc:"Raw field value"`
}

// SetFieldInput wraps the field edit for Huma.
type SetFieldInput struct {
	ID   string `path:"id" doc:"Form session ID"`
	Body SetFieldRequest
}

// AddTagRequest is the request body for adding a custom tag.
type AddTagRequest struct {
	Tag string `json:"tag" validate:"required" doc:"Tag text"`
}

// AddTagInput wraps the tag addition for Huma.
type AddTagInput struct {
	ID   string `path:"id" doc:"Form session ID"`
	Body AddTagRequest
}

// RemoveTagInput identifies a tag to remove.
type RemoveTagInput struct {
	ID  string `path:"id" doc:"Form session ID"`
	Tag string `path:"tag" doc:"Tag text"`
}

// SubmitResponse is the result of a submit attempt.
type SubmitResponse struct {
	Notice   *form.Notice  `json:"notice,omitempty" doc:"Result notice"`
	Snapshot form.Snapshot `json:"snapshot" doc:"Form state after the attempt"`
}

// SubmitOutput wraps the submit response for Huma.
type SubmitOutput struct {
	Body SubmitResponse
}

// DraftStatusResponse reports draft availability.
type DraftStatusResponse struct {
	Exists bool `json:"exists" doc:"Whether a usable draft exists"`
}

// DraftStatusOutput wraps the draft status for Huma.
type DraftStatusOutput struct {
	Body DraftStatusResponse
}

// === Handlers ===

func (s *Server) handleOpenForm(ctx context.Context, input *OpenFormInput) (*SnapshotOutput, error) {
	if _, err := RequireAdmin(ctx); err != nil {
		return nil, err
	}
	if err := s.validate.Validate(input.Body); err != nil {
		return nil, err
	}

	fs := &FormSession{}
	cfg := form.Config{
		DebounceInterval:  s.cfg.Form.DebounceInterval,
		DraftSaveInterval: s.cfg.Form.DraftSaveInterval,
	}
	deps := form.Deps{
		Ingestor:  s.ingestor,
		Drafts:    s.drafts,
		Submitter: s.submitter,
		Logger:    s.logger,
		Focus:     fs.SetFocus,
	}

	switch domain.Mode(input.Body.Mode) {
	case domain.ModeCreate:
		fs.Controller = form.NewCreate(cfg, deps)
	case domain.ModeEdit:
		if input.Body.ProductID == "" {
			return nil, huma.Error422UnprocessableEntity("product_id is required in edit mode")
		}
		product, err := s.store.GetProduct(ctx, input.Body.ProductID)
		if err != nil {
			return nil, err
		}
		fs.Controller = form.NewEdit(cfg, deps, product)
	default:
		return nil, huma.Error422UnprocessableEntity("Mode must be create or edit")
	}

	s.sessions.Add(fs)
	s.logger.Info("form session opened",
		"session_id", fs.ID(), "mode", input.Body.Mode)

	return &SnapshotOutput{Body: fs.Snapshot()}, nil
}

func (s *Server) handleGetForm(ctx context.Context, input *FormInput) (*SnapshotOutput, error) {
	if _, err := RequireAdmin(ctx); err != nil {
		return nil, err
	}

	fs, err := s.sessions.Get(input.ID)
	if err != nil {
		return nil, err
	}

	return &SnapshotOutput{Body: fs.Snapshot()}, nil
}

func (s *Server) handleCloseForm(ctx context.Context, input *FormInput) (*MessageOutput, error) {
	if _, err := RequireAdmin(ctx); err != nil {
		return nil, err
	}

	s.sessions.Remove(input.ID)
	return &MessageOutput{Body: MessageResponse{Message: "Form session closed"}}, nil
}

func (s *Server) handleSetField(ctx context.Context, input *SetFieldInput) (*SnapshotOutput, error) {
	if _, err := RequireAdmin(ctx); err != nil {
		return nil, err
	}

	fs, err := s.sessions.Get(input.ID)
	if err != nil {
		return nil, err
	}

	if err := fs.SetField(input.Body.Field, input.Body.Value); err != nil {
		return nil, err
	}

	return &SnapshotOutput{Body: fs.Snapshot()}, nil
}

func (s *Server) handleAddTag(ctx context.Context, input *AddTagInput) (*SnapshotOutput, error) {
	if _, err := RequireAdmin(ctx); err != nil {
		return nil, err
	}

	fs, err := s.sessions.Get(input.ID)
	if err != nil {
		return nil, err
	}

	// Tag rejections surface through the snapshot's error map; the form
	// stays usable, so the response is still a 200.
	if err := fs.AddTag(input.Body.Tag); err != nil {
		var domainErr *domainerrors.Error
		if !errors.As(err, &domainErr) || domainErr.Code != domainerrors.CodeValidation {
			return nil, err
		}
	}

	return &SnapshotOutput{Body: fs.Snapshot()}, nil
}

func (s *Server) handleRemoveTag(ctx context.Context, input *RemoveTagInput) (*SnapshotOutput, error) {
	if _, err := RequireAdmin(ctx); err != nil {
		return nil, err
	}

	fs, err := s.sessions.Get(input.ID)
	if err != nil {
		return nil, err
	}

	if err := fs.RemoveTag(input.Tag); err != nil {
		return nil, err
	}

	return &SnapshotOutput{Body: fs.Snapshot()}, nil
}

func (s *Server) handleClearImage(ctx context.Context, input *FormInput) (*SnapshotOutput, error) {
	if _, err := RequireAdmin(ctx); err != nil {
		return nil, err
	}

	fs, err := s.sessions.Get(input.ID)
	if err != nil {
		return nil, err
	}

	if err := fs.ClearImage(); err != nil {
		return nil, err
	}

	return &SnapshotOutput{Body: fs.Snapshot()}, nil
}

func (s *Server) handleSubmitForm(ctx context.Context, input *FormInput) (*SubmitOutput, error) {
	if _, err := RequireAdmin(ctx); err != nil {
		return nil, err
	}

	fs, err := s.sessions.Get(input.ID)
	if err != nil {
		return nil, err
	}

	notice, err := fs.Submit(ctx)
	if err != nil {
		var domainErr *domainerrors.Error
		if errors.As(err, &domainErr) {
			switch domainErr.Code {
			case domainerrors.CodeValidation:
				snap := fs.Snapshot()
				return nil, domainerrors.ValidationWithDetails(domainErr.Message, map[string]any{
					"focus":  fs.TakeFocus(),
					"errors": snap.Errors,
				})
			case domainerrors.CodeSubmitFailed:
				// The save failed but the form survives: report the error
				// notice in-band so the dashboard keeps the user's input.
				return &SubmitOutput{Body: SubmitResponse{
					Notice:   notice,
					Snapshot: fs.Snapshot(),
				}}, nil
			}
		}
		return nil, err
	}

	return &SubmitOutput{Body: SubmitResponse{
		Notice:   notice,
		Snapshot: fs.Snapshot(),
	}}, nil
}

func (s *Server) handleGetDraft(ctx context.Context, _ *struct{}) (*DraftStatusOutput, error) {
	if _, err := RequireAdmin(ctx); err != nil {
		return nil, err
	}

	return &DraftStatusOutput{Body: DraftStatusResponse{Exists: s.drafts.Exists()}}, nil
}

func (s *Server) handleClearDraft(ctx context.Context, _ *struct{}) (*MessageOutput, error) {
	if _, err := RequireAdmin(ctx); err != nil {
		return nil, err
	}

	s.drafts.Clear()
	return &MessageOutput{Body: MessageResponse{Message: "Draft discarded"}}, nil
}
