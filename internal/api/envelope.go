package api

import (
	"strconv"

	"github.com/danielgtaylor/huma/v2"
)

// envelope is the wire shape every JSON response shares: success bodies
// carry data, error bodies carry the error fields from APIError.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// EnvelopeTransformer wraps every huma response body in the envelope so
// the dashboard parses one shape regardless of endpoint.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	code, _ := strconv.Atoi(status)

	if apiErr, ok := v.(*APIError); ok {
		return &envelope{
			Success: false,
			Error:   apiErr.Message,
			Code:    apiErr.Code,
			Details: apiErr.Details,
		}, nil
	}

	// huma's own validation errors arrive as ErrorModel.
	if model, ok := v.(*huma.ErrorModel); ok {
		return &envelope{
			Success: false,
			Error:   model.Detail,
			Code:    statusToCode(model.Status),
		}, nil
	}

	return &envelope{
		Success: code < 400,
		Data:    v,
	}, nil
}

// MessageResponse carries a plain status message.
type MessageResponse struct {
	Message string `json:"message" doc:"Status message"`
}

// MessageOutput wraps a message response for Huma.
type MessageOutput struct {
	Body MessageResponse
}
