package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bloomeryapp/bloomery-admin/internal/auth"
)

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/login",
		Summary:     "Admin login",
		Description: "Authenticates the admin account and returns an access token",
		Tags:        []string{"Auth"},
	}, s.handleLogin)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCurrentAdmin",
		Method:      http.MethodGet,
		Path:        "/api/v1/auth/me",
		Summary:     "Current admin",
		Description: "Returns the authenticated admin identity",
		Tags:        []string{"Auth"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetCurrentAdmin)
}

// === DTOs ===

// LoginRequest is the request body for admin login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" doc:"Admin email"`
	Password string `json:"password" validate:"required" doc:"Admin password"`
}

// LoginInput wraps the login request for Huma.
type LoginInput struct {
	Body LoginRequest
}

// AuthResponse contains the issued token.
type AuthResponse struct {
	AccessToken string    `json:"access_token" doc:"PASETO access token"`
	ExpiresAt   time.Time `json:"expires_at" doc:"Token expiry time"`
	Email       string    `json:"email" doc:"Authenticated admin email"`
}

// AuthOutput wraps the auth response for Huma.
type AuthOutput struct {
	Body AuthResponse
}

// CurrentAdminResponse contains the authenticated admin identity.
type CurrentAdminResponse struct {
	Email string `json:"email" doc:"Admin email"`
}

// CurrentAdminOutput wraps the current admin response for Huma.
type CurrentAdminOutput struct {
	Body CurrentAdminResponse
}

// === Handlers ===

func (s *Server) handleLogin(_ context.Context, input *LoginInput) (*AuthOutput, error) {
	if err := s.validate.Validate(input.Body); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(input.Body.Email))
	if !strings.EqualFold(email, s.cfg.Auth.AdminEmail) {
		return nil, huma.Error401Unauthorized("Invalid email or password")
	}

	ok, err := auth.VerifyPassword(s.cfg.Auth.AdminPasswordHash, input.Body.Password)
	if err != nil || !ok {
		return nil, huma.Error401Unauthorized("Invalid email or password")
	}

	token, err := s.tokens.GenerateToken(email)
	if err != nil {
		s.logger.Error("failed to generate token", "error", err)
		return nil, huma.Error500InternalServerError("Failed to generate token")
	}

	return &AuthOutput{
		Body: AuthResponse{
			AccessToken: token,
			ExpiresAt:   time.Now().Add(s.tokens.TokenDuration()),
			Email:       email,
		},
	}, nil
}

func (s *Server) handleGetCurrentAdmin(ctx context.Context, _ *struct{}) (*CurrentAdminOutput, error) {
	email, err := RequireAdmin(ctx)
	if err != nil {
		return nil, err
	}

	return &CurrentAdminOutput{Body: CurrentAdminResponse{Email: email}}, nil
}
