// Package api provides the HTTP API server for the Bloomery admin
// dashboard: authentication, form sessions, the product catalog, and
// image previews.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/bloomeryapp/bloomery-admin/internal/auth"
	"github.com/bloomeryapp/bloomery-admin/internal/config"
	"github.com/bloomeryapp/bloomery-admin/internal/draft"
	"github.com/bloomeryapp/bloomery-admin/internal/http/response"
	"github.com/bloomeryapp/bloomery-admin/internal/media/images"
	"github.com/bloomeryapp/bloomery-admin/internal/options"
	"github.com/bloomeryapp/bloomery-admin/internal/ratelimit"
	"github.com/bloomeryapp/bloomery-admin/internal/search"
	"github.com/bloomeryapp/bloomery-admin/internal/store"
	"github.com/bloomeryapp/bloomery-admin/internal/submit"
	"github.com/bloomeryapp/bloomery-admin/internal/validation"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	store        *store.Store
	search       *search.Index
	options      options.Source
	drafts       *draft.Store
	ingestor     *images.Ingestor
	submitter    *submit.Orchestrator
	tokens       *auth.TokenService
	previews     *images.Registry
	imageStorage *images.Storage
	sessions     *SessionManager
	uploadLimit  *ratelimit.KeyedLimiter
	validate     *validation.Validator
	cfg          *config.Config
	router       *chi.Mux
	api          huma.API
	logger       *slog.Logger
}

// Deps bundles the server's collaborators.
type Deps struct {
	Store        *store.Store
	Search       *search.Index
	Options      options.Source
	Drafts       *draft.Store
	Ingestor     *images.Ingestor
	Submitter    *submit.Orchestrator
	Tokens       *auth.TokenService
	Previews     *images.Registry
	ImageStorage *images.Storage
	Sessions     *SessionManager
	UploadLimit  *ratelimit.KeyedLimiter
	Config       *config.Config
	Logger       *slog.Logger
}

// NewServer creates the HTTP server with all routes configured.
func NewServer(deps Deps) *Server {
	s := &Server{
		store:        deps.Store,
		search:       deps.Search,
		options:      deps.Options,
		drafts:       deps.Drafts,
		ingestor:     deps.Ingestor,
		submitter:    deps.Submitter,
		tokens:       deps.Tokens,
		previews:     deps.Previews,
		imageStorage: deps.ImageStorage,
		sessions:     deps.Sessions,
		uploadLimit:  deps.UploadLimit,
		validate:     validation.New(),
		cfg:          deps.Config,
		router:       chi.NewRouter(),
		logger:       deps.Logger,
	}

	s.setupMiddleware()
	s.api = newHumaAPI(s.router)
	s.setupRoutes()

	return s
}

// newHumaAPI builds the huma API on top of the chi router with the
// envelope transformer and error handler installed.
func newHumaAPI(router chi.Router) huma.API {
	humaConfig := huma.DefaultConfig("Bloomery Admin API", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	api := humachi.New(router, humaConfig)
	RegisterErrorHandler()
	return api
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))

	origins := []string{"http://localhost:5173"}
	if s.cfg != nil && len(s.cfg.Server.CORSOrigins) > 0 {
		origins = s.cfg.Server.CORSOrigins
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	s.router.Use(authMiddleware(s.tokens))
}

// setupRoutes configures all HTTP routes. JSON endpoints register
// through huma; the health check, preview bytes, and the multipart
// image upload stay on raw chi handlers.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealthCheck)
	s.router.Get(images.PreviewPath+"{token}", s.handleGetPreview)
	s.router.Post("/api/v1/forms/{id}/image", s.handleUploadImage)

	s.registerAuthRoutes()
	s.registerFormRoutes()
	s.registerProductRoutes()
	s.registerOrderRoutes()
	s.registerCustomerRoutes()
	s.registerMetricsRoutes()
	s.registerOptionsRoutes()
	s.registerSearchRoutes()
}

// handleHealthCheck returns server health status.
func (s *Server) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, map[string]string{
		"status": "healthy",
	}, s.logger)
}
