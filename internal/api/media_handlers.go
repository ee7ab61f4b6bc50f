package api

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bloomeryapp/bloomery-admin/internal/http/response"
	"github.com/bloomeryapp/bloomery-admin/internal/media/images"
)

// handleGetPreview serves staged preview bytes. The token is an
// unguessable capability, so no further auth applies; a revoked or
// unknown token is a 404.
func (s *Server) handleGetPreview(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		response.NotFound(w, "Preview not found", s.logger)
		return
	}

	data, mime, ok := s.previews.Get(token)
	if !ok {
		response.NotFound(w, "Preview not found", s.logger)
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "private, no-store")
	_, _ = w.Write(data)
}

// handleUploadImage stages a multipart image on a form session. It stays
// a raw chi handler: huma's body handling buys nothing for multipart,
// and the rate limit and byte cap belong before any parsing.
func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	if adminEmail(r.Context()) == "" {
		response.Unauthorized(w, "Authentication required", s.logger)
		return
	}

	sessionID := chi.URLParam(r, "id")
	fs, err := s.sessions.Get(sessionID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	if !s.uploadLimit.Allow(sessionID) {
		response.TooManyRequests(w, "Too many uploads, slow down", s.logger)
		return
	}

	maxBytes := s.cfg.Image.MaxUploadBytes
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1<<20) // slack for multipart framing

	file, header, err := r.FormFile("image")
	if err != nil {
		response.BadRequest(w, "A file part named 'image' is required", s.logger)
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		s.logger.Warn("failed to read upload", "session_id", sessionID, "error", err)
		response.BadRequest(w, "Could not read the uploaded file", s.logger)
		return
	}

	up := images.Upload{
		Name: header.Filename,
		MIME: header.Header.Get("Content-Type"),
		Data: data,
	}
	if err := fs.StageImage(r.Context(), up); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, fs.Snapshot(), s.logger)
}
