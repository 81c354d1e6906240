package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"estatecast/internal/servicetoken"
	"estatecast/internal/util"
	"estatecast/services/media/internal/app"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App                 *app.App
	InternalTokenSecret string
}

// Server exposes HTTP endpoints for the media service.
type Server struct {
	app            *app.App
	internalVerify *servicetoken.Verifier
	mux            *http.ServeMux
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	if cfg.App == nil {
		return nil, errors.New("app is required")
	}
	s := &Server{
		app: cfg.App,
		mux: http.NewServeMux(),
	}
	verifier, err := servicetoken.NewVerifierWithOptions(servicetoken.VerifierOptions{
		Secret:         cfg.InternalTokenSecret,
		Audience:       "media",
		AllowedIssuers: []string{"publisher"},
		Leeway:         servicetoken.DefaultLeeway,
	})
	if err != nil {
		return nil, err
	}
	s.internalVerify = verifier
	s.routes()
	return s, nil
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog("media", util.WithSecurityHeaders(util.WithCORS(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.Handle("/internal/images/generate", s.withInternal(s.handleGenerate))

	// images
	s.mux.HandleFunc("/api/images/generate", s.handleGenerate)
	s.mux.HandleFunc("/api/images", s.handleListImages)
	s.mux.HandleFunc("/api/images/", s.handleImageByID)
	s.mux.HandleFunc("/generated_images/", s.handleServeImage)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) withInternal(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.internalVerify == nil {
			writeError(w, http.StatusInternalServerError, "internal auth not configured")
			return
		}
		token, ok := servicetoken.BearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if _, err := s.internalVerify.Verify(token); err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req generateImageRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	gen, err := s.app.GenerateImage(r.Context(), app.GenerateImageParams{
		Prompt:         req.Prompt,
		Provider:       req.Provider,
		Model:          req.Model,
		Platform:       req.Platform,
		ContentType:    req.ContentType,
		Width:          req.Width,
		Height:         req.Height,
		Steps:          req.Steps,
		Guidance:       req.Guidance,
		NegativePrompt: req.NegativePrompt,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrPromptRequired), errors.Is(err, app.ErrUnknownPlatform):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	writeJSON(w, http.StatusCreated, gen)
}

func (s *Server) handleListImages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	images, err := s.app.ListImages(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": images,
		"count": len(images),
	})
}

// /api/images/{id} or /api/images/{id}/download
func (s *Server) handleImageByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/api/images/")
	parts := strings.SplitN(path, "/", 2)
	id := parts[0]
	if id == "" {
		notFound(w, "not found")
		return
	}
	if len(parts) == 2 && parts[1] == "download" {
		s.handleDownload(w, r, id)
		return
	}
	if len(parts) == 2 {
		notFound(w, "not found")
		return
	}

	gen, ok, err := s.app.GetImage(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !ok {
		notFound(w, "image not found")
		return
	}
	writeJSON(w, http.StatusOK, gen)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request, id string) {
	url, filename, err := s.app.DownloadURL(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrImageNotFound):
			notFound(w, "image not found")
		case errors.Is(err, app.ErrImageNotReady):
			writeError(w, http.StatusConflict, "image not ready")
		default:
			writeError(w, http.StatusInternalServerError, "failed to generate download URL")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"url":      url,
		"filename": filename,
	})
}

func (s *Server) handleServeImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	filename := strings.TrimPrefix(r.URL.Path, "/generated_images/")
	f, modTime, err := s.app.OpenImage(filename)
	if err != nil {
		notFound(w, "image not found")
		return
	}
	defer f.Close()
	http.ServeContent(w, r, filename, modTime, f)
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func notFound(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusNotFound, msg)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{
		Error:     msg,
		Code:      errorCodeForImage(status, msg),
		RequestID: strings.TrimSpace(w.Header().Get("X-Request-Id")),
	})
}

func errorCodeForImage(status int, msg string) string {
	message := strings.ToLower(strings.TrimSpace(msg))
	switch {
	case message == "internal auth not configured":
		return "SYSTEM_INTERNAL_ERROR"
	case message == "unauthorized":
		return "AUTH_INVALID_TOKEN"
	case message == "prompt required":
		return "IMAGE_PROMPT_REQUIRED"
	case message == "unknown platform":
		return "IMAGE_UNKNOWN_PLATFORM"
	case message == "image not found":
		return "IMAGE_NOT_FOUND"
	case message == "image not ready":
		return "IMAGE_NOT_READY"
	case message == "invalid limit":
		return "IMAGE_INVALID_REQUEST"
	case message == "invalid json body":
		return "IMAGE_INVALID_REQUEST"
	case message == "failed to generate download url":
		return "IMAGE_DOWNLOAD_URL_FAILED"
	case message == "method not allowed":
		return "SYSTEM_METHOD_NOT_ALLOWED"
	case message == "not found":
		return "SYSTEM_NOT_FOUND"
	}

	switch status {
	case http.StatusBadRequest:
		return "IMAGE_INVALID_REQUEST"
	case http.StatusUnauthorized:
		return "AUTH_INVALID_TOKEN"
	case http.StatusNotFound:
		return "IMAGE_NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "SYSTEM_METHOD_NOT_ALLOWED"
	default:
		if status >= http.StatusInternalServerError {
			return "SYSTEM_INTERNAL_ERROR"
		}
		return "REQUEST_ERROR"
	}
}

// request payloads

type generateImageRequest struct {
	Prompt         string  `json:"prompt"`
	Provider       string  `json:"provider"`
	Model          string  `json:"model"`
	Platform       string  `json:"platform"`
	ContentType    string  `json:"contentType"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	Steps          int     `json:"steps"`
	Guidance       float64 `json:"guidance"`
	NegativePrompt string  `json:"negativePrompt"`
}
