package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"estatecast/internal/util"
	"estatecast/services/publisher/internal/app"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App *app.App
}

// Server exposes HTTP endpoints for the publisher service.
type Server struct {
	app *app.App
	mux *http.ServeMux
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
	s.routes()
	return s, nil
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog("publisher", util.WithSecurityHeaders(util.WithCORS(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// oauth
	s.mux.HandleFunc("/api/auth/facebook", s.handleFacebookLogin)
	s.mux.HandleFunc("/api/auth/facebook/callback", s.handleFacebookCallback)

	// accounts
	s.mux.HandleFunc("/api/accounts", s.handleAccounts)
	s.mux.HandleFunc("/api/accounts/", s.handleAccountByID)

	// posts
	s.mux.HandleFunc("/api/posts", s.handlePosts)
	s.mux.HandleFunc("/api/posts/", s.handlePostByID)

	// schedules
	s.mux.HandleFunc("/api/schedules", s.handleSchedules)
	s.mux.HandleFunc("/api/schedules/", s.handleScheduleByID)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleFacebookLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	authURL, err := s.app.BeginFacebookLogin(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to start facebook login")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"authUrl": authURL})
}

func (s *Server) handleFacebookCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if state == "" || code == "" {
		writeError(w, http.StatusBadRequest, "state and code are required")
		return
	}
	accounts, err := s.app.CompleteFacebookLogin(r.Context(), state, code)
	if err != nil {
		if errors.Is(err, app.ErrInvalidOAuthState) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusBadGateway, "facebook login failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"accounts": accounts,
		"count":    len(accounts),
	})
}

func (s *Server) handleAccounts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		accounts, err := s.app.ListAccounts(requestUserID(r))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"items": accounts,
			"count": len(accounts),
		})
	case http.MethodPost:
		var req connectAccountRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		userID := req.UserID
		if userID == "" {
			userID = app.DefaultUserID
		}
		account, err := s.app.ConnectAccount(app.ConnectAccountParams{
			UserID:            userID,
			Platform:          req.Platform,
			PlatformAccountID: req.AccountID,
			Name:              req.AccountName,
			AccessToken:       req.AccessToken,
		})
		if err != nil {
			writePublishError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, account)
	default:
		methodNotAllowed(w)
	}
}

// /api/accounts/{id}
func (s *Server) handleAccountByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/accounts/")
	if id == "" || strings.Contains(id, "/") {
		notFound(w, "not found")
		return
	}
	if r.Method != http.MethodDelete {
		methodNotAllowed(w)
		return
	}
	if err := s.app.DisconnectAccount(id); err != nil {
		writePublishError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "disconnected"})
}

func (s *Server) handlePosts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				writeError(w, http.StatusBadRequest, "invalid limit")
				return
			}
			limit = n
		}
		posts, err := s.app.ListPosts(requestUserID(r), r.URL.Query().Get("status"), limit)
		if err != nil {
			writePublishError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"items": posts,
			"count": len(posts),
		})
	case http.MethodPost:
		var req createPostRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		post, err := s.app.CreatePost(r.Context(), app.CreatePostParams{
			AccountID:   req.AccountID,
			Content:     req.Content,
			Hashtags:    req.Hashtags,
			ImagePrompt: req.ImagePrompt,
			ScheduledAt: req.ScheduledAt,
		})
		if err != nil {
			writePublishError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, post)
	default:
		methodNotAllowed(w)
	}
}

// /api/posts/{id}, /api/posts/{id}/approve, /api/posts/{id}/publish
func (s *Server) handlePostByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/posts/")
	parts := strings.SplitN(path, "/", 2)
	id := parts[0]
	if id == "" {
		notFound(w, "not found")
		return
	}

	if len(parts) == 2 {
		switch parts[1] {
		case "approve":
			s.handleApprove(w, r, id)
		case "publish":
			s.handlePublish(w, r, id)
		default:
			notFound(w, "not found")
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		post, err := s.app.GetPost(id)
		if err != nil {
			writePublishError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, post)
	case http.MethodDelete:
		if err := s.app.DeletePost(id); err != nil {
			writePublishError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	post, err := s.app.ApprovePost(r.Context(), id)
	if err != nil && !errors.Is(err, app.ErrPublishFailed) {
		writePublishError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	post, err := s.app.PublishPost(r.Context(), id)
	if err != nil && !errors.Is(err, app.ErrPublishFailed) {
		writePublishError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (s *Server) handleSchedules(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		schedules, err := s.app.ListSchedules(requestUserID(r))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"items": schedules,
			"count": len(schedules),
		})
	case http.MethodPost:
		var req createScheduleRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		userID := req.UserID
		if userID == "" {
			userID = app.DefaultUserID
		}
		schedule, err := s.app.CreateSchedule(app.CreateScheduleParams{
			UserID:      userID,
			Name:        req.Name,
			Description: req.Description,
			Config:      req.Config,
		})
		if err != nil {
			writePublishError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, schedule)
	default:
		methodNotAllowed(w)
	}
}

// /api/schedules/{id}
func (s *Server) handleScheduleByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/schedules/")
	if id == "" || strings.Contains(id, "/") {
		notFound(w, "not found")
		return
	}
	if r.Method != http.MethodDelete {
		methodNotAllowed(w)
		return
	}
	if err := s.app.DeleteSchedule(id); err != nil {
		writePublishError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// requestUserID scopes list requests; the frontend sends no user identity
// today so absent values fall back to the shared default user.
func requestUserID(r *http.Request) string {
	if v := strings.TrimSpace(r.URL.Query().Get("userId")); v != "" {
		return v
	}
	return app.DefaultUserID
}

// writePublishError maps app sentinel errors onto HTTP statuses.
func writePublishError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrFieldRequired),
		errors.Is(err, app.ErrUnknownPlatform),
		errors.Is(err, app.ErrUnknownStatus),
		errors.Is(err, app.ErrPostNotDraft):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrAccountNotFound),
		errors.Is(err, app.ErrAccountUnavailable),
		errors.Is(err, app.ErrPostNotFound),
		errors.Is(err, app.ErrScheduleNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
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
		Code:      errorCodeForPublish(status, msg),
		RequestID: strings.TrimSpace(w.Header().Get("X-Request-Id")),
	})
}

func errorCodeForPublish(status int, msg string) string {
	message := strings.ToLower(strings.TrimSpace(msg))
	switch {
	case strings.HasPrefix(message, "missing required field"):
		return "PUBLISH_FIELD_REQUIRED"
	case message == "unknown platform":
		return "PUBLISH_UNKNOWN_PLATFORM"
	case message == "unknown post status":
		return "PUBLISH_INVALID_REQUEST"
	case message == "account not found" || message == "account not found or inactive":
		return "PUBLISH_ACCOUNT_NOT_FOUND"
	case message == "post not found":
		return "PUBLISH_POST_NOT_FOUND"
	case message == "post is not in draft status":
		return "PUBLISH_POST_NOT_DRAFT"
	case message == "schedule not found":
		return "PUBLISH_SCHEDULE_NOT_FOUND"
	case message == "invalid or expired oauth state":
		return "PUBLISH_INVALID_OAUTH_STATE"
	case message == "state and code are required":
		return "PUBLISH_INVALID_REQUEST"
	case message == "facebook login failed":
		return "PUBLISH_UPSTREAM_ERROR"
	case message == "invalid limit" || message == "invalid json body":
		return "PUBLISH_INVALID_REQUEST"
	case message == "method not allowed":
		return "SYSTEM_METHOD_NOT_ALLOWED"
	case message == "not found":
		return "SYSTEM_NOT_FOUND"
	}

	switch status {
	case http.StatusBadRequest:
		return "PUBLISH_INVALID_REQUEST"
	case http.StatusNotFound:
		return "PUBLISH_NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "SYSTEM_METHOD_NOT_ALLOWED"
	case http.StatusBadGateway:
		return "PUBLISH_UPSTREAM_ERROR"
	default:
		if status >= http.StatusInternalServerError {
			return "SYSTEM_INTERNAL_ERROR"
		}
		return "REQUEST_ERROR"
	}
}

// request payloads

type connectAccountRequest struct {
	UserID      string `json:"userId"`
	Platform    string `json:"platform"`
	AccountID   string `json:"accountId"`
	AccountName string `json:"accountName"`
	AccessToken string `json:"accessToken"`
}

type createPostRequest struct {
	AccountID   string     `json:"accountId"`
	Content     string     `json:"content"`
	Hashtags    []string   `json:"hashtags"`
	ImagePrompt string     `json:"imagePrompt"`
	ScheduledAt *time.Time `json:"scheduledAt"`
}

type createScheduleRequest struct {
	UserID      string         `json:"userId"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Config      map[string]any `json:"config"`
}
