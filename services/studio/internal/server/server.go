package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"estatecast/internal/ratelimit"
	"estatecast/internal/util"
	"estatecast/pkg/contentgen"
	"estatecast/services/studio/internal/app"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App            *app.App
	Limiter        *ratelimit.FixedWindowLimiter
	TrustedProxies *util.TrustedProxies
}

// Server exposes HTTP endpoints for the studio service.
type Server struct {
	app     *app.App
	limiter *ratelimit.FixedWindowLimiter
	trusted *util.TrustedProxies
	mux     *http.ServeMux
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	if cfg.App == nil {
		return nil, errors.New("app is required")
	}
	s := &Server{
		app:     cfg.App,
		limiter: cfg.Limiter,
		trusted: cfg.TrustedProxies,
		mux:     http.NewServeMux(),
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog("studio", util.WithSecurityHeaders(util.WithCORS(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// content
	s.mux.HandleFunc("/api/content/generate", s.handleGenerate)
	s.mux.HandleFunc("/api/content/optimize", s.handleOptimize)
	s.mux.HandleFunc("/api/content/calendar", s.handleCalendar)
	s.mux.HandleFunc("/api/content/batch", s.handleBatch)
	s.mux.HandleFunc("/api/content/export", s.handleExport)
	s.mux.HandleFunc("/api/content/analyze", s.handleAnalyze)
	s.mux.HandleFunc("/api/hashtags/generate", s.handleHashtags)

	// catalogs
	s.mux.HandleFunc("/api/content/types", s.handleContentTypes)
	s.mux.HandleFunc("/api/locations", s.handleLocations)
	s.mux.HandleFunc("/api/keywords", s.handleKeywords)
	s.mux.HandleFunc("/api/posting-times", s.handlePostingTimes)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, "too many generate requests") {
		return
	}
	var req generateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	content, err := s.app.Generate(app.GenerateParams{
		Category:  req.Category,
		Platform:  req.Platform,
		Location:  req.Location,
		Overrides: req.Overrides,
	})
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, content)
}

func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req optimizeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	report, err := s.app.Optimize(req.Content, req.Platform)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, "too many calendar requests") {
		return
	}
	var req calendarRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	entries, err := s.app.Calendar(req.Days, req.Platform)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": entries,
		"count": len(entries),
	})
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, "too many batch requests") {
		return
	}
	var req batchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	items, err := s.app.Batch(req.Count, req.Platform, req.Categories, req.Locations)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"count": len(items),
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req exportRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	plan, err := s.app.Export(req.Days, req.Platform, req.IncludeImages)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": plan,
		"count": len(plan),
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req analyzeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	analysis, err := s.app.Analyze(req.Content, req.Location, req.Platform, req.Hashtags)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (s *Server) handleHashtags(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req hashtagsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	hashtags, err := s.app.Hashtags(req.Category, req.Platform, req.Location)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"hashtags": hashtags,
		"count":    len(hashtags),
	})
}

func (s *Server) handleContentTypes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	types := contentgen.ContentTypes()
	writeJSON(w, http.StatusOK, map[string]any{
		"items": types,
		"count": len(types),
	})
}

func (s *Server) handleLocations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	primary, neighborhoods := contentgen.Locations()
	writeJSON(w, http.StatusOK, map[string]any{
		"primary":       primary,
		"neighborhoods": neighborhoods,
	})
}

func (s *Server) handleKeywords(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	primary, longTail := contentgen.Keywords()
	writeJSON(w, http.StatusOK, map[string]any{
		"primary":  primary,
		"longTail": longTail,
	})
}

func (s *Server) handlePostingTimes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, contentgen.PostingTimes())
}

func (s *Server) writeAppError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrUnknownPlatform),
		errors.Is(err, app.ErrUnknownCategory),
		errors.Is(err, app.ErrContentRequired),
		errors.Is(err, app.ErrDaysOutOfRange),
		errors.Is(err, app.ErrCountOutOfRange):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) allowRate(w http.ResponseWriter, r *http.Request, msg string) bool {
	if s.limiter == nil {
		return true
	}
	key := r.URL.Path + "|" + util.ClientIP(r, s.trusted)
	if s.limiter.Allow(key) {
		return true
	}
	w.Header().Set("Retry-After", "60")
	writeError(w, http.StatusTooManyRequests, msg)
	return false
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
		Code:      errorCodeForContent(status, msg),
		RequestID: strings.TrimSpace(w.Header().Get("X-Request-Id")),
	})
}

func errorCodeForContent(status int, msg string) string {
	message := strings.ToLower(strings.TrimSpace(msg))
	switch {
	case message == "unknown platform":
		return "CONTENT_UNKNOWN_PLATFORM"
	case message == "unknown category":
		return "CONTENT_UNKNOWN_CATEGORY"
	case message == "content required":
		return "CONTENT_TEXT_REQUIRED"
	case strings.Contains(message, "days must be"):
		return "CONTENT_INVALID_DAYS"
	case strings.Contains(message, "count must be"):
		return "CONTENT_INVALID_COUNT"
	case message == "invalid json body":
		return "CONTENT_INVALID_REQUEST"
	case strings.HasPrefix(message, "too many"):
		return "CONTENT_RATE_LIMITED"
	case message == "method not allowed":
		return "SYSTEM_METHOD_NOT_ALLOWED"
	case message == "not found":
		return "SYSTEM_NOT_FOUND"
	}

	switch status {
	case http.StatusBadRequest:
		return "CONTENT_INVALID_REQUEST"
	case http.StatusNotFound:
		return "SYSTEM_NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "SYSTEM_METHOD_NOT_ALLOWED"
	case http.StatusTooManyRequests:
		return "CONTENT_RATE_LIMITED"
	default:
		if status >= http.StatusInternalServerError {
			return "SYSTEM_INTERNAL_ERROR"
		}
		return "REQUEST_ERROR"
	}
}

// request payloads

type generateRequest struct {
	Category  string            `json:"category"`
	Platform  string            `json:"platform"`
	Location  string            `json:"location"`
	Overrides map[string]string `json:"overrides"`
}

type optimizeRequest struct {
	Content  string `json:"content"`
	Platform string `json:"platform"`
}

type calendarRequest struct {
	Days     int    `json:"days"`
	Platform string `json:"platform"`
}

type batchRequest struct {
	Count      int      `json:"count"`
	Platform   string   `json:"platform"`
	Categories []string `json:"categories"`
	Locations  []string `json:"locations"`
}

type exportRequest struct {
	Days          int    `json:"days"`
	Platform      string `json:"platform"`
	IncludeImages bool   `json:"includeImages"`
}

type analyzeRequest struct {
	Content  string   `json:"content"`
	Location string   `json:"location"`
	Platform string   `json:"platform"`
	Hashtags []string `json:"hashtags"`
}

type hashtagsRequest struct {
	Category string `json:"category"`
	Platform string `json:"platform"`
	Location string `json:"location"`
}
