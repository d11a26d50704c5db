package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"shortlink/internal/domain"
	"shortlink/pkg/logger"
)

// LinkService defines the service methods needed by the handler
type LinkService interface {
	Create(ctx context.Context, longURL, requestedCode string) (string, error)
	Resolve(ctx context.Context, code string) (string, error)
	Diagnostics(ctx context.Context, code string) (*domain.Link, error)
	Ping(ctx context.Context) error
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	links   LinkService
	logger  *slog.Logger
	baseURL string // prefix for short URLs, e.g. "http://localhost:8080"
}

// NewHandler creates a new HTTP handler
func NewHandler(links LinkService, logger *slog.Logger, baseURL string) *Handler {
	return &Handler{
		links:   links,
		logger:  logger,
		baseURL: baseURL,
	}
}

// Register adds every link route to mux
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/links", h.CreateLink)
	mux.HandleFunc("GET /api/v1/links/{code}/diagnostics", h.Diagnostics)
	mux.HandleFunc("GET /diagnostics/{code}", h.Diagnostics)
	mux.HandleFunc("GET /health/live", h.HealthCheck)
	mux.HandleFunc("GET /health/ready", h.ReadinessCheck)
	mux.HandleFunc("GET /{code}", h.Redirect)
}

// CreateLinkRequest is the JSON body of POST /api/v1/links. LongURL is a
// pointer so an absent field can be told apart from an empty one.
type CreateLinkRequest struct {
	LongURL         *string `json:"long_url"`
	CustomShortCode string  `json:"custom_short_code,omitempty"`
}

type CreateLinkResponse struct {
	ShortCode string `json:"short_code"`
	ShortURL  string `json:"short_url"`
	LongURL   string `json:"long_url"`
}

type DiagnosticsResponse struct {
	ID        int64  `json:"id"`
	LongURL   string `json:"long_url"`
	ShortCode string `json:"short_code"`
	ShortURL  string `json:"short_url"`
	Clicks    int64  `json:"clicks"`
}

// CreateLink handles POST /api/v1/links.
// Accepts a JSON body or form fields long_url and custom_short_code.
func (h *Handler) CreateLink(w http.ResponseWriter, r *http.Request) {
	longURL, customCode, err := parseCreateRequest(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	code, err := h.links.Create(r.Context(), longURL, customCode)
	if err != nil {
		h.respondServiceError(w, r, err, "create")
		return
	}

	respondSuccess(w, http.StatusCreated, CreateLinkResponse{
		ShortCode: code,
		ShortURL:  h.shortURL(code),
		LongURL:   longURL,
	}, "Short link created")
}

func parseCreateRequest(r *http.Request) (longURL, customCode string, err error) {
	defer r.Body.Close()

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var req CreateLinkRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return "", "", errors.New("invalid request body")
		}
		if req.LongURL == nil {
			return "", "", errors.New("long_url is required")
		}
		return *req.LongURL, req.CustomShortCode, nil
	}

	if err := r.ParseForm(); err != nil {
		return "", "", errors.New("invalid request body")
	}
	if _, ok := r.PostForm["long_url"]; !ok {
		return "", "", errors.New("long_url is required")
	}
	return r.PostForm.Get("long_url"), r.PostForm.Get("custom_short_code"), nil
}

// Redirect handles GET /{code}. The click is counted before the redirect
// is written.
func (h *Handler) Redirect(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")

	longURL, err := h.links.Resolve(r.Context(), code)
	if err != nil {
		h.respondServiceError(w, r, err, "resolve")
		return
	}

	http.Redirect(w, r, longURL, http.StatusFound)
}

// Diagnostics handles GET /api/v1/links/{code}/diagnostics and
// GET /diagnostics/{code}
func (h *Handler) Diagnostics(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")

	link, err := h.links.Diagnostics(r.Context(), code)
	if err != nil {
		h.respondServiceError(w, r, err, "diagnostics")
		return
	}

	respondSuccess(w, http.StatusOK, DiagnosticsResponse{
		ID:        link.ID,
		LongURL:   link.LongURL,
		ShortCode: link.ShortCode,
		ShortURL:  h.shortURL(link.ShortCode),
		Clicks:    link.Clicks,
	}, "")
}

// HealthCheck handles GET /health/live
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// ReadinessCheck handles GET /health/ready
func (h *Handler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.links.Ping(ctx); err != nil {
		h.requestLogger(r).Warn("Store not ready", "error", err)
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// respondServiceError maps service errors to status codes. Storage error
// details are logged, never returned to the client.
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error, op string) {
	switch {
	case errors.Is(err, domain.ErrDuplicateCode):
		respondErrorCode(w, http.StatusConflict, "Short code already exists", "duplicate_code")
	case errors.Is(err, domain.ErrNotFound):
		respondErrorCode(w, http.StatusNotFound, "Short link not found", "not_found")
	case errors.Is(err, domain.ErrCodeGeneration):
		h.requestLogger(r).Error("Short code space exhausted", "operation", op, "error", err)
		respondError(w, http.StatusServiceUnavailable, "Could not allocate a short code")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		h.requestLogger(r).Warn("Request aborted", "operation", op, "error", err)
		respondError(w, http.StatusServiceUnavailable, "Request cancelled")
	default:
		h.requestLogger(r).Error("Link operation failed", "operation", op, "error", err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func (h *Handler) requestLogger(r *http.Request) *slog.Logger {
	if requestID, ok := logger.RequestIDFromContext(r.Context()); ok {
		return h.logger.With("request_id", requestID)
	}
	return h.logger
}

func (h *Handler) shortURL(code string) string {
	return fmt.Sprintf("%s/%s", h.baseURL, code)
}
