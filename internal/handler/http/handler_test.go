package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"shortlink/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==================== MOCKS ====================

// MockLinkService is a mock implementation of LinkService
type MockLinkService struct {
	mock.Mock
}

func (m *MockLinkService) Create(ctx context.Context, longURL, requestedCode string) (string, error) {
	args := m.Called(ctx, longURL, requestedCode)
	return args.String(0), args.Error(1)
}

func (m *MockLinkService) Resolve(ctx context.Context, code string) (string, error) {
	args := m.Called(ctx, code)
	return args.String(0), args.Error(1)
}

func (m *MockLinkService) Diagnostics(ctx context.Context, code string) (*domain.Link, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Link), args.Error(1)
}

func (m *MockLinkService) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// ==================== HELPER FUNCTIONS ====================

func setupTestHandler() (*Handler, *MockLinkService, *http.ServeMux) {
	mockService := new(MockLinkService)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	handler := NewHandler(mockService, logger, "http://localhost:8080")

	mux := http.NewServeMux()
	handler.Register(mux)
	return handler, mockService, mux
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

// ==================== CREATE LINK TESTS ====================

func TestCreateLink_JSON(t *testing.T) {
	// Arrange
	_, mockService, mux := setupTestHandler()
	mockService.On("Create", mock.Anything, "https://example.com", "").Return("aZ3kQ9", nil)

	body := `{"long_url": "https://example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/links", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	// Act
	mux.ServeHTTP(w, req)

	// Assert
	assert.Equal(t, http.StatusCreated, w.Code)

	data := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "aZ3kQ9", data["short_code"])
	assert.Equal(t, "http://localhost:8080/aZ3kQ9", data["short_url"])
	assert.Equal(t, "https://example.com", data["long_url"])

	mockService.AssertExpectations(t)
}

func TestCreateLink_JSONWithCustomCode(t *testing.T) {
	// Arrange
	_, mockService, mux := setupTestHandler()
	mockService.On("Create", mock.Anything, "https://example.com", "mylink").Return("mylink", nil)

	body := `{"long_url": "https://example.com", "custom_short_code": "mylink"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/links", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	w := httptest.NewRecorder()

	// Act
	mux.ServeHTTP(w, req)

	// Assert
	assert.Equal(t, http.StatusCreated, w.Code)
	data := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "mylink", data["short_code"])

	mockService.AssertExpectations(t)
}

func TestCreateLink_Form(t *testing.T) {
	// Arrange
	_, mockService, mux := setupTestHandler()
	mockService.On("Create", mock.Anything, "https://example.com/form", "formcode").Return("formcode", nil)

	form := url.Values{
		"long_url":          {"https://example.com/form"},
		"custom_short_code": {"formcode"},
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/links", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()

	// Act
	mux.ServeHTTP(w, req)

	// Assert
	assert.Equal(t, http.StatusCreated, w.Code)
	mockService.AssertExpectations(t)
}

func TestCreateLink_EmptyValuesPassThrough(t *testing.T) {
	// Arrange
	_, mockService, mux := setupTestHandler()
	mockService.On("Create", mock.Anything, "", "").Return("abc123", nil)

	body := `{"long_url": "", "custom_short_code": ""}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/links", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	// Act
	mux.ServeHTTP(w, req)

	// Assert
	assert.Equal(t, http.StatusCreated, w.Code)
	mockService.AssertExpectations(t)
}

func TestCreateLink_BadRequests(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		expectedErr string
	}{
		{"invalid json", "application/json", `{invalid json}`, "invalid request body"},
		{"json missing long_url", "application/json", `{"custom_short_code": "x"}`, "long_url is required"},
		{"form missing long_url", "application/x-www-form-urlencoded", "custom_short_code=x", "long_url is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			_, mockService, mux := setupTestHandler()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/links", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			w := httptest.NewRecorder()

			// Act
			mux.ServeHTTP(w, req)

			// Assert
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.expectedErr, decodeBody(t, w)["error"])
			mockService.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestCreateLink_ServiceErrors(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		expectedCode int
		expectedBody string
	}{
		{"duplicate", domain.ErrDuplicateCode, http.StatusConflict, "Short code already exists"},
		{"wrapped duplicate", errors.Join(errors.New("short code \"x\""), domain.ErrDuplicateCode), http.StatusConflict, "Short code already exists"},
		{"storage failure", domain.NewStorageError("insert", errors.New("disk I/O error")), http.StatusInternalServerError, "Internal server error"},
		{"code space exhausted", domain.ErrCodeGeneration, http.StatusServiceUnavailable, "Could not allocate a short code"},
		{"cancelled", context.Canceled, http.StatusServiceUnavailable, "Request cancelled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			_, mockService, mux := setupTestHandler()
			mockService.On("Create", mock.Anything, "https://example.com", "x").Return("", tt.err)

			body := `{"long_url": "https://example.com", "custom_short_code": "x"}`
			req := httptest.NewRequest(http.MethodPost, "/api/v1/links", bytes.NewBufferString(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			// Act
			mux.ServeHTTP(w, req)

			// Assert
			assert.Equal(t, tt.expectedCode, w.Code)
			assert.Equal(t, tt.expectedBody, decodeBody(t, w)["error"])
			assert.NotContains(t, w.Body.String(), "disk I/O")
			mockService.AssertExpectations(t)
		})
	}
}

// ==================== REDIRECT TESTS ====================

func TestRedirect_Success(t *testing.T) {
	// Arrange
	handler, mockService, _ := setupTestHandler()
	mockService.On("Resolve", mock.Anything, "abc123").Return("https://example.com", nil)

	req := httptest.NewRequest(http.MethodGet, "/abc123", nil)
	req.SetPathValue("code", "abc123")
	w := httptest.NewRecorder()

	// Act
	handler.Redirect(w, req)

	// Assert
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://example.com", w.Header().Get("Location"))
	mockService.AssertExpectations(t)
}

func TestRedirect_NotFound(t *testing.T) {
	// Arrange
	_, mockService, mux := setupTestHandler()
	mockService.On("Resolve", mock.Anything, "notfound").Return("", domain.ErrNotFound)

	req := httptest.NewRequest(http.MethodGet, "/notfound", nil)
	w := httptest.NewRecorder()

	// Act
	mux.ServeHTTP(w, req)

	// Assert
	assert.Equal(t, http.StatusNotFound, w.Code)
	response := decodeBody(t, w)
	assert.Contains(t, response["error"], "not found")
	assert.Equal(t, "not_found", response["code"])
	mockService.AssertExpectations(t)
}

// ==================== DIAGNOSTICS TESTS ====================

func TestDiagnostics_Routes(t *testing.T) {
	for _, path := range []string{"/api/v1/links/abc123/diagnostics", "/diagnostics/abc123"} {
		t.Run(path, func(t *testing.T) {
			// Arrange
			_, mockService, mux := setupTestHandler()
			mockService.On("Diagnostics", mock.Anything, "abc123").Return(&domain.Link{
				ID:        7,
				LongURL:   "https://example.com",
				ShortCode: "abc123",
				Clicks:    42,
			}, nil)

			req := httptest.NewRequest(http.MethodGet, path, nil)
			w := httptest.NewRecorder()

			// Act
			mux.ServeHTTP(w, req)

			// Assert
			assert.Equal(t, http.StatusOK, w.Code)

			data := decodeBody(t, w)["data"].(map[string]interface{})
			assert.Equal(t, float64(7), data["id"])
			assert.Equal(t, "https://example.com", data["long_url"])
			assert.Equal(t, "abc123", data["short_code"])
			assert.Equal(t, "http://localhost:8080/abc123", data["short_url"])
			assert.Equal(t, float64(42), data["clicks"])

			mockService.AssertExpectations(t)
			mockService.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
		})
	}
}

func TestDiagnostics_NotFound(t *testing.T) {
	// Arrange
	_, mockService, mux := setupTestHandler()
	mockService.On("Diagnostics", mock.Anything, "missing").Return(nil, domain.ErrNotFound)

	req := httptest.NewRequest(http.MethodGet, "/diagnostics/missing", nil)
	w := httptest.NewRecorder()

	// Act
	mux.ServeHTTP(w, req)

	// Assert
	assert.Equal(t, http.StatusNotFound, w.Code)
	mockService.AssertExpectations(t)
}

// ==================== HEALTH CHECK TESTS ====================

func TestHealthCheck(t *testing.T) {
	// Arrange
	_, mockService, mux := setupTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	w := httptest.NewRecorder()

	// Act
	mux.ServeHTTP(w, req)

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decodeBody(t, w)["status"])
	mockService.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
}

func TestReadinessCheck(t *testing.T) {
	tests := []struct {
		name           string
		pingErr        error
		expectedCode   int
		expectedStatus string
	}{
		{"store reachable", nil, http.StatusOK, "ready"},
		{"store down", domain.NewStorageError("ping", errors.New("connection refused")), http.StatusServiceUnavailable, "unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			_, mockService, mux := setupTestHandler()
			mockService.On("Ping", mock.Anything).Return(tt.pingErr)

			req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
			w := httptest.NewRecorder()

			// Act
			mux.ServeHTTP(w, req)

			// Assert
			assert.Equal(t, tt.expectedCode, w.Code)
			assert.Equal(t, tt.expectedStatus, decodeBody(t, w)["status"])
			mockService.AssertExpectations(t)
		})
	}
}

func TestRoutes_MethodNotAllowed(t *testing.T) {
	// Arrange
	_, _, mux := setupTestHandler()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/links", nil)
	w := httptest.NewRecorder()

	// Act
	mux.ServeHTTP(w, req)

	// Assert
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
