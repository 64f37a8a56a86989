package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/interfaces/http/dto"
	"github.com/crm/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestContext(requestID string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/test", nil)
	if requestID != "" {
		c.Set(middleware.RequestIDKey, requestID)
	}
	return c, w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestBaseHandler_Success(t *testing.T) {
	h := &BaseHandler{}

	c, w := newTestContext("")
	h.Success(c, map[string]int{"total_minor": 306250})
	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Error)

	c, w = newTestContext("")
	h.Created(c, "ok")
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestBaseHandler_Respond(t *testing.T) {
	h := &BaseHandler{}

	c, w := newTestContext("")
	h.Respond(c, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	resp := decode(t, w)
	assert.False(t, resp.Success)
	assert.NotNil(t, resp.Data)
}

func TestBaseHandler_Fail(t *testing.T) {
	h := &BaseHandler{}

	tests := []struct {
		code       string
		wantStatus int
	}{
		{dto.ErrCodeBadRequest, http.StatusBadRequest},
		{dto.ErrCodeNotFound, http.StatusNotFound},
		{dto.ErrCodeInternal, http.StatusInternalServerError},
		{dto.ErrCodeStorageFailed, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			c, w := newTestContext("req-1")
			h.Fail(c, tt.code, "failed")

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decode(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Equal(t, "req-1", resp.Error.RequestID)
		})
	}
}

func TestBaseHandler_File(t *testing.T) {
	h := &BaseHandler{}

	tests := []struct {
		name       string
		fileName   string
		attachment bool
		wantHeader string
	}{
		{"inline", "INV-1001.pdf", false, `inline; filename=INV-1001.pdf`},
		{"attachment", "INV-1001.pdf", true, `attachment; filename=INV-1001.pdf`},
		{"non-ascii name", "Tilbud-Ærø.pdf", true, `attachment; filename*=utf-8''Tilbud-%C3%86r%C3%B8.pdf`},
		{"no name", "", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestContext("")
			h.File(c, "application/pdf", tt.fileName, tt.attachment, []byte("%PDF-1.4"))

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
			assert.Equal(t, tt.wantHeader, w.Header().Get("Content-Disposition"))
			assert.Equal(t, "%PDF-1.4", w.Body.String())
		})
	}
}

func TestBaseHandler_HandleError(t *testing.T) {
	h := &BaseHandler{}

	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantMessage string
	}{
		{
			name:        "not found",
			err:         shared.NewDomainError("NOT_FOUND", "Invoice not found"),
			wantStatus:  http.StatusNotFound,
			wantCode:    dto.ErrCodeNotFound,
			wantMessage: "Invoice not found",
		},
		{
			name:        "invalid input",
			err:         shared.NewDomainError("INVALID_INPUT", `Unknown rendering backend "PNG"`),
			wantStatus:  http.StatusBadRequest,
			wantCode:    dto.ErrCodeInvalidInput,
			wantMessage: `Unknown rendering backend "PNG"`,
		},
		{
			name:        "invalid state",
			err:         shared.NewDomainError("INVALID_STATE", "PDF archive storage is not configured"),
			wantStatus:  http.StatusUnprocessableEntity,
			wantCode:    dto.ErrCodeInvalidState,
			wantMessage: "PDF archive storage is not configured",
		},
		{
			name:        "render failed",
			err:         shared.ErrRenderFailed,
			wantStatus:  http.StatusInternalServerError,
			wantCode:    dto.ErrCodeRenderFailed,
			wantMessage: "Document could not be rendered",
		},
		{
			name:        "storage failed",
			err:         shared.NewDomainError("STORAGE_FAILED", "Rendered PDF could not be archived"),
			wantStatus:  http.StatusBadGateway,
			wantCode:    dto.ErrCodeStorageFailed,
			wantMessage: "Rendered PDF could not be archived",
		},
		{
			name:        "wrapped domain error",
			err:         fmt.Errorf("loading: %w", shared.NewDomainError("NOT_FOUND", "Quote not found")),
			wantStatus:  http.StatusNotFound,
			wantCode:    dto.ErrCodeNotFound,
			wantMessage: "Quote not found",
		},
		{
			name:        "plain error is hidden",
			err:         errors.New("pq: connection refused"),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    dto.ErrCodeInternal,
			wantMessage: "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestContext("req-9")
			h.HandleError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decode(t, w)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, tt.wantMessage, resp.Error.Message)
			assert.Equal(t, "req-9", resp.Error.RequestID)
		})
	}
}

func TestBaseHandler_HandleError_Nil(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext("")
	h.HandleError(c, nil)
	assert.Empty(t, w.Body.String())
}
