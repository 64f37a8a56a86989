package handler

import (
	"errors"
	"mime"
	"net/http"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/logger"
	"github.com/crm/backend/internal/interfaces/http/dto"
	"github.com/crm/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const msgUnexpected = "An unexpected error occurred"

// BaseHandler writes the response envelope and the non-JSON bodies the
// document endpoints return
type BaseHandler struct{}

// Success answers 200 with data in the envelope
func (h *BaseHandler) Success(c *gin.Context, data any) {
	h.Respond(c, http.StatusOK, data)
}

// Created answers 201 with data in the envelope
func (h *BaseHandler) Created(c *gin.Context, data any) {
	h.Respond(c, http.StatusCreated, data)
}

// Respond wraps data in the envelope. Statuses of 400 and above are
// reported as unsuccessful.
func (h *BaseHandler) Respond(c *gin.Context, status int, data any) {
	c.JSON(status, dto.Response{Success: status < http.StatusBadRequest, Data: data})
}

// Fail answers with an error envelope, taking the status from code
func (h *BaseHandler) Fail(c *gin.Context, code, message string) {
	c.JSON(dto.GetHTTPStatus(code), dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// File sends body as-is. The file name goes out RFC 2231 encoded in
// Content-Disposition, inline unless attachment is set.
func (h *BaseHandler) File(c *gin.Context, contentType, fileName string, attachment bool, body []byte) {
	disposition := "inline"
	if attachment {
		disposition = "attachment"
	}
	if fileName != "" {
		c.Header("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": fileName}))
	}
	c.Data(http.StatusOK, contentType, body)
}

// BindError reports a failed ShouldBind* call
func (h *BaseHandler) BindError(c *gin.Context, err error) {
	middleware.HandleValidationError(c, err)
}

// HandleError answers domain errors with their API code and message. Any
// other error is logged and hidden behind a generic 500.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		h.Fail(c, dto.NormalizeErrorCode(domainErr.Code), domainErr.Message)
		return
	}

	logger.GetGinLogger(c).Error("Unhandled error", zap.Error(err))
	_ = c.Error(err)
	h.Fail(c, dto.ErrCodeInternal, msgUnexpected)
}
