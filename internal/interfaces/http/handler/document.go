package handler

import (
	"context"
	"strconv"

	printingapp "github.com/crm/backend/internal/application/printing"
	"github.com/crm/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// DocumentService is the application surface the document endpoints need
type DocumentService interface {
	CalculateTotals(ctx context.Context, req printingapp.CalculateTotalsRequest) (*printingapp.TotalsResponse, error)
	GeneratePDF(ctx context.Context, req printingapp.GeneratePDFRequest) (*printingapp.GeneratePDFResponse, error)
	PreviewHTML(ctx context.Context, docType, id string) (*printingapp.PreviewResponse, error)
	GetDocumentTypes() []printingapp.DocumentTypeResponse
	GetPaperSizes() []printingapp.PaperSizeResponse
	GetBackends() []printingapp.BackendResponse
}

// DocumentHandler handles totals, PDF and preview endpoints
type DocumentHandler struct {
	BaseHandler
	service DocumentService
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(service DocumentService) *DocumentHandler {
	return &DocumentHandler{service: service}
}

// PDFOptionsRequest carries rendering options. Query parameters and an
// optional JSON body are merged, the body winning.
type PDFOptionsRequest struct {
	Backend     string                  `json:"backend" form:"backend" binding:"omitempty,oneof=LAYOUT HTML COMPONENT layout html component"`
	PaperSize   string                  `json:"paper_size" form:"paper_size"`
	Orientation string                  `json:"orientation" form:"orientation"`
	Margins     *printingapp.MarginsDTO `json:"margins"`
	Archive     bool                    `json:"archive" form:"archive"`
	Download    bool                    `json:"-" form:"download"`
}

func (r PDFOptionsRequest) toApp(uri dto.DocumentURI) printingapp.GeneratePDFRequest {
	return printingapp.GeneratePDFRequest{
		DocumentType: uri.Type,
		DocumentID:   uri.ID,
		Backend:      r.Backend,
		PaperSize:    r.PaperSize,
		Orientation:  r.Orientation,
		Margins:      r.Margins,
		Archive:      r.Archive,
	}
}

// CalculateTotals godoc
//
//	@Summary	Calculate document totals for unsaved lines
//	@Tags		documents
//	@Accept		json
//	@Produce	json
//	@Router		/documents/totals [post]
func (h *DocumentHandler) CalculateTotals(c *gin.Context) {
	var req printingapp.CalculateTotalsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.service.CalculateTotals(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// GeneratePDF godoc
//
//	@Summary	Render a stored document and return it base64 encoded
//	@Tags		documents
//	@Produce	json
//	@Param		backend	query	string	false	"LAYOUT, HTML or COMPONENT"
//	@Param		archive	query	bool	false	"store the PDF in the archive"
//	@Router		/documents/{type}/{id}/pdf [post]
func (h *DocumentHandler) GeneratePDF(c *gin.Context) {
	uri, opts, ok := h.bindPDFRequest(c, true)
	if !ok {
		return
	}

	result, err := h.service.GeneratePDF(c.Request.Context(), opts.toApp(uri))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if result.StoragePath != "" {
		h.Created(c, result)
		return
	}
	h.Success(c, result)
}

// DownloadPDF godoc
//
//	@Summary	Render a stored document as application/pdf
//	@Tags		documents
//	@Produce	application/pdf
//	@Param		download	query	bool	false	"send as attachment instead of inline"
//	@Router		/documents/{type}/{id}/pdf [get]
func (h *DocumentHandler) DownloadPDF(c *gin.Context) {
	uri, opts, ok := h.bindPDFRequest(c, false)
	if !ok {
		return
	}

	result, err := h.service.GeneratePDF(c.Request.Context(), opts.toApp(uri))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.Header("X-Render-Backend", result.Backend)
	c.Header("X-Page-Count", strconv.Itoa(result.PageCount))
	h.File(c, result.ContentType, result.FileName, opts.Download, result.PDFData)
}

// Preview godoc
//
//	@Summary	HTML the headless-browser backend prints
//	@Tags		documents
//	@Produce	html
//	@Param		format	query	string	false	"json to wrap the HTML in the envelope"
//	@Router		/documents/{type}/{id}/preview [get]
func (h *DocumentHandler) Preview(c *gin.Context) {
	var uri dto.DocumentURI
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.service.PreviewHTML(c.Request.Context(), uri.Type, uri.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if c.Query("format") == "json" {
		h.Success(c, result)
		return
	}
	h.File(c, "text/html; charset=utf-8", "", false, []byte(result.HTML))
}

// GetDocumentTypes lists the document types
func (h *DocumentHandler) GetDocumentTypes(c *gin.Context) {
	h.Success(c, h.service.GetDocumentTypes())
}

// GetPaperSizes lists the supported paper sizes
func (h *DocumentHandler) GetPaperSizes(c *gin.Context) {
	h.Success(c, h.service.GetPaperSizes())
}

// GetBackends lists rendering backends and which ones are available
func (h *DocumentHandler) GetBackends(c *gin.Context) {
	h.Success(c, h.service.GetBackends())
}

func (h *DocumentHandler) bindPDFRequest(c *gin.Context, allowBody bool) (dto.DocumentURI, PDFOptionsRequest, bool) {
	var uri dto.DocumentURI
	var opts PDFOptionsRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BindError(c, err)
		return uri, opts, false
	}
	if err := c.ShouldBindQuery(&opts); err != nil {
		h.BindError(c, err)
		return uri, opts, false
	}
	if allowBody && c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&opts); err != nil {
			h.BindError(c, err)
			return uri, opts, false
		}
	}
	return uri, opts, true
}
