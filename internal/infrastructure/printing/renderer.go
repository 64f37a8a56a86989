package printing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/crm/backend/internal/domain/printing"
)

// RenderRequest contains the parameters for rendering HTML to PDF
type RenderRequest struct {
	// HTML content to render
	HTML string
	// PaperSize defines the output paper dimensions
	PaperSize printing.PaperSize
	// Orientation defines portrait or landscape
	Orientation printing.Orientation
	// Margins in millimeters
	Margins printing.Margins
	// Title for the PDF document metadata
	Title string
	// FooterHTML is printed at the bottom of every page (optional)
	FooterHTML string
	// Timeout overrides the default rendering timeout
	Timeout time.Duration
}

// RenderResult contains the output from PDF rendering
type RenderResult struct {
	// PDFData is the raw PDF file content
	PDFData []byte
	// PageCount is the number of pages in the PDF
	PageCount int
	// RenderDuration is how long the rendering took
	RenderDuration time.Duration
	// Backend that produced the PDF
	Backend printing.Backend
}

// PDFRenderer converts HTML to PDF
type PDFRenderer interface {
	// Render converts HTML content to a PDF document
	Render(ctx context.Context, req *RenderRequest) (*RenderResult, error)
	// Close releases any resources held by the renderer
	Close() error
}

// DocumentRenderer renders a document view model with one backend
type DocumentRenderer interface {
	Backend() printing.Backend
	RenderDocument(ctx context.Context, data *DocumentData, opts printing.Options) (*RenderResult, error)
}

// RenderError represents an error during PDF rendering
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// Error codes for rendering failures
const (
	ErrCodeRenderTimeout    = "RENDER_TIMEOUT"
	ErrCodeRenderFailed     = "RENDER_FAILED"
	ErrCodeInvalidHTML      = "INVALID_HTML"
	ErrCodeInvalidPaperSize = "INVALID_PAPER_SIZE"
	ErrCodeInvalidDocument  = "INVALID_DOCUMENT"
	ErrCodeUnknownBackend   = "UNKNOWN_BACKEND"
	ErrCodeStorageFailed    = "STORAGE_FAILED"
)

// NewRenderError creates a new RenderError
func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// IsRenderError reports whether err carries a RenderError with the given code
func IsRenderError(err error, code string) bool {
	var re *RenderError
	return errors.As(err, &re) && re.Code == code
}

// Renderers maps each backend to its DocumentRenderer
type Renderers struct {
	mu        sync.RWMutex
	renderers map[printing.Backend]DocumentRenderer
}

// NewRenderers creates a registry holding the given renderers
func NewRenderers(renderers ...DocumentRenderer) *Renderers {
	r := &Renderers{renderers: make(map[printing.Backend]DocumentRenderer)}
	for _, dr := range renderers {
		r.Register(dr)
	}
	return r
}

// Register adds a renderer, replacing any previous one for the same backend
func (r *Renderers) Register(dr DocumentRenderer) {
	if dr == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renderers[dr.Backend()] = dr
}

// Get returns the renderer for a backend
func (r *Renderers) Get(backend printing.Backend) (DocumentRenderer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	dr, ok := r.renderers[backend]
	return dr, ok
}

// Render dispatches to the renderer registered for opts.Backend
func (r *Renderers) Render(ctx context.Context, data *DocumentData, opts printing.Options) (*RenderResult, error) {
	dr, ok := r.Get(opts.Backend)
	if !ok {
		return nil, NewRenderError(ErrCodeUnknownBackend,
			fmt.Sprintf("no renderer registered for backend %s", opts.Backend), nil)
	}
	return dr.RenderDocument(ctx, data, opts)
}

// Backends returns the registered backends in name order
func (r *Renderers) Backends() []printing.Backend {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]printing.Backend, 0, len(r.renderers))
	for b := range r.renderers {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// estimatePageCount counts page objects in a PDF
func estimatePageCount(pdf []byte) int {
	count := 0
	marker := []byte("/Type /Page")
	compact := []byte("/Type/Page")
	for i := 0; i < len(pdf); i++ {
		if matchPageMarker(pdf[i:], marker) || matchPageMarker(pdf[i:], compact) {
			count++
		}
	}
	if count == 0 {
		return 1
	}
	return count
}

// matchPageMarker matches "/Type /Page" but not "/Type /Pages"
func matchPageMarker(b, marker []byte) bool {
	if len(b) < len(marker) {
		return false
	}
	for i := range marker {
		if b[i] != marker[i] {
			return false
		}
	}
	return len(b) == len(marker) || b[len(marker)] != 's'
}
