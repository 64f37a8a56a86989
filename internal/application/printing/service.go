package printing

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/crm/backend/internal/domain/document"
	"github.com/crm/backend/internal/domain/printing"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/domain/shared/valueobject"
	infra "github.com/crm/backend/internal/infrastructure/printing"
	"github.com/crm/backend/internal/infrastructure/logger"
	"github.com/crm/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ContentTypePDF is the media type of every rendered document
const ContentTypePDF = "application/pdf"

// Config holds the rendering defaults applied when a request leaves them out
type Config struct {
	Locale         string
	Currency       string // used when a totals request names none
	DefaultBackend printing.Backend
	PaperSize      printing.PaperSize
}

// DocumentService loads documents, computes their totals and renders them
type DocumentService struct {
	repo      document.Repository
	renderers *infra.Renderers
	preview   *infra.HTMLRenderer
	assets    *infra.AssetFetcher
	storage   infra.PDFStorage
	config    Config
	logger    *zap.Logger
	metrics   *telemetry.RenderMetrics
}

// Option configures optional DocumentService collaborators
type Option func(*DocumentService)

// WithMetrics records render and archive metrics
func WithMetrics(m *telemetry.RenderMetrics) Option {
	return func(s *DocumentService) {
		s.metrics = m
	}
}

// NewDocumentService creates a new DocumentService. assets, preview and
// storage are optional: without assets documents render with the standard
// font and no logo, without storage archiving is rejected.
func NewDocumentService(
	repo document.Repository,
	renderers *infra.Renderers,
	preview *infra.HTMLRenderer,
	assets *infra.AssetFetcher,
	storage infra.PDFStorage,
	config Config,
	log *zap.Logger,
	opts ...Option,
) *DocumentService {
	if log == nil {
		log = zap.NewNop()
	}
	if renderers == nil {
		renderers = infra.NewRenderers()
	}
	if !config.DefaultBackend.IsValid() {
		config.DefaultBackend = printing.BackendLayout
	}
	if !config.PaperSize.IsValid() {
		config.PaperSize = printing.PaperSizeA4
	}
	if config.Locale == "" {
		config.Locale = valueobject.DefaultLocale
	}
	s := &DocumentService{
		repo:      repo,
		renderers: renderers,
		preview:   preview,
		assets:    assets,
		storage:   storage,
		config:    config,
		logger:    log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// =============================================================================
// Totals
// =============================================================================

// CalculateTotals computes totals for unsaved editor lines
func (s *DocumentService) CalculateTotals(ctx context.Context, req CalculateTotalsRequest) (*TotalsResponse, error) {
	code := req.Currency
	if code == "" {
		code = s.config.Currency
	}
	cur, err := valueobject.ParseCurrency(code)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", err.Error())
	}

	items := make([]document.LineItem, len(req.Items))
	for i, l := range req.Items {
		items[i] = l.ToDomain()
	}
	totals, lines := document.CalculateBreakdown(items, document.Defaults{
		TaxPct:      req.TaxPct,
		DiscountPct: req.DiscountPct,
	})

	logger.L(ctx).Debug("Calculated totals",
		zap.Int("lines", len(items)),
		zap.Int64("total_minor", totals.TotalMinor))

	return s.totalsResponse(totals, lines, cur), nil
}

func (s *DocumentService) totalsResponse(totals document.Totals, lines []document.LineTotals, cur valueobject.Currency) *TotalsResponse {
	f := valueobject.NewFormatter(s.config.Locale)
	resp := &TotalsResponse{
		Currency:      string(cur),
		SubtotalMinor: totals.SubtotalMinor,
		TaxMinor:      totals.TaxMinor,
		TotalMinor:    totals.TotalMinor,
		Subtotal:      f.Format(totals.SubtotalMinor, cur),
		Tax:           f.Format(totals.TaxMinor, cur),
		Total:         f.Format(totals.TotalMinor, cur),
	}
	if len(lines) > 0 {
		resp.Lines = make([]LineTotalsResponse, len(lines))
		for i, lt := range lines {
			resp.Lines[i] = LineTotalsResponse{
				Position:             i + 1,
				SubtotalMinor:        lt.SubtotalMinor,
				TaxMinor:             lt.TaxMinor,
				TotalMinor:           lt.TotalMinor,
				EffectiveTaxPct:      lt.EffectiveTaxPct,
				EffectiveDiscountPct: lt.EffectiveDiscountPct,
			}
		}
	}
	return resp
}

// =============================================================================
// Rendering
// =============================================================================

// GeneratePDF renders a stored document and optionally archives the result
func (s *DocumentService) GeneratePDF(ctx context.Context, req GeneratePDFRequest) (*GeneratePDFResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "DocumentService", "GeneratePDF",
		telemetry.WithAttribute(telemetry.AttrDocumentType, req.DocumentType),
		telemetry.WithAttribute(telemetry.AttrDocumentID, req.DocumentID),
	)
	defer span.End()

	opts, err := s.options(req)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	doc, err := s.load(ctx, req.DocumentType, req.DocumentID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	ctx = logger.WithDocument(ctx, string(doc.Type), doc.ID.String())
	span.SetAttributes(attribute.String(telemetry.AttrDocumentNumber, doc.Number))

	if req.Archive && s.storage == nil {
		return nil, shared.NewDomainError("INVALID_STATE", "PDF archive storage is not configured")
	}

	data, result, err := s.render(ctx, doc, opts)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	resp := s.pdfResponse(doc, data, result)
	if req.Archive {
		stored, err := s.storage.Store(ctx, &infra.StoreRequest{
			DocType:    doc.Type,
			DocumentID: doc.ID,
			Number:     doc.Number,
			IssuedAt:   doc.IssueDate,
			PDFData:    result.PDFData,
		})
		s.metrics.RecordArchive(ctx, string(doc.Type), err)
		if err != nil {
			telemetry.RecordError(span, err)
			logger.L(ctx).Error("Failed to archive PDF", zap.Error(err))
			return nil, shared.NewDomainError("STORAGE_FAILED", "Rendered PDF could not be archived")
		}
		resp.StoragePath = stored.Key
		resp.StorageURL = stored.URL
		span.SetAttributes(attribute.String(telemetry.AttrStoragePath, stored.Key))
	}
	telemetry.SetOK(span)

	logger.L(ctx).Info("PDF generated",
		zap.String("backend", string(result.Backend)),
		zap.Int("size", len(result.PDFData)),
		zap.Int("pages", result.PageCount),
		zap.Duration("duration", result.RenderDuration),
		zap.Bool("archived", resp.StoragePath != ""))
	return resp, nil
}

// RenderDocument renders an in-memory document without touching the repository
func (s *DocumentService) RenderDocument(ctx context.Context, doc *document.Document, opts printing.Options) (*GeneratePDFResponse, error) {
	if doc == nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Document is required")
	}
	if !opts.Backend.IsValid() {
		opts.Backend = s.config.DefaultBackend
	}
	if !opts.PaperSize.IsValid() {
		opts.PaperSize = s.config.PaperSize
	}
	opts = opts.Normalize()

	ctx = logger.WithDocument(ctx, string(doc.Type), doc.ID.String())
	data, result, err := s.render(ctx, doc, opts)
	if err != nil {
		return nil, err
	}
	return s.pdfResponse(doc, data, result), nil
}

// PreviewHTML returns the HTML the headless-browser backend would print
func (s *DocumentService) PreviewHTML(ctx context.Context, docType, id string) (*PreviewResponse, error) {
	if s.preview == nil {
		return nil, shared.NewDomainError("INVALID_STATE", "HTML preview is not available")
	}
	doc, err := s.load(ctx, docType, id)
	if err != nil {
		return nil, err
	}
	ctx = logger.WithDocument(ctx, string(doc.Type), doc.ID.String())

	data := infra.NewDocumentData(doc, s.config.Locale)
	data.Assets = s.loadAssets(ctx, doc)

	html, err := s.preview.RenderHTML(ctx, data)
	if err != nil {
		logger.L(ctx).Error("Failed to render HTML preview", zap.Error(err))
		return nil, renderFailure(err)
	}
	return &PreviewResponse{
		DocumentID:   doc.ID.String(),
		DocumentType: string(doc.Type),
		FileName:     strings.TrimSuffix(data.Meta.FileName, ".pdf") + ".html",
		HTML:         html,
	}, nil
}

func (s *DocumentService) load(ctx context.Context, docType, id string) (*document.Document, error) {
	dt, ok := document.ParseDocType(docType)
	if !ok {
		return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Unknown document type %q", docType))
	}
	docID, err := shared.ParseID(id, "document")
	if err != nil {
		return nil, err
	}
	if s.repo == nil {
		return nil, shared.NewDomainError("INVALID_STATE", "Document repository is not configured")
	}
	doc, err := s.repo.FindByID(ctx, dt, docID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", fmt.Sprintf("%s not found", dt.DisplayName()))
		}
		return nil, fmt.Errorf("failed to load document: %w", err)
	}
	return doc, nil
}

func (s *DocumentService) options(req GeneratePDFRequest) (printing.Options, error) {
	opts := printing.DefaultOptions()
	opts.Backend = s.config.DefaultBackend
	opts.PaperSize = s.config.PaperSize

	if req.Backend != "" {
		b, ok := printing.ParseBackend(req.Backend)
		if !ok {
			return opts, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Unknown rendering backend %q", req.Backend))
		}
		opts.Backend = b
	}
	if req.PaperSize != "" {
		ps := printing.PaperSize(strings.ToUpper(strings.TrimSpace(req.PaperSize)))
		if !ps.IsValid() {
			return opts, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Unknown paper size %q", req.PaperSize))
		}
		opts.PaperSize = ps
	}
	if req.Orientation != "" {
		o := printing.Orientation(strings.ToUpper(strings.TrimSpace(req.Orientation)))
		if !o.IsValid() {
			return opts, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Unknown orientation %q", req.Orientation))
		}
		opts.Orientation = o
	}
	if req.Margins != nil {
		m, err := printing.NewMargins(req.Margins.Top, req.Margins.Right, req.Margins.Bottom, req.Margins.Left)
		if err != nil {
			return opts, err
		}
		opts.Margins = m
	}
	return opts.Normalize(), nil
}

// render builds the view model, fetches assets one at a time and renders
func (s *DocumentService) render(ctx context.Context, doc *document.Document, opts printing.Options) (*infra.DocumentData, *infra.RenderResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "document.render",
		telemetry.WithAttribute(telemetry.AttrRenderBackend, opts.Backend),
		telemetry.WithAttribute(telemetry.AttrPaperSize, opts.PaperSize),
	)
	defer span.End()

	data := infra.NewDocumentData(doc, s.config.Locale)
	data.Assets = s.loadAssets(ctx, doc)
	telemetry.AddEvent(ctx, "assets.loaded", attribute.Bool("logo", data.Assets.HasLogo()))

	start := time.Now()
	done := s.metrics.StartRender(ctx, string(opts.Backend))
	result, err := s.renderers.Render(ctx, data, opts)
	done()
	if err != nil {
		s.metrics.RecordRender(ctx, string(opts.Backend), string(doc.Type), time.Since(start), 0, err)
		telemetry.RecordError(span, err)
		logger.L(ctx).Error("Failed to render document",
			zap.String("backend", string(opts.Backend)),
			zap.Error(err))
		return nil, nil, renderFailure(err)
	}
	s.metrics.RecordRender(ctx, string(result.Backend), string(doc.Type), result.RenderDuration, len(result.PDFData), nil)
	span.SetAttributes(
		attribute.Int(telemetry.AttrPDFBytes, len(result.PDFData)),
		attribute.Int(telemetry.AttrPageCount, result.PageCount),
	)
	return data, result, nil
}

func (s *DocumentService) loadAssets(ctx context.Context, doc *document.Document) *infra.RenderAssets {
	if s.assets == nil {
		return &infra.RenderAssets{}
	}
	return s.assets.Load(ctx, doc.Seller.LogoURL)
}

func (s *DocumentService) pdfResponse(doc *document.Document, data *infra.DocumentData, result *infra.RenderResult) *GeneratePDFResponse {
	totals, lines := doc.Breakdown()
	return &GeneratePDFResponse{
		DocumentID:       doc.ID.String(),
		DocumentType:     string(doc.Type),
		Number:           doc.Number,
		FileName:         data.Meta.FileName,
		ContentType:      ContentTypePDF,
		Backend:          string(result.Backend),
		Size:             len(result.PDFData),
		PageCount:        result.PageCount,
		RenderDurationMs: result.RenderDuration.Milliseconds(),
		PDFBase64:        base64.StdEncoding.EncodeToString(result.PDFData),
		Totals:           *s.totalsResponse(totals, lines, doc.Currency),
		GeneratedAt:      time.Now(),
		PDFData:          result.PDFData,
	}
}

// renderFailure maps renderer errors to domain errors. Input problems become
// INVALID_INPUT; everything else is RENDER_FAILED.
func renderFailure(err error) error {
	var re *infra.RenderError
	if !errors.As(err, &re) {
		return shared.ErrRenderFailed
	}
	switch re.Code {
	case infra.ErrCodeUnknownBackend, infra.ErrCodeInvalidPaperSize, infra.ErrCodeInvalidDocument:
		return shared.NewDomainError("INVALID_INPUT", re.Message)
	case infra.ErrCodeRenderTimeout:
		return shared.NewDomainError("RENDER_FAILED", "Rendering timed out")
	default:
		return shared.NewDomainError("RENDER_FAILED", re.Message)
	}
}

// =============================================================================
// Reference Data
// =============================================================================

// GetDocumentTypes returns all document types
func (s *DocumentService) GetDocumentTypes() []DocumentTypeResponse {
	docTypes := document.AllDocTypes()
	result := make([]DocumentTypeResponse, len(docTypes))
	for i, dt := range docTypes {
		result[i] = DocumentTypeResponse{
			Code:        string(dt),
			DisplayName: dt.DisplayName(),
		}
	}
	return result
}

// GetPaperSizes returns all available paper sizes
func (s *DocumentService) GetPaperSizes() []PaperSizeResponse {
	paperSizes := printing.AllPaperSizes()
	result := make([]PaperSizeResponse, len(paperSizes))
	for i, ps := range paperSizes {
		w, h := ps.Dimensions()
		result[i] = PaperSizeResponse{
			Code:   string(ps),
			Width:  w,
			Height: h,
		}
	}
	return result
}

// GetBackends lists every backend and whether a renderer is registered for it
func (s *DocumentService) GetBackends() []BackendResponse {
	registered := make(map[printing.Backend]bool)
	for _, b := range s.renderers.Backends() {
		registered[b] = true
	}
	all := printing.AllBackends()
	result := make([]BackendResponse, len(all))
	for i, b := range all {
		result[i] = BackendResponse{
			Code:      string(b),
			Available: registered[b],
			Default:   b == s.config.DefaultBackend,
		}
	}
	return result
}
