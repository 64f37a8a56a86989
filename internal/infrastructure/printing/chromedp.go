package printing

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/crm/backend/internal/domain/printing"
	"go.uber.org/zap"
)

const (
	defaultChromeTimeout = 30 * time.Second
	// Chrome prints page numbers into the bottom margin, which must fit them
	minFooterMarginMM = 12.0
	mmPerInch         = 25.4
)

// ChromedpConfig configures the headless browser used by the HTML backend
type ChromedpConfig struct {
	// Timeout bounds one print job, including browser start-up on first use
	Timeout time.Duration
	// RemoteURL is a DevTools websocket URL. Empty launches a local browser.
	RemoteURL string
	// NoSandbox is needed when running as root in a container
	NoSandbox bool
	Scale     float64
	Logger    *zap.Logger
}

// ChromedpRenderer prints HTML documents to PDF. One browser is started
// lazily and every job gets its own tab.
type ChromedpRenderer struct {
	config *ChromedpConfig
	logger *zap.Logger

	allocCtx    context.Context
	allocCancel context.CancelFunc

	mu            sync.Mutex
	launch        func() (context.Context, context.CancelFunc, error)
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

// NewChromedpRenderer prepares the allocator. No browser process runs until
// the first Render.
func NewChromedpRenderer(config *ChromedpConfig) (*ChromedpRenderer, error) {
	cfg := ChromedpConfig{}
	if config != nil {
		cfg = *config
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultChromeTimeout
	}
	if cfg.Scale <= 0 {
		cfg.Scale = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	r := &ChromedpRenderer{config: &cfg, logger: cfg.Logger}
	r.launch = r.startBrowser
	if cfg.RemoteURL != "" {
		r.allocCtx, r.allocCancel = chromedp.NewRemoteAllocator(context.Background(), cfg.RemoteURL)
		return r, nil
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	if cfg.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	r.allocCtx, r.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	return r, nil
}

// browser returns the running browser, starting a new one when none has
// started yet or the previous one has exited. Failed starts are not cached.
func (r *ChromedpRenderer) browser() (context.Context, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browserCtx != nil && r.browserCtx.Err() == nil {
		return r.browserCtx, nil
	}
	if r.browserCancel != nil {
		r.logger.Warn("Headless browser exited, restarting")
		r.browserCancel()
		r.browserCtx, r.browserCancel = nil, nil
	}

	ctx, cancel, err := r.launch()
	if err != nil {
		return nil, err
	}
	r.browserCtx, r.browserCancel = ctx, cancel
	return ctx, nil
}

// startBrowser launches or attaches to a browser within config.Timeout.
// The browser context outlives the start-up deadline, so the deadline is
// a timer on its cancel func rather than a derived context.
func (r *ChromedpRenderer) startBrowser() (context.Context, context.CancelFunc, error) {
	ctx, cancel := chromedp.NewContext(r.allocCtx, chromedp.WithLogf(r.logf))
	timer := time.AfterFunc(r.config.Timeout, cancel)

	// An empty Run starts the browser and its first target
	err := chromedp.Run(ctx)
	if !timer.Stop() {
		cancel()
		return nil, nil, fmt.Errorf("browser start-up timed out after %v", r.config.Timeout)
	}
	if err != nil {
		cancel()
		return nil, nil, err
	}
	r.logger.Info("Headless browser started", zap.Bool("remote", r.config.RemoteURL != ""))
	return ctx, cancel, nil
}

func (r *ChromedpRenderer) logf(format string, args ...any) {
	r.logger.Debug(fmt.Sprintf(format, args...))
}

// Render prints req.HTML to PDF in a fresh tab
func (r *ChromedpRenderer) Render(ctx context.Context, req *RenderRequest) (*RenderResult, error) {
	if err := validateRenderRequest(req); err != nil {
		return nil, err
	}

	browserCtx, err := r.browser()
	if err != nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "headless browser is not available", err)
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = r.config.Timeout
	}
	start := time.Now()

	tabCtx, closeTab := chromedp.NewContext(browserCtx)
	defer closeTab()
	tabCtx, cancel := context.WithTimeout(tabCtx, timeout)
	defer cancel()
	// Caller cancellation closes the tab as well
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var pdf []byte
	err = chromedp.Run(tabCtx,
		chromedp.Navigate("about:blank"),
		setContent(wrapDocument(req.Title, req.HTML)),
		waitForFonts(),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := r.printParams(req).Do(ctx)
			pdf = data
			return err
		}),
	)
	if err != nil {
		switch {
		case errors.Is(tabCtx.Err(), context.DeadlineExceeded):
			return nil, NewRenderError(ErrCodeRenderTimeout,
				fmt.Sprintf("printing timed out after %v", timeout), err)
		case ctx.Err() != nil:
			return nil, NewRenderError(ErrCodeRenderTimeout, "printing was cancelled", err)
		}
		return nil, NewRenderError(ErrCodeRenderFailed, "browser failed to print document", err)
	}
	if len(pdf) == 0 {
		return nil, NewRenderError(ErrCodeRenderFailed, "browser returned an empty PDF", nil)
	}

	pages := estimatePageCount(pdf)
	r.logger.Debug("Chrome printed PDF",
		zap.Int("bytes", len(pdf)),
		zap.Int("pages", pages),
		zap.Duration("duration", time.Since(start)))

	return &RenderResult{
		PDFData:        pdf,
		PageCount:      pages,
		RenderDuration: time.Since(start),
		Backend:        printing.BackendHTML,
	}, nil
}

func validateRenderRequest(req *RenderRequest) error {
	switch {
	case req == nil:
		return NewRenderError(ErrCodeInvalidHTML, "render request is nil", nil)
	case strings.TrimSpace(req.HTML) == "":
		return NewRenderError(ErrCodeInvalidHTML, "HTML content is empty", nil)
	case !req.PaperSize.IsValid():
		return NewRenderError(ErrCodeInvalidPaperSize, "invalid paper size: "+string(req.PaperSize), nil)
	}
	return nil
}

func setContent(content string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		tree, err := page.GetFrameTree().Do(ctx)
		if err != nil {
			return err
		}
		return page.SetDocumentContent(tree.Frame.ID, content).Do(ctx)
	})
}

// waitForFonts blocks until embedded @font-face fonts are decoded so the
// first page is not printed with fallback glyphs
func waitForFonts() chromedp.Action {
	var ready bool
	return chromedp.Evaluate(`document.fonts.ready.then(() => true)`, &ready,
		func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true)
		})
}

// printParams maps paper, orientation and margins from millimetres to the
// inches PrintToPDF expects
func (r *ChromedpRenderer) printParams(req *RenderRequest) *page.PrintToPDFParams {
	width, height := req.PaperSize.Dimensions()
	bottom := float64(req.Margins.Bottom)

	params := page.PrintToPDF().
		WithPrintBackground(true).
		WithPreferCSSPageSize(false).
		WithScale(r.config.Scale).
		WithLandscape(req.Orientation == printing.OrientationLandscape).
		WithPaperWidth(mmToInches(float64(width))).
		WithPaperHeight(mmToInches(float64(height))).
		WithMarginTop(mmToInches(float64(req.Margins.Top))).
		WithMarginRight(mmToInches(float64(req.Margins.Right))).
		WithMarginLeft(mmToInches(float64(req.Margins.Left)))

	if req.FooterHTML != "" {
		bottom = max(bottom, minFooterMarginMM)
		params = params.
			WithDisplayHeaderFooter(true).
			WithHeaderTemplate("<span></span>").
			WithFooterTemplate(req.FooterHTML)
	}
	return params.WithMarginBottom(mmToInches(bottom))
}

// wrapDocument returns body unchanged when it is already a full HTML
// document, otherwise wraps it with a UTF-8 head and title
func wrapDocument(title, body string) string {
	lower := strings.ToLower(body)
	if strings.Contains(lower, "<!doctype") || strings.Contains(lower, "<html") {
		return body
	}

	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><head><meta charset="UTF-8">`)
	if title != "" {
		b.WriteString("<title>" + html.EscapeString(title) + "</title>")
	}
	b.WriteString("</head><body>")
	b.WriteString(body)
	b.WriteString("</body></html>")
	return b.String()
}

// Close shuts the browser down
func (r *ChromedpRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.browserCancel != nil {
		r.browserCancel()
		r.browserCtx, r.browserCancel = nil, nil
	}
	if r.allocCancel != nil {
		r.allocCancel()
	}
	return nil
}

func mmToInches(mm float64) float64 {
	return mm / mmPerInch
}

var _ PDFRenderer = (*ChromedpRenderer)(nil)
