// Command docpdf renders a document described in JSON to a PDF file without
// a database, for template work and support cases.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	printingapp "github.com/crm/backend/internal/application/printing"
	"github.com/crm/backend/internal/domain/printing"
	"github.com/crm/backend/internal/infrastructure/cache"
	"github.com/crm/backend/internal/infrastructure/logger"
	infraprinting "github.com/crm/backend/internal/infrastructure/printing"
	"go.uber.org/zap"
)

func main() {
	var (
		inPath      string
		outPath     string
		backend     string
		paperSize   string
		orientation string
		locale      string
		chromeURL   string
		useChrome   bool
		logLevel    string
	)

	flag.StringVar(&inPath, "in", "-", "Document JSON file, - for stdin")
	flag.StringVar(&outPath, "out", "", "Output PDF path (default: the document file name)")
	flag.StringVar(&backend, "backend", "LAYOUT", "Rendering backend: LAYOUT, HTML or COMPONENT")
	flag.StringVar(&paperSize, "paper", "A4", "Paper size: A4, A5 or LETTER")
	flag.StringVar(&orientation, "orientation", "portrait", "portrait or landscape")
	flag.StringVar(&locale, "locale", "da-DK", "Locale for dates and amounts")
	flag.BoolVar(&useChrome, "chrome", false, "Start a headless browser for the HTML backend")
	flag.StringVar(&chromeURL, "chrome-url", "", "Remote Chrome DevTools URL instead of a local browser")
	flag.StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	flag.Parse()

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stderr",
		TimeFormat: "15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	b, ok := printing.ParseBackend(backend)
	if !ok {
		log.Fatal("Unknown backend", zap.String("backend", backend))
	}

	var in io.Reader = os.Stdin
	if inPath != "-" {
		f, err := os.Open(inPath)
		if err != nil {
			log.Fatal("Failed to open input", zap.Error(err))
		}
		defer f.Close()
		in = f
	}
	doc, err := readDocument(in)
	if err != nil {
		log.Fatal("Invalid document", zap.Error(err))
	}

	renderers := infraprinting.NewRenderers(
		infraprinting.NewLayoutRenderer(log),
		infraprinting.NewComponentRenderer(log),
	)
	if b == printing.BackendHTML || useChrome || chromeURL != "" {
		browser, err := infraprinting.NewChromedpRenderer(&infraprinting.ChromedpConfig{
			RemoteURL: chromeURL,
			NoSandbox: true,
			Logger:    log,
		})
		if err != nil {
			log.Fatal("Failed to start headless browser", zap.Error(err))
		}
		defer func() {
			_ = browser.Close()
		}()
		engine := infraprinting.NewTemplateEngine(infraprinting.WithLocale(locale))
		renderers.Register(infraprinting.NewHTMLRenderer(engine, nil, browser, log))
	}

	assets := infraprinting.NewAssetFetcher(&infraprinting.AssetFetcherConfig{Logger: log},
		cache.NewInMemoryAssetCache(cache.WithInMemoryLogger(log)))

	svc := printingapp.NewDocumentService(nil, renderers, nil, assets, nil,
		printingapp.Config{Locale: locale, DefaultBackend: b}, log)

	result, err := svc.RenderDocument(context.Background(), doc, printing.Options{
		Backend:     b,
		PaperSize:   printing.PaperSize(strings.ToUpper(paperSize)),
		Orientation: printing.Orientation(strings.ToUpper(orientation)),
	})
	if err != nil {
		log.Fatal("Render failed", zap.Error(err))
	}

	if outPath == "" {
		outPath = result.FileName
	}
	if err := os.WriteFile(outPath, result.PDFData, 0o644); err != nil {
		log.Fatal("Failed to write PDF", zap.Error(err))
	}

	fmt.Printf("%s: %d pages, %d bytes, %s backend, total %s\n",
		outPath, result.PageCount, result.Size, result.Backend, result.Totals.Total)
}
