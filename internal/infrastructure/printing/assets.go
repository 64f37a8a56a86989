package printing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/crm/backend/internal/infrastructure/cache"
	"go.uber.org/zap"
)

const (
	defaultAssetTimeout  = 5 * time.Second
	defaultMaxAssetBytes = 4 << 20
)

// AssetFetcherConfig configures asset downloads
type AssetFetcherConfig struct {
	Timeout  time.Duration
	MaxBytes int64
	CacheTTL time.Duration
	// FontURL and BoldFontURL point at TrueType fonts used by the layout
	// backend; empty keeps the standard Helvetica
	FontURL     string
	BoldFontURL string
	Logger      *zap.Logger
}

// AssetFetcher downloads logos and fonts. Failures never abort a render:
// they are logged and reported as missing assets.
type AssetFetcher struct {
	config *AssetFetcherConfig
	client *http.Client
	cache  cache.AssetCache
	logger *zap.Logger
}

// NewAssetFetcher creates a fetcher. cache may be nil.
func NewAssetFetcher(config *AssetFetcherConfig, c cache.AssetCache) *AssetFetcher {
	if config == nil {
		config = &AssetFetcherConfig{}
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultAssetTimeout
	}
	if config.MaxBytes <= 0 {
		config.MaxBytes = defaultMaxAssetBytes
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = cache.DefaultAssetTTL
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssetFetcher{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		cache:  c,
		logger: logger,
	}
}

// WithHTTPClient replaces the HTTP client, mainly for tests
func (f *AssetFetcher) WithHTTPClient(client *http.Client) *AssetFetcher {
	f.client = client
	return f
}

// Fetch downloads url, returning nil on any failure
func (f *AssetFetcher) Fetch(ctx context.Context, url string) []byte {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil
	}

	if f.cache != nil {
		data, ok, err := f.cache.Get(ctx, url)
		if err != nil {
			f.logger.Warn("Asset cache read failed", zap.String("url", url), zap.Error(err))
		} else if ok {
			return data
		}
	}

	data, err := f.download(ctx, url)
	if err != nil {
		f.logger.Warn("Asset fetch failed, rendering without it",
			zap.String("url", url),
			zap.Error(err))
		return nil
	}

	if f.cache != nil {
		if err := f.cache.Set(ctx, url, data, f.config.CacheTTL); err != nil {
			f.logger.Warn("Asset cache write failed", zap.String("url", url), zap.Error(err))
		}
	}
	return data
}

func (f *AssetFetcher) download(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(data)) > f.config.MaxBytes {
		return nil, fmt.Errorf("asset exceeds %d bytes", f.config.MaxBytes)
	}
	if len(data) == 0 {
		return nil, errors.New("empty asset")
	}
	return data, nil
}

// Load fetches the logo and fonts for a document, one after another.
// The result is never nil; missing assets are left empty.
func (f *AssetFetcher) Load(ctx context.Context, logoURL string) *RenderAssets {
	assets := &RenderAssets{}

	if logo := f.Fetch(ctx, logoURL); logo != nil {
		if kind := ImageType(logo); kind != "" && imageDecodable(logo) {
			assets.Logo = logo
			assets.LogoType = kind
		} else {
			f.logger.Warn("Unsupported logo image type, skipping", zap.String("url", logoURL))
		}
	}

	if f.config.FontURL != "" {
		assets.Font = f.Fetch(ctx, f.config.FontURL)
		if assets.Font != nil && f.config.BoldFontURL != "" {
			assets.BoldFont = f.Fetch(ctx, f.config.BoldFontURL)
		}
	}
	return assets
}

// ImageType sniffs PNG or JPEG data and returns "PNG", "JPG" or ""
func ImageType(data []byte) string {
	switch http.DetectContentType(data) {
	case "image/png":
		return "PNG"
	case "image/jpeg":
		return "JPG"
	default:
		return ""
	}
}

// ImageDimensions decodes the pixel size of a PNG or JPEG image
func ImageDimensions(data []byte) (width, height int, ok bool) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || cfg.Width == 0 || cfg.Height == 0 {
		return 0, 0, false
	}
	return cfg.Width, cfg.Height, true
}

func imageDecodable(data []byte) bool {
	_, _, ok := ImageDimensions(data)
	return ok
}
