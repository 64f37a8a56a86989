package printing

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"html/template"
	"maps"
	"strings"
	"time"

	"github.com/crm/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TemplateEngine renders HTML document templates with formatting helpers
type TemplateEngine struct {
	locale  string
	format  *valueobject.Formatter
	funcMap template.FuncMap
}

// TemplateEngineOption configures the template engine
type TemplateEngineOption func(*TemplateEngine)

// WithLocale sets the locale used by the money and number helpers
func WithLocale(locale string) TemplateEngineOption {
	return func(e *TemplateEngine) {
		e.locale = locale
	}
}

// WithFuncs adds or overrides template functions
func WithFuncs(funcs template.FuncMap) TemplateEngineOption {
	return func(e *TemplateEngine) {
		maps.Copy(e.funcMap, funcs)
	}
}

// NewTemplateEngine creates a new template engine with default configuration
func NewTemplateEngine(opts ...TemplateEngineOption) *TemplateEngine {
	e := &TemplateEngine{locale: valueobject.DefaultLocale, funcMap: template.FuncMap{}}
	for _, opt := range opts {
		opt(e)
	}
	e.format = valueobject.NewFormatter(e.locale)

	base := template.FuncMap{
		// Money and numbers
		"formatMoney":   e.formatMoney,
		"formatQty":     e.format.FormatQuantity,
		"formatPercent": e.format.FormatPercent,
		"formatDecimal": formatDecimal,

		// Dates
		"formatDate":     formatDateValue,
		"formatDateTime": formatDateTime,

		// Strings
		"truncate": truncate,
		"join":     strings.Join,
		"upper":    strings.ToUpper,
		"lower":    strings.ToLower,
		"title":    e.titleCase,
		"trim":     strings.TrimSpace,
		"nl2br":    nl2br,

		// Logic
		"default": defaultFunc,
		"add":     func(a, b int) int { return a + b },

		// Safe content
		"safeHTML": safeHTML,
		"safeURL":  safeURL,
		"dataURI":  dataURI,

		"now": time.Now,
	}
	// user-supplied functions win over the defaults
	maps.Copy(base, e.funcMap)
	e.funcMap = base

	return e
}

// RenderString renders a template string with the provided data
func (e *TemplateEngine) RenderString(ctx context.Context, name, content string, data any) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", NewRenderError(ErrCodeInvalidHTML, "template content is empty", nil)
	}
	if err := ctx.Err(); err != nil {
		return "", NewRenderError(ErrCodeRenderTimeout, "template rendering cancelled", err)
	}

	tmpl, err := template.New(name).Funcs(e.funcMap).Parse(content)
	if err != nil {
		return "", NewRenderError(ErrCodeInvalidHTML, "failed to parse template", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", NewRenderError(ErrCodeRenderFailed, "failed to execute template", err)
	}
	return buf.String(), nil
}

// GetFuncMap returns a copy of the template function map
func (e *TemplateEngine) GetFuncMap() template.FuncMap {
	funcMap := make(template.FuncMap, len(e.funcMap))
	maps.Copy(funcMap, e.funcMap)
	return funcMap
}

// formatMoney formats minor units, e.g. {{ formatMoney 123450 "DKK" }} -> "1.234,50 kr."
func (e *TemplateEngine) formatMoney(minor any, currency ...string) string {
	cur := valueobject.DefaultCurrency
	if len(currency) > 0 && currency[0] != "" {
		cur = valueobject.Currency(currency[0])
	}
	return e.format.Format(toInt64(minor), cur)
}

func (e *TemplateEngine) titleCase(s string) string {
	tag, err := language.Parse(e.locale)
	if err != nil {
		tag = language.Danish
	}
	return cases.Title(tag).String(s)
}

// formatDecimal formats a number with fixed precision
func formatDecimal(v any, precision int) string {
	switch val := v.(type) {
	case decimal.Decimal:
		return val.StringFixed(int32(precision))
	case float64:
		return decimal.NewFromFloat(val).StringFixed(int32(precision))
	default:
		return decimal.NewFromInt(toInt64(v)).StringFixed(int32(precision))
	}
}

func formatDateValue(v any) string {
	t := toTime(v)
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func formatDateTime(v any) string {
	t := toTime(v)
	if t.IsZero() {
		return ""
	}
	return t.Format("02-01-2006 15:04")
}

// truncate truncates a string to max runes, appending "…"
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 1 {
		return string(runes[:max])
	}
	return string(runes[:max-1]) + "…"
}

// nl2br escapes text and turns newlines into <br>
func nl2br(s string) template.HTML {
	escaped := template.HTMLEscapeString(s)
	return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))
}

func defaultFunc(def, val any) any {
	switch v := val.(type) {
	case nil:
		return def
	case string:
		if v == "" {
			return def
		}
	}
	return val
}

func safeHTML(s string) template.HTML {
	return template.HTML(s)
}

func safeURL(s string) template.URL {
	return template.URL(s)
}

// dataURI embeds image bytes as a data: URL usable in <img src>
func dataURI(data []byte) template.URL {
	if len(data) == 0 {
		return ""
	}
	mime := "image/png"
	if ImageType(data) == "JPG" {
		mime = "image/jpeg"
	}
	return template.URL(fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data)))
}

func toInt64(v any) int64 {
	switch val := v.(type) {
	case int:
		return int64(val)
	case int32:
		return int64(val)
	case int64:
		return val
	case float64:
		return int64(val)
	case decimal.Decimal:
		return val.IntPart()
	default:
		return 0
	}
}

func toTime(v any) time.Time {
	switch val := v.(type) {
	case time.Time:
		return val
	case *time.Time:
		if val == nil {
			return time.Time{}
		}
		return *val
	case string:
		for _, f := range []string{time.RFC3339, "2006-01-02", dateLayout} {
			if t, err := time.Parse(f, val); err == nil {
				return t
			}
		}
		return time.Time{}
	default:
		return time.Time{}
	}
}
