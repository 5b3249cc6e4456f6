package web

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"go.uber.org/zap"

	"github.com/hpungsan/muse/internal/errors"
	"github.com/hpungsan/muse/internal/ops"
	"github.com/hpungsan/muse/internal/quote"
)

// PageData contains common fields used across all page templates.
type PageData struct {
	Title   string
	Version string
	Dark    bool
}

// SavedItem is a saved quote prepared for display.
type SavedItem struct {
	quote.Summary
	RenderedHTML template.HTML
	Editing      bool
}

// HomePageData is the template data for the single quote page.
type HomePageData struct {
	PageData
	Categories []quote.Category
	Category   string
	Quote      string
	QuoteError string
	Model      string
	Notice     string
	Saved      []SavedItem
	Pagination ops.Pagination
	ReturnTo   string
}

// ErrorPageData is the template data for the error page.
type ErrorPageData struct {
	PageData
	StatusCode int
	Message    string
}

// Renderer manages template parsing and rendering.
type Renderer struct {
	templates map[string]*template.Template
	version   string
	logger    *zap.Logger
}

// NewRenderer creates a Renderer by parsing templates from the given FS.
func NewRenderer(templateFS fs.FS, version string, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	funcMap := template.FuncMap{
		"add":           func(a, b int) int { return a + b },
		"sub":           func(a, b int) int { return a - b },
		"formatTime":    formatTime,
		"categoryLabel": quote.CategoryLabel,
	}

	// Parse layout as the base template
	layoutTmpl := template.Must(template.New("layout").Funcs(funcMap).ParseFS(templateFS, "layout.html"))

	pages := map[string]string{
		"home":  "home.html",
		"error": "error.html",
	}

	templates := make(map[string]*template.Template, len(pages))
	for name, file := range pages {
		t := template.Must(layoutTmpl.Clone())
		template.Must(t.ParseFS(templateFS, file))
		templates[name] = t
	}

	return &Renderer{
		templates: templates,
		version:   version,
		logger:    logger,
	}
}

// renderPage renders a named page template with the given data and HTTP 200 status.
func (r *Renderer) renderPage(w http.ResponseWriter, name string, data any) {
	r.renderPageStatus(w, http.StatusOK, name, data)
}

// renderPageStatus renders a named page template with the given data and HTTP status code.
func (r *Renderer) renderPageStatus(w http.ResponseWriter, status int, name string, data any) {
	t, ok := r.templates[name]
	if !ok {
		r.logger.Error("template not found", zap.String("template", name))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		r.logger.Error("template execution error", zap.String("template", name), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// asQuoteError converts any error to a QuoteError, wrapping unknown errors as INTERNAL.
func asQuoteError(err error) *errors.QuoteError {
	var qErr *errors.QuoteError
	if !stderrors.As(err, &qErr) {
		qErr = errors.NewInternal(err)
	}
	return qErr
}

// renderError renders an error response with content negotiation.
func (r *Renderer) renderError(w http.ResponseWriter, req *http.Request, dark bool, err error) {
	qErr := asQuoteError(err)
	if qErr.Code == errors.ErrInternal {
		r.logger.Error("request failed", zap.String("path", req.URL.Path), zap.Error(err))
	}

	if strings.Contains(req.Header.Get("Accept"), "application/json") {
		renderAPIError(w, qErr)
		return
	}

	r.renderPageStatus(w, qErr.Status, "error", ErrorPageData{
		PageData: PageData{
			Title:   fmt.Sprintf("Error %d", qErr.Status),
			Version: r.version,
			Dark:    dark,
		},
		StatusCode: qErr.Status,
		Message:    qErr.Message,
	})
}

// renderAPIError writes the JSON error envelope.
func renderAPIError(w http.ResponseWriter, err error) {
	qErr := asQuoteError(err)
	renderJSON(w, qErr.Status, map[string]any{
		"error": map[string]any{
			"code":    string(qErr.Code),
			"message": qErr.Message,
			"status":  qErr.Status,
		},
	})
}

// renderJSON writes a JSON response.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// renderMarkdown converts markdown text to HTML using goldmark.
// Raw HTML in the input is omitted by goldmark's default renderer.
func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

// formatTime formats a Unix timestamp as "2006-01-02 15:04" UTC.
func formatTime(unix int64) string {
	return time.Unix(unix, 0).UTC().Format("2006-01-02 15:04")
}
