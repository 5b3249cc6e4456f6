package web

import (
	"database/sql"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/hpungsan/muse/internal/config"
	"github.com/hpungsan/muse/internal/errors"
	"github.com/hpungsan/muse/internal/generate"
	"github.com/hpungsan/muse/internal/ops"
	"github.com/hpungsan/muse/internal/quote"
	"github.com/hpungsan/muse/internal/view"
)

// themeCookie stores the light/dark preference.
const themeCookie = "muse_theme"

// notices maps the notice query value to the message shown on the page.
var notices = map[string]string{
	"saved":   "Quote saved!",
	"added":   "Quote added.",
	"updated": "Quote updated.",
	"deleted": "Quote deleted.",
}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	db       *sql.DB
	cfg      *config.Config
	quotes   *generate.Service
	logger   *zap.Logger
	renderer *Renderer
}

// HandleHome handles GET /: the quote page.
// A "shown" query value is displayed verbatim; it carries the quote already on
// screen across form redirects. A "text" value is raw model output and is
// normalized before display. With neither, a new quote is generated.
// "edit" opens the inline editor for a saved quote.
func (h *Handlers) HandleHome(w http.ResponseWriter, r *http.Request) {
	dark := isDark(r)
	q := r.URL.Query()

	category, err := ops.ResolveCategory(q.Get("category"), h.cfg.DefaultCategory)
	if err != nil {
		h.renderer.renderError(w, r, dark, err)
		return
	}

	data := HomePageData{
		PageData: PageData{
			Title:   "muse",
			Version: h.renderer.version,
			Dark:    dark,
		},
		Categories: quote.Categories,
		Category:   category,
		Notice:     notices[q.Get("notice")],
	}

	if shown := q.Get("shown"); shown != "" {
		data.Quote = shown
	} else if text := quote.Normalize(strings.TrimSpace(q.Get("text"))); text != "" {
		data.Quote = text
	} else {
		out, err := ops.Generate(r.Context(), h.quotes, h.cfg, ops.GenerateInput{Category: category})
		if err != nil {
			h.logger.Warn("quote generation failed", zap.String("category", category), zap.Error(err))
			data.QuoteError = view.LoadFailedText
		} else {
			data.Quote = out.Quote
			data.Model = out.Model
		}
	}
	data.ReturnTo = homeURL(category, data.Quote, "")

	list, err := ops.List(r.Context(), h.db, ops.ListInput{
		Limit:  parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset: parseIntParam(r, "offset", 0),
	})
	if err != nil {
		h.renderer.renderError(w, r, dark, err)
		return
	}
	editID := q.Get("edit")
	data.Saved = make([]SavedItem, len(list.Items))
	for i, item := range list.Items {
		data.Saved[i] = SavedItem{
			Summary:      item,
			RenderedHTML: renderMarkdown(item.Text),
			Editing:      item.ID == editID,
		}
	}
	data.Pagination = list.Pagination

	h.renderer.renderPage(w, "home", data)
}

// HandleUISave handles POST /ui/save by saving the displayed generated quote.
func (h *Handlers) HandleUISave(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	text := r.FormValue("text")
	category := r.FormValue("category")

	if _, err := ops.Save(r.Context(), h.db, h.cfg, ops.SaveInput{
		Text:        text,
		Category:    category,
		AIGenerated: true,
	}); err != nil {
		h.renderer.renderError(w, r, isDark(r), err)
		return
	}
	redirectBack(w, r, "saved")
}

// HandleUIAdd handles POST /ui/quotes by adding a custom quote.
func (h *Handlers) HandleUIAdd(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	if _, err := ops.Save(r.Context(), h.db, h.cfg, ops.SaveInput{
		Text:     r.FormValue("text"),
		Category: r.FormValue("category"),
		Author:   r.FormValue("author"),
	}); err != nil {
		h.renderer.renderError(w, r, isDark(r), err)
		return
	}
	redirectBack(w, r, "added")
}

// HandleUIEdit handles POST /ui/quotes/{id} by applying an inline edit.
func (h *Handlers) HandleUIEdit(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	input := ops.UpdateInput{ID: r.PathValue("id")}
	if _, ok := r.PostForm["text"]; ok {
		input.Text = ptrString(r.PostForm.Get("text"))
	}
	if _, ok := r.PostForm["category"]; ok {
		input.Category = ptrString(r.PostForm.Get("category"))
	}
	if _, ok := r.PostForm["author"]; ok {
		input.Author = ptrString(r.PostForm.Get("author"))
	}

	if _, err := ops.Update(r.Context(), h.db, h.cfg, input); err != nil {
		h.renderer.renderError(w, r, isDark(r), err)
		return
	}
	redirectBack(w, r, "updated")
}

// HandleUIDelete handles POST /ui/quotes/{id}/delete.
func (h *Handlers) HandleUIDelete(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	if _, err := ops.Delete(r.Context(), h.db, ops.DeleteInput{ID: r.PathValue("id")}); err != nil {
		h.renderer.renderError(w, r, isDark(r), err)
		return
	}
	redirectBack(w, r, "deleted")
}

// HandleUITheme handles POST /ui/theme by flipping the light/dark preference.
func (h *Handlers) HandleUITheme(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	theme := "dark"
	if isDark(r) {
		theme = "light"
	}
	http.SetCookie(w, &http.Cookie{
		Name:     themeCookie,
		Value:    theme,
		Path:     "/",
		MaxAge:   365 * 24 * 60 * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	redirectBack(w, r, "")
}

func (h *Handlers) parseForm(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, isDark(r), errors.NewInvalidRequest("invalid form data"))
		return false
	}
	return true
}

// isDark reports whether the request carries the dark theme preference.
func isDark(r *http.Request) bool {
	c, err := r.Cookie(themeCookie)
	return err == nil && c.Value == "dark"
}

// homeURL builds a link back to the quote page showing the display text
// shown in category.
func homeURL(category, shown, notice string) string {
	v := url.Values{}
	if category != "" {
		v.Set("category", category)
	}
	if shown != "" {
		v.Set("shown", shown)
	}
	if notice != "" {
		v.Set("notice", notice)
	}
	if len(v) == 0 {
		return "/"
	}
	return "/?" + v.Encode()
}

// redirectBack sends the browser to the form's return_to page with notice
// attached. Only local paths are honored.
func redirectBack(w http.ResponseWriter, r *http.Request, notice string) {
	target := "/"
	if rt := r.FormValue("return_to"); strings.HasPrefix(rt, "/") && !strings.HasPrefix(rt, "//") && !strings.Contains(rt, `\`) {
		target = rt
	}
	if notice != "" {
		if u, err := url.Parse(target); err == nil {
			q := u.Query()
			q.Set("notice", notice)
			q.Del("edit")
			u.RawQuery = q.Encode()
			target = u.String()
		}
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// parseBoolParam parses a boolean query parameter.
func parseBoolParam(r *http.Request, name string) bool {
	s := r.URL.Query().Get(name)
	return s == "true" || s == "1"
}

// ptrString returns a pointer to s.
func ptrString(s string) *string {
	return &s
}
