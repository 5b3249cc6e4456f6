package web

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/hpungsan/muse/internal/errors"
	"github.com/hpungsan/muse/internal/ops"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// CreateQuoteRequest is the body of POST /quotes.
type CreateQuoteRequest struct {
	Text          string `json:"text"`
	Category      string `json:"category"`
	Author        string `json:"author"`
	IsAIGenerated bool   `json:"is_ai_generated"`
}

// UpdateQuoteRequest is the body of PUT /quotes/{id}. Absent fields are left unchanged.
type UpdateQuoteRequest struct {
	Text     *string `json:"text"`
	Category *string `json:"category"`
	Author   *string `json:"author"`
}

// HandleAPIRoot handles GET /api.
func (h *Handlers) HandleAPIRoot(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusOK, map[string]string{
		"message": "AI Quote Generator API is running!",
	})
}

// HandleHealth handles GET /health and reports generator readiness.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	st := h.quotes.Status()
	status := "healthy"
	if !st.Ready {
		status = "error"
	}
	renderJSON(w, http.StatusOK, map[string]any{
		"status":      status,
		"model_ready": st.Ready,
		"model_name":  st.Model,
	})
}

// HandleQuote handles GET /quote?category= and returns a freshly generated quote.
func (h *Handlers) HandleQuote(w http.ResponseWriter, r *http.Request) {
	out, err := ops.Generate(r.Context(), h.quotes, h.cfg, ops.GenerateInput{
		Category: r.URL.Query().Get("category"),
	})
	if err != nil {
		renderAPIError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, map[string]string{
		"quote":    out.Quote,
		"category": out.Category,
		"model":    out.Model,
	})
}

// HandleListQuotes handles GET /quotes. The body is a bare array of saved
// quotes, newest first; the total is reported in X-Total-Count.
func (h *Handlers) HandleListQuotes(w http.ResponseWriter, r *http.Request) {
	out, err := ops.List(r.Context(), h.db, ops.ListInput{
		Category:       r.URL.Query().Get("category"),
		Limit:          parseIntParam(r, "limit", ops.MaxListLimit),
		Offset:         parseIntParam(r, "offset", 0),
		IncludeDeleted: parseBoolParam(r, "include_deleted"),
	})
	if err != nil {
		renderAPIError(w, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(out.Pagination.Total))
	renderJSON(w, http.StatusOK, out.Items)
}

// HandleGetQuote handles GET /quotes/{id}.
func (h *Handlers) HandleGetQuote(w http.ResponseWriter, r *http.Request) {
	q, err := ops.Fetch(r.Context(), h.db, ops.FetchInput{
		ID:             r.PathValue("id"),
		IncludeDeleted: parseBoolParam(r, "include_deleted"),
	})
	if err != nil {
		renderAPIError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, q.ToSummary())
}

// HandleCreateQuote handles POST /quotes.
func (h *Handlers) HandleCreateQuote(w http.ResponseWriter, r *http.Request) {
	var req CreateQuoteRequest
	if err := decodeBody(w, r, &req); err != nil {
		renderAPIError(w, err)
		return
	}

	out, err := ops.Save(r.Context(), h.db, h.cfg, ops.SaveInput{
		Text:        req.Text,
		Category:    req.Category,
		Author:      req.Author,
		AIGenerated: req.IsAIGenerated,
	})
	if err != nil {
		renderAPIError(w, err)
		return
	}
	renderJSON(w, http.StatusCreated, out.Quote.ToSummary())
}

// HandleUpdateQuote handles PUT /quotes/{id}.
func (h *Handlers) HandleUpdateQuote(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuoteRequest
	if err := decodeBody(w, r, &req); err != nil {
		renderAPIError(w, err)
		return
	}

	out, err := ops.Update(r.Context(), h.db, h.cfg, ops.UpdateInput{
		ID:       r.PathValue("id"),
		Text:     req.Text,
		Category: req.Category,
		Author:   req.Author,
	})
	if err != nil {
		renderAPIError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, out.Quote.ToSummary())
}

// HandleDeleteQuote handles DELETE /quotes/{id}.
func (h *Handlers) HandleDeleteQuote(w http.ResponseWriter, r *http.Request) {
	out, err := ops.Delete(r.Context(), h.db, ops.DeleteInput{ID: r.PathValue("id")})
	if err != nil {
		renderAPIError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// decodeBody reads a single JSON object from the request body into dst.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if err == io.EOF {
			return errors.NewInvalidRequest("request body is required")
		}
		return errors.NewInvalidRequest("invalid JSON body: " + err.Error())
	}
	return nil
}
