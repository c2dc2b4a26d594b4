package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/college-tracker/internal/model"
	"github.com/sakif/college-tracker/internal/service"
)

// CollegeHandler serves the shared catalog. Reads are public; the
// mutation routes are mounted behind the admin guard.
type CollegeHandler struct {
	colleges *service.CollegeService
	logger   *slog.Logger
}

func NewCollegeHandler(colleges *service.CollegeService, logger *slog.Logger) *CollegeHandler {
	return &CollegeHandler{colleges: colleges, logger: logger}
}

// HandleBrowse lists the catalog.
//
// HTTP: GET /api/colleges?q=&letter=&limit=
// RESPONSE: {"success": true, "data": [...], "total": 42}
//
// Without q or letter it returns the first colleges by name (200 unless
// limit says otherwise, never more than 500).
func (h *CollegeHandler) HandleBrowse(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.colleges.Browse(r.Context(), q.Get("q"), q.Get("letter"), queryInt(r, "limit"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, page.Colleges, envelope{"total": page.Total})
}

// HandleSearch: GET /api/colleges/search?q=&letter=&limit=
// Same shape as browse, but an empty query yields an empty list.
func (h *CollegeHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.colleges.Search(r.Context(), q.Get("q"), q.Get("letter"), queryInt(r, "limit"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, page.Colleges, envelope{"total": page.Total})
}

// HandleSuggest: GET /api/colleges/suggestions?q=
func (h *CollegeHandler) HandleSuggest(w http.ResponseWriter, r *http.Request) {
	suggestions, err := h.colleges.Suggest(r.Context(), r.URL.Query().Get("q"), queryInt(r, "limit"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, suggestions)
}

func (h *CollegeHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	c, err := h.colleges.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, c)
}

// HandleCreate: POST /api/colleges with the upper-case catalog attributes,
// e.g. {"INSTNM": "Reed College", "CITY": "Portland", "STABBR": "OR"}.
func (h *CollegeHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var c model.College
	if err := decodeJSON(w, r, &c); err != nil {
		writeError(w, err)
		return
	}
	created, err := h.colleges.Create(r.Context(), &c)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, created)
}

// HandleUpdate replaces the whole catalog entry.
func (h *CollegeHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var c model.College
	if err := decodeJSON(w, r, &c); err != nil {
		writeError(w, err)
		return
	}
	updated, err := h.colleges.Update(r.Context(), chi.URLParam(r, "id"), &c)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, updated)
}

func (h *CollegeHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.colleges.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, "college deleted")
}
