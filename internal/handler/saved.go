package handler

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/college-tracker/internal/apperror"
	"github.com/sakif/college-tracker/internal/auth"
	"github.com/sakif/college-tracker/internal/normalize"
	"github.com/sakif/college-tracker/internal/service"
)

// SavedHandler serves the caller's saved colleges. Every route sits behind
// auth.RequireAuth, and the owner always comes from the verified identity,
// never from the body or the URL.
type SavedHandler struct {
	saved  *service.SavedService
	logger *slog.Logger
}

func NewSavedHandler(saved *service.SavedService, logger *slog.Logger) *SavedHandler {
	return &SavedHandler{saved: saved, logger: logger}
}

// HandleList returns the caller's records with their derived progress.
//
// HTTP: GET /api/saved
func (h *SavedHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	views, err := h.saved.List(r.Context(), ownerID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, views)
}

// HandleCreate saves a college for the caller.
//
// HTTP: POST /api/saved
// REQUEST BODY: any of the accepted shapes, e.g.
//
//	{"name": "MIT", "deadline": "2026-01-01", "applicationStatus": "In Progress"}
//	{"INSTNM": "MIT", "CITY": "Cambridge", "STABBR": "MA"}
//
// 409 when the caller already saved a college with the same name.
func (h *SavedHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var p normalize.Payload
	if err := decodeJSON(w, r, &p); err != nil {
		writeError(w, err)
		return
	}
	view, err := h.saved.Create(r.Context(), ownerID(r), p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, view, envelope{"message": "Record saved successfully"})
}

// HandleGet: GET /api/saved/{id}. 404 for records the caller does not own.
func (h *SavedHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	view, err := h.saved.Get(r.Context(), ownerID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, view)
}

// HandleUpdate applies a partial update: only keys present in the body
// change.
//
// HTTP: PUT /api/saved/{id}
func (h *SavedHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var p normalize.Payload
	if err := decodeJSON(w, r, &p); err != nil {
		writeError(w, err)
		return
	}
	view, err := h.saved.Update(r.Context(), ownerID(r), chi.URLParam(r, "id"), p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, view)
}

// HandleDelete: DELETE /api/saved/{id}
func (h *SavedHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.saved.Delete(r.Context(), ownerID(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, "saved college removed")
}

// HandleCheck tells the client whether the caller already saved name, so
// the "Save" button can render as "Saved".
//
// HTTP: GET /api/saved/check/{name}
// RESPONSE: {"success": true, "saved": true}
//
// chi routes on r.URL.RawPath whenever the client escaped more than Go
// would (encodeURIComponent turns "&" into "%26" and "/" into "%2F"), and
// then the parameter is still escaped.
func (h *SavedHandler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	name, err := pathParam(r, "name")
	if err != nil {
		writeError(w, err)
		return
	}
	saved, err := h.saved.IsSaved(r.Context(), ownerID(r), name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "saved": saved})
}

// pathParam returns the decoded URL parameter key.
func pathParam(r *http.Request, key string) (string, error) {
	raw := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return raw, nil
	}
	v, err := url.PathUnescape(raw)
	if err != nil {
		return "", apperror.ValidationFailed(key, "invalid "+key+" in path")
	}
	return v, nil
}

// ownerID is empty when RequireAuth did not run; the services turn that
// into 401.
func ownerID(r *http.Request) string {
	uid, _ := auth.UserIDFromContext(r.Context())
	return uid
}
