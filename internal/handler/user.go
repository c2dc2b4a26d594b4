package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/college-tracker/internal/apperror"
	"github.com/sakif/college-tracker/internal/auth"
	"github.com/sakif/college-tracker/internal/service"
)

// UserHandler serves the caller's own profile.
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// syncRequest is what the client sends after sign-in. UID and FirebaseUID
// are optional; when present they must name the authenticated subject.
type syncRequest struct {
	UID         string  `json:"uid"`
	FirebaseUID string  `json:"firebaseUid"`
	Email       *string `json:"email"`
	Name        *string `json:"name"`
}

// profileRequest is the body of PUT /api/users/{uid}. Omitted fields are
// left unchanged.
type profileRequest struct {
	Email *string `json:"email"`
	Name  *string `json:"name"`
}

// HandleSync upserts the caller's profile. It is safe to call on every
// sign-in.
//
// HTTP: POST /api/users/sync
// RESPONSE: {"success": true, "isNewUser": true, "data": {...}}
//
// An empty body is accepted: the identity alone is enough.
func (h *UserHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("authentication required"))
		return
	}

	var req syncRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, err)
			return
		}
	}
	for _, claimed := range []string{req.UID, req.FirebaseUID} {
		if claimed != "" && claimed != id.Subject {
			h.logger.Warn("sync uid does not match token subject",
				slog.String("subject", id.Subject), slog.String("claimed", claimed))
			writeError(w, apperror.Forbidden("uid does not match the authenticated user"))
			return
		}
	}

	u, created, err := h.users.Sync(r.Context(), id.Subject,
		service.ProfileFields{Email: id.Email, Name: id.Name},
		service.ProfileFields{Email: req.Email, Name: req.Name},
	)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, u, envelope{
		"isNewUser": created,
		"message":   "User synced successfully",
	})
}

// HandleGet: GET /api/users/{uid}. Another user's uid is 403.
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.Get(r.Context(), ownerID(r), chi.URLParam(r, "uid"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, u)
}

// HandleUpdate: PUT /api/users/{uid}
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	u, err := h.users.Update(r.Context(), ownerID(r), chi.URLParam(r, "uid"),
		service.ProfileFields{Email: req.Email, Name: req.Name})
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, u)
}

// HandleDelete: DELETE /api/users/{uid}. Saved records are kept.
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Delete(r.Context(), ownerID(r), chi.URLParam(r, "uid")); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, "user deleted")
}
