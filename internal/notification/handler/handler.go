package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hrportal/internal/notification/models"
	"hrportal/internal/notification/service"
	id "hrportal/pkg/domain"
	dErrors "hrportal/pkg/domain-errors"
	"hrportal/pkg/platform/httputil"
	"hrportal/pkg/requestcontext"
)

// Handler exposes the per-user notification inbox. Notifications are strictly
// personal: only the owner (or an admin) can list or acknowledge them.
type Handler struct {
	svc    *service.Service
	logger *slog.Logger
}

func New(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// RegisterProtected wires the notification routes behind the auth guard.
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Route("/users/{userID}/notifications", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/{notificationID}/read", h.handleMarkRead)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	notifications, err := h.svc.List(r.Context(), owner)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if notifications == nil {
		notifications = []*models.Notification{}
	}
	httputil.WriteJSON(w, http.StatusOK, notifications)
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	notifID, err := id.ParseNotificationID(chi.URLParam(r, "notificationID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "notification not found"))
		return
	}

	updated, err := h.svc.MarkRead(r.Context(), owner, notifID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

// owner parses {userID} and refuses access to anyone but the user themselves
// or an admin. Foreign inboxes read as missing users.
func (h *Handler) owner(w http.ResponseWriter, r *http.Request) (id.UserID, bool) {
	pathUser, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "user not found"))
		return id.UserID{}, false
	}

	ident, ok := requestcontext.Identity(r.Context())
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return id.UserID{}, false
	}
	if ident.SubjectID != pathUser && ident.Role != id.RoleAdmin {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "user not found"))
		return id.UserID{}, false
	}
	return pathUser, true
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(r.Context(), "notification handler failure",
			"error", err,
			"request_id", requestcontext.RequestID(r.Context()),
			"path", r.URL.Path,
		)
	}
	httputil.WriteError(w, err)
}
