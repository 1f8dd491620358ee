package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hrportal/internal/contacts/service"
	"hrportal/internal/ownership"
	id "hrportal/pkg/domain"
	dErrors "hrportal/pkg/domain-errors"
	"hrportal/pkg/platform/httputil"
	"hrportal/pkg/requestcontext"
)

// Handler exposes emergency contacts as a nested sub-resource of the owner.
type Handler struct {
	svc    *service.Service
	logger *slog.Logger
}

func New(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// RegisterProtected wires the contact routes behind the auth guard.
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Route("/users/{userID}/emergency-contacts", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Get("/", h.handleList)
		r.Get("/{contactID}", h.handleGet)
		r.Put("/{contactID}", h.handleUpdate)
		r.Delete("/{contactID}", h.handleDelete)
	})
}

// contactPayload is the create/update body. UserID is the declared owner;
// when present it must match the path user before anything persists.
type contactPayload struct {
	UserID       *id.UserID `json:"user_id"`
	Name         string     `json:"name"`
	Relationship string     `json:"relationship"`
	Phone        string     `json:"phone"`
	Email        string     `json:"email"`
}

type declaredOwner struct{ owner id.UserID }

func (d declaredOwner) OwnerRef() id.UserID { return d.owner }

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.pathUser(w, r)
	if !ok {
		return
	}
	req, ok := h.decodePayload(w, r, owner)
	if !ok {
		return
	}

	created, err := h.svc.Create(r.Context(), owner, service.ContactInput{
		Name: req.Name, Relationship: req.Relationship, Phone: req.Phone, Email: req.Email,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.pathUser(w, r)
	if !ok {
		return
	}

	contacts, err := h.svc.List(r.Context(), owner)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, contacts)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	owner, contactID, ok := h.pathContact(w, r)
	if !ok {
		return
	}

	contact, err := h.svc.Get(r.Context(), owner, contactID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, contact)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	owner, contactID, ok := h.pathContact(w, r)
	if !ok {
		return
	}
	req, ok := h.decodePayload(w, r, owner)
	if !ok {
		return
	}

	updated, err := h.svc.Update(r.Context(), owner, contactID, service.ContactInput{
		Name: req.Name, Relationship: req.Relationship, Phone: req.Phone, Email: req.Email,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	owner, contactID, ok := h.pathContact(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), owner, contactID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decodePayload(w http.ResponseWriter, r *http.Request, owner id.UserID) (contactPayload, bool) {
	var req contactPayload
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return contactPayload{}, false
	}
	if req.UserID != nil {
		if err := ownership.RequireDeclaredOwner(owner, declaredOwner{*req.UserID}); err != nil {
			httputil.WriteError(w, err)
			return contactPayload{}, false
		}
	}
	return req, true
}

// pathUser parses {userID} and enforces the owner boundary: contacts are
// visible to the user themselves, HR and admins.
func (h *Handler) pathUser(w http.ResponseWriter, r *http.Request) (id.UserID, bool) {
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
	if ident.SubjectID != pathUser && ident.Role != id.RoleHR && ident.Role != id.RoleAdmin {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "user not found"))
		return id.UserID{}, false
	}
	return pathUser, true
}

func (h *Handler) pathContact(w http.ResponseWriter, r *http.Request) (id.UserID, id.ContactID, bool) {
	owner, ok := h.pathUser(w, r)
	if !ok {
		return id.UserID{}, id.ContactID{}, false
	}
	contactID, err := id.ParseContactID(chi.URLParam(r, "contactID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "contact not found"))
		return id.UserID{}, id.ContactID{}, false
	}
	return owner, contactID, true
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(r.Context(), "contacts handler failure",
			"error", err,
			"request_id", requestcontext.RequestID(r.Context()),
			"path", r.URL.Path,
		)
	}
	httputil.WriteError(w, err)
}
