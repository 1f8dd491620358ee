// Package handler exposes the absence workflow over HTTP. Requests live at
// two surfaces: an owner-scoped collection nested under the employee
// (/users/{userID}/absence-requests) and a flat reviewer surface
// (/absence-requests) where approval decisions are posted.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"hrportal/internal/absence/models"
	"hrportal/internal/absence/service"
	"hrportal/internal/ownership"
	id "hrportal/pkg/domain"
	dErrors "hrportal/pkg/domain-errors"
	"hrportal/pkg/platform/httputil"
	"hrportal/pkg/requestcontext"
)

// Handler is the thin HTTP layer over the workflow service.
type Handler struct {
	svc    *service.Service
	logger *slog.Logger
}

func New(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// RegisterProtected wires all absence routes behind the auth guard.
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Route("/users/{userID}/absence-requests", func(r chi.Router) {
		r.Post("/", h.handleSubmit)
		r.Get("/", h.handleListForUser)
		r.Get("/{requestID}", h.handleGetForUser)
		r.Put("/{requestID}", h.handleEdit)
		r.Delete("/{requestID}", h.handleCancelNested)
	})

	r.Route("/absence-requests", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Get("/{requestID}", h.handleGet)
		r.Post("/{requestID}/decisions", h.handleDecide)
		r.Post("/{requestID}/cancel", h.handleCancel)
		r.Post("/{requestID}/archive", h.handleArchive)
		r.Get("/{requestID}/approval-history", h.handleHistory)
	})
}

// absenceRequestPayload is the create/update body. EmployeeID is the declared
// owner; when present it must match the path user before anything persists.
type absenceRequestPayload struct {
	EmployeeID  *id.UserID `json:"employee_id"`
	RequestType string     `json:"request_type"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     time.Time  `json:"end_date"`
	TotalDays   float64    `json:"total_days"`
	Reason      string     `json:"reason"`
}

type declaredOwner struct{ owner id.UserID }

func (d declaredOwner) OwnerRef() id.UserID { return d.owner }

var errRequestNotFound = dErrors.New(dErrors.CodeNotFound, "absence request not found")

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	pathUser, ok := h.pathUser(w, r)
	if !ok {
		return
	}

	var req absenceRequestPayload
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if req.EmployeeID != nil {
		if err := ownership.RequireDeclaredOwner(pathUser, declaredOwner{*req.EmployeeID}); err != nil {
			httputil.WriteError(w, err)
			return
		}
	}

	created, err := h.svc.Submit(r.Context(), service.SubmitInput{
		EmployeeID:  pathUser,
		RequestType: req.RequestType,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		TotalDays:   req.TotalDays,
		Reason:      req.Reason,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleListForUser(w http.ResponseWriter, r *http.Request) {
	pathUser, ok := h.pathUser(w, r)
	if !ok {
		return
	}

	requests, err := h.svc.ListByEmployee(r.Context(), pathUser)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if requests == nil {
		requests = []*models.AbsenceRequest{}
	}
	httputil.WriteJSON(w, http.StatusOK, requests)
}

func (h *Handler) handleGetForUser(w http.ResponseWriter, r *http.Request) {
	request, ok := h.nestedRequest(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, request)
}

func (h *Handler) handleEdit(w http.ResponseWriter, r *http.Request) {
	request, ok := h.nestedRequest(w, r)
	if !ok {
		return
	}

	var req absenceRequestPayload
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if req.EmployeeID != nil {
		if err := ownership.RequireDeclaredOwner(request.EmployeeID, declaredOwner{*req.EmployeeID}); err != nil {
			httputil.WriteError(w, err)
			return
		}
	}

	updated, err := h.svc.Edit(r.Context(), request.ID, service.EditInput{
		RequestType: req.RequestType,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		TotalDays:   req.TotalDays,
		Reason:      req.Reason,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

// handleCancelNested is DELETE on the owner-scoped route. Requests are never
// physically deleted; a delete withdraws a pending request.
func (h *Handler) handleCancelNested(w http.ResponseWriter, r *http.Request) {
	request, ok := h.nestedRequest(w, r)
	if !ok {
		return
	}

	if _, err := h.svc.Cancel(r.Context(), request.ID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ident, ok := requestcontext.Identity(r.Context())
	if !ok || ident.Role == id.RoleEmployee {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "insufficient role"))
		return
	}

	requests, err := h.svc.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if requests == nil {
		requests = []*models.AbsenceRequest{}
	}
	httputil.WriteJSON(w, http.StatusOK, requests)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	request, ok := h.visibleRequest(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, request)
}

type decisionRequest struct {
	Action   string `json:"action"`
	Comments string `json:"comments"`
}

func (h *Handler) handleDecide(w http.ResponseWriter, r *http.Request) {
	requestID, err := id.ParseRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		httputil.WriteError(w, errRequestNotFound)
		return
	}

	var req decisionRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	action, err := models.ParseAction(req.Action)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	updated, err := h.svc.Decide(r.Context(), requestID, action, req.Comments)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	requestID, err := id.ParseRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		httputil.WriteError(w, errRequestNotFound)
		return
	}

	updated, err := h.svc.Cancel(r.Context(), requestID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleArchive(w http.ResponseWriter, r *http.Request) {
	requestID, err := id.ParseRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		httputil.WriteError(w, errRequestNotFound)
		return
	}

	updated, err := h.svc.Archive(r.Context(), requestID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	request, ok := h.visibleRequest(w, r)
	if !ok {
		return
	}

	entries, err := h.svc.History(r.Context(), request.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entries)
}

// pathUser parses {userID} and enforces the owner boundary: the path user
// themselves or a reviewer role may enter, anyone else sees nothing here.
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
	if ident.SubjectID != pathUser && ident.Role == id.RoleEmployee {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "user not found"))
		return id.UserID{}, false
	}
	return pathUser, true
}

// nestedRequest resolves {userID}/{requestID} on the owner-scoped routes. A
// request stored under a different owner is reported as absent, never as
// forbidden.
func (h *Handler) nestedRequest(w http.ResponseWriter, r *http.Request) (*models.AbsenceRequest, bool) {
	pathUser, ok := h.pathUser(w, r)
	if !ok {
		return nil, false
	}
	requestID, err := id.ParseRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		httputil.WriteError(w, errRequestNotFound)
		return nil, false
	}

	request, err := h.svc.Get(r.Context(), requestID)
	if err != nil {
		h.writeError(w, r, err)
		return nil, false
	}
	if err := ownership.RequireStoredOwner(pathUser, request.EmployeeID); err != nil {
		httputil.WriteError(w, err)
		return nil, false
	}
	return request, true
}

// visibleRequest resolves {requestID} on the flat surface: visible to the
// owning employee and to reviewer roles, absent for everyone else.
func (h *Handler) visibleRequest(w http.ResponseWriter, r *http.Request) (*models.AbsenceRequest, bool) {
	requestID, err := id.ParseRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		httputil.WriteError(w, errRequestNotFound)
		return nil, false
	}

	request, err := h.svc.Get(r.Context(), requestID)
	if err != nil {
		h.writeError(w, r, err)
		return nil, false
	}

	ident, ok := requestcontext.Identity(r.Context())
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return nil, false
	}
	if ident.Role == id.RoleEmployee && request.EmployeeID != ident.SubjectID {
		httputil.WriteError(w, errRequestNotFound)
		return nil, false
	}
	return request, true
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(r.Context(), "absence handler failure",
			"error", err,
			"request_id", requestcontext.RequestID(r.Context()),
			"path", r.URL.Path,
		)
	}
	httputil.WriteError(w, err)
}
