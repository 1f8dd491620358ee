package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hrportal/internal/auth/service"
	id "hrportal/pkg/domain"
	dErrors "hrportal/pkg/domain-errors"
	"hrportal/pkg/platform/httputil"
	"hrportal/pkg/requestcontext"
)

// Handler is the thin HTTP layer over the auth service.
type Handler struct {
	svc    *service.Service
	logger *slog.Logger
}

func New(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// RegisterPublic wires the routes that do not require a bearer token.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/auth/login", h.handleLogin)
	r.Post("/users", h.handleCreateUser)
}

// RegisterProtected wires the routes behind the auth guard.
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Get("/users/{userID}", h.handleGetUser)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

type createUserRequest struct {
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Password     string     `json:"password"`
	Role         string     `json:"role"`
	SupervisorID *id.UserID `json:"supervisor_id"`
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	role := id.RoleEmployee
	if req.Role != "" {
		parsed, err := id.ParseRole(req.Role)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		role = parsed
	}

	user, err := h.svc.CreateUser(r.Context(), service.CreateUserInput{
		Name:         req.Name,
		Email:        req.Email,
		Password:     req.Password,
		Role:         role,
		SupervisorID: req.SupervisorID,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, user)
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "user not found"))
		return
	}

	user, err := h.svc.GetUser(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

// writeError logs internal failures with full detail and returns the opaque
// envelope; coded errors pass through.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(r.Context(), "auth handler failure",
			"error", err,
			"request_id", requestcontext.RequestID(r.Context()),
			"path", r.URL.Path,
		)
	}
	httputil.WriteError(w, err)
}
