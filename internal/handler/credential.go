package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vds/vds-go/internal/logging"
	"github.com/vds/vds-go/internal/middleware"
	"github.com/vds/vds-go/internal/model"
	"github.com/vds/vds-go/internal/service"
)

// CredentialHandler handles the auth service's HTTP requests.
type CredentialHandler struct {
	service *service.CredentialService
}

// NewCredentialHandler creates a new CredentialHandler.
func NewCredentialHandler(svc *service.CredentialService) *CredentialHandler {
	return &CredentialHandler{service: svc}
}

// HandleCreate handles POST /users requests.
func (h *CredentialHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req model.CreateCredentialRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := h.service.Create(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUsernameRequired), errors.Is(err, service.ErrPasswordLength):
			writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
		case errors.Is(err, service.ErrUsernameTaken):
			writeJSON(w, http.StatusConflict, errorResponse(err.Error()))
		default:
			logging.FromContext(r.Context()).Error("create credential", "error", err)
			writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		}
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// HandleLogin handles POST /token requests.
func (h *CredentialHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := h.service.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			writeJSON(w, http.StatusUnauthorized, errorResponse(err.Error()))
			return
		}
		logging.FromContext(r.Context()).Error("login", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleCurrent handles GET /users/current requests.
func (h *CredentialHandler) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	username, ok := middleware.UsernameFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return
	}
	h.get(w, r, username)
}

// HandleGet handles GET /users/{username} requests.
func (h *CredentialHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if !callerMay(r, username) {
		writeJSON(w, http.StatusForbidden, errorResponse("forbidden"))
		return
	}
	h.get(w, r, username)
}

func (h *CredentialHandler) get(w http.ResponseWriter, r *http.Request, username string) {
	resp, err := h.service.Get(r.Context(), username)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
