package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vds/vds-go/internal/middleware"
	"github.com/vds/vds-go/internal/model"
	"github.com/vds/vds-go/internal/service"
)

// AccountHandler handles HTTP requests for accounts.
type AccountHandler struct {
	service *service.AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(svc *service.AccountService) *AccountHandler {
	return &AccountHandler{service: svc}
}

// HandleCreate handles POST /accounts requests. The email doubles as the
// credential username and the password is forwarded to the auth service.
func (h *AccountHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req model.CreateAccountRequest
	if !decodeBody(w, r, &req) {
		return
	}

	draft := model.AccountDraft{
		Email:  req.Email,
		Name:   req.Name,
		Age:    req.Age,
		Gender: model.ParseGender(req.Gender),
		Weight: req.Weight,
		Height: req.Height,
	}
	cred := model.CredentialDraft{Username: req.Email, Secret: req.Password}

	account, err := h.service.Create(r.Context(), draft, cred)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, account.ToResponse())
}

// HandleGetCurrent handles GET /accounts/current requests.
func (h *AccountHandler) HandleGetCurrent(w http.ResponseWriter, r *http.Request) {
	username, ok := middleware.UsernameFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return
	}
	h.get(w, r, username)
}

// HandleUpdateCurrent handles PUT /accounts/current requests.
func (h *AccountHandler) HandleUpdateCurrent(w http.ResponseWriter, r *http.Request) {
	username, ok := middleware.UsernameFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return
	}
	h.update(w, r, username)
}

// HandleGetCurrentCredential handles GET /accounts/current/credential requests.
func (h *AccountHandler) HandleGetCurrentCredential(w http.ResponseWriter, r *http.Request) {
	username, ok := middleware.UsernameFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return
	}

	cred, err := h.service.Credential(r.Context(), username)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, cred.ToResponse())
}

// HandleGet handles GET /accounts/{email} requests.
func (h *AccountHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	if !callerMay(r, email) {
		writeJSON(w, http.StatusForbidden, errorResponse("forbidden"))
		return
	}
	h.get(w, r, email)
}

// HandleUpdate handles PUT /accounts/{email} requests.
func (h *AccountHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	if !callerMay(r, email) {
		writeJSON(w, http.StatusForbidden, errorResponse("forbidden"))
		return
	}
	h.update(w, r, email)
}

// HandleList handles GET /accounts?name= requests.
func (h *AccountHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.ListByName(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := make([]model.AccountResponse, 0, len(accounts))
	for _, a := range accounts {
		resp = append(resp, a.ToResponse())
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *AccountHandler) get(w http.ResponseWriter, r *http.Request, key string) {
	account, err := h.service.FindByKey(r.Context(), key)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, account.ToResponse())
}

func (h *AccountHandler) update(w http.ResponseWriter, r *http.Request, key string) {
	var req model.UpdateAccountRequest
	if !decodeBody(w, r, &req) {
		return
	}

	patch := model.AccountPatch{
		Name:   req.Name,
		Age:    req.Age,
		Weight: req.Weight,
		Height: req.Height,
	}
	if req.Gender != nil {
		g := model.ParseGender(*req.Gender)
		patch.Gender = &g
	}

	account, err := h.service.Update(r.Context(), key, patch)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, account.ToResponse())
}
