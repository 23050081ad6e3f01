package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/vds/vds-go/internal/middleware"
	"github.com/vds/vds-go/internal/model"
	"github.com/vds/vds-go/internal/service"
)

// TrainingHandler handles HTTP requests for device trainings.
type TrainingHandler struct {
	trainings *service.TrainingService
	accounts  *service.AccountService
}

// NewTrainingHandler creates a new TrainingHandler.
func NewTrainingHandler(trainings *service.TrainingService, accounts *service.AccountService) *TrainingHandler {
	return &TrainingHandler{trainings: trainings, accounts: accounts}
}

// HandleCreate handles POST /accounts/{email}/trainings requests.
func (h *TrainingHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	if !callerMay(r, email) {
		writeJSON(w, http.StatusForbidden, errorResponse("forbidden"))
		return
	}

	var req model.TrainingRequest
	if !decodeBody(w, r, &req) {
		return
	}

	t, err := h.trainings.Create(r.Context(), email, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, t.ToResponse())
}

// HandleList handles GET /accounts/{email}/trainings requests.
func (h *TrainingHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	if !callerMay(r, email) {
		writeJSON(w, http.StatusForbidden, errorResponse("forbidden"))
		return
	}

	trainings, err := h.trainings.ListByAccount(r.Context(), email)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := make([]model.TrainingResponse, 0, len(trainings))
	for _, t := range trainings {
		resp = append(resp, t.ToResponse())
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleGet handles GET /trainings/{id} requests.
func (h *TrainingHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	t, ok := h.owned(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, t.ToResponse())
}

// HandleUpdate handles PUT /trainings/{id} requests.
func (h *TrainingHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	t, ok := h.owned(w, r)
	if !ok {
		return
	}

	var req model.TrainingRequest
	if !decodeBody(w, r, &req) {
		return
	}

	updated, err := h.trainings.Update(r.Context(), t.ID, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, updated.ToResponse())
}

// owned loads the training named in the path and checks that it belongs to
// the caller's account. Service callers may read any training.
func (h *TrainingHandler) owned(w http.ResponseWriter, r *http.Request) (model.Training, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid training id"))
		return model.Training{}, false
	}

	t, err := h.trainings.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return model.Training{}, false
	}

	if middleware.IsServiceCaller(r.Context()) {
		return t, true
	}

	username, ok := middleware.UsernameFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return model.Training{}, false
	}

	account, err := h.accounts.FindByKey(r.Context(), username)
	if err != nil || account.ID != t.AccountID {
		// Someone else's training looks the same as a missing one.
		writeJSON(w, http.StatusNotFound, errorResponse("training not found"))
		return model.Training{}, false
	}

	return t, true
}
