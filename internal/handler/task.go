package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"taskpulse/internal/auth"
	"taskpulse/internal/model"
	"taskpulse/internal/repo"
	"taskpulse/internal/service"
	"taskpulse/pkg/respond"
)

type TaskHandler struct {
	service *service.TaskService
	logger  *zap.Logger
}

func NewTaskHandler(srv *service.TaskService, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		service: srv,
		logger:  logger,
	}
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())

	if r.ContentLength == 0 {
		respond.Error(w, r, http.StatusBadRequest, "empty request body")
		return
	}

	var req model.CreateTaskData
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode json", zap.Error(err))
		respond.Error(w, r, http.StatusBadRequest, fmt.Sprintf("invalid json: %v", err))
		return
	}

	idempKey := r.Header.Get("Idempotency-Key")
	task, err := h.service.Create(r.Context(), user.ID, req, idempKey)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/tasks/%s", task.ID))
	respond.JSON(w, r, http.StatusCreated, task)
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())

	tasks, err := h.service.List(r.Context(), user.ID)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, tasks)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())
	id := chi.URLParam(r, "id")

	var req model.TaskUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	task, err := h.service.Update(r.Context(), user.ID, id, req)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, task)
}

func (h *TaskHandler) SetCompleted(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())
	id := chi.URLParam(r, "id")

	var req struct {
		Completed *bool `json:"completed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Completed == nil {
		respond.Error(w, r, http.StatusBadRequest, "completed flag required")
		return
	}

	task, err := h.service.SetCompleted(r.Context(), user.ID, id, *req.Completed)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), user.ID, id); err != nil {
		h.handleErrors(w, r, err)
		return
	}

	respond.NoContent(w)
}

// Message отдает сообщение-поддержку. Сбои генерации сюда не доходят -
// governor всегда возвращает fallback.
func (h *TaskHandler) Message(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())
	id := chi.URLParam(r, "id")

	msg, err := h.service.Message(r.Context(), user.ID, id)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, msg)
}

func (h *TaskHandler) Stats(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())

	stats, err := h.service.Stats(r.Context(), user.ID)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, stats)
}

func (h *TaskHandler) handleErrors(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repo.ErrorNotFound):
		respond.Error(w, r, http.StatusNotFound, "not found")
	case errors.Is(err, repo.ErrorConflict):
		respond.Error(w, r, http.StatusConflict, "conflict")
	case errors.Is(err, service.ErrValidation):
		respond.Error(w, r, http.StatusBadRequest, "validation error")
	case errors.Is(err, service.ErrForbidden):
		respond.Error(w, r, http.StatusForbidden, "forbidden")
	case errors.Is(err, auth.ErrUnauthenticated):
		respond.Error(w, r, http.StatusUnauthorized, "unauthenticated")
	default:
		h.logger.Error("internal error", zap.Error(err))
		respond.Error(w, r, http.StatusInternalServerError, "internal error")
	}
}
