package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/annaveselova/translation-service/internal/domain"
	errpkg "github.com/annaveselova/translation-service/internal/errors"
)

// TaskServiceI defines the task-engine operations the handlers depend on.
type TaskServiceI interface {
	Submit(req *domain.SubmitRequest) (*domain.Task, error)
	GetStatus(id string) (domain.TaskView, error)
	List(offset, limit int, status domain.TaskStatus) domain.TaskListView
	Retry(id string) bool
	Cancel(id string) bool
	Delete(id string) bool
	Stats() domain.Stats
}

// TaskHandler handles HTTP requests for translation tasks.
type TaskHandler struct {
	taskService TaskServiceI
	validator   *validator.Validate
	logger      *slog.Logger
}

// NewTaskHandler creates a new TaskHandler with the provided service and logger.
func NewTaskHandler(taskService TaskServiceI, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		validator:   validator.New(),
		logger:      logger,
	}
}

// SubmitTask handles POST /api/translate/background. It returns as soon as the
// task is queued; translation happens in the background.
func (h *TaskHandler) SubmitTask(w http.ResponseWriter, r *http.Request) {
	var req domain.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", "error", err)
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "request body must be JSON")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("validation failed", "error", err)
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	task, err := h.taskService.Submit(&req)
	if err != nil {
		switch {
		case errors.Is(err, errpkg.ErrEmptyContent):
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "either content or chunks is required")
		case errors.Is(err, errpkg.ErrShuttingDown):
			writeError(w, http.StatusServiceUnavailable, "SHUTTING_DOWN", "service is shutting down")
		default:
			h.logger.Error("failed to submit task", "error", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return
	}

	writeSuccess(w, http.StatusCreated, domain.SubmitResponse{
		TaskID:    task.ID,
		Status:    task.Status,
		CreatedAt: task.CreatedAt,
	})
}

// ListTasks handles GET /api/tasks with offset/limit/status query parameters.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	offset := queryInt(r, "offset", 0)
	limit := queryInt(r, "limit", 20)

	status := domain.TaskStatus(r.URL.Query().Get("status"))
	if status != "" && !status.IsValid() {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "unknown status filter")
		return
	}

	writeSuccess(w, http.StatusOK, h.taskService.List(offset, limit, status))
}

// GetTask handles GET /api/tasks/{taskID}, returning the detailed view
// including the result text once completed.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")

	view, err := h.taskService.GetStatus(taskID)
	if err != nil {
		if errors.Is(err, errpkg.ErrTaskNotFound) {
			writeError(w, http.StatusNotFound, "TASK_NOT_FOUND", "task not found")
			return
		}
		h.logger.Error("failed to get task", "task_id", taskID, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}

	writeSuccess(w, http.StatusOK, view)
}

// DeleteTask handles DELETE /api/tasks/{taskID}. Active tasks cannot be
// deleted.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")

	if h.taskService.Delete(taskID) {
		writeSuccess(w, http.StatusOK, map[string]any{"task_id": taskID, "deleted": true})
		return
	}

	if _, err := h.taskService.GetStatus(taskID); errors.Is(err, errpkg.ErrTaskNotFound) {
		writeError(w, http.StatusNotFound, "TASK_NOT_FOUND", "task not found")
		return
	}
	writeError(w, http.StatusConflict, "TASK_ACTIVE", "task is being processed and cannot be deleted")
}

// RetryTask handles POST /api/tasks/{taskID}/retry for failed tasks.
func (h *TaskHandler) RetryTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")

	if h.taskService.Retry(taskID) {
		writeSuccess(w, http.StatusOK, map[string]any{"task_id": taskID, "status": domain.TaskStatusPending})
		return
	}

	if _, err := h.taskService.GetStatus(taskID); errors.Is(err, errpkg.ErrTaskNotFound) {
		writeError(w, http.StatusNotFound, "TASK_NOT_FOUND", "task not found")
		return
	}
	writeError(w, http.StatusConflict, "NOT_RETRYABLE", "only failed tasks can be retried")
}

// CancelTask handles POST /api/tasks/{taskID}/cancel for tasks still waiting
// in the queue.
func (h *TaskHandler) CancelTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")

	if h.taskService.Cancel(taskID) {
		writeSuccess(w, http.StatusOK, map[string]any{"task_id": taskID, "cancelled": true})
		return
	}

	if _, err := h.taskService.GetStatus(taskID); errors.Is(err, errpkg.ErrTaskNotFound) {
		writeError(w, http.StatusNotFound, "TASK_NOT_FOUND", "task not found")
		return
	}
	writeError(w, http.StatusConflict, "NOT_CANCELLABLE", "only queued tasks can be cancelled")
}

// Stats handles GET /api/tasks/stats.
func (h *TaskHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, h.taskService.Stats())
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeSuccess(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, map[string]interface{}{
		"success": true,
		"data":    data,
	})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
