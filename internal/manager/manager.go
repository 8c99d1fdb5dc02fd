package manager

import (
	"context"
	"log/slog"
	"strings"

	"github.com/annaveselova/translation-service/internal/chunker"
	"github.com/annaveselova/translation-service/internal/domain"
	errpkg "github.com/annaveselova/translation-service/internal/errors"
	"github.com/annaveselova/translation-service/internal/metrics"
	"github.com/annaveselova/translation-service/internal/persistence"
	"github.com/annaveselova/translation-service/internal/store"
	"github.com/annaveselova/translation-service/internal/worker"
)

const defaultDomain = "tech"

// Manager is the public operation surface of the engine, composing the task
// store, result store, persistence service and worker.
type Manager struct {
	store   *store.TaskStore
	results *store.ResultStore
	persist *persistence.Service
	worker  *worker.Worker
	chunker *chunker.Chunker
}

// New wires the facade together. Start must be called before submissions.
func New(
	taskStore *store.TaskStore,
	results *store.ResultStore,
	persist *persistence.Service,
	w *worker.Worker,
	ch *chunker.Chunker,
) *Manager {
	return &Manager{
		store:   taskStore,
		results: results,
		persist: persist,
		worker:  w,
		chunker: ch,
	}
}

// Start runs recovery and launches the worker and persistence loops. Recovery
// happens first so re-enqueued tasks keep their original submission order
// ahead of new work.
func (m *Manager) Start() {
	recovered := m.persist.LoadAndRecover()
	m.persist.SweepExpired()

	for _, task := range recovered {
		if err := m.worker.Enqueue(task.ID); err != nil {
			slog.Error("failed to re-enqueue recovered task", "task_id", task.ID, "error", err)
		}
	}

	m.worker.Start()
	m.persist.Start()
}

// Submit validates and chunks the content, creates a pending record, enqueues
// it and returns immediately. No translation work happens on this path.
func (m *Manager) Submit(req *domain.SubmitRequest) (*domain.Task, error) {
	content := strings.TrimSpace(req.Content)
	chunks := req.Chunks
	if len(chunks) == 0 {
		chunks = m.chunker.Split(content)
	}
	if content == "" && len(chunks) == 0 {
		return nil, errpkg.ErrEmptyContent
	}
	if content == "" {
		content = strings.Join(chunks, "\n\n")
	}

	taskDomain := req.Domain
	if taskDomain == "" {
		taskDomain = defaultDomain
	}

	task := domain.NewTask(content, chunks, req.Title, req.SourceURL, taskDomain)
	if err := m.store.Create(task); err != nil {
		return nil, err
	}

	if err := m.worker.Enqueue(task.ID); err != nil {
		m.store.Delete(task.ID)
		return nil, err
	}

	metrics.TasksSubmitted.Inc()
	if err := m.persist.SaveSnapshot(); err != nil {
		slog.Error("snapshot after submit failed", "task_id", task.ID, "error", err)
	}

	slog.Info("task submitted",
		"task_id", task.ID,
		"total_chunks", task.TotalChunks,
		"domain", task.Domain,
	)
	return task, nil
}

// GetStatus returns the detailed view of a task. Completed results are read
// from the result store; partially translated tasks expose what they have so
// far.
func (m *Manager) GetStatus(id string) (domain.TaskView, error) {
	task, err := m.store.Get(id)
	if err != nil {
		return domain.TaskView{}, err
	}

	result := ""
	switch {
	case task.Status == domain.TaskStatusCompleted:
		result, err = m.results.Read(id)
		if err != nil {
			// The file appears momentarily after the status flips; until the
			// offload lands the chunks are still resident.
			result = task.Result()
		}
	case len(task.TranslatedChunks) > 0:
		result = task.Result()
	}

	return task.View(result), nil
}

// List returns a paginated listing, most recent first.
func (m *Manager) List(offset, limit int, status domain.TaskStatus) domain.TaskListView {
	return m.store.List(offset, limit, status)
}

// Retry re-enqueues a failed task, resuming from the first untranslated chunk.
// Returns false if the task does not exist or is not failed.
func (m *Manager) Retry(id string) bool {
	task, ok := m.store.ResetForRetry(id)
	if !ok {
		slog.Warn("retry refused", "task_id", id)
		return false
	}

	if err := m.worker.Enqueue(id); err != nil {
		m.store.SetStatus(id, domain.TaskStatusFailed, "retry refused: "+err.Error())
		return false
	}

	metrics.TasksRetried.Inc()
	m.persist.TaskStatusChanged(task)

	slog.Info("task re-queued for retry", "task_id", id, "completed_chunks", task.CompletedChunks)
	return true
}

// Cancel drops a task that is still waiting in the queue. Active tasks cannot
// be cancelled.
func (m *Manager) Cancel(id string) bool {
	return m.worker.Cancel(id)
}

// Delete removes a task's metadata and result. Refused while the task is
// being executed.
func (m *Manager) Delete(id string) bool {
	task, err := m.store.Get(id)
	if err != nil {
		return false
	}
	if task.Status == domain.TaskStatusInProgress {
		slog.Warn("delete refused, task is active", "task_id", id)
		return false
	}

	m.worker.Forget(id)
	m.store.Delete(id)
	if err := m.results.Delete(id); err != nil {
		slog.Error("failed to delete result file", "task_id", id, "error", err)
	}
	if err := m.persist.SaveSnapshot(); err != nil {
		slog.Error("snapshot after delete failed", "task_id", id, "error", err)
	}

	slog.Info("task deleted", "task_id", id)
	return true
}

// Stats reports task counts by status and the current queue size.
func (m *Manager) Stats() domain.Stats {
	total, byStatus := m.store.Stats()
	return domain.Stats{
		TotalTasks: total,
		ByStatus:   byStatus,
		QueueSize:  m.worker.QueueSize(),
	}
}

// Shutdown stops the worker gracefully, then the persistence service. The
// final snapshot preserves any still-queued tasks as pending for the next
// startup.
func (m *Manager) Shutdown(ctx context.Context) error {
	err := m.worker.Shutdown(ctx)
	m.persist.Stop()
	return err
}
