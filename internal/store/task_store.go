package store

import (
	"sort"
	"sync"
	"time"

	"github.com/annaveselova/translation-service/internal/domain"
	errpkg "github.com/annaveselova/translation-service/internal/errors"
)

// TaskStore is the authoritative in-memory registry of all task records.
// Every mutation happens under the lock; readers always receive clones so a
// record can never be observed half-updated.
type TaskStore struct {
	mu    sync.RWMutex
	tasks map[string]*domain.Task
}

// NewTaskStore creates an empty store.
func NewTaskStore() *TaskStore {
	return &TaskStore{
		tasks: make(map[string]*domain.Task),
	}
}

// Create inserts a new pending task record.
func (s *TaskStore) Create(task *domain.Task) error {
	if task.OriginalContent == "" && len(task.Chunks) == 0 {
		return errpkg.ErrEmptyContent
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[task.ID] = task.Clone()
	return nil
}

// Get returns a copy of the task record.
func (s *TaskStore) Get(id string) (*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, errpkg.ErrTaskNotFound
	}
	return task.Clone(), nil
}

// List returns lightweight projections ordered by creation time, most recent
// first. An empty status matches every task.
func (s *TaskStore) List(offset, limit int, status domain.TaskStatus) domain.TaskListView {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = 20
	}

	s.mu.RLock()
	tasks := make([]*domain.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if status != "" && t.Status != status {
			continue
		}
		tasks = append(tasks, t)
	}
	s.mu.RUnlock()

	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})

	total := len(tasks)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	items := make([]domain.TaskSummary, 0, end-offset)
	for _, t := range tasks[offset:end] {
		items = append(items, t.Summary())
	}

	return domain.TaskListView{
		Items:   items,
		Total:   total,
		Offset:  offset,
		Limit:   limit,
		HasMore: end < total,
	}
}

// UpdateProgress appends a newly translated chunk, advances the counters and
// flips the task to completed when the last chunk lands. Returns a copy of the
// updated record.
func (s *TaskStore) UpdateProgress(id, translatedChunk string) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, errpkg.ErrTaskNotFound
	}

	task.TranslatedChunks = append(task.TranslatedChunks, translatedChunk)
	task.CompletedChunks = len(task.TranslatedChunks)
	task.UpdatedAt = time.Now()

	if task.IsComplete() {
		task.Status = domain.TaskStatusCompleted
		task.StatusMessage = ""
		now := task.UpdatedAt
		task.CompletedAt = &now
	}

	return task.Clone(), nil
}

// SetStatus performs a direct status transition. For failed transitions
// errorMessage carries the last fatal error. Returns a copy of the updated
// record.
func (s *TaskStore) SetStatus(id string, status domain.TaskStatus, errorMessage string) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, errpkg.ErrTaskNotFound
	}

	task.Status = status
	task.UpdatedAt = time.Now()
	if errorMessage != "" {
		task.ErrorMessage = errorMessage
	}
	if status.IsTerminal() {
		task.StatusMessage = ""
	}

	return task.Clone(), nil
}

// SetStatusMessage updates the human-readable progress annotation.
func (s *TaskStore) SetStatusMessage(id, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if task, ok := s.tasks[id]; ok {
		task.StatusMessage = message
	}
}

// OffloadResult records the result store reference on a completed task and
// releases the resident translated text; the result store is authoritative
// from here on.
func (s *TaskStore) OffloadResult(id, resultFile string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if task, ok := s.tasks[id]; ok {
		task.ResultFile = resultFile
		task.TranslatedChunks = nil
	}
}

// ResetForRetry re-arms a failed task for another execution pass. Translated
// chunks still held in memory are preserved so the worker resumes from the
// first untranslated chunk. Returns false if the task does not exist or is not
// failed.
func (s *TaskStore) ResetForRetry(id string) (*domain.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok || task.Status != domain.TaskStatusFailed {
		return nil, false
	}

	task.Status = domain.TaskStatusPending
	task.ErrorMessage = ""
	task.StatusMessage = ""
	// The counter must match the resident translated text. A record restored
	// from a snapshot has none, so the retry reruns from the first chunk.
	task.CompletedChunks = len(task.TranslatedChunks)
	task.UpdatedAt = time.Now()

	return task.Clone(), true
}

// Delete removes the record. Result store cleanup is the caller's job.
func (s *TaskStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return false
	}
	delete(s.tasks, id)
	return true
}

// Stats returns task counts grouped by status.
func (s *TaskStore) Stats() (int, map[domain.TaskStatus]int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byStatus := make(map[domain.TaskStatus]int)
	for _, t := range s.tasks {
		byStatus[t.Status]++
	}
	return len(s.tasks), byStatus
}

// Snapshot returns a copy of every record, keyed by task id.
func (s *TaskStore) Snapshot() map[string]*domain.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]*domain.Task, len(s.tasks))
	for id, t := range s.tasks {
		out[id] = t.Clone()
	}
	return out
}

// Restore bulk-imports records, skipping ids that already exist. Returns the
// number of tasks restored.
func (s *TaskStore) Restore(tasks map[string]*domain.Task) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	restored := 0
	for id, t := range tasks {
		if _, exists := s.tasks[id]; exists {
			continue
		}
		s.tasks[id] = t.Clone()
		restored++
	}
	return restored
}
