package persistence

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/annaveselova/translation-service/internal/domain"
	"github.com/annaveselova/translation-service/internal/metrics"
	"github.com/annaveselova/translation-service/internal/store"
)

// SchemaVersion tags the snapshot file layout.
const SchemaVersion = 1

type snapshotFile struct {
	Version     int                     `json:"version"`
	LastUpdated time.Time               `json:"last_updated"`
	Tasks       map[string]*domain.Task `json:"tasks"`
}

// Service makes task metadata durable across restarts. It snapshots the whole
// task store to a single JSON file on a timer and immediately on every status
// transition. Translated text never enters the snapshot; completed results go
// to the result store.
type Service struct {
	store     *store.TaskStore
	results   *store.ResultStore
	file      string
	interval  time.Duration
	retention time.Duration

	fileMu sync.Mutex
	stopCh chan struct{}
	doneCh chan struct{}

	startOnce sync.Once
	stopOnce  sync.Once
}

// New creates the persistence service. Start must be called to begin periodic
// snapshots.
func New(taskStore *store.TaskStore, results *store.ResultStore, file string, interval, retention time.Duration) *Service {
	return &Service{
		store:     taskStore,
		results:   results,
		file:      file,
		interval:  interval,
		retention: retention,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start launches the periodic snapshot loop.
func (s *Service) Start() {
	s.startOnce.Do(func() {
		go s.snapshotLoop()
		slog.Info("persistence service started", "file", s.file, "interval", s.interval)
	})
}

// Stop ends the loop and writes a final snapshot.
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		<-s.doneCh

		if err := s.SaveSnapshot(); err != nil {
			slog.Error("final snapshot failed", "error", err)
		}
		slog.Info("persistence service stopped")
	})
}

func (s *Service) snapshotLoop() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.SaveSnapshot(); err != nil {
				slog.Error("periodic snapshot failed", "error", err)
			}
		case <-s.stopCh:
			return
		}
	}
}

// SaveSnapshot serializes every task record to the state file, replacing it
// atomically via a temp file so a crash can never leave a truncated snapshot.
func (s *Service) SaveSnapshot() error {
	s.fileMu.Lock()
	defer s.fileMu.Unlock()

	snapshot := snapshotFile{
		Version:     SchemaVersion,
		LastUpdated: time.Now(),
		Tasks:       s.store.Snapshot(),
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		metrics.SnapshotFailures.Inc()
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tempFile := s.file + ".tmp"
	if err := os.WriteFile(tempFile, data, 0o644); err != nil {
		metrics.SnapshotFailures.Inc()
		return fmt.Errorf("write temporary snapshot: %w", err)
	}
	if err := os.Rename(tempFile, s.file); err != nil {
		metrics.SnapshotFailures.Inc()
		return fmt.Errorf("rename snapshot: %w", err)
	}

	metrics.SnapshotsSaved.Inc()
	slog.Debug("snapshot saved", "tasks_count", len(snapshot.Tasks), "file", s.file)
	return nil
}

// LoadAndRecover reads the last snapshot, restores records into the task store
// and returns the tasks that must be re-enqueued, in submission order.
//
// Recovery rules: pending tasks are re-enqueued as-is; in_progress tasks are
// reset to pending with their progress cleared, because partially translated
// text is never persisted and the interrupted pass cannot be trusted; terminal
// tasks are left alone. A missing or corrupt snapshot is logged and treated as
// an empty store, never as a startup failure.
func (s *Service) LoadAndRecover() []*domain.Task {
	s.fileMu.Lock()
	data, err := os.ReadFile(s.file)
	s.fileMu.Unlock()

	if err != nil {
		if os.IsNotExist(err) {
			slog.Info("no snapshot file found, starting fresh", "file", s.file)
		} else {
			slog.Error("failed to read snapshot, starting fresh", "file", s.file, "error", err)
		}
		return nil
	}

	var snapshot snapshotFile
	if err := json.Unmarshal(data, &snapshot); err != nil {
		slog.Error("snapshot file is corrupt, starting fresh", "file", s.file, "error", err)
		return nil
	}

	if snapshot.Version != SchemaVersion {
		slog.Warn("snapshot version mismatch",
			"file_version", snapshot.Version,
			"expected", SchemaVersion,
		)
	}

	var requeue []*domain.Task
	for id, task := range snapshot.Tasks {
		if task == nil || id == "" {
			continue
		}
		task.ID = id

		switch task.Status {
		case domain.TaskStatusInProgress:
			task.Status = domain.TaskStatusPending
			task.CompletedChunks = 0
			task.TranslatedChunks = nil
			task.StatusMessage = ""
			requeue = append(requeue, task)
			slog.Info("task recovered", "task_id", id, "from", "in_progress", "to", "pending")
		case domain.TaskStatusPending:
			requeue = append(requeue, task)
			slog.Info("task recovered", "task_id", id, "from", "pending", "to", "pending")
		}
	}

	restored := s.store.Restore(snapshot.Tasks)

	sort.Slice(requeue, func(i, j int) bool {
		return requeue[i].CreatedAt.Before(requeue[j].CreatedAt)
	})

	slog.Info("recovery complete",
		"tasks_loaded", restored,
		"tasks_requeued", len(requeue),
	)
	return requeue
}

// SweepExpired deletes terminal tasks older than the retention window,
// removing both the metadata record and the result file. Returns the number of
// tasks removed.
func (s *Service) SweepExpired() int {
	cutoff := time.Now().Add(-s.retention)
	removed := 0

	for id, task := range s.store.Snapshot() {
		if !task.Status.IsTerminal() {
			continue
		}

		at := task.UpdatedAt
		if task.CompletedAt != nil {
			at = *task.CompletedAt
		}
		if !at.Before(cutoff) {
			continue
		}

		s.store.Delete(id)
		if err := s.results.Delete(id); err != nil {
			slog.Error("failed to delete expired result", "task_id", id, "error", err)
		}
		removed++
		slog.Info("expired task removed", "task_id", id, "status", task.Status)
	}

	if removed > 0 {
		if err := s.SaveSnapshot(); err != nil {
			slog.Error("snapshot after sweep failed", "error", err)
		}
	}
	return removed
}

// TaskStatusChanged is called by the worker after every status transition.
// Completion first offloads the accumulated translation to the result store,
// records the reference and drops the resident text from the metadata record;
// every transition then triggers an immediate snapshot so terminal states
// survive a crash between periodic ticks.
func (s *Service) TaskStatusChanged(task *domain.Task) {
	if task.Status == domain.TaskStatusCompleted {
		if err := s.results.Write(task.ID, task.Result()); err != nil {
			slog.Error("failed to write result file", "task_id", task.ID, "error", err)
		} else {
			s.store.OffloadResult(task.ID, s.results.Path(task.ID))
		}
	}

	if err := s.SaveSnapshot(); err != nil {
		slog.Error("snapshot on status change failed", "task_id", task.ID, "error", err)
	}

	slog.Debug("status change persisted", "task_id", task.ID, "status", task.Status)
}
