package persistence

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annaveselova/translation-service/internal/domain"
	"github.com/annaveselova/translation-service/internal/store"
)

func newService(t *testing.T, dir string, taskStore *store.TaskStore) (*Service, *store.ResultStore) {
	t.Helper()

	results, err := store.NewResultStore(filepath.Join(dir, "results"))
	require.NoError(t, err)

	svc := New(taskStore, results, filepath.Join(dir, "tasks.json"), time.Minute, 7*24*time.Hour)
	return svc, results
}

func TestService_SaveSnapshotAtomic(t *testing.T) {
	dir := t.TempDir()
	taskStore := store.NewTaskStore()
	svc, _ := newService(t, dir, taskStore)

	task := domain.NewTask("Hello. World.", []string{"Hello.", "World."}, "", "", "tech")
	require.NoError(t, taskStore.Create(task))
	_, err := taskStore.UpdateProgress(task.ID, "你好。")
	require.NoError(t, err)

	require.NoError(t, svc.SaveSnapshot())

	// No temp file is left behind.
	_, err = os.Stat(filepath.Join(dir, "tasks.json.tmp"))
	assert.True(t, os.IsNotExist(err))

	data, err := os.ReadFile(filepath.Join(dir, "tasks.json"))
	require.NoError(t, err)

	var snapshot struct {
		Version     int                        `json:"version"`
		LastUpdated time.Time                  `json:"last_updated"`
		Tasks       map[string]json.RawMessage `json:"tasks"`
	}
	require.NoError(t, json.Unmarshal(data, &snapshot))
	assert.Equal(t, SchemaVersion, snapshot.Version)
	assert.False(t, snapshot.LastUpdated.IsZero())
	require.Contains(t, snapshot.Tasks, task.ID)

	// Translated text never enters the snapshot.
	assert.NotContains(t, string(snapshot.Tasks[task.ID]), "你好")
}

func TestService_LoadAndRecoverRules(t *testing.T) {
	dir := t.TempDir()
	taskStore := store.NewTaskStore()
	svc, _ := newService(t, dir, taskStore)

	pending := domain.NewTask("a", []string{"a"}, "", "", "tech")
	pending.CreatedAt = time.Now().Add(-3 * time.Second)
	require.NoError(t, taskStore.Create(pending))

	active := domain.NewTask("b. c.", []string{"b.", "c."}, "", "", "tech")
	active.CreatedAt = time.Now().Add(-2 * time.Second)
	require.NoError(t, taskStore.Create(active))
	_, err := taskStore.SetStatus(active.ID, domain.TaskStatusInProgress, "")
	require.NoError(t, err)
	_, err = taskStore.UpdateProgress(active.ID, "乙。")
	require.NoError(t, err)

	done := domain.NewTask("d. e.", []string{"d.", "e."}, "", "", "tech")
	require.NoError(t, taskStore.Create(done))
	_, err = taskStore.UpdateProgress(done.ID, "丁。")
	require.NoError(t, err)
	_, err = taskStore.UpdateProgress(done.ID, "戊。")
	require.NoError(t, err)

	require.NoError(t, svc.SaveSnapshot())

	// Simulated restart: fresh store, same files.
	freshStore := store.NewTaskStore()
	fresh, _ := newService(t, dir, freshStore)

	requeue := fresh.LoadAndRecover()
	require.Len(t, requeue, 2)
	// Submission order is preserved.
	assert.Equal(t, pending.ID, requeue[0].ID)
	assert.Equal(t, active.ID, requeue[1].ID)

	got, err := freshStore.Get(pending.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusPending, got.Status)

	// The interrupted task is reset: its partial progress is not trusted.
	got, err = freshStore.Get(active.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusPending, got.Status)
	assert.Equal(t, 0, got.CompletedChunks)
	assert.Empty(t, got.TranslatedChunks)
	assert.Equal(t, []string{"b.", "c."}, got.Chunks)

	got, err = freshStore.Get(done.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusCompleted, got.Status)
	assert.Equal(t, 2, got.CompletedChunks)
}

func TestService_LoadMissingFile(t *testing.T) {
	taskStore := store.NewTaskStore()
	svc, _ := newService(t, t.TempDir(), taskStore)

	assert.Empty(t, svc.LoadAndRecover())
	total, _ := taskStore.Stats()
	assert.Equal(t, 0, total)
}

func TestService_LoadCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tasks.json"), []byte("{not json"), 0o644))

	taskStore := store.NewTaskStore()
	svc, _ := newService(t, dir, taskStore)

	assert.Empty(t, svc.LoadAndRecover())
	total, _ := taskStore.Stats()
	assert.Equal(t, 0, total)
}

func TestService_TaskStatusChangedOnCompletion(t *testing.T) {
	dir := t.TempDir()
	taskStore := store.NewTaskStore()
	svc, results := newService(t, dir, taskStore)

	task := domain.NewTask("Hello. World.", []string{"Hello.", "World."}, "", "", "tech")
	require.NoError(t, taskStore.Create(task))
	_, err := taskStore.UpdateProgress(task.ID, "你好。")
	require.NoError(t, err)
	completed, err := taskStore.UpdateProgress(task.ID, "世界。")
	require.NoError(t, err)
	require.Equal(t, domain.TaskStatusCompleted, completed.Status)

	svc.TaskStatusChanged(completed)

	text, err := results.Read(task.ID)
	require.NoError(t, err)
	assert.Equal(t, "你好。世界。", text)

	got, err := taskStore.Get(task.ID)
	require.NoError(t, err)
	assert.Equal(t, results.Path(task.ID), got.ResultFile)
	// The resident translated text is released once the file is durable.
	assert.Empty(t, got.TranslatedChunks)
	assert.Equal(t, 2, got.CompletedChunks)

	// Snapshot was written immediately.
	_, err = os.Stat(filepath.Join(dir, "tasks.json"))
	assert.NoError(t, err)
}

func TestService_ResultDurableAcrossRestart(t *testing.T) {
	dir := t.TempDir()
	taskStore := store.NewTaskStore()
	svc, _ := newService(t, dir, taskStore)

	task := domain.NewTask("Hello.", []string{"Hello."}, "", "", "tech")
	require.NoError(t, taskStore.Create(task))
	completed, err := taskStore.UpdateProgress(task.ID, "你好。")
	require.NoError(t, err)
	svc.TaskStatusChanged(completed)

	freshStore := store.NewTaskStore()
	fresh, freshResults := newService(t, dir, freshStore)
	fresh.LoadAndRecover()

	got, err := freshStore.Get(task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusCompleted, got.Status)

	text, err := freshResults.Read(task.ID)
	require.NoError(t, err)
	assert.Equal(t, "你好。", text)
}

func TestService_SweepExpired(t *testing.T) {
	dir := t.TempDir()
	taskStore := store.NewTaskStore()
	svc, _ := newService(t, dir, taskStore)

	old := domain.NewTask("old", []string{"old"}, "", "", "tech")
	require.NoError(t, taskStore.Create(old))
	completed, err := taskStore.UpdateProgress(old.ID, "旧。")
	require.NoError(t, err)
	svc.TaskStatusChanged(completed)

	recent := domain.NewTask("recent", []string{"recent"}, "", "", "tech")
	require.NoError(t, taskStore.Create(recent))
	completed, err = taskStore.UpdateProgress(recent.ID, "新。")
	require.NoError(t, err)
	svc.TaskStatusChanged(completed)

	running := domain.NewTask("running", []string{"running"}, "", "", "tech")
	require.NoError(t, taskStore.Create(running))

	// Age the tasks through a restore round-trip.
	snapshot := store.NewTaskStore()
	tasks := taskStore.Snapshot()
	eightDaysAgo := time.Now().Add(-8 * 24 * time.Hour)
	sixDaysAgo := time.Now().Add(-6 * 24 * time.Hour)
	tasks[old.ID].CompletedAt = &eightDaysAgo
	tasks[recent.ID].CompletedAt = &sixDaysAgo
	snapshot.Restore(tasks)

	aged, agedResults := newService(t, dir, snapshot)

	removed := aged.SweepExpired()
	assert.Equal(t, 1, removed)

	_, err = snapshot.Get(old.ID)
	assert.Error(t, err)
	_, err = agedResults.Read(old.ID)
	assert.Error(t, err)

	_, err = snapshot.Get(recent.ID)
	assert.NoError(t, err)
	_, err = agedResults.Read(recent.ID)
	assert.NoError(t, err)

	_, err = snapshot.Get(running.ID)
	assert.NoError(t, err)
}
