package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/annaveselova/translation-service/internal/domain"
	errpkg "github.com/annaveselova/translation-service/internal/errors"
	"github.com/annaveselova/translation-service/internal/metrics"
	"github.com/annaveselova/translation-service/internal/store"
	"github.com/annaveselova/translation-service/internal/translator"
)

// Journal receives status transitions for immediate persistence.
type Journal interface {
	TaskStatusChanged(task *domain.Task)
}

// Config holds the execution policy for the worker.
type Config struct {
	// MaxAttempts is the total number of translation attempts per chunk.
	MaxAttempts int
	// ChunkTimeout is the hard bound on a single translation call.
	ChunkTimeout time.Duration
	// BackoffBase is the delay before the first retry; each further retry
	// doubles it.
	BackoffBase time.Duration
	// ContextTail is how many trailing runes of the previous translated chunk
	// are passed along for continuity.
	ContextTail int
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.ChunkTimeout <= 0 {
		c.ChunkTimeout = 5 * time.Minute
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = time.Second
	}
	if c.ContextTail <= 0 {
		c.ContextTail = 500
	}
	return c
}

// Worker owns the task queue and the single execution goroutine. Tasks are
// processed strictly in submission order, one at a time; chunks within a task
// are processed strictly in sequence.
type Worker struct {
	cfg        Config
	store      *store.TaskStore
	translator translator.ChunkTranslator
	journal    Journal

	mu       sync.Mutex
	cond     *sync.Cond
	queue    []string
	pending  map[string]struct{}
	stopping bool
	started  bool

	done chan struct{}
}

// New creates a worker. Start must be called before tasks are processed;
// Enqueue may be used earlier (recovery enqueues before the loop starts).
func New(taskStore *store.TaskStore, tr translator.ChunkTranslator, journal Journal, cfg Config) *Worker {
	w := &Worker{
		cfg:        cfg.withDefaults(),
		store:      taskStore,
		translator: tr,
		journal:    journal,
		pending:    make(map[string]struct{}),
		done:       make(chan struct{}),
	}
	w.cond = sync.NewCond(&w.mu)
	return w
}

// Start launches the worker goroutine.
func (w *Worker) Start() {
	w.mu.Lock()
	if w.started || w.stopping {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.mu.Unlock()

	go w.run()
}

// Enqueue appends a task to the FIFO queue. Non-blocking; the queue is
// bounded only by host memory.
func (w *Worker) Enqueue(taskID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopping {
		return errpkg.ErrShuttingDown
	}

	w.queue = append(w.queue, taskID)
	w.pending[taskID] = struct{}{}
	w.cond.Signal()
	return nil
}

// Cancel drops a task that is still queued and marks it failed. A task that
// has already been dequeued cannot be cancelled.
func (w *Worker) Cancel(taskID string) bool {
	w.mu.Lock()
	_, queued := w.pending[taskID]
	delete(w.pending, taskID)
	w.mu.Unlock()

	if !queued {
		slog.Warn("cannot cancel task, not queued", "task_id", taskID)
		return false
	}

	task, err := w.store.SetStatus(taskID, domain.TaskStatusFailed, "task cancelled before execution")
	if err != nil {
		return false
	}
	w.journal.TaskStatusChanged(task)

	slog.Info("task cancelled", "task_id", taskID)
	return true
}

// Forget silently drops a queued task, used when its record is being deleted.
func (w *Worker) Forget(taskID string) {
	w.mu.Lock()
	delete(w.pending, taskID)
	w.mu.Unlock()
}

// QueueSize returns the number of tasks waiting for execution.
func (w *Worker) QueueSize() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

// Shutdown signals the worker to stop pulling new tasks and waits for the
// in-flight task to reach a terminal state, or for ctx to expire. Tasks still
// queued keep their pending status and are picked up on the next startup.
func (w *Worker) Shutdown(ctx context.Context) error {
	w.mu.Lock()
	w.stopping = true
	started := w.started
	w.cond.Broadcast()
	w.mu.Unlock()

	if !started {
		return nil
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("worker shutdown: %w", ctx.Err())
	}
}

func (w *Worker) run() {
	defer close(w.done)

	slog.Info("worker loop started")

	for {
		w.mu.Lock()
		for len(w.queue) == 0 && !w.stopping {
			w.cond.Wait()
		}
		if w.stopping {
			w.mu.Unlock()
			break
		}
		taskID := w.queue[0]
		w.queue = w.queue[1:]
		_, live := w.pending[taskID]
		delete(w.pending, taskID)
		w.mu.Unlock()

		if !live {
			slog.Info("skipping dequeued task", "task_id", taskID)
			continue
		}

		w.execute(taskID)
	}

	slog.Info("worker loop stopped")
}

// execute drives one task through all of its chunks to a terminal state.
func (w *Worker) execute(taskID string) {
	task, err := w.store.Get(taskID)
	if err != nil {
		slog.Warn("queued task no longer exists", "task_id", taskID)
		return
	}

	updated, err := w.store.SetStatus(taskID, domain.TaskStatusInProgress, "")
	if err != nil {
		return
	}
	w.store.SetStatusMessage(taskID, "preparing")
	w.journal.TaskStatusChanged(updated)

	slog.Info("task execution started",
		"task_id", taskID,
		"total_chunks", task.TotalChunks,
		"completed_chunks", task.CompletedChunks,
	)

	if task.TotalChunks == 0 {
		w.fail(taskID, "task has no chunks")
		return
	}

	// Resume point: a manually retried task keeps its completed chunks.
	contextTail := ""
	if n := len(task.TranslatedChunks); n > 0 {
		contextTail = w.tail(task.TranslatedChunks[n-1])
	}

	for i := task.CompletedChunks; i < task.TotalChunks; i++ {
		w.store.SetStatusMessage(taskID, fmt.Sprintf("translating chunk %d/%d", i+1, task.TotalChunks))

		translated, err := w.translateWithRetry(taskID, task.Chunks[i], task.Domain, contextTail, i+1, task.TotalChunks)
		if err != nil {
			w.fail(taskID, fmt.Sprintf("chunk %d/%d failed: %v", i+1, task.TotalChunks, err))
			return
		}

		updated, err := w.store.UpdateProgress(taskID, translated)
		if err != nil {
			slog.Warn("task disappeared during execution", "task_id", taskID)
			return
		}
		metrics.ChunksTranslated.Inc()
		contextTail = w.tail(translated)

		slog.Info("chunk completed",
			"task_id", taskID,
			"chunk", i+1,
			"total_chunks", task.TotalChunks,
			"progress", updated.Progress(),
		)

		if updated.Status == domain.TaskStatusCompleted {
			w.journal.TaskStatusChanged(updated)
			metrics.TasksCompleted.Inc()
			slog.Info("task completed", "task_id", taskID)
			return
		}
	}
}

func (w *Worker) fail(taskID, message string) {
	failed, err := w.store.SetStatus(taskID, domain.TaskStatusFailed, message)
	if err != nil {
		return
	}
	w.journal.TaskStatusChanged(failed)
	metrics.TasksFailed.Inc()

	slog.Error("task failed", "task_id", taskID, "error", message)
}

// translateWithRetry applies the per-chunk retry policy: up to MaxAttempts
// attempts with exponential backoff between them. Every failure kind is
// retried except an empty chunk, which is a caller bug.
func (w *Worker) translateWithRetry(taskID, text, taskDomain, contextTail string, chunkNumber, totalChunks int) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= w.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := w.cfg.BackoffBase << (attempt - 2)
			slog.Warn("chunk translation failed, retrying",
				"task_id", taskID,
				"chunk", chunkNumber,
				"attempt", attempt-1,
				"retry_in", delay,
				"error", lastErr,
			)
			metrics.ChunkRetries.Inc()
			time.Sleep(delay)
		}

		out, err := w.translateOnce(text, taskDomain, contextTail, chunkNumber, totalChunks)
		if err == nil {
			return out, nil
		}
		if errors.Is(err, translator.ErrInvalidChunk) {
			return "", err
		}
		lastErr = err
	}

	return "", fmt.Errorf("after %d attempts: %w", w.cfg.MaxAttempts, lastErr)
}

// translateOnce performs a single translation call under the hard chunk
// timeout. The call runs in its own goroutine so a translator that ignores the
// context cannot stall the worker past the deadline.
func (w *Worker) translateOnce(text, taskDomain, contextTail string, chunkNumber, totalChunks int) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), w.cfg.ChunkTimeout)
	defer cancel()

	start := time.Now()
	defer func() {
		metrics.ChunkDuration.Observe(time.Since(start).Seconds())
	}()

	type outcome struct {
		text string
		err  error
	}
	ch := make(chan outcome, 1)

	go func() {
		out, err := w.translator.Translate(ctx, translator.Request{
			Text:        text,
			Domain:      taskDomain,
			Context:     contextTail,
			ChunkNumber: chunkNumber,
			TotalChunks: totalChunks,
		})
		ch <- outcome{out, err}
	}()

	select {
	case o := <-ch:
		return o.text, o.err
	case <-ctx.Done():
		return "", fmt.Errorf("%w after %s", translator.ErrTimeout, w.cfg.ChunkTimeout)
	}
}

func (w *Worker) tail(text string) string {
	runes := []rune(text)
	if len(runes) <= w.cfg.ContextTail {
		return text
	}
	return string(runes[len(runes)-w.cfg.ContextTail:])
}
