package domain

import "time"

// SubmitRequest is the request body for submitting a background translation.
// Either Content or Chunks must be present; pre-split chunks are taken as-is
// and never re-segmented.
type SubmitRequest struct {
	Content   string   `json:"content" validate:"required_without=Chunks"`
	Chunks    []string `json:"chunks" validate:"omitempty,min=1,dive,required"`
	Title     string   `json:"title" validate:"omitempty,max=500"`
	SourceURL string   `json:"source_url" validate:"omitempty,url"`
	Domain    string   `json:"domain" validate:"omitempty,oneof=tech business academic"`
}

// SubmitResponse is returned immediately after a task is queued.
type SubmitResponse struct {
	TaskID    string     `json:"task_id"`
	Status    TaskStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
}

// TaskSummary is the lightweight projection used in listings. It never carries
// content or result text.
type TaskSummary struct {
	TaskID          string     `json:"task_id"`
	Title           string     `json:"title"`
	Status          TaskStatus `json:"status"`
	Progress        int        `json:"progress"`
	Domain          string     `json:"domain"`
	TotalChunks     int        `json:"total_chunks"`
	CompletedChunks int        `json:"completed_chunks"`
	ErrorMessage    string     `json:"error_message,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// TaskView is the detailed projection for a single task, including the result
// text once the task has completed.
type TaskView struct {
	TaskID          string     `json:"task_id"`
	Title           string     `json:"title"`
	Status          TaskStatus `json:"status"`
	StatusMessage   string     `json:"status_message,omitempty"`
	Progress        int        `json:"progress"`
	Domain          string     `json:"domain"`
	SourceURL       string     `json:"source_url,omitempty"`
	OriginalContent string     `json:"original_content"`
	Result          string     `json:"result,omitempty"`
	TotalChunks     int        `json:"total_chunks"`
	CompletedChunks int        `json:"completed_chunks"`
	ErrorMessage    string     `json:"error_message,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// TaskListView is a paginated listing.
type TaskListView struct {
	Items   []TaskSummary `json:"items"`
	Total   int           `json:"total"`
	Offset  int           `json:"offset"`
	Limit   int           `json:"limit"`
	HasMore bool          `json:"has_more"`
}

// Stats summarizes the state of the engine.
type Stats struct {
	TotalTasks int                `json:"total_tasks"`
	ByStatus   map[TaskStatus]int `json:"by_status"`
	QueueSize  int                `json:"queue_size"`
}

// Summary builds the listing projection of a task.
func (t *Task) Summary() TaskSummary {
	return TaskSummary{
		TaskID:          t.ID,
		Title:           t.DisplayTitle(),
		Status:          t.Status,
		Progress:        t.Progress(),
		Domain:          t.Domain,
		TotalChunks:     t.TotalChunks,
		CompletedChunks: t.CompletedChunks,
		ErrorMessage:    t.ErrorMessage,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

// View builds the detailed projection. The result text is resolved by the
// caller since completed results live outside the metadata record.
func (t *Task) View(result string) TaskView {
	return TaskView{
		TaskID:          t.ID,
		Title:           t.DisplayTitle(),
		Status:          t.Status,
		StatusMessage:   t.StatusMessage,
		Progress:        t.Progress(),
		Domain:          t.Domain,
		SourceURL:       t.SourceURL,
		OriginalContent: t.OriginalContent,
		Result:          result,
		TotalChunks:     t.TotalChunks,
		CompletedChunks: t.CompletedChunks,
		ErrorMessage:    t.ErrorMessage,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
		CompletedAt:     t.CompletedAt,
	}
}
