package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Task is one submitted translation job and its full lifecycle record.
//
// TranslatedChunks is transient working state: it is kept in memory while the
// task executes and is never written into metadata snapshots. Once the task
// completes, the accumulated result lives in the result store and the record
// keeps only the ResultFile reference.
type Task struct {
	ID               string     `json:"task_id"`
	Status           TaskStatus `json:"status"`
	Domain           string     `json:"domain"`
	Title            string     `json:"title,omitempty"`
	SourceURL        string     `json:"source_url,omitempty"`
	OriginalContent  string     `json:"original_content"`
	Chunks           []string   `json:"chunks"`
	TranslatedChunks []string   `json:"-"`
	CompletedChunks  int        `json:"completed_chunks"`
	TotalChunks      int        `json:"total_chunks"`
	ResultFile       string     `json:"result_file,omitempty"`
	ErrorMessage     string     `json:"error_message,omitempty"`
	StatusMessage    string     `json:"status_message,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

// NewTask creates a pending task from already-chunked content.
func NewTask(content string, chunks []string, title, sourceURL, domain string) *Task {
	now := time.Now()
	return &Task{
		ID:              uuid.New().String(),
		Status:          TaskStatusPending,
		Domain:          domain,
		Title:           title,
		SourceURL:       sourceURL,
		OriginalContent: content,
		Chunks:          chunks,
		TotalChunks:     len(chunks),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Progress returns completion as an integer percentage 0-100.
func (t *Task) Progress() int {
	if t.TotalChunks == 0 {
		return 0
	}
	return t.CompletedChunks * 100 / t.TotalChunks
}

// IsComplete reports whether every chunk has been translated.
func (t *Task) IsComplete() bool {
	return t.TotalChunks > 0 && t.CompletedChunks >= t.TotalChunks
}

// Result concatenates the translated chunks into the final output text.
func (t *Task) Result() string {
	return strings.Join(t.TranslatedChunks, "")
}

// DisplayTitle returns the title, falling back to a preview of the content.
func (t *Task) DisplayTitle() string {
	if t.Title != "" {
		return t.Title
	}
	preview := []rune(t.OriginalContent)
	if len(preview) > 50 {
		return string(preview[:50]) + "..."
	}
	return string(preview)
}

// Clone returns a deep copy so callers never share slices with the store.
func (t *Task) Clone() *Task {
	c := *t
	c.Chunks = append([]string(nil), t.Chunks...)
	c.TranslatedChunks = append([]string(nil), t.TranslatedChunks...)
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		c.CompletedAt = &at
	}
	return &c
}
