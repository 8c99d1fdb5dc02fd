package translator

import (
	"context"
	"errors"
)

// Request carries one chunk of source text to the translation agent, together
// with the tail of the previous chunk's translation for continuity.
type Request struct {
	Text        string `json:"text"`
	Domain      string `json:"domain"`
	Context     string `json:"context,omitempty"`
	ChunkNumber int    `json:"chunk_number"`
	TotalChunks int    `json:"total_chunks"`
}

// ChunkTranslator translates a single chunk. Implementations must honor the
// context deadline; the worker additionally enforces its own hard timeout
// around every call.
type ChunkTranslator interface {
	Translate(ctx context.Context, req Request) (string, error)
}

// Failure taxonomy for chunk translation. All of these are retried by the
// worker's policy except ErrInvalidChunk, which marks a malformed request and
// fails the task immediately.
var (
	ErrNetwork         = errors.New("translator: network error")
	ErrRateLimited     = errors.New("translator: rate limited")
	ErrInvalidResponse = errors.New("translator: invalid response")
	ErrTimeout         = errors.New("translator: chunk translation timed out")
	ErrInvalidChunk    = errors.New("translator: chunk text is empty")
)
