package errors

import "errors"

var (
	ErrTaskNotFound = errors.New("task not found")
	ErrEmptyContent = errors.New("content and chunks are both empty")
	ErrShuttingDown = errors.New("task manager is shutting down")
)
