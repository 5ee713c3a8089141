package document

import "errors"

var (
	ErrNotFound            = errors.New("document not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrEmbedderUnavailable = errors.New("embedder unavailable")
)
