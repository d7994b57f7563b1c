package storage

import "errors"

var (
	ErrObjectNotFound  = errors.New("object not found")
	ErrInvalidKey      = errors.New("invalid object key")
	ErrFileTooLarge    = errors.New("file exceeds maximum allowed size")
	ErrInvalidMimeType = errors.New("file type is not allowed")
	ErrEmptyFile       = errors.New("file is empty")
	ErrInvalidURL      = errors.New("invalid or expired file link")
)
