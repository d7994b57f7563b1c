package catalog

import "errors"

var (
	ErrServiceNotFound = errors.New("catalog: service not found")
	ErrPackageNotFound = errors.New("catalog: package not found")
	ErrSlugTaken       = errors.New("catalog: slug already exists")
	ErrValidation      = errors.New("catalog: validation error")
)
