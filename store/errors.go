package store

import "errors"

var (
	ErrNoData         = errors.New("no data stored for key")
	ErrEmptyOption    = errors.New("stored option is empty")
	ErrNoSuchProperty = errors.New("no such property")
	ErrNotSettable    = errors.New("property cannot be set")
)
