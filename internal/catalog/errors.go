package catalog

import "errors"

var (
	// ErrInvalidCatalog indicates malformed catalog definitions.
	ErrInvalidCatalog = errors.New("invalid catalog")

	// ErrUnknownItem indicates no item matched a name lookup.
	ErrUnknownItem = errors.New("configuration not found")

	// ErrUnknownCategory indicates no category matched a name lookup.
	ErrUnknownCategory = errors.New("category not found")
)
