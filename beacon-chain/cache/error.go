package cache

import "github.com/pkg/errors"

var (
	// ErrConflictingBlock is returned when a second, different block is
	// inserted at a slot height that already has one. Callers decide
	// whether this is slashing evidence or noise to ignore.
	ErrConflictingBlock = errors.New("second block at same height")
	// ErrMissingAncestor is returned when an ancestor chain cannot be
	// completed because a referenced parent root is not in the cache.
	ErrMissingAncestor = errors.New("parent block not known")
)
