package tree

import "errors"

var (
	// ErrNotFound means a path or id no longer resolves. Callers treat it as
	// a no-op on the tree and surface it as a notification.
	ErrNotFound = errors.New("not found")

	// ErrCollision means the operation would duplicate a same-kind sibling name.
	ErrCollision = errors.New("name collision")

	// ErrNotContainer means a node was addressed as a parent but carries no children.
	ErrNotContainer = errors.New("not a container")

	// ErrInvalidName rejects empty names and names that are only separators.
	ErrInvalidName = errors.New("invalid name")
)
