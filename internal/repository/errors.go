package repository

import "errors"

// ErrNotFound indicates an entity was not located.
var ErrNotFound = errors.New("repository: not found")

// ErrInvalidArgument indicates the input violates a storage constraint, such
// as a duplicate token or a conditional update whose predicate did not hold.
var ErrInvalidArgument = errors.New("repository: invalid argument")
