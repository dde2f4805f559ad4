package engine

import "errors"

var (
	ErrMalformedWorld = errors.New("malformed grid world")
	ErrNoWorlds       = errors.New("no grid worlds")
	ErrWorldShape     = errors.New("grid worlds differ in size")
	ErrWorldIndex     = errors.New("world index out of range")
	ErrTableShape     = errors.New("q-table shape mismatch")
	ErrInvalidConfig  = errors.New("invalid learner config")
)
