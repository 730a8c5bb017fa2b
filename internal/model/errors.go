package model

import "errors"

var (
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a resource already exists.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotValid is returned when a resource is not valid.
	ErrNotValid = errors.New("not valid")
	// ErrAlreadySatisfied is returned by install actions when the step goal
	// state already holds and nothing was changed.
	ErrAlreadySatisfied = errors.New("already satisfied")
	// ErrActionNotFound is returned when a step has no bound action implementation.
	ErrActionNotFound = errors.New("action not found")
	// ErrTimeout is returned when an action exceeded its allotted time.
	ErrTimeout = errors.New("timeout")
)
