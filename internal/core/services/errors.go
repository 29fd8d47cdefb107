package services

import "errors"

// Submission errors. All of these reject the request synchronously; no task
// record is created.
var (
	ErrInvalidRequest   = errors.New("runner: invalid request")
	ErrEmptyTargets     = errors.New("runner: targets must not be empty")
	ErrDuplicateTarget  = errors.New("runner: duplicate target in request")
	ErrUnknownOperation = errors.New("runner: unknown operation kind")
	ErrQueueFull        = errors.New("runner: submission queue is full")
	ErrShuttingDown     = errors.New("runner: shutting down")
)

// Task lifecycle errors.
var (
	ErrTaskNotFound    = errors.New("task: not found")
	ErrAlreadyTerminal = errors.New("task: already in a terminal state")
	ErrBadTransition   = errors.New("task: illegal status transition")
)

// Inventory errors.
var (
	ErrDeviceNotFound      = errors.New("inventory: device not found")
	ErrDeviceAlreadyExists = errors.New("inventory: device ip already exists")
	ErrDeviceInvalidInput  = errors.New("inventory: invalid input")
	ErrTargetNotResolvable = errors.New("inventory: target not found or inactive")
)
