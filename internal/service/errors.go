package service

import "errors"

// Failure taxonomy of the directory service. Handlers translate these to HTTP
// statuses; nothing is retried internally.
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrEmailTaken       = errors.New("email already in use")
	ErrPermissionDenied = errors.New("insufficient permissions")
	ErrInvalidRole      = errors.New("invalid role")
	ErrInvalidStatus    = errors.New("invalid status")
)
