package models

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotAssigned      = errors.New("candidate is not assigned to this jury member")
	ErrPhaseClosed      = errors.New("evaluations are closed in the current phase")
	ErrAlreadySubmitted = errors.New("evaluation is already submitted")
	ErrForbidden        = errors.New("forbidden")
)
