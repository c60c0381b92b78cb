package service

import (
	"errors"
	"fmt"
)

// Error classes for mutation operations. Operations report expected
// failures through Result values instead of returning bare errors, so
// call sites stay uniform; the class is still inspectable via
// errors.Is on Result.Err.
var (
	ErrValidation  = errors.New("validation failed")
	ErrPersistence = errors.New("persistence failed")
	ErrNotFound    = errors.New("not found")

	// ErrActiveWorkoutExists is returned when starting a session while
	// the user already has an active workout. The aggregate itself does
	// not enforce this; the session service does.
	ErrActiveWorkoutExists = errors.New("user already has an active workout")
)

// Result is the uniform outcome of a session mutation.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func okResult(message string) Result {
	return Result{Success: true, Message: message}
}

func failValidation(message string) Result {
	return Result{Message: message, Err: fmt.Errorf("%w: %s", ErrValidation, message)}
}

func failNotFound(message string) Result {
	return Result{Message: message, Err: fmt.Errorf("%w: %s", ErrNotFound, message)}
}

func failPersistence(message string, cause error) Result {
	return Result{Message: message, Err: fmt.Errorf("%w: %s: %v", ErrPersistence, message, cause)}
}
