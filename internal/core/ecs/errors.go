package ecs

import (
	"fmt"
	"reflect"
)

// ==============================================
// Error codes
// ==============================================

// Error codes the core can return. Every other misuse is a precondition
// violation per §7 and is never reported as an *ECSError — there is no
// recoverable response a caller could give other than "don't do that".
// Erasing a component that isn't present, and destroying or releasing an
// entity that is no longer valid, panic. Component mutators do not check
// the entity against the registry: a stale id is caught only where the
// call needs an existing component (Replace, Patch, Erase, Get), and an
// Emplace for a stale id is not detected.
const (
	// ErrCodeGroupConflict is returned when registering a group whose
	// owned set overlaps another group's owned set incompatibly.
	ErrCodeGroupConflict = "GROUP_CONFLICT"
	// ErrCodeStorageOwned is returned by Sort when the target component
	// type is currently owned by a group. The source treats this as an
	// assertion; §9's open question asks for a recoverable error instead.
	ErrCodeStorageOwned = "STORAGE_OWNED"
)

// ECSError is the error type returned by the handful of core operations
// that have a recoverable failure mode. It carries enough context to log
// or branch on programmatically without parsing the message string.
type ECSError struct {
	Code    string
	Message string
	// Types holds the component types involved in the failure.
	Types []reflect.Type
}

// Error implements the error interface.
func (e *ECSError) Error() string {
	if len(e.Types) == 0 {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s (%v)", e.Code, e.Message, e.Types)
}

// Is reports whether target is an *ECSError with the same code, so
// callers can write errors.Is(err, &ECSError{Code: ErrCodeGroupConflict}).
func (e *ECSError) Is(target error) bool {
	other, ok := target.(*ECSError)
	if !ok {
		return false
	}
	return other.Code == e.Code
}

func newGroupConflictError(message string, types ...reflect.Type) *ECSError {
	return &ECSError{Code: ErrCodeGroupConflict, Message: message, Types: types}
}

func newStorageOwnedError(message string, types ...reflect.Type) *ECSError {
	return &ECSError{Code: ErrCodeStorageOwned, Message: message, Types: types}
}
