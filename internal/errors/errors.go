package errors

import "errors"

// This package defines a centralized set of sentinel errors for the client.
// Components return (or wrap) these so that the bridge layer can use
// `errors.Is()` to map them to HTTP responses, and the CLI to exit codes.

var (
	// ErrNotFound signifies that a requested item (canvas item, stored key,
	// saved conversation) could not be located.
	ErrNotFound = errors.New("resource not found")

	// ErrValidation signifies that input data failed validation.
	ErrValidation = errors.New("validation failed")

	// ErrInternal is a generic error used to avoid leaking implementation
	// details to bridge clients.
	ErrInternal = errors.New("internal error")

	// ErrUnauthenticated signifies that the agent backend rejected the
	// credentials (HTTP 401 or an in-band "not authenticated" error body).
	ErrUnauthenticated = errors.New("not authenticated")

	// ErrNoLoginHandler is returned when authentication is required but no
	// login listener has been registered. This is a wiring error.
	ErrNoLoginHandler = errors.New("no login handler registered, cannot prompt for login")

	// ErrNoToken signifies that an operation requiring a stored bearer token
	// was attempted while logged out. The request is not sent.
	ErrNoToken = errors.New("no authentication token found, please log in first")

	// ErrNothingToRegenerate is returned when the conversation holds no
	// assistant turn to redo.
	ErrNothingToRegenerate = errors.New("no assistant message to regenerate")
)
