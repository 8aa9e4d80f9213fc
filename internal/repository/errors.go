package repository

import "errors"

// This file defines custom errors specific to the repository layer.
// This allows the repository to communicate outcomes in a storage-agnostic way.

// ErrNotFound is a repository-specific sentinel error. It is returned when a
// key or a saved conversation does not exist.
//
// Callers translate it into a domain-level outcome (for example "no token,
// send the request unauthenticated"), which keeps `sql.ErrNoRows` out of the
// transport and session code.
var ErrNotFound = errors.New("repository: not found")
