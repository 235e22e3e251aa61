package registry

import (
	"errors"
	"fmt"
)

var (
	// ErrNotDeclared means the name has no manifest entry.
	ErrNotDeclared = errors.New("extension not declared in manifest")

	// ErrDuplicateExtension means the name is already loaded.
	ErrDuplicateExtension = errors.New("extension already loaded")

	// ErrUnknownExtension means the name was never loaded.
	ErrUnknownExtension = errors.New("extension not loaded")

	// ErrAlreadyInState means a guild's enabled flag already matches
	// the requested value.
	ErrAlreadyInState = errors.New("extension already in requested state")
)

// LoadError wraps any failure to load an extension: an undeclared or
// duplicate name, a factory failure, or a setup hook failure.
type LoadError struct {
	Name string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load extension %s: %v", e.Name, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
