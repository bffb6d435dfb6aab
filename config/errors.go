package config

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrMissingKey reports that a requested configuration key is absent.
var ErrMissingKey = errors.New("configuration key not found")

// NotFoundError reports that no settings profile exists for an environment.
type NotFoundError struct {
	Env  string
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("configuration not found for environment %q (looked for %s)", e.Env, e.Path)
}

// TypeError reports a value that cannot be parsed as the requested type.
type TypeError struct {
	Key   string
	Value string
	Want  string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("configuration key %q has value %q, want %s", e.Key, e.Value, e.Want)
}
