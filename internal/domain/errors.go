package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidQuery signals an empty or whitespace-only query text.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrConfiguration signals bad or missing settings, fatal at startup.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrPreconditionFailed signals a missing collection or search index.
	ErrPreconditionFailed = errors.New("precondition failed")
	// ErrEmbeddingProvider signals an embedding provider failure.
	ErrEmbeddingProvider = errors.New("embedding provider error")
	// ErrExecution signals that the store rejected or failed the pipeline.
	ErrExecution = errors.New("pipeline execution failed")
)

// Precondition identifies which setup check failed.
type Precondition string

// Setup preconditions, checked in declaration order.
const (
	PreconditionCollection  Precondition = "collection"
	PreconditionVectorIndex Precondition = "vector index"
	PreconditionTextIndex   Precondition = "text index"
)

// PreconditionError wraps ErrPreconditionFailed with the failed check and its name.
type PreconditionError struct {
	Check Precondition
	Name  string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %s %q not found", ErrPreconditionFailed.Error(), e.Check, e.Name)
}

func (e *PreconditionError) Unwrap() error { return ErrPreconditionFailed }

// NewPreconditionError creates a precondition error for a missing resource.
func NewPreconditionError(check Precondition, name string) error {
	return &PreconditionError{Check: check, Name: name}
}

// ConfigError wraps ErrConfiguration with the full list of missing settings.
type ConfigError struct {
	Missing []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: missing required settings: %s",
		ErrConfiguration.Error(), strings.Join(e.Missing, ", "))
}

func (e *ConfigError) Unwrap() error { return ErrConfiguration }

// ExecutionError wraps ErrExecution with the target namespace and the store's diagnostic.
type ExecutionError struct {
	Database   string
	Collection string
	Cause      error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s on %s.%s: %v",
		ErrExecution.Error(), e.Database, e.Collection, e.Cause)
}

func (e *ExecutionError) Unwrap() error { return ErrExecution }

// NewExecutionError creates an execution error carrying the store's diagnostic message.
func NewExecutionError(database, collection string, cause error) error {
	return &ExecutionError{Database: database, Collection: collection, Cause: cause}
}
