// Package errs defines the sentinel error kinds raised across the runtime.
package errs

import "errors"

// Sentinel errors, one per error kind in the error handling design.
// Call sites wrap these with fmt.Errorf("...: %w", ErrX, ...) and callers
// use errors.Is/errors.As to branch on kind without string matching.
var (
	// ErrConfig covers malformed config, unknown element names, port
	// indices out of range, and missing `from` entries.
	ErrConfig = errors.New("elementio: config error")

	// ErrTypeMismatch is returned when a producer's send types and a
	// consumer's recv types do not intersect on an edge.
	ErrTypeMismatch = errors.New("elementio: type mismatch")

	// ErrPluginLoad covers missing symbols, framework-version skew,
	// duplicate element names within a plugin, and corrupt libraries.
	ErrPluginLoad = errors.New("elementio: plugin load error")

	// ErrElementInit is returned when an element's New(config) fails.
	ErrElementInit = errors.New("elementio: element init error")

	// ErrElementRuntime wraps an error-msg carried by a next() Err result.
	ErrElementRuntime = errors.New("elementio: element runtime error")

	// ErrChannelClosed names the closed-and-drained channel condition.
	// Recv/RecvAny report it as ok == false and do not return this
	// error. Not fatal by itself.
	ErrChannelClosed = errors.New("elementio: channel closed")

	// ErrElementNotFound is returned by the element registry and the
	// graph builder when a configured element name has no registration.
	ErrElementNotFound = errors.New("elementio: element not found")
)

// Exit codes per the CLI contract.
const (
	ExitOK             = 0
	ExitRuntimeError   = 1
	ExitConfigError    = 2
	ExitPluginLoadError = 3
)
