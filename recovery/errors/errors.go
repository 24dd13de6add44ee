// Package errors defines the recovery engine's closed set of error kinds.
// It follows the same string-sentinel pattern as the rest of the
// dargueta/disko family of tools: each kind is a named constant that
// satisfies the error interface directly, and can be wrapped with an
// additional message via WithMessage without losing its identity for
// errors.Is.
package errors

import "fmt"

// Kind is one of the fixed error kinds the recovery engine can report.
type Kind string

func (k Kind) Error() string {
	return string(k)
}

// WithMessage returns a new error that reports as kind's message with extra
// detail appended, while still satisfying errors.Is(err, kind).
func (k Kind) WithMessage(message string) error {
	return &detailedError{kind: k, message: fmt.Sprintf("%s: %s", k, message)}
}

// Wrap returns a new error that reports as kind's message with the wrapped
// error's text appended, while still satisfying errors.Is(err, kind) and
// errors.Unwrap(err) == cause.
func (k Kind) Wrap(cause error) error {
	return &detailedError{kind: k, message: fmt.Sprintf("%s: %s", k, cause), cause: cause}
}

type detailedError struct {
	kind    Kind
	message string
	cause   error
}

func (e *detailedError) Error() string {
	return e.message
}

func (e *detailedError) Is(target error) bool {
	return e.kind == target
}

func (e *detailedError) Unwrap() error {
	return e.cause
}

// Fatal error kinds (spec §7): these terminate the process after teardown.
const (
	ErrDeviceOpen     = Kind("failed to open the block device")
	ErrDeviceSize     = Kind("failed to determine the size of the block device")
	ErrDeviceMap      = Kind("failed to memory-map the block device")
	ErrAllocFailure   = Kind("failed to allocate an internal data structure")
	ErrNoBmpStarts    = Kind("no candidate BMP file headers were found")
	ErrInodeExhausted = Kind("no free inode is available to reserve")
	ErrDirectoryFull  = Kind("the root directory has no room for another entry")
	ErrLinkFailure    = Kind("failed to link the recovered file into the root directory")
)

// Recoverable error kinds (spec §7): these downgrade to a Warn event and
// cause the current BMP candidate to be skipped, rather than aborting the
// whole collect.
const (
	ErrIndirectMissing = Kind("no matching indirect block was found for this candidate")
	ErrSanityFailed    = Kind("candidate failed its pre-reservation sanity check")
)
