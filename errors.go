// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package msgpack

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

var (
	// ErrOutOfData means the buffered input ran out before a value was
	// complete: in pull mode after the byte producer signaled end-of-stream,
	// in push mode as soon as the fed bytes are used up. Resumable: feeding
	// or producing more bytes and calling again is valid.
	ErrOutOfData = errors.New("msgpack: out of data")

	// ErrStopIteration is the iterator-protocol spelling of ErrOutOfData:
	// Decoder.Next returns it wherever UnpackOne would return ErrOutOfData,
	// at a value boundary or mid-value alike.
	ErrStopIteration = errors.New("msgpack: stop iteration")

	// ErrBufferFull means the required buffer capacity would exceed
	// MaxBufferSize.
	ErrBufferFull = errors.New("msgpack: buffer full")

	// ErrUnrecognizedTag means a byte value not in the wire tag table
	// appeared where a tag was expected. Not resumable: the decoder is left
	// in an unspecified state.
	ErrUnrecognizedTag = errors.New("msgpack: unrecognized tag")

	// ErrInvalidPayload means a malformed scalar (e.g. a text decode error
	// under the strict policy). Not resumable.
	ErrInvalidPayload = errors.New("msgpack: invalid payload")

	// ErrConfig means mutually exclusive hooks were both set, ReadSize
	// exceeds MaxBufferSize, or Feed was called on a producer-backed decoder.
	ErrConfig = errors.New("msgpack: invalid configuration")

	// ErrAllocationFailed means buffer growth could not allocate. Not
	// resumable.
	ErrAllocationFailed = errors.New("msgpack: allocation failed")
)

// ExtraDataError is returned by the one-shot Decode when the input has
// trailing bytes after one complete value. It carries both the decoded
// value and the unconsumed remainder.
type ExtraDataError struct {
	Value     Value
	Remainder []byte
}

func (e *ExtraDataError) Error() string {
	return fmt.Sprintf("msgpack: extra data: %d trailing byte(s)", len(e.Remainder))
}

// HookError wraps a panic recovered from a user-supplied hook. The
// underlying failure is preserved and reachable via errors.Unwrap.
type HookError struct{ cause error }

func newHookError(recovered any) *HookError {
	if err, ok := recovered.(error); ok {
		return &HookError{cause: pkgerrors.Wrap(err, "msgpack: hook failed")}
	}
	return &HookError{cause: pkgerrors.Errorf("msgpack: hook failed: %v", recovered)}
}

func (e *HookError) Error() string { return e.cause.Error() }
func (e *HookError) Unwrap() error { return e.cause }

// ConfigError reports an invalid Option combination or value, with the
// offending option named. errors.Is(err, ErrConfig) holds for any
// ConfigError.
type ConfigError struct{ cause error }

func newConfigError(format string, args ...any) *ConfigError {
	return &ConfigError{cause: pkgerrors.Wrapf(ErrConfig, format, args...)}
}

func (e *ConfigError) Error() string { return e.cause.Error() }
func (e *ConfigError) Unwrap() error { return ErrConfig }

// AllocationError reports a buffer-growth allocation failure together with
// the size that was requested. errors.Is(err, ErrAllocationFailed) holds.
type AllocationError struct {
	Requested int
	cause     error
}

func newAllocationError(requested int) *AllocationError {
	return &AllocationError{
		Requested: requested,
		cause:     pkgerrors.Wrapf(ErrAllocationFailed, "requested %d byte(s)", requested),
	}
}

func (e *AllocationError) Error() string { return e.cause.Error() }
func (e *AllocationError) Unwrap() error { return ErrAllocationFailed }

// wrapf attaches context to a sentinel error while keeping it discoverable
// via errors.Is(result, base).
func wrapf(base error, format string, args ...any) error {
	return pkgerrors.Wrapf(base, format, args...)
}
