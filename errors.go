// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package xchan

import (
	"errors"

	"code.hybscloud.com/iox"
)

// Status is the tagged result of a send or receive operation. Every
// operation returns a Status rather than raising; callers discriminate by
// tag (spec: "Errors are values, not exceptions").
type Status uint8

const (
	// StatusOk indicates the operation completed with a value.
	StatusOk Status = iota
	// StatusEmpty indicates a try-only receive found the buffer empty
	// but the channel still open.
	StatusEmpty
	// StatusFull indicates a try-only send found a bounded Block-policy
	// buffer at capacity.
	StatusFull
	// StatusDisconnected indicates the buffer is drained and every
	// sender (for a receive) or every receiver (for a send) has gone.
	StatusDisconnected
	// StatusTimeout indicates a deadline elapsed before the operation
	// completed.
	StatusTimeout
	// StatusCanceled indicates the caller's context was canceled before
	// the operation completed.
	StatusCanceled
	// StatusLagged indicates a broadcast subscriber's cursor fell more
	// than one ring-length behind the publisher; RecvResult.Skipped
	// reports how many values were skipped.
	StatusLagged
)

// String renders the Status for logs and test failure messages.
func (s Status) String() string {
	switch s {
	case StatusOk:
		return "Ok"
	case StatusEmpty:
		return "Empty"
	case StatusFull:
		return "Full"
	case StatusDisconnected:
		return "Disconnected"
	case StatusTimeout:
		return "Timeout"
	case StatusCanceled:
		return "Canceled"
	case StatusLagged:
		return "Lagged"
	default:
		return "Unknown"
	}
}

// RecvResult is the outcome of a receive operation.
type RecvResult[T any] struct {
	Value   T
	Status  Status
	// Skipped is valid when Status == StatusLagged, and also on the
	// StatusDisconnected a broadcast Subscriber yields when it was
	// created after its Publisher closed (spec.md's broadcast/close race
	// resolution): there, Skipped carries the subscriber's birth cursor,
	// i.e. the full backlog it never had a chance to read.
	Skipped uint64
}

// Ok reports whether the receive yielded a value.
func (r RecvResult[T]) Ok() bool { return r.Status == StatusOk }

// Disconnected reports whether the channel is drained and closed.
func (r RecvResult[T]) Disconnected() bool { return r.Status == StatusDisconnected }

// HasValue is an alias for Ok kept for parity with spec.md's predicate
// list (isOk, isDisconnected, hasValue).
func (r RecvResult[T]) HasValue() bool { return r.Ok() }

func recvOk[T any](v T) RecvResult[T] { return RecvResult[T]{Value: v, Status: StatusOk} }

func recvStatus[T any](s Status) RecvResult[T] { return RecvResult[T]{Status: s} }

func recvLagged[T any](skipped uint64) RecvResult[T] {
	return RecvResult[T]{Status: StatusLagged, Skipped: skipped}
}

// SendResult is the outcome of a send operation.
type SendResult struct {
	Status Status
}

// Ok reports whether the value was accepted (stored or, for the Newest
// drop policy, deliberately discarded — every drop policy reports Ok
// regardless, per spec.md §4.3).
func (r SendResult) Ok() bool { return r.Status == StatusOk }

// Disconnected reports whether the channel had no receivers left.
func (r SendResult) Disconnected() bool { return r.Status == StatusDisconnected }

func sendStatus(s Status) SendResult { return SendResult{Status: s} }

var sendOk = SendResult{Status: StatusOk}

// Sentinel errors for call sites that prefer an idiomatic error return
// (via StatusErr, as package bridge does). These are errors.Is-compatible
// and, for the would-block family, delegate to code.hybscloud.com/iox the
// same way the teacher's ErrWouldBlock does.
var (
	// ErrClosed names a closed sender or receiver handle. No operation
	// in this package returns it: a handle keeps forwarding to its
	// channel after Close, and StatusErr never maps a Status to it.
	ErrClosed = errors.New("xchan: handle closed")
	// ErrDisconnected mirrors StatusDisconnected as an error value.
	ErrDisconnected = errors.New("xchan: disconnected")
	// ErrFull mirrors StatusFull as an error value. Aliases
	// iox.ErrWouldBlock for ecosystem consistency with the teacher
	// package's try-only queues.
	ErrFull = iox.ErrWouldBlock
	// ErrEmpty mirrors StatusEmpty as an error value. Aliases
	// iox.ErrWouldBlock, the same as ErrFull — both are "would block"
	// from iox's perspective; Status disambiguates direction.
	ErrEmpty = iox.ErrWouldBlock
	// ErrTimeout mirrors StatusTimeout as an error value.
	ErrTimeout = errors.New("xchan: timeout")
	// ErrCanceled mirrors StatusCanceled as an error value.
	ErrCanceled = errors.New("xchan: canceled")
)

// IsWouldBlock reports whether err indicates a try-only operation would
// block (full or empty). Delegates to [iox.IsWouldBlock].
func IsWouldBlock(err error) bool {
	return iox.IsWouldBlock(err)
}

// StatusErr converts a terminal Status into the matching sentinel error,
// or nil for StatusOk. Exported for callers outside this package (e.g.
// package bridge's RPC helper) that need an idiomatic error return from a
// RecvResult/SendResult's Status.
func StatusErr(s Status) error { return statusErr(s) }

// statusErr converts a terminal Status into the matching sentinel error,
// or nil for StatusOk. Backs the exported StatusErr.
func statusErr(s Status) error {
	switch s {
	case StatusOk:
		return nil
	case StatusFull:
		return ErrFull
	case StatusEmpty:
		return ErrEmpty
	case StatusDisconnected:
		return ErrDisconnected
	case StatusTimeout:
		return ErrTimeout
	case StatusCanceled:
		return ErrCanceled
	default:
		return errors.New("xchan: " + s.String())
	}
}
