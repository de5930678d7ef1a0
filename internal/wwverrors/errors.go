// Package wwverrors defines the error taxonomy shared by every component on
// the sample path, so callers can dispatch on errors.Is rather than string
// matching.
package wwverrors

import "errors"

var (
	// ErrInvalidArgument means a constructor or setter received a
	// nonsensical parameter. The caller retains its prior state.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrBufferFull means an internal ring or intermediate buffer
	// overflowed. The caller may resize and retry.
	ErrBufferFull = errors.New("buffer full")

	// ErrUpstreamReset means the inbound frame header carried the
	// discontinuity flag. Decimator and detector state must reset.
	ErrUpstreamReset = errors.New("upstream reset")

	// ErrTransient means a single rejected pulse or out-of-band
	// interval. Logged at the correlator level; does not unlock sync.
	ErrTransient = errors.New("transient rejection")

	// ErrQualityWarning means the fast-path and slow-path epoch
	// estimates disagree by more than the tolerance. Sync stays locked.
	ErrQualityWarning = errors.New("signal quality warning")

	// ErrLockLost means repeated expected-tick misses forced a
	// LOCKED -> ACQUIRING transition.
	ErrLockLost = errors.New("lock lost")
)
