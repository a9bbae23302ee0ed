package hal

import (
	"context"
	"fmt"
	"time"
)

// DefaultLockTimeout bounds how long a caller waits for exclusive
// access to a shared converter before giving up.
const DefaultLockTimeout = 100 * time.Millisecond

// SharedADC serializes access to one ADC unit shared by several
// drivers. Acquisition is bounded: a caller that cannot get the unit
// within the timeout receives ErrLockTimeout instead of blocking its
// loop indefinitely.
//
// Thread Safety:
//   - All methods are safe for concurrent use; that is the point.
type SharedADC struct {
	adc     ADC
	timeout time.Duration
	sem     chan struct{}
}

// NewSharedADC wraps adc with bounded mutual exclusion. A timeout of
// zero or less selects DefaultLockTimeout.
func NewSharedADC(adc ADC, timeout time.Duration) *SharedADC {
	if timeout <= 0 {
		timeout = DefaultLockTimeout
	}
	return &SharedADC{
		adc:     adc,
		timeout: timeout,
		sem:     make(chan struct{}, 1),
	}
}

// Acquire takes the unit or fails with ErrLockTimeout. The returned
// release must be called exactly once.
func (s *SharedADC) Acquire(ctx context.Context) (func(), error) {
	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case s.sem <- struct{}{}:
		return func() { <-s.sem }, nil
	case <-timer.C:
		return nil, fmt.Errorf("%w: after %v", ErrLockTimeout, s.timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// SampleAveraged holds the unit for the duration of one averaged read.
func (s *SharedADC) SampleAveraged(ctx context.Context, channel, count int) (float64, error) {
	release, err := s.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer release()

	return SampleAveraged(ctx, s.adc, channel, count)
}
