package hal

import (
	"context"
	"sync"
)

// SimADC is a settable, jitter-free converter used by tests and the
// hosted (no real hardware) configuration.
type SimADC struct {
	mu     sync.Mutex
	counts map[int]int
	err    error
}

// NewSimADC creates a simulator with all channels reading zero.
func NewSimADC() *SimADC {
	return &SimADC{counts: make(map[int]int)}
}

// SetChannel fixes the raw count returned for a channel.
func (s *SimADC) SetChannel(channel, raw int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[channel] = raw
}

// SetError makes every subsequent Sample fail with err; nil clears it.
func (s *SimADC) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Sample implements ADC.
func (s *SimADC) Sample(ctx context.Context, channel int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	return s.counts[channel], nil
}

// SimProbe is a settable temperature probe.
type SimProbe struct {
	mu   sync.Mutex
	temp float64
	err  error
}

// NewSimProbe creates a probe reading temp degrees Celsius.
func NewSimProbe(temp float64) *SimProbe {
	return &SimProbe{temp: temp}
}

// SetTemperature fixes the reading.
func (p *SimProbe) SetTemperature(temp float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.temp = temp
}

// SetError makes every subsequent read fail with err; nil clears it.
func (p *SimProbe) SetError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// ReadTemperature implements TemperatureProbe.
func (p *SimProbe) ReadTemperature(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return 0, p.err
	}
	return p.temp, nil
}
