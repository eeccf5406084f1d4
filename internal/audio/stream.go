package audio

import (
	"fmt"
	"sync"
	"time"
)

// ClockOutput is an Output that models the audio graph as a wall clock: a
// stream "plays" for the real duration of its samples at the given rate.
// The actual device rendering lives outside this core; the clock keeps the
// state machine honest about position, pause/resume and natural end.
type ClockOutput struct{}

// NewClockOutput creates a clock-backed output graph.
func NewClockOutput() *ClockOutput {
	return &ClockOutput{}
}

// NewStream starts a stream for a 16-bit mono PCM buffer at SampleRate.
func (o *ClockOutput) NewStream(pcm []byte, rate float64) (Stream, error) {
	if rate <= 0 {
		return nil, fmt.Errorf("NewStream: rate must be positive, got %v", rate)
	}
	samples := len(pcm) / 2
	natural := time.Duration(float64(samples) / float64(SampleRate) * float64(time.Second))
	duration := time.Duration(float64(natural) / rate)

	s := &clockStream{
		remaining: duration,
		started:   time.Now(),
		done:      make(chan struct{}),
	}
	s.timer = time.AfterFunc(duration, s.finish)
	return s, nil
}

// clockStream tracks elapsed playback time so a paused stream resumes from
// the exact suspended position.
type clockStream struct {
	mu        sync.Mutex
	remaining time.Duration
	started   time.Time
	paused    bool
	closed    bool
	timer     *time.Timer
	done      chan struct{}
}

func (s *clockStream) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.paused || s.closed {
		return
	}
	s.timer.Stop()
	s.remaining -= time.Since(s.started)
	if s.remaining < 0 {
		s.remaining = 0
	}
	s.paused = true
}

func (s *clockStream) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.paused || s.closed {
		return
	}
	s.paused = false
	s.started = time.Now()
	s.timer.Reset(s.remaining)
}

func (s *clockStream) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.timer.Stop()
	s.closed = true
	close(s.done)
}

func (s *clockStream) finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.done)
}

func (s *clockStream) Done() <-chan struct{} {
	return s.done
}

var _ Output = (*ClockOutput)(nil)
