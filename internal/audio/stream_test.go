package audio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

func TestClockStream_NaturalEnd(t *testing.T) {
	out := NewClockOutput()

	// 480 samples = 20ms at 24kHz, ~16ms at 1.25x.
	s, err := out.NewStream(make([]byte, 960), PlaybackRate)
	require.NoError(t, err)

	select {
	case <-s.Done():
	case <-time.After(waitFor):
		t.Fatal("stream never reached its natural end")
	}
}

func TestClockStream_PauseHoldsPosition(t *testing.T) {
	out := NewClockOutput()

	s, err := out.NewStream(make([]byte, 960), 1.0)
	require.NoError(t, err)
	s.Pause()

	select {
	case <-s.Done():
		t.Fatal("paused stream must not finish")
	case <-time.After(100 * time.Millisecond):
	}

	s.Resume()
	select {
	case <-s.Done():
	case <-time.After(waitFor):
		t.Fatal("resumed stream never finished")
	}
}

func TestClockStream_StopIsIdempotent(t *testing.T) {
	out := NewClockOutput()

	s, err := out.NewStream(make([]byte, 96000), 1.0)
	require.NoError(t, err)
	s.Stop()
	s.Stop()

	select {
	case <-s.Done():
	default:
		t.Fatal("stopped stream must report done")
	}
}

func TestClockOutput_RejectsNonPositiveRate(t *testing.T) {
	out := NewClockOutput()
	_, err := out.NewStream(make([]byte, 960), 0)
	assert.Error(t, err)
}
