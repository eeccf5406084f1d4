// Package audio hosts the voice capture and playback state machines that
// feed text into and read replies out of the conversational assistant. The
// two machines transition independently, but the controller enforces one
// global rule: at most one playback stream is active at any instant.
package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-assistant/internal/domain"
)

// SampleRate is the PCM sample rate of synthesized speech: 16-bit
// little-endian mono at 24 kHz.
const SampleRate = 24000

// PlaybackRate is the fixed speed multiplier applied to every stream. It is
// not configurable per message.
const PlaybackRate = 1.25

// CaptureState is the voice capture machine's state.
type CaptureState int

const (
	CaptureIdle CaptureState = iota
	CaptureRecording
	CaptureTranscribing
)

func (s CaptureState) String() string {
	switch s {
	case CaptureIdle:
		return "idle"
	case CaptureRecording:
		return "recording"
	case CaptureTranscribing:
		return "transcribing"
	default:
		return fmt.Sprintf("capture(%d)", int(s))
	}
}

// PlaybackState is the playback machine's state for the active message.
type PlaybackState int

const (
	PlaybackIdle PlaybackState = iota
	PlaybackPlaying
	PlaybackPaused
)

func (s PlaybackState) String() string {
	switch s {
	case PlaybackIdle:
		return "idle"
	case PlaybackPlaying:
		return "playing"
	case PlaybackPaused:
		return "paused"
	default:
		return fmt.Sprintf("playback(%d)", int(s))
	}
}

var (
	// ErrPermissionDenied is returned by Recorder implementations when
	// microphone access is refused. The capture machine stays Idle.
	ErrPermissionDenied = errors.New("audio: microphone permission denied")

	// ErrBusy is returned when a submission arrives while the capture
	// machine is Recording or Transcribing.
	ErrBusy = errors.New("audio: capture in progress")
)

// Recorder acquires the microphone and produces one encoded clip per
// recording. Stop flushes everything captured since Start; there is no
// partial or streaming hand-off.
type Recorder interface {
	RequestPermission(ctx context.Context) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) (data []byte, mimeType string, err error)
}

// Transcriber converts an encoded clip to text. "" means nothing intelligible.
type Transcriber interface {
	Transcribe(ctx context.Context, data []byte, mimeType string) (string, error)
}

// Synthesizer renders text to a PCM sample buffer. nil means no audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Stream is one active occupancy of the audio output graph. NewStream starts
// playback immediately; Stop releases the underlying resource, after which
// the stream is not reusable.
type Stream interface {
	Pause()
	Resume()
	Stop()
	// Done is closed when playback reaches the natural end of the audio.
	Done() <-chan struct{}
}

// Output is the audio output graph. Ownership of the graph transfers with
// each NewStream call; the controller releases the previous stream first.
type Output interface {
	NewStream(pcm []byte, rate float64) (Stream, error)
}

// Submitter accepts a user message for a conversational turn.
type Submitter interface {
	HandleMessage(ctx context.Context, text string) (domain.ChatMessage, error)
}

// ClipArchiver receives captured clips for retention. May be nil.
type ClipArchiver interface {
	Enqueue(data []byte, mimeType string)
}

// Controller owns both sub-machines. All methods are safe for concurrent
// use; external calls are made with the lock released so a stalled
// collaborator cannot wedge state reads.
type Controller struct {
	mu       sync.Mutex
	capture  CaptureState
	starting bool // permission request in flight

	playback        PlaybackState
	activeMessageID string
	active          Stream
	streamSeq       uint64 // invalidates watchers of released streams

	recorder    Recorder
	transcriber Transcriber
	synthesizer Synthesizer
	output      Output
	submitter   Submitter
	archive     ClipArchiver
	log         zerolog.Logger

	sessionCtx context.Context
	cancel     context.CancelFunc
}

// NewController wires a controller from its collaborators. archive may be
// nil when clip retention is disabled.
func NewController(rec Recorder, tr Transcriber, syn Synthesizer, out Output, sub Submitter, archive ClipArchiver, log zerolog.Logger) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		recorder:    rec,
		transcriber: tr,
		synthesizer: syn,
		output:      out,
		submitter:   sub,
		archive:     archive,
		log:         log,
		sessionCtx:  ctx,
		cancel:      cancel,
	}
}

// callContext scopes an external call to both the caller's context and the
// controller session, so Close cancels outstanding calls.
func (c *Controller) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(c.sessionCtx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// CaptureState returns the capture machine's current state.
func (c *Controller) CaptureState() CaptureState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capture
}

// PlaybackStatus returns the playback state and the active message id
// (empty when idle).
func (c *Controller) PlaybackStatus() (PlaybackState, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playback, c.activeMessageID
}

// StartRecording moves the capture machine Idle -> Recording, gated on a
// granted microphone permission. Starting while already Recording or
// Transcribing is a no-op. On permission denial the machine stays Idle and
// the error is surfaced to the caller.
func (c *Controller) StartRecording(ctx context.Context) error {
	c.mu.Lock()
	if c.capture != CaptureIdle || c.starting {
		c.mu.Unlock()
		return nil
	}
	c.starting = true
	c.mu.Unlock()

	ctx, cancel := c.callContext(ctx)
	defer cancel()

	if err := c.recorder.RequestPermission(ctx); err != nil {
		c.mu.Lock()
		c.starting = false
		c.mu.Unlock()
		c.log.Warn().Err(err).Msg("Microphone permission refused")
		return fmt.Errorf("StartRecording: %w", err)
	}
	if err := c.recorder.Start(ctx); err != nil {
		c.mu.Lock()
		c.starting = false
		c.mu.Unlock()
		return fmt.Errorf("StartRecording: %w", err)
	}

	c.mu.Lock()
	c.starting = false
	c.capture = CaptureRecording
	c.mu.Unlock()
	return nil
}

// StopRecording flushes the captured samples into one encoded clip,
// transcribes it and returns the text ("" when nothing was understood).
// Whatever the transcription outcome, the machine ends up Idle. Stopping
// while not Recording is a no-op.
func (c *Controller) StopRecording(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.capture != CaptureRecording {
		c.mu.Unlock()
		return "", nil
	}
	c.capture = CaptureTranscribing
	c.mu.Unlock()

	// The machine returns to Idle unconditionally once we're done here.
	defer func() {
		c.mu.Lock()
		c.capture = CaptureIdle
		c.mu.Unlock()
	}()

	ctx, cancel := c.callContext(ctx)
	defer cancel()

	data, mimeType, err := c.recorder.Stop(ctx)
	if err != nil {
		return "", fmt.Errorf("StopRecording: flushing clip: %w", err)
	}
	if len(data) == 0 {
		return "", nil
	}

	if c.archive != nil {
		c.archive.Enqueue(data, mimeType)
	}

	text, err := c.transcriber.Transcribe(ctx, data, mimeType)
	if err != nil {
		return "", fmt.Errorf("StopRecording: transcribing: %w", err)
	}
	return text, nil
}

// Submit forwards text to the assistant. Submission is disabled while the
// capture machine is Recording or Transcribing; the controller, not the
// caller, enforces that exclusion.
func (c *Controller) Submit(ctx context.Context, text string) (domain.ChatMessage, error) {
	c.mu.Lock()
	if c.capture != CaptureIdle {
		c.mu.Unlock()
		return domain.ChatMessage{}, ErrBusy
	}
	c.mu.Unlock()

	return c.submitter.HandleMessage(ctx, text)
}

// Play starts, pauses or resumes playback for a message. For the currently
// active message it toggles Playing <-> Paused, preserving position. For any
// other message it first forces the active stream to Idle (releasing its
// resource), then re-synthesizes the text and starts a fresh stream; prior
// synthesis results are never reused. If synthesis yields no audio, playback
// stays Idle.
func (c *Controller) Play(ctx context.Context, msg domain.ChatMessage) error {
	c.mu.Lock()
	if c.activeMessageID == msg.ID && c.active != nil {
		switch c.playback {
		case PlaybackPlaying:
			c.active.Pause()
			c.playback = PlaybackPaused
			c.mu.Unlock()
			return nil
		case PlaybackPaused:
			c.active.Resume()
			c.playback = PlaybackPlaying
			c.mu.Unlock()
			return nil
		}
	}
	// Release before acquire: the old stream must be gone before the new
	// one can own the output graph.
	c.releaseLocked()
	c.mu.Unlock()

	ctx, cancel := c.callContext(ctx)
	defer cancel()

	pcm, err := c.synthesizer.Synthesize(ctx, msg.Content)
	if err != nil {
		return fmt.Errorf("Play: synthesize: %w", err)
	}
	if len(pcm) == 0 {
		c.log.Debug().Str("message_id", msg.ID).Msg("Synthesis returned no audio")
		return nil
	}

	stream, err := c.output.NewStream(pcm, PlaybackRate)
	if err != nil {
		return fmt.Errorf("Play: opening stream: %w", err)
	}

	c.mu.Lock()
	// A concurrent Play may have installed a stream while we were
	// synthesizing; it loses ownership here.
	c.releaseLocked()
	c.streamSeq++
	seq := c.streamSeq
	c.active = stream
	c.activeMessageID = msg.ID
	c.playback = PlaybackPlaying
	c.mu.Unlock()

	go c.watchStream(seq, stream)
	return nil
}

// watchStream returns the machine to Idle when the stream reaches its
// natural end, unless the stream was already replaced or released.
func (c *Controller) watchStream(seq uint64, s Stream) {
	select {
	case <-s.Done():
		c.mu.Lock()
		if c.streamSeq == seq && c.active == s {
			c.releaseLocked()
		}
		c.mu.Unlock()
	case <-c.sessionCtx.Done():
	}
}

// StopPlayback forces the playback machine to Idle and releases the stream.
func (c *Controller) StopPlayback() {
	c.mu.Lock()
	c.releaseLocked()
	c.mu.Unlock()
}

// releaseLocked stops and discards the active stream. Callers hold c.mu.
func (c *Controller) releaseLocked() {
	if c.active != nil {
		c.active.Stop()
		c.active = nil
	}
	c.activeMessageID = ""
	c.playback = PlaybackIdle
}

// Close tears the session down: outstanding external calls are cancelled
// and the audio resource is released deterministically.
func (c *Controller) Close() {
	c.cancel()
	c.mu.Lock()
	c.releaseLocked()
	c.mu.Unlock()
}
