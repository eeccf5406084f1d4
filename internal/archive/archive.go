// Package archive persists captured voice clips to a storage bucket in the
// background, off the capture path. Archiving is best effort: a failed or
// dropped upload never blocks or fails a recording.
package archive

import (
	"context"
	"fmt"
	"path"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Clip is one captured voice recording queued for upload.
type Clip struct {
	ID       string
	Data     []byte
	MIMEType string
	Captured time.Time
}

// Uploader stores an encoded clip under the given object name.
type Uploader interface {
	Upload(ctx context.Context, objectName string, data []byte, mimeType string) error
}

// Archiver fans queued clips out to a fixed set of upload workers over a
// buffered channel. When the buffer is full the clip is dropped and logged,
// never blocked on.
type Archiver struct {
	uploader Uploader
	clipChan chan Clip
	stopChan chan struct{}
	wg       sync.WaitGroup
	mu       sync.RWMutex
	closed   bool
	log      zerolog.Logger
}

// NewArchiver creates an archiver with the given queue depth and worker
// count and starts its workers.
func NewArchiver(uploader Uploader, bufferSize, workerCount int, log zerolog.Logger) *Archiver {
	if bufferSize <= 0 {
		bufferSize = 16
	}
	if workerCount <= 0 {
		workerCount = 2
	}

	a := &Archiver{
		uploader: uploader,
		clipChan: make(chan Clip, bufferSize),
		stopChan: make(chan struct{}),
		log:      log,
	}
	for i := 0; i < workerCount; i++ {
		a.wg.Add(1)
		go a.worker()
	}
	return a
}

// Enqueue queues a clip for upload and returns immediately. The data slice
// is copied so the caller may reuse its buffer.
func (a *Archiver) Enqueue(data []byte, mimeType string) {
	if len(data) == 0 {
		return
	}

	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return
	}

	clip := Clip{
		ID:       uuid.New().String(),
		Data:     append([]byte(nil), data...),
		MIMEType: mimeType,
		Captured: time.Now(),
	}

	select {
	case a.clipChan <- clip:
	default:
		a.log.Warn().
			Str("clip_id", clip.ID).
			Int("size_bytes", len(clip.Data)).
			Msg("Archive queue full, dropping clip")
	}
}

func (a *Archiver) worker() {
	defer a.wg.Done()

	for {
		select {
		case <-a.stopChan:
			// Drain whatever is already queued before exiting.
			for {
				select {
				case clip := <-a.clipChan:
					a.upload(clip)
				default:
					return
				}
			}
		case clip := <-a.clipChan:
			a.upload(clip)
		}
	}
}

func (a *Archiver) upload(clip Clip) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	objectName := ObjectName(clip)
	if err := a.uploader.Upload(ctx, objectName, clip.Data, clip.MIMEType); err != nil {
		a.log.Error().Err(err).
			Str("clip_id", clip.ID).
			Str("object", objectName).
			Msg("Failed to archive voice clip")
		return
	}

	a.log.Info().
		Str("clip_id", clip.ID).
		Str("object", objectName).
		Int("size_bytes", len(clip.Data)).
		Msg("Voice clip archived")
}

// ObjectName derives the bucket object path for a clip, partitioned by
// capture date: voice-clips/2006/01/02/<uuid>.<ext>.
func ObjectName(clip Clip) string {
	return path.Join(
		"voice-clips",
		clip.Captured.UTC().Format("2006/01/02"),
		clip.ID+extensionFor(clip.MIMEType),
	)
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "audio/webm":
		return ".webm"
	case "audio/ogg":
		return ".ogg"
	case "audio/mp4":
		return ".m4a"
	case "audio/wav", "audio/x-wav":
		return ".wav"
	default:
		return ".bin"
	}
}

// Stop closes the queue and waits for in-flight uploads, bounded by ctx.
func (a *Archiver) Stop(ctx context.Context) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	close(a.stopChan)
	a.mu.Unlock()

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("Stop: %w", ctx.Err())
	}
}
