package scanner

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"context"

	"go.uber.org/zap"
)

var (
	// ErrAlreadyStarted is returned when Start is called twice
	ErrAlreadyStarted = errors.New("capture loop already started")
	// ErrStopped is returned when Start is called after Stop
	ErrStopped = errors.New("capture loop stopped")
)

const defaultSampleInterval = 300 * time.Millisecond

// CaptureLoop owns the frame source for its lifetime and samples it on a
// fixed cadence, handing each frame to the decoder and forwarding decoded
// payloads to the session. The source is released on every exit path.
type CaptureLoop struct {
	source   FrameSource
	decoder  Decoder
	session  *Session
	interval time.Duration
	log      *zap.Logger

	mu      sync.Mutex
	started bool
	stopped bool
	stop    chan struct{}
	done    chan struct{}
}

// NewCaptureLoop creates a CaptureLoop sampling at the given interval
func NewCaptureLoop(source FrameSource, decoder Decoder, session *Session, interval time.Duration, log *zap.Logger) *CaptureLoop {
	if interval <= 0 {
		interval = defaultSampleInterval
	}
	return &CaptureLoop{
		source:   source,
		decoder:  decoder,
		session:  session,
		interval: interval,
		log:      log,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start acquires the frame source and begins sampling in the background.
// When acquisition fails the session transitions to its error state and the
// failure is returned; the automatic path is then over, but the session's
// manual path stays available.
func (l *CaptureLoop) Start(ctx context.Context) error {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return ErrStopped
	}
	if l.started {
		l.mu.Unlock()
		return ErrAlreadyStarted
	}
	l.started = true
	l.mu.Unlock()

	if err := l.source.Open(ctx); err != nil {
		err = fmt.Errorf("camera unavailable: %w", err)
		l.session.Fail(err)
		close(l.done)
		return err
	}

	l.mu.Lock()
	if l.stopped {
		// Stop raced the open; release immediately
		l.mu.Unlock()
		_ = l.source.Close()
		close(l.done)
		return ErrStopped
	}
	l.mu.Unlock()

	l.session.Ready()
	go l.run(ctx)
	return nil
}

func (l *CaptureLoop) run(ctx context.Context) {
	defer close(l.done)
	defer func() {
		if err := l.source.Close(); err != nil {
			l.log.Warn("frame source close failed", zap.Error(err))
		}
	}()

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-l.stop:
			return
		case <-ticker.C:
			frame, err := l.source.Frame(ctx)
			if err != nil {
				// a bad sample is noise; keep scanning
				continue
			}
			payload, ok := l.decoder.Decode(frame)
			if !ok {
				continue
			}
			l.session.Offer(ctx, payload)
		}
	}
}

// Stop halts sampling and releases the frame source. Idempotent, and safe
// to call before Start or while Start is still opening the source.
func (l *CaptureLoop) Stop() {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	l.stopped = true
	started := l.started
	close(l.stop)
	l.mu.Unlock()

	if !started {
		_ = l.source.Close()
		return
	}
	<-l.done
}
