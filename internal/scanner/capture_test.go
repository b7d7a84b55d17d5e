package scanner

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubSource serves the same frame on every sample and counts Close calls
type stubSource struct {
	openErr  error
	frameErr error
	frame    Frame
	opens    atomic.Int32
	closes   atomic.Int32
}

func (s *stubSource) Open(ctx context.Context) error {
	s.opens.Add(1)
	return s.openErr
}

func (s *stubSource) Frame(ctx context.Context) (Frame, error) {
	if s.frameErr != nil {
		return Frame{}, s.frameErr
	}
	return s.frame, nil
}

func (s *stubSource) Close() error {
	s.closes.Add(1)
	return nil
}

// stubDecoder reports a fixed payload for every frame
type stubDecoder struct {
	payload string
}

func (d *stubDecoder) Decode(frame Frame) (string, bool) {
	if d.payload == "" {
		return "", false
	}
	return d.payload, true
}

func newTestLoop(source FrameSource, payload string) (*CaptureLoop, *Session, *fakeValidator) {
	v := newFakeValidator(testProduct())
	session := NewSession(Config{DebounceWindow: time.Millisecond}, v, zap.NewNop())
	loop := NewCaptureLoop(source, &stubDecoder{payload: payload}, session, time.Millisecond, zap.NewNop())
	return loop, session, v
}

func TestCaptureLoopDeliversDecodedPayload(t *testing.T) {
	source := &stubSource{}
	loop, session, _ := newTestLoop(source, "QR-123")
	defer session.Close()

	require.NoError(t, loop.Start(context.Background()))
	waitForState(t, session, StateReady)
	ev := waitForState(t, session, StateDetected)
	assert.Equal(t, "QR-123", ev.Payload)

	loop.Stop()
	assert.Equal(t, int32(1), source.closes.Load(), "source released on stop")
}

func TestCaptureLoopOpenFailureFailsSession(t *testing.T) {
	source := &stubSource{openErr: errors.New("device busy")}
	loop, session, _ := newTestLoop(source, "")
	defer session.Close()

	err := loop.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "camera unavailable")

	ev := waitForState(t, session, StateError)
	assert.Error(t, ev.Err)

	// manual entry survives a capture failure
	require.NoError(t, session.EnterManual())
	loop.Stop()
}

func TestCaptureLoopSkipsBadSamples(t *testing.T) {
	source := &stubSource{frameErr: errors.New("read timeout")}
	loop, session, v := newTestLoop(source, "QR-123")
	defer session.Close()

	require.NoError(t, loop.Start(context.Background()))
	time.Sleep(20 * time.Millisecond)
	loop.Stop()

	assert.Equal(t, StateReady, session.State())
	assert.Zero(t, v.callCount())
}

func TestCaptureLoopStartTwice(t *testing.T) {
	source := &stubSource{}
	loop, session, _ := newTestLoop(source, "")
	defer session.Close()

	require.NoError(t, loop.Start(context.Background()))
	assert.ErrorIs(t, loop.Start(context.Background()), ErrAlreadyStarted)
	loop.Stop()
}

func TestCaptureLoopStopBeforeStart(t *testing.T) {
	source := &stubSource{}
	loop, session, _ := newTestLoop(source, "")
	defer session.Close()

	loop.Stop()
	loop.Stop() // idempotent
	assert.ErrorIs(t, loop.Start(context.Background()), ErrStopped)
	assert.Zero(t, source.opens.Load())
}

func TestCaptureLoopStopsOnContextCancel(t *testing.T) {
	source := &stubSource{}
	loop, session, _ := newTestLoop(source, "")
	defer session.Close()

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, loop.Start(ctx))
	cancel()

	// Stop must not hang after the context already unwound the loop
	done := make(chan struct{})
	go func() {
		loop.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop hung after context cancellation")
	}
	assert.Equal(t, int32(1), source.closes.Load())
}
