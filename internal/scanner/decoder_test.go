package scanner

import (
	"bytes"
	"image"
	_ "image/png"
	"testing"

	qrcode "github.com/skip2/go-qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func qrFrame(t *testing.T, payload string) Frame {
	t.Helper()
	png, err := qrcode.Encode(payload, qrcode.Medium, 256)
	require.NoError(t, err)
	img, _, err := image.Decode(bytes.NewReader(png))
	require.NoError(t, err)
	return FrameFromImage(img)
}

func TestQRDecoderRoundTrip(t *testing.T) {
	payload := "QR-1700000000000-a1b2c3"
	frame := qrFrame(t, payload)

	decoded, ok := NewQRDecoder().Decode(frame)
	require.True(t, ok)
	assert.Equal(t, payload, decoded)
}

func TestQRDecoderBlankFrame(t *testing.T) {
	frame := Frame{Width: 100, Height: 100, Pixels: make([]byte, 100*100*4)}
	for i := range frame.Pixels {
		frame.Pixels[i] = 0xff
	}

	_, ok := NewQRDecoder().Decode(frame)
	assert.False(t, ok)
}

func TestQRDecoderRejectsMalformedFrame(t *testing.T) {
	_, ok := NewQRDecoder().Decode(Frame{})
	assert.False(t, ok)

	_, ok = NewQRDecoder().Decode(Frame{Width: 10, Height: 10, Pixels: make([]byte, 8)})
	assert.False(t, ok)
}

func TestDecodeImageFromGeneratedCode(t *testing.T) {
	png, err := qrcode.Encode("QR-123", qrcode.Medium, 128)
	require.NoError(t, err)
	img, _, err := image.Decode(bytes.NewReader(png))
	require.NoError(t, err)

	decoded, ok := DecodeImage(img)
	require.True(t, ok)
	assert.Equal(t, "QR-123", decoded)
}
