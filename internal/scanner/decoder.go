package scanner

import (
	"image"

	"github.com/makiuchi-d/gozxing"
	zxqrcode "github.com/makiuchi-d/gozxing/qrcode"
)

// Decoder converts a raw frame into zero-or-one decoded payloads. Pure;
// implementations must be swappable without touching the session.
type Decoder interface {
	Decode(f Frame) (string, bool)
}

// QRDecoder decodes QR codes from frames using zxing
type QRDecoder struct{}

// NewQRDecoder creates a QRDecoder
func NewQRDecoder() *QRDecoder {
	return &QRDecoder{}
}

// Decode returns the decoded text payload, or false when the frame holds no
// readable code
func (d *QRDecoder) Decode(f Frame) (string, bool) {
	if f.Width <= 0 || f.Height <= 0 || len(f.Pixels) < f.Width*f.Height*4 {
		return "", false
	}
	return DecodeImage(f.Image())
}

// DecodeImage decodes a QR code from a static image. Shared by the camera
// decoder and the uploaded-photo path.
func DecodeImage(img image.Image) (string, bool) {
	source := gozxing.NewLuminanceSourceFromImage(img)
	bitmap, err := gozxing.NewBinaryBitmap(gozxing.NewHybridBinarizer(source))
	if err != nil {
		return "", false
	}

	reader := zxqrcode.NewQRCodeReader()
	result, err := reader.Decode(bitmap, map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	})
	if err != nil {
		return "", false
	}
	return result.GetText(), true
}
