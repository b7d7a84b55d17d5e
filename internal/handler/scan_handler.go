package handler

import (
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"inventory-service/internal/scanner"
	"inventory-service/internal/service"
	"inventory-service/pkg/logger"
	"inventory-service/prometheus"
)

// ValidateRequest carries a decoded or manually typed payload
type ValidateRequest struct {
	Payload string `json:"payload"`
}

// ScanImageResponse is the outcome of decoding an uploaded photo
type ScanImageResponse struct {
	Decoded    bool                      `json:"decoded"`
	Payload    string                    `json:"payload,omitempty"`
	Validation *service.ValidationResult `json:"validation,omitempty"`
}

// ScanHandler serves the scan validation endpoints. Camera-decoded payloads
// and manual entry both land on Validate; ScanImage covers the static-photo
// variant of the decoder.
type ScanHandler struct {
	validator *service.Validator
}

// NewScanHandler creates a ScanHandler
func NewScanHandler(validator *service.Validator) *ScanHandler {
	return &ScanHandler{validator: validator}
}

// Validate resolves a payload against the product registry. The response is
// always 200 with a structured result; an unknown payload is not an HTTP
// error, it is a negative validation.
func (h *ScanHandler) Validate(c echo.Context) error {
	log := logger.FromContext(c)

	var req ValidateRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	result := h.validator.Validate(c.Request().Context(), req.Payload)
	if result.Valid {
		prometheus.RecordScanValidation("valid")
		log.Info("Payload validated",
			zap.String("payload", req.Payload),
			zap.String("product_id", result.Product.ID))
	} else {
		prometheus.RecordScanValidation("invalid")
		log.Info("Payload rejected",
			zap.String("payload", req.Payload),
			zap.String("reason", result.Reason))
	}

	return c.JSON(http.StatusOK, result)
}

// ScanImage decodes a QR code from an uploaded photo and validates the
// payload through the same contract as the camera path
func (h *ScanHandler) ScanImage(c echo.Context) error {
	log := logger.FromContext(c)

	file, err := c.FormFile("image")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Missing image file",
		})
	}

	src, err := file.Open()
	if err != nil {
		log.Error("Failed to open uploaded image", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Unreadable image file",
		})
	}
	defer src.Close()

	img, _, err := image.Decode(src)
	if err != nil {
		log.Warn("Uploaded file is not a decodable image", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Unreadable image file",
		})
	}

	payload, ok := scanner.DecodeImage(img)
	if !ok {
		prometheus.RecordScanDecode("no_code")
		log.Info("No QR code found in uploaded image",
			zap.String("filename", file.Filename))
		return c.JSON(http.StatusOK, ScanImageResponse{Decoded: false})
	}
	prometheus.RecordScanDecode("decoded")

	result := h.validator.Validate(c.Request().Context(), payload)
	if result.Valid {
		prometheus.RecordScanValidation("valid")
	} else {
		prometheus.RecordScanValidation("invalid")
	}

	log.Info("Uploaded image decoded",
		zap.String("payload", payload),
		zap.Bool("valid", result.Valid))
	return c.JSON(http.StatusOK, ScanImageResponse{
		Decoded:    true,
		Payload:    payload,
		Validation: &result,
	})
}
