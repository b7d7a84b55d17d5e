package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"inventory-service/internal/repository"
	"inventory-service/pkg/logger"
)

// AlertHandler serves the low-stock alert endpoints
type AlertHandler struct {
	alerts repository.AlertRepository
}

// NewAlertHandler creates an AlertHandler
func NewAlertHandler(alerts repository.AlertRepository) *AlertHandler {
	return &AlertHandler{alerts: alerts}
}

// List returns alerts, newest first; `resolved=false` keeps only open ones
func (h *AlertHandler) List(c echo.Context) error {
	log := logger.FromContext(c)

	filter := repository.AlertFilter{}
	if resolved := c.QueryParam("resolved"); resolved != "" {
		value, err := strconv.ParseBool(resolved)
		if err == nil {
			filter.Resolved = &value
		}
	}

	alerts, err := h.alerts.List(c.Request().Context(), filter)
	if err != nil {
		log.Error("Failed to list alerts", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve alerts",
		})
	}

	log.Info("Alerts retrieved successfully", zap.Int("count", len(alerts)))
	return c.JSON(http.StatusOK, alerts)
}

// Resolve marks an alert resolved
func (h *AlertHandler) Resolve(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")

	alert, err := h.alerts.Resolve(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{
				"error": "Alert not found",
			})
		}
		log.Error("Failed to resolve alert",
			zap.String("alert_id", id),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to resolve alert",
		})
	}

	log.Info("Alert resolved", zap.String("alert_id", id))
	return c.JSON(http.StatusOK, alert)
}
