package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"inventory-service/pkg/config"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   prometheus.CounterVec
	HttpRequestDuration prometheus.HistogramVec

	// Scan pipeline metrics
	ScanValidationsCounter prometheus.CounterVec
	ScanDecodesCounter     prometheus.CounterVec

	// Stock transaction metrics
	StockOperationsCounter prometheus.CounterVec
	AlertsCreatedCounter   prometheus.Counter

	// Inventory level metrics
	ProductInventoryGauge prometheus.GaugeVec

	// Database operation metrics
	DbOperationDuration prometheus.HistogramVec

	initialized bool
)

// InitMetrics initializes Prometheus metrics with configuration
func InitMetrics(appConfig *config.Config) {
	if initialized {
		return
	}
	initialized = true

	// Use metric prefix from configuration
	prefix := appConfig.Metrics.Prefix

	// HTTP request metrics
	HttpRequestsTotal = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTP request duration
	HttpRequestDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// Scan validation metrics
	ScanValidationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_scan_validations_total",
			Help: "Total number of barcode payload validations",
		},
		[]string{"result"},
	)

	// Image decode metrics
	ScanDecodesCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_scan_decodes_total",
			Help: "Total number of image decode attempts",
		},
		[]string{"result"},
	)

	// Stock transaction metrics
	StockOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_stock_operations_total",
			Help: "Total number of stock transactions",
		},
		[]string{"type", "outcome"},
	)

	// Low stock alert metrics
	AlertsCreatedCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_alerts_created_total",
			Help: "Total number of low-stock alerts created",
		},
	)

	// Product inventory metrics
	ProductInventoryGauge = *promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: prefix + "_product_inventory",
			Help: "Current inventory level for products",
		},
		[]string{"product_id", "product_name", "category"},
	)

	// Database operation metrics
	DbOperationDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DbOperationDuration.WithLabelValues(operationType).Observe(duration)
	}
}

// RecordScanValidation increments the validation counter ("valid"/"invalid")
func RecordScanValidation(result string) {
	ScanValidationsCounter.WithLabelValues(result).Inc()
}

// RecordScanDecode increments the decode counter ("decoded"/"no_code")
func RecordScanDecode(result string) {
	ScanDecodesCounter.WithLabelValues(result).Inc()
}

// RecordStockOperation increments the counter for stock transactions
func RecordStockOperation(transactionType, outcome string) {
	StockOperationsCounter.WithLabelValues(transactionType, outcome).Inc()
}

// RecordAlertCreated increments the counter for created alerts
func RecordAlertCreated() {
	AlertsCreatedCounter.Inc()
}

// UpdateProductInventory updates the gauge for product inventory
func UpdateProductInventory(productID string, productName string, category string, count float64) {
	ProductInventoryGauge.WithLabelValues(productID, productName, category).Set(count)
}
