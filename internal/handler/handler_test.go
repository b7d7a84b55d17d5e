package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"inventory-service/internal/model"
	"inventory-service/internal/repository"
	"inventory-service/internal/service"
	"inventory-service/pkg/config"
	"inventory-service/prometheus"
)

func TestMain(m *testing.M) {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	prometheus.InitMetrics(cfg)
	os.Exit(m.Run())
}

// fixture wires the handlers against an in-memory store with a fake actor
type fixture struct {
	e     *echo.Echo
	store repository.Store

	products     *ProductHandler
	scans        *ScanHandler
	transactions *TransactionHandler
	alerts       *AlertHandler
}

func newFixture() *fixture {
	store := repository.NewMemoryStore()
	log := zap.NewNop()
	validator := service.NewValidator(store.Products(), log)
	stock := service.NewStockService(store, log)
	return &fixture{
		e:            echo.New(),
		store:        store,
		products:     NewProductHandler(store.Products()),
		scans:        NewScanHandler(validator),
		transactions: NewTransactionHandler(stock, store.Transactions()),
		alerts:       NewAlertHandler(store.Alerts()),
	}
}

// request builds an authenticated echo context the way the JWT middleware
// leaves it
func (f *fixture) request(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := f.e.NewContext(req, rec)
	c.Set("user_id", "user-1")
	c.Set("user_name", "Alice")
	return c, rec
}

func (f *fixture) seedProduct(t *testing.T, barcode string, stock, threshold int) *model.Product {
	t.Helper()
	p := &model.Product{
		Name:             "Widget",
		Category:         "hardware",
		BarcodeData:      barcode,
		CurrentStock:     stock,
		MinimumThreshold: threshold,
		IsActive:         true,
	}
	require.NoError(t, f.store.Products().Create(context.Background(), p))
	return p
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestProductCreateGeneratesBarcode(t *testing.T) {
	f := newFixture()
	c, rec := f.request(http.MethodPost, "/api/products", `{"name":"Widget","category":"hardware","current_stock":10}`)

	require.NoError(t, f.products.Create(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	p := decodeJSON[model.Product](t, rec)
	assert.NotEmpty(t, p.ID)
	assert.True(t, strings.HasPrefix(p.BarcodeData, "QR-"), "generated payload %q", p.BarcodeData)
	assert.Equal(t, model.BarcodeTypeQR, p.BarcodeType)
	assert.Equal(t, 5, p.MinimumThreshold, "threshold defaults when omitted")
	assert.True(t, p.IsActive)
}

func TestProductCreateRejectsBadInput(t *testing.T) {
	f := newFixture()

	c, rec := f.request(http.MethodPost, "/api/products", `{"category":"hardware"}`)
	require.NoError(t, f.products.Create(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	c, rec = f.request(http.MethodPost, "/api/products", `{"name":"Widget","current_stock":-1}`)
	require.NoError(t, f.products.Create(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProductCreateDuplicateBarcode(t *testing.T) {
	f := newFixture()
	f.seedProduct(t, "QR-123", 10, 5)

	c, rec := f.request(http.MethodPost, "/api/products", `{"name":"Clone","barcode_data":"QR-123"}`)
	require.NoError(t, f.products.Create(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestProductGetAndDelete(t *testing.T) {
	f := newFixture()
	p := f.seedProduct(t, "QR-123", 10, 5)

	c, rec := f.request(http.MethodGet, "/api/products/"+p.ID, "")
	c.SetParamNames("id")
	c.SetParamValues(p.ID)
	require.NoError(t, f.products.Get(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	c, rec = f.request(http.MethodDelete, "/api/products/"+p.ID, "")
	c.SetParamNames("id")
	c.SetParamValues(p.ID)
	require.NoError(t, f.products.Delete(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	c, rec = f.request(http.MethodGet, "/api/products/"+p.ID, "")
	c.SetParamNames("id")
	c.SetParamValues(p.ID)
	require.NoError(t, f.products.Get(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProductUpdatePartialKeepsOmittedFields(t *testing.T) {
	f := newFixture()
	p := f.seedProduct(t, "QR-123", 10, 5)

	c, rec := f.request(http.MethodPut, "/api/products/"+p.ID, `{"description":"restocked weekly"}`)
	c.SetParamNames("id")
	c.SetParamValues(p.ID)
	require.NoError(t, f.products.Update(c))
	require.Equal(t, http.StatusOK, rec.Code)

	updated := decodeJSON[model.Product](t, rec)
	assert.Equal(t, "restocked weekly", updated.Description)
	assert.Equal(t, "Widget", updated.Name, "omitted name must survive")
	assert.Equal(t, "hardware", updated.Category, "omitted category must survive")
	assert.Equal(t, "QR-123", updated.BarcodeData)
	assert.Equal(t, 5, updated.MinimumThreshold)
}

func TestProductUpdateThresholdToZero(t *testing.T) {
	f := newFixture()
	p := f.seedProduct(t, "QR-123", 10, 5)

	c, rec := f.request(http.MethodPut, "/api/products/"+p.ID, `{"minimum_threshold":0}`)
	c.SetParamNames("id")
	c.SetParamValues(p.ID)
	require.NoError(t, f.products.Update(c))
	require.Equal(t, http.StatusOK, rec.Code)

	updated := decodeJSON[model.Product](t, rec)
	assert.Equal(t, 0, updated.MinimumThreshold)

	c, rec = f.request(http.MethodPut, "/api/products/"+p.ID, `{"minimum_threshold":-1}`)
	c.SetParamNames("id")
	c.SetParamValues(p.ID)
	require.NoError(t, f.products.Update(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProductUpdateRejectsBlankNameAndDuplicateBarcode(t *testing.T) {
	f := newFixture()
	p := f.seedProduct(t, "QR-123", 10, 5)
	f.seedProduct(t, "QR-456", 10, 5)

	c, rec := f.request(http.MethodPut, "/api/products/"+p.ID, `{"name":""}`)
	c.SetParamNames("id")
	c.SetParamValues(p.ID)
	require.NoError(t, f.products.Update(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	c, rec = f.request(http.MethodPut, "/api/products/"+p.ID, `{"barcode_data":"QR-456"}`)
	c.SetParamNames("id")
	c.SetParamValues(p.ID)
	require.NoError(t, f.products.Update(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestProductListLowStockFilter(t *testing.T) {
	f := newFixture()
	low := f.seedProduct(t, "QR-1", 2, 5)
	f.seedProduct(t, "QR-2", 50, 5)

	c, rec := f.request(http.MethodGet, "/api/products?low_stock=true", "")
	require.NoError(t, f.products.List(c))
	require.Equal(t, http.StatusOK, rec.Code)

	products := decodeJSON[[]model.Product](t, rec)
	require.Len(t, products, 1)
	assert.Equal(t, low.ID, products[0].ID)
}

func TestProductQRCode(t *testing.T) {
	f := newFixture()
	p := f.seedProduct(t, "QR-123", 10, 5)

	c, rec := f.request(http.MethodGet, "/api/products/"+p.ID+"/qrcode", "")
	c.SetParamNames("id")
	c.SetParamValues(p.ID)
	require.NoError(t, f.products.QRCode(c))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get(echo.HeaderContentType))
	assert.NotEmpty(t, rec.Body.Bytes())
}

func TestScanValidate(t *testing.T) {
	f := newFixture()
	p := f.seedProduct(t, "QR-123", 10, 5)

	c, rec := f.request(http.MethodPost, "/api/scan/validate", `{"payload":"QR-123"}`)
	require.NoError(t, f.scans.Validate(c))
	require.Equal(t, http.StatusOK, rec.Code)
	result := decodeJSON[service.ValidationResult](t, rec)
	assert.True(t, result.Valid)
	require.NotNil(t, result.Product)
	assert.Equal(t, p.ID, result.Product.ID)

	// unknown payload is a negative validation, not an HTTP error
	c, rec = f.request(http.MethodPost, "/api/scan/validate", `{"payload":"QR-999"}`)
	require.NoError(t, f.scans.Validate(c))
	require.Equal(t, http.StatusOK, rec.Code)
	result = decodeJSON[service.ValidationResult](t, rec)
	assert.False(t, result.Valid)
	assert.Equal(t, "barcode not registered", result.Reason)
}

func TestTransactionApply(t *testing.T) {
	f := newFixture()
	p := f.seedProduct(t, "QR-123", 3, 5)

	c, rec := f.request(http.MethodPost, "/api/transactions",
		`{"product_id":"`+p.ID+`","transaction_type":"remove","quantity":2}`)
	require.NoError(t, f.transactions.Apply(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	result := decodeJSON[service.ApplyResult](t, rec)
	assert.Equal(t, 1, result.Product.CurrentStock)
	require.NotNil(t, result.Transaction)
	assert.Equal(t, "user-1", result.Transaction.UserID)
	assert.Equal(t, "Alice", result.Transaction.UserName)
	require.NotNil(t, result.Alert, "stock landed under threshold")
	assert.Equal(t, 1, result.Alert.CurrentStock)
}

func TestTransactionApplyErrorMapping(t *testing.T) {
	f := newFixture()
	p := f.seedProduct(t, "QR-123", 3, 5)

	c, rec := f.request(http.MethodPost, "/api/transactions",
		`{"product_id":"`+p.ID+`","transaction_type":"remove","quantity":0}`)
	require.NoError(t, f.transactions.Apply(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	c, rec = f.request(http.MethodPost, "/api/transactions",
		`{"product_id":"`+p.ID+`","transaction_type":"transfer","quantity":1}`)
	require.NoError(t, f.transactions.Apply(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	c, rec = f.request(http.MethodPost, "/api/transactions",
		`{"product_id":"missing","transaction_type":"add","quantity":1}`)
	require.NoError(t, f.transactions.Apply(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	c, rec = f.request(http.MethodPost, "/api/transactions",
		`{"product_id":"`+p.ID+`","transaction_type":"remove","quantity":5}`)
	require.NoError(t, f.transactions.Apply(c))
	assert.Equal(t, http.StatusConflict, rec.Code)

	// the rejected removal must not have touched stock
	stored, err := f.store.Products().GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.CurrentStock)
}

func TestTransactionListMine(t *testing.T) {
	f := newFixture()
	p := f.seedProduct(t, "QR-123", 10, 2)

	c, _ := f.request(http.MethodPost, "/api/transactions",
		`{"product_id":"`+p.ID+`","transaction_type":"add","quantity":1}`)
	require.NoError(t, f.transactions.Apply(c))

	require.NoError(t, f.store.Transactions().Create(context.Background(), &model.StockTransaction{
		ProductID: p.ID,
		Type:      model.TransactionTypeAdd,
		Quantity:  2,
		UserID:    "user-2",
	}))

	c, rec := f.request(http.MethodGet, "/api/transactions?mine=true", "")
	require.NoError(t, f.transactions.List(c))
	require.Equal(t, http.StatusOK, rec.Code)

	transactions := decodeJSON[[]model.StockTransaction](t, rec)
	require.Len(t, transactions, 1)
	assert.Equal(t, "user-1", transactions[0].UserID)
}

func TestTransactionExportCSV(t *testing.T) {
	f := newFixture()
	p := f.seedProduct(t, "QR-123", 10, 2)

	c, _ := f.request(http.MethodPost, "/api/transactions",
		`{"product_id":"`+p.ID+`","transaction_type":"remove","quantity":4}`)
	require.NoError(t, f.transactions.Apply(c))

	c, rec := f.request(http.MethodGet, "/api/transactions/export", "")
	require.NoError(t, f.transactions.Export(c))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "text/csv", rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "inventory-activity-")

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Date,User,Product,Type,Quantity,Previous Stock,Resulting Stock", strings.TrimSpace(lines[0]))
	assert.Contains(t, lines[1], "Alice")
	assert.Contains(t, lines[1], "remove")
}

func TestAlertListAndResolve(t *testing.T) {
	f := newFixture()
	p := f.seedProduct(t, "QR-123", 3, 5)

	// push stock under the threshold to raise an alert
	c, _ := f.request(http.MethodPost, "/api/transactions",
		`{"product_id":"`+p.ID+`","transaction_type":"remove","quantity":2}`)
	require.NoError(t, f.transactions.Apply(c))

	c, rec := f.request(http.MethodGet, "/api/alerts?resolved=false", "")
	require.NoError(t, f.alerts.List(c))
	require.Equal(t, http.StatusOK, rec.Code)
	alerts := decodeJSON[[]model.Alert](t, rec)
	require.Len(t, alerts, 1)

	c, rec = f.request(http.MethodPut, "/api/alerts/"+alerts[0].ID+"/resolve", "")
	c.SetParamNames("id")
	c.SetParamValues(alerts[0].ID)
	require.NoError(t, f.alerts.Resolve(c))
	require.Equal(t, http.StatusOK, rec.Code)
	resolved := decodeJSON[model.Alert](t, rec)
	assert.True(t, resolved.IsResolved)
	assert.True(t, resolved.IsRead)

	c, rec = f.request(http.MethodGet, "/api/alerts?resolved=false", "")
	require.NoError(t, f.alerts.List(c))
	alerts = decodeJSON[[]model.Alert](t, rec)
	assert.Empty(t, alerts)

	c, rec = f.request(http.MethodPut, "/api/alerts/missing/resolve", "")
	c.SetParamNames("id")
	c.SetParamValues("missing")
	require.NoError(t, f.alerts.Resolve(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestScanImageRejectsNonImage(t *testing.T) {
	f := newFixture()

	c, rec := f.request(http.MethodPost, "/api/scan/image", "")
	require.NoError(t, f.scans.ScanImage(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
