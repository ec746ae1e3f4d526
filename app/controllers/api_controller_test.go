package controllers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luckystation-cmd/ADS-MAGIC-2.0/internal/pkg/devicecontext"
	"github.com/luckystation-cmd/ADS-MAGIC-2.0/internal/pkg/generation"
	"github.com/luckystation-cmd/ADS-MAGIC-2.0/internal/pkg/ledger"
	"github.com/luckystation-cmd/ADS-MAGIC-2.0/internal/pkg/middleware"
)

func newTestApp(gen *generation.Client) *fiber.App {
	svc := ledger.NewService(ledger.NewMemoryRepository())
	InitializeAPI(svc, gen)

	app := fiber.New()
	app.Use(middleware.DeviceContextMiddleware)

	api := app.Group("/api/v1")
	api.Get("/profile", HandleGetProfile)
	api.Patch("/profile", HandleUpdateProfile)
	api.Get("/profile/transactions", HandleListTransactions)
	api.Get("/profile/assets", HandleListAssets)
	api.Post("/credits/redeem", HandleRedeemCode)
	api.Post("/credits/slip", HandleVerifySlip)
	api.Post("/studio/render", HandleStudioRender)
	api.Get("/packages", HandleListPackages)
	api.Get("/pricing", HandleGetPricing)
	api.Get("/ping", HandlePing)

	return app
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func TestGetProfileCreatesOnFirstContact(t *testing.T) {
	app := newTestApp(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)
	req.Header.Set(devicecontext.HeaderName, "device-alpha")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, float64(5), body["credits"])
	assert.True(t, strings.HasPrefix(body["id"].(string), "AM-"))
	assert.Equal(t, "device-alpha", resp.Header.Get(devicecontext.HeaderName))
}

func TestGetProfileMintsDeviceKeyWhenMissing(t *testing.T) {
	app := newTestApp(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(devicecontext.HeaderName))
}

func TestUpdateProfileRejectsUnknownPackage(t *testing.T) {
	app := newTestApp(nil)

	payload := []byte(`{"package_id":"platinum"}`)
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/profile", bytes.NewReader(payload))
	req.Header.Set(devicecontext.HeaderName, "device-alpha")
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestUpdateProfileMergesFields(t *testing.T) {
	app := newTestApp(nil)

	payload := []byte(`{"name":"Somchai","niche":"Cafe"}`)
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/profile", bytes.NewReader(payload))
	req.Header.Set(devicecontext.HeaderName, "device-alpha")
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "Somchai", body["name"])
	assert.Equal(t, "Cafe", body["niche"])
	// untouched fields keep their defaults
	assert.Equal(t, float64(5), body["credits"])
}

func TestRedeemCodeGrantsOnce(t *testing.T) {
	app := newTestApp(nil)

	redeem := func() map[string]interface{} {
		payload := []byte(`{"code":"magic150"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/credits/redeem", bytes.NewReader(payload))
		req.Header.Set(devicecontext.HeaderName, "device-alpha")
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		return decodeBody(t, resp)
	}

	first := redeem()
	assert.Equal(t, true, first["success"])
	assert.Equal(t, float64(150), first["amount"])
	assert.Equal(t, float64(155), first["credits"])

	second := redeem()
	assert.Equal(t, false, second["success"])
	assert.Equal(t, float64(155), second["credits"])
}

func TestRedeemCodeInvalid(t *testing.T) {
	app := newTestApp(nil)

	payload := []byte(`{"code":"NOPE-123"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/credits/redeem", bytes.NewReader(payload))
	req.Header.Set(devicecontext.HeaderName, "device-alpha")
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, float64(5), body["credits"])
}

func newSlipRequest(t *testing.T, packageID string, slip []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("package_id", packageID))
	part, err := writer.CreateFormFile("slip", "slip.jpg")
	require.NoError(t, err)
	_, err = part.Write(slip)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/credits/slip", &buf)
	req.Header.Set(devicecontext.HeaderName, "device-alpha")
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestVerifySlipGrantsPackageCredits(t *testing.T) {
	app := newTestApp(nil)

	resp, err := app.Test(newSlipRequest(t, "starter", []byte("slip-bytes-1")))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(155), body["credits"])
}

func TestVerifySlipRejectsDuplicate(t *testing.T) {
	app := newTestApp(nil)

	resp, err := app.Test(newSlipRequest(t, "starter", []byte("slip-bytes-1")))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(newSlipRequest(t, "starter", []byte("slip-bytes-1")))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, float64(155), body["credits"])
}

func TestVerifySlipRequiresFile(t *testing.T) {
	app := newTestApp(nil)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("package_id", "starter"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/credits/slip", &buf)
	req.Header.Set(devicecontext.HeaderName, "device-alpha")
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestVerifySlipRejectsUnknownPackage(t *testing.T) {
	app := newTestApp(nil)

	resp, err := app.Test(newSlipRequest(t, "diamond", []byte("slip-bytes-1")))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListPackages(t *testing.T) {
	app := newTestApp(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/packages", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	packages := body["packages"].([]interface{})
	assert.Len(t, packages, 3)
}

func TestGetPricing(t *testing.T) {
	app := newTestApp(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/pricing", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	pricing := body["pricing"].(map[string]interface{})
	assert.Equal(t, float64(0), pricing["strategy"])
	assert.Equal(t, float64(10), pricing["video_motion"])
}
