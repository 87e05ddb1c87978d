package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/labgate-api/internal/dto"
	"github.com/noah-isme/labgate-api/internal/models"
	appErrors "github.com/noah-isme/labgate-api/pkg/errors"
)

type scanServiceMock struct {
	resp       *dto.ScanResponse
	err        error
	lastDevice string
	lastReq    dto.ScanRequest
	called     bool
}

func (m *scanServiceMock) Scan(ctx context.Context, device string, req dto.ScanRequest) (*dto.ScanResponse, error) {
	m.called = true
	m.lastDevice = device
	m.lastReq = req
	return m.resp, m.err
}

func (m *scanServiceMock) RetrySignal(ctx context.Context, device string) (*dto.ScanResponse, error) {
	m.lastDevice = device
	return m.resp, m.err
}

func (m *scanServiceMock) ControllerStatus(ctx context.Context) (models.ControllerStatus, error) {
	return models.ControllerStatus{Reachable: true, StatusCode: 200}, m.err
}

func TestScanHandlerScan(t *testing.T) {
	mock := &scanServiceMock{resp: &dto.ScanResponse{
		Device:   "door-1",
		Verdict:  models.Verdict{Decision: models.DecisionDenied, Reason: models.ReasonMalformedCredential},
		Dispatch: models.DispatchOutcome{Status: models.DispatchAcknowledged, Token: "INVALID"},
	}}
	h := NewScanHandler(mock, nil)

	body, _ := json.Marshal(dto.ScanRequest{Payload: "garbage", SessionID: "L-1"})
	c, w := newTestContext(http.MethodPost, "/scanner/door-1/scans", body, adminClaims)
	c.Params = gin.Params{{Key: "device", Value: "door-1"}}
	h.Scan(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "door-1", mock.lastDevice)
	assert.Equal(t, "L-1", mock.lastReq.SessionID)
	var data dto.ScanResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &data))
	assert.Equal(t, models.ReasonMalformedCredential, data.Verdict.Reason)
	assert.Equal(t, "INVALID", data.Dispatch.Token)
}

func TestScanHandlerRejectsOversizedPayload(t *testing.T) {
	mock := &scanServiceMock{}
	h := NewScanHandler(mock, nil)

	body, _ := json.Marshal(dto.ScanRequest{Payload: strings.Repeat("x", 5000)})
	c, w := newTestContext(http.MethodPost, "/scanner/door-1/scans", body, adminClaims)
	c.Params = gin.Params{{Key: "device", Value: "door-1"}}
	h.Scan(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, mock.called)
}

func TestScanHandlerIgnoredScan(t *testing.T) {
	h := NewScanHandler(&scanServiceMock{err: appErrors.ErrScanIgnored}, nil)

	c, w := newTestContext(http.MethodPost, "/scanner/door-1/scans", []byte(`{"payload":"{}"}`), adminClaims)
	c.Params = gin.Params{{Key: "device", Value: "door-1"}}
	h.Scan(c)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "SCAN_IGNORED", decodeEnvelope(t, w).Error.Code)
}

func TestScanHandlerRetryAndStatus(t *testing.T) {
	h := NewScanHandler(&scanServiceMock{err: appErrors.ErrDispatchFailed}, nil)
	c, w := newTestContext(http.MethodPost, "/scanner/door-1/signal/retry", nil, adminClaims)
	c.Params = gin.Params{{Key: "device", Value: "door-1"}}
	h.RetrySignal(c)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	h = NewScanHandler(&scanServiceMock{}, nil)
	c, w = newTestContext(http.MethodGet, "/scanner/controller/status", nil, adminClaims)
	h.ControllerStatus(c)
	require.Equal(t, http.StatusOK, w.Code)
	var status models.ControllerStatus
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &status))
	assert.True(t, status.Reachable)
}
