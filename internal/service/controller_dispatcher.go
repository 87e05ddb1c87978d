package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/labgate-api/internal/models"
	"github.com/noah-isme/labgate-api/pkg/config"
	appErrors "github.com/noah-isme/labgate-api/pkg/errors"
)

// ControllerDispatcher signals the door controller after each verdict. A failed signal is
// reported, never retried here, and never touches the attendance already written.
type ControllerDispatcher struct {
	cfg     config.ControllerConfig
	client  *http.Client
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

type controllerSignal struct {
	QRCode string `json:"qrcode"`
}

// NewControllerDispatcher constructs the dispatcher. client may be nil.
func NewControllerDispatcher(cfg config.ControllerConfig, client *http.Client, metrics *MetricsService, logger *zap.Logger) *ControllerDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.GrantToken == "" {
		cfg.GrantToken = "VALID"
	}
	if cfg.DenyToken == "" {
		cfg.DenyToken = "INVALID"
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &ControllerDispatcher{cfg: cfg, client: client, metrics: metrics, logger: logger, now: time.Now}
}

// Enabled reports whether a controller endpoint is configured.
func (d *ControllerDispatcher) Enabled() bool {
	return d != nil && d.cfg.Enabled && d.cfg.BaseURL != ""
}

// TokenFor maps a verdict to the controller token.
func (d *ControllerDispatcher) TokenFor(verdict models.Verdict) string {
	if verdict.Granted() {
		return d.cfg.GrantToken
	}
	return d.cfg.DenyToken
}

// Signal posts the verdict token to {base}/scan. Any 2xx is an acknowledgement.
func (d *ControllerDispatcher) Signal(ctx context.Context, verdict models.Verdict) models.DispatchOutcome {
	outcome := models.DispatchOutcome{Status: models.DispatchSkipped, SentAt: d.now().UTC()}
	if !d.Enabled() {
		return outcome
	}
	outcome.Token = d.TokenFor(verdict)

	body, err := json.Marshal(controllerSignal{QRCode: outcome.Token})
	if err != nil {
		return d.fail(outcome, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.cfg.BaseURL+"/scan", bytes.NewReader(body))
	if err != nil {
		return d.fail(outcome, err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := d.now()
	resp, err := d.client.Do(req)
	outcome.Duration = d.now().Sub(start)
	if err != nil {
		return d.fail(outcome, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	outcome.StatusCode = resp.StatusCode
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return d.fail(outcome, fmt.Errorf("controller answered status %d", resp.StatusCode))
	}
	outcome.Status = models.DispatchAcknowledged
	d.metrics.RecordDispatch(outcome)
	return outcome
}

func (d *ControllerDispatcher) fail(outcome models.DispatchOutcome, err error) models.DispatchOutcome {
	outcome.Status = models.DispatchFailed
	outcome.Error = err.Error()
	d.metrics.RecordDispatch(outcome)
	d.logger.Warn("controller signal failed",
		zap.String("token", outcome.Token),
		zap.Int("status_code", outcome.StatusCode),
		zap.Error(err))
	return outcome
}

// Status probes {base}/status. It is informational only.
func (d *ControllerDispatcher) Status(ctx context.Context) (models.ControllerStatus, error) {
	result := models.ControllerStatus{ObservedAt: d.now().UTC()}
	if !d.Enabled() {
		return result, appErrors.ErrControllerDisabled
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.cfg.BaseURL+"/status", nil)
	if err != nil {
		result.Error = err.Error()
		return result, err
	}

	start := d.now()
	resp, err := d.client.Do(req)
	result.Duration = d.now().Sub(start)
	if err != nil {
		result.Error = err.Error()
		return result, nil
	}
	defer resp.Body.Close()
	payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	result.StatusCode = resp.StatusCode
	result.Body = string(bytes.TrimSpace(payload))
	result.Reachable = resp.StatusCode >= 200 && resp.StatusCode < 300
	if !result.Reachable {
		result.Error = fmt.Sprintf("received status %d", resp.StatusCode)
	}
	return result, nil
}
