package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/labgate-api/internal/dto"
	"github.com/noah-isme/labgate-api/internal/models"
	appErrors "github.com/noah-isme/labgate-api/pkg/errors"
)

type verdictDecider interface {
	Decide(ctx context.Context, raw string, hint string, now time.Time) models.Verdict
}

type signalDispatcher interface {
	Enabled() bool
	Signal(ctx context.Context, verdict models.Verdict) models.DispatchOutcome
	Status(ctx context.Context) (models.ControllerStatus, error)
}

// ScanStation is the single logical actor per scanning device: decide, record, signal, then
// cool down. Scans arriving while busy or cooling down are dropped, not queued.
type ScanStation struct {
	gate       ScanGate
	engine     verdictDecider
	dispatcher signalDispatcher
	clock      Clock
	cooldown   time.Duration
	metrics    *MetricsService
	logger     *zap.Logger

	mu   sync.Mutex
	last map[string]models.Verdict
}

// NewScanStation constructs the station.
func NewScanStation(gate ScanGate, engine verdictDecider, dispatcher signalDispatcher, clock Clock, cooldown time.Duration, metrics *MetricsService, logger *zap.Logger) *ScanStation {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = NewSystemClock(nil)
	}
	if gate == nil {
		gate = NewMemoryScanGate(clock)
	}
	return &ScanStation{
		gate:       gate,
		engine:     engine,
		dispatcher: dispatcher,
		clock:      clock,
		cooldown:   cooldown,
		metrics:    metrics,
		logger:     logger,
		last:       make(map[string]models.Verdict),
	}
}

// Scan processes one scanned payload from device. Processing is detached from ctx cancellation so
// a verdict is never left half applied.
func (s *ScanStation) Scan(ctx context.Context, device string, req dto.ScanRequest) (*dto.ScanResponse, error) {
	ctx = context.WithoutCancel(ctx)

	lease, acquired, err := s.gate.TryAcquire(ctx, device)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "scan gate unavailable")
	}
	if !acquired {
		s.metrics.RecordScanIgnored()
		s.logger.Debug("scan ignored", zap.String("device", device))
		return nil, appErrors.ErrScanIgnored
	}
	defer func() {
		if err := s.gate.Release(ctx, device, lease, s.cooldown); err != nil {
			s.logger.Warn("scan gate release failed", zap.String("device", device), zap.Error(err))
		}
	}()

	verdict := s.engine.Decide(ctx, req.Payload, req.SessionID, s.clock.Now())
	s.remember(device, verdict)
	outcome := s.dispatcher.Signal(ctx, verdict)

	return &dto.ScanResponse{Device: device, Verdict: verdict, Dispatch: outcome}, nil
}

// RetrySignal re-sends the controller signal of the device's last verdict. It never re-decides.
func (s *ScanStation) RetrySignal(ctx context.Context, device string) (*dto.ScanResponse, error) {
	if !s.dispatcher.Enabled() {
		return nil, appErrors.ErrControllerDisabled
	}
	s.mu.Lock()
	verdict, ok := s.last[device]
	s.mu.Unlock()
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no verdict to re-send for this device")
	}
	outcome := s.dispatcher.Signal(context.WithoutCancel(ctx), verdict)
	if outcome.Status == models.DispatchFailed {
		s.logger.Warn("controller retry failed", zap.String("device", device), zap.String("error", outcome.Error))
		return nil, appErrors.Clone(appErrors.ErrDispatchFailed, "door controller did not acknowledge: "+outcome.Error)
	}
	return &dto.ScanResponse{Device: device, Verdict: verdict, Dispatch: outcome}, nil
}

// ControllerStatus probes the door controller.
func (s *ScanStation) ControllerStatus(ctx context.Context) (models.ControllerStatus, error) {
	return s.dispatcher.Status(ctx)
}

func (s *ScanStation) remember(device string, verdict models.Verdict) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last[device] = verdict
}
