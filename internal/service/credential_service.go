package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"github.com/noah-isme/labgate-api/internal/dto"
	"github.com/noah-isme/labgate-api/internal/models"
	"github.com/noah-isme/labgate-api/pkg/credential"
	appErrors "github.com/noah-isme/labgate-api/pkg/errors"
)

type subjectRepository interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

// CredentialServiceConfig tunes badge rotation.
type CredentialServiceConfig struct {
	RotationPeriod time.Duration
	QRSize         int
}

// CredentialService keeps one Rotator per bound subject.
type CredentialService struct {
	subjects subjectRepository
	clock    Clock
	metrics  *MetricsService
	logger   *zap.Logger
	cfg      CredentialServiceConfig
	tokens   func() (string, error)

	// bindMu orders Bind, Unbind and Shutdown; an unbind racing a bind must not leave an active
	// rotator outside the registry.
	bindMu   sync.Mutex
	mu       sync.Mutex
	rotators map[string]*Rotator
}

// NewCredentialService constructs the registry.
func NewCredentialService(subjects subjectRepository, clock Clock, metrics *MetricsService, cfg CredentialServiceConfig, logger *zap.Logger) *CredentialService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = NewSystemClock(nil)
	}
	if cfg.RotationPeriod <= 0 {
		cfg.RotationPeriod = 60 * time.Second
	}
	if cfg.QRSize <= 0 {
		cfg.QRSize = 256
	}
	return &CredentialService{
		subjects: subjects,
		clock:    clock,
		metrics:  metrics,
		logger:   logger,
		cfg:      cfg,
		tokens:   credential.NewToken,
		rotators: make(map[string]*Rotator),
	}
}

// Bind loads the subject profile and starts its rotator. Binding an already bound subject
// refreshes the profile and re-issues.
func (s *CredentialService) Bind(ctx context.Context, subjectID string) (*dto.CredentialResponse, error) {
	subject, err := s.subjects.FindByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	s.bindMu.Lock()
	defer s.bindMu.Unlock()
	rotator := s.rotatorFor(subjectID, true)
	cred, err := rotator.Bind(credential.Subject{
		ID:      subject.ID,
		Name:    subject.FullName,
		Course:  deref(subject.Course),
		Section: deref(subject.Section),
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to issue credential")
	}
	s.logger.Info("credential rotator bound", zap.String("subject_id", subjectID))
	return s.toResponse(cred, true)
}

// Unbind stops the subject's rotator and forgets it.
func (s *CredentialService) Unbind(subjectID string) {
	s.bindMu.Lock()
	defer s.bindMu.Unlock()
	s.mu.Lock()
	rotator, ok := s.rotators[subjectID]
	delete(s.rotators, subjectID)
	count := len(s.rotators)
	s.mu.Unlock()
	if !ok {
		return
	}
	rotator.Unbind()
	s.metrics.SetActiveRotators(count)
	s.logger.Info("credential rotator unbound", zap.String("subject_id", subjectID))
}

// Current returns the live credential of the subject.
func (s *CredentialService) Current(subjectID string) (*dto.CredentialResponse, error) {
	rotator := s.rotatorFor(subjectID, false)
	if rotator == nil {
		return nil, appErrors.ErrNoCredential
	}
	cred, _, err := rotator.Current()
	if err != nil {
		return nil, appErrors.ErrNoCredential
	}
	return s.toResponse(cred, false)
}

// Refresh forces an early rotation.
func (s *CredentialService) Refresh(subjectID string) (*dto.CredentialResponse, error) {
	rotator := s.rotatorFor(subjectID, false)
	if rotator == nil {
		return nil, appErrors.ErrNoCredential
	}
	cred, issued, err := rotator.Refresh()
	if err != nil {
		if errors.Is(err, ErrRotatorIdle) {
			return nil, appErrors.ErrNoCredential
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to refresh credential")
	}
	return s.toResponse(cred, issued)
}

// QRCode renders the live credential as a PNG.
func (s *CredentialService) QRCode(subjectID string) ([]byte, time.Duration, error) {
	rotator := s.rotatorFor(subjectID, false)
	if rotator == nil {
		return nil, 0, appErrors.ErrNoCredential
	}
	cred, remaining, err := rotator.Current()
	if err != nil {
		return nil, 0, appErrors.ErrNoCredential
	}
	text, err := credential.Encode(cred)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode credential")
	}
	png, err := qrcode.Encode(text, qrcode.Medium, s.cfg.QRSize)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render qr code")
	}
	return png, remaining, nil
}

// Shutdown unbinds every rotator.
func (s *CredentialService) Shutdown() {
	s.bindMu.Lock()
	defer s.bindMu.Unlock()
	s.mu.Lock()
	rotators := s.rotators
	s.rotators = make(map[string]*Rotator)
	s.mu.Unlock()
	for _, rotator := range rotators {
		rotator.Unbind()
	}
	s.metrics.SetActiveRotators(0)
}

func (s *CredentialService) rotatorFor(subjectID string, create bool) *Rotator {
	s.mu.Lock()
	defer s.mu.Unlock()
	rotator, ok := s.rotators[subjectID]
	if ok || !create {
		return rotator
	}
	rotator = NewRotator(RotatorConfig{
		Period: s.cfg.RotationPeriod,
		Clock:  s.clock,
		Tokens: s.tokens,
		OnIssue: func(credential.Credential) {
			s.metrics.RecordCredentialIssued()
		},
		Logger: s.logger.With(zap.String("subject_id", subjectID)),
	})
	s.rotators[subjectID] = rotator
	s.metrics.SetActiveRotators(len(s.rotators))
	return rotator
}

func (s *CredentialService) toResponse(cred credential.Credential, issued bool) (*dto.CredentialResponse, error) {
	text, err := credential.Encode(cred)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode credential")
	}
	return &dto.CredentialResponse{
		SubjectID:   cred.SubjectID,
		Name:        cred.Name,
		Course:      cred.Course,
		Section:     cred.Section,
		Payload:     text,
		IssuedAt:    cred.IssuedAt,
		ExpiresAt:   cred.ExpiresAt,
		RemainingMs: cred.Remaining(s.clock.Now()).Milliseconds(),
		PeriodMs:    s.cfg.RotationPeriod.Milliseconds(),
		Issued:      issued,
	}, nil
}

func deref(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
