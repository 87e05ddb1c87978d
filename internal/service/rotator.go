package service

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/labgate-api/pkg/credential"
)

// ErrRotatorIdle is returned when no subject is bound to the rotator.
var ErrRotatorIdle = errors.New("credential rotator is idle")

// RotatorState is either idle (no subject bound) or active.
type RotatorState string

const (
	RotatorIdle   RotatorState = "IDLE"
	RotatorActive RotatorState = "ACTIVE"
)

// RotatorConfig wires a Rotator.
type RotatorConfig struct {
	Period  time.Duration
	Clock   Clock
	Tokens  func() (string, error)
	OnIssue func(credential.Credential)
	Logger  *zap.Logger
}

// Rotator keeps exactly one live credential for a bound subject and re-issues it every period.
// At most one timer is armed and at most one issuance is in flight.
type Rotator struct {
	period  time.Duration
	clock   Clock
	tokens  func() (string, error)
	onIssue func(credential.Credential)
	logger  *zap.Logger

	mu         sync.Mutex
	subject    *credential.Subject
	current    *credential.Credential
	timer      Timer
	generation uint64
	inflight   uint64
}

// NewRotator constructs an idle rotator.
func NewRotator(cfg RotatorConfig) *Rotator {
	if cfg.Period <= 0 {
		cfg.Period = 60 * time.Second
	}
	if cfg.Clock == nil {
		cfg.Clock = NewSystemClock(nil)
	}
	if cfg.Tokens == nil {
		cfg.Tokens = credential.NewToken
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Rotator{
		period:  cfg.Period,
		clock:   cfg.Clock,
		tokens:  cfg.Tokens,
		onIssue: cfg.OnIssue,
		logger:  cfg.Logger,
	}
}

// State reports whether a subject is bound.
func (r *Rotator) State() RotatorState {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.subject == nil {
		return RotatorIdle
	}
	return RotatorActive
}

// Bind moves the rotator to Active for subject and issues the first credential. Binding again
// replaces the subject and discards the previous credential.
func (r *Rotator) Bind(subject credential.Subject) (credential.Credential, error) {
	if err := credential.CheckSubjectID(subject.ID); err != nil {
		return credential.Credential{}, err
	}
	r.mu.Lock()
	r.stopTimerLocked()
	r.subject = &subject
	r.current = nil
	r.generation++
	r.inflight = 0
	r.mu.Unlock()

	cred, _, err := r.issue(0, false)
	return cred, err
}

// Unbind moves the rotator to Idle, cancels the pending timer and discards the credential.
func (r *Rotator) Unbind() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopTimerLocked()
	r.subject = nil
	r.current = nil
	r.generation++
	r.inflight = 0
}

// Refresh cancels the pending timer, issues immediately and re-arms. When another issuance is in
// flight the call is a no-op and returns the current credential with issued=false.
func (r *Rotator) Refresh() (cred credential.Credential, issued bool, err error) {
	return r.issue(0, false)
}

// Current returns the live credential and the time left before it expires.
func (r *Rotator) Current() (credential.Credential, time.Duration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.subject == nil || r.current == nil {
		return credential.Credential{}, 0, ErrRotatorIdle
	}
	return *r.current, r.current.Remaining(r.clock.Now()), nil
}

func (r *Rotator) issue(timerGen uint64, fromTimer bool) (credential.Credential, bool, error) {
	r.mu.Lock()
	if r.subject == nil {
		r.mu.Unlock()
		return credential.Credential{}, false, ErrRotatorIdle
	}
	if fromTimer && timerGen != r.generation {
		// a cancelled timer that fired anyway
		r.mu.Unlock()
		return credential.Credential{}, false, nil
	}
	if r.inflight != 0 {
		defer r.mu.Unlock()
		if r.current == nil {
			return credential.Credential{}, false, ErrRotatorIdle
		}
		return *r.current, false, nil
	}
	r.stopTimerLocked()
	r.generation++
	gen := r.generation
	r.inflight = gen
	subject := *r.subject
	r.mu.Unlock()

	now := r.clock.Now()
	token, tokenErr := r.tokens()

	r.mu.Lock()
	if r.inflight == gen {
		r.inflight = 0
	}
	if r.subject == nil || gen != r.generation {
		r.mu.Unlock()
		return credential.Credential{}, false, ErrRotatorIdle
	}
	if tokenErr != nil {
		r.armLocked(gen)
		r.mu.Unlock()
		return credential.Credential{}, false, fmt.Errorf("generate credential token: %w", tokenErr)
	}
	cred := credential.Mint(subject, now, r.period, token)
	r.current = &cred
	r.armLocked(gen)
	r.mu.Unlock()

	r.logger.Debug("credential issued",
		zap.String("subject_id", cred.SubjectID),
		zap.Time("expires_at", cred.ExpiresAt),
		zap.Bool("scheduled", fromTimer))
	if r.onIssue != nil {
		r.onIssue(cred)
	}
	return cred, true, nil
}

func (r *Rotator) armLocked(gen uint64) {
	r.timer = r.clock.AfterFunc(r.period, func() {
		if _, _, err := r.issue(gen, true); err != nil && !errors.Is(err, ErrRotatorIdle) {
			r.logger.Warn("scheduled credential rotation failed", zap.Error(err))
		}
	})
}

func (r *Rotator) stopTimerLocked() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}
