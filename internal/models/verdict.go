package models

import "time"

// Decision is the binary outcome of a scan.
type Decision string

const (
	DecisionGranted Decision = "GRANTED"
	DecisionDenied  Decision = "DENIED"
)

// ReasonCode explains a decision. Codes are mutually exclusive and evaluated in priority order.
type ReasonCode string

const (
	ReasonMalformedCredential  ReasonCode = "MALFORMED_CREDENTIAL"
	ReasonCredentialExpired    ReasonCode = "CREDENTIAL_EXPIRED"
	ReasonSubjectUnknown       ReasonCode = "SUBJECT_UNKNOWN"
	ReasonElevatedOverride     ReasonCode = "ELEVATED_OVERRIDE"
	ReasonNotEnrolledAnywhere  ReasonCode = "NOT_ENROLLED_ANYWHERE"
	ReasonNoSessionToday       ReasonCode = "NO_SESSION_TODAY"
	ReasonNoActiveSessionNow   ReasonCode = "NO_ACTIVE_SESSION_NOW"
	ReasonAlreadyRecordedToday ReasonCode = "ALREADY_RECORDED_TODAY"
	ReasonGranted              ReasonCode = "GRANTED"
	ReasonStoreUnavailable     ReasonCode = "STORE_UNAVAILABLE"
)

// Decision maps a reason to its outcome. Re-entry still unlocks the door.
func (r ReasonCode) Decision() Decision {
	switch r {
	case ReasonGranted, ReasonElevatedOverride, ReasonAlreadyRecordedToday:
		return DecisionGranted
	default:
		return DecisionDenied
	}
}

// Verdict is the transient output of the decision engine. It is never persisted as such.
type Verdict struct {
	Decision    Decision    `json:"decision"`
	Reason      ReasonCode  `json:"reason"`
	Message     string      `json:"message"`
	SubjectID   string      `json:"subject_id,omitempty"`
	SubjectName string      `json:"subject_name,omitempty"`
	Session     *LabSession `json:"session,omitempty"`
	RecordID    *string     `json:"attendance_id,omitempty"`
	DecidedAt   time.Time   `json:"decided_at"`
}

// Granted reports whether the verdict unlocks the door.
func (v Verdict) Granted() bool {
	return v.Decision == DecisionGranted
}

// DispatchStatus describes what happened to the controller signal.
type DispatchStatus string

const (
	DispatchAcknowledged DispatchStatus = "ACKNOWLEDGED"
	DispatchFailed       DispatchStatus = "DISPATCH_FAILED"
	DispatchSkipped      DispatchStatus = "SKIPPED"
)

// DispatchOutcome reports the controller's response to a verdict signal.
type DispatchOutcome struct {
	Status     DispatchStatus `json:"status"`
	Token      string         `json:"token,omitempty"`
	StatusCode int            `json:"status_code,omitempty"`
	Error      string         `json:"error,omitempty"`
	Duration   time.Duration  `json:"duration_ns"`
	SentAt     time.Time      `json:"sent_at"`
}

// ControllerStatus is the result of the opportunistic health probe.
type ControllerStatus struct {
	Reachable  bool          `json:"reachable"`
	StatusCode int           `json:"status_code,omitempty"`
	Body       string        `json:"body,omitempty"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration_ns"`
	ObservedAt time.Time     `json:"observed_at"`
}
