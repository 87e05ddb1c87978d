// Package credential mints and parses the short-lived payload rendered as a subject's QR badge.
package credential

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrUnrecognizedFormat means the scanned text is not a credential payload at all.
	ErrUnrecognizedFormat = errors.New("unrecognized credential format")
	// ErrMissingSubjectIdentity means the payload parsed but carries no subject id.
	ErrMissingSubjectIdentity = errors.New("credential has no subject identity")
	// ErrPaddedSubjectIdentity means the subject id carries surrounding whitespace, which Decode
	// would strip.
	ErrPaddedSubjectIdentity = errors.New("subject identity has surrounding whitespace")
)

// CheckSubjectID rejects ids that would not survive an encode and decode unchanged.
func CheckSubjectID(id string) error {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return ErrMissingSubjectIdentity
	}
	if trimmed != id {
		return fmt.Errorf("%w: %q", ErrPaddedSubjectIdentity, id)
	}
	return nil
}

// Subject holds the identity and display fields copied into a credential.
type Subject struct {
	ID      string
	Name    string
	Course  string
	Section string
}

// Credential is the decoded badge payload. Display fields are denormalised copies and
// must not be trusted for authorisation.
type Credential struct {
	SubjectID string    `json:"subject_id"`
	Name      string    `json:"name"`
	Course    string    `json:"course,omitempty"`
	Section   string    `json:"section,omitempty"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Token     string    `json:"token"`
}

// Mint builds a credential valid for the given duration starting at issuedAt.
func Mint(subject Subject, issuedAt time.Time, validity time.Duration, token string) Credential {
	return Credential{
		SubjectID: subject.ID,
		Name:      subject.Name,
		Course:    subject.Course,
		Section:   subject.Section,
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt.Add(validity),
		Token:     token,
	}
}

// ValidAt reports now < expiry.
func (c Credential) ValidAt(now time.Time) bool {
	return now.Before(c.ExpiresAt)
}

// Remaining returns the time left before expiry, never negative.
func (c Credential) Remaining(now time.Time) time.Duration {
	left := c.ExpiresAt.Sub(now)
	if left < 0 {
		return 0
	}
	return left
}

// NewToken returns 16 random bytes hex encoded.
func NewToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate credential token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

type wirePayload struct {
	SubjectID string `json:"subject_id"`
	Name      string `json:"name"`
	Course    string `json:"course,omitempty"`
	Section   string `json:"section,omitempty"`
	IssuedAt  string `json:"issued_at"`
	ExpiresAt string `json:"expires_at"`
	Token     string `json:"token"`
}

// Encode renders the credential as a flat JSON object with RFC 3339 timestamps.
func Encode(c Credential) (string, error) {
	if err := CheckSubjectID(c.SubjectID); err != nil {
		return "", err
	}
	payload := wirePayload{
		SubjectID: c.SubjectID,
		Name:      c.Name,
		Course:    c.Course,
		Section:   c.Section,
		IssuedAt:  c.IssuedAt.Format(time.RFC3339Nano),
		ExpiresAt: c.ExpiresAt.Format(time.RFC3339Nano),
		Token:     c.Token,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode credential: %w", err)
	}
	return string(data), nil
}

// subject id keys in order of preference; older badges used id or studentId.
var subjectKeys = []string{"subject_id", "id", "studentId", "student_id"}

// Decode parses scanned text. It only checks shape: expiry is left to the caller.
func Decode(raw string) (Credential, error) {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") {
		return Credential{}, ErrUnrecognizedFormat
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal([]byte(trimmed), &fields); err != nil {
		return Credential{}, fmt.Errorf("%w: %v", ErrUnrecognizedFormat, err)
	}

	subjectID, err := firstString(fields, subjectKeys...)
	if err != nil {
		return Credential{}, err
	}
	if subjectID == "" {
		return Credential{}, ErrMissingSubjectIdentity
	}

	issuedAt, err := requiredTime(fields, "issued_at")
	if err != nil {
		return Credential{}, err
	}
	expiresAt, err := requiredTime(fields, "expires_at")
	if err != nil {
		return Credential{}, err
	}

	cred := Credential{SubjectID: subjectID, IssuedAt: issuedAt, ExpiresAt: expiresAt}
	if cred.Name, err = firstString(fields, "name"); err != nil {
		return Credential{}, err
	}
	if cred.Course, err = firstString(fields, "course"); err != nil {
		return Credential{}, err
	}
	if cred.Section, err = firstString(fields, "section"); err != nil {
		return Credential{}, err
	}
	if cred.Token, err = firstString(fields, "token"); err != nil {
		return Credential{}, err
	}
	return cred, nil
}

func requiredTime(fields map[string]json.RawMessage, key string) (time.Time, error) {
	value, err := firstString(fields, key)
	if err != nil {
		return time.Time{}, err
	}
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: missing %s", ErrUnrecognizedFormat, key)
	}
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: %v", ErrUnrecognizedFormat, key, err)
	}
	return ts, nil
}

// firstString returns the first present key as a string. Numbers are accepted
// verbatim; null counts as absent; any other type is a shape error.
func firstString(fields map[string]json.RawMessage, keys ...string) (string, error) {
	for _, key := range keys {
		raw, ok := fields[key]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			return s, nil
		}
		var n json.Number
		if err := json.Unmarshal(raw, &n); err == nil {
			return n.String(), nil
		}
		return "", fmt.Errorf("%w: field %s has unexpected type", ErrUnrecognizedFormat, key)
	}
	return "", nil
}
