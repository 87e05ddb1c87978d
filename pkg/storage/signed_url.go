package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidToken covers malformed tokens and bad signatures.
	ErrInvalidToken = errors.New("invalid download token")
	// ErrTokenExpired is returned for well-signed tokens past their expiry.
	ErrTokenExpired = errors.New("download token expired")
)

// SignedFile is the content of a download token.
type SignedFile struct {
	JobID     string
	Path      string
	ExpiresAt time.Time
}

// SignedURLSigner issues HMAC-SHA256 download tokens of the form job.expiry.path.signature.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedURLSigner constructs a signer.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign returns a token granting download of path for the signer's TTL.
func (s *SignedURLSigner) Sign(jobID, path string) (string, SignedFile, error) {
	if jobID == "" || path == "" {
		return "", SignedFile{}, fmt.Errorf("job id and path required")
	}
	if strings.Contains(jobID, ".") {
		return "", SignedFile{}, fmt.Errorf("job id must not contain '.'")
	}
	if len(s.secret) == 0 {
		return "", SignedFile{}, fmt.Errorf("signing secret missing")
	}
	file := SignedFile{JobID: jobID, Path: path, ExpiresAt: s.now().Add(s.ttl).Truncate(time.Second)}
	encodedPath := base64.RawURLEncoding.EncodeToString([]byte(path))
	expiry := strconv.FormatInt(file.ExpiresAt.Unix(), 10)
	token := strings.Join([]string{jobID, expiry, encodedPath, s.signature(jobID, expiry, encodedPath)}, ".")
	return token, file, nil
}

// Verify checks the signature and, unless allowExpired, the expiry.
func (s *SignedURLSigner) Verify(token string, allowExpired bool) (SignedFile, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return SignedFile{}, ErrInvalidToken
	}
	jobID, expiry, encodedPath, signature := parts[0], parts[1], parts[2], parts[3]
	if !hmac.Equal([]byte(s.signature(jobID, expiry, encodedPath)), []byte(signature)) {
		return SignedFile{}, ErrInvalidToken
	}
	unix, err := strconv.ParseInt(expiry, 10, 64)
	if err != nil {
		return SignedFile{}, ErrInvalidToken
	}
	path, err := base64.RawURLEncoding.DecodeString(encodedPath)
	if err != nil {
		return SignedFile{}, ErrInvalidToken
	}
	file := SignedFile{JobID: jobID, Path: string(path), ExpiresAt: time.Unix(unix, 0)}
	if !allowExpired && !s.now().Before(file.ExpiresAt) {
		return file, ErrTokenExpired
	}
	return file, nil
}

func (s *SignedURLSigner) signature(jobID, expiry, encodedPath string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(jobID + "|" + expiry + "|" + encodedPath))
	return hex.EncodeToString(mac.Sum(nil))
}
