package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/labgate-api/internal/dto"
	appErrors "github.com/noah-isme/labgate-api/pkg/errors"
)

type credentialServiceMock struct {
	resp      *dto.CredentialResponse
	err       error
	png       []byte
	lastID    string
	unbindIDs []string
}

func (m *credentialServiceMock) Bind(ctx context.Context, subjectID string) (*dto.CredentialResponse, error) {
	m.lastID = subjectID
	return m.resp, m.err
}

func (m *credentialServiceMock) Unbind(subjectID string) {
	m.unbindIDs = append(m.unbindIDs, subjectID)
}

func (m *credentialServiceMock) Current(subjectID string) (*dto.CredentialResponse, error) {
	m.lastID = subjectID
	return m.resp, m.err
}

func (m *credentialServiceMock) Refresh(subjectID string) (*dto.CredentialResponse, error) {
	m.lastID = subjectID
	return m.resp, m.err
}

func (m *credentialServiceMock) QRCode(subjectID string) ([]byte, time.Duration, error) {
	m.lastID = subjectID
	return m.png, 42 * time.Second, m.err
}

func TestCredentialHandlerBind(t *testing.T) {
	mock := &credentialServiceMock{resp: &dto.CredentialResponse{SubjectID: "S-1", Payload: "{}", RemainingMs: 60000, Issued: true}}
	h := NewCredentialHandler(mock)

	c, w := newTestContext(http.MethodPost, "/me/credential", nil, studentClaims)
	h.Bind(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "S-1", mock.lastID)

	var data dto.CredentialResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &data))
	assert.Equal(t, int64(60000), data.RemainingMs)
}

func TestCredentialHandlerRequiresClaims(t *testing.T) {
	h := NewCredentialHandler(&credentialServiceMock{})
	for _, handle := range []func(*gin.Context){h.Bind, h.Current, h.Refresh, h.Unbind, h.QRCode} {
		c, w := newTestContext(http.MethodGet, "/me/credential", nil, nil)
		handle(c)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}
}

func TestCredentialHandlerCurrentWithoutBinding(t *testing.T) {
	h := NewCredentialHandler(&credentialServiceMock{err: appErrors.ErrNoCredential})
	c, w := newTestContext(http.MethodGet, "/me/credential", nil, studentClaims)
	h.Current(c)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NO_CREDENTIAL", decodeEnvelope(t, w).Error.Code)
}

func TestCredentialHandlerQRCodeAndUnbind(t *testing.T) {
	mock := &credentialServiceMock{png: []byte("\x89PNG fake")}
	h := NewCredentialHandler(mock)

	c, w := newTestContext(http.MethodGet, "/me/credential/qr.png", nil, studentClaims)
	h.QRCode(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "42000", w.Header().Get("X-Credential-Remaining-Ms"))

	c, w = newTestContext(http.MethodDelete, "/me/credential", nil, studentClaims)
	h.Unbind(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"S-1"}, mock.unbindIDs)
}
