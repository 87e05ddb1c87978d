package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/labgate-api/internal/dto"
	appErrors "github.com/noah-isme/labgate-api/pkg/errors"
	"github.com/noah-isme/labgate-api/pkg/response"
)

type credentialService interface {
	Bind(ctx context.Context, subjectID string) (*dto.CredentialResponse, error)
	Unbind(subjectID string)
	Current(subjectID string) (*dto.CredentialResponse, error)
	Refresh(subjectID string) (*dto.CredentialResponse, error)
	QRCode(subjectID string) ([]byte, time.Duration, error)
}

// CredentialHandler serves the caller's rotating badge.
type CredentialHandler struct {
	service credentialService
}

// NewCredentialHandler constructs the handler.
func NewCredentialHandler(service credentialService) *CredentialHandler {
	return &CredentialHandler{service: service}
}

// Bind godoc
// @Summary Start the caller's rotating credential
// @Tags Credentials
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /me/credential [post]
func (h *CredentialHandler) Bind(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	cred, err := h.service.Bind(c.Request.Context(), claims.SubjectID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, cred)
}

// Current godoc
// @Summary Current credential of the caller
// @Tags Credentials
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /me/credential [get]
func (h *CredentialHandler) Current(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	cred, err := h.service.Current(claims.SubjectID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cred, nil)
}

// Refresh godoc
// @Summary Rotate the caller's credential now
// @Tags Credentials
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /me/credential/refresh [post]
func (h *CredentialHandler) Refresh(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	cred, err := h.service.Refresh(claims.SubjectID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cred, nil)
}

// Unbind godoc
// @Summary Stop the caller's credential rotation
// @Tags Credentials
// @Success 204
// @Router /me/credential [delete]
func (h *CredentialHandler) Unbind(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	h.service.Unbind(claims.SubjectID)
	c.Status(http.StatusNoContent)
}

// QRCode godoc
// @Summary Current credential as a PNG QR code
// @Tags Credentials
// @Produce png
// @Success 200 {file} binary
// @Router /me/credential/qr.png [get]
func (h *CredentialHandler) QRCode(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	png, remaining, err := h.service.QRCode(claims.SubjectID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Header("X-Credential-Remaining-Ms", fmt.Sprintf("%d", remaining.Milliseconds()))
	c.Data(http.StatusOK, "image/png", png)
}
