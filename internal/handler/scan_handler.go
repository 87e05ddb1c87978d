package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/labgate-api/internal/dto"
	"github.com/noah-isme/labgate-api/internal/middleware"
	"github.com/noah-isme/labgate-api/internal/models"
	appErrors "github.com/noah-isme/labgate-api/pkg/errors"
	"github.com/noah-isme/labgate-api/pkg/response"
)

type scanService interface {
	Scan(ctx context.Context, device string, req dto.ScanRequest) (*dto.ScanResponse, error)
	RetrySignal(ctx context.Context, device string) (*dto.ScanResponse, error)
	ControllerStatus(ctx context.Context) (models.ControllerStatus, error)
}

// ScanHandler is the scanning station surface used by the admin scanner screen.
type ScanHandler struct {
	service   scanService
	validator *validator.Validate
}

// NewScanHandler constructs the handler.
func NewScanHandler(service scanService, validate *validator.Validate) *ScanHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &ScanHandler{service: service, validator: validate}
}

// Scan godoc
// @Summary Submit a scanned credential
// @Tags Scanner
// @Accept json
// @Produce json
// @Param device path string true "Scanning station ID"
// @Param payload body dto.ScanRequest true "Scanned text"
// @Success 200 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /scanner/{device}/scans [post]
func (h *ScanHandler) Scan(c *gin.Context) {
	device := strings.TrimSpace(c.Param("device"))
	if device == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "device is required"))
		return
	}
	var req dto.ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid scan payload"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid scan payload"))
		return
	}
	result, err := h.service.Scan(c.Request.Context(), device, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil, middleware.ExtractMeta(c))
}

// RetrySignal godoc
// @Summary Re-send the last verdict to the door controller
// @Tags Scanner
// @Produce json
// @Param device path string true "Scanning station ID"
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /scanner/{device}/signal/retry [post]
func (h *ScanHandler) RetrySignal(c *gin.Context) {
	result, err := h.service.RetrySignal(c.Request.Context(), c.Param("device"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ControllerStatus godoc
// @Summary Probe the door controller
// @Tags Scanner
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /scanner/controller/status [get]
func (h *ScanHandler) ControllerStatus(c *gin.Context) {
	status, err := h.service.ControllerStatus(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}
