package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/labgate-api/internal/dto"
	"github.com/noah-isme/labgate-api/internal/models"
	appErrors "github.com/noah-isme/labgate-api/pkg/errors"
	"github.com/noah-isme/labgate-api/pkg/response"
)

type attendanceService interface {
	List(ctx context.Context, req dto.AttendanceListRequest) ([]models.AttendanceRecordDetail, *models.Pagination, error)
	Close(ctx context.Context, id string) (*models.AttendanceRecord, error)
	CloseSession(ctx context.Context, sessionID string, req dto.CloseSessionRequest) (*dto.CloseSessionResponse, error)
}

// AttendanceHandler exposes attendance administration.
type AttendanceHandler struct {
	service attendanceService
}

// NewAttendanceHandler constructs the handler.
func NewAttendanceHandler(service attendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: service}
}

// List godoc
// @Summary List attendance records
// @Tags Attendance
// @Produce json
// @Param subjectId query string false "Subject ID"
// @Param sessionId query string false "Session ID"
// @Param dateFrom query string false "From date (YYYY-MM-DD)"
// @Param dateTo query string false "To date (YYYY-MM-DD)"
// @Param openOnly query bool false "Only records without time out"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /attendance [get]
func (h *AttendanceHandler) List(c *gin.Context) {
	from, err := parseDateParam(c.Query("dateFrom"))
	if err != nil {
		response.Error(c, err)
		return
	}
	to, err := parseDateParam(c.Query("dateTo"))
	if err != nil {
		response.Error(c, err)
		return
	}
	req := dto.AttendanceListRequest{
		SubjectID: strings.TrimSpace(c.Query("subjectId")),
		SessionID: strings.TrimSpace(c.Query("sessionId")),
		DateFrom:  from,
		DateTo:    to,
		OpenOnly:  c.Query("openOnly") == "true",
		Page:      parseQueryInt(c, "page", 1),
		PageSize:  parseQueryInt(c, "pageSize", 50),
		SortBy:    c.Query("sort"),
		SortOrder: c.Query("order"),
	}
	records, pagination, err := h.service.List(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, pagination)
}

// Close godoc
// @Summary Close an open attendance record
// @Tags Attendance
// @Produce json
// @Param id path string true "Attendance ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /attendance/{id}/close [post]
func (h *AttendanceHandler) Close(c *gin.Context) {
	record, err := h.service.Close(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.AttendanceRecordResponse{Record: *record}, nil)
}

// CloseSession godoc
// @Summary Close every open record of a session for one day
// @Tags Attendance
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.CloseSessionRequest false "Day to close (defaults to today)"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/close [post]
func (h *AttendanceHandler) CloseSession(c *gin.Context) {
	var req dto.CloseSessionRequest
	if c.Request.Body != nil && c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid close payload"))
			return
		}
	}
	result, err := h.service.CloseSession(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
