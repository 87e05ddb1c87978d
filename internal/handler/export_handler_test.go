package handler

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/labgate-api/internal/dto"
	"github.com/noah-isme/labgate-api/internal/models"
	"github.com/noah-isme/labgate-api/internal/service"
	appErrors "github.com/noah-isme/labgate-api/pkg/errors"
)

type exportServiceMock struct {
	lastReq   dto.ExportRequest
	lastActor string
	download  *service.ExportDownload
	err       error
}

func (m *exportServiceMock) Create(ctx context.Context, req dto.ExportRequest, actorID string) (*dto.ExportJobResponse, error) {
	m.lastReq = req
	m.lastActor = actorID
	if m.err != nil {
		return nil, m.err
	}
	return &dto.ExportJobResponse{ID: "job-1", Status: models.ExportStatusQueued}, nil
}

func (m *exportServiceMock) Status(ctx context.Context, id string) (*dto.ExportStatusResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &dto.ExportStatusResponse{ID: id, Status: models.ExportStatusFinished}, nil
}

func (m *exportServiceMock) ResolveDownload(ctx context.Context, token string) (*service.ExportDownload, error) {
	return m.download, m.err
}

func TestExportHandlerCreate(t *testing.T) {
	mock := &exportServiceMock{}
	h := NewExportHandler(mock)

	c, w := newTestContext(http.MethodPost, "/attendance/exports", []byte(`{"dateFrom":"2024-05-01","dateTo":"2024-05-31","format":"csv"}`), adminClaims)
	h.Create(c)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "ADM-1", mock.lastActor)
	assert.Equal(t, models.ExportFormatCSV, mock.lastReq.Format)
}

func TestExportHandlerDisabled(t *testing.T) {
	h := NewExportHandler(nil)
	c, w := newTestContext(http.MethodPost, "/attendance/exports", []byte(`{}`), adminClaims)
	h.Create(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExportHandlerDownload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.csv")
	require.NoError(t, os.WriteFile(path, []byte("Date,Session\n"), 0o644))
	file, err := os.Open(path)
	require.NoError(t, err)

	h := NewExportHandler(&exportServiceMock{download: &service.ExportDownload{File: file, Filename: "report.csv", ContentType: "text/csv"}})
	c, w := newTestContext(http.MethodGet, "/attendance/exports/download/tok", nil, nil)
	c.Params = gin.Params{{Key: "token", Value: "tok"}}
	h.Download(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "report.csv")
	assert.Equal(t, "Date,Session\n", w.Body.String())

	h = NewExportHandler(&exportServiceMock{err: appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")})
	c, w = newTestContext(http.MethodGet, "/attendance/exports/download/tok", nil, nil)
	c.Params = gin.Params{{Key: "token", Value: "tok"}}
	h.Download(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
