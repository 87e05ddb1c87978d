package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/labgate-api/internal/models"
	"github.com/noah-isme/labgate-api/pkg/export"
	"github.com/noah-isme/labgate-api/pkg/storage"
)

type attendanceExportSource interface {
	ListForExport(ctx context.Context, params models.ExportJobParams, from, to time.Time) ([]models.AttendanceRecordDetail, error)
}

type fileStorage interface {
	Save(name string, data []byte) (string, error)
	Open(name string) (*os.File, error)
	Delete(name string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportConfig tunes export rendering.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
	Location  *time.Location
}

// ExportResult describes a stored export.
type ExportResult struct {
	Path      string
	Token     string
	URL       string
	ExpiresAt time.Time
}

// ExportService renders attendance datasets and stores them behind signed URLs.
type ExportService struct {
	source    attendanceExportSource
	storage   fileStorage
	signer    *storage.SignedURLSigner
	renderers map[models.ExportFormat]export.Renderer
	logger    *zap.Logger
	cfg       ExportConfig
}

// NewExportService constructs the service with CSV and PDF renderers.
func NewExportService(source attendanceExportSource, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	return &ExportService{
		source:  source,
		storage: store,
		signer:  signer,
		renderers: map[models.ExportFormat]export.Renderer{
			models.ExportFormatCSV: export.NewCSVRenderer(),
			models.ExportFormatPDF: export.NewPDFRenderer("labgate attendance export"),
		},
		logger: logger,
		cfg:    cfg,
	}
}

// Generate renders the job's dataset, stores it and signs a download URL.
func (s *ExportService) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("export job is nil")
	}
	renderer, ok := s.renderers[job.Params.Format]
	if !ok {
		return nil, fmt.Errorf("unsupported export format %q", job.Params.Format)
	}
	from, to, err := parseExportRange(job.Params)
	if err != nil {
		return nil, err
	}
	rows, err := s.source.ListForExport(ctx, job.Params, from, to)
	if err != nil {
		return nil, err
	}
	payload, err := renderer.Render(s.dataset(job.Params, rows))
	if err != nil {
		return nil, err
	}

	name := fmt.Sprintf("attendance/%s_%s_%s.%s", job.ID, strings.ReplaceAll(job.Params.DateFrom, "-", ""),
		strings.ReplaceAll(job.Params.DateTo, "-", ""), renderer.Extension())
	path, err := s.storage.Save(name, payload)
	if err != nil {
		return nil, err
	}
	token, signed, err := s.signer.Sign(job.ID, path)
	if err != nil {
		return nil, err
	}
	s.logger.Info("attendance export stored", zap.String("job_id", job.ID), zap.Int("rows", len(rows)), zap.String("path", path))
	return &ExportResult{
		Path:      path,
		Token:     token,
		URL:       fmt.Sprintf("%s/attendance/exports/download/%s", strings.TrimRight(s.cfg.APIPrefix, "/"), token),
		ExpiresAt: signed.ExpiresAt,
	}, nil
}

// Verify validates a download token.
func (s *ExportService) Verify(token string, allowExpired bool) (storage.SignedFile, error) {
	return s.signer.Verify(token, allowExpired)
}

// Open returns the stored file.
func (s *ExportService) Open(path string) (*os.File, error) {
	return s.storage.Open(path)
}

// Delete removes a stored file.
func (s *ExportService) Delete(path string) error {
	return s.storage.Delete(path)
}

// Cleanup removes files older than the result TTL.
func (s *ExportService) Cleanup() ([]string, error) {
	return s.storage.CleanupOlderThan(s.cfg.ResultTTL)
}

// ContentType returns the MIME type for format.
func (s *ExportService) ContentType(format models.ExportFormat) string {
	if renderer, ok := s.renderers[format]; ok {
		return renderer.ContentType()
	}
	return "application/octet-stream"
}

func (s *ExportService) dataset(params models.ExportJobParams, rows []models.AttendanceRecordDetail) export.Dataset {
	title := fmt.Sprintf("Lab attendance %s to %s", params.DateFrom, params.DateTo)
	if params.SessionID != "" && len(rows) > 0 {
		title = fmt.Sprintf("%s attendance %s to %s", rows[0].SessionName, params.DateFrom, params.DateTo)
	}
	d := export.Dataset{
		Title:   title,
		Columns: []string{"Date", "Session", "Course", "Student ID", "Student", "Time In", "Time Out"},
		Rows:    make([][]string, 0, len(rows)),
	}
	for _, row := range rows {
		timeOut := ""
		if row.TimeOut != nil {
			timeOut = row.TimeOut.In(s.cfg.Location).Format("15:04")
		}
		d.Rows = append(d.Rows, []string{
			row.AttendanceDate.Format("2006-01-02"),
			row.SessionName,
			deref(row.CourseName),
			row.SubjectID,
			row.SubjectName,
			row.TimeIn.In(s.cfg.Location).Format("15:04"),
			timeOut,
		})
	}
	return d
}

func parseExportRange(params models.ExportJobParams) (time.Time, time.Time, error) {
	from, err := time.Parse("2006-01-02", params.DateFrom)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid dateFrom %q", params.DateFrom)
	}
	to, err := time.Parse("2006-01-02", params.DateTo)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid dateTo %q", params.DateTo)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("dateTo %s is before dateFrom %s", params.DateTo, params.DateFrom)
	}
	return from, to, nil
}
