package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/sgms/grievance-api/internal/models"
	"github.com/sgms/grievance-api/internal/repository"
	appErrors "github.com/sgms/grievance-api/pkg/errors"
	"github.com/sgms/grievance-api/pkg/export"
)

// exportBatchSize is the page size used when walking the register.
const exportBatchSize = 1000

// ExportService renders filtered grievance lists as downloadable reports.
type ExportService struct {
	repo   grievanceRepository
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
	logger *zap.Logger
}

// NewExportService constructs the service.
func NewExportService(repo grievanceRepository, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		repo:   repo,
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
		logger: logger,
	}
}

// ExportResult is a rendered report ready to stream.
type ExportResult struct {
	FileName    string
	ContentType string
	Content     []byte
}

var exportHeaders = []string{"ID", "Title", "Student", "Category", "Status", "Priority", "Assigned To", "Created", "Resolved"}

// Grievances renders the admin grievance register in the requested format
// ("csv" or "pdf") honouring the same filters as the list endpoint.
func (s *ExportService) Grievances(ctx context.Context, actor models.Actor, format string, filter models.GrievanceFilter) (*ExportResult, error) {
	if actor.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "exports are limited to admins")
	}
	if format != "csv" && format != "pdf" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	if filter.CategoryID < 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid category filter")
	}

	// Page through the register so exports past one batch are complete.
	var rows []models.GrievanceDetail
	filter.Limit = exportBatchSize
	for page := 1; ; page++ {
		filter.Page = page
		batch, total, err := s.repo.List(ctx, repository.GrievanceScope{Admin: true}, filter)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grievances")
		}
		rows = append(rows, batch...)
		if len(batch) < exportBatchSize || len(rows) >= total {
			break
		}
	}

	dataset := export.Dataset{Headers: exportHeaders, Rows: make([]map[string]string, 0, len(rows))}
	for _, row := range rows {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"ID":          strconv.FormatInt(row.ID, 10),
			"Title":       row.Title,
			"Student":     deref(row.StudentName),
			"Category":    deref(row.CategoryName),
			"Status":      deref(row.StatusName),
			"Priority":    row.Priority,
			"Assigned To": deref(row.AssignedFacultyName),
			"Created":     row.CreatedAt.Format("2006-01-02"),
			"Resolved":    formatTimePtr(row.ResolvedAt),
		})
	}

	stamp := time.Now().UTC().Format("20060102-150405")
	switch format {
	case "csv":
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportResult{
			FileName:    fmt.Sprintf("grievances-%s.csv", stamp),
			ContentType: "text/csv",
			Content:     content,
		}, nil
	default:
		content, err := s.pdf.Render(dataset, "Grievance Report")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportResult{
			FileName:    fmt.Sprintf("grievances-%s.pdf", stamp),
			ContentType: "application/pdf",
			Content:     content,
		}, nil
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
