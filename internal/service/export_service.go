package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/edu-admin-api/internal/models"
	"github.com/noah-isme/edu-admin-api/pkg/export"
	appErrors "github.com/noah-isme/edu-admin-api/pkg/errors"
)

// Timetable export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

type exportInstanceRepository interface {
	FindByID(ctx context.Context, id string) (*models.CourseInstance, error)
}

type exportLessonRepository interface {
	ListTemplate(ctx context.Context, courseID string) ([]models.Lesson, error)
	ListByInstance(ctx context.Context, courseInstanceID string) ([]models.Lesson, error)
}

type exportOccurrenceRepository interface {
	ListByInstance(ctx context.Context, courseInstanceID string) ([]models.Occurrence, error)
}

// ExportResult carries a rendered timetable document.
type ExportResult struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders an instance's timetable as a downloadable file.
type ExportService struct {
	instances   exportInstanceRepository
	lessons     exportLessonRepository
	occurrences exportOccurrenceRepository
	csv         csvRenderer
	pdf         pdfRenderer
	logger      *zap.Logger
	enabled     bool
}

// NewExportService constructs an ExportService.
func NewExportService(instances exportInstanceRepository, lessons exportLessonRepository, occurrences exportOccurrenceRepository, logger *zap.Logger, enabled bool, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		instances:   instances,
		lessons:     lessons,
		occurrences: occurrences,
		csv:         csv,
		pdf:         pdf,
		logger:      logger,
		enabled:     enabled,
	}
}

// Enabled indicates whether exports are switched on.
func (s *ExportService) Enabled() bool {
	return s != nil && s.enabled
}

// Timetable renders the instance's schedule in the requested format.
func (s *ExportService) Timetable(ctx context.Context, courseInstanceID, format string) (*ExportResult, error) {
	if !s.Enabled() {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "exports are disabled")
	}
	format = strings.ToLower(strings.TrimSpace(format))
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	instance, err := s.instances.FindByID(ctx, courseInstanceID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course instance not found")
	}

	dataset, err := s.buildDataset(ctx, instance)
	if err != nil {
		return nil, err
	}

	title := fmt.Sprintf("Timetable %s", instance.Grade)
	var payload []byte
	var contentType string
	switch format {
	case ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
		contentType = "text/csv"
	case ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
		contentType = "application/pdf"
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable")
	}

	return &ExportResult{
		Filename:    fmt.Sprintf("timetable-%s.%s", courseInstanceID, format),
		ContentType: contentType,
		Payload:     payload,
	}, nil
}

func (s *ExportService) buildDataset(ctx context.Context, instance *models.CourseInstance) (export.Dataset, error) {
	occurrences, err := s.occurrences.ListByInstance(ctx, instance.ID)
	if err != nil {
		return export.Dataset{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list occurrences")
	}

	titles := make(map[string]string)
	templateLessons, err := s.lessons.ListTemplate(ctx, instance.CourseID)
	if err != nil {
		return export.Dataset{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list template lessons")
	}
	for _, lesson := range templateLessons {
		titles[lesson.ID] = lesson.Title
	}
	instanceLessons, err := s.lessons.ListByInstance(ctx, instance.ID)
	if err != nil {
		return export.Dataset{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list instance lessons")
	}
	for _, lesson := range instanceLessons {
		titles[lesson.ID] = lesson.Title
	}

	headers := []string{"No", "Lesson", "Date", "Start", "End"}
	rows := make([]map[string]string, 0, len(occurrences))
	for _, occ := range occurrences {
		rows = append(rows, map[string]string{
			"No":     fmt.Sprintf("%d", occ.LessonNumber),
			"Lesson": titles[occ.LessonID],
			"Date":   occ.ScheduledStart.Format("2006-01-02"),
			"Start":  occ.ScheduledStart.Format("15:04"),
			"End":    occ.ScheduledEnd.Format("15:04"),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}, nil
}
