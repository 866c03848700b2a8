package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/mannsetu-api/internal/dto"
	"github.com/noah-isme/mannsetu-api/internal/models"
	appErrors "github.com/noah-isme/mannsetu-api/pkg/errors"
	"github.com/noah-isme/mannsetu-api/pkg/export"
)

// Supported export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

var bookingExportHeaders = []string{"Date", "Start", "End", "Student", "Student Number", "Status", "Notes", "Rejection Reason"}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportService renders booking lists into downloadable files.
type ExportService struct {
	csv csvRenderer
	pdf pdfRenderer
	now func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers fall back to the defaults.
func NewExportService(csv csvRenderer, pdf pdfRenderer) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{csv: csv, pdf: pdf, now: time.Now}
}

// CounselorBookings renders a counselor's bookings in the requested format.
func (s *ExportService) CounselorBookings(counselor *models.Counselor, bookings []models.CounselorBooking, format string) (*dto.ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}

	dataset := export.Dataset{Headers: bookingExportHeaders, Rows: make([]map[string]string, 0, len(bookings))}
	for _, b := range bookings {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Date":             b.SlotDate,
			"Start":            b.StartTime,
			"End":              b.EndTime,
			"Student":          b.StudentName,
			"Student Number":   b.StudentNumber,
			"Status":           string(b.Status),
			"Notes":            deref(b.StudentNotes),
			"Rejection Reason": deref(b.RejectionReason),
		})
	}

	stamp := s.now().UTC().Format("20060102-150405")
	switch format {
	case ExportFormatCSV:
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &dto.ExportFile{Filename: fmt.Sprintf("bookings-%s.csv", stamp), ContentType: "text/csv", Data: data}, nil
	case ExportFormatPDF:
		data, err := s.pdf.Render(dataset, fmt.Sprintf("Bookings for %s", counselor.FullName))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &dto.ExportFile{Filename: fmt.Sprintf("bookings-%s.pdf", stamp), ContentType: "application/pdf", Data: data}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
