package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
)

// ReportFile is a generated report stored in object storage.
type ReportFile struct {
	ObjectName  string `json:"object_name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	URL         string `json:"url"`
}

// ReportService renders the version-chain history as downloadable CSV or
// PDF files and stores them in the reports bucket.
type ReportService interface {
	GenerateHistoryCSV(ctx context.Context) (*ReportFile, error)
	GenerateHistoryPDF(ctx context.Context) (*ReportFile, error)
}

type reportService struct {
	history HistoryService
	storage StorageService
	bucket  string
}

func NewReportService(history HistoryService, storage StorageService, bucket string) ReportService {
	return &reportService{
		history: history,
		storage: storage,
		bucket:  bucket,
	}
}

// historyPageSize bounds one report at a sane number of chains.
const historyPageSize = 1000

func (s *reportService) GenerateHistoryCSV(ctx context.Context) (*ReportFile, error) {
	page, err := s.history.BuildHistory(ctx, 1, historyPageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to build history for report: %w", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"chain_id", "outlet", "requirement", "version", "audit_id", "status", "submitted_by", "submitted_at", "reviewer", "rejection_reason", "open_issues"}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write report header: %w", err)
	}

	for _, chain := range page.Chains {
		for _, v := range chain.Versions {
			row := []string{
				chain.FirstAuditID.String(),
				chain.OutletName,
				chain.RequirementTitle,
				strconv.Itoa(v.AuditVersion),
				v.AuditID.String(),
				v.StatusCode,
				v.SubmittedBy,
				v.SubmittedAt.Format(time.RFC3339),
				derefOrEmpty(v.Reviewer),
				derefOrEmpty(v.RejectionReason),
				strconv.Itoa(len(v.Issues)),
			}
			if err := w.Write(row); err != nil {
				return nil, fmt.Errorf("failed to write report row: %w", err)
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to finalize report: %w", err)
	}

	return s.store(ctx, &buf, "csv", "text/csv")
}

func (s *reportService) GenerateHistoryPDF(ctx context.Context) (*ReportFile, error) {
	page, err := s.history.BuildHistory(ctx, 1, historyPageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to build history for report: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.SetTextColor(33, 37, 41)
	pdf.Cell(0, 10, "COMPLIFLOW AUDIT HISTORY")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", time.Now().Format("02-Jan-2006 15:04")))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Chains: %d", page.TotalChains))
	pdf.Ln(10)

	headers := []string{"Ver", "Status", "Submitted By", "Submitted", "Issues"}
	colWidths := []float64{15, 40, 45, 45, 25}

	for _, chain := range page.Chains {
		pdf.SetFont("Arial", "B", 11)
		pdf.Cell(0, 8, fmt.Sprintf("%s - %s (%d versions)", chain.OutletName, chain.RequirementTitle, chain.NumVersions))
		pdf.Ln(8)

		pdf.SetFont("Arial", "B", 10)
		pdf.SetFillColor(240, 240, 240)
		for i, header := range headers {
			pdf.CellFormat(colWidths[i], 7, header, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(7)

		pdf.SetFont("Arial", "", 10)
		pdf.SetFillColor(255, 255, 255)
		for _, v := range chain.Versions {
			pdf.CellFormat(colWidths[0], 7, strconv.Itoa(v.AuditVersion), "1", 0, "C", false, 0, "")
			pdf.CellFormat(colWidths[1], 7, v.StatusCode, "1", 0, "L", false, 0, "")
			pdf.CellFormat(colWidths[2], 7, v.SubmittedBy, "1", 0, "L", false, 0, "")
			pdf.CellFormat(colWidths[3], 7, v.SubmittedAt.Format("02-Jan-2006"), "1", 0, "L", false, 0, "")
			pdf.CellFormat(colWidths[4], 7, strconv.Itoa(len(v.Issues)), "1", 0, "C", false, 0, "")
			pdf.Ln(7)
		}
		pdf.Ln(5)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render report PDF: %w", err)
	}

	return s.store(ctx, &buf, "pdf", "application/pdf")
}

func (s *reportService) store(ctx context.Context, buf *bytes.Buffer, ext, contentType string) (*ReportFile, error) {
	objectName := fmt.Sprintf("history/%s-%s.%s", time.Now().Format("20060102-150405"), uuid.New().String()[:8], ext)
	size := int64(buf.Len())

	if err := s.storage.UploadReport(ctx, s.bucket, objectName, contentType, buf, size); err != nil {
		return nil, fmt.Errorf("failed to upload report %s: %w", objectName, err)
	}

	url, err := s.storage.GetPresignedURL(ctx, s.bucket, objectName, 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("failed to presign report %s: %w", objectName, err)
	}

	return &ReportFile{
		ObjectName:  objectName,
		ContentType: contentType,
		Size:        size,
		URL:         url,
	}, nil
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
