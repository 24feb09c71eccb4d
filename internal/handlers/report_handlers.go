package handlers

import (
	"net/http"

	"compliflow/internal/common"
	"compliflow/internal/services"

	"github.com/labstack/echo/v4"
)

// ReportHandlers handles HTTP requests for generated reports
type ReportHandlers struct {
	reportService services.ReportService
}

func NewReportHandlers(reportService services.ReportService) *ReportHandlers {
	return &ReportHandlers{reportService: reportService}
}

// GenerateHistoryReport handles POST /reports/history?format=csv|pdf
// The report file is stored in object storage; the response carries a
// presigned download URL.
func (h *ReportHandlers) GenerateHistoryReport(c echo.Context) error {
	ctx := c.Request().Context()

	format := c.QueryParam("format")
	if format == "" {
		format = "csv"
	}

	var (
		file *services.ReportFile
		err  error
	)
	switch format {
	case "csv":
		file, err = h.reportService.GenerateHistoryCSV(ctx)
	case "pdf":
		file, err = h.reportService.GenerateHistoryPDF(ctx)
	default:
		return common.SendValidationError(c, "format", "format must be csv or pdf")
	}
	if err != nil {
		return common.SendDomainError(c, err)
	}

	return c.JSON(http.StatusCreated, file)
}
