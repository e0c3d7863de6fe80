package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ledgerai/reconcile-backend/internal/api/dto"
	"github.com/ledgerai/reconcile-backend/internal/application/reconcile"
	"github.com/ledgerai/reconcile-backend/internal/domain/record"
	"github.com/ledgerai/reconcile-backend/internal/export"
)

// RunsHandler exposes reconciliation runs and their reports.
type RunsHandler struct {
	service *reconcile.Service
}

// NewRunsHandler creates a runs handler backed by the pipeline service.
func NewRunsHandler(service *reconcile.Service) *RunsHandler {
	return &RunsHandler{service: service}
}

// Reconcile handles POST /api/tenants/:tenantId/reconcile and returns
// the full report of the run it triggered.
func (h *RunsHandler) Reconcile(c *gin.Context) {
	tenantID := c.Param("tenantId")

	rep, err := h.service.Reconcile(c.Request.Context(), tenantID)
	if err != nil {
		var recErr *record.ReconciliationError
		if errors.As(err, &recErr) {
			c.JSON(http.StatusBadRequest, dto.BadRequestError(recErr.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, dto.InternalError())
		return
	}

	c.JSON(http.StatusOK, rep)
}

// GetReport handles GET /api/tenants/:tenantId/report, returning the
// most recent report for the tenant.
func (h *RunsHandler) GetReport(c *gin.Context) {
	tenantID := c.Param("tenantId")

	rep, err := h.service.LatestOrStoredReport(tenantID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.InternalError())
		return
	}
	if rep == nil {
		c.JSON(http.StatusNotFound, dto.NotFoundError("report"))
		return
	}

	c.JSON(http.StatusOK, rep)
}

// GetSummary handles GET /api/tenants/:tenantId/summary, answering from
// the persisted run so it survives restarts.
func (h *RunsHandler) GetSummary(c *gin.Context) {
	tenantID := c.Param("tenantId")

	run, err := h.service.LatestRun(tenantID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.InternalError())
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound, dto.NotFoundError("run"))
		return
	}

	c.JSON(http.StatusOK, dto.NewRunResponse(run))
}

// Export handles GET /api/tenants/:tenantId/export?format=csv|xlsx,
// streaming the latest report as a download.
func (h *RunsHandler) Export(c *gin.Context) {
	tenantID := c.Param("tenantId")
	format := c.DefaultQuery("format", "csv")

	rep, err := h.service.LatestOrStoredReport(tenantID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.InternalError())
		return
	}
	if rep == nil {
		c.JSON(http.StatusNotFound, dto.NotFoundError("report"))
		return
	}

	var (
		buf         bytes.Buffer
		contentType string
	)
	switch format {
	case "csv":
		contentType = "text/csv"
		err = export.WriteCSV(&buf, rep)
	case "xlsx":
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		err = export.WriteXLSX(&buf, rep)
	default:
		c.JSON(http.StatusBadRequest, dto.BadRequestError("format must be csv or xlsx"))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.InternalError())
		return
	}

	filename := fmt.Sprintf("reconciliation-%s.%s", rep.RunID, format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}
