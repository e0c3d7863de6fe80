package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ledgerai/reconcile-backend/internal/api/dto"
	"github.com/ledgerai/reconcile-backend/internal/application/reconcile"
	"github.com/ledgerai/reconcile-backend/internal/ingest"
)

// RecordsHandler handles invoice and transaction submission.
type RecordsHandler struct {
	service *reconcile.Service
}

// NewRecordsHandler creates a records handler backed by the pipeline
// service.
func NewRecordsHandler(service *reconcile.Service) *RecordsHandler {
	return &RecordsHandler{service: service}
}

// SubmitInvoices handles POST /api/tenants/:tenantId/invoices.
// The body is either a SubmitInvoicesRequest wrapper or the extractor's
// raw invoice array.
func (h *RecordsHandler) SubmitInvoices(c *gin.Context) {
	tenantID := c.Param("tenantId")

	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.BadRequestError("failed to read request body"))
		return
	}

	var req dto.SubmitInvoicesRequest
	if err := bindJSON(body, &req); err != nil || req.Invoices == nil {
		// Fall back to the bare extractor array.
		invoices, parseErr := ingest.ParseInvoiceJSON(body)
		if parseErr != nil {
			c.JSON(http.StatusBadRequest, dto.ValidationError("body must be an invoice array or {\"invoices\": [...]}"))
			return
		}
		req.Invoices = invoices
	}

	result, err := h.service.SubmitInvoices(c.Request.Context(), tenantID, req.Invoices)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.InternalError())
		return
	}

	c.JSON(http.StatusOK, dto.SubmitResponse{
		Accepted:      result.Accepted,
		Unprocessable: result.Unprocessable,
	})
}

// SubmitTransactions handles POST /api/tenants/:tenantId/transactions.
func (h *RecordsHandler) SubmitTransactions(c *gin.Context) {
	tenantID := c.Param("tenantId")

	var req dto.SubmitTransactionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ValidationError(err.Error()))
		return
	}

	result, err := h.service.SubmitTransactions(c.Request.Context(), tenantID, req.Transactions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.InternalError())
		return
	}

	c.JSON(http.StatusOK, dto.SubmitResponse{
		Accepted:      result.Accepted,
		Unprocessable: result.Unprocessable,
	})
}

// UploadStatement handles POST /api/tenants/:tenantId/transactions/csv,
// a multipart upload of a bank statement export.
func (h *RecordsHandler) UploadStatement(c *gin.Context) {
	tenantID := c.Param("tenantId")

	file, _, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.BadRequestError("multipart field 'file' is required"))
		return
	}
	defer file.Close()

	txns, rowErrs, err := ingest.ReadBankCSV(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ValidationError(err.Error()))
		return
	}

	result, err := h.service.SubmitTransactions(c.Request.Context(), tenantID, txns)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.InternalError())
		return
	}

	c.JSON(http.StatusOK, dto.SubmitResponse{
		Accepted:      result.Accepted,
		Unprocessable: result.Unprocessable,
		RowErrors:     rowErrs,
	})
}
