// internal/handlers/invoice.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/accessramp/ramp-backend/internal/services"
	"github.com/accessramp/ramp-backend/internal/utils"
)

type InvoiceHandler struct {
	invoiceService *services.InvoiceService
}

func NewInvoiceHandler(invoiceService *services.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
	}
}

// GET /invoices
func (h *InvoiceHandler) GetInvoices(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	invoices, total, err := h.invoiceService.List(params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(invoices, total, params)
	utils.PaginatedResponse(c, result)
}

// POST /invoices
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	var req services.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	invoice, err := h.invoiceService.Create(&req)
	if err != nil {
		if errors.Is(err, services.ErrAgreementNotFound) {
			utils.NotFoundResponse(c, "Agreement")
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.CreatedResponse(c, gin.H{"invoice": invoice})
}

// GET /invoices/:id
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid invoice ID", nil)
		return
	}

	invoice, err := h.invoiceService.Get(id)
	if err != nil {
		if errors.Is(err, services.ErrInvoiceNotFound) {
			utils.NotFoundResponse(c, "Invoice")
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{"invoice": invoice})
}

// PUT /invoices/:id
func (h *InvoiceHandler) UpdateInvoice(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid invoice ID", nil)
		return
	}

	var req services.UpdateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	invoice, err := h.invoiceService.Update(id, &req)
	if err != nil {
		if errors.Is(err, services.ErrInvoiceNotFound) {
			utils.NotFoundResponse(c, "Invoice")
			return
		}
		if errors.Is(err, services.ErrInvoiceAlreadyPaid) {
			utils.ConflictResponse(c, err.Error())
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{"invoice": invoice})
}

// DELETE /invoices/:id
func (h *InvoiceHandler) DeleteInvoice(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid invoice ID", nil)
		return
	}

	if err := h.invoiceService.Delete(id); err != nil {
		if errors.Is(err, services.ErrInvoiceNotFound) {
			utils.NotFoundResponse(c, "Invoice")
			return
		}
		if errors.Is(err, services.ErrInvoiceAlreadyPaid) {
			utils.ConflictResponse(c, err.Error())
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{"message": "Invoice deleted"})
}

// POST /invoices/:id/send
func (h *InvoiceHandler) SendInvoice(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid invoice ID", nil)
		return
	}

	result, err := h.invoiceService.Send(id)
	if err != nil {
		if errors.Is(err, services.ErrInvoiceNotFound) {
			utils.NotFoundResponse(c, "Invoice")
			return
		}
		if errors.Is(err, services.ErrInvoiceAlreadyPaid) {
			utils.ConflictResponse(c, err.Error())
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, result)
}
