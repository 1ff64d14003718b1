// internal/handlers/quote.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/accessramp/ramp-backend/internal/services"
	"github.com/accessramp/ramp-backend/internal/utils"
)

type QuoteHandler struct {
	quoteService   *services.QuoteService
	pricingService *services.PricingService
}

func NewQuoteHandler(quoteService *services.QuoteService, pricingService *services.PricingService) *QuoteHandler {
	return &QuoteHandler{
		quoteService:   quoteService,
		pricingService: pricingService,
	}
}

// GET /quotes
func (h *QuoteHandler) GetQuotes(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	quotes, total, err := h.quoteService.List(params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(quotes, total, params)
	utils.PaginatedResponse(c, result)
}

// POST /quotes
func (h *QuoteHandler) CreateQuote(c *gin.Context) {
	var req services.CreateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	quote, err := h.quoteService.Create(&req)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.CreatedResponse(c, gin.H{"quote": quote})
}

// GET /quotes/:id
func (h *QuoteHandler) GetQuote(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid quote ID", nil)
		return
	}

	quote, err := h.quoteService.Get(id)
	if err != nil {
		if errors.Is(err, services.ErrQuoteNotFound) {
			utils.NotFoundResponse(c, "Quote")
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{"quote": quote})
}

// PUT /quotes/:id
func (h *QuoteHandler) UpdateQuote(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid quote ID", nil)
		return
	}

	var req services.UpdateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	quote, err := h.quoteService.Update(id, &req)
	if err != nil {
		if errors.Is(err, services.ErrQuoteNotFound) {
			utils.NotFoundResponse(c, "Quote")
			return
		}
		if errors.Is(err, services.ErrQuoteTerminal) {
			utils.ConflictResponse(c, err.Error())
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{"quote": quote})
}

// DELETE /quotes/:id
func (h *QuoteHandler) DeleteQuote(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid quote ID", nil)
		return
	}

	if err := h.quoteService.Delete(id); err != nil {
		if errors.Is(err, services.ErrQuoteNotFound) {
			utils.NotFoundResponse(c, "Quote")
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{"message": "Quote deleted"})
}

// POST /quotes/:id/send
func (h *QuoteHandler) SendQuote(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid quote ID", nil)
		return
	}

	quote, err := h.quoteService.Send(id)
	if err != nil {
		if errors.Is(err, services.ErrQuoteNotFound) {
			utils.NotFoundResponse(c, "Quote")
			return
		}
		if errors.Is(err, services.ErrQuoteTerminal) {
			utils.ConflictResponse(c, err.Error())
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{"quote": quote})
}

// PricingEstimateRequest selects catalog components for an address.
type PricingEstimateRequest struct {
	AddressID  uuid.UUID                     `json:"address_id" validate:"required"`
	Components []services.ComponentSelection `json:"components" validate:"required,min=1,dive"`
}

// POST /quotes/estimate
func (h *QuoteHandler) EstimatePrice(c *gin.Context) {
	var req PricingEstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	estimate, err := h.pricingService.Estimate(req.Components, req.AddressID)
	if err != nil {
		if errors.Is(err, services.ErrNoWarehouseAddress) {
			utils.ErrorResponse(c, http.StatusUnprocessableEntity, "PRICING_UNAVAILABLE", err.Error(), nil)
			return
		}
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{"estimate": estimate})
}

// GET /public/quotes/accept
func (h *QuoteHandler) AcceptQuote(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		utils.BadRequestResponse(c, "Missing acceptance token", nil)
		return
	}

	result, err := h.quoteService.Accept(token)
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrTokenExpired):
			utils.ErrorResponse(c, http.StatusGone, "TOKEN_EXPIRED", "This quote link has expired", nil)
		case errors.Is(err, utils.ErrTokenInvalid):
			utils.BadRequestResponse(c, "Invalid acceptance token", nil)
		case errors.Is(err, services.ErrQuoteNotFound):
			utils.NotFoundResponse(c, "Quote")
		case errors.Is(err, services.ErrQuoteRejected):
			utils.ConflictResponse(c, err.Error())
		default:
			utils.InternalErrorResponse(c, err.Error())
		}
		return
	}

	utils.SuccessResponse(c, result)
}
