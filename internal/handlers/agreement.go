// internal/handlers/agreement.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/accessramp/ramp-backend/internal/services"
	"github.com/accessramp/ramp-backend/internal/utils"
)

type AgreementHandler struct {
	agreementService *services.AgreementService
}

func NewAgreementHandler(agreementService *services.AgreementService) *AgreementHandler {
	return &AgreementHandler{
		agreementService: agreementService,
	}
}

// GET /agreements
func (h *AgreementHandler) GetAgreements(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	agreements, total, err := h.agreementService.List(params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(agreements, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /agreements/:id
func (h *AgreementHandler) GetAgreement(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid agreement ID", nil)
		return
	}

	agreement, err := h.agreementService.Get(id)
	if err != nil {
		if errors.Is(err, services.ErrAgreementNotFound) {
			utils.NotFoundResponse(c, "Agreement")
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{"agreement": agreement})
}

// POST /agreements/:id/send
func (h *AgreementHandler) SendAgreement(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid agreement ID", nil)
		return
	}

	agreement, err := h.agreementService.Send(id)
	if err != nil {
		if errors.Is(err, services.ErrAgreementNotFound) {
			utils.NotFoundResponse(c, "Agreement")
			return
		}
		if errors.Is(err, services.ErrAgreementTerminal) {
			utils.ConflictResponse(c, err.Error())
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{"agreement": agreement})
}
