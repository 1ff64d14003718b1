// internal/handlers/installation.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/accessramp/ramp-backend/internal/services"
	"github.com/accessramp/ramp-backend/internal/utils"
)

type InstallationHandler struct {
	installationService *services.InstallationService
}

func NewInstallationHandler(installationService *services.InstallationService) *InstallationHandler {
	return &InstallationHandler{
		installationService: installationService,
	}
}

// GET /installations
func (h *InstallationHandler) GetInstallations(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	installations, total, err := h.installationService.List(params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(installations, total, params)
	utils.PaginatedResponse(c, result)
}

// POST /installations
func (h *InstallationHandler) CreateInstallation(c *gin.Context) {
	var req services.CreateInstallationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	installation, err := h.installationService.Create(&req)
	if err != nil {
		if errors.Is(err, services.ErrAgreementNotFound) {
			utils.NotFoundResponse(c, "Agreement")
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.CreatedResponse(c, gin.H{"installation": installation})
}

// GET /installations/:id
func (h *InstallationHandler) GetInstallation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid installation ID", nil)
		return
	}

	installation, err := h.installationService.Get(id)
	if err != nil {
		if errors.Is(err, services.ErrInstallationNotFound) {
			utils.NotFoundResponse(c, "Installation")
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{"installation": installation})
}

// PUT /installations/:id
func (h *InstallationHandler) UpdateInstallation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid installation ID", nil)
		return
	}

	var req services.UpdateInstallationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	installation, err := h.installationService.Update(id, &req)
	if err != nil {
		if errors.Is(err, services.ErrInstallationNotFound) {
			utils.NotFoundResponse(c, "Installation")
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{"installation": installation})
}

// DELETE /installations/:id
func (h *InstallationHandler) DeleteInstallation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid installation ID", nil)
		return
	}

	if err := h.installationService.Delete(id); err != nil {
		if errors.Is(err, services.ErrInstallationNotFound) {
			utils.NotFoundResponse(c, "Installation")
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{"message": "Installation deleted"})
}

// POST /installations/:id/photos
func (h *InstallationHandler) UploadPhoto(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid installation ID", nil)
		return
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		utils.BadRequestResponse(c, "No photo uploaded", err.Error())
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		utils.BadRequestResponse(c, "Failed to read photo", err.Error())
		return
	}
	defer file.Close()

	installation, err := h.installationService.AddPhoto(id, file, fileHeader)
	if err != nil {
		if errors.Is(err, services.ErrInstallationNotFound) {
			utils.NotFoundResponse(c, "Installation")
			return
		}
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{"installation": installation})
}
