// internal/handlers/subscription.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/accessramp/ramp-backend/internal/services"
	"github.com/accessramp/ramp-backend/internal/utils"
)

type SubscriptionHandler struct {
	subscriptionService *services.SubscriptionService
}

func NewSubscriptionHandler(subscriptionService *services.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptionService: subscriptionService,
	}
}

// GET /subscriptions
func (h *SubscriptionHandler) GetSubscriptions(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	subscriptions, total, err := h.subscriptionService.List(params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(subscriptions, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /subscriptions/:id
func (h *SubscriptionHandler) GetSubscription(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid subscription ID", nil)
		return
	}

	subscription, err := h.subscriptionService.Get(id)
	if err != nil {
		if errors.Is(err, services.ErrSubscriptionNotFound) {
			utils.NotFoundResponse(c, "Subscription")
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{"subscription": subscription})
}

// POST /subscriptions/:id/cancel
func (h *SubscriptionHandler) CancelSubscription(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid subscription ID", nil)
		return
	}

	subscription, err := h.subscriptionService.Cancel(id)
	if err != nil {
		if errors.Is(err, services.ErrSubscriptionNotFound) {
			utils.NotFoundResponse(c, "Subscription")
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{"subscription": subscription})
}
