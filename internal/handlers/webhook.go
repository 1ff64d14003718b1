// internal/handlers/webhook.go
package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/webhook"

	"github.com/accessramp/ramp-backend/internal/config"
	"github.com/accessramp/ramp-backend/internal/services"
	"github.com/accessramp/ramp-backend/internal/utils"
)

// WebhookHandler receives provider callbacks. Stripe requests are verified
// against the webhook signing secret; the e-sign provider does not sign its
// callbacks, so those are matched against stored document ids only.
type WebhookHandler struct {
	config              *config.Config
	agreementService    *services.AgreementService
	invoiceService      *services.InvoiceService
	subscriptionService *services.SubscriptionService
}

func NewWebhookHandler(config *config.Config, agreementService *services.AgreementService, invoiceService *services.InvoiceService, subscriptionService *services.SubscriptionService) *WebhookHandler {
	return &WebhookHandler{
		config:              config,
		agreementService:    agreementService,
		invoiceService:      invoiceService,
		subscriptionService: subscriptionService,
	}
}

// POST /webhooks/esign
func (h *WebhookHandler) HandleESign(c *gin.Context) {
	var payload services.ESignWebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.BadRequestResponse(c, "Invalid payload", err.Error())
		return
	}

	if err := h.agreementService.HandleWebhook(&payload); err != nil {
		logrus.WithError(err).Error("E-sign webhook processing failed")
		utils.InternalErrorResponse(c, "Webhook processing failed")
		return
	}

	utils.SuccessResponse(c, gin.H{"received": true})
}

// POST /webhooks/stripe
func (h *WebhookHandler) HandleStripe(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, 65536))
	if err != nil {
		utils.BadRequestResponse(c, "Failed to read payload", nil)
		return
	}

	event, err := webhook.ConstructEvent(body, c.GetHeader("Stripe-Signature"), h.config.Payment.StripeWebhookSecret)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid webhook signature", nil)
		return
	}

	// Payment dates come from the event itself, not from when the delivery
	// finally reached us.
	occurredAt := time.Now()
	if event.Created > 0 {
		occurredAt = time.Unix(event.Created, 0)
	}

	switch event.Type {
	case "payment_intent.succeeded":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			utils.BadRequestResponse(c, "Malformed event payload", nil)
			return
		}
		err = h.invoiceService.HandlePaymentIntentSucceeded(&pi, occurredAt)

	case "invoice.paid":
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			utils.BadRequestResponse(c, "Malformed event payload", nil)
			return
		}
		err = h.invoiceService.HandleInvoicePaid(&inv, occurredAt)

	case "customer.subscription.created", "customer.subscription.updated", "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			utils.BadRequestResponse(c, "Malformed event payload", nil)
			return
		}
		err = h.subscriptionService.HandleWebhook(&sub)

	default:
		logrus.WithField("type", event.Type).Debug("Unhandled stripe event")
	}

	if err != nil {
		logrus.WithError(err).WithField("type", event.Type).Error("Stripe webhook processing failed")
		utils.InternalErrorResponse(c, "Webhook processing failed")
		return
	}

	utils.SuccessResponse(c, gin.H{"received": true})
}
