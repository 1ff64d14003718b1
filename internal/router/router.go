// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/accessramp/ramp-backend/internal/config"
	"github.com/accessramp/ramp-backend/internal/handlers"
	"github.com/accessramp/ramp-backend/internal/middleware"
	"github.com/accessramp/ramp-backend/internal/services"
	"github.com/accessramp/ramp-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// Initialize services
	notificationService := services.NewNotificationService(cfg)
	storageService, _ := services.NewStorageService(cfg)
	geocodingService := services.NewGeocodingService(cfg)
	esignService := services.NewESignService(cfg)

	authService := services.NewAuthService(db, cfg)
	customerService := services.NewCustomerService(db, cfg)
	leadService := services.NewLeadService(db, cfg)
	pricingService := services.NewPricingService(db, cfg, geocodingService)
	subscriptionService := services.NewSubscriptionService(db, cfg)
	invoiceService := services.NewInvoiceService(db, cfg, notificationService, subscriptionService)
	agreementService := services.NewAgreementService(db, cfg, esignService, notificationService, invoiceService)
	quoteService := services.NewQuoteService(db, cfg, notificationService, agreementService, invoiceService)
	installationService := services.NewInstallationService(db, cfg, storageService)
	adminService := services.NewAdminService(db, cfg)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	customerHandler := handlers.NewCustomerHandler(customerService)
	leadHandler := handlers.NewLeadHandler(leadService)
	quoteHandler := handlers.NewQuoteHandler(quoteService, pricingService)
	agreementHandler := handlers.NewAgreementHandler(agreementService)
	installationHandler := handlers.NewInstallationHandler(installationService)
	invoiceHandler := handlers.NewInvoiceHandler(invoiceService)
	subscriptionHandler := handlers.NewSubscriptionHandler(subscriptionService)
	adminHandler := handlers.NewAdminHandler(adminService)
	webhookHandler := handlers.NewWebhookHandler(cfg, agreementService, invoiceService, subscriptionService)

	// Set signing secrets
	utils.SetJWTSecret(cfg.JWT.SecretKey)
	utils.SetAcceptanceSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(cfg.Frontend.BaseURL))
	r.Use(middleware.GeneralRateLimit())
	r.Use(middleware.AuditLogMiddleware(db))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/login", authHandler.Login)
			auth.GET("/me", middleware.AuthRequired(), authHandler.Me)
			auth.POST("/change-password", middleware.AuthRequired(), authHandler.ChangePassword)
			auth.POST("/users", middleware.AuthRequired(), middleware.AdminRequired(), authHandler.CreateUser)
		}

		// Public routes: website intake, quote acceptance, provider webhooks
		public := v1.Group("/public")
		public.Use(middleware.PublicRateLimit())
		{
			public.POST("/leads/intake", middleware.IntakeAuth(cfg.Intake.BearerToken), leadHandler.Intake)
			public.GET("/quotes/accept", quoteHandler.AcceptQuote)
		}

		webhooks := v1.Group("/webhooks")
		{
			webhooks.POST("/esign", webhookHandler.HandleESign)
			webhooks.POST("/stripe", webhookHandler.HandleStripe)
		}

		// Staff routes
		staff := v1.Group("")
		staff.Use(middleware.AuthRequired())
		{
			customers := staff.Group("/customers")
			{
				customers.GET("", customerHandler.GetCustomers)
				customers.POST("", customerHandler.CreateCustomer)
				customers.GET("/:id", customerHandler.GetCustomer)
				customers.PUT("/:id", customerHandler.UpdateCustomer)
				customers.DELETE("/:id", customerHandler.DeleteCustomer)
				customers.POST("/:id/addresses", customerHandler.AddAddress)
				customers.DELETE("/:id/addresses/:addressId", customerHandler.DeleteAddress)
				customers.GET("/:id/progress", customerHandler.GetProgress)
			}

			leads := staff.Group("/leads")
			{
				leads.GET("", leadHandler.GetLeads)
				leads.POST("", leadHandler.CreateLead)
				leads.GET("/:id", leadHandler.GetLead)
				leads.PUT("/:id", leadHandler.UpdateLead)
				leads.DELETE("/:id", leadHandler.DeleteLead)
			}

			quotes := staff.Group("/quotes")
			{
				quotes.GET("", quoteHandler.GetQuotes)
				quotes.POST("", quoteHandler.CreateQuote)
				quotes.POST("/estimate", quoteHandler.EstimatePrice)
				quotes.GET("/:id", quoteHandler.GetQuote)
				quotes.PUT("/:id", quoteHandler.UpdateQuote)
				quotes.DELETE("/:id", quoteHandler.DeleteQuote)
				quotes.POST("/:id/send", quoteHandler.SendQuote)
			}

			agreements := staff.Group("/agreements")
			{
				agreements.GET("", agreementHandler.GetAgreements)
				agreements.GET("/:id", agreementHandler.GetAgreement)
				agreements.POST("/:id/send", agreementHandler.SendAgreement)
			}

			installations := staff.Group("/installations")
			{
				installations.GET("", installationHandler.GetInstallations)
				installations.POST("", installationHandler.CreateInstallation)
				installations.GET("/:id", installationHandler.GetInstallation)
				installations.PUT("/:id", installationHandler.UpdateInstallation)
				installations.DELETE("/:id", installationHandler.DeleteInstallation)
				installations.POST("/:id/photos", installationHandler.UploadPhoto)
			}

			invoices := staff.Group("/invoices")
			{
				invoices.GET("", invoiceHandler.GetInvoices)
				invoices.POST("", invoiceHandler.CreateInvoice)
				invoices.GET("/:id", invoiceHandler.GetInvoice)
				invoices.PUT("/:id", invoiceHandler.UpdateInvoice)
				invoices.DELETE("/:id", invoiceHandler.DeleteInvoice)
				invoices.POST("/:id/send", invoiceHandler.SendInvoice)
			}

			subscriptions := staff.Group("/subscriptions")
			{
				subscriptions.GET("", subscriptionHandler.GetSubscriptions)
				subscriptions.GET("/:id", subscriptionHandler.GetSubscription)
				subscriptions.POST("/:id/cancel", subscriptionHandler.CancelSubscription)
			}
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			admin.GET("/dashboard", adminHandler.GetDashboard)

			adminSettings := admin.Group("/settings")
			{
				adminSettings.GET("", adminHandler.GetSettings)
				adminSettings.PUT("", adminHandler.UpsertSetting)
				adminSettings.DELETE("/:id", adminHandler.DeleteSetting)
			}

			adminComponents := admin.Group("/components")
			{
				adminComponents.GET("", adminHandler.GetComponents)
				adminComponents.POST("", adminHandler.CreateComponent)
				adminComponents.PUT("/:id", adminHandler.UpdateComponent)
			}
		}
	}

	return r
}
