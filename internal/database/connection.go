// internal/database/connection.go
package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/accessramp/ramp-backend/internal/config"
	"github.com/accessramp/ramp-backend/internal/models"
)

var DB *gorm.DB

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var err error
	var gormConfig *gorm.Config

	// Configure GORM logger
	if cfg.LogLevel == "silent" {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		}
	} else {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Info),
		}
	}

	// Connect to database
	DB, err = gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB
	sqlDB, err := DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Database connection established successfully")
	return DB, nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("Error getting underlying sql.DB: %v", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Printf("Error closing database connection: %v", err)
	} else {
		log.Println("Database connection closed successfully")
	}
}

func RunMigrations(db *gorm.DB) error {
	log.Println("Running database migrations...")

	// Run auto-migrations
	err := db.AutoMigrate(
		&models.User{},
		&models.Customer{},
		&models.Address{},
		&models.Lead{},
		&models.Quote{},
		&models.Agreement{},
		&models.Installation{},
		&models.Invoice{},
		&models.Subscription{},
		&models.Setting{},
		&models.Component{},
		&models.AuditLog{},
	)

	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Create indexes
	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		// Customer indexes
		"CREATE INDEX IF NOT EXISTS idx_customers_email ON customers(email)",
		"CREATE INDEX IF NOT EXISTS idx_customers_created_at ON customers(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_addresses_customer ON addresses(customer_id)",

		// Pipeline indexes
		"CREATE INDEX IF NOT EXISTS idx_leads_customer_status ON leads(customer_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_leads_created_at ON leads(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_quotes_lead_status ON quotes(lead_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_agreements_quote_status ON agreements(quote_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_agreements_document_id ON agreements((notes->>'document_id'))",
		"CREATE INDEX IF NOT EXISTS idx_installations_agreement ON installations(agreement_id)",

		// Billing indexes
		"CREATE INDEX IF NOT EXISTS idx_invoices_agreement_type ON invoices(agreement_id, invoice_type)",
		"CREATE INDEX IF NOT EXISTS idx_invoices_paid ON invoices(paid, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_subscriptions_agreement ON subscriptions(agreement_id)",

		// Admin indexes
		"CREATE INDEX IF NOT EXISTS idx_settings_category_key ON settings(category, key)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_user_action ON audit_logs(user_id, action)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_resource ON audit_logs(resource_type, resource_id)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_created ON audit_logs(created_at DESC)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			log.Printf("Warning: Failed to create index: %s, Error: %v", index, err)
			// Continue with other indexes instead of failing completely
		}
	}

	return nil
}

// Seed initial data
func SeedInitialData(db *gorm.DB) error {
	log.Println("Seeding initial data...")

	// Create default admin user
	var adminCount int64
	db.Model(&models.User{}).Where("role = ?", models.UserRoleAdmin).Count(&adminCount)

	if adminCount == 0 {
		admin := &models.User{
			Name:   "System Administrator",
			Email:  "admin@accessramp.example",
			Role:   models.UserRoleAdmin,
			Status: models.UserStatusActive,
		}

		if err := admin.SetPassword("admin123!@#"); err != nil {
			return fmt.Errorf("failed to set admin password: %w", err)
		}

		if err := db.Create(admin).Error; err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}

		log.Println("Default admin user created successfully")
	}

	// Pricing and warehouse settings read by the pricing engine
	defaultSettings := []models.Setting{
		{
			Category:    "pricing",
			Key:         "base_setup_fee",
			Value:       models.JSONB{"value": 250.0},
			DataType:    "float",
			Description: "Flat fee applied to every installation",
		},
		{
			Category:    "pricing",
			Key:         "price_per_foot",
			Value:       models.JSONB{"value": 15.0},
			DataType:    "float",
			Description: "Monthly rental rate per foot of ramp",
		},
		{
			Category:    "pricing",
			Key:         "price_per_mile",
			Value:       models.JSONB{"value": 2.5},
			DataType:    "float",
			Description: "Travel surcharge per mile from the warehouse",
		},
		{
			Category:    "pricing",
			Key:         "component_install_fee",
			Value:       models.JSONB{"value": 50.0},
			DataType:    "float",
			Description: "Setup fee per ramp or landing component",
		},
		{
			Category:    "location",
			Key:         "warehouse_address",
			Value:       models.JSONB{"value": ""},
			DataType:    "string",
			Description: "Warehouse address used for distance pricing",
		},
	}

	for _, setting := range defaultSettings {
		var count int64
		db.Model(&models.Setting{}).Where("category = ? AND key = ?", setting.Category, setting.Key).Count(&count)

		if count == 0 {
			if err := db.Create(&setting).Error; err != nil {
				log.Printf("Warning: Failed to create setting %s.%s: %v", setting.Category, setting.Key, err)
			}
		}
	}

	// Ramp and landing component catalog
	defaultComponents := []models.Component{
		{Name: "4ft Ramp Section", ComponentType: models.ComponentTypeRamp, LengthFt: 4, WidthFt: 3, DayRate: 8, MonthRate: 60},
		{Name: "6ft Ramp Section", ComponentType: models.ComponentTypeRamp, LengthFt: 6, WidthFt: 3, DayRate: 10, MonthRate: 90},
		{Name: "8ft Ramp Section", ComponentType: models.ComponentTypeRamp, LengthFt: 8, WidthFt: 3, DayRate: 12, MonthRate: 120},
		{Name: "5x5 Landing Platform", ComponentType: models.ComponentTypeLanding, LengthFt: 5, WidthFt: 5, DayRate: 15, MonthRate: 110},
		{Name: "5x8 Turn Platform", ComponentType: models.ComponentTypeLanding, LengthFt: 8, WidthFt: 5, DayRate: 18, MonthRate: 140},
	}

	var componentCount int64
	db.Model(&models.Component{}).Count(&componentCount)
	if componentCount == 0 {
		for _, component := range defaultComponents {
			component.Active = true
			if err := db.Create(&component).Error; err != nil {
				log.Printf("Warning: Failed to create component %s: %v", component.Name, err)
			}
		}
	}

	log.Println("Initial data seeding completed")
	return nil
}

// Transaction helper
func WithTransaction(db *gorm.DB, fn func(*gorm.DB) error) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}
