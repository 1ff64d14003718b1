// internal/services/admin_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/accessramp/ramp-backend/internal/config"
	"github.com/accessramp/ramp-backend/internal/models"
	"github.com/accessramp/ramp-backend/internal/utils"
)

var (
	ErrSettingNotFound   = errors.New("setting not found")
	ErrComponentNotFound = errors.New("component not found")
)

type AdminService struct {
	db     *gorm.DB
	config *config.Config
}

type UpsertSettingRequest struct {
	Category    string       `json:"category" validate:"required,max=50"`
	Key         string       `json:"key" validate:"required,max=100"`
	Value       models.JSONB `json:"value" validate:"required"`
	DataType    string       `json:"data_type" validate:"required,oneof=string number boolean json"`
	Description string       `json:"description,omitempty"`
}

type CreateComponentRequest struct {
	Name          string               `json:"name" validate:"required,max=100"`
	ComponentType models.ComponentType `json:"component_type" validate:"required,oneof=ramp landing"`
	LengthFt      float64              `json:"length_ft" validate:"required,min=0"`
	WidthFt       float64              `json:"width_ft" validate:"required,min=0"`
	DayRate       float64              `json:"day_rate" validate:"min=0"`
	MonthRate     float64              `json:"month_rate" validate:"min=0"`
}

type UpdateComponentRequest struct {
	Name      *string  `json:"name,omitempty" validate:"omitempty,max=100"`
	LengthFt  *float64 `json:"length_ft,omitempty" validate:"omitempty,min=0"`
	WidthFt   *float64 `json:"width_ft,omitempty" validate:"omitempty,min=0"`
	DayRate   *float64 `json:"day_rate,omitempty" validate:"omitempty,min=0"`
	MonthRate *float64 `json:"month_rate,omitempty" validate:"omitempty,min=0"`
	Active    *bool    `json:"active,omitempty"`
}

// DashboardStats is the summary card data for the admin landing page.
type DashboardStats struct {
	NewLeads            int64   `json:"new_leads"`
	OpenQuotes          int64   `json:"open_quotes"`
	PendingAgreements   int64   `json:"pending_agreements"`
	PendingInstallation int64   `json:"pending_installations"`
	UnpaidInvoices      int64   `json:"unpaid_invoices"`
	ActiveSubscriptions int64   `json:"active_subscriptions"`
	RevenueThisMonth    float64 `json:"revenue_this_month"`
	TotalCustomers      int64   `json:"total_customers"`
}

func NewAdminService(db *gorm.DB, config *config.Config) *AdminService {
	return &AdminService{
		db:     db,
		config: config,
	}
}

func (s *AdminService) ListSettings(category string) ([]models.Setting, error) {
	query := s.db.Model(&models.Setting{})
	if category != "" {
		query = query.Where("category = ?", category)
	}

	var settings []models.Setting
	if err := query.Order("category, key").Find(&settings).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch settings: %w", err)
	}
	return settings, nil
}

// UpsertSetting writes one configuration value, creating the row on first use.
func (s *AdminService) UpsertSetting(req *UpsertSettingRequest) (*models.Setting, error) {
	var setting models.Setting
	err := s.db.Where("category = ? AND key = ?", req.Category, req.Key).First(&setting).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	setting.Category = req.Category
	setting.Key = req.Key
	setting.Value = req.Value
	setting.DataType = req.DataType
	if req.Description != "" {
		setting.Description = req.Description
	}

	if err := s.db.Save(&setting).Error; err != nil {
		return nil, fmt.Errorf("failed to save setting: %w", err)
	}
	return &setting, nil
}

func (s *AdminService) DeleteSetting(id uuid.UUID) error {
	result := s.db.Delete(&models.Setting{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete setting: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrSettingNotFound
	}
	return nil
}

func (s *AdminService) ListComponents(params utils.PaginationParams) ([]models.Component, int64, error) {
	query := s.db.Model(&models.Component{})
	if params.Status == "active" {
		query = query.Where("active = ?", true)
	}
	if params.Search != "" {
		query = query.Where("name ILIKE ?", "%"+params.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count components: %w", err)
	}

	allowedSortFields := []string{"created_at", "name", "length_ft", "month_rate"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var components []models.Component
	if err := query.Find(&components).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch components: %w", err)
	}
	return components, total, nil
}

func (s *AdminService) CreateComponent(req *CreateComponentRequest) (*models.Component, error) {
	component := &models.Component{
		Name:          req.Name,
		ComponentType: req.ComponentType,
		LengthFt:      req.LengthFt,
		WidthFt:       req.WidthFt,
		DayRate:       req.DayRate,
		MonthRate:     req.MonthRate,
		Active:        true,
	}
	if err := s.db.Create(component).Error; err != nil {
		return nil, fmt.Errorf("failed to create component: %w", err)
	}
	return component, nil
}

func (s *AdminService) UpdateComponent(id uuid.UUID, req *UpdateComponentRequest) (*models.Component, error) {
	var component models.Component
	if err := s.db.First(&component, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrComponentNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if req.Name != nil {
		component.Name = *req.Name
	}
	if req.LengthFt != nil {
		component.LengthFt = *req.LengthFt
	}
	if req.WidthFt != nil {
		component.WidthFt = *req.WidthFt
	}
	if req.DayRate != nil {
		component.DayRate = *req.DayRate
	}
	if req.MonthRate != nil {
		component.MonthRate = *req.MonthRate
	}
	if req.Active != nil {
		component.Active = *req.Active
	}

	if err := s.db.Save(&component).Error; err != nil {
		return nil, fmt.Errorf("failed to update component: %w", err)
	}
	return &component, nil
}

func (s *AdminService) GetDashboardStats() (*DashboardStats, error) {
	stats := &DashboardStats{}

	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&stats.NewLeads, s.db.Model(&models.Lead{}).Where("status IN ?", []models.LeadStatus{models.LeadStatusNew, models.LeadStatusContacted})},
		{&stats.OpenQuotes, s.db.Model(&models.Quote{}).Where("status IN ?", []models.QuoteStatus{models.QuoteStatusDraft, models.QuoteStatusSent})},
		{&stats.PendingAgreements, s.db.Model(&models.Agreement{}).Where("status IN ?", []models.AgreementStatus{models.AgreementStatusDraft, models.AgreementStatusSent})},
		{&stats.PendingInstallation, s.db.Model(&models.Installation{}).Where("sign_off = ?", false)},
		{&stats.UnpaidInvoices, s.db.Model(&models.Invoice{}).Where("paid = ?", false)},
		{&stats.ActiveSubscriptions, s.db.Model(&models.Subscription{}).Where("status = ?", "active")},
		{&stats.TotalCustomers, s.db.Model(&models.Customer{})},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return nil, fmt.Errorf("failed to compute dashboard stats: %w", err)
		}
	}

	monthStart := time.Now().AddDate(0, 0, 1-time.Now().Day())
	monthStart = time.Date(monthStart.Year(), monthStart.Month(), monthStart.Day(), 0, 0, 0, 0, monthStart.Location())
	if err := s.db.Model(&models.Invoice{}).
		Where("paid = ? AND payment_date >= ?", true, monthStart).
		Select("COALESCE(SUM(amount), 0)").Scan(&stats.RevenueThisMonth).Error; err != nil {
		return nil, fmt.Errorf("failed to compute monthly revenue: %w", err)
	}

	return stats, nil
}
