// internal/services/lead_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/accessramp/ramp-backend/internal/config"
	"github.com/accessramp/ramp-backend/internal/database"
	"github.com/accessramp/ramp-backend/internal/models"
	"github.com/accessramp/ramp-backend/internal/utils"
)

var ErrLeadNotFound = errors.New("lead not found")

type LeadService struct {
	db     *gorm.DB
	config *config.Config
}

type CreateLeadRequest struct {
	CustomerID    uuid.UUID    `json:"customer_id" validate:"required"`
	Timeline      string       `json:"timeline" validate:"omitempty,max=50"`
	MobilityNeeds string       `json:"mobility_needs" validate:"omitempty,max=2000"`
	Notes         models.JSONB `json:"notes,omitempty"`
}

type UpdateLeadRequest struct {
	Status        *models.LeadStatus `json:"status,omitempty" validate:"omitempty,oneof=new contacted qualified quoted won lost"`
	Timeline      *string            `json:"timeline,omitempty" validate:"omitempty,max=50"`
	MobilityNeeds *string            `json:"mobility_needs,omitempty" validate:"omitempty,max=2000"`
	Notes         models.JSONB       `json:"notes,omitempty"`
}

// IntakeRequest is the payload posted by the public website's contact form.
// Customer and address details arrive nested alongside the lead itself.
type IntakeRequest struct {
	Customer      IntakeCustomer `json:"customer"`
	Timeline      string         `json:"timeline" validate:"omitempty,max=50"`
	MobilityNeeds string         `json:"mobility_needs" validate:"omitempty,max=2000"`
	Notes         models.JSONB   `json:"notes,omitempty"`
}

type IntakeCustomer struct {
	FirstName string         `json:"first_name" validate:"required,max=100"`
	LastName  string         `json:"last_name" validate:"required,max=100"`
	Email     string         `json:"email" validate:"required,email"`
	Phone     string         `json:"phone" validate:"omitempty,phone"`
	Address   *IntakeAddress `json:"address,omitempty"`
}

type IntakeAddress struct {
	Street     string `json:"street" validate:"omitempty,max=255"`
	City       string `json:"city" validate:"omitempty,max=100"`
	State      string `json:"state" validate:"omitempty,max=50"`
	PostalCode string `json:"postal_code" validate:"omitempty,max=20"`
}

func NewLeadService(db *gorm.DB, config *config.Config) *LeadService {
	return &LeadService{
		db:     db,
		config: config,
	}
}

func (s *LeadService) Create(req *CreateLeadRequest) (*models.Lead, error) {
	var customer models.Customer
	if err := s.db.First(&customer, req.CustomerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	lead := &models.Lead{
		CustomerID:    req.CustomerID,
		Status:        models.LeadStatusNew,
		Timeline:      req.Timeline,
		MobilityNeeds: req.MobilityNeeds,
		Notes:         req.Notes,
	}
	if err := s.db.Create(lead).Error; err != nil {
		return nil, fmt.Errorf("failed to create lead: %w", err)
	}

	lead.Customer = customer
	return lead, nil
}

func (s *LeadService) Get(id uuid.UUID) (*models.Lead, error) {
	var lead models.Lead
	if err := s.db.Preload("Customer.Addresses").Preload("Quotes").First(&lead, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &lead, nil
}

func (s *LeadService) List(params utils.PaginationParams) ([]models.Lead, int64, error) {
	query := s.db.Model(&models.Lead{}).Preload("Customer")
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.Search != "" {
		searchTerm := "%" + params.Search + "%"
		query = query.Joins("JOIN customers ON customers.id = leads.customer_id").
			Where("customers.first_name ILIKE ? OR customers.last_name ILIKE ? OR customers.email ILIKE ?",
				searchTerm, searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count leads: %w", err)
	}

	allowedSortFields := []string{"created_at", "status", "timeline"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var leads []models.Lead
	if err := query.Find(&leads).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch leads: %w", err)
	}

	return leads, total, nil
}

func (s *LeadService) Update(id uuid.UUID, req *UpdateLeadRequest) (*models.Lead, error) {
	lead, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if req.Status != nil {
		lead.Status = *req.Status
	}
	if req.Timeline != nil {
		lead.Timeline = *req.Timeline
	}
	if req.MobilityNeeds != nil {
		lead.MobilityNeeds = *req.MobilityNeeds
	}
	if req.Notes != nil {
		lead.Notes = req.Notes
	}

	if err := s.db.Save(lead).Error; err != nil {
		return nil, fmt.Errorf("failed to update lead: %w", err)
	}
	return lead, nil
}

func (s *LeadService) Delete(id uuid.UUID) error {
	result := s.db.Delete(&models.Lead{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete lead: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrLeadNotFound
	}
	return nil
}

// Intake turns a website submission into a customer, optional address and
// lead in one transaction. Repeat submitters are matched by email so a second
// form post becomes a second lead on the same customer.
func (s *LeadService) Intake(req *IntakeRequest) (*models.Lead, error) {
	var lead *models.Lead

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		var customer models.Customer
		err := tx.Where("email = ?", req.Customer.Email).First(&customer).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			customer = models.Customer{
				FirstName: req.Customer.FirstName,
				LastName:  req.Customer.LastName,
				Email:     req.Customer.Email,
				Phone:     req.Customer.Phone,
			}
			if err := tx.Create(&customer).Error; err != nil {
				return fmt.Errorf("failed to create customer: %w", err)
			}
		} else if err != nil {
			return fmt.Errorf("database error: %w", err)
		}

		if addr := req.Customer.Address; addr != nil && addr.Street != "" && addr.City != "" {
			var existing int64
			if err := tx.Model(&models.Address{}).
				Where("customer_id = ? AND street = ? AND postal_code = ?", customer.ID, addr.Street, addr.PostalCode).
				Count(&existing).Error; err != nil {
				return fmt.Errorf("database error: %w", err)
			}
			if existing == 0 {
				address := models.Address{
					CustomerID: customer.ID,
					Street:     addr.Street,
					City:       addr.City,
					State:      addr.State,
					PostalCode: addr.PostalCode,
				}
				if err := tx.Create(&address).Error; err != nil {
					return fmt.Errorf("failed to create address: %w", err)
				}
			}
		}

		lead = &models.Lead{
			CustomerID:    customer.ID,
			Status:        models.LeadStatusNew,
			Timeline:      req.Timeline,
			MobilityNeeds: req.MobilityNeeds,
			Notes:         req.Notes,
		}
		if err := tx.Create(lead).Error; err != nil {
			return fmt.Errorf("failed to create lead: %w", err)
		}

		lead.Customer = customer
		return nil
	})
	if err != nil {
		return nil, err
	}

	return lead, nil
}
