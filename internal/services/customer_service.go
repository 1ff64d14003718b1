// internal/services/customer_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/accessramp/ramp-backend/internal/config"
	"github.com/accessramp/ramp-backend/internal/models"
	"github.com/accessramp/ramp-backend/internal/progress"
	"github.com/accessramp/ramp-backend/internal/utils"
)

var (
	ErrCustomerNotFound = errors.New("customer not found")
	ErrAddressNotFound  = errors.New("address not found")
	ErrEmailTaken       = errors.New("email is already registered")
)

type CustomerService struct {
	db     *gorm.DB
	config *config.Config
}

type CreateCustomerRequest struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"omitempty,phone"`
}

type UpdateCustomerRequest struct {
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,max=100"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,max=100"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,phone"`
}

type CreateAddressRequest struct {
	Street     string `json:"street" validate:"required,max=255"`
	City       string `json:"city" validate:"required,max=100"`
	State      string `json:"state" validate:"required,max=50"`
	PostalCode string `json:"postal_code" validate:"required,max=20"`
}

func NewCustomerService(db *gorm.DB, config *config.Config) *CustomerService {
	return &CustomerService{
		db:     db,
		config: config,
	}
}

func (s *CustomerService) Create(req *CreateCustomerRequest) (*models.Customer, error) {
	var count int64
	if err := s.db.Model(&models.Customer{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	customer := &models.Customer{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
	}
	if err := s.db.Create(customer).Error; err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	return customer, nil
}

func (s *CustomerService) Get(id uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	if err := s.db.Preload("Addresses").Preload("Leads").First(&customer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &customer, nil
}

func (s *CustomerService) List(params utils.PaginationParams) ([]models.Customer, int64, error) {
	query := s.db.Model(&models.Customer{})
	if params.Search != "" {
		searchTerm := "%" + params.Search + "%"
		query = query.Where("first_name ILIKE ? OR last_name ILIKE ? OR email ILIKE ?",
			searchTerm, searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count customers: %w", err)
	}

	allowedSortFields := []string{"created_at", "first_name", "last_name", "email"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var customers []models.Customer
	if err := query.Preload("Addresses").Find(&customers).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch customers: %w", err)
	}

	return customers, total, nil
}

func (s *CustomerService) Update(id uuid.UUID, req *UpdateCustomerRequest) (*models.Customer, error) {
	customer, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil && *req.Email != customer.Email {
		var count int64
		if err := s.db.Model(&models.Customer{}).Where("email = ? AND id != ?", *req.Email, id).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("database error: %w", err)
		}
		if count > 0 {
			return nil, ErrEmailTaken
		}
		customer.Email = *req.Email
	}
	if req.FirstName != nil {
		customer.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		customer.LastName = *req.LastName
	}
	if req.Phone != nil {
		customer.Phone = *req.Phone
	}

	if err := s.db.Save(customer).Error; err != nil {
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}
	return customer, nil
}

func (s *CustomerService) Delete(id uuid.UUID) error {
	result := s.db.Delete(&models.Customer{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete customer: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrCustomerNotFound
	}
	return nil
}

func (s *CustomerService) AddAddress(customerID uuid.UUID, req *CreateAddressRequest) (*models.Address, error) {
	if _, err := s.Get(customerID); err != nil {
		return nil, err
	}

	address := &models.Address{
		CustomerID: customerID,
		Street:     req.Street,
		City:       req.City,
		State:      req.State,
		PostalCode: req.PostalCode,
	}
	if err := s.db.Create(address).Error; err != nil {
		return nil, fmt.Errorf("failed to create address: %w", err)
	}
	return address, nil
}

func (s *CustomerService) DeleteAddress(customerID, addressID uuid.UUID) error {
	result := s.db.Where("customer_id = ?", customerID).Delete(&models.Address{}, addressID)
	if result.Error != nil {
		return fmt.Errorf("failed to delete address: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAddressNotFound
	}
	return nil
}

// Progress assembles the newest record of each pipeline stage for the
// customer and computes the job progress view the dashboard renders.
func (s *CustomerService) Progress(customerID uuid.UUID) (*progress.Progress, error) {
	if _, err := s.Get(customerID); err != nil {
		return nil, err
	}

	rec := progress.Records{}

	var lead models.Lead
	err := s.db.Where("customer_id = ?", customerID).Order("created_at DESC").First(&lead).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			result := progress.Compute(rec, time.Now())
			return &result, nil
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	rec.Lead = &lead

	var quote models.Quote
	if err := s.db.Where("lead_id = ?", lead.ID).Order("created_at DESC").First(&quote).Error; err == nil {
		rec.Quote = &quote
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	if rec.Quote != nil {
		var agreement models.Agreement
		if err := s.db.Where("quote_id = ?", rec.Quote.ID).Order("created_at DESC").First(&agreement).Error; err == nil {
			rec.Agreement = &agreement
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("database error: %w", err)
		}
	}

	if rec.Agreement != nil {
		var installation models.Installation
		if err := s.db.Where("agreement_id = ?", rec.Agreement.ID).Order("created_at DESC").First(&installation).Error; err == nil {
			rec.Installation = &installation
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("database error: %w", err)
		}

		var invoice models.Invoice
		if err := s.db.Where("agreement_id = ?", rec.Agreement.ID).Order("created_at DESC").First(&invoice).Error; err == nil {
			rec.Invoice = &invoice
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("database error: %w", err)
		}
	}

	result := progress.Compute(rec, time.Now())
	return &result, nil
}
