// internal/services/installation_service.go
package services

import (
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/accessramp/ramp-backend/internal/config"
	"github.com/accessramp/ramp-backend/internal/models"
	"github.com/accessramp/ramp-backend/internal/utils"
)

var ErrInstallationNotFound = errors.New("installation not found")

type InstallationService struct {
	db      *gorm.DB
	config  *config.Config
	storage *StorageService
}

type CreateInstallationRequest struct {
	AgreementID      uuid.UUID  `json:"agreement_id" validate:"required"`
	InstallationDate *time.Time `json:"installation_date,omitempty"`
	InstalledBy      string     `json:"installed_by" validate:"omitempty,max=100"`
}

type UpdateInstallationRequest struct {
	InstallationDate *time.Time `json:"installation_date,omitempty"`
	InstalledBy      *string    `json:"installed_by,omitempty" validate:"omitempty,max=100"`
	SignOff          *bool      `json:"sign_off,omitempty"`
}

func NewInstallationService(db *gorm.DB, config *config.Config, storage *StorageService) *InstallationService {
	return &InstallationService{
		db:      db,
		config:  config,
		storage: storage,
	}
}

func (s *InstallationService) Create(req *CreateInstallationRequest) (*models.Installation, error) {
	var agreement models.Agreement
	if err := s.db.First(&agreement, req.AgreementID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAgreementNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	installation := &models.Installation{
		AgreementID:      req.AgreementID,
		InstallationDate: req.InstallationDate,
		InstalledBy:      req.InstalledBy,
		Photos:           pq.StringArray{},
	}
	if err := s.db.Create(installation).Error; err != nil {
		return nil, fmt.Errorf("failed to create installation: %w", err)
	}
	return installation, nil
}

func (s *InstallationService) Get(id uuid.UUID) (*models.Installation, error) {
	var installation models.Installation
	if err := s.db.Preload("Agreement.Quote.Lead.Customer").First(&installation, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInstallationNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &installation, nil
}

func (s *InstallationService) List(params utils.PaginationParams) ([]models.Installation, int64, error) {
	query := s.db.Model(&models.Installation{}).Preload("Agreement.Quote.Lead.Customer")
	if params.Status == "signed_off" {
		query = query.Where("sign_off = ?", true)
	} else if params.Status == "pending" {
		query = query.Where("sign_off = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count installations: %w", err)
	}

	allowedSortFields := []string{"created_at", "installation_date"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var installations []models.Installation
	if err := query.Find(&installations).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch installations: %w", err)
	}

	return installations, total, nil
}

func (s *InstallationService) Update(id uuid.UUID, req *UpdateInstallationRequest) (*models.Installation, error) {
	installation, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if req.InstallationDate != nil {
		installation.InstallationDate = req.InstallationDate
	}
	if req.InstalledBy != nil {
		installation.InstalledBy = *req.InstalledBy
	}
	if req.SignOff != nil {
		installation.SignOff = *req.SignOff
	}

	if err := s.db.Save(installation).Error; err != nil {
		return nil, fmt.Errorf("failed to update installation: %w", err)
	}
	return installation, nil
}

func (s *InstallationService) Delete(id uuid.UUID) error {
	result := s.db.Delete(&models.Installation{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete installation: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrInstallationNotFound
	}
	return nil
}

// AddPhoto uploads one site photo and appends its URL to the installation.
func (s *InstallationService) AddPhoto(id uuid.UUID, file multipart.File, header *multipart.FileHeader) (*models.Installation, error) {
	installation, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	result, err := s.storage.UploadPhoto(file, header, installation.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to upload photo: %w", err)
	}

	installation.Photos = append(installation.Photos, result.URL)
	if err := s.db.Save(installation).Error; err != nil {
		return nil, fmt.Errorf("failed to record photo: %w", err)
	}
	return installation, nil
}
