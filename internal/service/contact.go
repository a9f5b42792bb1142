package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/almuerzo-cl/almuerzo/backend/internal/models"
	"github.com/almuerzo-cl/almuerzo/backend/internal/types"
)

type ContactService struct {
	db *gorm.DB
}

func NewContactService(db *gorm.DB) *ContactService {
	return &ContactService{db: db}
}

// List returns the owner's contacts by name. source "all" or empty means
// every source; search matches names case-insensitively.
func (s *ContactService) List(ctx context.Context, ownerID uuid.UUID, source, search string) ([]models.Contact, error) {
	query := s.db.WithContext(ctx).Where("owner_id = ?", ownerID)
	if source != "" && source != "all" {
		if !validSource(source) {
			return nil, invalid("unknown source %q", source)
		}
		query = query.Where("source = ?", source)
	}
	if search = strings.TrimSpace(search); search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	var contacts []models.Contact
	if err := query.Order("name").Find(&contacts).Error; err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	return contacts, nil
}

func (s *ContactService) Get(ctx context.Context, ownerID, id uuid.UUID) (*models.Contact, error) {
	var c models.Contact
	if err := s.db.WithContext(ctx).First(&c, "id = ? AND owner_id = ?", id, ownerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("contact %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	return &c, nil
}

func validateContact(req *types.ContactRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return invalid("name is required")
	}
	if !validSource(req.Source) {
		return invalid("unknown source %q", req.Source)
	}
	switch req.Source {
	case models.SourceEmail:
		if !strings.Contains(req.Email, "@") {
			return invalid("email contacts need an email address")
		}
	case models.SourcePhone, models.SourceWhatsApp:
		if strings.TrimSpace(req.Phone) == "" {
			return invalid("%s contacts need a phone number", req.Source)
		}
	}
	return nil
}

func applyContact(c *models.Contact, req *types.ContactRequest) {
	c.Name = strings.TrimSpace(req.Name)
	c.AvatarURL = req.AvatarURL
	c.Source = req.Source
	c.Phone = strings.TrimSpace(req.Phone)
	c.Email = strings.ToLower(strings.TrimSpace(req.Email))
	c.Username = strings.TrimSpace(req.Username)
	c.ProfileURL = req.ProfileURL
}

func (s *ContactService) Create(ctx context.Context, ownerID uuid.UUID, req *types.ContactRequest) (*models.Contact, error) {
	if err := validateContact(req); err != nil {
		return nil, err
	}
	c := &models.Contact{OwnerID: ownerID}
	applyContact(c, req)
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}
	return c, nil
}

func (s *ContactService) Update(ctx context.Context, ownerID, id uuid.UUID, req *types.ContactRequest) (*models.Contact, error) {
	if err := validateContact(req); err != nil {
		return nil, err
	}
	c, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	applyContact(c, req)
	if err := s.db.WithContext(ctx).Save(c).Error; err != nil {
		return nil, fmt.Errorf("failed to update contact: %w", err)
	}
	return c, nil
}

func (s *ContactService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).Delete(&models.Contact{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete contact: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("contact %w", ErrNotFound)
	}
	return nil
}
