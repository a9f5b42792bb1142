package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/almuerzo-cl/almuerzo/backend/internal/logging"
	"github.com/almuerzo-cl/almuerzo/backend/internal/models"
	"github.com/almuerzo-cl/almuerzo/backend/internal/types"
)

var suggestionStatuses = map[string]bool{
	models.SuggestionOpen:     true,
	models.SuggestionReviewed: true,
	models.SuggestionAccepted: true,
	models.SuggestionRejected: true,
}

var suggestionTypes = map[string]bool{
	models.SuggestionNewRestaurant: true,
	models.SuggestionNewOffer:      true,
	models.SuggestionCorrection:    true,
}

// CommunityService collects restaurant and offer tips from the community
type CommunityService struct {
	db     *gorm.DB
	images IImageService
	email  IEmailService
	log    *zap.Logger
}

// NewCommunityService creates a new community service. images and email may be nil.
func NewCommunityService(db *gorm.DB, images IImageService, email IEmailService, log *zap.Logger) *CommunityService {
	return &CommunityService{db: db, images: images, email: email, log: logging.OrNop(log)}
}

// CreateSuggestion stores a tip; anonymous tips have a nil userID.
func (s *CommunityService) CreateSuggestion(ctx context.Context, req *types.CreateCommunitySuggestionRequest, userID *uuid.UUID, image *ImageUpload) (*models.RestaurantSuggestion, error) {
	if !suggestionTypes[req.Type] {
		return nil, invalid("unknown suggestion type %q", req.Type)
	}
	suggestion := &models.RestaurantSuggestion{
		UserID:         userID,
		Type:           req.Type,
		RestaurantName: strings.TrimSpace(req.RestaurantName),
		Address:        strings.TrimSpace(req.Address),
		Comments:       strings.TrimSpace(req.Comments),
		Status:         models.SuggestionOpen,
	}
	if suggestion.RestaurantName == "" && suggestion.Address == "" && suggestion.Comments == "" {
		return nil, invalid("a restaurant name, address or comment is required")
	}

	if image != nil && len(image.Data) > 0 {
		if s.images == nil {
			return nil, fmt.Errorf("image storage is not configured")
		}
		url, err := s.images.Upload(ctx, image, "suggestions")
		if err != nil {
			return nil, err
		}
		suggestion.ImageURL = url
	}

	if err := s.db.WithContext(ctx).Create(suggestion).Error; err != nil {
		return nil, fmt.Errorf("failed to create suggestion: %w", err)
	}

	s.notifyAdmins(ctx, suggestion)
	return suggestion, nil
}

// notifyAdmins emails every admin. Failures are logged only.
func (s *CommunityService) notifyAdmins(ctx context.Context, suggestion *models.RestaurantSuggestion) {
	if s.email == nil {
		return
	}
	var admins []string
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("role = ?", models.RoleAdmin).Pluck("email", &admins).Error; err != nil {
		s.log.Warn("Failed to load admins for suggestion email", zap.Error(err))
		return
	}

	subject := fmt.Sprintf("Nueva sugerencia de la comunidad: %s", suggestion.Type)
	body := fmt.Sprintf("Restaurante: %s\nDirección: %s\nComentarios: %s\n",
		suggestion.RestaurantName, suggestion.Address, suggestion.Comments)
	if suggestion.ImageURL != "" {
		body += "Imagen: " + suggestion.ImageURL + "\n"
	}
	for _, to := range admins {
		if err := s.email.SendEmail(to, subject, body); err != nil {
			s.log.Warn("Failed to email suggestion", zap.String("to", to), zap.Error(err))
		}
	}
}

// GetSuggestion retrieves a suggestion by ID
func (s *CommunityService) GetSuggestion(ctx context.Context, id uuid.UUID) (*models.RestaurantSuggestion, error) {
	var suggestion models.RestaurantSuggestion
	err := s.db.WithContext(ctx).Preload("User").First(&suggestion, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("suggestion %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get suggestion: %w", err)
	}
	return &suggestion, nil
}

// ListSuggestions retrieves suggestions with optional filters, newest first
func (s *CommunityService) ListSuggestions(ctx context.Context, filters *models.SuggestionFilters) ([]*models.RestaurantSuggestion, error) {
	query := s.db.WithContext(ctx).Preload("User")
	if filters == nil {
		filters = &models.SuggestionFilters{}
	}
	if filters.Type != "" {
		query = query.Where("type = ?", filters.Type)
	}
	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}
	query = query.Limit(limit)
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var suggestions []*models.RestaurantSuggestion
	if err := query.Order("created_at DESC").Find(&suggestions).Error; err != nil {
		return nil, fmt.Errorf("failed to list suggestions: %w", err)
	}
	return suggestions, nil
}

// UpdateSuggestionStatus updates the status and admin notes
func (s *CommunityService) UpdateSuggestionStatus(ctx context.Context, id uuid.UUID, status string, adminNotes string) error {
	if !suggestionStatuses[status] {
		return invalid("unknown suggestion status %q", status)
	}
	result := s.db.WithContext(ctx).Model(&models.RestaurantSuggestion{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      status,
			"admin_notes": adminNotes,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update suggestion: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("suggestion %w", ErrNotFound)
	}
	return nil
}
