package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/almuerzo-cl/almuerzo/backend/internal/logging"
	"github.com/almuerzo-cl/almuerzo/backend/internal/models"
)

// NotificationService persists notifications and dispatches them on their channel.
type NotificationService struct {
	db    *gorm.DB
	email IEmailService
	log   *zap.Logger
	now   func() time.Time
}

func NewNotificationService(db *gorm.DB, email IEmailService, log *zap.Logger) *NotificationService {
	return &NotificationService{
		db:    db,
		email: email,
		log:   logging.OrNop(log),
		now:   time.Now,
	}
}

// ChannelForSource maps a contact source to the channel used to reach it.
func ChannelForSource(source string) string {
	switch source {
	case models.SourceEmail:
		return models.ChannelEmail
	case models.SourceWhatsApp:
		return models.ChannelWhatsApp
	case models.SourceTelegram:
		return models.ChannelTelegram
	case models.SourceInstagram:
		return models.ChannelInstagram
	case models.SourceFacebook:
		return models.ChannelFacebook
	default:
		return models.ChannelPhone
	}
}

// Notify dispatches n and stores it. Delivery failures are recorded on the
// row; only persistence failures are returned.
func (s *NotificationService) Notify(ctx context.Context, n *models.Notification) error {
	if n.Channel == "" {
		n.Channel = models.ChannelInApp
	}
	if n.RecipientKind == "" {
		n.RecipientKind = models.RecipientUser
	}

	if err := s.dispatch(n); err != nil {
		n.Error = err.Error()
		s.log.Warn("Notification delivery failed",
			zap.String("channel", n.Channel),
			zap.String("kind", n.Kind),
			zap.Error(err))
	} else {
		sent := s.now().UTC()
		n.SentAt = &sent
	}

	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		return fmt.Errorf("failed to store notification: %w", err)
	}
	return nil
}

func (s *NotificationService) dispatch(n *models.Notification) error {
	switch n.Channel {
	case models.ChannelInApp:
		return nil
	case models.ChannelEmail:
		if n.Address == "" {
			return errors.New("missing email address")
		}
		if s.email == nil {
			return errors.New("email delivery is not configured")
		}
		return s.email.SendEmail(n.Address, n.Title, n.Body)
	default:
		if n.Address == "" {
			return fmt.Errorf("missing %s address", n.Channel)
		}
		// no SMS or messaging provider is wired; the message is logged for the operator
		s.log.Info("Sending notification",
			zap.String("channel", n.Channel),
			zap.String("to", n.Address),
			zap.String("kind", n.Kind),
			zap.String("body", n.Body))
		return nil
	}
}

// notifyAll sends every notification, logging failures instead of returning them.
func notifyAll(ctx context.Context, notifier INotificationService, log *zap.Logger, ns []*models.Notification) {
	if notifier == nil {
		return
	}
	for _, n := range ns {
		if err := notifier.Notify(ctx, n); err != nil {
			log.Error("Failed to notify", zap.String("kind", n.Kind), zap.Error(err))
		}
	}
}

func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var out []models.Notification
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND channel = ?", userID, models.ChannelInApp).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return out, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND channel = ? AND read = ?", userID, models.ChannelInApp, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return count, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]interface{}{"read": true, "read_at": s.now().UTC()})
	if result.Error != nil {
		return fmt.Errorf("failed to mark notification read: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("notification %w", ErrNotFound)
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	result := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Updates(map[string]interface{}{"read": true, "read_at": s.now().UTC()})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *NotificationService) ListRestaurantNotifications(ctx context.Context, restaurantID uuid.UUID, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var out []models.Notification
	err := s.db.WithContext(ctx).
		Where("restaurant_id = ? AND recipient_kind = ?", restaurantID, models.RecipientRestaurant).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list restaurant notifications: %w", err)
	}
	return out, nil
}
