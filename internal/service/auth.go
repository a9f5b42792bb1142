package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/almuerzo-cl/almuerzo/backend/internal/models"
	"github.com/almuerzo-cl/almuerzo/backend/internal/types"
)

const tokenTTL = 24 * time.Hour

var roles = map[string]bool{
	models.RoleEater:           true,
	models.RoleRestaurantOwner: true,
	models.RoleAdmin:           true,
}

var paymentMethods = map[string]bool{
	models.PaymentPayOwn:        true,
	models.PaymentOrganizerPays: true,
	models.PaymentSplit:         true,
}

type AuthService struct {
	db        *gorm.DB
	jwtSecret string
	now       func() time.Time
}

func NewAuthService(db *gorm.DB, jwtSecret string) *AuthService {
	return &AuthService{
		db:        db,
		jwtSecret: jwtSecret,
		now:       time.Now,
	}
}

// Register creates a user and its profile. Only privileged callers may
// create restaurant owners or admins.
func (s *AuthService) Register(ctx context.Context, req *types.RegisterRequest, allowPrivileged bool) (*models.User, *models.UserProfile, error) {
	role := req.Role
	if role == "" {
		role = models.RoleEater
	}
	if !roles[role] {
		return nil, nil, invalid("unknown role %q", role)
	}
	if role != models.RoleEater && !allowPrivileged {
		return nil, nil, fmt.Errorf("%w: only admins can create %s accounts", ErrForbidden, role)
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	username := strings.TrimSpace(req.Username)

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to check email: %w", err)
	}
	if count > 0 {
		return nil, nil, ErrUserExists
	}
	if err := s.db.WithContext(ctx).Model(&models.UserProfile{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to check username: %w", err)
	}
	if count > 0 {
		return nil, nil, fmt.Errorf("%w: username taken", ErrUserExists)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, err
	}

	user := &models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         role,
		Phone:        req.Phone,
	}
	profile := &models.UserProfile{
		Username:             username,
		DefaultPaymentMethod: models.PaymentPayOwn,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		profile.UserID = user.ID
		return tx.Create(profile).Error
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, profile, nil
}

// Login checks the credentials and returns a signed token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error; err != nil {
		return "", nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	var profile models.UserProfile
	if err := s.db.WithContext(ctx).Where("user_id = ?", user.ID).First(&profile).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, fmt.Errorf("failed to load profile: %w", err)
	}

	token, err := s.GenerateToken(&user, profile.Username)
	if err != nil {
		return "", nil, err
	}
	return token, &user, nil
}

func (s *AuthService) GenerateToken(user *models.User, username string) (string, error) {
	now := s.now()
	claims := &types.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
		UserID:   user.ID,
		Username: username,
		Role:     user.Role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *AuthService) ValidateToken(tokenString string) (*types.TokenClaims, error) {
	claims := &types.TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.jwtSecret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == uuid.Nil {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

func (s *AuthService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, *models.UserProfile, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("user %w", ErrNotFound)
		}
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}

	var profile models.UserProfile
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &user, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &user, &profile, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *types.UpdateProfileRequest) (*models.UserProfile, error) {
	_, profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, fmt.Errorf("profile %w", ErrNotFound)
	}

	if req.DefaultPaymentMethod != nil && !paymentMethods[*req.DefaultPaymentMethod] {
		return nil, invalid("unknown payment method %q", *req.DefaultPaymentMethod)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		userUpdates := map[string]interface{}{}
		if req.Name != nil {
			userUpdates["name"] = strings.TrimSpace(*req.Name)
		}
		if req.Phone != nil {
			userUpdates["phone"] = *req.Phone
		}
		if len(userUpdates) > 0 {
			if err := tx.Model(&models.User{}).Where("id = ?", userID).Updates(userUpdates).Error; err != nil {
				return err
			}
		}

		if req.Username != nil {
			username := strings.TrimSpace(*req.Username)
			var count int64
			if err := tx.Model(&models.UserProfile{}).Where("username = ? AND user_id <> ?", username, userID).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return fmt.Errorf("%w: username taken", ErrUserExists)
			}
			profile.Username = username
		}
		if req.AvatarURL != nil {
			profile.AvatarURL = *req.AvatarURL
		}
		if req.DefaultPaymentMethod != nil {
			profile.DefaultPaymentMethod = *req.DefaultPaymentMethod
		}
		if req.SharePhoneByDefault != nil {
			profile.SharePhoneByDefault = *req.SharePhoneByDefault
		}
		return tx.Save(profile).Error
	})
	if err != nil {
		if errors.Is(err, ErrUserExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return profile, nil
}
