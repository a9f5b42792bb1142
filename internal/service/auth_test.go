package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/almuerzo-cl/almuerzo/backend/internal/models"
	"github.com/almuerzo-cl/almuerzo/backend/internal/service"
	"github.com/almuerzo-cl/almuerzo/backend/internal/testhelpers"
	"github.com/almuerzo-cl/almuerzo/backend/internal/types"
)

func registerRequest() *types.RegisterRequest {
	return &types.RegisterRequest{
		Name:     "Camila Rojas",
		Email:    "Camila@Example.com",
		Password: "password123",
		Username: "camila",
		Phone:    "+56922222222",
	}
}

func TestRegister(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	authSvc := service.NewAuthService(db, testhelpers.TestJWTSecret)

	user, profile, err := authSvc.Register(context.Background(), registerRequest(), false)
	require.NoError(t, err)

	assert.Equal(t, "camila@example.com", user.Email)
	assert.Equal(t, models.RoleEater, user.Role)
	assert.NotEqual(t, "password123", user.PasswordHash)
	assert.Equal(t, user.ID, profile.UserID)
	assert.Equal(t, "camila", profile.Username)
	assert.Equal(t, models.PaymentPayOwn, profile.DefaultPaymentMethod)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	authSvc := service.NewAuthService(db, testhelpers.TestJWTSecret)

	_, _, err := authSvc.Register(context.Background(), registerRequest(), false)
	require.NoError(t, err)

	again := registerRequest()
	again.Username = "otra"
	_, _, err = authSvc.Register(context.Background(), again, false)
	assert.True(t, errors.Is(err, service.ErrUserExists))
}

func TestRegisterOwnerNeedsAdmin(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	authSvc := service.NewAuthService(db, testhelpers.TestJWTSecret)

	req := registerRequest()
	req.Role = models.RoleRestaurantOwner

	_, _, err := authSvc.Register(context.Background(), req, false)
	assert.True(t, errors.Is(err, service.ErrForbidden))

	user, _, err := authSvc.Register(context.Background(), req, true)
	require.NoError(t, err)
	assert.Equal(t, models.RoleRestaurantOwner, user.Role)
}

func TestLogin(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	authSvc := service.NewAuthService(db, testhelpers.TestJWTSecret)

	registered, _, err := authSvc.Register(context.Background(), registerRequest(), false)
	require.NoError(t, err)

	token, user, err := authSvc.Login(context.Background(), "camila@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	claims, err := authSvc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, claims.UserID)
	assert.Equal(t, "camila", claims.Username)
	assert.Equal(t, models.RoleEater, claims.Role)
}

func TestLoginInvalidCredentials(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	authSvc := service.NewAuthService(db, testhelpers.TestJWTSecret)

	_, _, err := authSvc.Register(context.Background(), registerRequest(), false)
	require.NoError(t, err)

	_, _, err = authSvc.Login(context.Background(), "camila@example.com", "wrong-password")
	assert.True(t, errors.Is(err, service.ErrInvalidCredentials))

	_, _, err = authSvc.Login(context.Background(), "nadie@example.com", "password123")
	assert.True(t, errors.Is(err, service.ErrInvalidCredentials))
}

func TestValidateTokenRejectsOtherSecret(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	user := testhelpers.CreateUser(t, db, models.RoleEater)

	other := service.NewAuthService(db, "another-secret")
	token, err := other.GenerateToken(user, "x")
	require.NoError(t, err)

	authSvc := service.NewAuthService(db, testhelpers.TestJWTSecret)
	_, err = authSvc.ValidateToken(token)
	assert.Error(t, err)

	claims, err := authSvc.ValidateToken(testhelpers.Token(t, user))
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
}

func TestUpdateProfile(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	authSvc := service.NewAuthService(db, testhelpers.TestJWTSecret)
	user := testhelpers.CreateUser(t, db, models.RoleEater)
	other := testhelpers.CreateUser(t, db, models.RoleEater)

	name := "Nuevo Nombre"
	method := models.PaymentSplit
	share := true
	profile, err := authSvc.UpdateProfile(context.Background(), user.ID, &types.UpdateProfileRequest{
		Name:                 &name,
		DefaultPaymentMethod: &method,
		SharePhoneByDefault:  &share,
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentSplit, profile.DefaultPaymentMethod)
	assert.True(t, profile.SharePhoneByDefault)

	got, _, err := authSvc.GetProfile(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Nuevo Nombre", got.Name)

	_, otherProfile, err := authSvc.GetProfile(context.Background(), other.ID)
	require.NoError(t, err)
	taken := otherProfile.Username
	_, err = authSvc.UpdateProfile(context.Background(), user.ID, &types.UpdateProfileRequest{Username: &taken})
	assert.True(t, errors.Is(err, service.ErrUserExists))

	bad := "bitcoin"
	_, err = authSvc.UpdateProfile(context.Background(), user.ID, &types.UpdateProfileRequest{DefaultPaymentMethod: &bad})
	assert.True(t, errors.Is(err, service.ErrInvalidInput))
}
