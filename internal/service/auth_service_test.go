package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"github.com/quickclean/quickclean-backend/internal/models"
	"github.com/quickclean/quickclean-backend/internal/pkg/apperror"
	"github.com/quickclean/quickclean-backend/internal/repository"
)

type mockAuthRepo struct {
	mock.Mock
}

func (m *mockAuthRepo) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	if args.Error(0) == nil {
		user.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockAuthRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockAuthRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockAuthRepo) UpdateLastLoginAt(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *mockAuthRepo) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *mockAuthRepo) UpsertProfile(ctx context.Context, profile *models.Profile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *mockAuthRepo) CreateSession(ctx context.Context, session *models.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *mockAuthRepo) GetSessionByToken(ctx context.Context, refreshToken string) (*models.Session, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *mockAuthRepo) ListSessions(ctx context.Context, userID uuid.UUID) ([]models.Session, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.Session), args.Error(1)
}

func (m *mockAuthRepo) DeleteSession(ctx context.Context, refreshToken string) error {
	args := m.Called(ctx, refreshToken)
	return args.Error(0)
}

func (m *mockAuthRepo) DeleteSessionByID(ctx context.Context, sessionID uuid.UUID, userID uuid.UUID) error {
	args := m.Called(ctx, sessionID, userID)
	return args.Error(0)
}

func testTokenManager() *TokenManager {
	return NewTokenManager("access-secret", "refresh-secret", 15*time.Minute, 720*time.Hour)
}

func TestAuthService_Register_Success(t *testing.T) {
	repo := new(mockAuthRepo)
	svc := NewAuthService(repo, testTokenManager())
	ctx := context.Background()

	repo.On("GetByEmail", ctx, "new@example.com").Return(nil, repository.ErrUserNotFound)
	repo.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(nil)
	repo.On("UpsertProfile", ctx, mock.AnythingOfType("*models.Profile")).Return(nil)
	repo.On("CreateSession", ctx, mock.AnythingOfType("*models.Session")).Return(nil)

	result, err := svc.Register(ctx, RegisterInput{
		Email:    "new@example.com",
		Password: "Password1",
	}, nil)

	assert.NoError(t, err)
	assert.Equal(t, models.RoleCustomer, result.User.Role)
	assert.Equal(t, "new", result.Profile.DisplayName)
	assert.NotEmpty(t, result.TokenPair.AccessToken)
	assert.NotEmpty(t, result.TokenPair.RefreshToken)
}

func TestAuthService_Register_WeakPassword(t *testing.T) {
	svc := NewAuthService(new(mockAuthRepo), testTokenManager())

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "new@example.com",
		Password: "password",
	}, nil)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "заглавную букву")
}

func TestAuthService_Register_AdminRoleRejected(t *testing.T) {
	svc := NewAuthService(new(mockAuthRepo), testTokenManager())

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "new@example.com",
		Password: "Password1",
		Role:     models.RoleAdmin,
	}, nil)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "некорректная роль")
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	repo := new(mockAuthRepo)
	svc := NewAuthService(repo, testTokenManager())
	ctx := context.Background()

	repo.On("GetByEmail", ctx, "taken@example.com").Return(&models.User{ID: uuid.New()}, nil)

	_, err := svc.Register(ctx, RegisterInput{
		Email:    "taken@example.com",
		Password: "Password1",
	}, nil)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "уже зарегистрирован")
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	repo := new(mockAuthRepo)
	svc := NewAuthService(repo, testTokenManager())
	ctx := context.Background()

	hash, _ := bcrypt.GenerateFromPassword([]byte("Password1"), bcrypt.MinCost)
	repo.On("GetByEmail", ctx, "user@example.com").Return(&models.User{
		ID:           uuid.New(),
		Email:        "user@example.com",
		PasswordHash: string(hash),
		IsActive:     true,
	}, nil)

	_, err := svc.Login(ctx, LoginInput{Email: "user@example.com", Password: "WrongPass1"}, nil)

	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	repo := new(mockAuthRepo)
	svc := NewAuthService(repo, testTokenManager())
	ctx := context.Background()

	repo.On("GetByEmail", ctx, "ghost@example.com").Return(nil, repository.ErrUserNotFound)

	_, err := svc.Login(ctx, LoginInput{Email: "ghost@example.com", Password: "Password1"}, nil)

	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)
}

func TestAuthService_Login_InactiveUser(t *testing.T) {
	repo := new(mockAuthRepo)
	svc := NewAuthService(repo, testTokenManager())
	ctx := context.Background()

	repo.On("GetByEmail", ctx, "blocked@example.com").Return(&models.User{
		ID:       uuid.New(),
		IsActive: false,
	}, nil)

	_, err := svc.Login(ctx, LoginInput{Email: "blocked@example.com", Password: "Password1"}, nil)

	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestAuthService_Login_Success(t *testing.T) {
	repo := new(mockAuthRepo)
	svc := NewAuthService(repo, testTokenManager())
	ctx := context.Background()
	userID := uuid.New()

	hash, _ := bcrypt.GenerateFromPassword([]byte("Password1"), bcrypt.MinCost)
	repo.On("GetByEmail", ctx, "user@example.com").Return(&models.User{
		ID:           userID,
		Email:        "user@example.com",
		PasswordHash: string(hash),
		Role:         models.RoleCleaner,
		IsActive:     true,
	}, nil)
	repo.On("UpdateLastLoginAt", ctx, userID).Return(nil)
	repo.On("GetProfile", ctx, userID).Return(&models.Profile{UserID: userID, DisplayName: "Мария"}, nil)
	repo.On("CreateSession", ctx, mock.AnythingOfType("*models.Session")).Return(nil)

	result, err := svc.Login(ctx, LoginInput{Email: "user@example.com", Password: "Password1"}, map[string]string{
		"user_agent": "test-agent",
		"ip":         "127.0.0.1",
	})

	assert.NoError(t, err)
	assert.Equal(t, "Мария", result.Profile.DisplayName)
	assert.NotEmpty(t, result.TokenPair.RefreshToken)
	repo.AssertCalled(t, "UpdateLastLoginAt", ctx, userID)
}

func TestAuthService_Refresh_RotatesSession(t *testing.T) {
	repo := new(mockAuthRepo)
	tm := testTokenManager()
	svc := NewAuthService(repo, tm)
	ctx := context.Background()

	user := &models.User{ID: uuid.New(), Role: models.RoleCustomer, IsActive: true}
	pair, _, err := tm.GeneratePair(user)
	assert.NoError(t, err)

	repo.On("GetSessionByToken", ctx, pair.RefreshToken).Return(&models.Session{
		UserID:       user.ID,
		RefreshToken: pair.RefreshToken,
	}, nil)
	repo.On("GetByID", ctx, user.ID).Return(user, nil)
	repo.On("DeleteSession", ctx, pair.RefreshToken).Return(nil)
	repo.On("CreateSession", ctx, mock.AnythingOfType("*models.Session")).Return(nil)

	result, err := svc.Refresh(ctx, pair.RefreshToken, nil)

	assert.NoError(t, err)
	assert.NotEmpty(t, result.TokenPair.RefreshToken)
	repo.AssertCalled(t, "DeleteSession", ctx, pair.RefreshToken)
}

func TestAuthService_Refresh_UnknownSession(t *testing.T) {
	repo := new(mockAuthRepo)
	tm := testTokenManager()
	svc := NewAuthService(repo, tm)
	ctx := context.Background()

	user := &models.User{ID: uuid.New(), Role: models.RoleCustomer, IsActive: true}
	pair, _, err := tm.GeneratePair(user)
	assert.NoError(t, err)

	repo.On("GetSessionByToken", ctx, pair.RefreshToken).Return(nil, repository.ErrSessionNotFound)

	_, err = svc.Refresh(ctx, pair.RefreshToken, nil)

	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestAuthService_Refresh_GarbageToken(t *testing.T) {
	svc := NewAuthService(new(mockAuthRepo), testTokenManager())

	_, err := svc.Refresh(context.Background(), "not-a-jwt", nil)

	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}
