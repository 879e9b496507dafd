package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tallyhq/tally-backend/internal/profiles"
	"github.com/tallyhq/tally-backend/internal/users"
	pkgauth "github.com/tallyhq/tally-backend/pkg/auth"
	"github.com/tallyhq/tally-backend/pkg/config"
	"github.com/tallyhq/tally-backend/pkg/db/models"
	pkgerrors "github.com/tallyhq/tally-backend/pkg/errors"
)

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubRegisterUserRepo struct {
	byEmail map[string]*models.User
	created *models.User
}

func newStubRegisterUserRepo() *stubRegisterUserRepo {
	return &stubRegisterUserRepo{byEmail: map[string]*models.User{}}
}

func (s *stubRegisterUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := s.byEmail[email]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRegisterUserRepo) Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error) {
	user := &models.User{
		ID:           uuid.New(),
		Email:        dto.Email,
		PasswordHash: dto.PasswordHash,
		IsActive:     true,
	}
	s.byEmail[dto.Email] = user
	s.created = user
	return user, nil
}

type stubProfileRepo struct {
	created *models.Profile
}

func (s *stubProfileRepo) Create(ctx context.Context, dto profiles.CreateProfileDTO) (*models.Profile, error) {
	profile := &models.Profile{
		ID:       uuid.New(),
		UserID:   dto.UserID,
		FullName: dto.FullName,
		Phone:    dto.Phone,
	}
	s.created = profile
	return profile, nil
}

type registerTestSetup struct {
	service     RegisterService
	userRepo    *stubRegisterUserRepo
	profileRepo *stubProfileRepo
	session     *stubSession
}

func newRegisterTestSetup(t *testing.T) *registerTestSetup {
	t.Helper()
	userRepo := newStubRegisterUserRepo()
	profileRepo := &stubProfileRepo{}
	sess := &stubSession{}
	svc, err := NewRegisterService(RegisterServiceParams{
		TxRunner: stubTxRunner{},
		UserRepoFactory: func(tx *gorm.DB) registerUserRepository {
			return userRepo
		},
		ProfileRepoFactory: func(tx *gorm.DB) registerProfileRepository {
			return profileRepo
		},
		SessionManager: sess,
		PasswordConfig: config.PasswordConfig{},
		JWTConfig:      testJWTConfig,
	})
	if err != nil {
		t.Fatalf("new register service: %v", err)
	}
	return &registerTestSetup{
		service:     svc,
		userRepo:    userRepo,
		profileRepo: profileRepo,
		session:     sess,
	}
}

func TestRegisterCreatesUserAndProfile(t *testing.T) {
	setup := newRegisterTestSetup(t)

	resp, err := setup.service.Register(context.Background(), RegisterRequest{
		FullName: "  Amara Obi ",
		Email:    "Amara@Example.com",
		Password: "Secret123!",
	}, "203.0.113.9")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if setup.userRepo.created == nil {
		t.Fatal("expected user to be created")
	}
	if setup.userRepo.created.Email != "amara@example.com" {
		t.Fatalf("expected normalized email, got %q", setup.userRepo.created.Email)
	}
	if setup.profileRepo.created == nil {
		t.Fatal("expected profile to be created")
	}
	if setup.profileRepo.created.FullName != "Amara Obi" {
		t.Fatalf("expected trimmed full name, got %q", setup.profileRepo.created.FullName)
	}
	if setup.profileRepo.created.UserID != setup.userRepo.created.ID {
		t.Fatal("profile not linked to created user")
	}

	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("expected token pair")
	}
	claims, err := pkgauth.ParseAccessToken(testJWTConfig, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != setup.userRepo.created.ID {
		t.Fatal("claims user mismatch")
	}
	if claims.StoreID != nil {
		t.Fatal("expected no store claim for a fresh signup")
	}
	if claims.ID != setup.session.lastAccessID {
		t.Fatal("jti not bound to stored session")
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	setup := newRegisterTestSetup(t)
	setup.userRepo.byEmail["taken@example.com"] = &models.User{ID: uuid.New(), Email: "taken@example.com"}

	_, err := setup.service.Register(context.Background(), RegisterRequest{
		FullName: "Someone Else",
		Email:    "taken@example.com",
		Password: "Secret123!",
	}, "")
	if err == nil {
		t.Fatal("expected duplicate email conflict")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	if typed.Message() != "email already registered" {
		t.Fatalf("unexpected message %q", typed.Message())
	}
	if setup.userRepo.created != nil {
		t.Fatal("expected no user creation on conflict")
	}
}

func TestRegisterEnforcesRateLimit(t *testing.T) {
	userRepo := newStubRegisterUserRepo()
	limiter := &stubLimiter{allowed: false}
	svc, err := NewRegisterService(RegisterServiceParams{
		TxRunner: stubTxRunner{},
		UserRepoFactory: func(tx *gorm.DB) registerUserRepository {
			return userRepo
		},
		ProfileRepoFactory: func(tx *gorm.DB) registerProfileRepository {
			return &stubProfileRepo{}
		},
		SessionManager: &stubSession{},
		Limiter:        limiter,
		PasswordConfig: config.PasswordConfig{},
		JWTConfig:      testJWTConfig,
		RateLimits: config.AuthRateLimitConfig{
			RegisterEmailLimit: 3,
			RegisterIPLimit:    20,
		},
	})
	if err != nil {
		t.Fatalf("new register service: %v", err)
	}

	_, err = svc.Register(context.Background(), RegisterRequest{
		FullName: "Amara Obi",
		Email:    "amara@example.com",
		Password: "Secret123!",
	}, "203.0.113.9")
	if err == nil {
		t.Fatal("expected rate limit error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeRateLimit {
		t.Fatalf("expected rate limit code, got %v", err)
	}
	if userRepo.created != nil {
		t.Fatal("expected no user creation when rate limited")
	}
}
