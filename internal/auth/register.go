package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tallyhq/tally-backend/internal/profiles"
	"github.com/tallyhq/tally-backend/internal/users"
	"github.com/tallyhq/tally-backend/pkg/config"
	"github.com/tallyhq/tally-backend/pkg/db"
	"github.com/tallyhq/tally-backend/pkg/db/models"
	pkgerrors "github.com/tallyhq/tally-backend/pkg/errors"
	"github.com/tallyhq/tally-backend/pkg/security"
)

// RegisterService handles the merchant signup transaction.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest, clientIP string) (*AuthResponse, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type registerUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
}

type registerProfileRepository interface {
	Create(ctx context.Context, dto profiles.CreateProfileDTO) (*models.Profile, error)
}

// RegisterServiceParams packages the dependencies for the signup flow.
type RegisterServiceParams struct {
	TxRunner           txRunner
	UserRepoFactory    func(tx *gorm.DB) registerUserRepository
	ProfileRepoFactory func(tx *gorm.DB) registerProfileRepository
	SessionManager     sessionManager
	Limiter            rateLimiter
	PasswordConfig     config.PasswordConfig
	JWTConfig          config.JWTConfig
	RateLimits         config.AuthRateLimitConfig
}

type registerService struct {
	tx          txRunner
	userRepo    func(tx *gorm.DB) registerUserRepository
	profileRepo func(tx *gorm.DB) registerProfileRepository
	session     sessionManager
	limiter     rateLimiter
	passwordCfg config.PasswordConfig
	jwtCfg      config.JWTConfig
	limits      config.AuthRateLimitConfig
}

// NewRegisterService builds a signup service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.TxRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.SessionManager == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "session manager required")
	}
	if params.UserRepoFactory == nil {
		params.UserRepoFactory = func(tx *gorm.DB) registerUserRepository {
			return users.NewRepository(tx)
		}
	}
	if params.ProfileRepoFactory == nil {
		params.ProfileRepoFactory = func(tx *gorm.DB) registerProfileRepository {
			return profiles.NewRepository(tx)
		}
	}
	return &registerService{
		tx:          params.TxRunner,
		userRepo:    params.UserRepoFactory,
		profileRepo: params.ProfileRepoFactory,
		session:     params.SessionManager,
		limiter:     params.Limiter,
		passwordCfg: params.PasswordConfig,
		jwtCfg:      params.JWTConfig,
		limits:      params.RateLimits,
	}, nil
}

func (s *registerService) Register(ctx context.Context, req RegisterRequest, clientIP string) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	fullName := strings.TrimSpace(req.FullName)
	if fullName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "full name is required")
	}
	if err := s.checkRegisterLimits(ctx, email, clientIP); err != nil {
		return nil, err
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var user *models.User
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := s.userRepo(tx)
		profileRepo := s.profileRepo(tx)

		if _, err := userRepo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}

		created, err := userRepo.Create(ctx, users.CreateUserDTO{
			Email:        email,
			PasswordHash: passwordHash,
		})
		if err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}

		if _, err := profileRepo.Create(ctx, profiles.CreateProfileDTO{
			UserID:   created.ID,
			FullName: fullName,
			Phone:    req.Phone,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create profile")
		}

		user = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	accessToken, refreshToken, err := issueTokens(ctx, s.session, s.jwtCfg, time.Now().UTC(), user.ID, nil)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         users.FromModel(user),
	}, nil
}

func (s *registerService) checkRegisterLimits(ctx context.Context, email, clientIP string) error {
	if s.limiter == nil {
		return nil
	}
	if s.limits.RegisterEmailLimit > 0 {
		allowed, _, err := s.limiter.FixedWindowAllow(ctx, "register:email:"+email, int64(s.limits.RegisterEmailLimit), s.limits.RegisterWindow)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "register rate limit")
		}
		if !allowed {
			return pkgerrors.New(pkgerrors.CodeRateLimit, "too many signup attempts, try again later")
		}
	}
	if clientIP != "" && s.limits.RegisterIPLimit > 0 {
		allowed, _, err := s.limiter.FixedWindowAllow(ctx, "register:ip:"+clientIP, int64(s.limits.RegisterIPLimit), s.limits.RegisterWindow)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "register rate limit")
		}
		if !allowed {
			return pkgerrors.New(pkgerrors.CodeRateLimit, "too many signup attempts, try again later")
		}
	}
	return nil
}
