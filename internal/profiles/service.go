package profiles

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tallyhq/tally-backend/pkg/db/models"
	pkgerrors "github.com/tallyhq/tally-backend/pkg/errors"
)

// UpdateProfileInput is the profile upsert payload.
type UpdateProfileInput struct {
	FullName string  `json:"full_name" validate:"required,min=2,max=120"`
	Phone    *string `json:"phone" validate:"omitempty,max=32"`
}

// ProfileDTO is the API projection of a merchant profile.
type ProfileDTO struct {
	ID        uuid.UUID `json:"id"`
	FullName  string    `json:"full_name"`
	Phone     *string   `json:"phone,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToDTO converts a profile model into its API projection.
func ToDTO(profile *models.Profile) *ProfileDTO {
	return &ProfileDTO{
		ID:        profile.ID,
		FullName:  profile.FullName,
		Phone:     profile.Phone,
		UpdatedAt: profile.UpdatedAt,
	}
}

type profileRepository interface {
	Create(ctx context.Context, dto CreateProfileDTO) (*models.Profile, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	Update(ctx context.Context, profile *models.Profile) error
}

// Service exposes the dashboard profile operations.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error)
	Upsert(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*ProfileDTO, error)
}

type service struct {
	repo profileRepository
}

// NewService builds a profile Service.
func NewService(repo profileRepository) (Service, error) {
	if repo == nil {
		return nil, errors.New("profiles: repository is required")
	}
	return &service{repo: repo}, nil
}

// Get loads the caller's profile.
func (s *service) Get(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error) {
	profile, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading profile")
	}
	return ToDTO(profile), nil
}

// Upsert updates the caller's profile, creating it when registration did not
// leave one behind.
func (s *service) Upsert(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*ProfileDTO, error) {
	fullName := strings.TrimSpace(input.FullName)

	profile, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			created, createErr := s.repo.Create(ctx, CreateProfileDTO{
				UserID:   userID,
				FullName: fullName,
				Phone:    input.Phone,
			})
			if createErr != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, createErr, "creating profile")
			}
			return ToDTO(created), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading profile")
	}

	profile.FullName = fullName
	if input.Phone != nil {
		profile.Phone = input.Phone
	}
	if err := s.repo.Update(ctx, profile); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating profile")
	}
	return ToDTO(profile), nil
}
