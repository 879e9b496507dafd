package profiles

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tallyhq/tally-backend/pkg/db/models"
	pkgerrors "github.com/tallyhq/tally-backend/pkg/errors"
)

type fakeProfileRepo struct {
	byUser map[uuid.UUID]*models.Profile
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{byUser: make(map[uuid.UUID]*models.Profile)}
}

func (f *fakeProfileRepo) Create(ctx context.Context, dto CreateProfileDTO) (*models.Profile, error) {
	profile := &models.Profile{
		ID:       uuid.New(),
		UserID:   dto.UserID,
		FullName: dto.FullName,
		Phone:    dto.Phone,
	}
	f.byUser[dto.UserID] = profile
	return profile, nil
}

func (f *fakeProfileRepo) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	profile, ok := f.byUser[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return profile, nil
}

func (f *fakeProfileRepo) Update(ctx context.Context, profile *models.Profile) error {
	f.byUser[profile.UserID] = profile
	return nil
}

func TestUpsertCreatesMissingProfile(t *testing.T) {
	repo := newFakeProfileRepo()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	userID := uuid.New()
	phone := "+2348012345678"
	dto, err := svc.Upsert(context.Background(), userID, UpdateProfileInput{FullName: "  Amara Obi ", Phone: &phone})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if dto.FullName != "Amara Obi" {
		t.Fatalf("full name = %q", dto.FullName)
	}
	if dto.Phone == nil || *dto.Phone != phone {
		t.Fatalf("phone = %v", dto.Phone)
	}
	if repo.byUser[userID] == nil {
		t.Fatalf("profile not persisted")
	}
}

func TestUpsertUpdatesExistingProfile(t *testing.T) {
	repo := newFakeProfileRepo()
	userID := uuid.New()
	if _, err := repo.Create(context.Background(), CreateProfileDTO{UserID: userID, FullName: "Old Name"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	dto, err := svc.Upsert(context.Background(), userID, UpdateProfileInput{FullName: "New Name"})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if dto.FullName != "New Name" {
		t.Fatalf("full name = %q", dto.FullName)
	}
	if repo.byUser[userID].FullName != "New Name" {
		t.Fatalf("update not persisted")
	}
}

func TestGetMissingProfile(t *testing.T) {
	svc, err := NewService(newFakeProfileRepo())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	_, err = svc.Get(context.Background(), uuid.New())
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("error = %v, want not found", err)
	}
}
