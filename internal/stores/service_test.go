package stores

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tallyhq/tally-backend/pkg/db/models"
	"github.com/tallyhq/tally-backend/pkg/enums"
	pkgerrors "github.com/tallyhq/tally-backend/pkg/errors"
)

type fakeStoreRepo struct {
	bySlug  map[string]*models.Store
	byOwner map[uuid.UUID]*models.Store
	created *models.Store
}

func newFakeStoreRepo() *fakeStoreRepo {
	return &fakeStoreRepo{
		bySlug:  map[string]*models.Store{},
		byOwner: map[uuid.UUID]*models.Store{},
	}
}

func (f *fakeStoreRepo) Create(ctx context.Context, store *models.Store) error {
	f.created = store
	f.bySlug[store.Slug] = store
	f.byOwner[store.OwnerID] = store
	return nil
}

func (f *fakeStoreRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	for _, store := range f.bySlug {
		if store.ID == id {
			return store, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeStoreRepo) FindByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Store, error) {
	if store, ok := f.byOwner[ownerID]; ok {
		return store, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeStoreRepo) FindBySlug(ctx context.Context, slug string) (*models.Store, error) {
	if store, ok := f.bySlug[slug]; ok {
		return store, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeStoreRepo) SlugTaken(ctx context.Context, slug string, excludeID *uuid.UUID) (bool, error) {
	store, ok := f.bySlug[slug]
	if !ok {
		return false, nil
	}
	if excludeID != nil && store.ID == *excludeID {
		return false, nil
	}
	return true, nil
}

func (f *fakeStoreRepo) Update(ctx context.Context, store *models.Store) error {
	f.bySlug[store.Slug] = store
	f.byOwner[store.OwnerID] = store
	return nil
}

func TestCreateStoreClaimsSlug(t *testing.T) {
	repo := newFakeStoreRepo()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	ownerID := uuid.New()
	dto, err := svc.Create(context.Background(), ownerID, CreateStoreInput{
		Slug: "Acme-Fashion",
		Name: "  Acme Fashion  ",
	})
	if err != nil {
		t.Fatalf("create store: %v", err)
	}

	if dto.Slug != "acme-fashion" {
		t.Fatalf("expected normalized slug, got %q", dto.Slug)
	}
	if dto.Name != "Acme Fashion" {
		t.Fatalf("expected trimmed name, got %q", dto.Name)
	}
	if dto.Currency != enums.CurrencyNGN {
		t.Fatalf("expected NGN default currency, got %s", dto.Currency)
	}
	if !dto.IsPublished {
		t.Fatal("expected new store to be published")
	}
}

func TestCreateStoreSlugConflict(t *testing.T) {
	repo := newFakeStoreRepo()
	repo.bySlug["acme"] = &models.Store{ID: uuid.New(), OwnerID: uuid.New(), Slug: "acme"}
	svc, _ := NewService(repo)

	_, err := svc.Create(context.Background(), uuid.New(), CreateStoreInput{Slug: "acme", Name: "Acme"})
	if err == nil {
		t.Fatal("expected slug conflict")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}
	if typed.Message() != "subdomain already taken" {
		t.Fatalf("unexpected message %q", typed.Message())
	}
}

func TestCreateStoreOnePerOwner(t *testing.T) {
	repo := newFakeStoreRepo()
	ownerID := uuid.New()
	repo.byOwner[ownerID] = &models.Store{ID: uuid.New(), OwnerID: ownerID, Slug: "first"}
	svc, _ := NewService(repo)

	_, err := svc.Create(context.Background(), ownerID, CreateStoreInput{Slug: "second", Name: "Second"})
	if err == nil {
		t.Fatal("expected one-store-per-owner conflict")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestNormalizeSlug(t *testing.T) {
	valid := map[string]string{
		"Acme":         "acme",
		" my-shop ":    "my-shop",
		"shop123":      "shop123",
		"a2c":          "a2c",
		"ACME-FASHION": "acme-fashion",
	}
	for raw, want := range valid {
		got, err := NormalizeSlug(raw)
		if err != nil {
			t.Fatalf("NormalizeSlug(%q): %v", raw, err)
		}
		if got != want {
			t.Fatalf("NormalizeSlug(%q) = %q, want %q", raw, got, want)
		}
	}

	invalid := []string{"", "ab", "-acme", "acme-", "ac me", "shop.name", "www", "dashboard", "api"}
	for _, raw := range invalid {
		_, err := NormalizeSlug(raw)
		if err == nil {
			t.Fatalf("expected NormalizeSlug(%q) to fail", raw)
		}
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation code for %q, got %v", raw, err)
		}
	}
}

func TestUpdateStoreAppliesFields(t *testing.T) {
	repo := newFakeStoreRepo()
	ownerID := uuid.New()
	repo.byOwner[ownerID] = &models.Store{
		ID:       uuid.New(),
		OwnerID:  ownerID,
		Slug:     "acme",
		Name:     "Acme",
		Currency: enums.CurrencyNGN,
	}
	repo.bySlug["acme"] = repo.byOwner[ownerID]
	svc, _ := NewService(repo)

	name := "  Acme Fashion House "
	phone := "+234 801 234 5678"
	published := false
	dto, err := svc.Update(context.Background(), ownerID, UpdateStoreInput{
		Name:          &name,
		WhatsAppPhone: &phone,
		IsPublished:   &published,
	})
	if err != nil {
		t.Fatalf("update store: %v", err)
	}
	if dto.Name != "Acme Fashion House" {
		t.Fatalf("expected trimmed name, got %q", dto.Name)
	}
	if dto.WhatsAppPhone == nil || *dto.WhatsAppPhone != phone {
		t.Fatalf("whatsapp phone not applied")
	}
	if dto.IsPublished {
		t.Fatal("expected unpublished store")
	}
}
