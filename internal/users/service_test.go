package users

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/shopvite/shopvite-backend/internal/uow/uowtest"
	pkgerrors "github.com/shopvite/shopvite-backend/pkg/errors"
)

func newTestService(t *testing.T) (Service, *uowtest.Runner) {
	t.Helper()
	runner := uowtest.NewRunner()
	svc, err := NewService(runner)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, runner
}

func TestNewServiceRequiresRunner(t *testing.T) {
	if _, err := NewService(nil); err == nil {
		t.Fatal("expected error for nil runner")
	}
}

func TestGetProfile(t *testing.T) {
	svc, runner := newTestService(t)
	role := runner.Store.SeedRole("customer", []string{"orders:read"})
	user := runner.Store.SeedUser("jo@example.com", role)
	user.FirstName = "Jo"
	user.LastName = "Miller"

	profile, err := svc.GetProfile(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if profile.Email != "jo@example.com" {
		t.Fatalf("unexpected email %q", profile.Email)
	}
	if profile.Role != "customer" {
		t.Fatalf("expected role to come from the preloaded row, got %q", profile.Role)
	}
}

func TestGetProfileUnknownUser(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetProfile(context.Background(), uuid.New())
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestUpdateProfilePartial(t *testing.T) {
	svc, runner := newTestService(t)
	role := runner.Store.SeedRole("customer", nil)
	user := runner.Store.SeedUser("jo@example.com", role)
	user.FirstName = "Jo"
	user.LastName = "Miller"

	first := "Joanna"
	profile, err := svc.UpdateProfile(context.Background(), user.ID, UpdateProfileInput{FirstName: &first})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if profile.FirstName != "Joanna" {
		t.Fatalf("expected first name update, got %q", profile.FirstName)
	}
	if profile.LastName != "Miller" {
		t.Fatalf("nil fields must stay unchanged, got %q", profile.LastName)
	}
}

func TestAddFavorite(t *testing.T) {
	svc, runner := newTestService(t)
	role := runner.Store.SeedRole("customer", nil)
	user := runner.Store.SeedUser("jo@example.com", role)
	category := runner.Store.SeedCategory("Audio")
	product := runner.Store.SeedProduct("Headphones", 12999, category.ID)

	if err := svc.AddFavorite(context.Background(), user.ID, product.ID); err != nil {
		t.Fatalf("AddFavorite: %v", err)
	}
	// Adding twice stays a no-op.
	if err := svc.AddFavorite(context.Background(), user.ID, product.ID); err != nil {
		t.Fatalf("AddFavorite repeat: %v", err)
	}

	favorites, err := svc.ListFavorites(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("ListFavorites: %v", err)
	}
	if len(favorites) != 1 || favorites[0].ID != product.ID {
		t.Fatalf("expected single favorite %s, got %+v", product.ID, favorites)
	}
}

func TestAddFavoriteUnknownProduct(t *testing.T) {
	svc, runner := newTestService(t)
	role := runner.Store.SeedRole("customer", nil)
	user := runner.Store.SeedUser("jo@example.com", role)

	err := svc.AddFavorite(context.Background(), user.ID, uuid.New())
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestListFavoritesPrunesDeletedProducts(t *testing.T) {
	svc, runner := newTestService(t)
	role := runner.Store.SeedRole("customer", nil)
	user := runner.Store.SeedUser("jo@example.com", role)
	category := runner.Store.SeedCategory("Audio")
	kept := runner.Store.SeedProduct("Headphones", 12999, category.ID)
	gone := runner.Store.SeedProduct("Speaker", 8999, category.ID)

	for _, id := range []uuid.UUID{kept.ID, gone.ID} {
		if err := svc.AddFavorite(context.Background(), user.ID, id); err != nil {
			t.Fatalf("AddFavorite: %v", err)
		}
	}
	delete(runner.Store.Products, gone.ID)

	favorites, err := svc.ListFavorites(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("ListFavorites: %v", err)
	}
	if len(favorites) != 1 || favorites[0].ID != kept.ID {
		t.Fatalf("expected deleted product pruned, got %+v", favorites)
	}
	if got := runner.Store.Users[user.ID].Favorites; len(got) != 1 || got[0] != kept.ID {
		t.Fatalf("expected favorites persisted without stale id, got %v", got)
	}
}

func TestRemoveFavorite(t *testing.T) {
	svc, runner := newTestService(t)
	role := runner.Store.SeedRole("customer", nil)
	user := runner.Store.SeedUser("jo@example.com", role)
	category := runner.Store.SeedCategory("Audio")
	product := runner.Store.SeedProduct("Headphones", 12999, category.ID)

	if err := svc.AddFavorite(context.Background(), user.ID, product.ID); err != nil {
		t.Fatalf("AddFavorite: %v", err)
	}
	if err := svc.RemoveFavorite(context.Background(), user.ID, product.ID); err != nil {
		t.Fatalf("RemoveFavorite: %v", err)
	}
	if got := runner.Store.Users[user.ID].Favorites; len(got) != 0 {
		t.Fatalf("expected empty favorites, got %v", got)
	}
	// Removing an id that is not present succeeds silently.
	if err := svc.RemoveFavorite(context.Background(), user.ID, product.ID); err != nil {
		t.Fatalf("RemoveFavorite repeat: %v", err)
	}
}
