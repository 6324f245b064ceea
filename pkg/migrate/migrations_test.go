package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopvite/shopvite-backend/pkg/migrate"
)

func TestMigrationsDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("migration dir validation failed: %v", err)
	}
}

func TestOrdersMigrationContainsSchemas(t *testing.T) {
	content := readMigration(t, "*_create_orders.sql")

	checks := []string{
		"CREATE TYPE order_status AS ENUM",
		"CREATE TYPE payment_method AS ENUM",
		"CREATE SEQUENCE IF NOT EXISTS order_number_seq",
		"CREATE TABLE IF NOT EXISTS orders",
		"CREATE TABLE IF NOT EXISTS order_items",
		"CREATE TABLE IF NOT EXISTS tracking_events",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_orders_order_number",
		"CREATE INDEX IF NOT EXISTS idx_orders_user_created",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestCartsMigrationEnforcesSingletonAndLineUniqueness(t *testing.T) {
	content := readMigration(t, "*_create_carts.sql")

	checks := []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_carts_user",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_cart_items_cart_product",
		"CHECK (quantity > 0)",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestReviewsMigrationEnforcesOnePerUserProduct(t *testing.T) {
	content := readMigration(t, "*_create_reviews.sql")

	if !strings.Contains(content, "CREATE UNIQUE INDEX IF NOT EXISTS ux_reviews_user_product") {
		t.Error("missing unique user/product index")
	}
	if !strings.Contains(content, "rating >= 1 AND rating <= 5") {
		t.Error("missing rating bounds check")
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matching %q found", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}
