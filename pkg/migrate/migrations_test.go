package migrate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMigrationsDirIsValid(t *testing.T) {
	if err := ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}

func TestInitMigrationCoversCoreTables(t *testing.T) {
	b, err := os.ReadFile(filepath.Join("migrations", "00001_init.sql"))
	if err != nil {
		t.Fatalf("read init migration: %v", err)
	}
	sql := string(b)

	for _, table := range []string{"users", "profiles", "stores", "products", "product_variants", "carts", "cart_items", "orders", "order_items"} {
		if !strings.Contains(sql, "CREATE TABLE "+table+" (") {
			t.Fatalf("init migration missing table %q", table)
		}
		if !strings.Contains(sql, "DROP TABLE IF EXISTS "+table+";") {
			t.Fatalf("init migration missing rollback for %q", table)
		}
	}

	for _, constraint := range []string{"slug text NOT NULL UNIQUE", "owner_id uuid NOT NULL UNIQUE", "reference text NOT NULL UNIQUE"} {
		if !strings.Contains(sql, constraint) {
			t.Fatalf("init migration missing constraint %q", constraint)
		}
	}
}
