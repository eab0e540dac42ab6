package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOrdersMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_orders_tables.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no orders migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS orders",
		"CREATE TABLE IF NOT EXISTS order_items",
		"CREATE TABLE IF NOT EXISTS transactions",
		"CREATE TABLE IF NOT EXISTS fulfillments",
		"CREATE TABLE IF NOT EXISTS refunds",
		"FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE",
		"CHECK (total_price >= 0)",
		"CHECK (total_due >= 0)",
		"CHECK (fulfillable_quantity >= 0)",
		"DROP TABLE IF EXISTS orders",
	}

	for _, check := range checks {
		if !strings.Contains(content, check) {
			t.Errorf("orders migration missing %q", check)
		}
	}
}

func TestEnumsMigrationCoversStatusTypes(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_order_enums.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no enums migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TYPE order_status AS ENUM",
		"CREATE TYPE financial_status AS ENUM",
		"CREATE TYPE fulfillment_status AS ENUM",
		"CREATE TYPE transaction_kind AS ENUM",
		"CREATE TYPE transaction_status AS ENUM",
		"CREATE TYPE cart_status AS ENUM",
		"CREATE TYPE subscription_status AS ENUM",
	}

	for _, check := range checks {
		if !strings.Contains(content, check) {
			t.Errorf("enums migration missing %q", check)
		}
	}
}
