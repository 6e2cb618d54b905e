package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOrdersMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_orders_table.sql"))
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
		"FOREIGN KEY (listing_id) REFERENCES listings(id) ON DELETE RESTRICT",
		"CHECK (gross_amount = platform_fee + seller_amount)",
		"CREATE UNIQUE INDEX IF NOT EXISTS uq_orders_order_number",
		"CREATE INDEX IF NOT EXISTS idx_orders_payment_expiry",
		"CREATE INDEX IF NOT EXISTS idx_orders_protection_window",
		"DROP TABLE IF EXISTS orders",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestCoreTypesMigrationContainsEnums(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_core_types.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no core types migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TYPE order_status AS ENUM",
		"CREATE TYPE transaction_status AS ENUM",
		"CREATE TYPE transport_option AS ENUM",
		"CREATE TYPE payout_hold_reason AS ENUM",
		"CREATE TYPE dispute_status AS ENUM",
		"CREATE TYPE notification_type AS ENUM",
		"CREATE TYPE address_t AS",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}
