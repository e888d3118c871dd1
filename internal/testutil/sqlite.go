package testutil

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite" // sqlite driver
)

// EcommerceSchema creates a small customers/orders database.
var EcommerceSchema = []string{
	`CREATE TABLE customers (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT,
		city TEXT
	)`,
	`CREATE TABLE orders (
		id INTEGER PRIMARY KEY,
		customer_id INTEGER NOT NULL REFERENCES customers(id),
		total REAL
	)`,
	`INSERT INTO customers (id, name, email, city) VALUES
		(1, 'Ann', 'ann@example.com', 'New York'),
		(2, 'Bob', 'bob@example.com', 'Boston'),
		(3, 'Cy', 'cy@example.com', 'New York')`,
	`INSERT INTO orders (customer_id, total) VALUES (1, 19.5), (1, 5), (2, 42)`,
}

// SeedSQLite creates a SQLite file in a temp dir, runs the statements and
// returns its path. With no statements EcommerceSchema is used.
func SeedSQLite(t testing.TB, statements ...string) string {
	t.Helper()
	if len(statements) == 0 {
		statements = EcommerceSchema
	}

	path := filepath.Join(t.TempDir(), "ecommerce.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer func() { _ = db.Close() }()

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("seed sqlite: %v\n%s", err, stmt)
		}
	}
	return path
}
