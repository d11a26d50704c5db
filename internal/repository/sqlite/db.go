package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso / libSQL driver
	_ "modernc.org/sqlite"                               // Local SQLite driver
)

// DriverName picks the database/sql driver for a DSN: remote libSQL URLs go
// to the libsql client, everything else to the embedded SQLite engine
func DriverName(dsn string) string {
	if strings.HasPrefix(dsn, "libsql://") || strings.HasPrefix(dsn, "wss://") ||
		strings.HasPrefix(dsn, "https://") || strings.HasPrefix(dsn, "http://") {
		return "libsql"
	}
	return "sqlite"
}

// Open opens and pings the database described by dsn
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	driverName := DriverName(dsn)

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driverName, err)
	}

	if driverName == "sqlite" {
		// SQLite allows one writer at a time; a single connection queues
		// in-process writers in the pool instead of failing them with
		// SQLITE_BUSY. Writers in other processes are still arbitrated by
		// the UNIQUE constraint and busy_timeout.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", driverName, err)
	}

	return db, nil
}
