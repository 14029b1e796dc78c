package database

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"
)

// MaintenanceDB is a raw database/sql connection used by bulk maintenance
// jobs (snapshotting, status sync, cleanup) that run set-based SQL rather
// than going through the ORM.
type MaintenanceDB struct {
	conn *sql.DB
}

// NewMaintenanceDB opens and verifies a raw PostgreSQL connection.
func NewMaintenanceDB(host string, port int, dbname, user, password string) (*MaintenanceDB, error) {
	dsn := fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=disable",
		host, port, dbname, user, password)

	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open maintenance connection: %w", err)
	}

	// Maintenance jobs are sequential; keep the pool small.
	conn.SetMaxOpenConns(5)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(5 * time.Minute)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("✅ Maintenance connection established to %s:%d/%s", host, port, dbname)
	return &MaintenanceDB{conn: conn}, nil
}

// Conn returns the underlying sql.DB.
func (m *MaintenanceDB) Conn() *sql.DB {
	return m.conn
}

// Close closes the maintenance connection.
func (m *MaintenanceDB) Close() error {
	return m.conn.Close()
}
