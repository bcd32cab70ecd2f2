package db

import (
	"database/sql"
	"fmt"
	"log"

	_ "modernc.org/sqlite"
)

// OpenSQLite opens the route store database file, creating it if missing.
// busy_timeout is set through the DSN so that every pooled connection gets it.
func OpenSQLite(path string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("unable to open sqlite database: %w", err)
	}

	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(5)

	// WAL lets readers proceed while a leg is being written
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("unable to enable WAL: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("unable to ping sqlite database: %w", err)
	}

	log.Printf("SQLite database opened: %s", path)
	return conn, nil
}
