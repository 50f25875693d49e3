package database // package database manages the MySQL connection pool

import (
    "database/sql" // database/sql provides the generic SQL interface
    "fmt"          // fmt builds the DSN string
    "time"         // time configures pool lifetimes

    _ "github.com/go-sql-driver/mysql" // register the MySQL driver

    "github.com/foodbridge/distribution-api/internal/config"
)

// Open creates a *sql.DB for the configured MySQL instance and verifies the
// connection with a ping.  parseTime=true makes DATE and DATETIME columns
// scan into time.Time, which the attribution and shift queries rely on.
func Open(cfg config.Config) (*sql.DB, error) {
    dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&loc=UTC&charset=utf8mb4",
        cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)

    db, err := sql.Open("mysql", dsn)
    if err != nil {
        return nil, fmt.Errorf("open mysql: %w", err)
    }

    // Pool sizing: the per-participant lock serialises writers, so a modest
    // pool is enough even under scan bursts.
    db.SetMaxOpenConns(25)
    db.SetMaxIdleConns(10)
    db.SetConnMaxLifetime(5 * time.Minute)

    if err := db.Ping(); err != nil {
        _ = db.Close()
        return nil, fmt.Errorf("ping mysql: %w", err)
    }
    return db, nil
}
