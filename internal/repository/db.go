package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Dialect names the SQL flavour behind a DB.
type Dialect string

const (
	DialectMySQL  Dialect = "mysql"
	DialectSQLite Dialect = "sqlite"
)

var ErrUnsupportedDatabase = errors.New("unsupported database url")

// DB is a connection pool together with the dialect it speaks.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// ParseDatabaseURL maps a DATABASE_URL onto a driver dialect and DSN.
// Accepted forms are sqlite://<path>, file:<path>, *.db paths,
// mysql://<dsn> and bare go-sql-driver DSNs.
func ParseDatabaseURL(databaseURL string) (Dialect, string, error) {
	u := strings.TrimSpace(databaseURL)
	switch {
	case u == "":
		return "", "", fmt.Errorf("%w: empty", ErrUnsupportedDatabase)
	case strings.HasPrefix(u, "sqlite://"):
		path := strings.TrimPrefix(u, "sqlite://")
		if path == "" {
			return "", "", fmt.Errorf("%w: missing sqlite path", ErrUnsupportedDatabase)
		}
		return DialectSQLite, sqliteDSN(path), nil
	case strings.HasPrefix(u, "file:"), u == ":memory:", strings.HasSuffix(u, ".db"), strings.HasSuffix(u, ".sqlite"):
		return DialectSQLite, sqliteDSN(u), nil
	case strings.HasPrefix(u, "postgres://"), strings.HasPrefix(u, "postgresql://"):
		return "", "", fmt.Errorf("%w: postgres is not supported", ErrUnsupportedDatabase)
	}

	dsn := strings.TrimPrefix(u, "mysql://")
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrUnsupportedDatabase, err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return DialectMySQL, cfg.FormatDSN(), nil
}

func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_time_format=sqlite"
}

// NewDB opens the database named by databaseURL and verifies it is reachable.
func NewDB(ctx context.Context, databaseURL string) (*DB, error) {
	dialect, dsn, err := ParseDatabaseURL(databaseURL)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", dialect, err)
	}

	switch dialect {
	case DialectSQLite:
		// One writer at a time; also keeps :memory: databases on a single connection.
		db.SetMaxOpenConns(1)
	default:
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging %s database: %w", dialect, err)
	}

	slog.Info("database connected", "dialect", dialect)
	return &DB{DB: db, Dialect: dialect}, nil
}

// Migrate creates the tables and indexes mealscan needs if they are missing.
func (db *DB) Migrate(ctx context.Context) error {
	stmts := sqliteSchema
	if db.Dialect == DialectMySQL {
		stmts = mysqlSchema
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("running migration: %w", err)
		}
	}
	return nil
}

// isDuplicateEntryError reports whether err is a unique key violation.
func isDuplicateEntryError(err error) bool {
	if err == nil {
		return false
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}

	return false
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id               TEXT PRIMARY KEY,
		provider         TEXT NOT NULL,
		provider_user_id TEXT NOT NULL,
		email            TEXT NOT NULL DEFAULT '',
		created_at       DATETIME NOT NULL,
		UNIQUE (provider, provider_user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS meal_logs (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id       TEXT NOT NULL,
		email         TEXT NOT NULL DEFAULT '',
		meal_date     TEXT NOT NULL,
		input_type    TEXT NOT NULL DEFAULT 'text',
		input_text    TEXT NOT NULL DEFAULT '',
		description   TEXT NOT NULL DEFAULT '',
		calories_kcal REAL NOT NULL DEFAULT 0,
		protein_g     REAL NOT NULL DEFAULT 0,
		confidence    REAL NOT NULL DEFAULT 0,
		notes         TEXT NOT NULL DEFAULT '',
		warnings      TEXT NOT NULL DEFAULT '[]',
		created_at    DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_meal_logs_user_date ON meal_logs (user_id, meal_date)`,
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id               VARCHAR(64)  NOT NULL PRIMARY KEY,
		provider         VARCHAR(32)  NOT NULL,
		provider_user_id VARCHAR(255) NOT NULL,
		email            VARCHAR(255) NOT NULL DEFAULT '',
		created_at       DATETIME(6)  NOT NULL,
		UNIQUE KEY uq_users_provider (provider, provider_user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS meal_logs (
		id            BIGINT       NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_id       VARCHAR(64)  NOT NULL,
		email         VARCHAR(255) NOT NULL DEFAULT '',
		meal_date     CHAR(10)     NOT NULL,
		input_type    VARCHAR(16)  NOT NULL DEFAULT 'text',
		input_text    TEXT         NOT NULL,
		description   TEXT         NOT NULL,
		calories_kcal DOUBLE       NOT NULL DEFAULT 0,
		protein_g     DOUBLE       NOT NULL DEFAULT 0,
		confidence    DOUBLE       NOT NULL DEFAULT 0,
		notes         TEXT         NOT NULL,
		warnings      TEXT         NOT NULL,
		created_at    DATETIME(6)  NOT NULL,
		KEY idx_meal_logs_user_date (user_id, meal_date)
	)`,
}
