package store

import (
	"fmt"
	"regexp"
	"strings"
)

// columnTypes maps the placeholders used in the migration DDL to each
// driver's concrete column types.
var columnTypes = map[string]*strings.Replacer{
	DriverSQLite: strings.NewReplacer(
		"{{pk}}", "INTEGER PRIMARY KEY AUTOINCREMENT",
		"{{bigint}}", "INTEGER",
		"{{str}}", "TEXT",
		"{{longstr}}", "TEXT",
		"{{ts}}", "DATETIME",
		"{{bool}}", "INTEGER",
		"{{true}}", "1",
	),
	DriverPostgres: strings.NewReplacer(
		"{{pk}}", "BIGSERIAL PRIMARY KEY",
		"{{bigint}}", "BIGINT",
		"{{str}}", "VARCHAR(255)",
		"{{longstr}}", "VARCHAR(1024)",
		"{{ts}}", "TIMESTAMPTZ",
		"{{bool}}", "BOOLEAN",
		"{{true}}", "TRUE",
	),
	DriverMySQL: strings.NewReplacer(
		"{{pk}}", "BIGINT AUTO_INCREMENT PRIMARY KEY",
		"{{bigint}}", "BIGINT",
		"{{str}}", "VARCHAR(255)",
		"{{longstr}}", "VARCHAR(1024)",
		"{{ts}}", "DATETIME(6)",
		"{{bool}}", "BOOLEAN",
		"{{true}}", "TRUE",
	),
	DriverMSSQL: strings.NewReplacer(
		"{{pk}}", "BIGINT IDENTITY(1,1) PRIMARY KEY",
		"{{bigint}}", "BIGINT",
		"{{str}}", "NVARCHAR(255)",
		"{{longstr}}", "NVARCHAR(1024)",
		"{{ts}}", "DATETIMEOFFSET",
		"{{bool}}", "BIT",
		"{{true}}", "1",
	),
}

// SQL Server has no CREATE TABLE IF NOT EXISTS.
var createTableIfMissing = regexp.MustCompile(`^CREATE TABLE IF NOT EXISTS (\w+)`)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS admins (
		id {{pk}},
		name {{str}} NOT NULL DEFAULT '',
		email {{str}} UNIQUE NOT NULL,
		password_hash {{str}} NOT NULL,
		role {{str}} NOT NULL,
		is_active {{bool}} NOT NULL DEFAULT {{true}},
		last_login_at {{ts}} NULL,
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS otps (
		id {{pk}},
		email {{str}} NOT NULL,
		code_hash {{str}} NOT NULL,
		expires_at {{ts}} NOT NULL,
		created_at {{ts}} NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS login_attempts (
		id VARCHAR(36) PRIMARY KEY,
		admin_id {{bigint}} NULL,
		email {{str}} NOT NULL DEFAULT '',
		device_id {{str}} NOT NULL DEFAULT '',
		device_info {{longstr}} NOT NULL DEFAULT '',
		ip_address {{str}} NOT NULL DEFAULT '',
		location {{str}} NOT NULL DEFAULT '',
		location_source {{str}} NOT NULL DEFAULT '',
		status {{str}} NOT NULL,
		approved_by {{bigint}} NULL,
		approver_role {{str}} NOT NULL DEFAULT '',
		resolved_at {{ts}} NULL,
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL
	)`,

	`CREATE INDEX idx_otps_email ON otps(email)`,
	`CREATE INDEX idx_login_attempts_trust ON login_attempts(admin_id, device_id, status)`,
	`CREATE INDEX idx_login_attempts_status_created ON login_attempts(status, created_at)`,
}

// renderMigrations returns the migration statements in driver's dialect.
func renderMigrations(driver string) ([]string, error) {
	types, ok := columnTypes[driver]
	if !ok {
		return nil, fmt.Errorf("no column types for driver %s", driver)
	}

	stmts := make([]string, 0, len(migrations))
	for _, m := range migrations {
		stmt := types.Replace(m)
		if driver == DriverMSSQL {
			stmt = createTableIfMissing.ReplaceAllString(stmt, "IF OBJECT_ID(N'$1', N'U') IS NULL CREATE TABLE $1")
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

func (s *Store) migrate() error {
	stmts, err := renderMigrations(s.driver)
	if err != nil {
		return err
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			// Indexes are created unconditionally since MySQL lacks
			// CREATE INDEX IF NOT EXISTS; an existing index is a no-op.
			if isExistingIndex(err) {
				continue
			}
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, stmt)
		}
	}
	return nil
}

func isExistingIndex(err error) bool {
	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "already exists") ||
		strings.Contains(lower, "duplicate key name")
}
