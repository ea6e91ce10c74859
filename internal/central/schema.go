// internal/central/schema.go
//
// Central store DDL.
//
// Context
// -------
// Production runs on MySQL/MariaDB.  Integration tests run the same query
// helpers against an in-memory SQLite database, so the DDL exists in two
// dialects that must describe the same tables and columns.  Every
// statement is idempotent (`IF NOT EXISTS`), so Migrate is safe to run on
// every deploy.
//
// Statements are kept one per slice element because go-sql-driver/mysql
// rejects multi-statement Exec unless the DSN opts in.

package central

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS districts (
	    id         INT UNSIGNED  NOT NULL AUTO_INCREMENT PRIMARY KEY,
	    name       VARCHAR(255)  NOT NULL DEFAULT '',
	    shortname  VARCHAR(255)  NOT NULL DEFAULT '',
	    base_path  VARCHAR(255)  NOT NULL DEFAULT ''
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS schools (
	    id           INT UNSIGNED  NOT NULL AUTO_INCREMENT PRIMARY KEY,
	    district_id  INT UNSIGNED  NULL,
	    name         VARCHAR(255)  NOT NULL DEFAULT '',
	    shortname    VARCHAR(255)  NOT NULL DEFAULT '',
	    domain       VARCHAR(255)  NOT NULL DEFAULT '',
	    license      VARCHAR(255)  NOT NULL DEFAULT '',
	    KEY idx_schools_domain (domain),
	    CONSTRAINT fk_school_to_district_id FOREIGN KEY (district_id)
	        REFERENCES districts(id) ON DELETE SET NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS sites (
	    id                INT UNSIGNED  NOT NULL AUTO_INCREMENT PRIMARY KEY,
	    school_id         INT UNSIGNED  NOT NULL,
	    sitename          VARCHAR(255)  NOT NULL DEFAULT '',
	    sitetype          ENUM('moodle','drupal') NOT NULL DEFAULT 'moodle',
	    baseurl           VARCHAR(255)  NOT NULL DEFAULT '',
	    basepath          VARCHAR(255)  NOT NULL DEFAULT '',
	    jenkins_cron_job  DATETIME      NULL,
	    location          VARCHAR(255)  NOT NULL DEFAULT '',
	    KEY idx_sites_baseurl (baseurl),
	    CONSTRAINT fk_sites_school_id FOREIGN KEY (school_id)
	        REFERENCES schools(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS site_details (
	    id            INT UNSIGNED  NOT NULL AUTO_INCREMENT PRIMARY KEY,
	    site_id       INT UNSIGNED  NOT NULL,
	    siteversion   VARCHAR(255)  NOT NULL DEFAULT '',
	    siterelease   VARCHAR(255)  NOT NULL DEFAULT '',
	    adminemail    VARCHAR(255)  NOT NULL DEFAULT '',
	    totalusers    INT           NOT NULL DEFAULT 0,
	    adminusers    INT           NOT NULL DEFAULT 0,
	    teachers      INT           NOT NULL DEFAULT 0,
	    activeusers   INT           NOT NULL DEFAULT 0,
	    totalcourses  INT           NOT NULL DEFAULT 0,
	    courses       MEDIUMTEXT    NULL,
	    timemodified  DATETIME      NOT NULL,
	    KEY idx_site_details_latest (site_id, timemodified),
	    CONSTRAINT fk_site_details_site_id FOREIGN KEY (site_id)
	        REFERENCES sites(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS courses (
	    id         INT UNSIGNED  NOT NULL AUTO_INCREMENT PRIMARY KEY,
	    serial     INT           NOT NULL DEFAULT 0,
	    name       VARCHAR(255)  NOT NULL DEFAULT '',
	    shortname  VARCHAR(255)  NOT NULL DEFAULT '',
	    license    VARCHAR(255)  NOT NULL DEFAULT '',
	    category   VARCHAR(255)  NOT NULL DEFAULT '',
	    KEY idx_courses_serial (serial)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS course_details (
	    id              INT UNSIGNED  NOT NULL AUTO_INCREMENT PRIMARY KEY,
	    course_id       INT UNSIGNED  NOT NULL,
	    filename        VARCHAR(255)  NOT NULL DEFAULT '',
	    version         DOUBLE        NOT NULL DEFAULT 0,
	    updated         DATETIME      NULL,
	    active          TINYINT(1)    NOT NULL DEFAULT 1,
	    moodle_version  VARCHAR(255)  NOT NULL DEFAULT '',
	    source          VARCHAR(255)  NOT NULL DEFAULT '',
	    CONSTRAINT fk_course_details_course_id FOREIGN KEY (course_id)
	        REFERENCES courses(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS sites_courses (
	    site_id    INT UNSIGNED  NOT NULL,
	    course_id  INT UNSIGNED  NOT NULL,
	    PRIMARY KEY (site_id, course_id),
	    CONSTRAINT fk_sites_courses_site_id FOREIGN KEY (site_id)
	        REFERENCES sites(id) ON DELETE CASCADE,
	    CONSTRAINT fk_sites_courses_course_id FOREIGN KEY (course_id)
	        REFERENCES courses(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS users (
	    id        INT UNSIGNED  NOT NULL AUTO_INCREMENT PRIMARY KEY,
	    name      VARCHAR(50)   NOT NULL,
	    email     VARCHAR(120)  NOT NULL,
	    password  VARCHAR(255)  NOT NULL,
	    role      SMALLINT      NOT NULL DEFAULT 1,
	    UNIQUE KEY uq_users_name (name),
	    UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS siteinfo (
	    id            INT UNSIGNED  NOT NULL AUTO_INCREMENT PRIMARY KEY,
	    source        VARCHAR(255)  NOT NULL DEFAULT '',
	    baseurl       VARCHAR(255)  NOT NULL DEFAULT '',
	    basepath      VARCHAR(255)  NOT NULL DEFAULT '',
	    sitename      VARCHAR(255)  NOT NULL DEFAULT '',
	    sitetype      VARCHAR(32)   NOT NULL DEFAULT '',
	    siteversion   VARCHAR(255)  NOT NULL DEFAULT '',
	    siterelease   VARCHAR(255)  NOT NULL DEFAULT '',
	    adminemail    VARCHAR(255)  NOT NULL DEFAULT '',
	    totalusers    INT           NOT NULL DEFAULT 0,
	    adminusers    INT           NOT NULL DEFAULT 0,
	    teachers      INT           NOT NULL DEFAULT 0,
	    activeusers   INT           NOT NULL DEFAULT 0,
	    totalcourses  INT           NOT NULL DEFAULT 0,
	    courses       MEDIUMTEXT    NULL,
	    timemodified  DATETIME      NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS districts (
	    id         INTEGER PRIMARY KEY AUTOINCREMENT,
	    name       TEXT NOT NULL DEFAULT '',
	    shortname  TEXT NOT NULL DEFAULT '',
	    base_path  TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS schools (
	    id           INTEGER PRIMARY KEY AUTOINCREMENT,
	    district_id  INTEGER NULL REFERENCES districts(id) ON DELETE SET NULL,
	    name         TEXT NOT NULL DEFAULT '',
	    shortname    TEXT NOT NULL DEFAULT '',
	    domain       TEXT NOT NULL DEFAULT '',
	    license      TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_schools_domain ON schools(domain)`,
	`CREATE TABLE IF NOT EXISTS sites (
	    id                INTEGER PRIMARY KEY AUTOINCREMENT,
	    school_id         INTEGER NOT NULL REFERENCES schools(id) ON DELETE CASCADE,
	    sitename          TEXT NOT NULL DEFAULT '',
	    sitetype          TEXT NOT NULL DEFAULT 'moodle' CHECK (sitetype IN ('moodle','drupal')),
	    baseurl           TEXT NOT NULL DEFAULT '',
	    basepath          TEXT NOT NULL DEFAULT '',
	    jenkins_cron_job  DATETIME NULL,
	    location          TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sites_baseurl ON sites(baseurl)`,
	`CREATE TABLE IF NOT EXISTS site_details (
	    id            INTEGER PRIMARY KEY AUTOINCREMENT,
	    site_id       INTEGER NOT NULL REFERENCES sites(id) ON DELETE CASCADE,
	    siteversion   TEXT NOT NULL DEFAULT '',
	    siterelease   TEXT NOT NULL DEFAULT '',
	    adminemail    TEXT NOT NULL DEFAULT '',
	    totalusers    INTEGER NOT NULL DEFAULT 0,
	    adminusers    INTEGER NOT NULL DEFAULT 0,
	    teachers      INTEGER NOT NULL DEFAULT 0,
	    activeusers   INTEGER NOT NULL DEFAULT 0,
	    totalcourses  INTEGER NOT NULL DEFAULT 0,
	    courses       TEXT NULL,
	    timemodified  DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_site_details_latest ON site_details(site_id, timemodified)`,
	`CREATE TABLE IF NOT EXISTS courses (
	    id         INTEGER PRIMARY KEY AUTOINCREMENT,
	    serial     INTEGER NOT NULL DEFAULT 0,
	    name       TEXT NOT NULL DEFAULT '',
	    shortname  TEXT NOT NULL DEFAULT '',
	    license    TEXT NOT NULL DEFAULT '',
	    category   TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS course_details (
	    id              INTEGER PRIMARY KEY AUTOINCREMENT,
	    course_id       INTEGER NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
	    filename        TEXT NOT NULL DEFAULT '',
	    version         REAL NOT NULL DEFAULT 0,
	    updated         DATETIME NULL,
	    active          INTEGER NOT NULL DEFAULT 1,
	    moodle_version  TEXT NOT NULL DEFAULT '',
	    source          TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS sites_courses (
	    site_id    INTEGER NOT NULL REFERENCES sites(id) ON DELETE CASCADE,
	    course_id  INTEGER NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
	    PRIMARY KEY (site_id, course_id)
	)`,
	`CREATE TABLE IF NOT EXISTS users (
	    id        INTEGER PRIMARY KEY AUTOINCREMENT,
	    name      TEXT NOT NULL UNIQUE,
	    email     TEXT NOT NULL UNIQUE,
	    password  TEXT NOT NULL,
	    role      INTEGER NOT NULL DEFAULT 1
	)`,
	`CREATE TABLE IF NOT EXISTS siteinfo (
	    id            INTEGER PRIMARY KEY AUTOINCREMENT,
	    source        TEXT NOT NULL DEFAULT '',
	    baseurl       TEXT NOT NULL DEFAULT '',
	    basepath      TEXT NOT NULL DEFAULT '',
	    sitename      TEXT NOT NULL DEFAULT '',
	    sitetype      TEXT NOT NULL DEFAULT '',
	    siteversion   TEXT NOT NULL DEFAULT '',
	    siterelease   TEXT NOT NULL DEFAULT '',
	    adminemail    TEXT NOT NULL DEFAULT '',
	    totalusers    INTEGER NOT NULL DEFAULT 0,
	    adminusers    INTEGER NOT NULL DEFAULT 0,
	    teachers      INTEGER NOT NULL DEFAULT 0,
	    activeusers   INTEGER NOT NULL DEFAULT 0,
	    totalcourses  INTEGER NOT NULL DEFAULT 0,
	    courses       TEXT NULL,
	    timemodified  DATETIME NOT NULL
	)`,
}

// Migrate applies the DDL matching db's driver.  Supported drivers are
// "mysql" and "sqlite".
func Migrate(ctx context.Context, db *sqlx.DB) error {
	var stmts []string
	switch db.DriverName() {
	case "mysql":
		stmts = mysqlSchema
	case "sqlite":
		stmts = sqliteSchema
	default:
		return fmt.Errorf("central: no schema for driver %q", db.DriverName())
	}
	for i, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i, err)
		}
	}
	return nil
}
