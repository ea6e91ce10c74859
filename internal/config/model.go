// internal/config/model.go
//
// Typed configuration model for ORVSD Central.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                           – dotenv values,
//   • `conf/central.yaml`                       – primary static file,
//   • `CENTRAL_`-prefixed environment overrides – highest precedence.
//
// Any value whose string begins with the prefix `vault:` is resolved
// through the Vault client *before* unmarshalling, so the model never
// stores Vault URIs, only plain strings.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.
//   • Oxford commas, two spaces after periods.  No em-dash.

package config

import "time"

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr   string        `koanf:"listen_addr"   validate:"required,hostname_port"`
	ForceHTTPS   bool          `koanf:"force_https"`
	CSRFKey      string        `koanf:"csrf_key"`
	SessionKey   string        `koanf:"session_key"`
	SessionTTL   time.Duration `koanf:"session_ttl"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
}

//
// Database section
//

// Database holds the central store DSN template and its secret.
//
// `CentralDSN` may contain exactly one `%s` verb, which is replaced with
// `CentralPassword` at connect time.  The password usually lives in Vault.
//
// A gather run pins one pooled connection for its advisory lock and needs
// another for each record transaction, so `MaxOpenConns` is 0 (default)
// or at least 2.
type Database struct {
	CentralDSN      string `koanf:"central_dsn"      validate:"required"`
	CentralPassword string `koanf:"central_password"`
	MaxOpenConns    int    `koanf:"max_open_conns"   validate:"eq=0|gte=2"`
	MaxIdleConns    int    `koanf:"max_idle_conns"   validate:"gte=0"`
}

//
// Siteinfo section
//

// Siteinfo describes the aggregator host whose schemas carry siteinfo
// tables.  An empty Host disables gathering.
type Siteinfo struct {
	Host           string        `koanf:"host"`
	Port           int           `koanf:"port"            validate:"gte=0,lte=65535"`
	User           string        `koanf:"user"            validate:"required_with=Host"`
	Password       string        `koanf:"password"`
	ConnectTimeout time.Duration `koanf:"connect_timeout"`
	ReadTimeout    time.Duration `koanf:"read_timeout"`
	IsolateSources bool          `koanf:"isolate_sources"`
}

//
// Install section
//

// Install holds the remote course-install webservice settings.  The
// identity fields describe the account the remote plugin enrols as course
// owner.
type Install struct {
	WSToken         string        `koanf:"wstoken"`
	DefaultFilePath string        `koanf:"default_filepath"`
	Timeout         time.Duration `koanf:"timeout"`
	Category        string        `koanf:"category"`
	Firstname       string        `koanf:"firstname"`
	Lastname        string        `koanf:"lastname"`
	City            string        `koanf:"city"`
	Username        string        `koanf:"username"`
	Email           string        `koanf:"email" validate:"omitempty,email"`
	Password        string        `koanf:"password"`
}

//
// Admin bootstrap
//

// Admin seeds the first administrator account.
type Admin struct {
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	Email    string `koanf:"email" validate:"omitempty,email"`
}

// GeoIP points at an optional GeoLite2-City database for audit logs.
type GeoIP struct {
	CityDB string `koanf:"city_db"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.
type Paths struct {
	Root string // CENTRAL_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	Database Database `koanf:"database"`
	Siteinfo Siteinfo `koanf:"siteinfo"`
	Install  Install  `koanf:"install"`
	Admin    Admin    `koanf:"admin"`
	GeoIP    GeoIP    `koanf:"geoip"`
	Paths    Paths    `koanf:"-"`
}

// defaults seeds values applied before the YAML layer.
func defaults() map[string]any {
	return map[string]any{
		"http.listen_addr":         ":8080",
		"http.session_ttl":         "12h",
		"http.write_timeout":       "10m",
		"database.max_open_conns":  15,
		"database.max_idle_conns":  5,
		"siteinfo.port":            3306,
		"siteinfo.connect_timeout": "10s",
		"siteinfo.read_timeout":    "60s",
		"install.timeout":          "2m",
		"install.category":         "1",
		"install.firstname":        "orvsd",
		"install.lastname":         "central",
		"install.city":             "none",
		"install.username":         "admin",
	}
}
