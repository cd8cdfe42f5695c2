// internal/config/model.go
//
// Typed configuration model for the API.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                          – dotenv values,
//   • `conf/global.yaml`                       – primary static file,
//   • `APIKIT_`-prefixed environment overrides – highest precedence.
//
// Any value whose string begins with the prefix `vault:` is resolved
// through the secrets client *before* unmarshalling, so the model never
// stores Vault URIs—only plain strings.
//
// Validation happens immediately after unmarshal; the app fails fast if
// required fields are missing.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`—Koanf ignores `yaml` tags
//     unless configured otherwise.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.

package config

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr string `koanf:"listen_addr" validate:"required,hostname_port"`
}

//
// CORS section
//

// CORS is the explicit origin allow-list for the browser frontend.  Only
// listed origins receive Access-Control-Allow-Origin; everything else gets
// no CORS headers at all.
type CORS struct {
	AllowedOrigins []string `koanf:"allowed_origins" validate:"required,min=1"`
}

//
// Database section
//

// Database holds the MySQL DSN.  The password portion may be stored in
// Vault (`vault:secret/data/apikit#db_password`) and is injected at
// runtime, keeping credentials out of flat files and git history.
type Database struct {
	DSN      string `koanf:"dsn"      validate:"required"`
	Password string `koanf:"password" validate:"required"`
}

//
// Session section
//

// Session configures the admin session cookie and the server-side session
// rows backing it.  TTLHours bounds how long a login survives without a
// fresh request.
type Session struct {
	CookieName string `koanf:"cookie_name" validate:"required"`
	AuthKey    string `koanf:"auth_key"    validate:"required,min=32"`
	TTLHours   int    `koanf:"ttl_hours"   validate:"required,min=1"`
	Secure     bool   `koanf:"secure"`
}

//
// Uploads section
//

// Uploads points at the directory that stores visitor-facing images (logos
// for now).  The per-file size ceiling and allow-list are fixed in
// internal/upload.
type Uploads struct {
	Dir string `koanf:"dir" validate:"required"`
}

//
// Geo section
//

// Geo optionally names a GeoLite2-City database.  When empty, geolocation
// lookups return empty results and nothing else changes.
type Geo struct {
	DBPath string `koanf:"db_path"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime—never set in YAML or env.  The loader
// discovers `Root` (repo root or APIKIT_ROOT override) so later code can
// build absolute file paths.
type Paths struct {
	Root string
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	CORS     CORS     `koanf:"cors"`
	Database Database `koanf:"database"`
	Session  Session  `koanf:"session"`
	Uploads  Uploads  `koanf:"uploads"`
	Geo      Geo      `koanf:"geo"`
	Paths    Paths    `koanf:"-"`
}
