package config // package config loads application configuration from environment variables

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable. The value is built once at startup and passed to
// the components that need it; nothing in the module reads these variables
// after Load returns.
type Config struct {
	Env           string   // application environment (e.g. "dev", "prod")
	Port          string   // HTTP port to listen on
	DBUser        string   // database username
	DBPass        string   // database password (optional)
	DBHost        string   // database host address
	DBPort        string   // database port number
	DBName        string   // database name
	DBAutoMigrate bool     // apply the embedded schema at startup
	JWTSecret     string   // secret used to sign JWTs
	AccessTTLMin  int      // access token time-to-live in minutes
	BcryptCost    int      // bcrypt cost for password hashing
	CORSOrigins   []string // allowed browser origins
	LogDebug      bool     // development logger with debug level
}

// ErrMissingEnv is wrapped by Load when a required variable is unset.
var ErrMissingEnv = errors.New("missing required env var")

// Load reads an optional .env file and then the process environment.
// Variables already present in the environment win over the file.
// Missing required variables and malformed numbers are reported as
// errors naming the variable.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var r reader
	cfg := Config{
		Env:           envStr("APP_ENV", "dev"),
		Port:          r.must("APP_PORT"),
		DBUser:        r.must("DB_USER"),
		DBPass:        os.Getenv("DB_PASS"),
		DBHost:        r.must("DB_HOST"),
		DBPort:        r.must("DB_PORT"),
		DBName:        r.must("DB_NAME"),
		DBAutoMigrate: envBool("DB_AUTO_MIGRATE", false),
		JWTSecret:     r.must("JWT_SECRET"),
		AccessTTLMin:  r.intOr("ACCESS_TOKEN_TTL_MIN", 60),
		BcryptCost:    r.intOr("BCRYPT_COST", 10),
		CORSOrigins:   splitList(envStr("CORS_ORIGINS", "*")),
		LogDebug:      envBool("LOG_DEBUG", false),
	}
	if r.err != nil {
		return Config{}, r.err
	}
	return cfg, nil
}

// reader collects the first error while reading variables so Load can
// build the struct in one literal.
type reader struct{ err error }

func (r *reader) must(key string) string {
	v, ok := os.LookupEnv(key)
	if (!ok || v == "") && r.err == nil {
		r.err = fmt.Errorf("%w: %s", ErrMissingEnv, key)
	}
	return v
}

func (r *reader) intOr(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		if r.err == nil {
			r.err = fmt.Errorf("invalid int for %s: %q", key, s)
		}
		return def
	}
	return n
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
