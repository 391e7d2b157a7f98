package config // package config loads application configuration from environment variables

import (
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable.
type Config struct {
	Env  string // application environment (e.g. "dev", "prod")
	Port string // HTTP port to listen on

	DBUser        string        // database username
	DBPass        string        // database password (optional)
	DBHost        string        // database host address
	DBPort        string        // database port number
	DBName        string        // database name
	DBIsolation   string        // isolation level for booking transactions
	DBStepTimeout time.Duration // upper bound for every single database step
	DBMigrate     bool          // apply the schema at startup
	TableSeed     []int         // capacities inserted when dining_tables is empty

	JWTSecret    string // secret used to sign JWTs
	AccessTTLMin int    // access token time-to-live in minutes
	BcryptCost   int    // bcrypt cost for password hashing

	LogLevel string // zerolog level name

	AMQPURL       string        // RabbitMQ url; empty disables confirmations
	NotifyTimeout time.Duration // bound on publishing one confirmation

	SMTPHost     string // SMTP relay; empty disables the mail consumer
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string

	AdminName     string // seeded admin account
	AdminEmail    string
	AdminPassword string
}

// Load reads configuration values from environment variables and returns a
// Config. Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:  envStr("APP_ENV", "dev"),
		Port: envStr("APP_PORT", "8080"),

		DBUser:        must("DB_USER"),
		DBPass:        envStr("DB_PASS", ""), // empty allowed
		DBHost:        must("DB_HOST"),
		DBPort:        envStr("DB_PORT", "3306"),
		DBName:        must("DB_NAME"),
		DBIsolation:   envStr("DB_TX_ISOLATION", "read_committed"),
		DBStepTimeout: envDur("DB_STEP_TIMEOUT", 5*time.Second),
		DBMigrate:     envBool("DB_MIGRATE", true),
		TableSeed:     parseInts(envStr("TABLE_CAPACITIES", "2,2,4,4,4,6,6,8")),

		JWTSecret:    must("JWT_SECRET"),
		AccessTTLMin: envInt("ACCESS_TOKEN_TTL_MIN", 60),
		BcryptCost:   envInt("BCRYPT_COST", 12),

		LogLevel: envStr("LOG_LEVEL", "info"),

		AMQPURL:       envStr("RABBITMQ_URL", envStr("AMQP_URL", "")),
		NotifyTimeout: envDur("NOTIFY_TIMEOUT", 5*time.Second),

		SMTPHost:     envStr("SMTP_HOST", ""),
		SMTPPort:     envInt("SMTP_PORT", 587),
		SMTPUser:     envStr("SMTP_USER", ""),
		SMTPPassword: envStr("SMTP_PASSWORD", ""),
		SMTPFrom:     envStr("SMTP_FROM", "reservations@ashroots.example"),

		AdminName:     envStr("ADMIN_NAME", "Administrator"),
		AdminEmail:    envStr("ADMIN_EMAIL", ""),
		AdminPassword: envStr("ADMIN_PASSWORD", ""),
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v := envStr(key, "")
	if v == "" {
		log.Fatal().Str("key", key).Msg("missing required env var")
	}
	return v
}

// parseInts reads a comma-separated list, skipping anything that is not a
// positive integer.
func parseInts(s string) []int {
	var out []int
	for _, p := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err == nil && n > 0 {
			out = append(out, n)
		}
	}
	return out
}
