// Package config loads server settings from the environment.
//
// Values come from real environment variables first; a .env file in the
// working directory, if present, fills in anything not already set. That
// keeps local development to a single file while deployments use plain env.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds every setting the server reads at startup.
type Config struct {
	Port   int    `envconfig:"PORT" default:"8080"`
	DBPath string `envconfig:"DB_PATH" default:"data/checkins.db"`

	// Auth. An empty JWTSecret disables every route that needs a session.
	JWTSecret          string        `envconfig:"JWT_SECRET"`
	TokenTTL           time.Duration `envconfig:"TOKEN_TTL" default:"168h"`
	BcryptCost         int           `envconfig:"BCRYPT_COST" default:"12"`
	SecureCookies      bool          `envconfig:"SECURE_COOKIES" default:"false"`
	GitHubClientID     string        `envconfig:"GITHUB_CLIENT_ID"`
	GitHubClientSecret string        `envconfig:"GITHUB_CLIENT_SECRET"`
	GitHubCallbackURL  string        `envconfig:"GITHUB_CALLBACK_URL"`
	AuthRatePerMinute  int           `envconfig:"AUTH_RATE_PER_MINUTE" default:"10"`

	// Challenge calendar.
	ChallengeMonth int    `envconfig:"CHALLENGE_MONTH" default:"11"`
	Timezone       string `envconfig:"TIMEZONE" default:"UTC"`

	// Logging.
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`  // debug|info|warn|error
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"` // text|json
	LogFile   string `envconfig:"LOG_FILE"`                  // empty: stdout only

	// Optional infrastructure. Empty address means "not used".
	RedisAddr      string        `envconfig:"REDIS_ADDR"`
	RedisPassword  string        `envconfig:"REDIS_PASSWORD"`
	RedisDB        int           `envconfig:"REDIS_DB" default:"0"`
	LeaderboardTTL time.Duration `envconfig:"LEADERBOARD_TTL" default:"30s"`
	AMQPURL        string        `envconfig:"AMQP_URL"`
}

// Load reads an optional .env file and then the environment into Config,
// and validates the result.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: reading .env: %w", err)
	}
	return FromEnv()
}

// FromEnv is Load without the .env file.
func FromEnv() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if cfg.GitHubCallbackURL == "" {
		cfg.GitHubCallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Port)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values envconfig cannot check by itself.
func (c Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}
	if c.JWTSecret != "" && len(c.JWTSecret) < 16 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 16 characters"))
	}
	if c.ChallengeMonth < 1 || c.ChallengeMonth > 12 {
		errs = append(errs, fmt.Errorf("CHALLENGE_MONTH %d must be 1-12", c.ChallengeMonth))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("TIMEZONE %q: %w", c.Timezone, err))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	if c.AuthRatePerMinute < 0 {
		errs = append(errs, errors.New("AUTH_RATE_PER_MINUTE must not be negative"))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT %q must be text or json", c.LogFormat))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// AuthEnabled reports whether sessions can be issued.
func (c Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

// GitHubEnabled reports whether GitHub sign-in is configured.
func (c Config) GitHubEnabled() bool {
	return c.AuthEnabled() && c.GitHubClientID != "" && c.GitHubClientSecret != ""
}

// Month returns ChallengeMonth as a time.Month.
func (c Config) Month() time.Month {
	return time.Month(c.ChallengeMonth)
}

// Location resolves Timezone. Validate has already rejected bad names, so
// the UTC fallback only matters for a Config built by hand.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
