package infra

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration parsed from environment variables.
type Config struct {
	// Database
	DatabaseURL string `env:"DATABASE_URL"`
	PGHost      string `env:"PGHOST" envDefault:"localhost"`
	PGPort      int    `env:"PGPORT" envDefault:"5432"`
	PGUser      string `env:"PGUSER" envDefault:"sharpline"`
	PGPassword  string `env:"PGPASSWORD" envDefault:"sharpline"`
	PGDatabase  string `env:"PGDATABASE" envDefault:"sharpline"`

	// Provider credentials
	OddsAPIKey    string `env:"ODDS_API_KEY"`
	WeatherAPIKey string `env:"WEATHER_API_KEY"`

	// Provider base URLs (overridable for tests and mirrors)
	ESPNBaseURL    string `env:"ESPN_BASE_URL" envDefault:"https://site.api.espn.com/apis/site/v2/sports/football"`
	OddsBaseURL    string `env:"ODDS_BASE_URL" envDefault:"https://api.the-odds-api.com"`
	WeatherBaseURL string `env:"WEATHER_BASE_URL" envDefault:"https://api.weatherapi.com/v1"`
	MasseyFeedURL  string `env:"MASSEY_FEED_URL"`

	// Bankroll / staking
	BankrollUnits  float64 `env:"BANKROLL_UNITS" envDefault:"100"`
	KellyFraction  float64 `env:"KELLY_FRACTION" envDefault:"0.25"`
	MaxBetFraction float64 `env:"MAX_BET_FRACTION" envDefault:"0.03"`
	MinEdgePercent float64 `env:"MIN_EDGE_PERCENT" envDefault:"5.5"`

	// Model constants
	HFANfl       float64 `env:"HFA_NFL" envDefault:"2.5"`
	HFANcaaf     float64 `env:"HFA_NCAAF" envDefault:"3.5"`
	ModelVersion string  `env:"MODEL_VERSION" envDefault:"v1"`

	// Leagues this deployment collects; each needs calendar, team-mapping,
	// and key-number files under ConfigDir.
	Leagues []string `env:"LEAGUES" envSeparator:"," envDefault:"nfl"`

	// Config file locations
	ConfigDir     string `env:"CONFIG_DIR" envDefault:"config"`
	RawArchiveDir string `env:"RAW_ARCHIVE_DIR" envDefault:"raw"`

	// Kafka
	KafkaBrokers string `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
	KafkaEnabled bool   `env:"KAFKA_ENABLED" envDefault:"false"`

	// Scheduler daemon status server
	StatusPort int `env:"STATUS_PORT" envDefault:"3200"`
}

// LoadConfig parses environment variables into a Config struct.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate checks staking parameters and required credentials for a
// collection run. The weather key is optional; that source degrades.
func (c *Config) Validate() error {
	if c.KellyFraction <= 0 || c.KellyFraction > 1 {
		return fmt.Errorf("KELLY_FRACTION must be in (0,1], got %v", c.KellyFraction)
	}
	if c.MaxBetFraction <= 0 || c.MaxBetFraction > 0.1 {
		return fmt.Errorf("MAX_BET_FRACTION must be in (0,0.1], got %v", c.MaxBetFraction)
	}
	if c.BankrollUnits <= 0 {
		return fmt.Errorf("BANKROLL_UNITS must be positive, got %v", c.BankrollUnits)
	}
	if c.MinEdgePercent < 0 {
		return fmt.Errorf("MIN_EDGE_PERCENT must be non-negative, got %v", c.MinEdgePercent)
	}
	if c.OddsAPIKey == "" {
		return fmt.Errorf("ODDS_API_KEY is required (odds is a critical source)")
	}
	return nil
}

// DSN returns the PostgreSQL connection string, preferring DATABASE_URL if set.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.PGUser, c.PGPassword, c.PGHost, c.PGPort, c.PGDatabase)
}

// HomeFieldAdvantage returns the configured HFA in points for a league key
// ("nfl" or "ncaaf"). The NFL constant is configurable because published
// methodology disagrees on 2.5 vs 3.0; 2.5 is the default.
func (c *Config) HomeFieldAdvantage(league string) float64 {
	if league == "ncaaf" {
		return c.HFANcaaf
	}
	return c.HFANfl
}
