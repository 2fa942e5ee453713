// config/config.go
package config

import (
	"fmt"
	"os"
	"time"
	_ "time/tzdata" // Timezone lookups must not depend on the host's zoneinfo

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"

	DefaultSituationURL = "https://www.health.state.mn.us/diseases/coronavirus/situation.html"
	DefaultUserAgent    = "mncovid scraper (github.com/gewnthar/mncovid)"
	DefaultTimezone     = "America/Chicago"
)

type ServerConfig struct {
	Port string `yaml:"port"`
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // "mysql" or "sqlite"
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	Path     string `yaml:"path"` // SQLite file, ":memory:" allowed
}

type SourceConfig struct {
	SituationURL string        `yaml:"situation_url"`
	UserAgent    string        `yaml:"user_agent"`
	TimeoutStr   string        `yaml:"timeout"`
	Timeout      time.Duration `yaml:"-"` // Parsed duration
}

// ScraperSelectorsConfig holds the element ids of the tables on the situation page.
// Empty values fall back to the scraper's defaults.
type ScraperSelectorsConfig struct {
	HospitalizedTotals string `yaml:"hospitalized_totals"`
	CaseTotals         string `yaml:"case_totals"`
	DailyCaseTotals    string `yaml:"daily_case_totals"`
	TestTotals         string `yaml:"test_totals"`
	DeathTotals        string `yaml:"death_totals"`
	DailyDeathTotals   string `yaml:"daily_death_totals"`
	RecoveryTotals     string `yaml:"recovery_totals"`
	Counties           string `yaml:"counties"`
	CasesBySampleDate  string `yaml:"cases_by_sample_date"`
	Tests              string `yaml:"tests"`
	Hospitalizations   string `yaml:"hospitalizations"`
	Deaths             string `yaml:"deaths"`
	Ages               string `yaml:"ages"`
	RecentDeaths       string `yaml:"recent_deaths"`
}

// WebhooksConfig maps each notification channel to its Slack incoming-webhook URL.
type WebhooksConfig struct {
	CovidTracking string `yaml:"covid_tracking"`
	Virus         string `yaml:"virus"`
	RobotDojo     string `yaml:"robot_dojo"`
}

type NotifyConfig struct {
	Webhooks            WebhooksConfig `yaml:"webhooks"`
	HeartbeatOnNoChange *bool          `yaml:"heartbeat_on_no_change"`
	TimeoutStr          string         `yaml:"timeout"`
	Timeout             time.Duration  `yaml:"-"`
}

type ExportsConfig struct {
	Dir string `yaml:"dir"`
}

type MetricsConfig struct {
	PushgatewayURL string `yaml:"pushgateway_url"`
	Job            string `yaml:"job"`
}

type Config struct {
	Server           ServerConfig           `yaml:"server"`
	Database         DatabaseConfig         `yaml:"database"`
	Source           SourceConfig           `yaml:"source"`
	ScraperSelectors ScraperSelectorsConfig `yaml:"scraper_selectors"`
	Notify           NotifyConfig           `yaml:"notify"`
	Exports          ExportsConfig          `yaml:"exports"`
	Metrics          MetricsConfig          `yaml:"metrics"`
	Timezone         string                 `yaml:"timezone"`

	Location *time.Location `yaml:"-"`
}

// Heartbeat reports whether a "no changes" message should go to the operator channel.
func (c *Config) Heartbeat() bool {
	return c.Notify.HeartbeatOnNoChange == nil || *c.Notify.HeartbeatOnNoChange
}

// LoadEnv loads .env style files into the process environment. Missing files
// are ignored when no explicit file was requested.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		files = []string{".env"}
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("failed to load env file(s) %v: %w", files, err)
	}
	return nil
}

// Load reads the YAML config at configPath, applies environment overrides and
// defaults, and parses durations and the timezone.
func Load(configPath string) (*Config, error) {
	file, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(file)
}

// Parse decodes a YAML document into a Config. See Load.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	var err error
	switch cfg.Database.Driver {
	case DriverMySQL, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	cfg.Source.Timeout, err = time.ParseDuration(cfg.Source.TimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse source timeout: %w", err)
	}
	cfg.Notify.Timeout, err = time.ParseDuration(cfg.Notify.TimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse notify timeout: %w", err)
	}

	cfg.Location, err = time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", cfg.Timezone, err)
	}

	return &cfg, nil
}

func applyEnv(cfg *Config) {
	overrides := []struct {
		key string
		dst *string
	}{
		{"MNCOVID_DB_PASSWORD", &cfg.Database.Password},
		{"MNCOVID_SLACK_WEBHOOK_COVID_TRACKING", &cfg.Notify.Webhooks.CovidTracking},
		{"MNCOVID_SLACK_WEBHOOK_VIRUS", &cfg.Notify.Webhooks.Virus},
		{"MNCOVID_SLACK_WEBHOOK_ROBOT_DOJO", &cfg.Notify.Webhooks.RobotDojo},
		{"MNCOVID_PUSHGATEWAY_URL", &cfg.Metrics.PushgatewayURL},
	}
	for _, o := range overrides {
		if v, ok := os.LookupEnv(o.key); ok && v != "" {
			*o.dst = v
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DriverMySQL
	}
	if cfg.Database.Driver == DriverMySQL && cfg.Database.Port == "" {
		cfg.Database.Port = "3306"
	}
	if cfg.Database.Driver == DriverSQLite && cfg.Database.Path == "" {
		cfg.Database.Path = "mncovid.db"
	}
	if cfg.Source.SituationURL == "" {
		cfg.Source.SituationURL = DefaultSituationURL
	}
	if cfg.Source.UserAgent == "" {
		cfg.Source.UserAgent = DefaultUserAgent
	}
	if cfg.Source.TimeoutStr == "" {
		cfg.Source.TimeoutStr = "30s"
	}
	if cfg.Notify.TimeoutStr == "" {
		cfg.Notify.TimeoutStr = "10s"
	}
	if cfg.Exports.Dir == "" {
		cfg.Exports.Dir = "exports"
	}
	if cfg.Metrics.Job == "" {
		cfg.Metrics.Job = "mncovid"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = DefaultTimezone
	}
}
