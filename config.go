package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Departure     string `yaml:"departure"`
	Destination   string `yaml:"destination"`
	Date          string `yaml:"date"`
	DepartureTime string `yaml:"departure_time"`
	TicketCount   int    `yaml:"ticket_count"`

	PollIntervalSeconds  int     `yaml:"poll_interval_seconds"`
	SearchSettleSeconds  int     `yaml:"search_settle_seconds"`
	MaxConsecutiveErrors int     `yaml:"max_consecutive_errors"`
	MaxRestarts          int     `yaml:"max_restarts"`
	BaseBackoffSeconds   float64 `yaml:"base_backoff_seconds"`
	BackoffGrowthFactor  float64 `yaml:"backoff_growth_factor"`
	BackoffCapSeconds    float64 `yaml:"backoff_cap_seconds"`

	Headless           bool   `yaml:"headless"`
	BrowserProfilePath string `yaml:"browser_profile_path"`

	NotifyOnly bool   `yaml:"notify_only"`
	DebugMode  bool   `yaml:"debug_mode"`
	LogFile    string `yaml:"log_file"`

	Notify NotifyConfig `yaml:"notify"`
}

type NotifyConfig struct {
	DesktopEnabled bool   `yaml:"desktop_enabled"`
	Sound          string `yaml:"sound"`
	OpenURL        string `yaml:"open_url"`

	// EmailTransport is one of: smtp, applescript, mutt, none.
	EmailTransport  string   `yaml:"email_transport"`
	EmailFrom       string   `yaml:"email_from"`
	EmailRecipients []string `yaml:"email_recipients"`

	// SMTP credentials come from the environment (or a .env file), not the
	// config file, so secrets stay out of version control.
	SMTPHost     string `yaml:"-"`
	SMTPPort     int    `yaml:"-"`
	SMTPUser     string `yaml:"-"`
	SMTPPassword string `yaml:"-"`

	IMessageRecipient string `yaml:"imessage_recipient"`
}

func DefaultConfig() *Config {
	userDataDir := getUserDataDir()

	return &Config{
		Departure:     "수서",
		Destination:   "동대구",
		Date:          "",
		DepartureTime: "",
		TicketCount:   1,

		PollIntervalSeconds:  3,
		SearchSettleSeconds:  3,
		MaxConsecutiveErrors: 5,
		MaxRestarts:          5,
		BaseBackoffSeconds:   2,
		BackoffGrowthFactor:  2,
		BackoffCapSeconds:    30,

		Headless:           false,
		BrowserProfilePath: filepath.Join(userDataDir, "browser-profile"),

		NotifyOnly: false,
		DebugMode:  false,
		LogFile:    "ticket_automation.log",

		Notify: NotifyConfig{
			DesktopEnabled: true,
			Sound:          "Frog",
			OpenURL:        srtSearchURL,
			EmailTransport: "none",
		},
	}
}

func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := config.Save(path); err != nil {
			return nil, err
		}
		config.applyEnvOverrides()
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, err
	}

	config.applyEnvOverrides()

	if config.BrowserProfilePath != "" {
		if err := os.MkdirAll(config.BrowserProfilePath, 0755); err != nil {
			return nil, err
		}
	}

	return config, nil
}

func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SRTWATCH_SMTP_HOST"); v != "" {
		c.Notify.SMTPHost = v
	}
	if v := os.Getenv("SRTWATCH_SMTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Notify.SMTPPort = port
		}
	}
	if c.Notify.SMTPPort == 0 {
		c.Notify.SMTPPort = 587
	}
	if v := os.Getenv("SRTWATCH_SMTP_USER"); v != "" {
		c.Notify.SMTPUser = v
	}
	if v := os.Getenv("SRTWATCH_SMTP_PASSWORD"); v != "" {
		c.Notify.SMTPPassword = v
	}
}

// Validate covers the operational fields; search criteria are validated
// separately by NewSearchCriteria.
func (c *Config) Validate() error {
	if c.PollIntervalSeconds <= 0 {
		return fmt.Errorf("%w: poll_interval_seconds must be positive", ErrConfiguration)
	}
	if c.MaxConsecutiveErrors <= 0 {
		return fmt.Errorf("%w: max_consecutive_errors must be positive", ErrConfiguration)
	}
	if c.MaxRestarts < 0 {
		return fmt.Errorf("%w: max_restarts must not be negative", ErrConfiguration)
	}
	if c.BaseBackoffSeconds <= 0 {
		return fmt.Errorf("%w: base_backoff_seconds must be positive", ErrConfiguration)
	}
	if c.BackoffGrowthFactor < 1 {
		return fmt.Errorf("%w: backoff_growth_factor must be at least 1", ErrConfiguration)
	}
	if c.BackoffCapSeconds < c.BaseBackoffSeconds {
		return fmt.Errorf("%w: backoff_cap_seconds must not be below base_backoff_seconds", ErrConfiguration)
	}

	switch c.Notify.EmailTransport {
	case "", "none", "applescript", "mutt":
	case "smtp":
		if c.Notify.SMTPHost == "" {
			return fmt.Errorf("%w: SRTWATCH_SMTP_HOST is required for the smtp transport", ErrConfiguration)
		}
		if c.Notify.SMTPUser == "" || c.Notify.SMTPPassword == "" {
			return fmt.Errorf("%w: SRTWATCH_SMTP_USER and SRTWATCH_SMTP_PASSWORD are required for the smtp transport", ErrConfiguration)
		}
	default:
		return fmt.Errorf("%w: unknown email transport '%s' (use smtp, applescript, mutt or none)", ErrConfiguration, c.Notify.EmailTransport)
	}

	if c.Notify.EmailTransport != "" && c.Notify.EmailTransport != "none" && len(c.Notify.EmailRecipients) == 0 {
		return fmt.Errorf("%w: email_recipients is empty but email transport '%s' is configured", ErrConfiguration, c.Notify.EmailTransport)
	}

	return nil
}

// Limits bundles the watcher's operational bounds.
type Limits struct {
	PollInterval         time.Duration
	MaxConsecutiveErrors int
	MaxRestarts          int
	BaseBackoff          time.Duration
	BackoffGrowth        float64
	BackoffCap           time.Duration
}

func (c *Config) Limits() Limits {
	return Limits{
		PollInterval:         time.Duration(c.PollIntervalSeconds) * time.Second,
		MaxConsecutiveErrors: c.MaxConsecutiveErrors,
		MaxRestarts:          c.MaxRestarts,
		BaseBackoff:          time.Duration(c.BaseBackoffSeconds * float64(time.Second)),
		BackoffGrowth:        c.BackoffGrowthFactor,
		BackoffCap:           time.Duration(c.BackoffCapSeconds * float64(time.Second)),
	}
}

func getUserDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./srtwatch-data"
	}
	return filepath.Join(home, ".srtwatch")
}
